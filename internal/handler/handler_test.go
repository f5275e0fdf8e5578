package handler

import (
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"whiteboard-backend/internal/auth"
	"whiteboard-backend/internal/database"
	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/presence"
)

// getTestDB opens the database named by TEST_DATABASE_DSN and skips the test
// when it is unset. Tests share the database, so every test works on its own
// boards and freshly generated user IDs.
func getTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set, skipping database test")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func newTestWSHandler(t *testing.T) (*WhiteboardWSHandler, *gorm.DB) {
	t.Helper()
	db := getTestDB(t)
	return NewWhiteboardWSHandler(db, NewRoomHub(), presence.NewTracker(), nil), db
}

func makeBoard(t *testing.T, db *gorm.DB, ownerID string) model.Whiteboard {
	t.Helper()
	board := model.Whiteboard{Name: "test board", OwnerID: ownerID}
	require.NoError(t, db.Create(&board).Error)
	return board
}

func makeClient(userID, username string) *Client {
	return &Client{
		ID:       uuid.NewString(),
		Identity: auth.Identity{UserID: userID, Username: username},
	}
}

func newUserID() string {
	return "user-" + uuid.NewString()
}
