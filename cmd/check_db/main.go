package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"whiteboard-backend/internal/database"
)

// Quick DB inspection tool. Board deletion does not cascade comments, so this
// also reports comment rows whose board is gone.
func main() {
	godotenv.Load()

	db, err := database.ConnectDB()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	fmt.Println("✅ Connected to database")
	fmt.Println()

	var boards, users, comments int64
	if err := db.Table("whiteboards").Count(&boards).Error; err != nil {
		log.Fatal("Failed to count whiteboards:", err)
	}
	db.Table("users").Count(&users)
	db.Table("comments").Count(&comments)

	fmt.Println("📊 Totals:")
	fmt.Printf("  - Whiteboards: %d\n", boards)
	fmt.Printf("  - Users: %d\n", users)
	fmt.Printf("  - Comments: %d\n", comments)
	fmt.Println()

	type KindCount struct {
		Kind  string
		Count int64
	}
	var kinds []KindCount
	if err := db.Raw(`
		SELECT kind, COUNT(*) as count
		FROM draw_events
		GROUP BY kind
		ORDER BY count DESC
	`).Scan(&kinds).Error; err != nil {
		log.Fatal("Failed to count draw events:", err)
	}

	fmt.Println("🖊️ Draw events by kind:")
	for _, k := range kinds {
		fmt.Printf("  - %s: %d\n", k.Kind, k.Count)
	}
	fmt.Println()

	type BoardInfo struct {
		ID      int64
		Name    string
		OwnerID string
		Events  int64
		Editors int64
	}
	var busiest []BoardInfo
	if err := db.Raw(`
		SELECT w.id, w.name, w.owner_id,
			(SELECT COUNT(*) FROM draw_events e WHERE e.whiteboard_id = w.id) as events,
			(SELECT COUNT(*) FROM whiteboard_editors ed WHERE ed.whiteboard_id = w.id) as editors
		FROM whiteboards w
		ORDER BY events DESC
		LIMIT 10
	`).Scan(&busiest).Error; err != nil {
		log.Fatal("Failed to list boards:", err)
	}

	fmt.Println("📋 Busiest boards (top 10):")
	for _, b := range busiest {
		fmt.Printf("  - ID: %d, Name: %q, Owner: %s, Events: %d, Editors: %d\n",
			b.ID, b.Name, b.OwnerID, b.Events, b.Editors)
	}
	fmt.Println()

	var orphaned int64
	if err := db.Raw(`
		SELECT COUNT(*)
		FROM comments c
		WHERE NOT EXISTS (SELECT 1 FROM whiteboards w WHERE w.id = c.whiteboard_id)
	`).Scan(&orphaned).Error; err != nil {
		log.Fatal("Failed to count orphaned comments:", err)
	}

	if orphaned > 0 {
		fmt.Printf("⚠️  Orphaned comments (board deleted): %d\n", orphaned)
	} else {
		fmt.Println("✅ No orphaned comments")
	}
}
