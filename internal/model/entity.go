package model

import (
	"time"
)

// User is owned by the external identity provider; this service only reads the
// table to resolve comment author display names.
type User struct {
	ID        string    `gorm:"type:varchar(100);primaryKey" json:"id"`
	Username  string    `gorm:"type:varchar(100);not null" json:"username"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

// Whiteboard is a named shared canvas with one owner and a growing editor set.
// UpdatedAt advances on rename and on accepted stroke/text events only.
type Whiteboard struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"_id"`
	Name      string    `gorm:"type:varchar(200)" json:"name"`
	OwnerID   string    `gorm:"type:varchar(100);not null;index" json:"user_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Editors []WhiteboardEditor `gorm:"foreignKey:WhiteboardID" json:"editors,omitempty"`
}

func (Whiteboard) TableName() string {
	return "whiteboards"
}

// WhiteboardEditor records that a user has published a stroke or text event to
// the board. Rows accumulate and are never removed.
type WhiteboardEditor struct {
	WhiteboardID int64  `gorm:"primaryKey;autoIncrement:false" json:"whiteboard_id"`
	UserID       string `gorm:"type:varchar(100);primaryKey" json:"user_id"`
}

func (WhiteboardEditor) TableName() string {
	return "whiteboard_editors"
}

// DrawEvent is one persisted, broadcastable drawing primitive. Kind is the
// variant discriminant; only the columns belonging to the kind are set, the
// rest stay NULL. Points holds the stroke point sequence as a JSON array.
type DrawEvent struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"_id"`
	WhiteboardID int64     `gorm:"not null;index:idx_draw_events_board" json:"whiteboard_id"`
	Kind         string    `gorm:"type:varchar(20);not null" json:"type"`
	CreatedBy    string    `gorm:"type:varchar(100);index" json:"user_id"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`

	Points    *string  `gorm:"type:jsonb" json:"points,omitempty"`
	X         *float64 `json:"x,omitempty"`
	Y         *float64 `json:"y,omitempty"`
	X2        *float64 `json:"x2,omitempty"`
	Y2        *float64 `json:"y2,omitempty"`
	Width     *float64 `json:"width,omitempty"`
	Height    *float64 `json:"height,omitempty"`
	Text      *string  `gorm:"type:text" json:"text,omitempty"`
	Color     *string  `gorm:"type:varchar(50)" json:"color,omitempty"`
	FontSize  *float64 `json:"fontSize,omitempty"`
	ShapeKind *string  `gorm:"type:varchar(30)" json:"shapeType,omitempty"`
	Src       *string  `gorm:"type:text" json:"src,omitempty"`
}

func (DrawEvent) TableName() string {
	return "draw_events"
}

// Comment is a board-scoped discussion entry with a lifecycle independent of
// the draw-event log.
type Comment struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"_id"`
	WhiteboardID int64     `gorm:"not null;index" json:"whiteboard_id"`
	UserID       string    `gorm:"type:varchar(100);not null" json:"user_id"`
	UserName     string    `gorm:"type:varchar(100)" json:"user_name"`
	Text         string    `gorm:"type:text;not null" json:"text"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Comment) TableName() string {
	return "comments"
}
