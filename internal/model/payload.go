package model

import (
	"encoding/json"
)

// Point is one coordinate of a stroke path.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// StrokePayload carries a pen or eraser stroke from the client.
type StrokePayload struct {
	Points []Point `json:"points"`
	Color  string  `json:"color"`
	Width  float64 `json:"width"`
}

// ParseStroke validates a raw drawStroke payload. A payload without points is
// best-effort realtime input gone wrong; it yields (nil, false) and the caller
// drops the message without a side effect.
func ParseStroke(raw json.RawMessage) (*StrokePayload, bool) {
	var p StrokePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false
	}
	if len(p.Points) == 0 {
		return nil, false
	}
	if p.Color == "" {
		p.Color = "black"
	}
	if p.Width == 0 {
		p.Width = 2
	}
	return &p, true
}

// TextPayload carries a text box add or update.
type TextPayload struct {
	ID           int64   `json:"_id,omitempty"`
	WhiteboardID int64   `json:"whiteboardId,omitempty"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	Text         string  `json:"text"`
	Color        string  `json:"color"`
	FontSize     float64 `json:"fontSize"`
}

// ShapePayload carries a shape add or update. Kind is the shape kind
// (line, rect, ellipse, ...), not the event variant.
type ShapePayload struct {
	ID           int64   `json:"_id,omitempty"`
	WhiteboardID int64   `json:"whiteboardId,omitempty"`
	Kind         string  `json:"type,omitempty"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	X2           float64 `json:"x2"`
	Y2           float64 `json:"y2"`
	Color        string  `json:"color"`
	Width        float64 `json:"width"`
}

// ImagePayload carries an image add or update.
type ImagePayload struct {
	ID           int64   `json:"_id,omitempty"`
	WhiteboardID int64   `json:"whiteboardId,omitempty"`
	Src          string  `json:"src,omitempty"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
}

// TargetPayload addresses an existing event for removal.
type TargetPayload struct {
	ID           int64 `json:"_id"`
	WhiteboardID int64 `json:"whiteboardId,omitempty"`
}

// BoardPayload addresses a whole board (undo, clear).
type BoardPayload struct {
	WhiteboardID int64 `json:"whiteboardId"`
}

// BackgroundPayload carries a board background color change.
type BackgroundPayload struct {
	WhiteboardID int64  `json:"whiteboardId,omitempty"`
	Color        string `json:"color"`
}

// PresencePayload is the client's presence announcement.
type PresencePayload struct {
	WhiteboardID int64  `json:"whiteboardId"`
	UserID       string `json:"userId"`
	Username     string `json:"username"`
}

// WireStroke is the broadcast form of a stored stroke event.
type WireStroke struct {
	ID     int64   `json:"_id"`
	Type   string  `json:"type"`
	Points []Point `json:"points"`
	Color  string  `json:"color"`
	Width  float64 `json:"width"`
	UserID string  `json:"userId"`
}

// WireText is the broadcast form of a stored text event.
type WireText struct {
	ID       int64   `json:"_id"`
	Type     string  `json:"type"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Text     string  `json:"text"`
	Color    string  `json:"color"`
	FontSize float64 `json:"fontSize"`
	UserID   string  `json:"userId"`
}

// WireShape is the broadcast form of a stored shape event.
type WireShape struct {
	ID        int64   `json:"_id"`
	Type      string  `json:"type"`
	ShapeKind string  `json:"shapeType"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	X2        float64 `json:"x2"`
	Y2        float64 `json:"y2"`
	Color     string  `json:"color"`
	Width     float64 `json:"width"`
	UserID    string  `json:"userId"`
}

// WireImage is the broadcast form of a stored image event.
type WireImage struct {
	ID     int64   `json:"_id"`
	Type   string  `json:"type"`
	Src    string  `json:"src"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	UserID string  `json:"userId"`
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// WireEvent maps a stored event to the realtime message name and payload used
// both for join replay and for add broadcasts. Background events replay as a
// bare color change; unknown kinds fall back to drawStroke, matching the
// catch-all of the replay protocol.
func WireEvent(e *DrawEvent) (msgType string, payload any) {
	switch EventKind(e.Kind) {
	case KindBackground:
		return "setBackgroundColor", BackgroundPayload{Color: derefStr(e.Color)}
	case KindText:
		return "addTextBox", WireText{
			ID: e.ID, Type: e.Kind,
			X: deref(e.X), Y: deref(e.Y), Width: deref(e.Width), Height: deref(e.Height),
			Text: derefStr(e.Text), Color: derefStr(e.Color), FontSize: deref(e.FontSize),
			UserID: e.CreatedBy,
		}
	case KindImage:
		return "addImage", WireImage{
			ID: e.ID, Type: e.Kind,
			Src: derefStr(e.Src),
			X:   deref(e.X), Y: deref(e.Y), Width: deref(e.Width), Height: deref(e.Height),
			UserID: e.CreatedBy,
		}
	case KindShape:
		return "addShape", WireShape{
			ID: e.ID, Type: e.Kind, ShapeKind: derefStr(e.ShapeKind),
			X: deref(e.X), Y: deref(e.Y), X2: deref(e.X2), Y2: deref(e.Y2),
			Color: derefStr(e.Color), Width: deref(e.Width),
			UserID: e.CreatedBy,
		}
	default:
		var points []Point
		if e.Points != nil {
			json.Unmarshal([]byte(*e.Points), &points)
		}
		return "drawStroke", WireStroke{
			ID: e.ID, Type: e.Kind,
			Points: points, Color: derefStr(e.Color), Width: deref(e.Width),
			UserID: e.CreatedBy,
		}
	}
}
