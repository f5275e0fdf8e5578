package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gofiber/contrib/websocket"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"whiteboard-backend/internal/auth"
	"whiteboard-backend/internal/cache"
	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/presence"
)

// WhiteboardWSHandler runs the realtime channel of a board: join with history
// replay, draw-event mutations, chat relay, and presence. Every mutation is
// persisted first and then broadcast to the whole room, including the sender,
// so the originator's optimistic render reconciles with the stored event.
type WhiteboardWSHandler struct {
	db      *gorm.DB
	hub     *RoomHub
	tracker *presence.Tracker
	cache   *cache.RedisClient // optional; nil disables chat history
}

// NewWhiteboardWSHandler WhiteboardWSHandler 생성
func NewWhiteboardWSHandler(db *gorm.DB, hub *RoomHub, tracker *presence.Tracker, redisClient *cache.RedisClient) *WhiteboardWSHandler {
	return &WhiteboardWSHandler{
		db:      db,
		hub:     hub,
		tracker: tracker,
		cache:   redisClient,
	}
}

// HandleWebSocket drives one connection from upgrade to disconnect. Malformed
// messages are dropped without a reply; the realtime channel never surfaces
// errors back to the emitter.
func (h *WhiteboardWSHandler) HandleWebSocket(c *websocket.Conn) {
	client := NewClient(c)

	// The upgrade gate already rejected invalid tokens; absent claims mean a
	// guest identity bound to this connection.
	if claims, ok := c.Locals("claims").(*auth.Claims); ok && claims != nil {
		client.Identity = auth.Identity{UserID: claims.UserID, Username: claims.Username}
	} else {
		client.Identity = auth.Identity{UserID: client.ID, Username: "Guest", IsGuest: true}
	}

	log.Printf("[Whiteboard] Client connected: %s (user=%s, guest=%v)",
		client.ID, client.Identity.UserID, client.Identity.IsGuest)

	// Board this connection last joined; append-type events are scoped to it.
	var boardID int64

	defer func() {
		h.hub.Remove(client)
		for changedBoard, roster := range h.tracker.Disconnect(client.ID) {
			h.hub.Broadcast(changedBoard, "whiteboardUsers", roster)
		}
		c.Close()
		log.Printf("[Whiteboard] Client disconnected: %s", client.ID)
	}()

	for {
		_, msgBytes, err := c.ReadMessage()
		if err != nil {
			break
		}

		var msg wsInbound
		if err := json.Unmarshal(msgBytes, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "joinWhiteboard":
			if id, ok := parseBoardID(msg.Payload); ok {
				boardID = id
				h.handleJoin(client, id)
			}
		case "chatMessage":
			h.handleChat(client, boardID, msg.Payload)
		case "drawStroke":
			h.handleDrawStroke(client, boardID, msg.Payload)
		case "addTextBox":
			h.handleAddText(client, boardID, msg.Payload)
		case "updateTextBox":
			h.handleUpdateText(msg.Payload)
		case "removeTextBox":
			h.handleRemove(client, "removeTextBox", msg.Payload)
		case "addImage":
			h.handleAddImage(client, boardID, msg.Payload)
		case "updateImage":
			h.handleUpdateImage(msg.Payload)
		case "removeImage":
			h.handleRemove(client, "removeImage", msg.Payload)
		case "addShape":
			h.handleAddShape(client, boardID, msg.Payload)
		case "updateShape":
			h.handleUpdateShape(msg.Payload)
		case "removeShape":
			h.handleRemove(client, "removeShape", msg.Payload)
		case "undoStroke":
			h.handleUndo(client, msg.Payload)
		case "clearBoard":
			h.handleClear(msg.Payload)
		case "setBackgroundColor":
			h.handleSetBackground(msg.Payload)
		case "presence":
			h.handlePresence(client, msg.Payload)
		}
	}
}

// parseBoardID accepts either a bare board ID or a {whiteboardId} object.
func parseBoardID(raw json.RawMessage) (int64, bool) {
	var id int64
	if err := json.Unmarshal(raw, &id); err == nil && id != 0 {
		return id, true
	}
	var p model.BoardPayload
	if err := json.Unmarshal(raw, &p); err == nil && p.WhiteboardID != 0 {
		return p.WhiteboardID, true
	}
	return 0, false
}

// handleJoin adds the connection to the room and replays the board's history
// to this connection only, one typed add message per stored event.
func (h *WhiteboardWSHandler) handleJoin(client *Client, boardID int64) {
	h.hub.Join(client, boardID)

	var events []model.DrawEvent
	if err := h.db.Where("whiteboard_id = ?", boardID).Order("id ASC").Find(&events).Error; err != nil {
		log.Printf("[Whiteboard] Failed to replay board %d: %v", boardID, err)
		return
	}

	for i := range events {
		msgType, payload := model.WireEvent(&events[i])
		client.Send(msgType, payload)
	}
}

// handleChat relays the message verbatim to the room. Nothing is persisted;
// the Redis history list is a best-effort convenience for late joiners.
func (h *WhiteboardWSHandler) handleChat(client *Client, boardID int64, raw json.RawMessage) {
	if boardID == 0 {
		return
	}

	h.hub.Broadcast(boardID, "chatMessage", json.RawMessage(raw))

	if h.cache == nil {
		return
	}
	var p struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &p); err != nil || p.Text == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		h.cache.AddChatMessage(ctx, &cache.ChatMessage{
			BoardID:  boardID,
			UserID:   client.Identity.UserID,
			Username: client.Identity.Username,
			Text:     p.Text,
		})
	}()
}

func (h *WhiteboardWSHandler) handleDrawStroke(client *Client, boardID int64, raw json.RawMessage) {
	if boardID == 0 {
		return
	}
	p, ok := model.ParseStroke(raw)
	if !ok {
		return // fail-soft: bad payloads never crash the connection
	}

	pointsJSON, err := json.Marshal(p.Points)
	if err != nil {
		return
	}
	points := string(pointsJSON)

	event := model.DrawEvent{
		WhiteboardID: boardID,
		Kind:         model.KindStroke.String(),
		CreatedBy:    client.Identity.UserID,
		Points:       &points,
		Color:        &p.Color,
		Width:        &p.Width,
	}
	if err := h.db.Create(&event).Error; err != nil {
		log.Printf("[Whiteboard] Failed to save stroke: %v", err)
		return
	}

	h.hub.Broadcast(boardID, "drawStroke", model.WireStroke{
		ID:     event.ID,
		Type:   event.Kind,
		Points: p.Points,
		Color:  p.Color,
		Width:  p.Width,
		UserID: client.Identity.UserID,
	})

	h.touchBoard(boardID, client.Identity.UserID)
}

func (h *WhiteboardWSHandler) handleAddText(client *Client, boardID int64, raw json.RawMessage) {
	if boardID == 0 {
		return
	}
	var p model.TextPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return
	}

	event := model.DrawEvent{
		WhiteboardID: boardID,
		Kind:         model.KindText.String(),
		CreatedBy:    client.Identity.UserID,
		X:            &p.X,
		Y:            &p.Y,
		Width:        &p.Width,
		Height:       &p.Height,
		Text:         &p.Text,
		Color:        &p.Color,
		FontSize:     &p.FontSize,
	}
	if err := h.db.Create(&event).Error; err != nil {
		log.Printf("[Whiteboard] Failed to save text box: %v", err)
		return
	}

	h.hub.Broadcast(boardID, "addTextBox", model.WireText{
		ID: event.ID, Type: event.Kind,
		X: p.X, Y: p.Y, Width: p.Width, Height: p.Height,
		Text: p.Text, Color: p.Color, FontSize: p.FontSize,
		UserID: client.Identity.UserID,
	})

	h.touchBoard(boardID, client.Identity.UserID)
}

func (h *WhiteboardWSHandler) handleUpdateText(raw json.RawMessage) {
	var p model.TextPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.ID == 0 {
		return
	}

	res := h.db.Model(&model.DrawEvent{}).
		Where("id = ? AND whiteboard_id = ?", p.ID, p.WhiteboardID).
		Updates(map[string]any{
			"x": p.X, "y": p.Y, "width": p.Width, "height": p.Height,
			"text": p.Text, "color": p.Color, "font_size": p.FontSize,
		})
	if res.Error != nil || res.RowsAffected == 0 {
		return // wrong id or wrong board: silent no-op
	}

	boardID := p.WhiteboardID
	p.WhiteboardID = 0
	h.hub.Broadcast(boardID, "updateTextBox", p)
}

func (h *WhiteboardWSHandler) handleAddImage(client *Client, boardID int64, raw json.RawMessage) {
	if boardID == 0 {
		return
	}
	var p model.ImagePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return
	}

	event := model.DrawEvent{
		WhiteboardID: boardID,
		Kind:         model.KindImage.String(),
		CreatedBy:    client.Identity.UserID,
		Src:          &p.Src,
		X:            &p.X,
		Y:            &p.Y,
		Width:        &p.Width,
		Height:       &p.Height,
	}
	if err := h.db.Create(&event).Error; err != nil {
		log.Printf("[Whiteboard] Failed to save image: %v", err)
		return
	}

	h.hub.Broadcast(boardID, "addImage", model.WireImage{
		ID: event.ID, Type: event.Kind, Src: p.Src,
		X: p.X, Y: p.Y, Width: p.Width, Height: p.Height,
		UserID: client.Identity.UserID,
	})
}

func (h *WhiteboardWSHandler) handleUpdateImage(raw json.RawMessage) {
	var p model.ImagePayload
	if err := json.Unmarshal(raw, &p); err != nil || p.ID == 0 {
		return
	}

	res := h.db.Model(&model.DrawEvent{}).
		Where("id = ? AND whiteboard_id = ?", p.ID, p.WhiteboardID).
		Updates(map[string]any{"x": p.X, "y": p.Y, "width": p.Width, "height": p.Height})
	if res.Error != nil || res.RowsAffected == 0 {
		return
	}

	boardID := p.WhiteboardID
	p.WhiteboardID = 0
	p.Src = ""
	h.hub.Broadcast(boardID, "updateImage", p)
}

func (h *WhiteboardWSHandler) handleAddShape(client *Client, boardID int64, raw json.RawMessage) {
	if boardID == 0 {
		return
	}
	var p model.ShapePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return
	}

	event := model.DrawEvent{
		WhiteboardID: boardID,
		Kind:         model.KindShape.String(),
		CreatedBy:    client.Identity.UserID,
		ShapeKind:    &p.Kind,
		X:            &p.X,
		Y:            &p.Y,
		X2:           &p.X2,
		Y2:           &p.Y2,
		Color:        &p.Color,
		Width:        &p.Width,
	}
	if err := h.db.Create(&event).Error; err != nil {
		log.Printf("[Whiteboard] Failed to save shape: %v", err)
		return
	}

	h.hub.Broadcast(boardID, "addShape", model.WireShape{
		ID: event.ID, Type: event.Kind, ShapeKind: p.Kind,
		X: p.X, Y: p.Y, X2: p.X2, Y2: p.Y2,
		Color: p.Color, Width: p.Width,
		UserID: client.Identity.UserID,
	})
}

func (h *WhiteboardWSHandler) handleUpdateShape(raw json.RawMessage) {
	var p model.ShapePayload
	if err := json.Unmarshal(raw, &p); err != nil || p.ID == 0 {
		return
	}

	res := h.db.Model(&model.DrawEvent{}).
		Where("id = ? AND whiteboard_id = ?", p.ID, p.WhiteboardID).
		Updates(map[string]any{
			"x": p.X, "y": p.Y, "x2": p.X2, "y2": p.Y2,
			"color": p.Color, "width": p.Width,
		})
	if res.Error != nil || res.RowsAffected == 0 {
		return
	}

	boardID := p.WhiteboardID
	p.WhiteboardID = 0
	p.Kind = ""
	h.hub.Broadcast(boardID, "updateShape", p)
}

// handleRemove deletes a single event, creator-scoped: the row must match id,
// board, and requesting identity, or nothing happens. Bulk clear and updates
// carry no such check; single-event removal is the only creator-scoped path.
func (h *WhiteboardWSHandler) handleRemove(client *Client, msgType string, raw json.RawMessage) {
	var p model.TargetPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.ID == 0 {
		return
	}

	res := h.db.
		Where("id = ? AND whiteboard_id = ? AND created_by = ?", p.ID, p.WhiteboardID, client.Identity.UserID).
		Delete(&model.DrawEvent{})
	if res.Error != nil || res.RowsAffected == 0 {
		return
	}

	h.hub.Broadcast(p.WhiteboardID, msgType, model.TargetPayload{ID: p.ID})
}

// handleUndo removes the requesting user's most recent stroke on the board,
// LIFO per user. Other users' strokes are never touched.
func (h *WhiteboardWSHandler) handleUndo(client *Client, raw json.RawMessage) {
	var p model.BoardPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.WhiteboardID == 0 {
		return
	}

	var last model.DrawEvent
	err := h.db.
		Where("whiteboard_id = ? AND created_by = ? AND kind = ?",
			p.WhiteboardID, client.Identity.UserID, model.KindStroke.String()).
		Order("id DESC").
		First(&last).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[Whiteboard] Undo lookup failed: %v", err)
		}
		return
	}

	if err := h.db.Delete(&model.DrawEvent{}, last.ID).Error; err != nil {
		log.Printf("[Whiteboard] Undo delete failed: %v", err)
		return
	}

	h.hub.Broadcast(p.WhiteboardID, "removeStroke", model.TargetPayload{ID: last.ID})
}

// handleClear wipes the board for everyone. Any room member may clear.
func (h *WhiteboardWSHandler) handleClear(raw json.RawMessage) {
	var p model.BoardPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.WhiteboardID == 0 {
		return
	}

	if err := h.db.Where("whiteboard_id = ?", p.WhiteboardID).Delete(&model.DrawEvent{}).Error; err != nil {
		log.Printf("[Whiteboard] Failed to clear board %d: %v", p.WhiteboardID, err)
		return
	}

	h.hub.Broadcast(p.WhiteboardID, "clearBoard", nil)
}

// handleSetBackground replaces the board's background event. Always
// delete-then-insert, so the background event gets a fresh ID every time. The
// pair is not atomic; at most one background per board holds eventually.
func (h *WhiteboardWSHandler) handleSetBackground(raw json.RawMessage) {
	var p model.BackgroundPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.WhiteboardID == 0 {
		return
	}

	if err := h.db.
		Where("whiteboard_id = ? AND kind = ?", p.WhiteboardID, model.KindBackground.String()).
		Delete(&model.DrawEvent{}).Error; err != nil {
		log.Printf("[Whiteboard] Failed to drop old background: %v", err)
		return
	}

	event := model.DrawEvent{
		WhiteboardID: p.WhiteboardID,
		Kind:         model.KindBackground.String(),
		Color:        &p.Color,
	}
	if err := h.db.Create(&event).Error; err != nil {
		log.Printf("[Whiteboard] Failed to save background: %v", err)
		return
	}

	h.hub.Broadcast(p.WhiteboardID, "setBackgroundColor", model.BackgroundPayload{Color: p.Color})
}

func (h *WhiteboardWSHandler) handlePresence(client *Client, raw json.RawMessage) {
	var p model.PresencePayload
	if err := json.Unmarshal(raw, &p); err != nil || p.WhiteboardID == 0 {
		return
	}

	roster := h.tracker.Announce(p.WhiteboardID, p.UserID, p.Username, client.ID)
	h.hub.Broadcast(p.WhiteboardID, "whiteboardUsers", roster)
}

// touchBoard advances the board's activity timestamp and adds the creator to
// the editor set. Runs after the event insert and is not atomic with it; a
// reader can observe the stroke before the timestamp bump.
func (h *WhiteboardWSHandler) touchBoard(boardID int64, userID string) {
	if err := h.db.Model(&model.Whiteboard{}).
		Where("id = ?", boardID).
		Update("updated_at", time.Now()).Error; err != nil {
		log.Printf("[Whiteboard] Failed to touch board %d: %v", boardID, err)
	}

	editor := model.WhiteboardEditor{WhiteboardID: boardID, UserID: userID}
	if err := h.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&editor).Error; err != nil {
		log.Printf("[Whiteboard] Failed to record editor on board %d: %v", boardID, err)
	}
}
