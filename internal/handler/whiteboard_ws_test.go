package handler

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whiteboard-backend/internal/model"
)

func TestParseBoardID(t *testing.T) {
	id, ok := parseBoardID(json.RawMessage(`42`))
	require.True(t, ok)
	assert.Equal(t, int64(42), id)

	id, ok = parseBoardID(json.RawMessage(`{"whiteboardId":7}`))
	require.True(t, ok)
	assert.Equal(t, int64(7), id)

	_, ok = parseBoardID(json.RawMessage(`{"whiteboardId":0}`))
	assert.False(t, ok)

	_, ok = parseBoardID(json.RawMessage(`"nope"`))
	assert.False(t, ok)
}

func TestDrawStrokePersistsWithDefaults(t *testing.T) {
	h, db := newTestWSHandler(t)
	userID := newUserID()
	board := makeBoard(t, db, userID)
	client := makeClient(userID, "Alice")

	h.handleDrawStroke(client, board.ID, json.RawMessage(`{"points":[{"x":1,"y":2}]}`))

	var events []model.DrawEvent
	require.NoError(t, db.Where("whiteboard_id = ?", board.ID).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, model.KindStroke.String(), events[0].Kind)
	assert.Equal(t, userID, events[0].CreatedBy)
	assert.Equal(t, "black", *events[0].Color)
	assert.Equal(t, float64(2), *events[0].Width)
}

func TestDrawStrokeWithoutPointsIsDropped(t *testing.T) {
	h, db := newTestWSHandler(t)
	userID := newUserID()
	board := makeBoard(t, db, userID)
	client := makeClient(userID, "Alice")

	h.handleDrawStroke(client, board.ID, json.RawMessage(`{"color":"red"}`))
	h.handleDrawStroke(client, board.ID, json.RawMessage(`{"points":[]}`))

	var count int64
	require.NoError(t, db.Model(&model.DrawEvent{}).Where("whiteboard_id = ?", board.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDrawStrokeTouchesBoardAndRecordsEditor(t *testing.T) {
	h, db := newTestWSHandler(t)
	ownerID := newUserID()
	editorID := newUserID()
	board := makeBoard(t, db, ownerID)
	client := makeClient(editorID, "Bob")

	before := board.UpdatedAt
	time.Sleep(20 * time.Millisecond)

	h.handleDrawStroke(client, board.ID, json.RawMessage(`{"points":[{"x":1,"y":2}]}`))
	h.handleDrawStroke(client, board.ID, json.RawMessage(`{"points":[{"x":3,"y":4}]}`))

	var after model.Whiteboard
	require.NoError(t, db.First(&after, board.ID).Error)
	assert.True(t, after.UpdatedAt.After(before), "stroke must bump the board's activity timestamp")

	// Two strokes, one editor row.
	var editors []model.WhiteboardEditor
	require.NoError(t, db.Where("whiteboard_id = ?", board.ID).Find(&editors).Error)
	require.Len(t, editors, 1)
	assert.Equal(t, editorID, editors[0].UserID)
}

func TestAddImageDoesNotTouchBoard(t *testing.T) {
	h, db := newTestWSHandler(t)
	userID := newUserID()
	board := makeBoard(t, db, userID)
	client := makeClient(userID, "Alice")

	h.handleAddImage(client, board.ID, json.RawMessage(`{"src":"data:img","x":1,"y":2,"width":10,"height":10}`))

	// Images are stored but never add the creator to the editor set.
	var count int64
	require.NoError(t, db.Model(&model.WhiteboardEditor{}).Where("whiteboard_id = ?", board.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUndoRemovesOwnLatestStrokeOnly(t *testing.T) {
	h, db := newTestWSHandler(t)
	aliceID, bobID := newUserID(), newUserID()
	board := makeBoard(t, db, aliceID)
	alice := makeClient(aliceID, "Alice")
	bob := makeClient(bobID, "Bob")

	h.handleDrawStroke(alice, board.ID, json.RawMessage(`{"points":[{"x":1,"y":1}]}`))
	h.handleDrawStroke(bob, board.ID, json.RawMessage(`{"points":[{"x":2,"y":2}]}`))
	h.handleDrawStroke(alice, board.ID, json.RawMessage(`{"points":[{"x":3,"y":3}]}`))

	undoPayload := json.RawMessage(fmt.Sprintf(`{"whiteboardId":%d}`, board.ID))
	h.handleUndo(alice, undoPayload)

	var remaining []model.DrawEvent
	require.NoError(t, db.Where("whiteboard_id = ?", board.ID).Order("id ASC").Find(&remaining).Error)
	require.Len(t, remaining, 2)
	assert.Equal(t, aliceID, remaining[0].CreatedBy)
	assert.Equal(t, bobID, remaining[1].CreatedBy)

	// Alice's remaining stroke, then nothing left for her; Bob's survives both.
	h.handleUndo(alice, undoPayload)
	h.handleUndo(alice, undoPayload)

	require.NoError(t, db.Where("whiteboard_id = ?", board.ID).Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, bobID, remaining[0].CreatedBy)
}

func TestUndoSkipsNonStrokeEvents(t *testing.T) {
	h, db := newTestWSHandler(t)
	userID := newUserID()
	board := makeBoard(t, db, userID)
	client := makeClient(userID, "Alice")

	h.handleDrawStroke(client, board.ID, json.RawMessage(`{"points":[{"x":1,"y":1}]}`))
	h.handleAddText(client, board.ID, json.RawMessage(`{"x":5,"y":5,"text":"note"}`))

	h.handleUndo(client, json.RawMessage(fmt.Sprintf(`{"whiteboardId":%d}`, board.ID)))

	var remaining []model.DrawEvent
	require.NoError(t, db.Where("whiteboard_id = ?", board.ID).Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, model.KindText.String(), remaining[0].Kind)
}

func TestRemoveIsCreatorScoped(t *testing.T) {
	h, db := newTestWSHandler(t)
	aliceID, bobID := newUserID(), newUserID()
	board := makeBoard(t, db, aliceID)
	alice := makeClient(aliceID, "Alice")
	bob := makeClient(bobID, "Bob")

	h.handleAddText(alice, board.ID, json.RawMessage(`{"x":1,"y":1,"text":"mine"}`))

	var event model.DrawEvent
	require.NoError(t, db.Where("whiteboard_id = ?", board.ID).First(&event).Error)
	removePayload := json.RawMessage(fmt.Sprintf(`{"_id":%d,"whiteboardId":%d}`, event.ID, board.ID))

	// Bob cannot remove Alice's text box; the request is a silent no-op.
	h.handleRemove(bob, "removeTextBox", removePayload)
	var count int64
	require.NoError(t, db.Model(&model.DrawEvent{}).Where("whiteboard_id = ?", board.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	h.handleRemove(alice, "removeTextBox", removePayload)
	require.NoError(t, db.Model(&model.DrawEvent{}).Where("whiteboard_id = ?", board.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpdateIsBoardScopedNotCreatorScoped(t *testing.T) {
	h, db := newTestWSHandler(t)
	aliceID := newUserID()
	board := makeBoard(t, db, aliceID)
	other := makeBoard(t, db, aliceID)
	alice := makeClient(aliceID, "Alice")

	h.handleAddText(alice, board.ID, json.RawMessage(`{"x":1,"y":1,"text":"before"}`))

	var event model.DrawEvent
	require.NoError(t, db.Where("whiteboard_id = ?", board.ID).First(&event).Error)

	// Wrong board: silent no-op.
	h.handleUpdateText(json.RawMessage(fmt.Sprintf(
		`{"_id":%d,"whiteboardId":%d,"x":9,"y":9,"text":"hijack"}`, event.ID, other.ID)))

	var unchanged model.DrawEvent
	require.NoError(t, db.First(&unchanged, event.ID).Error)
	assert.Equal(t, "before", *unchanged.Text)

	// Right board: applies regardless of who created the event.
	h.handleUpdateText(json.RawMessage(fmt.Sprintf(
		`{"_id":%d,"whiteboardId":%d,"x":9,"y":9,"text":"after","fontSize":14}`, event.ID, board.ID)))

	var updated model.DrawEvent
	require.NoError(t, db.First(&updated, event.ID).Error)
	assert.Equal(t, "after", *updated.Text)
	assert.Equal(t, float64(9), *updated.X)
}

func TestClearBoardDeletesEverything(t *testing.T) {
	h, db := newTestWSHandler(t)
	aliceID, bobID := newUserID(), newUserID()
	board := makeBoard(t, db, aliceID)
	alice := makeClient(aliceID, "Alice")
	bob := makeClient(bobID, "Bob")

	h.handleDrawStroke(alice, board.ID, json.RawMessage(`{"points":[{"x":1,"y":1}]}`))
	h.handleDrawStroke(bob, board.ID, json.RawMessage(`{"points":[{"x":2,"y":2}]}`))
	h.handleAddShape(bob, board.ID, json.RawMessage(`{"type":"rect","x":0,"y":0,"x2":5,"y2":5}`))

	// Any room member may clear, not just the creators.
	h.handleClear(json.RawMessage(fmt.Sprintf(`{"whiteboardId":%d}`, board.ID)))

	var count int64
	require.NoError(t, db.Model(&model.DrawEvent{}).Where("whiteboard_id = ?", board.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSetBackgroundKeepsSingleRow(t *testing.T) {
	h, db := newTestWSHandler(t)
	board := makeBoard(t, db, newUserID())

	h.handleSetBackground(json.RawMessage(fmt.Sprintf(`{"whiteboardId":%d,"color":"#ffffff"}`, board.ID)))

	var first model.DrawEvent
	require.NoError(t, db.Where("whiteboard_id = ? AND kind = ?", board.ID, model.KindBackground.String()).First(&first).Error)

	h.handleSetBackground(json.RawMessage(fmt.Sprintf(`{"whiteboardId":%d,"color":"#222222"}`, board.ID)))

	var rows []model.DrawEvent
	require.NoError(t, db.Where("whiteboard_id = ? AND kind = ?", board.ID, model.KindBackground.String()).Find(&rows).Error)
	require.Len(t, rows, 1, "set twice must leave exactly one background event")
	assert.Equal(t, "#222222", *rows[0].Color)
	assert.Greater(t, rows[0].ID, first.ID, "the replacement gets a fresh event ID")
}
