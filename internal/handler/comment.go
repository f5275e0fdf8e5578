package handler

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"whiteboard-backend/internal/model"
)

// CommentHandler serves the per-board comment thread. Mutations are answered
// over HTTP and additionally broadcast to the board's realtime room.
type CommentHandler struct {
	db  *gorm.DB
	hub *RoomHub
}

// NewCommentHandler CommentHandler 생성
func NewCommentHandler(db *gorm.DB, hub *RoomHub) *CommentHandler {
	return &CommentHandler{db: db, hub: hub}
}

// CommentRequest 코멘트 작성 요청
type CommentRequest struct {
	Text string `json:"text"`
}

// ListComments returns the board's comments oldest first.
func (h *CommentHandler) ListComments(c *fiber.Ctx) error {
	boardID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "whiteboard not found or unauthorized"})
	}

	var comments []model.Comment
	if err := h.db.Where("whiteboard_id = ?", boardID).Order("created_at ASC").Find(&comments).Error; err != nil {
		log.Printf("[Comment] List failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server error"})
	}

	return c.JSON(comments)
}

// CreateComment stores a comment and broadcasts it to the room. The author's
// display name is resolved from the users table at write time, not cached.
func (h *CommentHandler) CreateComment(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	boardID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "whiteboard not found or unauthorized"})
	}

	var req CommentRequest
	if err := c.BodyParser(&req); err != nil || req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no comment text"})
	}

	userName := "Anonymous"
	var user model.User
	if err := h.db.First(&user, "id = ?", userID).Error; err == nil && user.Username != "" {
		userName = user.Username
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("[Comment] Author lookup failed: %v", err)
	}

	comment := model.Comment{
		WhiteboardID: int64(boardID),
		UserID:       userID,
		UserName:     userName,
		Text:         req.Text,
	}
	if err := h.db.Create(&comment).Error; err != nil {
		log.Printf("[Comment] Create failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server error"})
	}

	h.hub.Broadcast(comment.WhiteboardID, "newComment", comment)

	return c.JSON(comment)
}

// DeleteComment deletes a comment, creator-scoped: id, board, and author must
// all match or the caller gets a 404.
func (h *CommentHandler) DeleteComment(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	boardID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "comment not found or unauthorized"})
	}
	commentID, err := c.ParamsInt("commentId")
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "comment not found or unauthorized"})
	}

	res := h.db.
		Where("id = ? AND whiteboard_id = ? AND user_id = ?", commentID, boardID, userID).
		Delete(&model.Comment{})
	if res.Error != nil {
		log.Printf("[Comment] Delete failed: %v", res.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server error"})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "comment not found or unauthorized"})
	}

	h.hub.Broadcast(int64(boardID), "deleteComment", model.TargetPayload{ID: int64(commentID)})

	return c.JSON(fiber.Map{"success": true})
}
