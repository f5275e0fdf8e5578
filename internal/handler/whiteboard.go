package handler

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"whiteboard-backend/internal/model"
)

// WhiteboardHandler serves the board directory: which boards a user may see,
// and owner-gated rename/delete.
type WhiteboardHandler struct {
	db *gorm.DB
}

// NewWhiteboardHandler WhiteboardHandler 생성
func NewWhiteboardHandler(db *gorm.DB) *WhiteboardHandler {
	return &WhiteboardHandler{db: db}
}

// WhiteboardRequest 생성/이름 변경 요청
type WhiteboardRequest struct {
	Name string `json:"name"`
}

// ListWhiteboards returns boards the caller owns or has edited, most recently
// active first.
func (h *WhiteboardHandler) ListWhiteboards(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	var boards []model.Whiteboard
	err := h.db.
		Where("owner_id = ? OR id IN (SELECT whiteboard_id FROM whiteboard_editors WHERE user_id = ?)", userID, userID).
		Order("updated_at DESC").
		Find(&boards).Error
	if err != nil {
		log.Printf("[Whiteboard] List failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server error"})
	}

	return c.JSON(boards)
}

// CreateWhiteboard creates a board owned by the caller with an empty editor set.
func (h *WhiteboardHandler) CreateWhiteboard(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	var req WhiteboardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	board := model.Whiteboard{
		Name:    req.Name,
		OwnerID: userID,
	}
	if err := h.db.Create(&board).Error; err != nil {
		log.Printf("[Whiteboard] Create failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server error"})
	}

	return c.JSON(board)
}

// RenameWhiteboard renames a board. Owner only; a miss on id or ownership is a
// single 404 so callers can't probe for board existence.
func (h *WhiteboardHandler) RenameWhiteboard(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	boardID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "whiteboard not found or unauthorized"})
	}

	var req WhiteboardRequest
	if err := c.BodyParser(&req); err != nil || req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "new name is required"})
	}

	res := h.db.Model(&model.Whiteboard{}).
		Where("id = ? AND owner_id = ?", boardID, userID).
		Updates(map[string]any{"name": req.Name, "updated_at": time.Now()})
	if res.Error != nil {
		log.Printf("[Whiteboard] Rename failed: %v", res.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server error"})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "whiteboard not found or unauthorized"})
	}

	return c.JSON(fiber.Map{"success": true, "message": "whiteboard renamed"})
}

// DeleteWhiteboard deletes a board and cascades its draw events and editor
// rows. Comment rows are not cascaded and survive the board.
func (h *WhiteboardHandler) DeleteWhiteboard(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	boardID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "whiteboard not found or unauthorized"})
	}

	res := h.db.Where("id = ? AND owner_id = ?", boardID, userID).Delete(&model.Whiteboard{})
	if res.Error != nil {
		log.Printf("[Whiteboard] Delete failed: %v", res.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server error"})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "whiteboard not found or unauthorized"})
	}

	if err := h.db.Where("whiteboard_id = ?", boardID).Delete(&model.DrawEvent{}).Error; err != nil {
		log.Printf("[Whiteboard] Failed to cascade draw events for board %d: %v", boardID, err)
	}
	if err := h.db.Where("whiteboard_id = ?", boardID).Delete(&model.WhiteboardEditor{}).Error; err != nil {
		log.Printf("[Whiteboard] Failed to cascade editors for board %d: %v", boardID, err)
	}

	return c.JSON(fiber.Map{"success": true, "message": "whiteboard deleted"})
}
