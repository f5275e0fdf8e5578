package handler

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"whiteboard-backend/internal/cache"
)

// ChatHandler serves the cached chat history of a board. The realtime chat
// itself is relay-only; this history is best-effort and TTL-bounded.
type ChatHandler struct {
	cache *cache.RedisClient
}

// NewChatHandler ChatHandler 생성
func NewChatHandler(redisClient *cache.RedisClient) *ChatHandler {
	return &ChatHandler{cache: redisClient}
}

// GetChatHistory returns the most recent relayed messages for a board.
func (h *ChatHandler) GetChatHistory(c *fiber.Ctx) error {
	boardID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "whiteboard not found or unauthorized"})
	}

	limit := int64(c.QueryInt("limit", 50))
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	if h.cache == nil {
		return c.JSON([]cache.ChatMessage{})
	}

	messages, err := h.cache.GetRecentChatMessages(c.Context(), int64(boardID), limit)
	if err != nil {
		log.Printf("[Chat] History fetch failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server error"})
	}

	return c.JSON(messages)
}
