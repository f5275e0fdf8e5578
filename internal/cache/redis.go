package cache

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ChatMessage is one relayed chat message kept for late joiners.
type ChatMessage struct {
	BoardID   int64     `json:"boardId"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// RedisClient wraps the Redis client for per-board chat history
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient creates a new Redis client
func NewRedisClient(addr, password string, db int) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Printf("[Redis] Connected to %s", addr)
	return &RedisClient{client: client}, nil
}

func chatKey(boardID int64) string {
	return "board:" + strconv.FormatInt(boardID, 10) + ":chat"
}

// AddChatMessage appends a relayed message to the board's history list
func (r *RedisClient) AddChatMessage(ctx context.Context, m *ChatMessage) error {
	key := chatKey(m.BoardID)
	m.Timestamp = time.Now()

	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	if err := r.client.RPush(ctx, key, data).Err(); err != nil {
		log.Printf("[Redis] Failed to add chat message: %v", err)
		return err
	}

	// History expires a day after the last write
	r.client.Expire(ctx, key, 24*time.Hour)

	return nil
}

// GetRecentChatMessages retrieves the last N messages for a board
func (r *RedisClient) GetRecentChatMessages(ctx context.Context, boardID int64, count int64) ([]ChatMessage, error) {
	key := chatKey(boardID)

	results, err := r.client.LRange(ctx, key, -count, -1).Result()
	if err != nil {
		return nil, err
	}

	messages := make([]ChatMessage, 0, len(results))
	for _, data := range results {
		var m ChatMessage
		if err := json.Unmarshal([]byte(data), &m); err != nil {
			continue
		}
		messages = append(messages, m)
	}

	return messages, nil
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}
