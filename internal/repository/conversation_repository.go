package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/nggaadaotak/kintari-be/internal/model"
)

const (
	maxHistoryMessages = 20
	historyTTL         = 7 * 24 * time.Hour
)

// ConversationRepository 定义了聊天会话历史的操作接口。
type ConversationRepository interface {
	GetHistory(ctx context.Context, sessionID string) ([]model.ChatMessage, error)
	Append(ctx context.Context, sessionID string, messages ...model.ChatMessage) error
}

type redisConversationRepository struct {
	redisClient *redis.Client
}

// NewConversationRepository 创建一个新的 ConversationRepository 实例。
func NewConversationRepository(redisClient *redis.Client) ConversationRepository {
	return &redisConversationRepository{redisClient: redisClient}
}

func conversationKey(sessionID string) string {
	return fmt.Sprintf("chat:session:%s", sessionID)
}

// GetHistory 从 Redis 获取会话历史，没有记录时返回空切片。
func (r *redisConversationRepository) GetHistory(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	jsonData, err := r.redisClient.Get(ctx, conversationKey(sessionID)).Result()
	if err == redis.Nil {
		return []model.ChatMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation history: %w", err)
	}
	var messages []model.ChatMessage
	if err := json.Unmarshal([]byte(jsonData), &messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation history: %w", err)
	}
	return messages, nil
}

// Append 追加消息并写回，只保留最近 20 条，每次写入刷新 7 天过期时间。
func (r *redisConversationRepository) Append(ctx context.Context, sessionID string, messages ...model.ChatMessage) error {
	history, err := r.GetHistory(ctx, sessionID)
	if err != nil {
		return err
	}
	history = append(history, messages...)
	if len(history) > maxHistoryMessages {
		history = history[len(history)-maxHistoryMessages:]
	}
	jsonData, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation history: %w", err)
	}
	if err := r.redisClient.Set(ctx, conversationKey(sessionID), jsonData, historyTTL).Err(); err != nil {
		return fmt.Errorf("failed to set conversation history: %w", err)
	}
	return nil
}
