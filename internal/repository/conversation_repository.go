// Package repository provides the data access layer.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"lexia-go/internal/model"
	"lexia-go/pkg/log"
)

const summaryCacheTTL = 5 * time.Minute

// ConversationRepository is the store contract the chat orchestration relies
// on. Messages are an append-only log; summaries are derived reads.
type ConversationRepository interface {
	CreateConversation(ctx context.Context, userID uint, title string) (*model.Conversation, error)
	// GetConversation returns gorm.ErrRecordNotFound for unknown ids.
	GetConversation(ctx context.Context, conversationID uint) (*model.Conversation, error)
	// ListConversations returns the user's conversation summaries, most
	// recent activity first.
	ListConversations(ctx context.Context, userID uint) ([]model.ConversationSummary, error)
	// ListMessages returns the full message log, oldest first. The result is
	// the exact prompt history of the conversation.
	ListMessages(ctx context.Context, conversationID uint) ([]model.Message, error)
	AppendMessage(ctx context.Context, userID, conversationID uint, role, content string) (*model.Message, error)
}

type mysqlConversationRepository struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewConversationRepository creates a ConversationRepository backed by MySQL,
// with Redis as a read-through cache for summary listings. rdb may be nil to
// disable caching.
func NewConversationRepository(db *gorm.DB, rdb *redis.Client) ConversationRepository {
	return &mysqlConversationRepository{db: db, rdb: rdb}
}

func (r *mysqlConversationRepository) CreateConversation(ctx context.Context, userID uint, title string) (*model.Conversation, error) {
	conv := &model.Conversation{UserID: userID, Title: title}
	if err := r.db.WithContext(ctx).Create(conv).Error; err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	r.invalidateSummaries(ctx, userID)
	return conv, nil
}

func (r *mysqlConversationRepository) GetConversation(ctx context.Context, conversationID uint) (*model.Conversation, error) {
	var conv model.Conversation
	if err := r.db.WithContext(ctx).First(&conv, conversationID).Error; err != nil {
		return nil, fmt.Errorf("failed to get conversation %d: %w", conversationID, err)
	}
	return &conv, nil
}

func (r *mysqlConversationRepository) ListConversations(ctx context.Context, userID uint) ([]model.ConversationSummary, error) {
	if cached, ok := r.cachedSummaries(ctx, userID); ok {
		return cached, nil
	}

	var summaries []model.ConversationSummary
	err := r.db.WithContext(ctx).
		Table("conversations c").
		Select("c.id, c.title, COUNT(m.id) AS message_count, COALESCE(MAX(m.created_at), c.created_at) AS last_message_at").
		Joins("LEFT JOIN messages m ON m.conversation_id = c.id").
		Where("c.user_id = ?", userID).
		Group("c.id, c.title, c.created_at").
		Order("last_message_at DESC").
		Scan(&summaries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	r.cacheSummaries(ctx, userID, summaries)
	return summaries, nil
}

func (r *mysqlConversationRepository) ListMessages(ctx context.Context, conversationID uint) ([]model.Message, error) {
	var messages []model.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

func (r *mysqlConversationRepository) AppendMessage(ctx context.Context, userID, conversationID uint, role, content string) (*model.Message, error) {
	msg := &model.Message{
		UserID:         userID,
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
	}
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}
	r.invalidateSummaries(ctx, userID)
	return msg, nil
}

func summaryCacheKey(userID uint) string {
	return fmt.Sprintf("user:%d:conversations", userID)
}

func (r *mysqlConversationRepository) cachedSummaries(ctx context.Context, userID uint) ([]model.ConversationSummary, bool) {
	if r.rdb == nil {
		return nil, false
	}
	raw, err := r.rdb.Get(ctx, summaryCacheKey(userID)).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Warnf("conversation summary cache read failed: %v", err)
		return nil, false
	}
	var summaries []model.ConversationSummary
	if err := json.Unmarshal([]byte(raw), &summaries); err != nil {
		return nil, false
	}
	return summaries, true
}

func (r *mysqlConversationRepository) cacheSummaries(ctx context.Context, userID uint, summaries []model.ConversationSummary) {
	if r.rdb == nil {
		return
	}
	raw, err := json.Marshal(summaries)
	if err != nil {
		return
	}
	if err := r.rdb.Set(ctx, summaryCacheKey(userID), raw, summaryCacheTTL).Err(); err != nil {
		log.Warnf("conversation summary cache write failed: %v", err)
	}
}

// invalidateSummaries drops the cached listing after every write. A stale
// message count is worse than a cache miss.
func (r *mysqlConversationRepository) invalidateSummaries(ctx context.Context, userID uint) {
	if r.rdb == nil {
		return
	}
	if err := r.rdb.Del(ctx, summaryCacheKey(userID)).Err(); err != nil {
		log.Warnf("conversation summary cache invalidation failed: %v", err)
	}
}
