package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"lexia-go/internal/model"
	"lexia-go/internal/repository"
)

// ErrNotFound is returned when a conversation does not exist or belongs to a
// different user. The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("conversation not found")

// ConversationService exposes read access to a user's conversation history.
type ConversationService interface {
	ListConversations(ctx context.Context, userID uint) ([]model.ConversationSummary, error)
	ListMessages(ctx context.Context, userID, conversationID uint) ([]model.Message, error)
}

type conversationService struct {
	repo repository.ConversationRepository
}

// NewConversationService creates a new ConversationService.
func NewConversationService(repo repository.ConversationRepository) ConversationService {
	return &conversationService{repo: repo}
}

func (s *conversationService) ListConversations(ctx context.Context, userID uint) ([]model.ConversationSummary, error) {
	summaries, err := s.repo.ListConversations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return summaries, nil
}

func (s *conversationService) ListMessages(ctx context.Context, userID, conversationID uint) ([]model.Message, error) {
	conv, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	if conv.UserID != userID {
		return nil, ErrNotFound
	}

	messages, err := s.repo.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}
