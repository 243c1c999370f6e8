// Package service contains the application's business logic layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"gorm.io/gorm"

	"lexia-go/internal/model"
	"lexia-go/internal/repository"
	"lexia-go/pkg/llm"
	"lexia-go/pkg/log"
)

// titlePreviewLen bounds the conversation title derived from the first user
// message.
const titlePreviewLen = 30

// Completer is the gateway call the orchestrator depends on. Satisfied by
// *llm.Client.
type Completer interface {
	Complete(ctx context.Context, providerID, apiKey string, messages []llm.Message) (string, error)
}

// TurnResult is the outcome of one user turn.
type TurnResult struct {
	ConversationID uint   `json:"conversationId"`
	Reply          string `json:"reply"`
}

// ChatService drives one user turn to completion: persist the user message,
// call the model, persist the reply.
type ChatService interface {
	// SubmitTurn runs one turn. conversationID zero starts a new conversation.
	//
	// On gateway failure the message log is left exactly as it was after the
	// user-message write. If the assistant write fails after a successful
	// model call, the generated reply is still returned alongside the error
	// so the caller may show it transiently; it has no durable record.
	SubmitTurn(ctx context.Context, userID, conversationID uint, providerID, apiKey, userText string) (*TurnResult, error)
}

type chatService struct {
	repo         repository.ConversationRepository
	gateway      Completer
	systemPrompt string
}

// NewChatService creates a new ChatService instance.
func NewChatService(repo repository.ConversationRepository, gateway Completer, systemPrompt string) ChatService {
	return &chatService{repo: repo, gateway: gateway, systemPrompt: systemPrompt}
}

// SubmitTurn is strictly ordered: the user message is durably recorded before
// the model is called, and the assistant message is only written after the
// model answered. Concurrent turns on the same conversation are not
// serialized here; both read the same prior-history snapshot and their write
// order is whatever the store produces.
func (s *chatService) SubmitTurn(ctx context.Context, userID, conversationID uint, providerID, apiKey, userText string) (*TurnResult, error) {
	if conversationID == 0 {
		conv, err := s.repo.CreateConversation(ctx, userID, deriveTitle(userText))
		if err != nil {
			return nil, fmt.Errorf("failed to start conversation: %w", err)
		}
		conversationID = conv.ID
	} else {
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
	}

	history, err := s.repo.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	if _, err := s.repo.AppendMessage(ctx, userID, conversationID, model.RoleUser, userText); err != nil {
		// Terminal: the model is never called without a recorded user turn.
		return nil, fmt.Errorf("failed to record user message: %w", err)
	}

	reply, err := s.gateway.Complete(ctx, providerID, apiKey, s.composeMessages(history, userText))
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}

	if _, err := s.repo.AppendMessage(ctx, userID, conversationID, model.RoleAssistant, reply); err != nil {
		log.Error("failed to record assistant message", err)
		return &TurnResult{ConversationID: conversationID, Reply: reply}, fmt.Errorf("failed to record assistant message: %w", err)
	}

	return &TurnResult{ConversationID: conversationID, Reply: reply}, nil
}

// composeMessages builds the full prompt: the fixed system prompt, the stored
// history oldest first, then the just-submitted user text.
func (s *chatService) composeMessages(history []model.Message, userText string) []llm.Message {
	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: model.RoleSystem, Content: s.systemPrompt})
	for _, m := range history {
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, llm.Message{Role: model.RoleUser, Content: userText})
	return msgs
}

func deriveTitle(userText string) string {
	if utf8.RuneCountInString(userText) <= titlePreviewLen {
		return userText
	}
	runes := []rune(userText)
	return string(runes[:titlePreviewLen]) + "…"
}
