// Package model contains the application's data model definitions.
package model

import "time"

// Message roles. The prompt history of a conversation is its messages ordered
// by creation time; records are append-only and never mutated.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Conversation is a named, ordered sequence of messages belonging to one user.
type Conversation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"userId"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// Message is one half of a turn. The fixed system prompt is prepended when
// calling a provider but never persisted.
type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"index;not null" json:"userId"`
	ConversationID uint      `gorm:"index;not null" json:"conversationId"`
	Role           string    `gorm:"size:16;not null" json:"role"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Message) TableName() string {
	return "messages"
}

// ConversationSummary is a derived, read-only view over the message log.
// MessageCount and LastMessageAt are computed by aggregation, never stored.
type ConversationSummary struct {
	ID            uint      `json:"id"`
	Title         string    `json:"title"`
	MessageCount  int64     `json:"messageCount"`
	LastMessageAt time.Time `json:"lastMessageAt"`
}
