package models

import (
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// User is the owner of conversations. OpenAIAPIKey is the per-user credential
// every LLM judge call is made with.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Username     string `json:"username" gorm:"uniqueIndex;size:150;not null"`
	OpenAIAPIKey string `json:"-" gorm:"column:openai_api_key;default:''"`
}

func (User) TableName() string { return "users" }

type Conversation struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint   `json:"user_id" gorm:"index;not null"`
	User   User   `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Title  string `json:"title"`

	Messages []Message `json:"messages,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

func (Conversation) TableName() string { return "conversations" }

// Message is one turn of a conversation. Assistant content is stored as the
// raw JSON produced by the research assistant ({"text": ..., "papers": [...]}).
type Message struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	ConversationID uint         `json:"conversation_id" gorm:"index;not null"`
	Conversation   Conversation `json:"-"`

	Role    string `json:"role" gorm:"size:20;not null"`
	Content string `json:"content" gorm:"type:text"`
	// Snapshot of the system prompt that was active when the message was generated.
	SystemPrompt string `json:"system_prompt,omitempty" gorm:"type:text"`

	Verifications []MessageVerification `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

func (Message) TableName() string { return "messages" }
