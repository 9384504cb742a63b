package chatstorage

import (
	"context"
	"time"
)

const (
	StatusActive   = "active"
	StatusArchived = "archived"

	StateAIActive    = "ai_active"
	StateAgentActive = "agent_active"

	SenderCustomer = "customer"
	SenderAgent    = "agent"
	SenderAI       = "ai"
	SenderSystem   = "system"
)

// Conversation is one chat thread, keyed by normalized phone (or group
// JID). At most one row exists per key.
type Conversation struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Phone           string     `gorm:"uniqueIndex;not null" json:"phone"`
	Name            string     `json:"name"`
	LastMessage     string     `json:"last_message"`
	LastMessageAt   *time.Time `json:"last_message_at"`
	UnreadCount     int        `gorm:"default:0" json:"unread_count"`
	Status          string     `gorm:"default:active;index" json:"status"`
	AIEnabled       bool       `gorm:"default:true" json:"ai_enabled"`
	State           string     `gorm:"default:ai_active" json:"state"`
	AssignedAgentID *uint      `json:"assigned_agent_id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Tags []Tag `gorm:"many2many:conversation_tags;" json:"tags,omitempty"`
}

// Message belongs to exactly one conversation by phone key. ExternalID is
// the gateway's message id and, when present, unique: re-delivery of the
// same webhook event must not create a duplicate row.
type Message struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Phone      string    `gorm:"index;not null" json:"phone"`
	Sender     string    `gorm:"not null" json:"sender"`
	Text       *string   `json:"text"`
	MediaType  *string   `json:"media_type"`
	MediaURL   *string   `json:"media_url"`
	Status     string    `gorm:"default:delivered" json:"status"`
	ExternalID *string   `gorm:"uniqueIndex" json:"external_id"`
	CreatedAt  time.Time `json:"created_at"`
}

type Tag struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"uniqueIndex;not null" json:"name"`
	Color string `gorm:"default:#128C7E" json:"color"`
}

type QuickReply struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	Shortcut string  `gorm:"uniqueIndex;not null" json:"shortcut"`
	Content  string  `gorm:"not null" json:"content"`
	MediaURL *string `json:"media_url"`
}

// AIKnowledge is a typed resource the automation workflow can reference
// back by id inside its replies. The embedding is stored for the external
// retrieval step; the backend only persists and resolves it.
type AIKnowledge struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Type      string    `gorm:"not null" json:"type"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	MediaURL  *string   `json:"media_url"`
	Keywords  string    `json:"keywords"`
	Embedding []byte    `gorm:"type:jsonb" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationUpsert carries the fields applied on insert-or-update.
// On conflict only non-empty fields are written, so an existing display
// name survives events that carry no pushName.
type ConversationUpsert struct {
	Phone       string
	Name        string
	LastMessage string
	Timestamp   time.Time
	AIEnabled   *bool
}

// IChatStorageRepository is the persistence contract shared by the
// ingestion pipeline and the REST services.
type IChatStorageRepository interface {
	InitializeSchema() error

	GetConversation(ctx context.Context, phone string) (*Conversation, error)
	ListConversations(ctx context.Context, status string, limit, offset int) ([]Conversation, int64, error)
	UpsertConversation(ctx context.Context, up ConversationUpsert) (*Conversation, bool, error)
	UpdateConversationName(ctx context.Context, phone, name string) error
	UpdateLastMessage(ctx context.Context, phone, preview string, at time.Time) error
	IncrementUnread(ctx context.Context, phone string) error
	MarkRead(ctx context.Context, phone string) error
	SetAIEnabled(ctx context.Context, phone string, enabled bool) (*Conversation, error)
	AssignAgent(ctx context.Context, phone string, agentID *uint) error
	ArchiveConversation(ctx context.Context, phone string) error

	MessageExists(ctx context.Context, externalID string) (bool, error)
	InsertMessage(ctx context.Context, msg *Message) error
	UpdateMessageStatus(ctx context.Context, id uint, status string, externalID *string) error
	ListMessages(ctx context.Context, phone string, limit, offset int) ([]Message, int64, error)

	CreateTag(ctx context.Context, tag *Tag) error
	ListTags(ctx context.Context) ([]Tag, error)
	DeleteTag(ctx context.Context, id uint) error
	AssignTag(ctx context.Context, phone string, tagID uint) error
	RemoveTag(ctx context.Context, phone string, tagID uint) error

	CreateQuickReply(ctx context.Context, qr *QuickReply) error
	ListQuickReplies(ctx context.Context) ([]QuickReply, error)
	UpdateQuickReply(ctx context.Context, qr *QuickReply) error
	DeleteQuickReply(ctx context.Context, id uint) error

	CreateKnowledge(ctx context.Context, k *AIKnowledge) error
	GetKnowledge(ctx context.Context, id string) (*AIKnowledge, error)
	ListKnowledge(ctx context.Context) ([]AIKnowledge, error)
	UpdateKnowledge(ctx context.Context, k *AIKnowledge) error
	DeleteKnowledge(ctx context.Context, id string) error
}
