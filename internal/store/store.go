package store

import (
	"context"
	"errors"
	"time"

	"estate-chatbot/internal/leads"
)

var ErrNotFound = errors.New("store: not found")

// SenderType distinguishes message direction inside a conversation.
type SenderType string

const (
	SenderCustomer SenderType = "customer"
	SenderBot      SenderType = "bot"
)

// Conversation is the reused message thread for one lead on one platform.
// There is no close/expiry: the most-recently-active conversation for a
// (lead, platform) pair is the current one.
type Conversation struct {
	ID            string         `json:"id"`
	LeadID        string         `json:"lead_id"`
	Platform      leads.Platform `json:"platform"`
	StartedAt     time.Time      `json:"started_at"`
	LastMessageAt time.Time      `json:"last_message_at"`
	MessageCount  int            `json:"message_count"`
}

// Message is one entry of a conversation, ordered by timestamp ascending.
// Bot content is stored already cleaned (extraction block stripped).
type Message struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversation_id"`
	SenderType     SenderType     `json:"sender_type"`
	Content        string         `json:"content"`
	Platform       leads.Platform `json:"platform"`
	Timestamp      time.Time      `json:"timestamp"`
}

// Tx exposes the persistence operations available inside one unit of work.
type Tx interface {
	// GetOrCreateLead resolves the lead for (platform, senderID), creating it
	// with status new on first contact. last_message_at is refreshed either way.
	GetOrCreateLead(ctx context.Context, platform leads.Platform, senderID string) (*leads.Lead, error)

	LeadByID(ctx context.Context, id string) (*leads.Lead, error)
	SaveLead(ctx context.Context, l *leads.Lead) error

	// CurrentConversation returns the most-recently-active conversation for
	// the lead on the platform, creating one when none exists.
	CurrentConversation(ctx context.Context, leadID string, platform leads.Platform) (*Conversation, error)

	// AppendMessage inserts a message and bumps the conversation counters.
	AppendMessage(ctx context.Context, conversationID string, sender SenderType, platform leads.Platform, content string) (Message, error)

	// RecentMessages returns the newest limit messages in ascending
	// timestamp order.
	RecentMessages(ctx context.Context, conversationID string, limit int) ([]Message, error)
}

// Store scopes persistence into explicit units of work. A turn uses two of
// them in sequence: the conversation transaction, then the lead-merge
// transaction; the second never begins before the first has committed.
type Store interface {
	InTurn(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
