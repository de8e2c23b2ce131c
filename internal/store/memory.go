package store

import (
	"context"
	"sync"
	"time"

	"estate-chatbot/internal/leads"

	"github.com/google/uuid"
)

// Memory is an in-memory Store for tests and early development. It applies
// operations directly (no rollback); pipeline tests only exercise committed
// paths.
type Memory struct {
	mu sync.Mutex

	Leads         map[string]*leads.Lead
	Conversations map[string]*Conversation
	Messages      []Message

	// Clock is injectable for deterministic tests.
	Clock func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		Leads:         map[string]*leads.Lead{},
		Conversations: map[string]*Conversation{},
		Clock:         time.Now,
	}
}

func (m *Memory) InTurn(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return fn(ctx, m)
}

func (m *Memory) GetOrCreateLead(ctx context.Context, platform leads.Platform, senderID string) (*leads.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.Clock().UTC()
	for _, l := range m.Leads {
		if l.Platform == platform && l.PlatformSenderID == senderID {
			l.LastMessageAt = now
			cp := *l
			cp.InterestedProjects = append([]string(nil), l.InterestedProjects...)
			return &cp, nil
		}
	}
	l := &leads.Lead{
		ID:               uuid.NewString(),
		Platform:         platform,
		PlatformSenderID: senderID,
		Status:           leads.StatusNew,
		CreatedAt:        now,
		LastMessageAt:    now,
	}
	m.Leads[l.ID] = l
	cp := *l
	return &cp, nil
}

func (m *Memory) LeadByID(ctx context.Context, id string) (*leads.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.Leads[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *l
	cp.InterestedProjects = append([]string(nil), l.InterestedProjects...)
	return &cp, nil
}

func (m *Memory) SaveLead(ctx context.Context, l *leads.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Leads[l.ID]; !ok {
		return ErrNotFound
	}
	cp := *l
	cp.InterestedProjects = append([]string(nil), l.InterestedProjects...)
	m.Leads[l.ID] = &cp
	return nil
}

func (m *Memory) CurrentConversation(ctx context.Context, leadID string, platform leads.Platform) (*Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var latest *Conversation
	for _, c := range m.Conversations {
		if c.LeadID != leadID || c.Platform != platform {
			continue
		}
		if latest == nil || c.LastMessageAt.After(latest.LastMessageAt) {
			latest = c
		}
	}
	if latest != nil {
		cp := *latest
		return &cp, nil
	}

	now := m.Clock().UTC()
	c := &Conversation{
		ID:            uuid.NewString(),
		LeadID:        leadID,
		Platform:      platform,
		StartedAt:     now,
		LastMessageAt: now,
	}
	m.Conversations[c.ID] = c
	cp := *c
	return &cp, nil
}

func (m *Memory) AppendMessage(ctx context.Context, conversationID string, sender SenderType, platform leads.Platform, content string) (Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.Conversations[conversationID]
	if !ok {
		return Message{}, ErrNotFound
	}
	now := m.Clock().UTC()
	msg := Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderType:     sender,
		Content:        content,
		Platform:       platform,
		Timestamp:      now,
	}
	m.Messages = append(m.Messages, msg)
	c.MessageCount++
	c.LastMessageAt = now
	return msg, nil
}

func (m *Memory) RecentMessages(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}
	var all []Message
	for _, msg := range m.Messages {
		if msg.ConversationID == conversationID {
			all = append(all, msg)
		}
	}
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	out := make([]Message, len(all))
	copy(out, all)
	return out, nil
}
