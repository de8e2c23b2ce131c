package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"estate-chatbot/internal/leads"
	"estate-chatbot/pkg/utils"

	"github.com/google/uuid"
)

// PG is the Postgres-backed Store. Schema lives in db/schema.sql.
type PG struct {
	db *sql.DB
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewPG(db *sql.DB) *PG {
	return &PG{db: db, clock: time.Now}
}

func (s *PG) InTurn(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, &pgTx{tx: tx, clock: s.clock})
	})
}

type pgTx struct {
	tx    *sql.Tx
	clock func() time.Time
}

func (t *pgTx) GetOrCreateLead(ctx context.Context, platform leads.Platform, senderID string) (*leads.Lead, error) {
	if !platform.Valid() || senderID == "" {
		return nil, fmt.Errorf("store: invalid lead key %q/%q", platform, senderID)
	}
	now := t.clock().UTC()

	// Upsert keyed on the natural identity; refreshes last_message_at on
	// every inbound contact.
	row := t.tx.QueryRowContext(ctx, `
		INSERT INTO leads (id, platform, platform_sender_id, status, created_at, last_message_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (platform, platform_sender_id)
		DO UPDATE SET last_message_at = EXCLUDED.last_message_at
		RETURNING id, platform, platform_sender_id, name, phone, email,
		          interested_projects, budget_range, timeline, preferred_type,
		          preferred_size, payment_plan, status, notes, created_at, last_message_at`,
		uuid.NewString(), platform, senderID, leads.StatusNew, now,
	)
	return scanLead(row)
}

func (t *pgTx) LeadByID(ctx context.Context, id string) (*leads.Lead, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT id, platform, platform_sender_id, name, phone, email,
		       interested_projects, budget_range, timeline, preferred_type,
		       preferred_size, payment_plan, status, notes, created_at, last_message_at
		FROM leads WHERE id = $1`, id)
	l, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return l, err
}

func (t *pgTx) SaveLead(ctx context.Context, l *leads.Lead) error {
	projects, err := json.Marshal(l.InterestedProjects)
	if err != nil {
		return fmt.Errorf("store: marshal interested_projects: %w", err)
	}
	res, err := t.tx.ExecContext(ctx, `
		UPDATE leads SET
			name = $2, phone = $3, email = $4, interested_projects = $5,
			budget_range = $6, timeline = $7, preferred_type = $8,
			preferred_size = $9, payment_plan = $10, status = $11,
			notes = $12, last_message_at = $13
		WHERE id = $1`,
		l.ID, nullable(l.Name), nullable(l.Phone), nullable(l.Email), projects,
		nullable(l.BudgetRange), nullable(l.Timeline), nullable(l.PreferredType),
		nullable(l.PreferredSize), nullable(l.PaymentPlan), l.Status,
		nullable(l.Notes), l.LastMessageAt,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTx) CurrentConversation(ctx context.Context, leadID string, platform leads.Platform) (*Conversation, error) {
	var c Conversation
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, lead_id, platform, started_at, last_message_at, message_count
		FROM conversations
		WHERE lead_id = $1 AND platform = $2
		ORDER BY last_message_at DESC
		LIMIT 1`, leadID, platform,
	).Scan(&c.ID, &c.LeadID, &c.Platform, &c.StartedAt, &c.LastMessageAt, &c.MessageCount)
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	now := t.clock().UTC()
	c = Conversation{
		ID:            uuid.NewString(),
		LeadID:        leadID,
		Platform:      platform,
		StartedAt:     now,
		LastMessageAt: now,
	}
	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO conversations (id, lead_id, platform, started_at, last_message_at, message_count)
		VALUES ($1, $2, $3, $4, $5, 0)`,
		c.ID, c.LeadID, c.Platform, c.StartedAt, c.LastMessageAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (t *pgTx) AppendMessage(ctx context.Context, conversationID string, sender SenderType, platform leads.Platform, content string) (Message, error) {
	now := t.clock().UTC()
	m := Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderType:     sender,
		Content:        content,
		Platform:       platform,
		Timestamp:      now,
	}
	if _, err := t.tx.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, sender_type, content, platform, ts)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.ConversationID, m.SenderType, m.Content, m.Platform, m.Timestamp,
	); err != nil {
		return Message{}, err
	}

	res, err := t.tx.ExecContext(ctx, `
		UPDATE conversations
		SET message_count = message_count + 1, last_message_at = $2
		WHERE id = $1`, conversationID, now,
	)
	if err != nil {
		return Message{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Message{}, err
	}
	if n == 0 {
		return Message{}, ErrNotFound
	}
	return m, nil
}

func (t *pgTx) RecentMessages(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := t.tx.QueryContext(ctx, `
		SELECT id, conversation_id, sender_type, content, platform, ts
		FROM messages
		WHERE conversation_id = $1
		ORDER BY ts DESC, id DESC
		LIMIT $2`, conversationID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderType, &m.Content, &m.Platform, &m.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Query is newest-first for the LIMIT; callers want ascending order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

type leadRow interface {
	Scan(dest ...any) error
}

func scanLead(row leadRow) (*leads.Lead, error) {
	var (
		l        leads.Lead
		name     sql.NullString
		phone    sql.NullString
		email    sql.NullString
		projects []byte
		budget   sql.NullString
		timeline sql.NullString
		ptype    sql.NullString
		psize    sql.NullString
		pplan    sql.NullString
		notes    sql.NullString
	)
	err := row.Scan(
		&l.ID, &l.Platform, &l.PlatformSenderID, &name, &phone, &email,
		&projects, &budget, &timeline, &ptype, &psize, &pplan,
		&l.Status, &notes, &l.CreatedAt, &l.LastMessageAt,
	)
	if err != nil {
		return nil, err
	}
	l.Name = name.String
	l.Phone = phone.String
	l.Email = email.String
	l.BudgetRange = budget.String
	l.Timeline = timeline.String
	l.PreferredType = ptype.String
	l.PreferredSize = psize.String
	l.PaymentPlan = pplan.String
	l.Notes = notes.String
	if len(projects) > 0 {
		if err := json.Unmarshal(projects, &l.InterestedProjects); err != nil {
			return nil, fmt.Errorf("store: decode interested_projects: %w", err)
		}
	}
	return &l, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
