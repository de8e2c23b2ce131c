package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"estate-chatbot/internal/config"
	"estate-chatbot/internal/leads"
	"estate-chatbot/pkg/logger"
)

const graphAPIBase = "https://graph.facebook.com/v21.0"

// WhatsApp caps interactive labels at 20 characters and reply buttons at 3.
const (
	maxButtonTitle = 20
	maxButtons     = 3
)

// Sender delivers bot replies to a platform recipient. Result is a plain
// success flag: callers log it but never roll back committed state over it.
type Sender interface {
	SendText(ctx context.Context, platform leads.Platform, recipientID, text string) bool
}

// Button is one WhatsApp quick-reply option.
type Button struct {
	ID    string
	Title string
}

// ListRow is one selectable entry of a WhatsApp list message.
type ListRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// ListSection groups list rows under a section title.
type ListSection struct {
	Title string    `json:"title,omitempty"`
	Rows  []ListRow `json:"rows"`
}

// Meta sends messages through the Graph API for all three platforms.
type Meta struct {
	cfg     config.MetaConfig
	baseURL string
	client  *http.Client

	// sleep and retryDelays are injectable for tests.
	sleep       func(time.Duration)
	retryDelays []time.Duration
}

type MetaOption func(*Meta)

func WithGraphBaseURL(baseURL string) MetaOption {
	return func(m *Meta) {
		if baseURL != "" {
			m.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

func WithSleep(sleep func(time.Duration)) MetaOption {
	return func(m *Meta) {
		if sleep != nil {
			m.sleep = sleep
		}
	}
}

func NewMeta(cfg config.MetaConfig, opts ...MetaOption) *Meta {
	m := &Meta{
		cfg:         cfg,
		baseURL:     graphAPIBase,
		client:      &http.Client{Timeout: 30 * time.Second},
		sleep:       time.Sleep,
		retryDelays: []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// SendText delivers text to a recipient with up to 3 attempts and 1s/2s/4s
// backoff. Transport and HTTP errors (429 included) are retried; an explicit
// not-sent result without an error is final. Unknown platforms fail without
// an attempt.
func (m *Meta) SendText(ctx context.Context, platform leads.Platform, recipientID, text string) bool {
	log := logger.From(ctx)

	attempts := len(m.retryDelays)
	for attempt := 0; attempt < attempts; attempt++ {
		var (
			sent bool
			err  error
		)
		switch platform {
		case leads.PlatformWhatsApp:
			sent, err = m.sendWhatsAppText(ctx, recipientID, text)
		case leads.PlatformMessenger:
			sent, err = m.sendMessengerText(ctx, leads.PlatformMessenger, recipientID, text)
		case leads.PlatformInstagram:
			sent, err = m.sendMessengerText(ctx, leads.PlatformInstagram, recipientID, text)
		default:
			log.Error("unknown platform", "platform", platform)
			return false
		}

		if err == nil {
			if sent {
				return true
			}
			// Explicit refusal, e.g. missing credentials: retrying cannot help.
			return false
		}

		log.Warn("send failed", "platform", platform, "attempt", attempt+1, "err", err)
		if attempt < attempts-1 {
			m.sleep(m.retryDelays[attempt])
		}
	}

	log.Error("send exhausted retries", "platform", platform, "recipient", recipientID)
	return false
}

func (m *Meta) sendWhatsAppText(ctx context.Context, recipientID, text string) (bool, error) {
	if m.cfg.WhatsAppPhoneNumberID == "" || m.cfg.WhatsAppAccessToken == "" {
		logger.From(ctx).Error("whatsapp credentials missing")
		return false, nil
	}
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                recipientID,
		"type":              "text",
		"text":              map[string]any{"body": text},
	}
	if err := m.postWhatsApp(ctx, payload); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Meta) sendMessengerText(ctx context.Context, platform leads.Platform, recipientID, text string) (bool, error) {
	token := m.cfg.MessengerPageAccessToken
	if platform == leads.PlatformInstagram {
		token = m.cfg.InstagramAccessToken
	}
	if token == "" {
		logger.From(ctx).Error("page credentials missing", "platform", platform)
		return false, nil
	}

	// Best-effort typing signal; its failure never affects delivery.
	m.sendTypingIndicator(ctx, platform, recipientID, token)

	payload := map[string]any{
		"recipient": map[string]any{"id": recipientID},
		"message":   map[string]any{"text": text},
	}
	if err := m.postPage(ctx, token, payload); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Meta) sendTypingIndicator(ctx context.Context, platform leads.Platform, recipientID, token string) {
	payload := map[string]any{
		"recipient":     map[string]any{"id": recipientID},
		"sender_action": "typing_on",
	}
	if err := m.postPage(ctx, token, payload); err != nil {
		logger.From(ctx).Warn("typing indicator failed", "platform", platform, "err", err)
	}
}

// SendWhatsAppButtons sends up to 3 quick-reply buttons. Single attempt; the
// interactive extras are best-effort surfaces.
func (m *Meta) SendWhatsAppButtons(ctx context.Context, recipientID, bodyText string, buttons []Button) bool {
	if m.cfg.WhatsAppPhoneNumberID == "" || m.cfg.WhatsAppAccessToken == "" {
		logger.From(ctx).Error("whatsapp credentials missing for buttons")
		return false
	}

	if len(buttons) > maxButtons {
		buttons = buttons[:maxButtons]
	}
	rows := make([]map[string]any, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, map[string]any{
			"type": "reply",
			"reply": map[string]any{
				"id":    b.ID,
				"title": truncateLabel(b.Title),
			},
		})
	}

	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                recipientID,
		"type":              "interactive",
		"interactive": map[string]any{
			"type":   "button",
			"body":   map[string]any{"text": bodyText},
			"action": map[string]any{"buttons": rows},
		},
	}
	if err := m.postWhatsApp(ctx, payload); err != nil {
		logger.From(ctx).Error("whatsapp buttons failed", "err", err)
		return false
	}
	return true
}

// SendWhatsAppList sends a selectable list menu.
func (m *Meta) SendWhatsAppList(ctx context.Context, recipientID, bodyText, buttonText string, sections []ListSection) bool {
	if m.cfg.WhatsAppPhoneNumberID == "" || m.cfg.WhatsAppAccessToken == "" {
		logger.From(ctx).Error("whatsapp credentials missing for list")
		return false
	}

	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                recipientID,
		"type":              "interactive",
		"interactive": map[string]any{
			"type": "list",
			"body": map[string]any{"text": bodyText},
			"action": map[string]any{
				"button":   truncateLabel(buttonText),
				"sections": sections,
			},
		},
	}
	if err := m.postWhatsApp(ctx, payload); err != nil {
		logger.From(ctx).Error("whatsapp list failed", "err", err)
		return false
	}
	return true
}

func (m *Meta) postWhatsApp(ctx context.Context, payload any) error {
	endpoint := fmt.Sprintf("%s/%s/messages", m.baseURL, m.cfg.WhatsAppPhoneNumberID)
	return m.postJSON(ctx, endpoint, payload, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+m.cfg.WhatsAppAccessToken)
	})
}

func (m *Meta) postPage(ctx context.Context, token string, payload any) error {
	endpoint := m.baseURL + "/me/messages?" + url.Values{"access_token": {token}}.Encode()
	return m.postJSON(ctx, endpoint, payload, nil)
}

func (m *Meta) postJSON(ctx context.Context, endpoint string, payload any, decorate func(*http.Request)) error {
	buf, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("delivery: encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if decorate != nil {
		decorate(req)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("delivery: graph api status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

func truncateLabel(s string) string {
	// Graph API caps titles at 20 characters, not bytes.
	r := []rune(s)
	if len(r) <= maxButtonTitle {
		return s
	}
	return string(r[:maxButtonTitle])
}
