package webhook

import (
	"encoding/json"
	"errors"
	"fmt"

	"estate-chatbot/internal/leads"
)

// Adapter errors. ErrNoTextContent covers everything the pipeline ignores:
// delivery receipts, echoes, attachments, reactions.
var (
	ErrUnknownPlatform = errors.New("webhook: unknown platform")
	ErrNoTextContent   = errors.New("webhook: no text content")
)

// Inbound is the normalized form of one customer text message, regardless of
// which platform envelope it arrived in.
type Inbound struct {
	Platform  leads.Platform
	SenderID  string
	Text      string
	MessageID string
}

// envelope captures the subset of the Graph webhook payload we care about.
// WhatsApp nests under entry[].changes[].value, Messenger and Instagram
// under entry[].messaging[].
type envelope struct {
	Object string  `json:"object"`
	Entry  []entry `json:"entry"`
}

type entry struct {
	Changes   []change         `json:"changes"`
	Messaging []messagingEvent `json:"messaging"`
}

type change struct {
	Value changeValue `json:"value"`
}

type changeValue struct {
	Statuses []json.RawMessage `json:"statuses"`
	Messages []waMessage       `json:"messages"`
}

type waMessage struct {
	ID   string `json:"id"`
	From string `json:"from"`
	Type string `json:"type"`
	Text struct {
		Body string `json:"body"`
	} `json:"text"`
}

type messagingEvent struct {
	Sender struct {
		ID string `json:"id"`
	} `json:"sender"`
	Message struct {
		MID    string `json:"mid"`
		Text   string `json:"text"`
		IsEcho bool   `json:"is_echo"`
	} `json:"message"`
}

// Parse normalizes a raw webhook body into an Inbound message. The top-level
// object field selects the platform; anything without customer text comes
// back as ErrNoTextContent.
func Parse(body []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Inbound{}, fmt.Errorf("webhook: decode payload: %w", err)
	}

	switch env.Object {
	case "whatsapp_business_account":
		return parseWhatsApp(env)
	case "page":
		return parseMessaging(env, leads.PlatformMessenger)
	case "instagram":
		return parseMessaging(env, leads.PlatformInstagram)
	default:
		return Inbound{}, fmt.Errorf("%w: %q", ErrUnknownPlatform, env.Object)
	}
}

func parseWhatsApp(env envelope) (Inbound, error) {
	for _, e := range env.Entry {
		for _, ch := range e.Changes {
			// Status updates (delivered, read) carry no customer text.
			if len(ch.Value.Statuses) > 0 {
				return Inbound{}, ErrNoTextContent
			}
			if len(ch.Value.Messages) == 0 {
				continue
			}
			msg := ch.Value.Messages[0]
			if msg.Type != "text" || msg.Text.Body == "" || msg.From == "" {
				return Inbound{}, ErrNoTextContent
			}
			return Inbound{
				Platform:  leads.PlatformWhatsApp,
				SenderID:  msg.From,
				Text:      msg.Text.Body,
				MessageID: msg.ID,
			}, nil
		}
	}
	return Inbound{}, ErrNoTextContent
}

func parseMessaging(env envelope, platform leads.Platform) (Inbound, error) {
	for _, e := range env.Entry {
		if len(e.Messaging) == 0 {
			continue
		}
		ev := e.Messaging[0]
		if ev.Message.IsEcho || ev.Message.Text == "" || ev.Sender.ID == "" {
			return Inbound{}, ErrNoTextContent
		}
		return Inbound{
			Platform:  platform,
			SenderID:  ev.Sender.ID,
			Text:      ev.Message.Text,
			MessageID: ev.Message.MID,
		}, nil
	}
	return Inbound{}, ErrNoTextContent
}
