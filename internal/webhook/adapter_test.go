package webhook

import (
	"errors"
	"testing"

	"estate-chatbot/internal/leads"
)

const whatsAppTextPayload = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "1",
    "changes": [{
      "field": "messages",
      "value": {
        "messaging_product": "whatsapp",
        "messages": [{
          "id": "wamid.ABC",
          "from": "201001234567",
          "timestamp": "1700000000",
          "type": "text",
          "text": {"body": "عايز اعرف الاسعار"}
        }]
      }
    }]
  }]
}`

func TestParse_WhatsAppText(t *testing.T) {
	in, err := Parse([]byte(whatsAppTextPayload))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if in.Platform != leads.PlatformWhatsApp {
		t.Fatalf("platform = %q", in.Platform)
	}
	if in.SenderID != "201001234567" || in.MessageID != "wamid.ABC" {
		t.Fatalf("unexpected identity %+v", in)
	}
	if in.Text != "عايز اعرف الاسعار" {
		t.Fatalf("unexpected text %q", in.Text)
	}
}

func TestParse_WhatsAppStatusUpdate(t *testing.T) {
	payload := `{
	  "object": "whatsapp_business_account",
	  "entry": [{"changes": [{"value": {"statuses": [{"status": "delivered"}]}}]}]
	}`
	if _, err := Parse([]byte(payload)); !errors.Is(err, ErrNoTextContent) {
		t.Fatalf("status updates carry no text, got %v", err)
	}
}

func TestParse_WhatsAppNonText(t *testing.T) {
	payload := `{
	  "object": "whatsapp_business_account",
	  "entry": [{"changes": [{"value": {"messages": [{"id": "wamid.X", "from": "2010", "type": "image"}]}}]}]
	}`
	if _, err := Parse([]byte(payload)); !errors.Is(err, ErrNoTextContent) {
		t.Fatalf("non-text messages must be ignored, got %v", err)
	}
}

func TestParse_MessengerText(t *testing.T) {
	payload := `{
	  "object": "page",
	  "entry": [{
	    "messaging": [{
	      "sender": {"id": "psid-77"},
	      "message": {"mid": "m_1", "text": "hello"}
	    }]
	  }]
	}`
	in, err := Parse([]byte(payload))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if in.Platform != leads.PlatformMessenger || in.SenderID != "psid-77" || in.Text != "hello" || in.MessageID != "m_1" {
		t.Fatalf("unexpected inbound %+v", in)
	}
}

func TestParse_InstagramText(t *testing.T) {
	payload := `{
	  "object": "instagram",
	  "entry": [{
	    "messaging": [{
	      "sender": {"id": "ig-5"},
	      "message": {"mid": "m_9", "text": "متاح ايه؟"}
	    }]
	  }]
	}`
	in, err := Parse([]byte(payload))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if in.Platform != leads.PlatformInstagram || in.SenderID != "ig-5" {
		t.Fatalf("unexpected inbound %+v", in)
	}
}

func TestParse_MessengerEcho(t *testing.T) {
	payload := `{
	  "object": "page",
	  "entry": [{
	    "messaging": [{
	      "sender": {"id": "page-id"},
	      "message": {"mid": "m_2", "text": "bot reply", "is_echo": true}
	    }]
	  }]
	}`
	if _, err := Parse([]byte(payload)); !errors.Is(err, ErrNoTextContent) {
		t.Fatalf("echo messages must be ignored, got %v", err)
	}
}

func TestParse_UnknownObject(t *testing.T) {
	if _, err := Parse([]byte(`{"object": "linkedin"}`)); !errors.Is(err, ErrUnknownPlatform) {
		t.Fatalf("expected ErrUnknownPlatform, got %v", err)
	}
}

func TestParse_InvalidJSON(t *testing.T) {
	if _, err := Parse([]byte(`{broken`)); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestParse_EmptyEntries(t *testing.T) {
	for _, payload := range []string{
		`{"object": "whatsapp_business_account", "entry": []}`,
		`{"object": "page", "entry": [{"messaging": []}]}`,
	} {
		if _, err := Parse([]byte(payload)); !errors.Is(err, ErrNoTextContent) {
			t.Fatalf("payload %s: expected ErrNoTextContent, got %v", payload, err)
		}
	}
}
