package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"estate-chatbot/internal/leads"

	"github.com/gin-gonic/gin"
)

type fakeSubmitter struct {
	mu    sync.Mutex
	texts []string
}

func (f *fakeSubmitter) Submit(ctx context.Context, platform leads.Platform, senderID, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, string(platform)+"|"+senderID+"|"+text)
}

func (f *fakeSubmitter) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.texts))
	copy(out, f.texts)
	return out
}

func newTestRouter(h Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.Register(r)
	return r
}

func awaitSubmissions(t *testing.T, f *fakeSubmitter, want int) []string {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if got := f.snapshot(); len(got) >= want {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d submissions, got %v", want, f.snapshot())
	return nil
}

func TestVerify_EchoesChallenge(t *testing.T) {
	r := newTestRouter(Handler{VerifyToken: "secret-token"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=secret-token&hub.challenge=12345", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Body.String() != "12345" {
		t.Fatalf("expected raw challenge, got %q", w.Body.String())
	}
}

func TestVerify_RejectsBadToken(t *testing.T) {
	r := newTestRouter(Handler{VerifyToken: "secret-token"})

	for _, target := range []string{
		"/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=1",
		"/webhook?hub.mode=unsubscribe&hub.verify_token=secret-token&hub.challenge=1",
		"/webhook?hub.mode=subscribe&hub.challenge=1",
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		if w.Code != http.StatusForbidden {
			t.Fatalf("%s: expected 403, got %d", target, w.Code)
		}
	}
}

func TestReceive_AcksAndSubmits(t *testing.T) {
	sub := &fakeSubmitter{}
	r := newTestRouter(Handler{VerifyToken: "t", Submitter: sub})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(whatsAppTextPayload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected ack body %q", w.Body.String())
	}

	got := awaitSubmissions(t, sub, 1)
	if got[0] != "whatsapp|201001234567|عايز اعرف الاسعار" {
		t.Fatalf("unexpected submission %q", got[0])
	}
}

func TestReceive_IgnoresNonTextQuietly(t *testing.T) {
	sub := &fakeSubmitter{}
	r := newTestRouter(Handler{VerifyToken: "t", Submitter: sub})

	payload := `{"object": "whatsapp_business_account", "entry": [{"changes": [{"value": {"statuses": [{}]}}]}]}`
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(payload)))

	if w.Code != http.StatusOK {
		t.Fatalf("meta always gets 200, got %d", w.Code)
	}
	time.Sleep(20 * time.Millisecond)
	if got := sub.snapshot(); len(got) != 0 {
		t.Fatalf("no submission expected, got %v", got)
	}
}

func TestReceive_DedupDropsRedelivery(t *testing.T) {
	sub := &fakeSubmitter{}
	seen := map[string]bool{}
	var mu sync.Mutex
	h := Handler{
		VerifyToken: "t",
		Submitter:   sub,
		Dedup: func(ctx context.Context, id string) (bool, error) {
			mu.Lock()
			defer mu.Unlock()
			if seen[id] {
				return false, nil
			}
			seen[id] = true
			return true, nil
		},
	}
	r := newTestRouter(h)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(whatsAppTextPayload)))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
	}

	awaitSubmissions(t, sub, 1)
	time.Sleep(20 * time.Millisecond)
	if got := sub.snapshot(); len(got) != 1 {
		t.Fatalf("redelivery must be dropped, got %v", got)
	}
}

func TestReceive_DedupFailureFailsOpen(t *testing.T) {
	sub := &fakeSubmitter{}
	h := Handler{
		VerifyToken: "t",
		Submitter:   sub,
		Dedup: func(ctx context.Context, id string) (bool, error) {
			return false, context.DeadlineExceeded
		},
	}
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(whatsAppTextPayload)))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	awaitSubmissions(t, sub, 1)
}
