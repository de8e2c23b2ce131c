package debounce

import (
	"context"
	"sync"
	"testing"
	"time"

	"estate-chatbot/internal/leads"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) handler(ctx context.Context, platform leads.Platform, senderID, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, text)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func TestSubmit_CoalescesBurst(t *testing.T) {
	rec := &recorder{}
	c := New(50*time.Millisecond, rec.handler)
	defer c.Close()
	ctx := context.Background()

	c.Submit(ctx, leads.PlatformWhatsApp, "u1", "A")
	time.Sleep(10 * time.Millisecond)
	c.Submit(ctx, leads.PlatformWhatsApp, "u1", "B")

	waitFor(t, time.Second, func() bool { return len(rec.snapshot()) == 1 })
	if got := rec.snapshot(); got[0] != "A\nB" {
		t.Fatalf("expected combined %q, got %q", "A\nB", got[0])
	}
	if c.Pending(leads.PlatformWhatsApp, "u1") != 0 {
		t.Fatalf("buffer must be drained")
	}
}

func TestSubmit_SeparateBurstsAfterQuietPeriod(t *testing.T) {
	rec := &recorder{}
	c := New(40*time.Millisecond, rec.handler)
	defer c.Close()
	ctx := context.Background()

	c.Submit(ctx, leads.PlatformMessenger, "u1", "A")
	waitFor(t, time.Second, func() bool { return len(rec.snapshot()) == 1 })

	c.Submit(ctx, leads.PlatformMessenger, "u1", "B")
	waitFor(t, time.Second, func() bool { return len(rec.snapshot()) == 2 })

	got := rec.snapshot()
	if got[0] != "A" || got[1] != "B" {
		t.Fatalf("expected two separate calls [A B], got %v", got)
	}
}

func TestSubmit_ContinuousStreamExtendsWindow(t *testing.T) {
	rec := &recorder{}
	c := New(60*time.Millisecond, rec.handler)
	defer c.Close()
	ctx := context.Background()

	// Messages closer together than the window must keep extending it.
	for _, txt := range []string{"1", "2", "3", "4"} {
		c.Submit(ctx, leads.PlatformInstagram, "u1", txt)
		time.Sleep(20 * time.Millisecond)
		if len(rec.snapshot()) != 0 {
			t.Fatalf("handler must not fire while the stream continues")
		}
	}

	waitFor(t, time.Second, func() bool { return len(rec.snapshot()) == 1 })
	if got := rec.snapshot(); got[0] != "1\n2\n3\n4" {
		t.Fatalf("expected full burst, got %q", got[0])
	}
}

func TestSubmit_KeysAreIndependent(t *testing.T) {
	rec := &recorder{}
	c := New(40*time.Millisecond, rec.handler)
	defer c.Close()
	ctx := context.Background()

	c.Submit(ctx, leads.PlatformWhatsApp, "u1", "from-u1")
	c.Submit(ctx, leads.PlatformWhatsApp, "u2", "from-u2")
	c.Submit(ctx, leads.PlatformInstagram, "u1", "other-platform")

	waitFor(t, time.Second, func() bool { return len(rec.snapshot()) == 3 })
}

func TestClose_DiscardsPendingBursts(t *testing.T) {
	rec := &recorder{}
	c := New(time.Hour, rec.handler)
	ctx := context.Background()

	c.Submit(ctx, leads.PlatformWhatsApp, "u1", "never delivered")
	c.Close()

	if got := rec.snapshot(); len(got) != 0 {
		t.Fatalf("no handler may run after Close, got %v", got)
	}

	// Submit after Close is a no-op.
	c.Submit(ctx, leads.PlatformWhatsApp, "u1", "late")
	if c.Pending(leads.PlatformWhatsApp, "u1") != 0 {
		t.Fatalf("submit after close must not buffer")
	}
}
