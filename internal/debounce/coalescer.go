package debounce

import (
	"context"
	"strings"
	"sync"
	"time"

	"estate-chatbot/internal/leads"
	"estate-chatbot/pkg/logger"
)

// Handler receives one coalesced message per quiet sender.
type Handler func(ctx context.Context, platform leads.Platform, senderID, text string)

// Coalescer buffers rapid message bursts per (platform, sender) and emits one
// combined message once the sender has been quiet for the configured window.
//
// Each active key owns a waiter goroutine selecting between its quiet-period
// timer and a bump signal; a new message bumps the waiter, which resets the
// timer instead of cancelling anything. Buffers are in-memory only: bursts
// pending at process exit are lost.
type Coalescer struct {
	window  time.Duration
	handler Handler
	quit    chan struct{}

	mu      sync.Mutex
	buffers map[string][]string
	waiters map[string]chan struct{}
	closed  bool

	// wg tracks waiter goroutines so Close can drain them.
	wg sync.WaitGroup
}

func New(window time.Duration, handler Handler) *Coalescer {
	if window <= 0 {
		window = 3 * time.Second
	}
	return &Coalescer{
		window:  window,
		handler: handler,
		quit:    make(chan struct{}),
		buffers: map[string][]string{},
		waiters: map[string]chan struct{}{},
	}
}

// Submit appends text to the sender's burst and restarts its quiet-period
// countdown. The downstream handler runs on the waiter goroutine, outside the
// coalescer lock.
func (c *Coalescer) Submit(ctx context.Context, platform leads.Platform, senderID, text string) {
	key := string(platform) + ":" + senderID

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.buffers[key] = append(c.buffers[key], text)

	if bump, ok := c.waiters[key]; ok {
		// Waiter already running: reset its timer.
		select {
		case bump <- struct{}{}:
		default:
			// A pending bump already guarantees a reset.
		}
		logger.From(ctx).Debug("debounce reset", "key", key, "buffered", len(c.buffers[key]))
		return
	}

	bump := make(chan struct{}, 1)
	c.waiters[key] = bump
	c.wg.Add(1)
	go c.wait(ctx, key, platform, senderID, bump)
}

func (c *Coalescer) wait(ctx context.Context, key string, platform leads.Platform, senderID string, bump chan struct{}) {
	defer c.wg.Done()

	timer := time.NewTimer(c.window)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			text, ok := c.drain(key)
			if ok {
				c.handler(ctx, platform, senderID, text)
			}
			return
		case <-bump:
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(c.window)
		case <-c.quit:
			c.drain(key)
			return
		case <-ctx.Done():
			c.drain(key)
			return
		}
	}
}

// drain removes the key's buffer and waiter entry atomically and returns the
// newline-joined burst in arrival order. Appends racing with the drain land
// before it (joined in) or after the waiter entry is gone (new burst).
func (c *Coalescer) drain(key string) (string, bool) {
	c.mu.Lock()
	parts := c.buffers[key]
	delete(c.buffers, key)
	delete(c.waiters, key)
	closed := c.closed
	c.mu.Unlock()

	if closed || len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, "\n"), true
}

// Pending reports the number of buffered messages for a key. Test hook.
func (c *Coalescer) Pending(platform leads.Platform, senderID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buffers[string(platform)+":"+senderID])
}

// Close discards pending bursts and waits for waiter goroutines to finish.
// No handler runs after Close returns.
func (c *Coalescer) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.quit)
	c.mu.Unlock()
	c.wg.Wait()
}
