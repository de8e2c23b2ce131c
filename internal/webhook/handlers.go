package webhook

import (
	"context"
	"errors"
	"net/http"
	"time"

	"estate-chatbot/internal/leads"
	"estate-chatbot/pkg/logger"
	"estate-chatbot/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const dedupTTL = 24 * time.Hour

// Submitter hands a normalized message to the debounce stage.
type Submitter interface {
	Submit(ctx context.Context, platform leads.Platform, senderID, text string)
}

// DedupFunc reports whether a message ID is seen for the first time.
type DedupFunc func(ctx context.Context, messageID string) (bool, error)

// RedisDedup marks message IDs in Redis so webhook redeliveries are dropped.
func RedisDedup(rdb *redis.Client) DedupFunc {
	return func(ctx context.Context, messageID string) (bool, error) {
		return utils.MarkOnce(ctx, rdb, "webhook:msg:"+messageID, dedupTTL)
	}
}

// Handler terminates the Meta webhook: the verification handshake on GET and
// message intake on POST.
//
// POST acknowledges immediately and processes in the background; Meta retries
// deliveries that do not get a fast 200.
type Handler struct {
	VerifyToken string
	Submitter   Submitter

	// Dedup drops redelivered messages by ID. Nil disables deduplication.
	Dedup DedupFunc
}

func (h Handler) Register(r gin.IRouter) {
	r.GET("/webhook", h.Verify)
	r.POST("/webhook", h.Receive)
}

// Verify answers Meta's subscription handshake by echoing hub.challenge.
func (h Handler) Verify(c *gin.Context) {
	log := logger.FromGin(c)

	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token != "" && token == h.VerifyToken {
		log.Info("webhook verification successful")
		c.String(http.StatusOK, challenge)
		return
	}

	log.Warn("webhook verification failed", "mode", mode)
	c.String(http.StatusForbidden, "Verification failed")
}

// Receive acknowledges the delivery and hands the payload to a background
// goroutine. Parse failures never surface to Meta: a non-200 here only
// triggers redelivery of the same payload.
func (h Handler) Receive(c *gin.Context) {
	log := logger.FromGin(c)

	body, err := c.GetRawData()
	if err != nil {
		log.Warn("webhook body read failed", "err", err)
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})

	// The request context dies with the response; processing gets its own.
	bgCtx := logger.With(context.Background(), log)
	go h.process(bgCtx, body)
}

func (h Handler) process(ctx context.Context, body []byte) {
	log := logger.From(ctx)

	in, err := Parse(body)
	switch {
	case errors.Is(err, ErrUnknownPlatform):
		log.Warn("webhook for unknown platform", "err", err)
		return
	case errors.Is(err, ErrNoTextContent):
		log.Debug("ignoring non-text webhook event")
		return
	case err != nil:
		log.Warn("webhook payload invalid", "err", err)
		return
	}

	if h.Dedup != nil && in.MessageID != "" {
		first, err := h.Dedup(ctx, in.MessageID)
		if err != nil {
			// Fail open: a broken dedup store must not drop customer messages.
			log.Warn("webhook dedup check failed", "err", err)
		} else if !first {
			log.Info("dropping redelivered message", "message_id", in.MessageID)
			return
		}
	}

	log.Info("message received",
		"platform", in.Platform, "sender", in.SenderID, "message_id", in.MessageID)
	h.Submitter.Submit(ctx, in.Platform, in.SenderID, in.Text)
}
