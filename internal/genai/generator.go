package genai

import (
	"context"
	"log/slog"

	"estate-chatbot/internal/leads"
	"estate-chatbot/pkg/logger"
)

// Localized fallback replies. The customer never sees a technical error;
// each backend failure class gets its own message.
const (
	fallbackTimeout     = "عذراً، الرد استغرق وقت طويل. ممكن تعيد المحاولة؟"
	fallbackRateLimited = "عذراً، النظام مشغول دلوقتي. جرب تاني بعد شوية."
	fallbackAPIError    = "عذراً، حصل مشكلة تقنية. حاول تاني بعد شوية."
	fallbackUnexpected  = "عذراً، حصل خطأ غير متوقع. ممكن تجرب تاني؟"
)

// CompletionClient is the generative backend boundary.
type CompletionClient interface {
	Complete(ctx context.Context, system string, turns []Turn) (string, error)
}

// Result is one generated turn: the cleaned customer-facing reply and
// whatever structured lead data the model extracted.
type Result struct {
	Reply     string
	Extracted leads.ExtractedData
}

// Generator produces replies from conversation history plus the knowledge
// context string.
type Generator struct {
	client CompletionClient
}

func NewGenerator(client CompletionClient) *Generator {
	return &Generator{client: client}
}

// Generate never returns an error: backend failures degrade to localized
// fallback replies with empty lead data.
func (g *Generator) Generate(ctx context.Context, history []Turn, knowledge string) Result {
	log := logger.From(ctx)

	raw, err := g.client.Complete(ctx, BuildSystemPrompt(knowledge), history)
	if failure := ClassifyFailure(err); failure != FailureNone {
		return fallbackResult(log, failure, err)
	}

	clean, extracted := ParseReply(raw)
	if clean == "" {
		// Model emitted only the data block; do not send an empty bubble.
		clean = fallbackAPIError
	}
	return Result{Reply: clean, Extracted: extracted}
}

func fallbackResult(log *slog.Logger, failure Failure, err error) Result {
	var reply string
	switch failure {
	case FailureTimeout:
		reply = fallbackTimeout
	case FailureRateLimited:
		reply = fallbackRateLimited
	case FailureAPI:
		reply = fallbackAPIError
	default:
		reply = fallbackUnexpected
	}
	log.Error("completion failed", "failure", failure, "err", err)
	return Result{Reply: reply}
}
