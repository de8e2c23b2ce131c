package pipeline

import (
	"context"
	"fmt"

	"estate-chatbot/internal/delivery"
	"estate-chatbot/internal/genai"
	"estate-chatbot/internal/leads"
	"estate-chatbot/internal/notify"
	"estate-chatbot/internal/store"
	"estate-chatbot/pkg/logger"
)

const historyLimit = 20

// ReplyGenerator produces the bot reply plus extracted lead data for one
// coalesced customer message.
type ReplyGenerator interface {
	Generate(ctx context.Context, history []genai.Turn, propertyData string) genai.Result
}

// KnowledgeSource supplies the property inventory text for the system prompt.
type KnowledgeSource interface {
	PropertyData(ctx context.Context) string
}

// Processor runs one full turn per coalesced message: persist the exchange,
// deliver the reply, then merge extracted lead data. The two persistence
// phases are separate transactions so a failed merge never takes the saved
// conversation down with it.
type Processor struct {
	store     store.Store
	generator ReplyGenerator
	knowledge KnowledgeSource
	sender    delivery.Sender
	notifier  *notify.Notifier
}

func NewProcessor(st store.Store, gen ReplyGenerator, kn KnowledgeSource, sender delivery.Sender, notifier *notify.Notifier) *Processor {
	return &Processor{
		store:     st,
		generator: gen,
		knowledge: kn,
		sender:    sender,
		notifier:  notifier,
	}
}

// Handle processes one coalesced message end to end. It never returns an
// error and never panics outward: a failed turn is logged and dropped so one
// customer's bad turn cannot stall the debounce worker.
func (p *Processor) Handle(ctx context.Context, platform leads.Platform, senderID, text string) {
	log := logger.From(ctx).With("platform", platform, "sender", senderID)
	ctx = logger.With(ctx, log)

	defer func() {
		if r := recover(); r != nil {
			log.Error("turn panicked", "panic", r)
		}
	}()

	var (
		leadID    string
		reply     string
		extracted leads.ExtractedData
	)

	err := p.store.InTurn(ctx, func(ctx context.Context, tx store.Tx) error {
		lead, err := tx.GetOrCreateLead(ctx, platform, senderID)
		if err != nil {
			return fmt.Errorf("resolve lead: %w", err)
		}
		leadID = lead.ID

		conv, err := tx.CurrentConversation(ctx, lead.ID, platform)
		if err != nil {
			return fmt.Errorf("resolve conversation: %w", err)
		}

		if _, err := tx.AppendMessage(ctx, conv.ID, store.SenderCustomer, platform, text); err != nil {
			return fmt.Errorf("save customer message: %w", err)
		}

		history, err := tx.RecentMessages(ctx, conv.ID, historyLimit)
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}
		log.Info("turn started", "lead_id", lead.ID, "history", len(history))

		res := p.generator.Generate(ctx, toTurns(history), p.knowledge.PropertyData(ctx))
		reply = genai.FormatForChat(res.Reply)
		extracted = res.Extracted

		if _, err := tx.AppendMessage(ctx, conv.ID, store.SenderBot, platform, reply); err != nil {
			return fmt.Errorf("save bot message: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Error("conversation turn failed", "err", err)
		return
	}

	sent := p.sender.SendText(ctx, platform, senderID, reply)
	log.Info("reply delivered", "lead_id", leadID, "sent", sent)

	if extracted.Empty() {
		return
	}
	p.mergeLead(ctx, leadID, extracted)
}

// mergeLead applies extracted data in its own transaction and fires the
// hot-lead notification after it commits.
func (p *Processor) mergeLead(ctx context.Context, leadID string, extracted leads.ExtractedData) {
	log := logger.From(ctx)

	var (
		merged     leads.Lead
		prevStatus leads.Status
		changed    bool
	)
	err := p.store.InTurn(ctx, func(ctx context.Context, tx store.Tx) error {
		lead, err := tx.LeadByID(ctx, leadID)
		if err != nil {
			return fmt.Errorf("load lead: %w", err)
		}
		prevStatus = lead.Status

		changed = leads.ApplyExtracted(lead, extracted)
		if changed {
			if err := tx.SaveLead(ctx, lead); err != nil {
				return fmt.Errorf("save lead: %w", err)
			}
		}
		merged = *lead
		return nil
	})
	if err != nil {
		log.Error("lead merge failed", "lead_id", leadID, "err", err)
		return
	}

	log.Info("lead merged", "lead_id", leadID, "changed", changed, "status", merged.Status)
	p.notifier.MaybeNotify(ctx, merged, prevStatus)
}

func toTurns(history []store.Message) []genai.Turn {
	turns := make([]genai.Turn, 0, len(history))
	for _, m := range history {
		role := "user"
		if m.SenderType == store.SenderBot {
			role = "assistant"
		}
		turns = append(turns, genai.Turn{Role: role, Content: m.Content})
	}
	return turns
}
