package notify

import (
	"context"
	"strings"

	"estate-chatbot/internal/config"
	"estate-chatbot/internal/delivery"
	"estate-chatbot/internal/leads"
	"estate-chatbot/pkg/logger"
)

const notAvailable = "غير متوفر"

var platformNamesAr = map[leads.Platform]string{
	leads.PlatformWhatsApp:  "واتساب",
	leads.PlatformMessenger: "ماسنجر",
	leads.PlatformInstagram: "إنستجرام",
}

// Notifier alerts the sales team over WhatsApp when a lead is hot. Failures
// are logged and swallowed so the customer flow is never blocked.
type Notifier struct {
	cfg    config.NotifyConfig
	sender delivery.Sender
}

func New(cfg config.NotifyConfig, sender delivery.Sender) *Notifier {
	return &Notifier{cfg: cfg, sender: sender}
}

// MaybeNotify sends a hot-lead alert after a merge. prevStatus is the lead's
// status before the merge: in edge mode only the cold-to-hot transition
// fires, in level mode every hot turn does.
func (n *Notifier) MaybeNotify(ctx context.Context, lead leads.Lead, prevStatus leads.Status) {
	log := logger.From(ctx)

	if lead.Status != leads.StatusHot {
		return
	}
	if n.cfg.Mode == config.NotifyModeEdge && prevStatus == leads.StatusHot {
		return
	}
	if n.cfg.SalesWhatsApp == "" {
		log.Info("no sales whatsapp configured, skipping notification", "lead_id", lead.ID)
		return
	}

	log.Info("sending hot lead notification", "lead_id", lead.ID)
	if n.sender.SendText(ctx, leads.PlatformWhatsApp, n.cfg.SalesWhatsApp, FormatAlert(lead)) {
		log.Info("sales team notified", "lead_id", lead.ID)
	} else {
		log.Warn("sales team notification failed", "lead_id", lead.ID)
	}
}

// FormatAlert renders the Arabic sales alert for a hot lead.
func FormatAlert(lead leads.Lead) string {
	parts := []string{"🔥 عميل Hot جديد — ركاز كومباوند!"}

	if lead.Name != "" {
		parts = append(parts, "الاسم: "+lead.Name)
	} else {
		parts = append(parts, "الاسم: "+notAvailable)
	}

	if lead.Phone != "" {
		parts = append(parts, "التليفون: "+lead.Phone)
	} else {
		parts = append(parts, "التليفون: "+notAvailable)
	}

	if len(lead.InterestedProjects) > 0 {
		parts = append(parts, "مهتم بـ: "+strings.Join(lead.InterestedProjects, "، "))
	}
	if lead.BudgetRange != "" {
		parts = append(parts, "الميزانية: "+lead.BudgetRange)
	}
	if lead.Timeline != "" {
		parts = append(parts, "التوقيت: "+lead.Timeline)
	}

	name, ok := platformNamesAr[lead.Platform]
	if !ok {
		name = string(lead.Platform)
	}
	parts = append(parts, "المنصة: "+name)
	parts = append(parts, "\nرقم العميل: "+lead.ID)

	return strings.Join(parts, "\n")
}
