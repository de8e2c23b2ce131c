package leads

import (
	"time"
)

// Platform identifies the messaging platform a lead arrived from.
type Platform string

const (
	PlatformWhatsApp  Platform = "whatsapp"
	PlatformMessenger Platform = "messenger"
	PlatformInstagram Platform = "instagram"
)

func (p Platform) Valid() bool {
	switch p {
	case PlatformWhatsApp, PlatformMessenger, PlatformInstagram:
		return true
	default:
		return false
	}
}

// Status is the lead engagement classification.
type Status string

const (
	StatusNew       Status = "new"
	StatusCold      Status = "cold"
	StatusWarm      Status = "warm"
	StatusHot       Status = "hot"
	StatusConverted Status = "converted"
	StatusLost      Status = "lost"
)

func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusCold, StatusWarm, StatusHot, StatusConverted, StatusLost:
		return true
	default:
		return false
	}
}

// Terminal reports whether automated classification may no longer change the
// status. Manual admin updates are not bound by this.
func (s Status) Terminal() bool {
	return s == StatusConverted || s == StatusLost
}

// Lead is a potential customer, unique per (platform, platform_sender_id).
// Profile fields stay empty until extracted from conversation.
type Lead struct {
	ID               string    `json:"id"`
	Platform         Platform  `json:"platform"`
	PlatformSenderID string    `json:"platform_sender_id"`

	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`

	// InterestedProjects is an ordered, deduplicated, append-only set of
	// project names, in order of first mention.
	InterestedProjects []string `json:"interested_projects,omitempty"`

	BudgetRange   string `json:"budget_range,omitempty"`
	Timeline      string `json:"timeline,omitempty"`
	PreferredType string `json:"preferred_type,omitempty"`
	PreferredSize string `json:"preferred_size,omitempty"`
	PaymentPlan   string `json:"payment_plan,omitempty"`

	Status Status `json:"status"`
	Notes  string `json:"notes,omitempty"`

	CreatedAt     time.Time `json:"created_at"`
	LastMessageAt time.Time `json:"last_message_at"`
}
