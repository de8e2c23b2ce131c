package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"

	"estate-chatbot/pkg/logger"
)

const (
	noProjectsText = "لا توجد مشاريع متاحة حالياً."

	fallbackText = "عذراً، حصل مشكلة في تحميل بيانات المشاريع.\n" +
		"الرجاء التواصل مع فريق المبيعات مباشرة للحصول على المعلومات الكاملة."
)

// Catalog is the on-disk property inventory.
type Catalog struct {
	CompanyName string    `json:"company_name"`
	Projects    []Project `json:"projects"`
}

type Project struct {
	Name           string   `json:"name"`
	Developer      string   `json:"developer"`
	Location       string   `json:"location"`
	Area           string   `json:"area"`
	Description    string   `json:"description"`
	Amenities      []string `json:"amenities"`
	DeliveryStatus string   `json:"delivery_status"`
	Units          []Unit   `json:"units"`
}

type Unit struct {
	Type               string        `json:"type"`
	SizeFrom           float64       `json:"size_from"`
	SizeTo             float64       `json:"size_to"`
	PriceFrom          float64       `json:"price_from"`
	PriceTo            float64       `json:"price_to"`
	FloorOptions       string        `json:"floor_options"`
	Views              []string      `json:"views"`
	PaymentPlans       []PaymentPlan `json:"payment_plans"`
	AvailabilityStatus string        `json:"availability_status"`
}

// PaymentPlan decodes either a bare string or an object with a description.
type PaymentPlan string

func (p *PaymentPlan) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = PaymentPlan(s)
		return nil
	}
	var obj struct {
		Description string `json:"description"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*p = PaymentPlan(obj.Description)
	return nil
}

// Loader reads the catalog and caches the formatted text after the first
// successful load. Load failures degrade to a fallback notice so the bot
// keeps answering, and are retried on the next call.
type Loader struct {
	path string

	mu   sync.Mutex
	text string
}

func NewLoader(path string) *Loader {
	if path == "" {
		path = "data/properties.json"
	}
	return &Loader{path: path}
}

// PropertyData returns the formatted inventory text for the system prompt.
func (l *Loader) PropertyData(ctx context.Context) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.text != "" {
		return l.text
	}
	log := logger.From(ctx)

	raw, err := os.ReadFile(l.path)
	if err != nil {
		log.Error("properties file unreadable", "path", l.path, "err", err)
		return fallbackText
	}

	var cat Catalog
	if err := json.Unmarshal(raw, &cat); err != nil {
		log.Error("properties file invalid", "path", l.path, "err", err)
		return fallbackText
	}

	l.text = Format(cat)
	log.Info("property data loaded", "path", l.path, "chars", len(l.text))
	return l.text
}

// Format renders the catalog as Arabic text for the model's system prompt.
func Format(cat Catalog) string {
	if len(cat.Projects) == 0 {
		return noProjectsText
	}

	sections := make([]string, 0, len(cat.Projects))
	for _, p := range cat.Projects {
		sections = append(sections, formatProject(p))
	}
	return strings.Join(sections, "\n\n")
}

func formatProject(p Project) string {
	name := p.Name
	if name == "" {
		name = "مشروع غير معروف"
	}
	lines := []string{"\n### " + name}

	if p.Developer != "" {
		lines = append(lines, "المطور: "+p.Developer)
	}
	if p.Location != "" {
		lines = append(lines, "الموقع: "+p.Location)
	}
	if p.Area != "" {
		lines = append(lines, "المنطقة: "+p.Area)
	}
	if p.Description != "" {
		lines = append(lines, "الوصف: "+p.Description)
	}
	if p.DeliveryStatus != "" {
		lines = append(lines, "حالة التسليم: "+p.DeliveryStatus)
	}
	if len(p.Amenities) > 0 {
		lines = append(lines, "المرافق: "+strings.Join(p.Amenities, "، "))
	}

	if len(p.Units) > 0 {
		lines = append(lines, "\nالوحدات المتاحة:")
		for _, u := range p.Units {
			lines = append(lines, formatUnit(u))
		}
	}
	return strings.Join(lines, "\n")
}

func formatUnit(u Unit) string {
	unitType := u.Type
	if unitType == "" {
		unitType = "وحدة"
	}
	lines := []string{"- " + unitType}

	switch {
	case u.SizeFrom > 0 && u.SizeTo > 0:
		lines = append(lines, fmt.Sprintf("  المساحة: من %s إلى %s متر مربع", formatNumber(u.SizeFrom), formatNumber(u.SizeTo)))
	case u.SizeFrom > 0:
		lines = append(lines, fmt.Sprintf("  المساحة: %s متر مربع", formatNumber(u.SizeFrom)))
	}

	switch {
	case u.PriceFrom > 0 && u.PriceTo > 0:
		lines = append(lines, fmt.Sprintf("  السعر: من %s إلى %s جنيه", formatNumber(u.PriceFrom), formatNumber(u.PriceTo)))
	case u.PriceFrom > 0:
		lines = append(lines, fmt.Sprintf("  السعر: %s جنيه", formatNumber(u.PriceFrom)))
	}

	if u.FloorOptions != "" {
		lines = append(lines, "  الأدوار: "+u.FloorOptions)
	}
	if len(u.Views) > 0 {
		lines = append(lines, "  الإطلالات: "+strings.Join(u.Views, "، "))
	}
	if len(u.PaymentPlans) > 0 {
		lines = append(lines, "  أنظمة السداد:")
		for _, plan := range u.PaymentPlans {
			if plan != "" {
				lines = append(lines, "    • "+string(plan))
			}
		}
	}
	if u.AvailabilityStatus != "" && u.AvailabilityStatus != "available" {
		lines = append(lines, "  التوافر: "+u.AvailabilityStatus)
	}
	return strings.Join(lines, "\n")
}

// formatNumber renders a value without decimals and with thousands separators.
func formatNumber(v float64) string {
	s := strconv.FormatInt(int64(math.Round(v)), 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if neg {
		s = "-" + s
	}
	return s
}
