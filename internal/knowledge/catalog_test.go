package knowledge

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFormat_FullProject(t *testing.T) {
	cat := Catalog{
		CompanyName: "Rekaz",
		Projects: []Project{{
			Name:           "ركاز كومباوند",
			Developer:      "شركة ركاز",
			Location:       "العاصمة الإدارية",
			Area:           "R7",
			Description:    "كومباوند متكامل",
			Amenities:      []string{"حمام سباحة", "جيم"},
			DeliveryStatus: "تسليم 2026",
			Units: []Unit{{
				Type:         "شقة 3 غرف",
				SizeFrom:     140,
				SizeTo:       180,
				PriceFrom:    2500000,
				PriceTo:      3200000,
				FloorOptions: "من الأول للخامس",
				Views:        []string{"حديقة", "بحيرة"},
				PaymentPlans: []PaymentPlan{"مقدم 10% وتقسيط 8 سنين"},
			}},
		}},
	}

	got := Format(cat)
	for _, want := range []string{
		"### ركاز كومباوند",
		"المطور: شركة ركاز",
		"المرافق: حمام سباحة، جيم",
		"الوحدات المتاحة:",
		"- شقة 3 غرف",
		"المساحة: من 140 إلى 180 متر مربع",
		"السعر: من 2,500,000 إلى 3,200,000 جنيه",
		"الإطلالات: حديقة، بحيرة",
		"• مقدم 10% وتقسيط 8 سنين",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("formatted text missing %q:\n%s", want, got)
		}
	}
}

func TestFormat_SkipsEmptyFieldsAndAvailable(t *testing.T) {
	cat := Catalog{Projects: []Project{{
		Name:  "مشروع",
		Units: []Unit{{Type: "فيلا", AvailabilityStatus: "available"}},
	}}}

	got := Format(cat)
	for _, absent := range []string{"المطور", "الموقع", "التوافر", "السعر"} {
		if strings.Contains(got, absent) {
			t.Fatalf("empty field %q must be omitted:\n%s", absent, got)
		}
	}

	cat.Projects[0].Units[0].AvailabilityStatus = "sold_out"
	if got := Format(cat); !strings.Contains(got, "التوافر: sold_out") {
		t.Fatalf("non-available status must be shown:\n%s", got)
	}
}

func TestFormat_NoProjects(t *testing.T) {
	if got := Format(Catalog{}); got != noProjectsText {
		t.Fatalf("expected no-projects notice, got %q", got)
	}
}

func TestPaymentPlan_UnmarshalObjectForm(t *testing.T) {
	var u Unit
	raw := `{"type":"شقة","payment_plans":["كاش",{"description":"تقسيط 5 سنين"}]}`
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(u.PaymentPlans) != 2 || u.PaymentPlans[1] != "تقسيط 5 سنين" {
		t.Fatalf("unexpected plans %v", u.PaymentPlans)
	}
}

func TestLoader_CachesAndFallsBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "properties.json")
	if err := os.WriteFile(path, []byte(`{"projects":[{"name":"مشروع أ"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewLoader(path)
	first := l.PropertyData(context.Background())
	if !strings.Contains(first, "مشروع أ") {
		t.Fatalf("expected project in output, got %q", first)
	}

	// Cached after first load: file changes are invisible.
	if err := os.WriteFile(path, []byte(`{"projects":[{"name":"مشروع ب"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if second := l.PropertyData(context.Background()); second != first {
		t.Fatalf("loader must cache, got %q", second)
	}

	missing := NewLoader(filepath.Join(dir, "nope.json"))
	if got := missing.PropertyData(context.Background()); got != fallbackText {
		t.Fatalf("missing file must fall back, got %q", got)
	}

	broken := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(broken, []byte(`{not json`), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := NewLoader(broken).PropertyData(context.Background()); got != fallbackText {
		t.Fatalf("invalid JSON must fall back, got %q", got)
	}
}

func TestLoader_RetriesAfterFailedLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "properties.json")
	l := NewLoader(path)

	if got := l.PropertyData(context.Background()); got != fallbackText {
		t.Fatalf("missing file must fall back, got %q", got)
	}

	// A failed load is not cached; the file is re-read once it appears.
	if err := os.WriteFile(path, []byte(`{"projects":[{"name":"مشروع أ"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	got := l.PropertyData(context.Background())
	if !strings.Contains(got, "مشروع أ") {
		t.Fatalf("expected project after file appears, got %q", got)
	}
}

func TestFormatNumber(t *testing.T) {
	cases := map[float64]string{
		950:     "950",
		1000:    "1,000",
		2500000: "2,500,000",
	}
	for in, want := range cases {
		if got := formatNumber(in); got != want {
			t.Fatalf("formatNumber(%v) = %q, want %q", in, got, want)
		}
	}
}
