package leads

import "testing"

func strp(s string) *string { return &s }

func TestApplyExtracted_ScalarOverwrite(t *testing.T) {
	l := &Lead{Status: StatusNew}

	if !ApplyExtracted(l, ExtractedData{Name: strp("Sam"), Budget: strp("3M")}) {
		t.Fatalf("expected update")
	}
	if l.Name != "Sam" || l.BudgetRange != "3M" {
		t.Fatalf("unexpected lead: %+v", l)
	}

	// Same values again: no change reported.
	if ApplyExtracted(l, ExtractedData{Name: strp("Sam"), Budget: strp("3M")}) {
		t.Fatalf("expected no update for identical values")
	}

	// Null/absent never clears an existing field.
	if ApplyExtracted(l, ExtractedData{Name: nil, Phone: strp("")}) {
		t.Fatalf("expected no update for nil/empty values")
	}
	if l.Name != "Sam" {
		t.Fatalf("name must not be cleared, got %q", l.Name)
	}
}

func TestApplyExtracted_InterestedProjectsAppendOnly(t *testing.T) {
	l := &Lead{Status: StatusNew}

	ApplyExtracted(l, ExtractedData{InterestedProject: strp("X")})
	ApplyExtracted(l, ExtractedData{InterestedProject: strp("Y")})
	ApplyExtracted(l, ExtractedData{InterestedProject: strp("X")})

	if len(l.InterestedProjects) != 2 || l.InterestedProjects[0] != "X" || l.InterestedProjects[1] != "Y" {
		t.Fatalf("expected [X Y], got %v", l.InterestedProjects)
	}
}

func TestApplyExtracted_Classification(t *testing.T) {
	l := &Lead{Status: StatusNew}

	if !ApplyExtracted(l, ExtractedData{Classification: strp(" Hot ")}) {
		t.Fatalf("expected update")
	}
	if l.Status != StatusHot {
		t.Fatalf("expected hot, got %s", l.Status)
	}

	// Unmapped classification is ignored.
	if ApplyExtracted(l, ExtractedData{Classification: strp("boiling")}) {
		t.Fatalf("expected no update for unknown classification")
	}
	if l.Status != StatusHot {
		t.Fatalf("status must be unchanged, got %s", l.Status)
	}
}

func TestApplyExtracted_TerminalStatusGuard(t *testing.T) {
	for _, terminal := range []Status{StatusConverted, StatusLost} {
		l := &Lead{Status: terminal}
		if ApplyExtracted(l, ExtractedData{Classification: strp("hot")}) {
			t.Fatalf("expected no update on terminal status %s", terminal)
		}
		if l.Status != terminal {
			t.Fatalf("terminal status must be retained, got %s", l.Status)
		}
	}
}

func TestExtractedDataEmpty(t *testing.T) {
	if !(ExtractedData{}).Empty() {
		t.Fatalf("zero value must be empty")
	}
	if !(ExtractedData{Name: strp("  ")}).Empty() {
		t.Fatalf("whitespace-only value must count as empty")
	}
	if (ExtractedData{Phone: strp("0100")}).Empty() {
		t.Fatalf("expected non-empty")
	}
}
