package leads

import "strings"

// ExtractedData is the structured block the response generator pulls out of a
// model reply. Fields are pointers so "absent" and "null" both decode to nil;
// unknown JSON keys are dropped by the fixed shape.
type ExtractedData struct {
	Name              *string `json:"name"`
	Phone             *string `json:"phone"`
	InterestedProject *string `json:"interested_project"`
	Budget            *string `json:"budget"`
	Timeline          *string `json:"timeline"`
	PreferredType     *string `json:"preferred_type"`
	PreferredSize     *string `json:"preferred_size"`
	PaymentPlan       *string `json:"payment_plan"`
	Classification    *string `json:"classification"`
}

// Empty reports whether no field carries a usable value.
func (d ExtractedData) Empty() bool {
	for _, p := range []*string{
		d.Name, d.Phone, d.InterestedProject, d.Budget, d.Timeline,
		d.PreferredType, d.PreferredSize, d.PaymentPlan, d.Classification,
	} {
		if p != nil && strings.TrimSpace(*p) != "" {
			return false
		}
	}
	return true
}

// ApplyExtracted merges extracted fields onto the lead cumulatively and
// reports whether anything changed.
//
// Rules:
//   - A scalar overwrites only when the new value is present, non-empty and
//     different from the current one. Absent/null never clears a field.
//   - interested_project appends to InterestedProjects once, preserving the
//     order of first appearance.
//   - classification maps onto Status case-insensitively; unmapped strings
//     are ignored, and terminal statuses (converted, lost) are never changed
//     by this path.
func ApplyExtracted(l *Lead, d ExtractedData) bool {
	updated := false

	set := func(dst *string, src *string) {
		if src == nil {
			return
		}
		v := strings.TrimSpace(*src)
		if v == "" || *dst == v {
			return
		}
		*dst = v
		updated = true
	}

	set(&l.Name, d.Name)
	set(&l.Phone, d.Phone)
	set(&l.BudgetRange, d.Budget)
	set(&l.Timeline, d.Timeline)
	set(&l.PreferredType, d.PreferredType)
	set(&l.PreferredSize, d.PreferredSize)
	set(&l.PaymentPlan, d.PaymentPlan)

	if d.InterestedProject != nil {
		if p := strings.TrimSpace(*d.InterestedProject); p != "" && !containsString(l.InterestedProjects, p) {
			l.InterestedProjects = append(l.InterestedProjects, p)
			updated = true
		}
	}

	if d.Classification != nil {
		if next, ok := classificationStatus(*d.Classification); ok {
			if !l.Status.Terminal() && l.Status != next {
				l.Status = next
				updated = true
			}
		}
	}

	return updated
}

func classificationStatus(classification string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(classification)) {
	case "hot":
		return StatusHot, true
	case "warm":
		return StatusWarm, true
	case "cold":
		return StatusCold, true
	case "converted":
		return StatusConverted, true
	case "lost":
		return StatusLost, true
	case "new":
		return StatusNew, true
	default:
		return "", false
	}
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
