package factcheck

import (
	"fmt"
	"strings"
)

// Comment labels.
const (
	LabelConfirmed   = "Confirmed"
	LabelPartial     = "Partially confirmed"
	LabelContradicts = "Contradicts sources"
	LabelUnconfirmed = "Unconfirmed"
)

// Label maps a status and score to the human label.
func Label(status Status, score int) string {
	switch {
	case status == StatusContradictory:
		return LabelContradicts
	case status == StatusUnconfirmed || score < 30:
		return LabelUnconfirmed
	case status == StatusConfirmed && score >= 90:
		return LabelConfirmed
	default:
		return LabelPartial
	}
}

// BuildComment renders the label line followed by the non-empty verdict sections of d
// in a fixed order. A section repeating an earlier one is dropped.
func BuildComment(status Status, score int, d *DebugInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d%%)", Label(status, score), score)
	if d == nil {
		return b.String()
	}

	sections := []struct {
		title string
		text  string
	}{
		{"Findings", d.DetailedFindings},
		{"Contradictions", d.Contradictions},
		{"Missing evidence", d.MissingEvidence},
		{"Note", d.SpecialNotes},
	}
	seen := map[string]bool{}
	for _, s := range sections {
		text := strings.TrimSpace(s.text)
		key := strings.ToLower(text)
		if text == "" || seen[key] {
			continue
		}
		seen[key] = true
		fmt.Fprintf(&b, "\n%s: %s", s.title, text)
	}
	return b.String()
}
