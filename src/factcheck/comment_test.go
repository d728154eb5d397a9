package factcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabel(t *testing.T) {
	tests := []struct {
		status Status
		score  int
		want   string
	}{
		{StatusConfirmed, 95, LabelConfirmed},
		{StatusConfirmed, 90, LabelConfirmed},
		{StatusConfirmed, 89, LabelPartial},
		{StatusConfirmed, 20, LabelUnconfirmed},
		{StatusPartiallyConfirmed, 75, LabelPartial},
		{StatusPartiallyConfirmed, 29, LabelUnconfirmed},
		{StatusContradictory, 20, LabelContradicts},
		{StatusContradictory, 90, LabelContradicts},
		{StatusUnconfirmed, 80, LabelUnconfirmed},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, Label(tt.status, tt.score))
		})
	}
}

func TestBuildComment(t *testing.T) {
	d := &DebugInfo{
		DetailedFindings: "Two outlets confirm the decision.",
		Contradictions:   "",
		MissingEvidence:  "No official statement yet.",
		SpecialNotes:     "two outlets confirm the decision.",
	}
	got := BuildComment(StatusPartiallyConfirmed, 75, d)
	assert.Equal(t, "Partially confirmed (75%)\nFindings: Two outlets confirm the decision.\nMissing evidence: No official statement yet.", got)

	assert.Equal(t, "Unconfirmed (0%)", BuildComment(StatusUnconfirmed, 0, nil))
}
