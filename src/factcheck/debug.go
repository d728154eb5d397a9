package factcheck

import (
	"strings"
	"time"
)

// DebugInfo accumulates diagnostics for one pipeline run. It is owned by that run and
// must not be shared.
type DebugInfo struct {
	RunID   string `json:"run_id"`
	Context string `json:"context,omitempty"`
	Model   string `json:"model,omitempty"`

	Stage1Seconds    float64 `json:"stage1_seconds"`
	Stage2Seconds    float64 `json:"stage2_seconds"`
	TranslateSeconds float64 `json:"translate_seconds,omitempty"`
	TotalSeconds     float64 `json:"total_seconds"`

	Attempts     int      `json:"attempts"`
	Sources      []string `json:"sources"`
	SourcesCount int      `json:"sources_count"`

	Classification     string   `json:"classification,omitempty"`
	Reasoning          string   `json:"reasoning,omitempty"`
	RecommendedQueries []string `json:"recommended_queries,omitempty"`

	ConfidenceScore    int    `json:"confidence_score"`
	VerificationStatus string `json:"verification_status,omitempty"`
	DetailedFindings   string `json:"detailed_findings,omitempty"`
	Contradictions     string `json:"contradictions,omitempty"`
	MissingEvidence    string `json:"missing_evidence,omitempty"`
	SpecialNotes       string `json:"special_notes,omitempty"`

	WebSearchUsed   bool `json:"web_search_used"`
	FallbackUsed    bool `json:"fallback_used"`
	ModelDowngraded bool `json:"model_downgraded,omitempty"`
}

func seconds(since time.Time) float64 {
	return time.Since(since).Seconds()
}

// note appends a breadcrumb to the reasoning field.
func (d *DebugInfo) note(msg string) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return
	}
	if d.Reasoning == "" {
		d.Reasoning = msg
		return
	}
	d.Reasoning += " | " + msg
}

func (d *DebugInfo) recordAnalysis(a Stage1Analysis) {
	d.Classification = string(a.Classification)
	d.note(a.Reasoning)
	if a.SkipReason != "" {
		d.note("skip: " + a.SkipReason)
	}
	d.RecommendedQueries = append([]string(nil), a.RecommendedQueries...)
	d.Sources = make([]string, 0, len(a.Candidates))
	for _, c := range a.Candidates {
		d.Sources = append(d.Sources, c.Domain)
	}
	d.SourcesCount = len(d.Sources)
}

func (d *DebugInfo) recordVerdict(v Verdict) {
	d.ConfidenceScore = v.Score
	d.VerificationStatus = string(v.Status)
	d.DetailedFindings = v.DetailedFindings
	d.Contradictions = v.Contradictions
	d.MissingEvidence = v.MissingEvidence
	d.SpecialNotes = v.SpecialNotes
}
