// Package factcheck classifies short messages and, when a message makes a checkable
// claim, verifies it against a bounded set of trusted domains through an LLM with web
// search.
package factcheck

import (
	"errors"
	"strings"
)

// Category is the final classification handed to delivery.
type Category string

const (
	CategoryNews          Category = "news"
	CategoryEntertainment Category = "entertainment"
	CategoryOther         Category = "other"
	CategorySuppressed    Category = "suppressed"
)

// Classification is Stage 1's reading of a message.
type Classification string

const (
	ClassNews          Classification = "news"
	ClassEntertainment Classification = "entertainment"
	ClassPersonal      Classification = "personal"
	ClassSpam          Classification = "spam"
	ClassOther         Classification = "other"
)

// Status is the verification outcome reported by Stage 2.
type Status string

const (
	StatusConfirmed          Status = "confirmed"
	StatusPartiallyConfirmed Status = "partially_confirmed"
	StatusContradictory      Status = "contradictory"
	StatusUnconfirmed        Status = "unconfirmed"
)

// Fixed texts returned to callers.
const (
	ShortTextComment   = "message too short"
	SpamComment        = "detected as spam or advertising"
	ManualReviewNotice = "Automatic verification unavailable, manual review required"
)

// MinTextLength is the shortest trimmed text, in characters, that gets analyzed.
const MinTextLength = 10

var (
	ErrAttemptTimeout = errors.New("factcheck: attempt timed out")
	ErrUnparseable    = errors.New("factcheck: response could not be parsed")
	ErrNilClient      = errors.New("factcheck: no LLM client configured")
)

// SourceCandidate is a source proposed for verification.
type SourceCandidate struct {
	Name      string `json:"name"`
	URL       string `json:"url,omitempty"`
	Domain    string `json:"domain"`
	Rationale string `json:"rationale,omitempty"`
	Priority  int    `json:"priority"`
}

func (c SourceCandidate) key() string {
	return c.Domain + "|" + c.URL
}

// Stage1Analysis is produced once per request and never mutated afterwards.
type Stage1Analysis struct {
	NeedsFactCheck     bool              `json:"needs_fact_check"`
	Classification     Classification    `json:"classification"`
	Reasoning          string            `json:"reasoning"`
	SkipReason         string            `json:"skip_reason,omitempty"`
	Candidates         []SourceCandidate `json:"candidates"`
	RecommendedQueries []string          `json:"recommended_queries"`
	// Synthetic is set when the analysis was built locally because Stage 1 failed.
	Synthetic bool `json:"synthetic,omitempty"`
}

// Verdict is a normalized Stage 2 answer.
type Verdict struct {
	Status           Status `json:"verification_status"`
	Score            int    `json:"confidence_score"`
	Category         string `json:"category"`
	DetailedFindings string `json:"detailed_findings"`
	Contradictions   string `json:"contradictions"`
	MissingEvidence  string `json:"missing_evidence"`
	SpecialNotes     string `json:"special_notes"`
}

// Result is what Analyze hands to delivery.
type Result struct {
	Category Category   `json:"category"`
	Comment  string     `json:"comment"`
	Debug    *DebugInfo `json:"debug,omitempty"`
}

// categoryFor maps a Stage 1 classification to an output category.
func categoryFor(c Classification) Category {
	switch c {
	case ClassNews:
		return CategoryNews
	case ClassEntertainment:
		return CategoryEntertainment
	case ClassSpam:
		return CategorySuppressed
	default:
		return CategoryOther
	}
}

var classificationAliases = map[string]Classification{
	"news":          ClassNews,
	"новости":       ClassNews,
	"entertainment": ClassEntertainment,
	"развлечения":   ClassEntertainment,
	"personal":      ClassPersonal,
	"spam":          ClassSpam,
	"спам":          ClassSpam,
	"advertising":   ClassSpam,
	"other":         ClassOther,
	"другое":        ClassOther,
}

func parseClassification(raw string) Classification {
	if c, ok := classificationAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return c
	}
	return ClassOther
}
