package factcheck

import (
	"math"
	"strings"

	"github.com/spf13/cast"
	"go.uber.org/zap"
)

var statusAliases = map[string]Status{
	"confirmed":           StatusConfirmed,
	"partially_confirmed": StatusPartiallyConfirmed,
	"partial":             StatusPartiallyConfirmed,
	"contradictory":       StatusContradictory,
	"contradicted":        StatusContradictory,
	"unconfirmed":         StatusUnconfirmed,
}

var verdictCategories = map[string]string{
	"news":          "news",
	"новости":       "news",
	"entertainment": "entertainment",
	"развлечения":   "entertainment",
	"other":         "other",
	"другое":        "other",
	"spam":          "spam",
	"спам":          "spam",
}

// NormalizeVerdict coerces a recovered object into a Verdict. The score is always an
// integer in [0,100]; a contradictory verdict with a score above 50 is inverted.
func NormalizeVerdict(obj map[string]any, logger *zap.Logger) Verdict {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := Verdict{
		Status:           parseStatus(obj["verification_status"]),
		Category:         verdictCategories[strings.ToLower(strings.TrimSpace(cast.ToString(obj["category"])))],
		DetailedFindings: textField(obj["detailed_findings"]),
		Contradictions:   textField(obj["contradictions"]),
		MissingEvidence:  textField(obj["missing_evidence"]),
		SpecialNotes:     textField(obj["special_notes"]),
	}

	score, ok := CoerceScore(obj["confidence_score"])
	if !ok {
		logger.Warn("non-numeric confidence score, using 0", zap.Any("raw", obj["confidence_score"]))
	}
	v.Score = invertContradiction(v.Status, score)
	return v
}

func parseStatus(raw any) Status {
	s := strings.ToLower(strings.TrimSpace(cast.ToString(raw)))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	if st, ok := statusAliases[s]; ok {
		return st
	}
	return StatusUnconfirmed
}

// CoerceScore turns an upstream score of any shape into an integer in [0,100]. It
// reports false, with a zero score, when the value is not numeric.
func CoerceScore(raw any) (int, bool) {
	var (
		f   float64
		err error
	)
	switch t := raw.(type) {
	case nil, bool:
		return 0, false
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(t), "%"))
		s = strings.Replace(s, ",", ".", 1)
		f, err = cast.ToFloat64E(s)
	default:
		f, err = cast.ToFloat64E(t)
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	f = math.Round(f)
	switch {
	case f < 0:
		return 0, true
	case f > 100:
		return 100, true
	}
	return int(f), true
}

// invertContradiction applies the contradiction rule: a model highly confident that a
// claim is false means low trust in the claim. Scores of 50 or less stay as they are.
func invertContradiction(status Status, score int) int {
	if status == StatusContradictory && score > 50 {
		return 100 - score
	}
	return score
}

func textField(raw any) string {
	switch t := raw.(type) {
	case nil:
		return ""
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := strings.TrimSpace(cast.ToString(item)); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	default:
		return strings.TrimSpace(cast.ToString(t))
	}
}
