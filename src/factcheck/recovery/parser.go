// Package recovery turns model output that is supposed to be a JSON object into a
// best-effort map, even when the output was truncated by a token limit or wrapped in prose.
//
// Strategies are tried in order and the first one that yields an object wins:
//
//  1. direct: the payload (code fences and leading prose removed) parses as-is
//  2. balanced: unterminated strings and missing closing braces/brackets are appended
//  3. trimmed: the payload is cut back to the last complete value and re-balanced
//  4. fields: known fields are pulled out with regular expressions
package recovery

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Strategy names the step that produced a result.
type Strategy string

const (
	StrategyNone     Strategy = "none"
	StrategyDirect   Strategy = "direct"
	StrategyBalanced Strategy = "balanced"
	StrategyTrimmed  Strategy = "trimmed"
	StrategyFields   Strategy = "fields"
)

// maxTrimAttempts bounds the backward scan so a long garbage payload stays cheap.
const maxTrimAttempts = 256

// Parser recovers structured objects from model output.
type Parser struct {
	logger *zap.Logger
}

// New returns a parser that reports degraded strategies through logger.
func New(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger.With(zap.String("component", "recovery"))}
}

// Parse is a convenience wrapper around a parser without logging.
func Parse(payload string) (map[string]any, bool) {
	obj, strategy := New(nil).Parse(payload)
	return obj, strategy != StrategyNone
}

// Parse returns the recovered object and the strategy that produced it. The object is nil
// and the strategy is StrategyNone only when every strategy failed. Parse never panics on
// malformed input.
func (p *Parser) Parse(payload string) (map[string]any, Strategy) {
	body := stripWrapping(payload)
	if body == "" {
		return nil, StrategyNone
	}

	if obj, ok := decodeObject(body); ok {
		return obj, StrategyDirect
	}

	if !isBalanced(body) {
		if obj, ok := decodeObject(balance(body)); ok {
			p.degraded(StrategyBalanced, len(body))
			return obj, StrategyBalanced
		}
	}

	if obj, ok := trimToLastValue(body); ok {
		p.degraded(StrategyTrimmed, len(body))
		return obj, StrategyTrimmed
	}

	if obj, ok := extractFields(body); ok {
		p.degraded(StrategyFields, len(body))
		return obj, StrategyFields
	}

	p.logger.Warn("structured response unrecoverable",
		zap.Int("payload_bytes", len(body)),
		zap.String("preview", preview(body, 160)),
	)
	return nil, StrategyNone
}

func (p *Parser) degraded(s Strategy, size int) {
	p.logger.Warn("structured response repaired",
		zap.String("strategy", string(s)),
		zap.Int("payload_bytes", size),
	)
}

var fencePattern = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*(```)?$")

// stripWrapping removes markdown fences and any prose that precedes the first
// opening brace or bracket.
func stripWrapping(payload string) string {
	s := strings.TrimSpace(payload)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return s
	}
	return s[start:]
}

func decodeObject(s string) (map[string]any, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case []any:
		return map[string]any{"items": t}, true
	default:
		return nil, false
	}
}

// scanState walks s and reports the stack of open containers and whether the scan
// ended inside a string literal.
func scanState(s string) (stack []byte, inString bool) {
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	return stack, inString
}

func isBalanced(s string) bool {
	stack, inString := scanState(s)
	return len(stack) == 0 && !inString
}

// balance closes an open string and every open container, dropping a dangling
// separator first so the result has a chance to be valid.
func balance(s string) string {
	stack, inString := scanState(s)
	var b strings.Builder
	b.Grow(len(s) + len(stack) + 1)
	if inString {
		s = strings.TrimSuffix(s, "\\")
		b.WriteString(s)
		b.WriteByte('"')
	} else {
		b.WriteString(trimDangling(s))
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			b.WriteByte('}')
		} else {
			b.WriteByte(']')
		}
	}
	return b.String()
}

func trimDangling(s string) string {
	for {
		trimmed := strings.TrimRight(s, " \t\r\n")
		trimmed = strings.TrimSuffix(trimmed, ",")
		trimmed = strings.TrimSuffix(trimmed, ":")
		if trimmed == s {
			return s
		}
		s = trimmed
	}
}

// trimToLastValue scans backward for positions where a complete value could end:
// right after a closing brace, bracket or quote, or right before a comma. Each prefix
// is balanced and parsed; the longest prefix that parses wins.
func trimToLastValue(s string) (map[string]any, bool) {
	attempts := 0
	for i := len(s) - 1; i > 0 && attempts < maxTrimAttempts; i-- {
		var prefix string
		switch s[i] {
		case '}', ']', '"':
			prefix = s[:i+1]
		case ',':
			prefix = s[:i]
		default:
			continue
		}
		attempts++
		if obj, ok := decodeObject(balance(trimDangling(prefix))); ok {
			return obj, true
		}
	}
	return nil, false
}

var (
	chunkPattern = regexp.MustCompile(`\{[^{}]*`)

	stringFields = []string{"name", "url", "domain", "why", "rationale"}
	intFields    = []string{"priority"}

	scalarStringFields = []string{
		"classification", "reasoning", "skip_reason", "verification_status", "category",
		"detailed_findings", "contradictions", "missing_evidence", "special_notes",
	}
	scalarBoolFields = []string{"needs_fact_check"}
	scalarNumFields  = []string{"confidence_score"}
)

func stringFieldPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`"` + regexp.QuoteMeta(name) + `"\s*:\s*"((?:[^"\\]|\\.)*)"`)
}

func numberFieldPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`"` + regexp.QuoteMeta(name) + `"\s*:\s*"?(-?\d+(?:\.\d+)?)`)
}

func boolFieldPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`"` + regexp.QuoteMeta(name) + `"\s*:\s*"?(true|false)`)
}

var fieldPatterns = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp)
	for _, f := range append(append([]string{}, stringFields...), scalarStringFields...) {
		m[f] = stringFieldPattern(f)
	}
	for _, f := range append(append([]string{}, intFields...), scalarNumFields...) {
		m[f] = numberFieldPattern(f)
	}
	for _, f := range scalarBoolFields {
		m[f] = boolFieldPattern(f)
	}
	return m
}()

// extractFields pulls candidate objects and top-level scalars out of a payload that no
// structural repair could fix. Only fields that were found are present in the result.
func extractFields(s string) (map[string]any, bool) {
	out := map[string]any{}

	var sources []any
	for _, chunk := range chunkPattern.FindAllString(s, -1) {
		item := map[string]any{}
		for _, f := range stringFields {
			if m := fieldPatterns[f].FindStringSubmatch(chunk); m != nil {
				item[f] = unescape(m[1])
			}
		}
		for _, f := range intFields {
			if m := fieldPatterns[f].FindStringSubmatch(chunk); m != nil {
				if n, err := strconv.Atoi(m[1]); err == nil {
					item[f] = n
				}
			}
		}
		_, hasURL := item["url"]
		_, hasDomain := item["domain"]
		_, hasName := item["name"]
		if hasURL || hasDomain || hasName {
			sources = append(sources, item)
		}
	}
	if len(sources) > 0 {
		out["sources"] = sources
	}

	for _, f := range scalarStringFields {
		if m := fieldPatterns[f].FindStringSubmatch(s); m != nil {
			out[f] = unescape(m[1])
		}
	}
	for _, f := range scalarNumFields {
		if m := fieldPatterns[f].FindStringSubmatch(s); m != nil {
			if n, err := strconv.ParseFloat(m[1], 64); err == nil {
				out[f] = n
			}
		}
	}
	for _, f := range scalarBoolFields {
		if m := fieldPatterns[f].FindStringSubmatch(s); m != nil {
			out[f] = m[1] == "true"
		}
	}

	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

func unescape(raw string) string {
	if s, err := strconv.Unquote(`"` + raw + `"`); err == nil {
		return s
	}
	return raw
}

func preview(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "... (truncated)"
}
