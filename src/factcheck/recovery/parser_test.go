package recovery

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const stage1Sample = `{"needs_fact_check":true,"classification":"news","reasoning":"Currency move, needs finance sources, official data","sources":[{"name":"Bank of Russia","url":"https://www.cbr.ru/press/","domain":"cbr.ru","why":"official rate","priority":1},{"name":"RBC","url":"https://www.rbc.ru/","why":"finance, market","priority":2},{"name":"Reuters","domain":"reuters.com","why":"wire","priority":3}],"recommended_queries":["usd rate central bank 2024","USD RUB rate"],"skip_reason":""}`

func TestParseStrategies(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		strategy Strategy
		check    func(t *testing.T, obj map[string]any)
	}{
		{
			name:     "valid object",
			payload:  `{"verification_status":"confirmed","confidence_score":95}`,
			strategy: StrategyDirect,
			check: func(t *testing.T, obj map[string]any) {
				assert.Equal(t, "confirmed", obj["verification_status"])
				assert.Equal(t, float64(95), obj["confidence_score"])
			},
		},
		{
			name:     "markdown fence",
			payload:  "```json\n{\"category\": \"news\"}\n```",
			strategy: StrategyDirect,
			check: func(t *testing.T, obj map[string]any) {
				assert.Equal(t, "news", obj["category"])
			},
		},
		{
			name:     "leading prose",
			payload:  `Here is my answer: {"category": "entertainment"}`,
			strategy: StrategyDirect,
			check: func(t *testing.T, obj map[string]any) {
				assert.Equal(t, "entertainment", obj["category"])
			},
		},
		{
			name:     "top level array wrapped",
			payload:  `[{"domain":"bbc.com"}]`,
			strategy: StrategyDirect,
			check: func(t *testing.T, obj map[string]any) {
				require.Len(t, obj["items"], 1)
			},
		},
		{
			name:     "missing closing braces",
			payload:  `{"sources":[{"domain":"bbc.com","priority":1},{"domain":"tass.ru","priority":2}`,
			strategy: StrategyBalanced,
			check: func(t *testing.T, obj map[string]any) {
				require.Len(t, obj["sources"], 2)
			},
		},
		{
			name:     "unterminated string",
			payload:  `{"verification_status":"unconfirmed","detailed_findings":"No official statement was found on the`,
			strategy: StrategyBalanced,
			check: func(t *testing.T, obj map[string]any) {
				assert.Equal(t, "unconfirmed", obj["verification_status"])
				assert.True(t, strings.HasPrefix(obj["detailed_findings"].(string), "No official statement"))
			},
		},
		{
			name:     "dangling comma",
			payload:  `{"category":"news",`,
			strategy: StrategyBalanced,
			check: func(t *testing.T, obj map[string]any) {
				assert.Equal(t, "news", obj["category"])
			},
		},
		{
			name:     "truncated literal",
			payload:  `{"category":"news","needs_fact_check":tr`,
			strategy: StrategyTrimmed,
			check: func(t *testing.T, obj map[string]any) {
				assert.Equal(t, "news", obj["category"])
				assert.NotContains(t, obj, "needs_fact_check")
			},
		},
		{
			name:     "trailing garbage after balanced object",
			payload:  `{"category":"other"} and then {"x":`,
			strategy: StrategyTrimmed,
			check: func(t *testing.T, obj map[string]any) {
				assert.Equal(t, "other", obj["category"])
			},
		},
		{
			name:     "regex field extraction",
			payload:  `{sources: [{"name": "ЦБ РФ", "url": "https://cbr.ru", "why": "official", "priority": 1}, {"domain": "rbc.ru", "priority": "2"}], "needs_fact_check": true oops`,
			strategy: StrategyFields,
			check: func(t *testing.T, obj map[string]any) {
				assert.Equal(t, true, obj["needs_fact_check"])
				sources, ok := obj["sources"].([]any)
				require.True(t, ok)
				require.Len(t, sources, 2)
				first := sources[0].(map[string]any)
				assert.Equal(t, "ЦБ РФ", first["name"])
				assert.Equal(t, "https://cbr.ru", first["url"])
				assert.Equal(t, 1, first["priority"])
				second := sources[1].(map[string]any)
				assert.Equal(t, "rbc.ru", second["domain"])
				assert.Equal(t, 2, second["priority"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, strategy := New(zaptest.NewLogger(t)).Parse(tt.payload)
			require.NotNil(t, obj)
			assert.Equal(t, tt.strategy, strategy)
			tt.check(t, obj)
		})
	}
}

func TestParseUnrecoverable(t *testing.T) {
	for _, payload := range []string{"", "   ", "I cannot help with that.", "{{{{", `"just a string"`, "42"} {
		obj, ok := Parse(payload)
		assert.False(t, ok, payload)
		assert.Nil(t, obj, payload)
	}
}

// Every truncation at or beyond half the payload either yields nil or an object that
// still holds every top-level field whose value was complete before the cut.
func TestParseTruncatedPayloadKeepsCompleteFields(t *testing.T) {
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(stage1Sample), &raw))

	type span struct {
		end   int
		value json.RawMessage
	}
	spans := map[string]span{}
	for key, value := range raw {
		idx := strings.Index(stage1Sample, `"`+key+`":`)
		require.GreaterOrEqual(t, idx, 0, key)
		start := idx + len(key) + 3
		spans[key] = span{end: start + len(value), value: value}
	}

	p := New(nil)
	for cut := len(stage1Sample) / 2; cut <= len(stage1Sample); cut++ {
		payload := stage1Sample[:cut]
		var (
			obj      map[string]any
			strategy Strategy
		)
		require.NotPanics(t, func() { obj, strategy = p.Parse(payload) }, "cut=%d", cut)
		if obj == nil {
			assert.Equal(t, StrategyNone, strategy)
			continue
		}
		for key, sp := range spans {
			if sp.end > cut {
				continue
			}
			require.Contains(t, obj, key, "cut=%d", cut)
			var want any
			require.NoError(t, json.Unmarshal(sp.value, &want))
			switch w := want.(type) {
			case []any:
				got, ok := obj[key].([]any)
				require.True(t, ok, "cut=%d key=%s", cut, key)
				assert.Len(t, got, len(w), "cut=%d key=%s", cut, key)
			default:
				assert.Equal(t, want, obj[key], "cut=%d key=%s", cut, key)
			}
		}
	}
}

func TestStripWrapping(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripWrapping("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripWrapping("Result:\n{\"a\":1}"))
	assert.Equal(t, "no json here", stripWrapping("  no json here "))
}

func TestBalance(t *testing.T) {
	assert.Equal(t, `{"a":[1,2]}`, balance(`{"a":[1,2,`))
	assert.Equal(t, `{"a":"b"}`, balance(`{"a":"b`))
	assert.Equal(t, `{"a":{"b":1}}`, balance(`{"a":{"b":1`))
	assert.True(t, isBalanced(`{"a":"}"}`))
	assert.False(t, isBalanced(`{"a":"}"`))
}
