package factcheck

import (
	"context"
	"strings"
	"time"

	"github.com/stake-plus/newsfilter/src/ai/core"
	"github.com/stake-plus/newsfilter/src/metrics"
	"go.uber.org/zap"
)

// TranslateFields localizes the free-text verdict fields of debug in place. It is a
// no-op unless translation is enabled. A field whose translation fails keeps its
// original text.
func (p *Pipeline) TranslateFields(ctx context.Context, debug *DebugInfo) {
	if !p.settings.Translate || debug == nil {
		return
	}
	started := time.Now()
	defer func() {
		debug.TranslateSeconds = seconds(started)
		metrics.StageDuration.WithLabelValues("translate").Observe(debug.TranslateSeconds)
	}()

	fields := []struct {
		name string
		ptr  *string
	}{
		{"detailed_findings", &debug.DetailedFindings},
		{"contradictions", &debug.Contradictions},
		{"missing_evidence", &debug.MissingEvidence},
		{"special_notes", &debug.SpecialNotes},
	}
	for _, f := range fields {
		if strings.TrimSpace(*f.ptr) == "" {
			continue
		}
		translated, err := p.translate(ctx, *f.ptr)
		if err != nil {
			p.logger.Warn("translation failed, keeping original", zap.String("field", f.name), zap.Error(err))
			continue
		}
		*f.ptr = translated
	}
}

func (p *Pipeline) translate(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.settings.AttemptTimeout)
	defer cancel()

	out, err := p.client.Chat(ctx, translatePrompt(text, p.settings.TargetLanguage), core.Options{
		Model:               p.settings.BaselineModel,
		MaxCompletionTokens: 1000,
		Temperature:         core.Temperature(0.1),
	})
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", core.ErrEmptyResponse
	}
	return out, nil
}
