package factcheck

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stake-plus/newsfilter/src/ai/core"
	"github.com/stake-plus/newsfilter/src/catalog"
	"github.com/stake-plus/newsfilter/src/factcheck/recovery"
	"github.com/stake-plus/newsfilter/src/metrics"
	"go.uber.org/zap"
)

// Catalog supplies trusted domains when the model proposes none.
type Catalog interface {
	CompanyDomains(text string) []string
	BackupDomains(text string, limit int) []string
}

// Pipeline runs the two-stage analysis. It holds no per-run state and is safe for
// concurrent use.
type Pipeline struct {
	client   core.Client
	catalog  Catalog
	settings Settings
	parser   *recovery.Parser
	logger   *zap.Logger
	clock    func() time.Time
}

// New builds a pipeline. A nil catalog uses the built-in defaults.
func New(client core.Client, cat Catalog, settings Settings, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cat == nil {
		cat = catalog.Default()
	}
	return &Pipeline{
		client:   client,
		catalog:  cat,
		settings: settings.withDefaults(),
		parser:   recovery.New(logger),
		logger:   logger.With(zap.String("component", "factcheck")),
	}
}

// WithClock sets the time source used for the current year in prompts and query
// rewriting. A nil clock restores time.Now.
func (p *Pipeline) WithClock(clock func() time.Time) *Pipeline {
	p.clock = clock
	return p
}

// Analyze classifies text. Upstream failures never surface as errors; they degrade to
// the most conservative usable result. An error is returned only for a misconfigured
// pipeline or an unexpected panic, and then together with a best-effort result.
func (p *Pipeline) Analyze(ctx context.Context, text, contextLabel string) (res Result, err error) {
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < MinTextLength {
		metrics.RunsTotal.WithLabelValues(string(CategorySuppressed)).Inc()
		return Result{Category: CategorySuppressed, Comment: ShortTextComment}, nil
	}

	debug := &DebugInfo{
		RunID:   uuid.NewString(),
		Context: contextLabel,
		Model:   p.settings.Model,
	}
	run := *p
	run.logger = p.logger.With(zap.String("run_id", debug.RunID))
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			run.logger.Error("analysis panicked", zap.Any("panic", r), zap.Stack("stack"))
			res = Result{Category: CategoryOther, Debug: debug}
			err = fmt.Errorf("factcheck: analysis panicked: %v", r)
		}
		debug.TotalSeconds = seconds(started)
		res.Debug = debug
		metrics.StageDuration.WithLabelValues("total").Observe(debug.TotalSeconds)
		metrics.RunsTotal.WithLabelValues(string(res.Category)).Inc()
	}()

	if p.client == nil {
		return Result{Category: CategoryOther}, ErrNilClient
	}

	run.logger.Info("analysis started",
		zap.String("context", contextLabel),
		zap.String("preview", truncateRunes(trimmed, 80)),
	)

	stage1 := time.Now()
	candidates, analysis := run.SelectSources(ctx, trimmed, debug)
	debug.Stage1Seconds = seconds(stage1)
	metrics.StageDuration.WithLabelValues("stage1").Observe(debug.Stage1Seconds)

	stage2 := time.Now()
	category, comment := run.Verify(ctx, trimmed, candidates, analysis, debug)
	debug.Stage2Seconds = seconds(stage2) - debug.TranslateSeconds
	metrics.StageDuration.WithLabelValues("stage2").Observe(debug.Stage2Seconds)

	run.logger.Info("analysis complete",
		zap.String("category", string(category)),
		zap.Int("attempts", debug.Attempts),
		zap.Bool("fallback", debug.FallbackUsed),
		zap.Float64("seconds", seconds(started)),
	)
	return Result{Category: category, Comment: comment}, nil
}
