package factcheck

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/stake-plus/newsfilter/src/ai/core"
	"github.com/stake-plus/newsfilter/src/logging"
	"github.com/stake-plus/newsfilter/src/metrics"
	"go.uber.org/zap"
)

// socialDomains host short-lived posts that need recency-aware searching.
var socialDomains = []string{
	"x.com", "twitter.com", "t.me", "telegram.org", "instagram.com", "facebook.com",
	"threads.net", "tiktok.com", "reddit.com", "youtube.com", "vk.com",
}

var yearPattern = regexp.MustCompile(`\b(20\d{2})\b`)

// Verify runs Stage 2 and always produces a category and comment. With no candidates
// only the quick spam check runs; otherwise tiers are attempted in order until one
// yields a verdict, and the keyword fallback covers total failure.
func (p *Pipeline) Verify(ctx context.Context, text string, candidates []SourceCandidate, analysis Stage1Analysis, debug *DebugInfo) (Category, string) {
	if debug == nil {
		debug = &DebugInfo{}
	}
	logger := p.logger.With(zap.String("stage", "stage2"))

	if len(candidates) == 0 {
		return p.quickCheck(ctx, text, analysis.Classification, logger)
	}

	model := p.settings.Model
	downgraded := false
	queries := refreshYears(analysis.RecommendedQueries, p.now().Year())

	tiers := BuildTiers(candidates, p.settings.TightTier, p.settings.RelaxedTier)
	for i := 0; i < len(tiers); i++ {
		tier := tiers[i]
		debug.Attempts++
		debug.Model = model

		verdict, err := p.attempt(ctx, text, tier, queries, model, debug)
		if err == nil {
			metrics.Stage2Attempts.WithLabelValues("success").Inc()
			logger.Info("verification succeeded",
				zap.Int("tier", i+1),
				zap.Int("domains", tier.Limit),
				zap.String("status", string(verdict.Status)),
				zap.Int("score", verdict.Score),
			)
			return p.finalize(ctx, verdict, analysis, debug)
		}

		switch {
		case errors.Is(err, core.ErrModelUnsupported) && !downgraded && model != p.settings.BaselineModel:
			metrics.Stage2Attempts.WithLabelValues("unsupported").Inc()
			metrics.FallbacksTotal.WithLabelValues("model_downgrade").Inc()
			logger.Warn("model rejected verification request, downgrading",
				zap.String("from", model), zap.String("to", p.settings.BaselineModel), zap.Error(err))
			debug.note(fmt.Sprintf("tier %d: %s unsupported, retrying with %s", i+1, model, p.settings.BaselineModel))
			model = p.settings.BaselineModel
			downgraded = true
			debug.ModelDowngraded = true
			i--
			continue
		case errors.Is(err, ErrAttemptTimeout):
			metrics.Stage2Attempts.WithLabelValues("timeout").Inc()
		case logging.IsRateLimit(err):
			metrics.Stage2Attempts.WithLabelValues("rate_limited").Inc()
		default:
			metrics.Stage2Attempts.WithLabelValues("error").Inc()
		}
		logger.Warn("verification attempt failed",
			zap.Int("tier", i+1), zap.Int("domains", tier.Limit), zap.Error(err))
		debug.note(fmt.Sprintf("tier %d (%d domains) failed: %v", i+1, tier.Limit, err))
	}

	return p.fallback(ctx, text, debug, logger)
}

// attempt performs one verification call bounded by the attempt timeout.
func (p *Pipeline) attempt(ctx context.Context, text string, tier Tier, queries []string, model string, debug *DebugInfo) (Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, p.settings.AttemptTimeout)
	defer cancel()

	domains := tier.Domains()
	prompt := verificationPrompt(text, tier, queries, hasSocial(domains), p.now().Year())
	p.logger.Debug("verification prompt", zap.String("model", model), zap.String("prompt", truncateRunes(prompt, 512)))

	resp, err := p.client.Respond(ctx, prompt, []core.Tool{core.WebSearch(domains...)}, core.Options{
		Model:               model,
		MaxCompletionTokens: p.settings.Stage2MaxTokens,
		Background:          true,
	})
	if err != nil {
		return Verdict{}, timeoutOr(ctx, err)
	}
	debug.WebSearchUsed = true

	resp, err = p.await(ctx, resp)
	if err != nil {
		return Verdict{}, err
	}

	out := ExtractText(resp.Raw)
	if out == "" {
		return Verdict{}, core.ErrEmptyResponse
	}
	obj, strategy := p.parser.Parse(out)
	metrics.RecoveryStrategies.WithLabelValues("stage2", string(strategy)).Inc()
	if obj == nil {
		return Verdict{}, ErrUnparseable
	}
	return NormalizeVerdict(obj, p.logger), nil
}

// await polls a background response until it leaves the pending states. Running out
// of time while pending is a timeout, never a success.
func (p *Pipeline) await(ctx context.Context, resp *core.Response) (*core.Response, error) {
	if !resp.Pending() {
		return terminal(resp)
	}
	ticker := time.NewTicker(p.settings.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: response %s still %s", ErrAttemptTimeout, resp.ID, resp.Status)
		case <-ticker.C:
		}
		next, err := p.client.Poll(ctx, resp.ID)
		if err != nil {
			return nil, timeoutOr(ctx, err)
		}
		if next.Pending() {
			p.logger.Debug("response pending", zap.String("id", next.ID), zap.String("status", next.Status))
			if next.ID == "" {
				next.ID = resp.ID
			}
			resp = next
			continue
		}
		return terminal(next)
	}
}

func terminal(resp *core.Response) (*core.Response, error) {
	if resp.Usable() {
		return resp, nil
	}
	if resp == nil {
		return nil, core.ErrEmptyResponse
	}
	return nil, fmt.Errorf("response %s ended with status %s", resp.ID, resp.Status)
}

// timeoutOr maps errors caused by the attempt deadline to ErrAttemptTimeout.
func timeoutOr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrAttemptTimeout, err)
	}
	return err
}

// finalize turns a verdict into the output pair.
func (p *Pipeline) finalize(ctx context.Context, v Verdict, analysis Stage1Analysis, debug *DebugInfo) (Category, string) {
	debug.recordVerdict(v)
	if v.Category == "spam" {
		return CategorySuppressed, SpamComment
	}
	p.TranslateFields(ctx, debug)

	category := categoryFor(parseClassification(v.Category))
	if v.Category == "" {
		category = categoryFor(analysis.Classification)
		if category == CategorySuppressed {
			category = CategoryOther
		}
	}
	return category, BuildComment(v.Status, v.Score, debug)
}

// quickCheck is the cheap path for messages without candidates.
func (p *Pipeline) quickCheck(ctx context.Context, text string, class Classification, logger *zap.Logger) (Category, string) {
	ctx, cancel := context.WithTimeout(ctx, p.settings.AttemptTimeout)
	defer cancel()

	metrics.FallbacksTotal.WithLabelValues("quick_check").Inc()
	answer, err := p.client.Chat(ctx, quickSpamPrompt(text), core.Options{
		Model:               p.settings.BaselineModel,
		MaxCompletionTokens: 10,
		Temperature:         core.Temperature(0),
	})
	if err != nil {
		logger.Warn("quick spam check failed, using stage1 classification", zap.Error(err))
		return categoryFor(class), spamCommentFor(categoryFor(class))
	}

	spam, ok := SpamAnswer(answer)
	switch {
	case !ok:
		logger.Debug("ambiguous spam answer", zap.String("answer", answer))
		return categoryFor(class), spamCommentFor(categoryFor(class))
	case spam:
		return CategorySuppressed, SpamComment
	}
	if class == ClassSpam {
		return CategoryOther, ""
	}
	return categoryFor(class), ""
}

func spamCommentFor(c Category) string {
	if c == CategorySuppressed {
		return SpamComment
	}
	return ""
}

// fallback is the last resort after every tier failed. It never fabricates findings.
func (p *Pipeline) fallback(ctx context.Context, text string, debug *DebugInfo, logger *zap.Logger) (Category, string) {
	ctx, cancel := context.WithTimeout(ctx, p.settings.AttemptTimeout)
	defer cancel()

	metrics.FallbacksTotal.WithLabelValues("final").Inc()
	debug.FallbackUsed = true

	category := CategoryOther
	answer, err := p.client.Chat(ctx, fallbackPrompt(text), core.Options{
		Model:               p.settings.BaselineModel,
		MaxCompletionTokens: 100,
		Temperature:         core.Temperature(0.1),
	})
	if err != nil {
		logger.Warn("fallback classifier unavailable", zap.Error(err))
	} else {
		category = ClassifyAnswer(answer)
	}
	logger.Warn("all verification tiers failed", zap.Int("attempts", debug.Attempts), zap.String("category", string(category)))
	return category, ManualReviewNotice
}

// refreshYears rewrites past years in queries to the current one.
func refreshYears(queries []string, current int) []string {
	return lo.Map(queries, func(q string, _ int) string {
		return yearPattern.ReplaceAllStringFunc(q, func(y string) string {
			n, err := strconv.Atoi(y)
			if err != nil || n < 2000 || n >= current {
				return y
			}
			return strconv.Itoa(current)
		})
	})
}

func hasSocial(domains []string) bool {
	return lo.SomeBy(domains, func(d string) bool {
		return lo.SomeBy(socialDomains, func(s string) bool {
			return d == s || strings.HasSuffix(d, "."+s)
		})
	})
}
