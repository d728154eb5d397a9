package factcheck

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cast"
	"github.com/stake-plus/newsfilter/src/ai/core"
	"github.com/stake-plus/newsfilter/src/factcheck/domain"
	"github.com/stake-plus/newsfilter/src/metrics"
	"go.uber.org/zap"
)

const (
	maxRecommendedQueries = 3
	// unrankedPriority is given to candidates the model did not rank.
	unrankedPriority = 99
)

// SelectSources runs Stage 1: it asks the model whether text needs verification and
// which sources to use. Failures never surface; they degrade to a synthetic analysis
// backed by the catalog. The returned candidates are empty when no verification is
// required.
func (p *Pipeline) SelectSources(ctx context.Context, text string, debug *DebugInfo) ([]SourceCandidate, Stage1Analysis) {
	if debug == nil {
		debug = &DebugInfo{}
	}
	logger := p.logger.With(zap.String("stage", "stage1"))

	obj, err := p.stage1Call(ctx, stage1Prompt(text, p.now().Year(), p.settings.MaxDomains), p.settings.Stage1MaxTokens, nil)
	if err != nil {
		logger.Warn("stage1 response unusable, retrying with strict prompt", zap.Error(err))
		obj, err = p.stage1Call(ctx, stage1StrictPrompt(text, p.settings.MaxDomains), p.settings.Stage1MaxTokens/2, core.Temperature(0))
	}

	var analysis Stage1Analysis
	if err != nil {
		logger.Warn("stage1 unavailable, using catalog backup", zap.Error(err))
		metrics.FallbacksTotal.WithLabelValues("stage1_synthetic").Inc()
		analysis = Stage1Analysis{
			NeedsFactCheck: true,
			Classification: ClassOther,
			Reasoning:      fmt.Sprintf("stage1 unavailable: %v", err),
			Candidates:     p.backupCandidates(text),
			Synthetic:      true,
		}
	} else {
		analysis = p.analysisFrom(obj, text, logger)
	}

	debug.recordAnalysis(analysis)
	logger.Info("stage1 complete",
		zap.Bool("needs_fact_check", analysis.NeedsFactCheck),
		zap.String("classification", string(analysis.Classification)),
		zap.Int("candidates", len(analysis.Candidates)),
		zap.Bool("synthetic", analysis.Synthetic),
	)
	return analysis.Candidates, analysis
}

func (p *Pipeline) stage1Call(ctx context.Context, prompt string, maxTokens int, temperature *float64) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, p.settings.AttemptTimeout)
	defer cancel()

	out, err := p.client.Chat(ctx, prompt, core.Options{
		Model:               p.settings.BaselineModel,
		MaxCompletionTokens: maxTokens,
		Temperature:         temperature,
		JSON:                true,
	})
	if err != nil {
		return nil, err
	}
	obj, strategy := p.parser.Parse(out)
	metrics.RecoveryStrategies.WithLabelValues("stage1", string(strategy)).Inc()
	if obj == nil {
		return nil, ErrUnparseable
	}
	return obj, nil
}

func (p *Pipeline) analysisFrom(obj map[string]any, text string, logger *zap.Logger) Stage1Analysis {
	analysis := Stage1Analysis{
		Classification:     parseClassification(cast.ToString(obj["classification"])),
		Reasoning:          strings.TrimSpace(cast.ToString(obj["reasoning"])),
		SkipReason:         strings.TrimSpace(cast.ToString(obj["skip_reason"])),
		RecommendedQueries: recommendedQueries(obj["recommended_queries"]),
	}
	analysis.NeedsFactCheck = requiresFactCheck(obj["needs_fact_check"], analysis.Classification)
	if !analysis.NeedsFactCheck {
		return analysis
	}

	raw, ok := obj["sources"]
	if !ok {
		raw = obj["items"]
	}
	candidates := normalizeCandidates(raw, p.settings.MaxDomains)
	candidates = p.augmentWithCompanies(candidates, text)
	if len(candidates) == 0 {
		logger.Warn("no usable candidates, substituting catalog backup")
		metrics.FallbacksTotal.WithLabelValues("backup_sources").Inc()
		candidates = p.backupCandidates(text)
	}
	analysis.Candidates = candidates
	return analysis
}

// requiresFactCheck honors an explicit flag and otherwise infers it from the
// classification.
func requiresFactCheck(flag any, c Classification) bool {
	if flag != nil {
		if v, err := cast.ToBoolE(flag); err == nil {
			return v
		}
	}
	switch c {
	case ClassSpam, ClassEntertainment, ClassPersonal:
		return false
	}
	return true
}

func recommendedQueries(raw any) []string {
	queries := lo.FilterMap(cast.ToStringSlice(raw), func(q string, _ int) (string, bool) {
		q = strings.TrimSpace(q)
		return q, q != ""
	})
	if len(queries) > maxRecommendedQueries {
		queries = queries[:maxRecommendedQueries]
	}
	return queries
}

// normalizeCandidates resolves domains, drops entries without a usable domain or url,
// dedups by (domain, url), sorts by priority and caps the list.
func normalizeCandidates(raw any, max int) []SourceCandidate {
	items, _ := raw.([]any)
	out := make([]SourceCandidate, 0, len(items))
	for _, item := range items {
		c, ok := candidateFrom(item)
		if !ok {
			continue
		}
		out = append(out, c)
	}
	out = dedupCandidates(out)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

func candidateFrom(item any) (SourceCandidate, bool) {
	if s, ok := item.(string); ok {
		d, ok := domain.Resolve(s)
		return SourceCandidate{Name: d, Domain: d, Priority: unrankedPriority}, ok
	}
	m, ok := item.(map[string]any)
	if !ok {
		return SourceCandidate{}, false
	}
	c := SourceCandidate{
		Name:      strings.TrimSpace(cast.ToString(m["name"])),
		URL:       strings.TrimSpace(cast.ToString(m["url"])),
		Rationale: strings.TrimSpace(cast.ToString(m["why"])),
		Priority:  unrankedPriority,
	}
	if c.Rationale == "" {
		c.Rationale = strings.TrimSpace(cast.ToString(m["rationale"]))
	}
	if p, err := cast.ToIntE(m["priority"]); err == nil && m["priority"] != nil {
		c.Priority = p
	}

	d, ok := domain.Resolve(cast.ToString(m["domain"]))
	if !ok && c.URL != "" {
		d, ok = domain.Resolve(c.URL)
	}
	if !ok {
		return SourceCandidate{}, false
	}
	c.Domain = d
	if c.Name == "" {
		c.Name = d
	}
	return c, true
}

// augmentWithCompanies appends official domains of companies named in text after the
// model's candidates, within the domain cap.
func (p *Pipeline) augmentWithCompanies(candidates []SourceCandidate, text string) []SourceCandidate {
	have := lo.SliceToMap(candidates, func(c SourceCandidate) (string, bool) { return c.Domain, true })
	next := unrankedPriority
	if n := len(candidates); n > 0 && candidates[n-1].Priority >= next {
		next = candidates[n-1].Priority + 1
	}
	for _, d := range p.catalog.CompanyDomains(text) {
		if len(candidates) >= p.settings.MaxDomains {
			break
		}
		if have[d] {
			continue
		}
		have[d] = true
		candidates = append(candidates, SourceCandidate{
			Name:      d,
			Domain:    d,
			Rationale: "official site of a mentioned company",
			Priority:  next,
		})
	}
	return candidates
}

func (p *Pipeline) backupCandidates(text string) []SourceCandidate {
	return lo.Map(p.catalog.BackupDomains(text, p.settings.MaxDomains), func(d string, i int) SourceCandidate {
		return SourceCandidate{Name: d, Domain: d, Rationale: "catalog backup", Priority: i + 1}
	})
}

func (p *Pipeline) now() time.Time {
	if p.clock != nil {
		return p.clock()
	}
	return time.Now()
}
