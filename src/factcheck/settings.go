package factcheck

import (
	"time"

	"github.com/stake-plus/newsfilter/src/ai/core"
)

// Settings tune the pipeline. Zero values fall back to DefaultSettings.
type Settings struct {
	// Model runs the web-search verification; BaselineModel runs the cheap chat calls
	// and replaces Model once when Model rejects a verification request.
	Model         string
	BaselineModel string

	MaxDomains  int
	TightTier   int
	RelaxedTier int

	AttemptTimeout time.Duration
	PollInterval   time.Duration

	Stage1MaxTokens int
	Stage2MaxTokens int

	Translate      bool
	TargetLanguage string
}

// DefaultSettings returns the production defaults.
func DefaultSettings() Settings {
	return Settings{
		Model:           "gpt-5",
		BaselineModel:   core.BaselineModel,
		MaxDomains:      20,
		TightTier:       5,
		RelaxedTier:     8,
		AttemptTimeout:  45 * time.Second,
		PollInterval:    time.Second,
		Stage1MaxTokens: 1500,
		Stage2MaxTokens: 2000,
		TargetLanguage:  "Russian",
	}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.Model == "" {
		s.Model = d.Model
	}
	if s.BaselineModel == "" {
		s.BaselineModel = d.BaselineModel
	}
	if s.MaxDomains <= 0 {
		s.MaxDomains = d.MaxDomains
	}
	if s.TightTier <= 0 {
		s.TightTier = d.TightTier
	}
	if s.RelaxedTier <= 0 {
		s.RelaxedTier = d.RelaxedTier
	}
	if s.AttemptTimeout <= 0 {
		s.AttemptTimeout = d.AttemptTimeout
	}
	if s.PollInterval <= 0 {
		s.PollInterval = d.PollInterval
	}
	if s.Stage1MaxTokens <= 0 {
		s.Stage1MaxTokens = d.Stage1MaxTokens
	}
	if s.Stage2MaxTokens <= 0 {
		s.Stage2MaxTokens = d.Stage2MaxTokens
	}
	if s.TargetLanguage == "" {
		s.TargetLanguage = d.TargetLanguage
	}
	return s
}
