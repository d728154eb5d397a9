package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.Equal(t, "gpt-5", cfg.AI.Model)
	assert.Equal(t, "gpt-4o", cfg.AI.BaselineModel)
	assert.Equal(t, 20, cfg.Pipeline.MaxDomains)
	assert.Equal(t, 5, cfg.Pipeline.InitialLimit)
	assert.Equal(t, 8, cfg.Pipeline.RetryLimit)
	assert.Equal(t, 10000, cfg.Dedup.Capacity)
	assert.Equal(t, ":8080", cfg.API.Listen)
	assert.Equal(t, []string{"*"}, cfg.API.Origins)
	assert.Empty(t, cfg.Discord.SourceChannels)

	s := cfg.FactcheckSettings()
	assert.Equal(t, 45*time.Second, s.AttemptTimeout)
	assert.Equal(t, time.Second, s.PollInterval)
	assert.Equal(t, "Russian", s.TargetLanguage)
	assert.Equal(t, 24*time.Hour, cfg.DedupWindow())
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "newsfilter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
gpt_model: gpt-4.1
max_source_domains: 12
fact_check_timeout: 30
discord_source_channels:
  - "111"
  - "222"
`), 0o600))

	t.Setenv("MAX_SOURCE_DOMAINS", "15")
	t.Setenv("TRANSLATE_COMMENTS", "true")
	t.Setenv("STAGE2_RETRY_DOMAIN_LIMIT", "10")
	t.Setenv("DEBUG_MODE", "true")

	cfg, err := Load(path, map[string]string{
		"stage2_retry_domain_limit": "6",
		"unknown_setting":           "ignored",
		"target_language":           "",
	})
	require.NoError(t, err)

	assert.Equal(t, "gpt-4.1", cfg.AI.Model)
	assert.Equal(t, 15, cfg.Pipeline.MaxDomains)
	assert.Equal(t, 30.0, cfg.Pipeline.TimeoutSeconds)
	assert.Equal(t, 6, cfg.Pipeline.RetryLimit)
	assert.True(t, cfg.Pipeline.Translate)
	assert.Equal(t, "Russian", cfg.Pipeline.TargetLanguage)
	assert.Equal(t, []string{"111", "222"}, cfg.Discord.SourceChannels)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadEnvList(t *testing.T) {
	t.Setenv("DISCORD_SOURCE_CHANNELS", "111, 222,,333")
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"111", "222", "333"}, cfg.Discord.SourceChannels)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai_api_key")

	cfg.AI.OpenAIKey = "sk-test"
	require.NoError(t, cfg.Validate())

	cfg.Pipeline.MaxDomains = 0
	cfg.Dedup.Capacity = -1
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_source_domains")
	assert.Contains(t, err.Error(), "dedup_capacity")
}

func TestKeysSorted(t *testing.T) {
	keys := Keys()
	assert.Contains(t, keys, "openai_api_key")
	assert.IsNonDecreasing(t, keys)
}
