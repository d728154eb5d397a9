package core

import (
	"strings"
)

var providerDefaultModels = map[string]string{
	"openai": "gpt-5",
	"gpt5":   "gpt-5",
	"gpt4o":  "gpt-4o",
}

// BaselineModel is the model every request can fall back to when the configured
// model rejects a call.
const BaselineModel = "gpt-4o"

// DefaultModelForProvider returns the baked-in default model for a provider key.
func DefaultModelForProvider(provider string) string {
	key := strings.ToLower(strings.TrimSpace(provider))
	if val, ok := providerDefaultModels[key]; ok {
		return val
	}
	return ""
}

// ResolveModelName picks the configured model if provided, otherwise the provider's default.
func ResolveModelName(provider, configuredModel string) string {
	model := strings.TrimSpace(configuredModel)
	if model != "" {
		return model
	}
	if def := DefaultModelForProvider(provider); def != "" {
		return def
	}
	return BaselineModel
}
