// Package openai implements core.Client on top of the OpenAI Chat Completions and
// Responses APIs.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stake-plus/newsfilter/src/ai/core"
	"github.com/stake-plus/newsfilter/src/metrics"
	"github.com/stake-plus/newsfilter/src/webclient"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func init() {
	core.RegisterProvider("openai", newClient, "gpt5", "gpt4o")
}

const (
	defaultBaseURL      = "https://api.openai.com/v1"
	responsesBetaHeader = "responses=v1"
)

// Client talks to the OpenAI API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	attempts   int
	retryDelay time.Duration
	defaults   core.Options
	logger     *zap.Logger
}

func newClient(cfg core.FactoryConfig) (core.Client, error) {
	return New(cfg)
}

// New builds a client from cfg. The API key is mandatory.
func New(cfg core.FactoryConfig) (*Client, error) {
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("openai: API key not configured")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		apiKey:     cfg.OpenAIKey,
		baseURL:    strings.TrimRight(valueOrDefault(cfg.BaseURL, defaultBaseURL), "/"),
		httpClient: webclient.NewDefault(orDuration(cfg.HTTPTimeout, 240*time.Second)),
		limiter:    rate.NewLimiter(limit, 1),
		attempts:   orInt(cfg.RetryAttempts, 3),
		retryDelay: orDuration(cfg.RetryDelay, 2*time.Second),
		defaults: core.Options{
			Model:               core.ResolveModelName(cfg.Provider, cfg.Model),
			MaxCompletionTokens: orInt(cfg.MaxCompletionTokens, 2000),
			SystemPrompt:        cfg.SystemPrompt,
		},
		logger: logger.With(zap.String("component", "openai")),
	}, nil
}

// Chat uses Chat Completions.
func (c *Client) Chat(ctx context.Context, prompt string, opts core.Options) (string, error) {
	merged := c.merge(opts)
	messages := make([]map[string]string, 0, 2)
	if strings.TrimSpace(merged.SystemPrompt) != "" {
		messages = append(messages, map[string]string{"role": "system", "content": merged.SystemPrompt})
	}
	messages = append(messages, map[string]string{"role": "user", "content": prompt})

	reqBody := map[string]any{
		"model":    merged.Model,
		"messages": messages,
	}
	if merged.Temperature != nil {
		reqBody["temperature"] = *merged.Temperature
	}
	if merged.MaxCompletionTokens > 0 {
		reqBody["max_completion_tokens"] = merged.MaxCompletionTokens
	}
	if merged.JSON {
		reqBody["response_format"] = map[string]string{"type": "json_object"}
	}

	body, err := c.post(ctx, "chat", "/chat/completions", reqBody, webclient.Retryable)
	if err != nil {
		return "", err
	}
	content := gjson.GetBytes(body, "choices.0.message.content").String()
	if strings.TrimSpace(content) == "" {
		c.logger.Debug("empty chat completion", zap.String("raw", truncatePayload(body, 1024)))
		return "", core.ErrEmptyResponse
	}
	return content, nil
}

func buildInputBlocks(text string) []map[string]any {
	return []map[string]any{
		{
			"role": "user",
			"content": []map[string]any{
				{
					"type": "input_text",
					"text": text,
				},
			},
		},
	}
}

// Respond uses the Responses API with optional tools like web_search. Background
// requests come back queued and are finished through Poll.
func (c *Client) Respond(ctx context.Context, input string, tools []core.Tool, opts core.Options) (*core.Response, error) {
	merged := c.merge(opts)
	payload := map[string]any{
		"model":             merged.Model,
		"input":             buildInputBlocks(input),
		"max_output_tokens": merged.MaxCompletionTokens,
	}
	if merged.SystemPrompt != "" {
		payload["instructions"] = merged.SystemPrompt
	}
	if merged.Temperature != nil {
		payload["temperature"] = *merged.Temperature
	}
	if merged.Background {
		payload["background"] = true
	}
	if toolPayload := buildToolsPayload(tools); len(toolPayload) > 0 {
		payload["tools"] = toolPayload
		payload["tool_choice"] = "auto"
	}

	// A create that failed in transit or with 5xx may still have started a paid job,
	// so only explicit rate limiting is retried.
	body, err := c.post(ctx, "responses", "/responses", payload, webclient.RateLimited)
	if err != nil {
		return nil, err
	}
	return decodeResponse(body)
}

// Poll fetches a background response by ID.
func (c *Client) Poll(ctx context.Context, id string) (*core.Response, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("openai: poll without response id")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	status, body, err := webclient.Send(ctx, c.httpClient, http.MethodGet, c.baseURL+"/responses/"+id, c.headers(), nil)
	metrics.OpenAIRequests.WithLabelValues("poll", statusLabel(status, err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("openai: fetch response %s: %w", id, err)
	}
	if status != http.StatusOK {
		return nil, classify(status, body)
	}
	return decodeResponse(body)
}

func (c *Client) post(ctx context.Context, endpoint, path string, payload any, retryable func(int) bool) ([]byte, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("openai: encode %s request: %w", endpoint, err)
	}
	c.logger.Debug("request", zap.String("endpoint", endpoint), zap.String("payload", truncatePayload(bodyBytes, 512)))

	_, body, err := webclient.DoWithRetryIf(ctx, c.attempts, c.retryDelay, retryable, func() (int, []byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, err
		}
		code, b, err := webclient.Send(ctx, c.httpClient, http.MethodPost, c.baseURL+path, c.headers(), bodyBytes)
		metrics.OpenAIRequests.WithLabelValues(endpoint, statusLabel(code, err)).Inc()
		if err != nil {
			return code, nil, err
		}
		if code != http.StatusOK {
			return code, b, classify(code, b)
		}
		return code, b, nil
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) || errors.Is(err, core.ErrModelUnsupported) {
			return nil, err
		}
		return nil, fmt.Errorf("openai %s: %w", endpoint, err)
	}
	return body, nil
}

func (c *Client) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + c.apiKey,
		"OpenAI-Beta":   responsesBetaHeader,
	}
}

func (c *Client) merge(opts core.Options) core.Options {
	out := c.defaults
	if opts.Model != "" {
		out.Model = opts.Model
	}
	if opts.Temperature != nil {
		out.Temperature = opts.Temperature
	}
	if opts.MaxCompletionTokens != 0 {
		out.MaxCompletionTokens = opts.MaxCompletionTokens
	}
	if opts.SystemPrompt != "" {
		out.SystemPrompt = opts.SystemPrompt
	}
	out.JSON = opts.JSON
	out.Background = opts.Background
	return out
}

func buildToolsPayload(tools []core.Tool) []map[string]any {
	out := []map[string]any{}
	for _, t := range tools {
		switch strings.ToLower(t.Type) {
		case core.ToolWebSearch:
			tool := map[string]any{"type": core.ToolWebSearch}
			if len(t.AllowedDomains) > 0 {
				tool["filters"] = map[string]any{"allowed_domains": t.AllowedDomains}
			}
			out = append(out, tool)
		default:
			// ignore unsupported tool types
		}
	}
	return out
}

func decodeResponse(body []byte) (*core.Response, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("openai: invalid response body: %s", truncatePayload(body, 256))
	}
	res := gjson.ParseBytes(body)
	return &core.Response{
		ID:     res.Get("id").String(),
		Status: res.Get("status").String(),
		Raw:    body,
	}, nil
}

func statusLabel(status int, err error) string {
	if err != nil && status == 0 {
		return "transport_error"
	}
	return fmt.Sprintf("%d", status)
}

func valueOrDefault(val, def string) string {
	if val != "" {
		return val
	}
	return def
}

func orInt(v, d int) int {
	if v != 0 {
		return v
	}
	return d
}

func orDuration(v, d time.Duration) time.Duration {
	if v != 0 {
		return v
	}
	return d
}

func truncatePayload(b []byte, limit int) string {
	if len(b) <= limit {
		return string(b)
	}
	return string(b[:limit]) + "... (truncated)"
}
