package factcheck

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/stake-plus/newsfilter/src/ai/core"
)

// scriptedClient routes calls to per-test handlers and records what it saw.
type scriptedClient struct {
	mu sync.Mutex

	chat    func(prompt string, opts core.Options) (string, error)
	respond func(call int, tools []core.Tool, opts core.Options) (*core.Response, error)
	poll    func(id string) (*core.Response, error)

	prompts []string
	inputs  []string
	tools   [][]core.Tool
	models  []string
	polls   int
}

func (c *scriptedClient) Chat(_ context.Context, prompt string, opts core.Options) (string, error) {
	c.mu.Lock()
	c.prompts = append(c.prompts, prompt)
	c.mu.Unlock()
	if c.chat == nil {
		return "", core.ErrEmptyResponse
	}
	return c.chat(prompt, opts)
}

func (c *scriptedClient) Respond(_ context.Context, input string, tools []core.Tool, opts core.Options) (*core.Response, error) {
	c.mu.Lock()
	c.inputs = append(c.inputs, input)
	c.tools = append(c.tools, tools)
	c.models = append(c.models, opts.Model)
	call := len(c.tools)
	c.mu.Unlock()
	if c.respond == nil {
		return nil, core.ErrEmptyResponse
	}
	return c.respond(call, tools, opts)
}

func (c *scriptedClient) Poll(_ context.Context, id string) (*core.Response, error) {
	c.mu.Lock()
	c.polls++
	c.mu.Unlock()
	if c.poll == nil {
		return &core.Response{ID: id, Status: core.StatusInProgress}, nil
	}
	return c.poll(id)
}

func (c *scriptedClient) respondCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tools)
}

func (c *scriptedClient) promptsContaining(marker string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, p := range c.prompts {
		if strings.Contains(p, marker) {
			n++
		}
	}
	return n
}

// Prompt markers used to route chat calls.
const (
	markStage1    = "Analyze this message"
	markStrict    = "Return ONLY a valid JSON"
	markQuick     = "Answer with one word"
	markFallback  = "Briefly assess"
	markTranslate = "Translate the following"
)

// router dispatches chat prompts by marker; unknown prompts fail.
func router(routes map[string]func(prompt string) (string, error)) func(string, core.Options) (string, error) {
	return func(prompt string, _ core.Options) (string, error) {
		for marker, fn := range routes {
			if strings.Contains(prompt, marker) {
				return fn(prompt)
			}
		}
		return "", core.ErrEmptyResponse
	}
}

func reply(s string) func(string) (string, error) {
	return func(string) (string, error) { return s, nil }
}

func fail(err error) func(string) (string, error) {
	return func(string) (string, error) { return "", err }
}

// completed wraps a verdict object into a finished response envelope.
func completed(id string, verdict map[string]any) *core.Response {
	text, _ := json.Marshal(verdict)
	raw, _ := json.Marshal(map[string]any{
		"id":          id,
		"status":      core.StatusCompleted,
		"output_text": string(text),
	})
	return &core.Response{ID: id, Status: core.StatusCompleted, Raw: raw}
}

func stage1JSON(needs bool, class string, domains ...string) string {
	sources := make([]map[string]any, 0, len(domains))
	for i, d := range domains {
		sources = append(sources, map[string]any{
			"name":     d,
			"url":      "https://www." + d + "/",
			"why":      "trusted outlet",
			"priority": i + 1,
		})
	}
	out, _ := json.Marshal(map[string]any{
		"needs_fact_check":    needs,
		"classification":      class,
		"reasoning":           "test analysis",
		"sources":             sources,
		"recommended_queries": []string{"key rate decision 2023"},
	})
	return string(out)
}
