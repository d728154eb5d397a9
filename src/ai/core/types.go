package core

import (
	"context"
	"errors"
)

var (
	// ErrModelUnsupported is returned when the selected model cannot serve the request,
	// typically because it does not support the requested tool.
	ErrModelUnsupported = errors.New("ai: model unsupported for request")
	// ErrEmptyResponse is returned when a call succeeded but carried no usable text.
	ErrEmptyResponse = errors.New("ai: empty response")
)

// ToolWebSearch is the hosted web search tool.
const ToolWebSearch = "web_search"

// Tool represents a tool capability (e.g., web_search) for providers that support it.
type Tool struct {
	Type string
	// AllowedDomains restricts web_search to the listed domains when non-empty.
	AllowedDomains []string
}

// WebSearch returns a web_search tool limited to domains.
func WebSearch(domains ...string) Tool {
	return Tool{Type: ToolWebSearch, AllowedDomains: domains}
}

// Options controls model behavior; fields are optional per provider.
type Options struct {
	Model               string
	Temperature         *float64
	MaxCompletionTokens int
	SystemPrompt        string
	// JSON asks for a JSON object response where the provider supports it.
	JSON bool
	// Background asks for a job-style response that is completed through Poll.
	Background bool
}

// Temperature returns a pointer suitable for Options.Temperature.
func Temperature(v float64) *float64 {
	return &v
}

// Response lifecycle states reported by tool-augmented calls.
const (
	StatusQueued     = "queued"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusIncomplete = "incomplete"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
	StatusExpired    = "expired"
)

// Response is the result of a tool-augmented call. Raw holds the provider envelope;
// a pending response is completed by polling its ID.
type Response struct {
	ID     string
	Status string
	Raw    []byte
}

// Pending reports whether the response still has to be polled.
func (r *Response) Pending() bool {
	return r != nil && (r.Status == StatusQueued || r.Status == StatusInProgress)
}

// Usable reports whether the response reached a state whose output can be read.
// An empty status is treated as a synchronous, complete answer.
func (r *Response) Usable() bool {
	if r == nil {
		return false
	}
	switch r.Status {
	case "", StatusCompleted, StatusIncomplete:
		return true
	}
	return false
}

// Client is a provider-agnostic interface for LLM operations we need.
type Client interface {
	// Chat sends a single prompt and returns the model's text.
	Chat(ctx context.Context, prompt string, opts Options) (string, error)
	// Respond runs a tool-augmented call and returns either a finished response or a
	// pending job handle.
	Respond(ctx context.Context, input string, tools []Tool, opts Options) (*Response, error)
	// Poll fetches the current state of a job started by Respond.
	Poll(ctx context.Context, id string) (*Response, error)
}
