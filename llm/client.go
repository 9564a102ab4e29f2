// Package llm is the boundary to the external generation backends. A backend
// receives one request carrying the conversation, the declared tools and a
// target output shape; whether and how many times it invokes a tool while
// reasoning is entirely its own decision. Callers only see the final result.
package llm

import (
	"context"
	"fmt"

	"github.com/bububa/deepquery/components"
	"github.com/bububa/deepquery/models"
)

// ToolFunc executes one tool invocation requested by the backend.
// arguments is the raw JSON the model produced for the declared parameters.
type ToolFunc func(ctx context.Context, arguments string) (string, error)

// Tool declares a capability the backend may invoke while generating.
type Tool struct {
	Name        string
	Description string
	// Parameters is the JSON schema of the tool arguments.
	Parameters any
	Execute    ToolFunc
}

// Request is one generation request.
type Request struct {
	Model       string
	System      string
	Messages    []components.Message
	Tools       []Tool
	Temperature float32
	MaxTokens   int
}

// Result is the outcome of one generation request.
type Result struct {
	// Structured reports whether the final output parsed into the target shape.
	Structured bool
	// Raw is the backend's final text, kept for graceful degradation when the
	// output was not structured.
	Raw      string
	Response components.LLMResponse
}

// Generator runs one generation request against a backend, decoding the final
// output into the given target when well-formed.
type Generator interface {
	Generate(ctx context.Context, req *Request, output any) (*Result, error)
}

const (
	defaultMaxToolRounds = 8
	defaultMaxTokens     = 2048
)

type config struct {
	baseURL       string
	maxToolRounds int
}

type Option func(*config)

// WithBaseURL overrides the provider API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *config) {
		c.baseURL = baseURL
	}
}

// WithMaxToolRounds caps the backend-internal tool loop.
func WithMaxToolRounds(n int) Option {
	return func(c *config) {
		c.maxToolRounds = n
	}
}

// New returns a Generator for the given provider.
func New(provider models.Provider, apiKey string, opts ...Option) (Generator, error) {
	cfg := config{maxToolRounds: defaultMaxToolRounds}
	for _, opt := range opts {
		opt(&cfg)
	}
	switch provider {
	case models.ProviderOpenAI:
		return newOpenAIGenerator(apiKey, cfg), nil
	case models.ProviderAnthropic:
		return newAnthropicGenerator(apiKey, cfg), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}

func findTool(tools []Tool, name string) (Tool, bool) {
	for _, t := range tools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}
