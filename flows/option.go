package flows

import (
	"go.uber.org/zap"

	"github.com/bububa/deepquery/llm"
	"github.com/bububa/deepquery/models"
	"github.com/bububa/deepquery/tools/tavily"
)

// GeneratorFactory builds a Generator for a provider. It exists so tests can
// substitute fake backends at the llm boundary.
type GeneratorFactory func(provider models.Provider, apiKey string) (llm.Generator, error)

// Config represents general flow configuration
type Config struct {
	search      *tavily.Search
	factory     GeneratorFactory
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

type Option func(c *Config)

// WithSearchTool sets the web search capability handed to the backend.
func WithSearchTool(search *tavily.Search) Option {
	return func(c *Config) {
		c.search = search
	}
}

func WithGeneratorFactory(factory GeneratorFactory) Option {
	return func(c *Config) {
		c.factory = factory
	}
}

func WithTemperature(temperature float32) Option {
	return func(c *Config) {
		c.temperature = temperature
	}
}

func WithMaxTokens(maxTokens int) Option {
	return func(c *Config) {
		c.maxTokens = maxTokens
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) {
		c.logger = logger
	}
}
