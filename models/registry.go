// Package models holds the static catalog of generation backends and filters
// it by which provider credentials are present.
package models

import (
	"errors"
	"fmt"
	"os"
)

// Provider is an external language-generation service.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// Environment variables holding the provider credentials.
const (
	OpenAIKeyEnv    = "OPENAI_API_KEY"
	AnthropicKeyEnv = "ANTHROPIC_API_KEY"
)

// ErrNoProviders is the fatal configuration error raised when no provider
// credential is present at startup.
var ErrNoProviders = errors.New("no generation provider configured: set " + OpenAIKeyEnv + " or " + AnthropicKeyEnv)

// Config describes one catalog entry. Entries are immutable and unique on Name.
type Config struct {
	Provider    Provider `json:"provider"`
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
}

// catalog is the fixed model catalog. Declaration order is the priority order
// across providers and models; Default returns the first available entry.
var catalog = []Config{
	{Provider: ProviderOpenAI, Name: "gpt-4o", DisplayName: "GPT-4o"},
	{Provider: ProviderOpenAI, Name: "gpt-4o-mini", DisplayName: "GPT-4o mini"},
	{Provider: ProviderAnthropic, Name: "claude-sonnet-4-20250514", DisplayName: "Claude Sonnet 4"},
	{Provider: ProviderAnthropic, Name: "claude-3-5-haiku-20241022", DisplayName: "Claude 3.5 Haiku"},
}

// Registry is the credential-filtered model catalog. Credential state is
// captured once at construction; the filtered view never changes afterwards.
type Registry struct {
	available []Config
	keys      map[Provider]string
}

// NewRegistry builds a registry from the given environment lookup.
// A nil getenv uses the process environment.
func NewRegistry(getenv func(string) string) *Registry {
	if getenv == nil {
		getenv = os.Getenv
	}
	keys := map[Provider]string{
		ProviderOpenAI:    getenv(OpenAIKeyEnv),
		ProviderAnthropic: getenv(AnthropicKeyEnv),
	}
	r := &Registry{keys: keys}
	for _, cfg := range catalog {
		if keys[cfg.Provider] != "" {
			r.available = append(r.available, cfg)
		}
	}
	return r
}

// Available returns the catalog filtered to configured providers, in
// declaration order.
func (r *Registry) Available() []Config {
	out := make([]Config, len(r.available))
	copy(out, r.available)
	return out
}

// Default returns the first available model.
func (r *Registry) Default() (Config, error) {
	if len(r.available) == 0 {
		return Config{}, ErrNoProviders
	}
	return r.available[0], nil
}

// Resolve returns the available model with the given name, or the default
// model when name is empty.
func (r *Registry) Resolve(name string) (Config, error) {
	if name == "" {
		return r.Default()
	}
	for _, cfg := range r.available {
		if cfg.Name == name {
			return cfg, nil
		}
	}
	return Config{}, fmt.Errorf("model %q is not available", name)
}

// Credential returns the captured credential for a provider.
func (r *Registry) Credential(p Provider) string {
	return r.keys[p]
}
