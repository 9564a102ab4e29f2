// Package flows contains the orchestration units of the research agent: the
// tool-augmented research flow and the judge flow used by the evaluation
// harness, plus the error taxonomy applied at the flow boundary.
package flows

import (
	"sync"

	"go.uber.org/zap"

	"github.com/bububa/deepquery/llm"
	"github.com/bububa/deepquery/models"
)

// flowBase carries what every flow needs: the credential-filtered model
// registry and a lazily-built generator per provider.
type flowBase struct {
	Config
	registry   *models.Registry
	generators map[models.Provider]llm.Generator
	mtx        sync.Mutex
}

// newFlowBase fails fast when no provider credential is present, before any
// generation call is attempted.
func newFlowBase(registry *models.Registry, options ...Option) (*flowBase, error) {
	if _, err := registry.Default(); err != nil {
		return nil, err
	}
	b := &flowBase{
		registry:   registry,
		generators: make(map[models.Provider]llm.Generator),
	}
	for _, opt := range options {
		opt(&b.Config)
	}
	if b.factory == nil {
		b.factory = func(provider models.Provider, apiKey string) (llm.Generator, error) {
			return llm.New(provider, apiKey)
		}
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	return b, nil
}

func (b *flowBase) generator(provider models.Provider) (llm.Generator, error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	if gen, ok := b.generators[provider]; ok {
		return gen, nil
	}
	gen, err := b.factory(provider, b.registry.Credential(provider))
	if err != nil {
		return nil, err
	}
	b.generators[provider] = gen
	return gen, nil
}
