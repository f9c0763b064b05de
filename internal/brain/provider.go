// Package brain talks to the generative text services that write the
// context narrative.
package brain

import (
	"context"
	"errors"

	"github.com/abelbrown/contextrt/internal/services"
)

// Provider generates text from a prompt.
type Provider interface {
	// Name returns the provider name ("huggingface", "ollama").
	Name() string

	// Available reports whether the provider is configured.
	Available() bool

	// Generate sends the prompt and returns the generated text.
	Generate(ctx context.Context, req Request) (Response, error)
}

// Request is a single completion request. The prompt is sent verbatim;
// instruction templating is the caller's job.
type Request struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Response is a provider's completion.
type Response struct {
	Content     string
	Model       string
	RawResponse string
}

// ProviderManager picks a provider by preference, falling back to the
// first available one in registration order.
type ProviderManager struct {
	providers []Provider
	preferred string
}

// NewProviderManager creates an empty manager.
func NewProviderManager() *ProviderManager {
	return &ProviderManager{}
}

// AddProvider registers p. Registration order is fallback order.
func (pm *ProviderManager) AddProvider(p Provider) {
	pm.providers = append(pm.providers, p)
}

// SetPreferred sets the provider tried first.
func (pm *ProviderManager) SetPreferred(name string) {
	pm.preferred = name
}

// GetAvailable returns the preferred provider if available, else the first
// available one, else nil.
func (pm *ProviderManager) GetAvailable() Provider {
	if pm.preferred != "" {
		if p := pm.GetByName(pm.preferred); p != nil {
			return p
		}
	}
	for _, p := range pm.providers {
		if p.Available() {
			return p
		}
	}
	return nil
}

// GetByName returns the named provider if it is available.
func (pm *ProviderManager) GetByName(name string) Provider {
	for _, p := range pm.providers {
		if p.Name() == name && p.Available() {
			return p
		}
	}
	return nil
}

// ListAvailable returns the names of all available providers.
func (pm *ProviderManager) ListAvailable() []string {
	var names []string
	for _, p := range pm.providers {
		if p.Available() {
			names = append(names, p.Name())
		}
	}
	return names
}

// Name implements Provider for the manager itself.
func (pm *ProviderManager) Name() string {
	if p := pm.GetAvailable(); p != nil {
		return p.Name()
	}
	return "none"
}

// Available implements Provider.
func (pm *ProviderManager) Available() bool {
	return pm.GetAvailable() != nil
}

// Generate delegates to the selected provider.
func (pm *ProviderManager) Generate(ctx context.Context, req Request) (Response, error) {
	p := pm.GetAvailable()
	if p == nil {
		return Response{}, services.Wrap(services.ErrConfiguration, "brain", "generate", "no generator configured", errNoProvider)
	}
	return p.Generate(ctx, req)
}

var errNoProvider = errors.New("no available provider")
