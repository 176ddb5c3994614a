package ai

import (
	"fmt"
	"net/http"
	"time"

	"github.com/doeshing/deepchat/internal/domain"
	"github.com/doeshing/deepchat/internal/ports"
)

// Factory resolves provider adapters from the configured endpoint set. One
// factory serves the whole process: the hosted adapters share a pooled
// streaming client, and the local-hosted adapter shares one Ollama client
// and one bootstrapper.
type Factory struct {
	cfg domain.Config
	log ports.Logger

	// streamClient carries no timeout; streams are bounded by request
	// contexts.
	streamClient *http.Client
	ollama       *OllamaClient
	bootstrap    *Bootstrapper
}

// NewFactory builds the factory. The Ollama endpoint and bootstrap retry
// policy come from the config's local-hosted model entry.
func NewFactory(cfg domain.Config, log ports.Logger) *Factory {
	local, _ := cfg.EndpointFor(domain.ModelOllamaDeepseekR1)
	ollama := NewOllamaClient(local.Endpoint)
	return &Factory{
		cfg: cfg,
		log: log,
		streamClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		ollama: ollama,
		bootstrap: NewBootstrapper(ollama, log,
			cfg.Bootstrap.MaxAttempts,
			time.Duration(cfg.Bootstrap.BackoffSeconds)*time.Second),
	}
}

// Catalog exposes the local catalog probe for health checks.
func (f *Factory) Catalog() ports.LocalCatalog {
	return f.ollama
}

// Bootstrapper exposes bootstrap phase inspection for health checks.
func (f *Factory) Bootstrapper() *Bootstrapper {
	return f.bootstrap
}

// ForModel implements ports.ProviderFactory.
func (f *Factory) ForModel(id string) (ports.Provider, error) {
	endpoint, ok := f.cfg.EndpointFor(id)
	if !ok {
		return nil, &domain.UnknownModelError{ID: id}
	}

	switch endpoint.Kind {
	case domain.ProviderKindDeepseek:
		return newSSEProvider("deepseek", endpoint, f.streamClient, deepseekAdapter()), nil
	case domain.ProviderKindGroq:
		return newSSEProvider("groq", endpoint, f.streamClient, groqAdapter()), nil
	case domain.ProviderKindPerplexity:
		return newSSEProvider("perplexity", endpoint, f.streamClient, perplexityAdapter()), nil
	case domain.ProviderKindGumtree:
		return newSSEProvider("gumtree", endpoint, f.streamClient, gumtreeAdapter()), nil
	case domain.ProviderKindOllama:
		return newOllamaProvider(endpoint, f.ollama, f.bootstrap), nil
	default:
		return nil, fmt.Errorf("unsupported provider kind: %s", endpoint.Kind)
	}
}

var _ ports.ProviderFactory = (*Factory)(nil)
