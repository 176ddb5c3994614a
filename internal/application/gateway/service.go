// Package gateway routes completion requests to provider adapters and owns
// the session-wide active model selection.
package gateway

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/doeshing/deepchat/internal/domain"
	"github.com/doeshing/deepchat/internal/ports"
)

// Service is the model gateway. It holds the single mutable "currently
// selected model" id and delegates each completion to the adapter named by
// the request itself. Construct a fresh Service per test via New.
type Service struct {
	Factory ports.ProviderFactory
	Logger  ports.Logger

	mu     sync.Mutex
	active string
}

// New builds a gateway with the given initial selection. An empty or
// unknown initial id falls back to the first known descriptor.
func New(factory ports.ProviderFactory, log ports.Logger, initialModel string) *Service {
	if !domain.IsKnownModel(initialModel) {
		initialModel = domain.KnownDescriptors()[0].ID
	}
	return &Service{Factory: factory, Logger: log, active: initialModel}
}

// ActiveModel returns the currently selected model id.
func (s *Service) ActiveModel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// SelectModel validates id against the known descriptor set and makes it
// the active model. On an unknown id the active model is left unchanged.
// Selection never affects requests already in flight.
func (s *Service) SelectModel(id string) error {
	if !domain.IsKnownModel(id) {
		return &domain.UnknownModelError{ID: id}
	}
	s.mu.Lock()
	s.active = id
	s.mu.Unlock()
	s.Logger.Info("model selected", map[string]interface{}{"model": id})
	return nil
}

// Descriptors returns the fixed selectable model set.
func (s *Service) Descriptors() []domain.ModelDescriptor {
	return domain.KnownDescriptors()
}

// Complete validates the request and opens a fragment stream from the
// adapter serving the request's own model id. Fragments are relayed
// unchanged and in order; adapter failures surface to the caller without
// any fallback to another provider.
func (s *Service) Complete(ctx context.Context, req domain.CompletionRequest) (ports.FragmentStream, error) {
	if s.Factory == nil || s.Logger == nil {
		return nil, errors.New("gateway.Service dependencies not satisfied")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, domain.ErrEmptyPrompt
	}
	if !domain.IsKnownModel(req.ModelID) {
		return nil, &domain.UnknownModelError{ID: req.ModelID}
	}

	provider, err := s.Factory.ForModel(req.ModelID)
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	s.Logger.Info("opening completion stream", map[string]interface{}{
		"request_id": requestID,
		"provider":   provider.Name(),
		"model":      req.ModelID,
	})

	stream, err := provider.Stream(ctx, req.Prompt)
	if err != nil {
		s.Logger.Error("provider stream failed", err, map[string]interface{}{
			"request_id": requestID,
			"provider":   provider.Name(),
		})
		return nil, err
	}
	return stream, nil
}
