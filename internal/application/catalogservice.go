package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/ericfisherdev/tinkerstudio/internal/domain/model"
	"github.com/ericfisherdev/tinkerstudio/internal/domain/port/driven"
)

// ErrUpstreamNotConfigured is returned when no upstream service URL is set.
var ErrUpstreamNotConfigured = errors.New("upstream service not configured")

// CatalogService backs the JSON API the model browser reads from. It proxies
// to the upstream training service with the caller's API key.
type CatalogService struct {
	upstream driven.TinkerService
}

// NewCatalogService creates a CatalogService. upstream may be nil, in which
// case every call returns ErrUpstreamNotConfigured.
func NewCatalogService(upstream driven.TinkerService) *CatalogService {
	return &CatalogService{upstream: upstream}
}

// SupportedModels lists the upstream's supported models, dropping entries
// whose name is null. Upstream order is preserved.
func (s *CatalogService) SupportedModels(ctx context.Context, apiKey string) ([]model.SupportedModel, error) {
	if s.upstream == nil {
		return nil, ErrUpstreamNotConfigured
	}

	upstream, err := s.upstream.SupportedModels(ctx, apiKey)
	if err != nil {
		return nil, fmt.Errorf("fetching server capabilities: %w", err)
	}

	models := make([]model.SupportedModel, 0, len(upstream))
	for _, m := range upstream {
		if m.Name == nil {
			continue
		}
		models = append(models, model.SupportedModel{Name: *m.Name})
	}

	return models, nil
}

// CreateTrainingClient creates a LoRA training client for baseModel upstream.
func (s *CatalogService) CreateTrainingClient(ctx context.Context, apiKey, baseModel string) (model.TrainingClient, error) {
	if s.upstream == nil {
		return model.TrainingClient{}, ErrUpstreamNotConfigured
	}

	if err := s.upstream.CreateTrainingClient(ctx, apiKey, baseModel); err != nil {
		return model.TrainingClient{}, fmt.Errorf("creating training client for %s: %w", baseModel, err)
	}

	return model.TrainingClient{Status: "created", BaseModel: baseModel}, nil
}
