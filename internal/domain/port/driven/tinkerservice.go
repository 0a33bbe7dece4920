package driven

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/tinkerstudio/internal/domain/model"
)

// UpstreamStatusError is returned by TinkerService when the upstream service
// answered with a non-success status.
type UpstreamStatusError struct {
	Operation  string
	StatusCode int
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("upstream %s: status %d", e.Operation, e.StatusCode)
}

// Unauthorized reports whether the upstream refused the API key.
func (e *UpstreamStatusError) Unauthorized() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// TinkerService defines the driven port for the upstream training service the
// backend API proxies to. apiKey is forwarded per call and never stored.
type TinkerService interface {
	// SupportedModels returns the models listed in the server capabilities.
	SupportedModels(ctx context.Context, apiKey string) ([]model.UpstreamModel, error)

	// CreateTrainingClient creates a LoRA training client for baseModel.
	CreateTrainingClient(ctx context.Context, apiKey, baseModel string) error
}
