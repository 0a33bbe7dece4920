package driven

import (
	"context"
	"errors"
	"fmt"

	"github.com/ericfisherdev/tinkerstudio/internal/domain/model"
)

// ErrRequestRejected is matched by errors returned when the catalog answered
// with a non-success status.
var ErrRequestRejected = errors.New("catalog rejected request")

// RejectedError carries the status code of a rejected catalog request. The
// response body is never inspected.
type RejectedError struct {
	StatusCode int
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("catalog rejected request: status %d", e.StatusCode)
}

// Is reports ErrRequestRejected as a match so callers can use errors.Is.
func (e *RejectedError) Is(target error) bool {
	return target == ErrRequestRejected
}

// ModelCatalog defines the driven port the model browser fetches through.
// FetchModels issues exactly one read request authenticated with credential.
// Any transport or decoding error is returned unmodified so its description
// can be shown to the user as-is.
type ModelCatalog interface {
	FetchModels(ctx context.Context, credential string) ([]model.SupportedModel, error)
}
