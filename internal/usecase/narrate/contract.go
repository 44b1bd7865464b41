package narrate

import (
	"context"

	"github.com/kailas-cloud/medagent/internal/domain"
)

// Completer issues a single role-instructed language-model call.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error)
}
