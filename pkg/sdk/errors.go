package medagent

import "github.com/kailas-cloud/medagent/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrUnknownDomain           = domain.ErrUnknownDomain
	ErrDatasetNotConfigured    = domain.ErrDatasetNotConfigured
	ErrSynthesis               = domain.ErrSynthesis
	ErrExecution               = domain.ErrExecution
	ErrNarration               = domain.ErrNarration
	ErrCompletionQuotaExceeded = domain.ErrCompletionQuotaExceeded
)
