package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates the datasets cannot be reached.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	datasets Pinger
	llm      LLMChecker
	kv       Pinger
}

// New creates a Service. llm and kv can be nil.
func New(datasets Pinger, llm LLMChecker, kv Pinger) *Service {
	return &Service{datasets: datasets, llm: llm, kv: kv}
}

// Check runs health checks against all components.
// Dataset failure makes the service unhealthy; any other failure degrades it.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks["datasets"] = result(s.datasets.Ping(ctx))
	if s.llm != nil {
		checks["llm"] = result(s.llm.HealthCheck(ctx))
	}
	if s.kv != nil {
		checks["redis"] = result(s.kv.Ping(ctx))
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if checks["datasets"] == CheckError {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
