package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/medagent/internal/domain"
	healthuc "github.com/kailas-cloud/medagent/internal/usecase/health"
	usageuc "github.com/kailas-cloud/medagent/internal/usecase/usage"
)

// maxRequestBody bounds the ask request body.
const maxRequestBody = 64 << 10

// ErrorCode is the machine-readable error kind in error responses.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest           ErrorCode = "bad_request"
	CodeValidationFailed     ErrorCode = "validation_failed"
	CodeUnauthorized         ErrorCode = "unauthorized"
	CodeUnknownDomain        ErrorCode = "unknown_domain"
	CodeDatasetNotConfigured ErrorCode = "dataset_not_configured"
	CodeExecutionFailed      ErrorCode = "execution_failed"
	CodeInternalError        ErrorCode = "internal_error"
)

// Orchestrator answers questions and describes datasets.
type Orchestrator interface {
	Answer(ctx context.Context, question string) domain.Answer
	Schema(ctx context.Context, d domain.Domain) (domain.Schema, error)
	Domains() []domain.Domain
}

// UsageReporter builds token usage reports.
type UsageReporter interface {
	GetReport(ctx context.Context, period usageuc.Period) usageuc.Report
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP API over chi.
type Server struct {
	orchestrator  Orchestrator
	usage         UsageReporter
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(orchestrator Orchestrator, usage UsageReporter, health HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		orchestrator: orchestrator,
		usage:        usage,
		health:       health,
		logger:       logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrUnknownDomain, http.StatusNotFound, CodeUnknownDomain),
		sentinelHandler(domain.ErrDatasetNotConfigured, http.StatusNotFound, CodeDatasetNotConfigured),
		sentinelHandler(domain.ErrExecution, http.StatusBadGateway, CodeExecutionFailed),
	}
	return s
}

// Register mounts the API routes on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/ask", s.Ask)
		r.Get("/datasets", s.ListDatasets)
		r.Get("/datasets/{domain}/schema", s.GetSchema)
		r.Get("/usage", s.GetUsage)
	})
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer string `json:"answer"`
	Path   string `json:"path"`
	Domain string `json:"domain,omitempty"`
	Failed bool   `json:"failed"`
}

// Ask handles POST /v1/ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "question is required")
		return
	}

	answer := s.orchestrator.Answer(r.Context(), question)

	resp := askResponse{
		Answer: answer.Text,
		Path:   string(answer.Decision.Path),
		Failed: answer.Failed(),
	}
	if answer.Decision.Domain.Known() {
		resp.Domain = answer.Decision.Domain.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

type datasetsResponse struct {
	Domains []string `json:"domains"`
}

// ListDatasets handles GET /v1/datasets.
func (s *Server) ListDatasets(w http.ResponseWriter, _ *http.Request) {
	ds := s.orchestrator.Domains()
	resp := datasetsResponse{Domains: make([]string, len(ds))}
	for i, d := range ds {
		resp.Domains[i] = d.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetSchema handles GET /v1/datasets/{domain}/schema.
func (s *Server) GetSchema(w http.ResponseWriter, r *http.Request) {
	d, err := domain.ParseDomain(chi.URLParam(r, "domain"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	schema, err := s.orchestrator.Schema(r.Context(), d)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schema)
}

type usageResponse struct {
	Period        string     `json:"period"`
	PeriodStartAt *time.Time `json:"period_start_at,omitempty"`
	PeriodEndAt   *time.Time `json:"period_end_at,omitempty"`
	Tokens        int64      `json:"tokens"`
	Budget        struct {
		TokensLimit     int64 `json:"tokens_limit"`
		TokensRemaining int64 `json:"tokens_remaining"`
		IsExhausted     bool  `json:"is_exhausted"`
	} `json:"budget"`
}

// GetUsage handles GET /v1/usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	period, err := usageuc.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	report := s.usage.GetReport(r.Context(), period)

	resp := usageResponse{Period: string(report.Period), Tokens: report.TokensUsed}
	resp.Budget.TokensLimit = report.Limit
	resp.Budget.TokensRemaining = report.Remaining
	resp.Budget.IsExhausted = report.Exhausted
	if report.PeriodStart > 0 {
		start := time.UnixMilli(report.PeriodStart).UTC()
		end := time.UnixMilli(report.PeriodEnd).UTC()
		resp.PeriodStartAt = &start
		resp.PeriodEndAt = &end
	}

	writeJSON(w, http.StatusOK, resp)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	// degraded still serves traffic; only a dataset failure takes the instance out
	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

type errorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrUnknownDomain,
		domain.ErrDatasetNotConfigured,
		domain.ErrExecution,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
