package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/medagent/internal/domain"
	"github.com/kailas-cloud/medagent/internal/logger"
	"github.com/kailas-cloud/medagent/internal/metrics"
)

// ClarificationAnswer is returned for a data question that names no condition.
const ClarificationAnswer = "Please specify which medical condition (heart disease, cancer, or diabetes) you're asking about."

const errorAnswerPrefix = "Error processing query: "

// Service routes a question down exactly one path and produces one answer.
type Service struct {
	classifier Classifier
	tools      map[domain.Domain]DataTool
	synth      Synthesizer
	search     KnowledgeSearcher
	narrator   Narrator
	logger     *zap.Logger
}

// New creates an orchestrator. Each tool is registered under its own domain;
// a later tool for the same domain replaces an earlier one.
func New(
	classifier Classifier, tools []DataTool, synth Synthesizer,
	search KnowledgeSearcher, narrator Narrator, logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := make(map[domain.Domain]DataTool, len(tools))
	for _, t := range tools {
		registry[t.Domain()] = t
	}
	return &Service{
		classifier: classifier,
		tools:      registry,
		synth:      synth,
		search:     search,
		narrator:   narrator,
		logger:     logger,
	}
}

// Decide classifies a question without invoking any tool.
func (s *Service) Decide(question string) domain.Decision {
	if s.classifier.Classify(question) != domain.CategoryData {
		return domain.Knowledge()
	}
	return domain.StructuredData(s.classifier.ResolveDomain(question))
}

// Answer runs the full pipeline. It never returns an error: failures become
// a diagnostic answer with Err set.
func (s *Service) Answer(ctx context.Context, question string) (answer domain.Answer) {
	start := time.Now()
	log := logger.FromContextOr(ctx, s.logger).With(zap.String("question_id", uuid.NewString()))

	decision := s.Decide(question)
	answer.Decision = decision
	metrics.RouteDecisionsTotal.WithLabelValues(string(decision.Path), decision.Domain.String()).Inc()

	defer func() {
		if r := recover(); r != nil {
			answer.Err = fmt.Errorf("internal error: %v", r)
			answer.Text = errorAnswerPrefix + answer.Err.Error()
		}

		outcome := "answered"
		switch {
		case answer.Failed():
			outcome = "error"
		case decision.NeedsClarification():
			outcome = "clarification"
		}
		metrics.AnswersTotal.WithLabelValues(string(decision.Path), outcome).Inc()

		fields := []zap.Field{
			zap.String("path", string(decision.Path)),
			zap.String("domain", decision.Domain.String()),
			zap.String("outcome", outcome),
			zap.Duration("duration", time.Since(start)),
		}
		if answer.Failed() {
			log.Warn("Question failed", append(fields, zap.Error(answer.Err))...)
			return
		}
		log.Info("Question answered", fields...)
	}()

	if decision.NeedsClarification() {
		answer.Text = ClarificationAnswer
		return answer
	}

	var (
		text string
		err  error
	)
	if decision.Path == domain.PathStructured {
		text, err = s.answerFromData(ctx, log, question, decision.Domain)
	} else {
		text, err = s.answerFromKnowledge(ctx, question)
	}
	if err != nil {
		answer.Err = err
		answer.Text = errorAnswerPrefix + err.Error()
		return answer
	}

	answer.Text = text
	return answer
}

func (s *Service) answerFromData(ctx context.Context, log *zap.Logger, question string, d domain.Domain) (string, error) {
	tool, ok := s.tools[d]
	if !ok {
		return "", fmt.Errorf("%s: %w", d, domain.ErrDatasetNotConfigured)
	}

	query, err := s.synth.Synthesize(ctx, question, d, tool.Table())
	if err != nil {
		return "", err
	}
	log.Debug("Executing synthesized query", zap.String("domain", d.String()), zap.String("query", query))

	result, err := tool.Execute(ctx, query)
	if err != nil {
		return "", err
	}

	return s.narrator.Narrate(ctx, question, result)
}

func (s *Service) answerFromKnowledge(ctx context.Context, question string) (string, error) {
	return s.narrator.Narrate(ctx, question, s.search.Search(ctx, question))
}

// Schema describes the table behind a domain.
func (s *Service) Schema(ctx context.Context, d domain.Domain) (domain.Schema, error) {
	if !d.Known() {
		return domain.Schema{}, fmt.Errorf("%s: %w", d, domain.ErrUnknownDomain)
	}
	tool, ok := s.tools[d]
	if !ok {
		return domain.Schema{}, fmt.Errorf("%s: %w", d, domain.ErrDatasetNotConfigured)
	}
	return tool.Schema(ctx)
}

// Domains lists the domains with a registered data tool, in routing order.
func (s *Service) Domains() []domain.Domain {
	out := make([]domain.Domain, 0, len(s.tools))
	for _, d := range domain.Domains() {
		if _, ok := s.tools[d]; ok {
			out = append(out, d)
		}
	}
	return out
}
