package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/medagent/internal/domain"
)

// Period selects the reporting window.
type Period string

// Reporting periods.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
	PeriodTotal Period = "total"
)

// ParsePeriod validates a period name. Empty means day.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case "":
		return PeriodDay, nil
	case PeriodDay, PeriodMonth, PeriodTotal:
		return p, nil
	default:
		return "", fmt.Errorf("invalid period %q: expected day, month or total", s)
	}
}

// Report is the token usage of language-model calls over a period.
// Limit is 0 and Remaining is -1 when the period is unlimited.
type Report struct {
	Period      Period
	PeriodStart int64 // unix millis, 0 for total
	PeriodEnd   int64 // unix millis, 0 for total
	TokensUsed  int64
	Limit       int64
	Remaining   int64
	Exhausted   bool
}

// Service handles usage reporting.
type Service struct {
	br BudgetReader
}

// New creates a Service. br can be nil (unlimited mode).
func New(br BudgetReader) *Service {
	return &Service{br: br}
}

// GetReport builds a usage report for the given period.
func (s *Service) GetReport(_ context.Context, period Period) Report {
	now := time.Now().UTC()
	r := Report{Period: period, Remaining: -1}

	switch period {
	case PeriodDay:
		r.PeriodStart = domain.WindowDaily.Start(now).UnixMilli()
		r.PeriodEnd = domain.WindowDaily.End(now).UnixMilli()
		if s.br != nil {
			r.Limit, r.TokensUsed, r.Remaining = s.br.DailyLimit(), s.br.DailyUsed(), s.br.RemainingDaily()
		}
	case PeriodMonth:
		r.PeriodStart = domain.WindowMonthly.Start(now).UnixMilli()
		r.PeriodEnd = domain.WindowMonthly.End(now).UnixMilli()
		if s.br != nil {
			r.Limit, r.TokensUsed, r.Remaining = s.br.MonthlyLimit(), s.br.MonthlyUsed(), s.br.RemainingMonthly()
		}
	default:
		// total: no period boundaries, reported against the monthly cap
		if s.br != nil {
			r.Limit, r.TokensUsed, r.Remaining = s.br.MonthlyLimit(), s.br.MonthlyUsed(), s.br.RemainingMonthly()
		}
	}

	r.Exhausted = r.Limit > 0 && r.Remaining <= 0
	return r
}
