package medagent

import (
	"context"
	"time"

	usageuc "github.com/kailas-cloud/medagent/internal/usecase/usage"
)

// UsagePeriod is the aggregation granularity for usage reports.
type UsagePeriod string

// UsagePeriod constants.
const (
	PeriodDay   UsagePeriod = "day"
	PeriodMonth UsagePeriod = "month"
	PeriodTotal UsagePeriod = "total"
)

// UsageReport contains language-model token usage for a time period.
// Limit is 0 and Remaining is -1 when the period is unlimited.
type UsageReport struct {
	Period      UsagePeriod
	PeriodStart time.Time // zero for total
	PeriodEnd   time.Time // zero for total
	TokensUsed  int64
	Limit       int64
	Remaining   int64
	Exhausted   bool
}

// Usage returns a token usage report for the given period.
// Observer always records success: the underlying use-case is in-memory
// and does not produce errors.
func (c *Client) Usage(ctx context.Context, period UsagePeriod) UsageReport {
	start := time.Now()
	defer func() { c.obs.observe("usage", start, nil) }()

	r := c.usageSvc.GetReport(ctx, usageuc.Period(period))
	out := UsageReport{
		Period:     UsagePeriod(r.Period),
		TokensUsed: r.TokensUsed,
		Limit:      r.Limit,
		Remaining:  r.Remaining,
		Exhausted:  r.Exhausted,
	}
	if r.PeriodStart != 0 {
		out.PeriodStart = time.UnixMilli(r.PeriodStart).UTC()
	}
	if r.PeriodEnd != 0 {
		out.PeriodEnd = time.UnixMilli(r.PeriodEnd).UTC()
	}
	return out
}

// usageUseCase is the internal interface for usage reports.
type usageUseCase interface {
	GetReport(ctx context.Context, period usageuc.Period) usageuc.Report
}
