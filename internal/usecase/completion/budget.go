package completion

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/medagent/internal/domain"
)

// BudgetAction defines behavior when token budget is exceeded.
type BudgetAction string

const (
	// BudgetActionWarn logs a warning but allows the request.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject blocks the request.
	BudgetActionReject BudgetAction = "reject"
)

// BudgetStore shares token counters between instances.
type BudgetStore interface {
	Load(ctx context.Context, provider string, w domain.BudgetWindow, at time.Time) (int64, error)
	Add(ctx context.Context, provider string, w domain.BudgetWindow, at time.Time, tokens int64) error
}

// allowance is the running spend of one budget window.
type allowance struct {
	window domain.BudgetWindow
	limit  int64 // 0 = unlimited
	used   int64
	start  time.Time
}

// roll starts a fresh count once now has left the current window.
func (a *allowance) roll(now time.Time) {
	if s := a.window.Start(now); s.After(a.start) {
		a.used = 0
		a.start = s
	}
}

func (a *allowance) spent() bool { return a.limit > 0 && a.used >= a.limit }

// remaining is -1 when the window is unlimited.
func (a *allowance) remaining() int64 {
	switch {
	case a.limit == 0:
		return -1
	case a.used >= a.limit:
		return 0
	default:
		return a.limit - a.used
	}
}

// BudgetTracker caps the tokens spent on completion calls per day and month.
// Check reads memory only; Record updates memory and then writes through to the store.
type BudgetTracker struct {
	mu       sync.Mutex
	day      allowance
	month    allowance
	action   BudgetAction
	provider string
	store    BudgetStore
	logger   *zap.Logger
	now      func() time.Time
}

// NewBudgetTracker creates a budget tracker with the given limits. Zero limits are unlimited.
func NewBudgetTracker(
	provider string, dailyLimit, monthlyLimit int64,
	action BudgetAction, logger *zap.Logger,
) *BudgetTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &BudgetTracker{
		day:      allowance{window: domain.WindowDaily, limit: dailyLimit},
		month:    allowance{window: domain.WindowMonthly, limit: monthlyLimit},
		action:   action,
		provider: provider,
		logger:   logger,
		now:      time.Now,
	}
	b.roll()
	return b
}

// WithStore attaches a shared store and seeds both windows from it.
// A window that fails to load starts from zero.
func (b *BudgetTracker) WithStore(ctx context.Context, store BudgetStore) *BudgetTracker {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.store = store
	now := b.roll()
	for _, a := range b.allowances() {
		used, err := store.Load(ctx, b.provider, a.window, now)
		if err != nil {
			b.logger.Warn("Failed to load budget window", zap.String("window", string(a.window)), zap.Error(err))
			continue
		}
		a.used = used
	}

	b.logger.Info("Budget loaded from store",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.day.used),
		zap.Int64("monthly_used", b.month.used),
	)
	return b
}

// Check verifies the budget allows a new request.
func (b *BudgetTracker) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.roll()
	for _, a := range b.allowances() {
		if !a.spent() {
			continue
		}
		if b.action == BudgetActionReject {
			return fmt.Errorf("%s budget of %d tokens spent: %w", a.window, a.limit, domain.ErrCompletionQuotaExceeded)
		}
		b.logger.Warn("Completion token budget exceeded",
			zap.String("provider", b.provider),
			zap.String("window", string(a.window)),
			zap.Int64("used", a.used),
			zap.Int64("limit", a.limit),
		)
		return nil
	}
	return nil
}

// Record adds consumed tokens to both windows.
func (b *BudgetTracker) Record(tokens int64) {
	b.mu.Lock()
	now := b.roll()
	b.day.used += tokens
	b.month.used += tokens
	store := b.store
	b.mu.Unlock()

	if store == nil {
		return
	}

	// Not tied to the request context: a finished answer still gets counted.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for _, w := range []domain.BudgetWindow{domain.WindowDaily, domain.WindowMonthly} {
		if err := store.Add(ctx, b.provider, w, now, tokens); err != nil {
			b.logger.Warn("Failed to persist budget", zap.String("window", string(w)), zap.Error(err))
		}
	}
}

// RemainingDaily returns tokens left in the daily budget (-1 if unlimited).
func (b *BudgetTracker) RemainingDaily() int64 { return b.Snapshot().DailyRemaining }

// RemainingMonthly returns tokens left in the monthly budget (-1 if unlimited).
func (b *BudgetTracker) RemainingMonthly() int64 { return b.Snapshot().MonthlyRemaining }

// DailyLimit returns the daily token cap.
func (b *BudgetTracker) DailyLimit() int64 { return b.day.limit }

// MonthlyLimit returns the monthly token cap.
func (b *BudgetTracker) MonthlyLimit() int64 { return b.month.limit }

// DailyUsed returns tokens consumed today.
func (b *BudgetTracker) DailyUsed() int64 { return b.Snapshot().DailyUsed }

// MonthlyUsed returns tokens consumed this month.
func (b *BudgetTracker) MonthlyUsed() int64 { return b.Snapshot().MonthlyUsed }

// Usage is a point-in-time view of the budget.
// Remaining values are -1 when the period is unlimited.
type Usage struct {
	Provider         string
	DailyLimit       int64
	DailyUsed        int64
	DailyRemaining   int64
	MonthlyLimit     int64
	MonthlyUsed      int64
	MonthlyRemaining int64
}

// DailyExhausted reports whether a daily cap is set and spent.
func (u Usage) DailyExhausted() bool { return u.DailyLimit > 0 && u.DailyRemaining <= 0 }

// MonthlyExhausted reports whether a monthly cap is set and spent.
func (u Usage) MonthlyExhausted() bool { return u.MonthlyLimit > 0 && u.MonthlyRemaining <= 0 }

// Snapshot returns all counters under a single lock.
func (b *BudgetTracker) Snapshot() Usage {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.roll()
	return Usage{
		Provider:         b.provider,
		DailyLimit:       b.day.limit,
		DailyUsed:        b.day.used,
		DailyRemaining:   b.day.remaining(),
		MonthlyLimit:     b.month.limit,
		MonthlyUsed:      b.month.used,
		MonthlyRemaining: b.month.remaining(),
	}
}

// roll advances both windows to the current time and returns it. Callers hold mu.
func (b *BudgetTracker) roll() time.Time {
	now := b.now().UTC()
	b.day.roll(now)
	b.month.roll(now)
	return now
}

func (b *BudgetTracker) allowances() []*allowance {
	return []*allowance{&b.day, &b.month}
}
