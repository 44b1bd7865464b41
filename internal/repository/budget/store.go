package budget

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/medagent/internal/domain"
)

// counters is the part of the key-value store the budget needs.
type counters interface {
	Counter(ctx context.Context, key string) (int64, error)
	AddCounter(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
}

// Store keeps completion token counters in the shared key-value store so that
// every instance spends from the same budget. There is one key per provider and
// window, and it expires some time after its window closes.
type Store struct {
	kv         counters
	dailyTTL   time.Duration
	monthlyTTL time.Duration
}

// New creates a budget store. Daily keys live for dailyTTL (48h in production),
// monthly keys for monthlyTTL (62 days).
func New(kv counters, dailyTTL, monthlyTTL time.Duration) *Store {
	return &Store{kv: kv, dailyTTL: dailyTTL, monthlyTTL: monthlyTTL}
}

// Key names the counter of provider for the window that contains at,
// e.g. medagent:budget:openai:daily:2026-10-18.
func Key(provider string, w domain.BudgetWindow, at time.Time) string {
	return fmt.Sprintf("%sbudget:%s:%s:%s", domain.KeyPrefix, provider, w, w.Label(at))
}

// Load returns the tokens spent by provider in the window that contains at.
func (s *Store) Load(ctx context.Context, provider string, w domain.BudgetWindow, at time.Time) (int64, error) {
	key := Key(provider, w, at)
	n, err := s.kv.Counter(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("load budget %s: %w", key, err)
	}
	return n, nil
}

// Add records tokens spent by provider in the window that contains at.
func (s *Store) Add(ctx context.Context, provider string, w domain.BudgetWindow, at time.Time, tokens int64) error {
	key := Key(provider, w, at)
	if _, err := s.kv.AddCounter(ctx, key, tokens, s.ttl(w)); err != nil {
		return fmt.Errorf("add budget %s: %w", key, err)
	}
	return nil
}

func (s *Store) ttl(w domain.BudgetWindow) time.Duration {
	if w == domain.WindowDaily {
		return s.dailyTTL
	}
	return s.monthlyTTL
}
