package domain

import "time"

// BudgetWindow is an accounting period of the completion token budget.
type BudgetWindow string

// Budget windows. Both roll over at UTC midnight.
const (
	WindowDaily   BudgetWindow = "daily"
	WindowMonthly BudgetWindow = "monthly"
)

// Start returns the UTC start of the window that contains t.
func (w BudgetWindow) Start(t time.Time) time.Time {
	t = t.UTC()
	if w == WindowMonthly {
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// End returns the UTC start of the window after the one that contains t.
func (w BudgetWindow) End(t time.Time) time.Time {
	if w == WindowMonthly {
		return w.Start(t).AddDate(0, 1, 0)
	}
	return w.Start(t).AddDate(0, 0, 1)
}

// Label names the window that contains t: 2026-10-18 for daily, 2026-10 for monthly.
func (w BudgetWindow) Label(t time.Time) string {
	if w == WindowMonthly {
		return t.UTC().Format("2006-01")
	}
	return t.UTC().Format("2006-01-02")
}
