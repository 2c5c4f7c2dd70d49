package bills

import (
	"time"

	"contas/internal/core"
)

// Entry is one obligation resolved for the queried month.
type Entry struct {
	Obligation core.Obligation
	Projection Projection
	Status     core.Status
}

// Summary holds the monthly aggregate totals over fixed and installment
// obligations. Debts carry no monthly amount due and are excluded.
type Summary struct {
	TotalAmount   core.Money
	PaidAmount    core.Money
	PendingAmount core.Money
	OverdueCount  int
}

// ProjectAll resolves the whole collection against a month, keeping only the
// visible entries. Order follows the input collection.
func ProjectAll(obs []core.Obligation, year, month int, now time.Time) []Entry {
	entries := make([]Entry, 0, len(obs))
	for _, o := range obs {
		p := Project(o, year, month)
		if !p.Visible {
			continue
		}
		entries = append(entries, Entry{
			Obligation: o,
			Projection: p,
			Status:     DeriveStatus(o, p, year, month, now),
		})
	}
	return entries
}

// Summarize folds the projected month into totals. Amounts accumulate in
// integer cents, so TotalAmount always equals PaidAmount plus PendingAmount
// exactly.
func Summarize(obs []core.Obligation, year, month int, now time.Time) Summary {
	var s Summary
	for _, e := range ProjectAll(obs, year, month, now) {
		if !e.Obligation.IsMonthly() {
			continue
		}
		s.TotalAmount.Cents += e.Obligation.Amount.Cents
		if e.Projection.PaidThisMonth {
			s.PaidAmount.Cents += e.Obligation.Amount.Cents
		} else if e.Status == core.StatusOverdue {
			s.OverdueCount++
		}
	}
	s.PendingAmount.Cents = s.TotalAmount.Cents - s.PaidAmount.Cents
	return s
}
