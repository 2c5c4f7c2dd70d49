// Package bills implements the recurring-obligation resolution engine: it
// projects fixed bills, installment plans, and open debts onto a calendar
// month, applies user actions as pure record transformations, and folds the
// projected month into summary totals.
//
// Everything here is a pure function over in-memory records. The target month
// and the wall clock are explicit parameters; there is no ambient state.
package bills

import (
	"time"

	"contas/internal/core"
)

// Projection is the resolved view of one obligation for one calendar month.
type Projection struct {
	// Visible reports whether the obligation has an occurrence in the month.
	Visible bool
	// OccurrenceIndex is the 1-based installment number for INSTALLMENT
	// records; zero for other kinds.
	OccurrenceIndex int
	// PaidThisMonth is true when a payment event was recorded in the month
	// (for DEBT: when the debt is settled).
	PaidThisMonth bool
}

// Project resolves an obligation against a target (year, month). Months are
// 1-12.
func Project(o core.Obligation, year, month int) Projection {
	switch o.Kind {
	case core.KindDebt:
		return projectDebt(o, year, month)
	case core.KindInstallment:
		return projectInstallment(o, year, month)
	default:
		return projectFixed(o, year, month)
	}
}

// projectDebt keeps a debt visible from its start date through the month it
// was settled in, then hides it. Exclusion tokens do not apply: a debt has no
// monthly cycle to skip.
func projectDebt(o core.Obligation, year, month int) Projection {
	if !o.StartDate.IsZero() && o.StartDate.After(core.MonthEnd(year, month)) {
		return Projection{}
	}
	if o.IsSettled && !o.SettledDate.IsZero() && o.SettledDate.Before(core.MonthStart(year, month)) {
		return Projection{}
	}
	return Projection{Visible: true, PaidThisMonth: o.IsSettled}
}

func projectFixed(o core.Obligation, year, month int) Projection {
	// Exclusions short-circuit everything else.
	if o.ExcludedIn(year, month) {
		return Projection{}
	}
	if !o.EndDate.IsZero() {
		endIdx := core.MonthIndex(o.EndDate.Year(), int(o.EndDate.Month()))
		if core.MonthIndex(year, month) > endIdx {
			return Projection{}
		}
	}
	if !o.StartDate.IsZero() && o.StartDate.After(core.MonthEnd(year, month)) {
		return Projection{}
	}
	return Projection{Visible: true, PaidThisMonth: o.PaidInMonth(year, month)}
}

func projectInstallment(o core.Obligation, year, month int) Projection {
	if o.ExcludedIn(year, month) {
		return Projection{}
	}
	idx := OccurrenceIndex(o, year, month)
	if idx < 1 || idx > o.TotalInstallments {
		return Projection{}
	}
	return Projection{
		Visible:         true,
		OccurrenceIndex: idx,
		PaidThisMonth:   o.PaidInMonth(year, month),
	}
}

// OccurrenceIndex returns the 1-based installment number an INSTALLMENT
// obligation would show in the given month. The first month of StartDate is
// index 1; the index may fall outside [1, TotalInstallments] for months the
// plan does not cover.
func OccurrenceIndex(o core.Obligation, year, month int) int {
	return core.MonthIndex(year, month) - core.MonthIndex(o.StartDate.Year(), int(o.StartDate.Month())) + 1
}

// DeriveStatus derives the display status of a projected occurrence. The
// current time is an explicit parameter so past, current, and future months
// resolve deterministically:
//
//   - PAID when a payment event exists in the month,
//   - OVERDUE when the month is past, or is the current month and the clamped
//     due day has gone by,
//   - PENDING otherwise.
//
// For DEBT the status is PAID once settled, PENDING before that; a debt has
// no due date to be overdue against.
func DeriveStatus(o core.Obligation, p Projection, year, month int, now time.Time) core.Status {
	if p.PaidThisMonth {
		return core.StatusPaid
	}
	if o.Kind == core.KindDebt {
		return core.StatusPending
	}
	if overdue(o, year, month, now) {
		return core.StatusOverdue
	}
	return core.StatusPending
}

func overdue(o core.Obligation, year, month int, now time.Time) bool {
	nowIdx := core.MonthIndex(now.Year(), int(now.Month()))
	queryIdx := core.MonthIndex(year, month)
	if queryIdx < nowIdx {
		return true
	}
	if queryIdx == nowIdx {
		return core.ClampDay(o.DueDay, year, month) < now.Day()
	}
	return false
}
