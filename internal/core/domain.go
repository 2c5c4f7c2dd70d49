package core

import (
	"errors"
	"strings"
	"time"
)

// ObligationKind selects the recurrence shape of an obligation.
type ObligationKind string

const (
	// KindFixed recurs every month, indefinitely or until EndDate.
	KindFixed ObligationKind = "FIXED"
	// KindInstallment runs for TotalInstallments consecutive months from StartDate.
	KindInstallment ObligationKind = "INSTALLMENT"
	// KindDebt is an open-ended balance reduced by arbitrary paydowns.
	KindDebt ObligationKind = "DEBT"
)

// Status is the display state of one monthly occurrence.
type Status string

const (
	StatusPaid    Status = "PAID"
	StatusPending Status = "PENDING"
	StatusOverdue Status = "OVERDUE"
)

// TransactionType classifies ledger entries.
type TransactionType string

const (
	TransactionIncome  TransactionType = "INCOME"
	TransactionExpense TransactionType = "EXPENSE"
)

// A debt whose balance falls to one cent or below counts as settled.
const settleEpsilonCents = 1

type (
	// Obligation is one tracked payable: a fixed monthly bill, an installment
	// plan, or an open debt. It is created once and mutated in place for its
	// whole life; months are projected from it, never materialized as rows.
	Obligation struct {
		ID          string
		Kind        ObligationKind
		Description string
		Category    string
		SubCategory string

		// Amount is the nominal per-occurrence value: the monthly amount for
		// FIXED, the per-installment value for INSTALLMENT, and the original
		// principal for DEBT.
		Amount Money

		// DueDay is the day of month (1-31) the occurrence is due. Advisory
		// only for DEBT.
		DueDay int

		StartDate time.Time // zero = unset (optional for FIXED)
		EndDate   time.Time // zero = unset; a FIXED bill stops after its month

		TotalInstallments int
		// CurrentInstallment is a legacy counter bumped on payment. The
		// projector derives the occurrence index from StartDate instead.
		CurrentInstallment int

		// PaymentHistory holds one timestamp per recorded payment event.
		// Paid-this-month is decided by matching an entry's calendar month
		// against the queried month, not by counting entries.
		PaymentHistory []time.Time

		// Exclusions holds month tokens (see MonthToken) for months in which
		// this record must not project an occurrence. Append-only.
		Exclusions []string

		// Debt-only fields.
		CurrentBalance Money
		IsSettled      bool
		SettledDate    time.Time

		LastPaidDate time.Time
		AutoPay      bool
	}

	// LedgerRequest is a transaction this core asks the ledger collaborator to
	// record. The core produces these; it never persists them itself.
	LedgerRequest struct {
		ID            string
		Description   string
		Amount        Money
		Date          time.Time
		Type          TransactionType
		Category      string
		SubCategory   string
		Bank          string
		PaymentMethod string
	}
)

var (
	ErrEmptyDescription    = errors.New("empty description")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidDueDay       = errors.New("invalid due day")
	ErrMissingStartDate    = errors.New("missing start date")
	ErrMissingInstallments = errors.New("missing installment count")
	ErrUnknownKind         = errors.New("unknown obligation kind")

	// Precondition violations on mutation operations.
	ErrAlreadyPaid     = errors.New("already paid this month")
	ErrNothingToSettle = errors.New("no installments left to settle")
	ErrAlreadySettled  = errors.New("debt already settled")
	ErrNotMonthly      = errors.New("operation requires a fixed or installment obligation")
	ErrNotInstallment  = errors.New("operation requires an installment obligation")
	ErrNotDebt         = errors.New("operation requires a debt obligation")

	ErrNotFound = errors.New("obligation not found")
)

// Validate checks the kind-specific required fields. It runs at creation time;
// records failing it are rejected before they are ever persisted.
func (o Obligation) Validate() error {
	if len(strings.TrimSpace(o.Description)) == 0 {
		return ErrEmptyDescription
	}
	if err := o.Amount.Validate(); err != nil {
		return err
	}
	if o.DueDay < 1 || o.DueDay > 31 {
		return ErrInvalidDueDay
	}
	switch o.Kind {
	case KindFixed:
		// StartDate optional for fixed bills.
	case KindInstallment:
		if o.StartDate.IsZero() {
			return ErrMissingStartDate
		}
		if o.TotalInstallments < 1 {
			return ErrMissingInstallments
		}
	case KindDebt:
		if o.StartDate.IsZero() {
			return ErrMissingStartDate
		}
	default:
		return ErrUnknownKind
	}
	return nil
}

// IsMonthly reports whether the obligation projects monthly occurrences.
func (o Obligation) IsMonthly() bool {
	return o.Kind == KindFixed || o.Kind == KindInstallment
}

// EffectiveBalance returns the remaining principal of a DEBT record. A record
// with a zero balance that was never settled is treated as untouched, so the
// original principal is used (safe default for legacy rows).
func (o Obligation) EffectiveBalance() Money {
	if o.Kind != KindDebt {
		return Money{}
	}
	if o.CurrentBalance.Cents == 0 && !o.IsSettled {
		return o.Amount
	}
	return o.CurrentBalance
}

// Settleable reports whether a balance is within the settlement epsilon.
func Settleable(balance Money) bool {
	return balance.Cents <= settleEpsilonCents
}

// PaidInMonth reports whether any payment event falls in the given calendar
// month. This is the paid-status contract: history entries are matched by the
// month they were recorded in, not linked to a specific occurrence.
func (o Obligation) PaidInMonth(year, month int) bool {
	for _, t := range o.PaymentHistory {
		if t.Year() == year && int(t.Month()) == month {
			return true
		}
	}
	return false
}

// ExcludedIn reports whether the record carries an exclusion token for the
// given month.
func (o Obligation) ExcludedIn(year, month int) bool {
	token := MonthToken(year, month)
	for _, e := range o.Exclusions {
		if e == token {
			return true
		}
	}
	return false
}
