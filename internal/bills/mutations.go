package bills

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"contas/internal/core"
)

// Mutation operations are pure transforms from (current record, parameters) to
// (new record, ledger requests). Callers persist the returned record and hand
// the requests to the ledger collaborator; nothing here touches storage.

// CreateParams carries the fields of a new obligation. Amount is the
// per-occurrence value unless AmountIsTotal is set, in which case it is the
// plan total and gets divided by TotalInstallments.
type CreateParams struct {
	Kind              core.ObligationKind
	Description       string
	Category          string
	SubCategory       string
	Amount            core.Money
	AmountIsTotal     bool
	DueDay            int
	StartDate         time.Time
	EndDate           time.Time
	TotalInstallments int
	AutoPay           bool
}

// Create validates the parameters for the chosen kind and builds the record.
// Invalid requests are rejected before a record exists.
func Create(p CreateParams) (core.Obligation, error) {
	amount := p.Amount
	if p.Kind == core.KindInstallment && p.AmountIsTotal && p.TotalInstallments > 0 {
		amount = core.Money{Cents: p.Amount.Cents / int64(p.TotalInstallments)}
	}

	o := core.Obligation{
		ID:                uuid.NewString(),
		Kind:              p.Kind,
		Description:       p.Description,
		Category:          p.Category,
		SubCategory:       p.SubCategory,
		Amount:            amount,
		DueDay:            p.DueDay,
		StartDate:         p.StartDate,
		EndDate:           p.EndDate,
		TotalInstallments: p.TotalInstallments,
		AutoPay:           p.AutoPay,
	}
	if p.Kind == core.KindDebt {
		o.CurrentBalance = amount
	}
	if err := o.Validate(); err != nil {
		return core.Obligation{}, err
	}
	return o, nil
}

// PayParams identifies the month being paid and how the money left.
type PayParams struct {
	Year   int
	Month  int
	Amount core.Money
	Bank   string
	Method string
	Now    time.Time
}

// Pay records a payment for one monthly occurrence. It fails with
// ErrAlreadyPaid when a payment event already exists in the target month;
// double payment is a hard precondition, not a UI guard.
//
// The history entry is stamped at (year, month, min(dueDay, 28), noon) so it
// lands unambiguously inside the paid month regardless of month length.
func Pay(o core.Obligation, p PayParams) (core.Obligation, core.LedgerRequest, error) {
	if !o.IsMonthly() {
		return o, core.LedgerRequest{}, core.ErrNotMonthly
	}
	if o.PaidInMonth(p.Year, p.Month) {
		return o, core.LedgerRequest{}, core.ErrAlreadyPaid
	}

	amount := p.Amount
	if amount.Cents == 0 {
		amount = o.Amount
	}
	if err := amount.Validate(); err != nil {
		return o, core.LedgerRequest{}, err
	}

	suffix := " (bill)"
	if o.Kind == core.KindInstallment {
		suffix = " (installment)"
	}
	req := ledgerRequest(o, o.Description+suffix, amount, p.Now, p.Bank, p.Method)

	day := o.DueDay
	if day > 28 {
		day = 28
	}
	o.PaymentHistory = append(o.PaymentHistory, core.NewDate(p.Year, p.Month, day))
	o.LastPaidDate = p.Now
	if o.Kind == core.KindInstallment {
		o.CurrentInstallment++
	}
	return o, req, nil
}

// SettleParams configures an early payoff of an installment plan. Total is
// caller-editable; zero means remaining × per-installment amount.
type SettleParams struct {
	Year   int
	Month  int
	Total  core.Money
	Bank   string
	Method string
	Now    time.Time
}

// SettleRemaining marks every installment from the target month onward as
// paid in a single action, producing one ledger request for the payoff total.
// One synthetic payment event per remaining month is appended, each on day 1,
// so the calendar-month matching contract covers all of them.
func SettleRemaining(o core.Obligation, p SettleParams) (core.Obligation, core.LedgerRequest, error) {
	if o.Kind != core.KindInstallment || o.TotalInstallments < 1 {
		return o, core.LedgerRequest{}, core.ErrNotInstallment
	}

	remaining := o.TotalInstallments - OccurrenceIndex(o, p.Year, p.Month) + 1
	if remaining <= 0 {
		return o, core.LedgerRequest{}, core.ErrNothingToSettle
	}

	total := p.Total
	if total.Cents == 0 {
		total = core.Money{Cents: int64(remaining) * o.Amount.Cents}
	}
	if err := total.Validate(); err != nil {
		return o, core.LedgerRequest{}, err
	}

	desc := fmt.Sprintf("Payoff %s (%d installments left)", o.Description, remaining)
	req := ledgerRequest(o, desc, total, p.Now, p.Bank, p.Method)

	year, month := p.Year, p.Month
	for i := 0; i < remaining; i++ {
		o.PaymentHistory = append(o.PaymentHistory, core.NewDate(year, month, 1))
		year, month = core.NextMonth(year, month)
	}
	o.LastPaidDate = p.Now
	return o, req, nil
}

// AbateParams carries one debt paydown.
type AbateParams struct {
	Amount core.Money
	Bank   string
	Method string
	Now    time.Time
}

// AbateDebt reduces a debt's balance by the paid amount, clamped at zero.
// Overpayment is absorbed, not credited. Once the balance falls within the
// settlement epsilon the record is marked settled and stamped with the
// paydown time; further paydowns fail with ErrAlreadySettled.
func AbateDebt(o core.Obligation, p AbateParams) (core.Obligation, core.LedgerRequest, error) {
	if o.Kind != core.KindDebt {
		return o, core.LedgerRequest{}, core.ErrNotDebt
	}
	if o.IsSettled {
		return o, core.LedgerRequest{}, core.ErrAlreadySettled
	}
	if err := p.Amount.Validate(); err != nil {
		return o, core.LedgerRequest{}, err
	}

	desc := fmt.Sprintf("Paydown %s", o.Description)
	req := ledgerRequest(o, desc, p.Amount, p.Now, p.Bank, p.Method)

	balance := o.EffectiveBalance().Cents - p.Amount.Cents
	if balance < 0 {
		balance = 0
	}
	o.CurrentBalance = core.Money{Cents: balance}
	if core.Settleable(o.CurrentBalance) {
		o.IsSettled = true
		o.SettledDate = p.Now
	}
	o.LastPaidDate = p.Now
	return o, req, nil
}

// DeferToNextMonth moves an obligation's current-month occurrence forward
// without touching history: the origin record gets an exclusion token for the
// month, and a fresh single-month copy is created for the following month.
// For FIXED the copy is scoped by EndDate to exactly one month; for
// INSTALLMENT it becomes a one-installment plan.
func DeferToNextMonth(o core.Obligation, year, month int) (origin, copy core.Obligation, err error) {
	if !o.IsMonthly() {
		return o, core.Obligation{}, core.ErrNotMonthly
	}

	origin = o
	token := core.MonthToken(year, month)
	if !origin.ExcludedIn(year, month) {
		origin.Exclusions = append(origin.Exclusions, token)
	}

	nextYear, nextMonth := core.NextMonth(year, month)
	copy = core.Obligation{
		ID:          uuid.NewString(),
		Kind:        o.Kind,
		Description: fmt.Sprintf("%s (deferred from %s %d)", o.Description, time.Month(month), year),
		Category:    o.Category,
		SubCategory: o.SubCategory,
		Amount:      o.Amount,
		DueDay:      o.DueDay,
		StartDate:   core.NewDate(nextYear, nextMonth, 1),
	}
	switch o.Kind {
	case core.KindFixed:
		copy.EndDate = core.MonthEnd(nextYear, nextMonth)
	case core.KindInstallment:
		copy.TotalInstallments = 1
	}
	return origin, copy, nil
}

// ExcludeOccurrence deletes a single month's occurrence by appending an
// exclusion token. There is no inverse operation; the token stays for the
// life of the record. Debts have no monthly cycle and only support full
// deletion.
func ExcludeOccurrence(o core.Obligation, year, month int) (core.Obligation, error) {
	if !o.IsMonthly() {
		return o, core.ErrNotMonthly
	}
	if !o.ExcludedIn(year, month) {
		o.Exclusions = append(o.Exclusions, core.MonthToken(year, month))
	}
	return o, nil
}

func ledgerRequest(o core.Obligation, description string, amount core.Money, now time.Time, bank, method string) core.LedgerRequest {
	return core.LedgerRequest{
		ID:            uuid.NewString(),
		Description:   description,
		Amount:        amount,
		Date:          now,
		Type:          core.TransactionExpense,
		Category:      o.Category,
		SubCategory:   o.SubCategory,
		Bank:          bank,
		PaymentMethod: method,
	}
}
