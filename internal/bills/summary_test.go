package bills

import (
	"testing"
	"time"

	"contas/internal/core"
)

func TestSummarizeAdditivity(t *testing.T) {
	now := core.NewDate(2024, 5, 20)

	rent := fixedBill() // 1200.00, due day 10
	paidRent := rent
	paidRent.ID = "f2"
	paidRent.PaymentHistory = []time.Time{core.NewDate(2024, 5, 10)}

	plan := installmentPlan() // 300.00/month Jan-Mar 2024, invisible in May
	mayPlan := installmentPlan()
	mayPlan.ID = "i2"
	mayPlan.StartDate = core.NewDate(2024, 4, 1)
	mayPlan.TotalInstallments = 6

	debt := core.Obligation{
		ID:        "d1",
		Kind:      core.KindDebt,
		Amount:    core.Money{Cents: 999999},
		StartDate: core.NewDate(2023, 1, 1),
	}

	obs := []core.Obligation{rent, paidRent, plan, mayPlan, debt}
	s := Summarize(obs, 2024, 5, now)

	// rent + paidRent + mayPlan participate; plan ended in March, debt excluded.
	wantTotal := int64(120000 + 120000 + 30000)
	if s.TotalAmount.Cents != wantTotal {
		t.Fatalf("TotalAmount = %d, want %d", s.TotalAmount.Cents, wantTotal)
	}
	if s.PaidAmount.Cents != 120000 {
		t.Fatalf("PaidAmount = %d, want 120000", s.PaidAmount.Cents)
	}
	if s.TotalAmount.Cents != s.PaidAmount.Cents+s.PendingAmount.Cents {
		t.Fatalf("totals must be exactly additive: %d != %d + %d",
			s.TotalAmount.Cents, s.PaidAmount.Cents, s.PendingAmount.Cents)
	}
	// On May 20th the unpaid rent (due day 10) is overdue; mayPlan (due day 5) too.
	if s.OverdueCount != 2 {
		t.Fatalf("OverdueCount = %d, want 2", s.OverdueCount)
	}
}

func TestSummarizeEmptyMonth(t *testing.T) {
	s := Summarize(nil, 2024, 5, core.NewDate(2024, 5, 1))
	if s.TotalAmount.Cents != 0 || s.PaidAmount.Cents != 0 || s.PendingAmount.Cents != 0 || s.OverdueCount != 0 {
		t.Fatalf("empty collection should summarize to zero, got %+v", s)
	}
}

func TestProjectAllKeepsDebtEntries(t *testing.T) {
	debt := core.Obligation{
		ID:        "d1",
		Kind:      core.KindDebt,
		Amount:    core.Money{Cents: 50000},
		StartDate: core.NewDate(2023, 1, 1),
	}
	entries := ProjectAll([]core.Obligation{debt, fixedBill()}, 2024, 5, core.NewDate(2024, 5, 1))
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2 (debts stay in the month view)", len(entries))
	}
	if entries[0].Status != core.StatusPending {
		t.Fatalf("unsettled debt status = %v, want PENDING", entries[0].Status)
	}
}

func TestPayThenReprojectScenario(t *testing.T) {
	// Create an installment plan, query January, pay it, query again.
	o, err := Create(CreateParams{
		Kind:              core.KindInstallment,
		Description:       "TV",
		Amount:            core.Money{Cents: 30000},
		DueDay:            25,
		StartDate:         core.NewDate(2024, 1, 1),
		TotalInstallments: 10,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	now := core.NewDate(2024, 1, 10) // before the due day

	p := Project(o, 2024, 1)
	if !p.Visible || p.OccurrenceIndex != 1 {
		t.Fatalf("January projection = %+v", p)
	}
	if got := DeriveStatus(o, p, 2024, 1, now); got != core.StatusPending {
		t.Fatalf("status before payment = %v, want PENDING", got)
	}

	o, _, err = Pay(o, PayParams{Year: 2024, Month: 1, Bank: "Wallet", Method: "Pix", Now: now})
	if err != nil {
		t.Fatalf("Pay() error = %v", err)
	}

	p = Project(o, 2024, 1)
	if got := DeriveStatus(o, p, 2024, 1, now); got != core.StatusPaid {
		t.Fatalf("status after payment = %v, want PAID", got)
	}

	// February is untouched by January's payment.
	p = Project(o, 2024, 2)
	if !p.Visible || p.OccurrenceIndex != 2 || p.PaidThisMonth {
		t.Fatalf("February projection = %+v", p)
	}
}
