package bills

import (
	"testing"
	"time"

	"contas/internal/core"
)

func fixedBill() core.Obligation {
	return core.Obligation{
		ID:          "f1",
		Kind:        core.KindFixed,
		Description: "Rent",
		Amount:      core.Money{Cents: 120000},
		DueDay:      10,
	}
}

func installmentPlan() core.Obligation {
	return core.Obligation{
		ID:                "i1",
		Kind:              core.KindInstallment,
		Description:       "Sofa",
		Amount:            core.Money{Cents: 30000},
		DueDay:            5,
		StartDate:         core.NewDate(2024, 1, 1),
		TotalInstallments: 3,
	}
}

func TestProjectInstallmentBounds(t *testing.T) {
	o := installmentPlan()

	tests := []struct {
		name        string
		year, month int
		visible     bool
		index       int
	}{
		{"month before start", 2023, 12, false, 0},
		{"first installment", 2024, 1, true, 1},
		{"second installment", 2024, 2, true, 2},
		{"last installment", 2024, 3, true, 3},
		{"month after last", 2024, 4, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Project(o, tt.year, tt.month)
			if p.Visible != tt.visible {
				t.Fatalf("Visible = %v, want %v", p.Visible, tt.visible)
			}
			if p.OccurrenceIndex != tt.index {
				t.Fatalf("OccurrenceIndex = %d, want %d", p.OccurrenceIndex, tt.index)
			}
		})
	}
}

func TestProjectExclusionPrecedence(t *testing.T) {
	// An exclusion token wins over every other field.
	fixed := fixedBill()
	fixed.Exclusions = []string{core.MonthToken(2024, 5)}
	if Project(fixed, 2024, 5).Visible {
		t.Fatalf("excluded fixed bill should not be visible")
	}
	if !Project(fixed, 2024, 6).Visible {
		t.Fatalf("other months should be unaffected")
	}

	inst := installmentPlan()
	inst.Exclusions = []string{core.MonthToken(2024, 2)}
	inst.PaymentHistory = []time.Time{core.NewDate(2024, 2, 5)}
	if Project(inst, 2024, 2).Visible {
		t.Fatalf("excluded installment should not be visible even when paid")
	}
}

func TestProjectFixedWindow(t *testing.T) {
	o := fixedBill()
	o.StartDate = core.NewDate(2024, 3, 15)
	o.EndDate = core.NewDate(2024, 6, 20)

	tests := []struct {
		name        string
		year, month int
		visible     bool
	}{
		{"before start month", 2024, 2, false},
		{"start month", 2024, 3, true},
		{"mid window", 2024, 5, true},
		{"end month inclusive", 2024, 6, true},
		{"after end month", 2024, 7, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Project(o, tt.year, tt.month).Visible; got != tt.visible {
				t.Fatalf("Visible = %v, want %v", got, tt.visible)
			}
		})
	}
}

func TestProjectFixedPaidByCalendarMonth(t *testing.T) {
	o := fixedBill()
	o.PaymentHistory = []time.Time{core.NewDate(2024, 4, 10)}

	if !Project(o, 2024, 4).PaidThisMonth {
		t.Fatalf("April should be paid")
	}
	if Project(o, 2024, 5).PaidThisMonth {
		t.Fatalf("May should not be paid")
	}
}

func TestProjectDebtSettlementVisibility(t *testing.T) {
	o := core.Obligation{
		ID:          "d1",
		Kind:        core.KindDebt,
		Description: "Loan",
		Amount:      core.Money{Cents: 100000},
		DueDay:      15,
		StartDate:   core.NewDate(2023, 6, 1),
		IsSettled:   true,
		SettledDate: core.NewDate(2024, 3, 15),
	}

	p := Project(o, 2024, 3)
	if !p.Visible || !p.PaidThisMonth {
		t.Fatalf("debt should stay visible and read paid through its settlement month, got %+v", p)
	}
	if Project(o, 2024, 4).Visible {
		t.Fatalf("settled debt should disappear the month after settlement")
	}
	if !Project(o, 2024, 1).Visible {
		t.Fatalf("debt should be visible in months before settlement")
	}
}

func TestProjectDebtBeforeStart(t *testing.T) {
	o := core.Obligation{
		Kind:      core.KindDebt,
		Amount:    core.Money{Cents: 50000},
		StartDate: core.NewDate(2024, 6, 1),
	}
	if Project(o, 2024, 5).Visible {
		t.Fatalf("debt should not be visible before its start date")
	}
	if !Project(o, 2024, 6).Visible {
		t.Fatalf("debt should be visible from its start month")
	}
}

func TestDeriveStatusOverdueBoundary(t *testing.T) {
	o := fixedBill() // due day 10, unpaid

	tests := []struct {
		name        string
		year, month int
		now         time.Time
		want        core.Status
	}{
		{"current month, day after due", 2024, 5, core.NewDate(2024, 5, 11), core.StatusOverdue},
		{"current month, day before due", 2024, 5, core.NewDate(2024, 5, 9), core.StatusPending},
		{"current month, on due day", 2024, 5, core.NewDate(2024, 5, 10), core.StatusPending},
		{"past month", 2024, 4, core.NewDate(2024, 5, 1), core.StatusOverdue},
		{"past year", 2023, 12, core.NewDate(2024, 5, 1), core.StatusOverdue},
		{"future month", 2024, 6, core.NewDate(2024, 5, 20), core.StatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Project(o, tt.year, tt.month)
			if got := DeriveStatus(o, p, tt.year, tt.month, tt.now); got != tt.want {
				t.Fatalf("DeriveStatus = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeriveStatusClampsDueDay(t *testing.T) {
	o := fixedBill()
	o.DueDay = 31

	// February 2025 has 28 days; on March-dated clocks the month is past, so
	// check inside February: due day behaves as the 28th.
	now := core.NewDate(2025, 2, 28)
	p := Project(o, 2025, 2)
	if got := DeriveStatus(o, p, 2025, 2, now); got != core.StatusPending {
		t.Fatalf("on the clamped due day the bill should still be pending, got %v", got)
	}
	// One day past the clamped due day would be March 1st, a new month, which
	// makes February strictly past.
	now = core.NewDate(2025, 3, 1)
	if got := DeriveStatus(o, p, 2025, 2, now); got != core.StatusOverdue {
		t.Fatalf("past month should be overdue, got %v", got)
	}
}

func TestDeriveStatusPaidWins(t *testing.T) {
	o := fixedBill()
	o.PaymentHistory = []time.Time{core.NewDate(2024, 4, 10)}
	p := Project(o, 2024, 4)
	if got := DeriveStatus(o, p, 2024, 4, core.NewDate(2024, 6, 1)); got != core.StatusPaid {
		t.Fatalf("paid month should report PAID even when past, got %v", got)
	}
}
