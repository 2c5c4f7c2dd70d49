package core

import (
	"errors"
	"testing"
	"time"
)

func TestObligationValidate(t *testing.T) {
	base := Obligation{
		ID:          "x",
		Description: "Rent",
		Amount:      Money{Cents: 120000},
		DueDay:      5,
	}

	tests := []struct {
		name    string
		mutate  func(o *Obligation)
		wantErr error
	}{
		{
			name:   "fixed without start date is fine",
			mutate: func(o *Obligation) { o.Kind = KindFixed },
		},
		{
			name: "installment requires start date",
			mutate: func(o *Obligation) {
				o.Kind = KindInstallment
				o.TotalInstallments = 10
			},
			wantErr: ErrMissingStartDate,
		},
		{
			name: "installment requires count",
			mutate: func(o *Obligation) {
				o.Kind = KindInstallment
				o.StartDate = NewDate(2024, 1, 1)
			},
			wantErr: ErrMissingInstallments,
		},
		{
			name: "valid installment",
			mutate: func(o *Obligation) {
				o.Kind = KindInstallment
				o.StartDate = NewDate(2024, 1, 1)
				o.TotalInstallments = 10
			},
		},
		{
			name: "debt requires start date",
			mutate: func(o *Obligation) {
				o.Kind = KindDebt
			},
			wantErr: ErrMissingStartDate,
		},
		{
			name: "empty description",
			mutate: func(o *Obligation) {
				o.Kind = KindFixed
				o.Description = "  "
			},
			wantErr: ErrEmptyDescription,
		},
		{
			name: "zero amount",
			mutate: func(o *Obligation) {
				o.Kind = KindFixed
				o.Amount = Money{}
			},
			wantErr: ErrInvalidAmount,
		},
		{
			name: "due day out of range",
			mutate: func(o *Obligation) {
				o.Kind = KindFixed
				o.DueDay = 32
			},
			wantErr: ErrInvalidDueDay,
		},
		{
			name:    "unknown kind",
			mutate:  func(o *Obligation) { o.Kind = "WEEKLY" },
			wantErr: ErrUnknownKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := base
			tt.mutate(&o)
			err := o.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPaidInMonth(t *testing.T) {
	o := Obligation{
		PaymentHistory: []time.Time{
			NewDate(2024, 1, 10),
			NewDate(2024, 3, 1),
		},
	}
	if !o.PaidInMonth(2024, 1) {
		t.Fatalf("expected January 2024 paid")
	}
	if o.PaidInMonth(2024, 2) {
		t.Fatalf("February 2024 should not be paid")
	}
	if o.PaidInMonth(2023, 1) {
		t.Fatalf("January of another year should not be paid")
	}
}

func TestExcludedIn(t *testing.T) {
	o := Obligation{Exclusions: []string{"2024-4"}} // May 2024 (zero-based token)
	if !o.ExcludedIn(2024, 5) {
		t.Fatalf("expected May 2024 excluded")
	}
	if o.ExcludedIn(2024, 4) {
		t.Fatalf("April 2024 should not be excluded")
	}
}

func TestEffectiveBalance(t *testing.T) {
	tests := []struct {
		name string
		o    Obligation
		want int64
	}{
		{
			name: "legacy row without balance falls back to principal",
			o:    Obligation{Kind: KindDebt, Amount: Money{Cents: 100000}},
			want: 100000,
		},
		{
			name: "partially paid down",
			o:    Obligation{Kind: KindDebt, Amount: Money{Cents: 100000}, CurrentBalance: Money{Cents: 40000}},
			want: 40000,
		},
		{
			name: "settled at zero stays zero",
			o:    Obligation{Kind: KindDebt, Amount: Money{Cents: 100000}, IsSettled: true},
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.o.EffectiveBalance().Cents; got != tt.want {
				t.Fatalf("EffectiveBalance() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSettleable(t *testing.T) {
	if !Settleable(Money{Cents: 0}) || !Settleable(Money{Cents: 1}) {
		t.Fatalf("balances at or below one cent should be settleable")
	}
	if Settleable(Money{Cents: 2}) {
		t.Fatalf("two cents should not be settleable")
	}
}
