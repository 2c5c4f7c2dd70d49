package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"contas/internal/core"
)

func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "contas.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestObligationRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	o := core.Obligation{
		ID:                "bill-1",
		Kind:              core.KindInstallment,
		Description:       "Sofa",
		Category:          "Home",
		SubCategory:       "Furniture",
		Amount:            core.Money{Cents: 30000},
		DueDay:            20,
		StartDate:         core.NewDate(2024, 1, 1),
		TotalInstallments: 3,
		PaymentHistory:    []time.Time{core.NewDate(2024, 1, 20)},
		Exclusions:        []string{core.MonthToken(2024, 2)},
		LastPaidDate:      core.NewDate(2024, 1, 20),
		AutoPay:           true,
	}
	if err := repo.Add(ctx, o); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, err := repo.Get(ctx, "bill-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Description != o.Description || got.Kind != o.Kind {
		t.Fatalf("got %+v, want %+v", got, o)
	}
	if got.Amount.Cents != 30000 {
		t.Fatalf("Amount.Cents = %d, want 30000", got.Amount.Cents)
	}
	if !got.StartDate.Equal(o.StartDate) {
		t.Fatalf("StartDate = %v, want %v", got.StartDate, o.StartDate)
	}
	if len(got.PaymentHistory) != 1 || !got.PaymentHistory[0].Equal(o.PaymentHistory[0]) {
		t.Fatalf("PaymentHistory = %v, want %v", got.PaymentHistory, o.PaymentHistory)
	}
	if len(got.Exclusions) != 1 || got.Exclusions[0] != "2024-1" {
		t.Fatalf("Exclusions = %v, want [2024-1]", got.Exclusions)
	}
	if !got.EndDate.IsZero() || !got.SettledDate.IsZero() {
		t.Fatal("unset dates must come back zero")
	}
	if !got.AutoPay {
		t.Fatal("AutoPay flag lost")
	}
}

func TestUpdateObligation(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	o := core.Obligation{
		ID: "bill-1", Kind: core.KindFixed, Description: "Rent",
		Amount: core.Money{Cents: 120000}, DueDay: 5,
	}
	if err := repo.Add(ctx, o); err != nil {
		t.Fatalf("Add: %v", err)
	}

	o.PaymentHistory = append(o.PaymentHistory, core.NewDate(2024, 3, 5))
	if err := repo.Update(ctx, o); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.Get(ctx, "bill-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.PaidInMonth(2024, 3) {
		t.Fatal("payment not persisted")
	}
}

func TestUpdateUnknownObligation(t *testing.T) {
	repo := newTestRepository(t)

	err := repo.Update(context.Background(), core.Obligation{
		ID: "missing", Kind: core.KindFixed, Description: "x",
		Amount: core.Money{Cents: 100}, DueDay: 1,
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRemoveObligation(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	o := core.Obligation{
		ID: "bill-1", Kind: core.KindFixed, Description: "Rent",
		Amount: core.Money{Cents: 120000}, DueDay: 5,
	}
	if err := repo.Add(ctx, o); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := repo.Remove(ctx, "bill-1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := repo.Get(ctx, "bill-1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}
	if err := repo.Remove(ctx, "bill-1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second remove, got %v", err)
	}
}

func TestLedgerSyncLifecycle(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	req := core.LedgerRequest{
		ID:            "tx-1",
		Description:   "Rent (bill)",
		Amount:        core.Money{Cents: 120000},
		Date:          core.NewDate(2024, 3, 5),
		Type:          core.TransactionExpense,
		Category:      "Home",
		Bank:          "N26",
		PaymentMethod: "debit",
	}
	if err := repo.AddTransaction(ctx, req); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	pending, err := repo.ListPendingTransactions(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingTransactions: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "tx-1" {
		t.Fatalf("pending = %v, want [tx-1]", pending)
	}

	if err := repo.MarkSynced(ctx, "tx-1"); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}
	pending, err = repo.ListPendingTransactions(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingTransactions: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending after sync = %v, want empty", pending)
	}

	got, err := repo.GetTransaction(ctx, "tx-1")
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if got.Amount.Cents != 120000 || got.Type != core.TransactionExpense {
		t.Fatalf("unexpected transaction: %+v", got)
	}
}
