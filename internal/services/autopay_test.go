package services

import (
	"context"
	"testing"
	"time"

	"contas/internal/core"
)

func TestAutoPayPaysDueObligations(t *testing.T) {
	store := newFakeStore()
	svc := NewObligationService(store, &fakePublisher{})
	proc := NewAutoPayProcessor(svc, "N26", "debit")

	store.obligations["due"] = core.Obligation{
		ID: "due", Kind: core.KindFixed, Description: "Rent",
		Amount: core.Money{Cents: 120000}, DueDay: 5, AutoPay: true,
	}
	store.obligations["not-due"] = core.Obligation{
		ID: "not-due", Kind: core.KindFixed, Description: "Internet",
		Amount: core.Money{Cents: 8000}, DueDay: 20, AutoPay: true,
	}
	store.obligations["manual"] = core.Obligation{
		ID: "manual", Kind: core.KindFixed, Description: "Gym",
		Amount: core.Money{Cents: 4500}, DueDay: 5,
	}

	now := time.Date(2024, time.March, 5, 6, 0, 0, 0, time.UTC)
	paid, err := proc.Run(context.Background(), now)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if paid != 1 {
		t.Fatalf("paid = %d, want 1", paid)
	}
	if !store.obligations["due"].PaidInMonth(2024, 3) {
		t.Fatal("due obligation not paid")
	}
	if store.obligations["not-due"].PaidInMonth(2024, 3) {
		t.Fatal("obligation due later was paid")
	}
	if store.obligations["manual"].PaidInMonth(2024, 3) {
		t.Fatal("obligation without auto pay was paid")
	}
	if len(store.transactions) != 1 {
		t.Fatalf("expected 1 ledger transaction, got %d", len(store.transactions))
	}
	if store.transactions[0].Bank != "N26" {
		t.Fatalf("Bank = %q, want N26", store.transactions[0].Bank)
	}
}

func TestAutoPayIsIdempotentWithinMonth(t *testing.T) {
	store := newFakeStore()
	svc := NewObligationService(store, &fakePublisher{})
	proc := NewAutoPayProcessor(svc, "N26", "debit")

	store.obligations["due"] = core.Obligation{
		ID: "due", Kind: core.KindFixed, Description: "Rent",
		Amount: core.Money{Cents: 120000}, DueDay: 5, AutoPay: true,
	}

	now := time.Date(2024, time.March, 5, 6, 0, 0, 0, time.UTC)
	if _, err := proc.Run(context.Background(), now); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	paid, err := proc.Run(context.Background(), now)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if paid != 0 {
		t.Fatalf("second run paid = %d, want 0", paid)
	}
	if len(store.transactions) != 1 {
		t.Fatalf("expected 1 ledger transaction, got %d", len(store.transactions))
	}
}

func TestAutoPayClampsDueDayToShortMonth(t *testing.T) {
	store := newFakeStore()
	svc := NewObligationService(store, &fakePublisher{})
	proc := NewAutoPayProcessor(svc, "N26", "debit")

	store.obligations["eom"] = core.Obligation{
		ID: "eom", Kind: core.KindFixed, Description: "Insurance",
		Amount: core.Money{Cents: 6000}, DueDay: 31, AutoPay: true,
	}

	// February 2025 has 28 days; due day 31 clamps to the 28th.
	now := time.Date(2025, time.February, 28, 6, 0, 0, 0, time.UTC)
	paid, err := proc.Run(context.Background(), now)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if paid != 1 {
		t.Fatalf("paid = %d, want 1", paid)
	}
}
