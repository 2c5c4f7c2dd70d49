// Package services orchestrates obligation operations across storage,
// the ledger, and the AMQP sync pipeline.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"contas/internal/bills"
	"contas/internal/core"
)

// ObligationStore is the persistence port the service needs.
type ObligationStore interface {
	Add(ctx context.Context, o core.Obligation) error
	Update(ctx context.Context, o core.Obligation) error
	Remove(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (core.Obligation, error)
	List(ctx context.Context) ([]core.Obligation, error)
	AddTransaction(ctx context.Context, req core.LedgerRequest) error
}

// SyncPublisher notifies the sync worker that a ledger transaction exists.
type SyncPublisher interface {
	PublishLedgerSync(ctx context.Context, id string) error
}

// ObligationService applies bill mutations, persists the results, and
// records ledger transactions for every payment.
type ObligationService struct {
	store     ObligationStore
	publisher SyncPublisher
}

func NewObligationService(store ObligationStore, publisher SyncPublisher) *ObligationService {
	return &ObligationService{
		store:     store,
		publisher: publisher,
	}
}

// MonthView holds the projected entries and summary for one calendar month.
type MonthView struct {
	Year    int
	Month   int
	Entries []bills.Entry
	Summary bills.Summary
}

// Create validates and persists a new obligation.
func (s *ObligationService) Create(ctx context.Context, params bills.CreateParams) (core.Obligation, error) {
	o, err := bills.Create(params)
	if err != nil {
		return core.Obligation{}, err
	}
	if err := s.store.Add(ctx, o); err != nil {
		return core.Obligation{}, fmt.Errorf("persist obligation: %w", err)
	}
	return o, nil
}

// Pay marks a monthly obligation paid for the given month and records the
// payment in the ledger.
func (s *ObligationService) Pay(ctx context.Context, id string, params bills.PayParams) (core.Obligation, error) {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return core.Obligation{}, err
	}

	updated, ledger, err := bills.Pay(o, params)
	if err != nil {
		return core.Obligation{}, err
	}

	if err := s.store.Update(ctx, updated); err != nil {
		return core.Obligation{}, fmt.Errorf("persist payment: %w", err)
	}
	s.recordLedger(ctx, ledger)

	return updated, nil
}

// Settle pays off all remaining installments of an installment plan at once.
func (s *ObligationService) Settle(ctx context.Context, id string, params bills.SettleParams) (core.Obligation, error) {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return core.Obligation{}, err
	}

	updated, ledger, err := bills.SettleRemaining(o, params)
	if err != nil {
		return core.Obligation{}, err
	}

	if err := s.store.Update(ctx, updated); err != nil {
		return core.Obligation{}, fmt.Errorf("persist settlement: %w", err)
	}
	s.recordLedger(ctx, ledger)

	return updated, nil
}

// Abate pays down a debt balance, settling it when the balance reaches zero.
func (s *ObligationService) Abate(ctx context.Context, id string, params bills.AbateParams) (core.Obligation, error) {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return core.Obligation{}, err
	}

	updated, ledger, err := bills.AbateDebt(o, params)
	if err != nil {
		return core.Obligation{}, err
	}

	if err := s.store.Update(ctx, updated); err != nil {
		return core.Obligation{}, fmt.Errorf("persist debt payment: %w", err)
	}
	s.recordLedger(ctx, ledger)

	return updated, nil
}

// Defer moves one occurrence of an obligation to the following month. The
// origin gains an exclusion token and a one-shot copy is created.
func (s *ObligationService) Defer(ctx context.Context, id string, year, month int) (core.Obligation, core.Obligation, error) {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return core.Obligation{}, core.Obligation{}, err
	}

	origin, copy, err := bills.DeferToNextMonth(o, year, month)
	if err != nil {
		return core.Obligation{}, core.Obligation{}, err
	}

	if err := s.store.Update(ctx, origin); err != nil {
		return core.Obligation{}, core.Obligation{}, fmt.Errorf("persist deferral: %w", err)
	}
	if err := s.store.Add(ctx, copy); err != nil {
		return core.Obligation{}, core.Obligation{}, fmt.Errorf("persist deferred copy: %w", err)
	}

	slog.InfoContext(ctx, "Obligation deferred",
		"id", origin.ID,
		"copy_id", copy.ID,
		"year", year,
		"month", month)

	return origin, copy, nil
}

// Exclude hides one occurrence of a monthly obligation.
func (s *ObligationService) Exclude(ctx context.Context, id string, year, month int) (core.Obligation, error) {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return core.Obligation{}, err
	}

	updated, err := bills.ExcludeOccurrence(o, year, month)
	if err != nil {
		return core.Obligation{}, err
	}

	if err := s.store.Update(ctx, updated); err != nil {
		return core.Obligation{}, fmt.Errorf("persist exclusion: %w", err)
	}
	return updated, nil
}

// Delete removes an obligation permanently.
func (s *ObligationService) Delete(ctx context.Context, id string) error {
	return s.store.Remove(ctx, id)
}

// Get returns a single obligation by ID.
func (s *ObligationService) Get(ctx context.Context, id string) (core.Obligation, error) {
	return s.store.Get(ctx, id)
}

// View projects all obligations onto the given month.
func (s *ObligationService) View(ctx context.Context, year, month int, now time.Time) (MonthView, error) {
	if month < 1 || month > 12 {
		return MonthView{}, fmt.Errorf("invalid month: %d", month)
	}

	obligations, err := s.store.List(ctx)
	if err != nil {
		return MonthView{}, fmt.Errorf("list obligations: %w", err)
	}

	return MonthView{
		Year:    year,
		Month:   month,
		Entries: bills.ProjectAll(obligations, year, month, now),
		Summary: bills.Summarize(obligations, year, month, now),
	}, nil
}

// recordLedger persists the ledger transaction and publishes the sync
// message. Neither failure aborts the mutation, the obligation update has
// already been committed.
func (s *ObligationService) recordLedger(ctx context.Context, ledger core.LedgerRequest) {
	if err := s.store.AddTransaction(ctx, ledger); err != nil {
		slog.ErrorContext(ctx, "Failed to record ledger transaction",
			"id", ledger.ID, "error", err)
		return
	}

	if s.publisher == nil {
		slog.WarnContext(ctx, "Sync publisher not available, skipping sync message")
		return
	}

	if err := s.publisher.PublishLedgerSync(ctx, ledger.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", ledger.ID, "error", err)
	}
}
