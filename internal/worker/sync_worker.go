// Package worker mirrors recorded ledger transactions into the remote sheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"contas/internal/amqp"
	"contas/internal/core"
	"contas/internal/sheets"
)

// LedgerStore is the slice of storage the worker needs.
type LedgerStore interface {
	GetTransaction(ctx context.Context, id string) (core.LedgerRequest, error)
	ListPendingTransactions(ctx context.Context, limit int) ([]core.LedgerRequest, error)
	MarkSynced(ctx context.Context, id string) error
	MarkSyncError(ctx context.Context, id string) error
}

// SyncWorker pushes ledger transactions from SQLite to the remote sheet.
type SyncWorker struct {
	storage   LedgerStore
	sheets    sheets.LedgerAppender
	batchSize int
}

func NewSyncWorker(storage LedgerStore, sheets sheets.LedgerAppender, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		sheets:    sheets,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single ledger sync message from AMQP.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.LedgerSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message", "id", msg.ID)

	req, err := w.storage.GetTransaction(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get ledger transaction: %w", err)
	}

	if err := w.syncTransaction(ctx, req); err != nil {
		return fmt.Errorf("sync ledger transaction: %w", err)
	}

	return nil
}

// ProcessPending sweeps transactions that haven't been mirrored yet.
// This is a backup mechanism in case AMQP messages are lost.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.ListPendingTransactions(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending transactions: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	for _, req := range pending {
		if err := w.syncTransaction(ctx, req); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction", "id", req.ID, "error", err)
			continue
		}
	}

	return nil
}

// StartupSyncCheck drains the pending backlog at worker startup to recover
// from missed AMQP messages or worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.ListPendingTransactions(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("list pending transactions for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending transactions found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending transactions on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	for _, req := range pending {
		if err := w.syncTransaction(ctx, req); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction during startup",
				"id", req.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)

	return nil
}

func (w *SyncWorker) syncTransaction(ctx context.Context, req core.LedgerRequest) error {
	ref, err := w.sheets.Append(ctx, req)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, req.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", req.ID, "error", markErr)
		}
		return fmt.Errorf("append to sheets: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, req.ID); err != nil {
		// The append worked; a failed status update only means the sweep
		// retries this row later.
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", req.ID, "error", err)
	}

	slog.InfoContext(ctx, "Successfully synced transaction",
		"id", req.ID,
		"sheets_ref", ref,
		"description", req.Description,
		"amount_cents", req.Amount.Cents)

	return nil
}
