// Package storage persists obligations and ledger transactions in SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"contas/internal/core"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Add persists a new obligation record.
func (r *SQLiteRepository) Add(ctx context.Context, o core.Obligation) error {
	row, err := toObligationRow(o)
	if err != nil {
		return fmt.Errorf("encode obligation: %w", err)
	}
	if err := r.queries.InsertObligation(ctx, row); err != nil {
		return fmt.Errorf("insert obligation: %w", err)
	}

	slog.InfoContext(ctx, "Obligation saved",
		"id", o.ID,
		"kind", o.Kind,
		"description", o.Description,
		"amount_cents", o.Amount.Cents)
	return nil
}

// Update replaces a record by ID (whole-record replace, last writer wins).
func (r *SQLiteRepository) Update(ctx context.Context, o core.Obligation) error {
	row, err := toObligationRow(o)
	if err != nil {
		return fmt.Errorf("encode obligation: %w", err)
	}
	n, err := r.queries.UpdateObligation(ctx, row)
	if err != nil {
		return fmt.Errorf("update obligation: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update obligation %s: %w", o.ID, core.ErrNotFound)
	}
	return nil
}

// Remove deletes a record for good.
func (r *SQLiteRepository) Remove(ctx context.Context, id string) error {
	n, err := r.queries.DeleteObligation(ctx, id)
	if err != nil {
		return fmt.Errorf("delete obligation: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete obligation %s: %w", id, core.ErrNotFound)
	}

	slog.InfoContext(ctx, "Obligation deleted", "id", id)
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.Obligation, error) {
	row, err := r.queries.GetObligation(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Obligation{}, fmt.Errorf("get obligation %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Obligation{}, fmt.Errorf("get obligation: %w", err)
	}
	return fromObligationRow(row)
}

func (r *SQLiteRepository) List(ctx context.Context) ([]core.Obligation, error) {
	rows, err := r.queries.ListObligations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list obligations: %w", err)
	}
	out := make([]core.Obligation, 0, len(rows))
	for _, row := range rows {
		o, err := fromObligationRow(row)
		if err != nil {
			return nil, fmt.Errorf("decode obligation %s: %w", row.ID, err)
		}
		out = append(out, o)
	}
	return out, nil
}

// AddTransaction records a ledger transaction with sync state pending.
func (r *SQLiteRepository) AddTransaction(ctx context.Context, req core.LedgerRequest) error {
	if err := r.queries.InsertLedgerTransaction(ctx, toLedgerRow(req)); err != nil {
		return fmt.Errorf("insert ledger transaction: %w", err)
	}

	slog.InfoContext(ctx, "Ledger transaction recorded",
		"id", req.ID,
		"description", req.Description,
		"amount_cents", req.Amount.Cents,
		"bank", req.Bank)
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.LedgerRequest, error) {
	row, err := r.queries.GetLedgerTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.LedgerRequest{}, fmt.Errorf("get ledger transaction %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.LedgerRequest{}, fmt.Errorf("get ledger transaction: %w", err)
	}
	return fromLedgerRow(row)
}

// ListPendingTransactions returns ledger transactions not yet mirrored.
func (r *SQLiteRepository) ListPendingTransactions(ctx context.Context, limit int) ([]core.LedgerRequest, error) {
	rows, err := r.queries.ListPendingLedgerTransactions(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending ledger transactions: %w", err)
	}
	out := make([]core.LedgerRequest, 0, len(rows))
	for _, row := range rows {
		req, err := fromLedgerRow(row)
		if err != nil {
			return nil, fmt.Errorf("decode ledger transaction %s: %w", row.ID, err)
		}
		out = append(out, req)
	}
	return out, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	if err := r.queries.SetLedgerSyncStatus(ctx, id, "synced"); err != nil {
		return fmt.Errorf("mark ledger transaction synced: %w", err)
	}
	slog.InfoContext(ctx, "Ledger transaction marked as synced", "id", id)
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	if err := r.queries.SetLedgerSyncStatus(ctx, id, "error"); err != nil {
		return fmt.Errorf("mark ledger transaction sync error: %w", err)
	}
	slog.WarnContext(ctx, "Ledger transaction marked with sync error", "id", id)
	return nil
}

func toObligationRow(o core.Obligation) (obligationRow, error) {
	history, err := json.Marshal(encodeTimes(o.PaymentHistory))
	if err != nil {
		return obligationRow{}, err
	}
	exclusions := o.Exclusions
	if exclusions == nil {
		exclusions = []string{}
	}
	excl, err := json.Marshal(exclusions)
	if err != nil {
		return obligationRow{}, err
	}
	return obligationRow{
		ID:                  o.ID,
		Kind:                string(o.Kind),
		Description:         o.Description,
		Category:            o.Category,
		SubCategory:         o.SubCategory,
		AmountCents:         o.Amount.Cents,
		DueDay:              int64(o.DueDay),
		StartDate:           encodeTime(o.StartDate),
		EndDate:             encodeTime(o.EndDate),
		TotalInstallments:   int64(o.TotalInstallments),
		CurrentInstallment:  int64(o.CurrentInstallment),
		PaymentHistory:      string(history),
		Exclusions:          string(excl),
		CurrentBalanceCents: o.CurrentBalance.Cents,
		IsSettled:           o.IsSettled,
		SettledDate:         encodeTime(o.SettledDate),
		LastPaidDate:        encodeTime(o.LastPaidDate),
		AutoPay:             o.AutoPay,
	}, nil
}

func fromObligationRow(row obligationRow) (core.Obligation, error) {
	var rawHistory []string
	if err := json.Unmarshal([]byte(row.PaymentHistory), &rawHistory); err != nil {
		return core.Obligation{}, fmt.Errorf("decode payment history: %w", err)
	}
	history, err := decodeTimes(rawHistory)
	if err != nil {
		return core.Obligation{}, fmt.Errorf("decode payment history: %w", err)
	}
	var exclusions []string
	if err := json.Unmarshal([]byte(row.Exclusions), &exclusions); err != nil {
		return core.Obligation{}, fmt.Errorf("decode exclusions: %w", err)
	}

	startDate, err := decodeTime(row.StartDate)
	if err != nil {
		return core.Obligation{}, fmt.Errorf("decode start date: %w", err)
	}
	endDate, err := decodeTime(row.EndDate)
	if err != nil {
		return core.Obligation{}, fmt.Errorf("decode end date: %w", err)
	}
	settledDate, err := decodeTime(row.SettledDate)
	if err != nil {
		return core.Obligation{}, fmt.Errorf("decode settled date: %w", err)
	}
	lastPaidDate, err := decodeTime(row.LastPaidDate)
	if err != nil {
		return core.Obligation{}, fmt.Errorf("decode last paid date: %w", err)
	}

	return core.Obligation{
		ID:                 row.ID,
		Kind:               core.ObligationKind(row.Kind),
		Description:        row.Description,
		Category:           row.Category,
		SubCategory:        row.SubCategory,
		Amount:             core.Money{Cents: row.AmountCents},
		DueDay:             int(row.DueDay),
		StartDate:          startDate,
		EndDate:            endDate,
		TotalInstallments:  int(row.TotalInstallments),
		CurrentInstallment: int(row.CurrentInstallment),
		PaymentHistory:     history,
		Exclusions:         exclusions,
		CurrentBalance:     core.Money{Cents: row.CurrentBalanceCents},
		IsSettled:          row.IsSettled,
		SettledDate:        settledDate,
		LastPaidDate:       lastPaidDate,
		AutoPay:            row.AutoPay,
	}, nil
}

func toLedgerRow(req core.LedgerRequest) ledgerRow {
	return ledgerRow{
		ID:            req.ID,
		Description:   req.Description,
		AmountCents:   req.Amount.Cents,
		TxDate:        encodeTime(req.Date),
		TxType:        string(req.Type),
		Category:      req.Category,
		SubCategory:   req.SubCategory,
		Bank:          req.Bank,
		PaymentMethod: req.PaymentMethod,
	}
}

func fromLedgerRow(row ledgerRow) (core.LedgerRequest, error) {
	date, err := decodeTime(row.TxDate)
	if err != nil {
		return core.LedgerRequest{}, fmt.Errorf("decode transaction date: %w", err)
	}
	return core.LedgerRequest{
		ID:            row.ID,
		Description:   row.Description,
		Amount:        core.Money{Cents: row.AmountCents},
		Date:          date,
		Type:          core.TransactionType(row.TxType),
		Category:      row.Category,
		SubCategory:   row.SubCategory,
		Bank:          row.Bank,
		PaymentMethod: row.PaymentMethod,
	}, nil
}

func encodeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func decodeTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

func encodeTimes(ts []time.Time) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = encodeTime(t)
	}
	return out
}

func decodeTimes(ss []string) ([]time.Time, error) {
	if len(ss) == 0 {
		return nil, nil
	}
	out := make([]time.Time, len(ss))
	for i, s := range ss {
		t, err := decodeTime(s)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}
