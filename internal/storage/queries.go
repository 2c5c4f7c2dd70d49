package storage

import (
	"context"
	"database/sql"
)

// Queries is the low-level statement layer. It deals in raw row structs;
// conversion to domain types lives in the repository.
type Queries struct {
	db *sql.DB
}

func New(db *sql.DB) *Queries {
	return &Queries{db: db}
}

// obligationRow mirrors the obligations table. Dates travel as RFC3339
// strings, empty meaning unset; the history and exclusion lists are JSON.
type obligationRow struct {
	ID                  string
	Kind                string
	Description         string
	Category            string
	SubCategory         string
	AmountCents         int64
	DueDay              int64
	StartDate           string
	EndDate             string
	TotalInstallments   int64
	CurrentInstallment  int64
	PaymentHistory      string
	Exclusions          string
	CurrentBalanceCents int64
	IsSettled           bool
	SettledDate         string
	LastPaidDate        string
	AutoPay             bool
}

type ledgerRow struct {
	ID            string
	Description   string
	AmountCents   int64
	TxDate        string
	TxType        string
	Category      string
	SubCategory   string
	Bank          string
	PaymentMethod string
	SyncStatus    string
}

const obligationColumns = `id, kind, description, category, sub_category, amount_cents,
	due_day, start_date, end_date, total_installments, current_installment,
	payment_history, exclusions, current_balance_cents, is_settled, settled_date,
	last_paid_date, auto_pay`

const insertObligationSQL = `INSERT INTO obligations (` + obligationColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const updateObligationSQL = `UPDATE obligations SET
	kind = ?, description = ?, category = ?, sub_category = ?, amount_cents = ?,
	due_day = ?, start_date = ?, end_date = ?, total_installments = ?,
	current_installment = ?, payment_history = ?, exclusions = ?,
	current_balance_cents = ?, is_settled = ?, settled_date = ?, last_paid_date = ?,
	auto_pay = ?, updated_at = CURRENT_TIMESTAMP
	WHERE id = ?`

const deleteObligationSQL = `DELETE FROM obligations WHERE id = ?`

const getObligationSQL = `SELECT ` + obligationColumns + ` FROM obligations WHERE id = ?`

const listObligationsSQL = `SELECT ` + obligationColumns + ` FROM obligations ORDER BY created_at, id`

func (q *Queries) InsertObligation(ctx context.Context, row obligationRow) error {
	_, err := q.db.ExecContext(ctx, insertObligationSQL,
		row.ID, row.Kind, row.Description, row.Category, row.SubCategory,
		row.AmountCents, row.DueDay, row.StartDate, row.EndDate,
		row.TotalInstallments, row.CurrentInstallment, row.PaymentHistory,
		row.Exclusions, row.CurrentBalanceCents, row.IsSettled, row.SettledDate,
		row.LastPaidDate, row.AutoPay)
	return err
}

func (q *Queries) UpdateObligation(ctx context.Context, row obligationRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateObligationSQL,
		row.Kind, row.Description, row.Category, row.SubCategory, row.AmountCents,
		row.DueDay, row.StartDate, row.EndDate, row.TotalInstallments,
		row.CurrentInstallment, row.PaymentHistory, row.Exclusions,
		row.CurrentBalanceCents, row.IsSettled, row.SettledDate, row.LastPaidDate,
		row.AutoPay, row.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) DeleteObligation(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteObligationSQL, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) GetObligation(ctx context.Context, id string) (obligationRow, error) {
	var row obligationRow
	err := q.db.QueryRowContext(ctx, getObligationSQL, id).Scan(
		&row.ID, &row.Kind, &row.Description, &row.Category, &row.SubCategory,
		&row.AmountCents, &row.DueDay, &row.StartDate, &row.EndDate,
		&row.TotalInstallments, &row.CurrentInstallment, &row.PaymentHistory,
		&row.Exclusions, &row.CurrentBalanceCents, &row.IsSettled, &row.SettledDate,
		&row.LastPaidDate, &row.AutoPay)
	return row, err
}

func (q *Queries) ListObligations(ctx context.Context) ([]obligationRow, error) {
	rows, err := q.db.QueryContext(ctx, listObligationsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []obligationRow
	for rows.Next() {
		var row obligationRow
		if err := rows.Scan(
			&row.ID, &row.Kind, &row.Description, &row.Category, &row.SubCategory,
			&row.AmountCents, &row.DueDay, &row.StartDate, &row.EndDate,
			&row.TotalInstallments, &row.CurrentInstallment, &row.PaymentHistory,
			&row.Exclusions, &row.CurrentBalanceCents, &row.IsSettled, &row.SettledDate,
			&row.LastPaidDate, &row.AutoPay); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

const ledgerColumns = `id, description, amount_cents, tx_date, tx_type, category,
	sub_category, bank, payment_method, sync_status`

const insertLedgerSQL = `INSERT INTO ledger_transactions (` + ledgerColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 'pending')`

const getLedgerSQL = `SELECT ` + ledgerColumns + ` FROM ledger_transactions WHERE id = ?`

const listPendingLedgerSQL = `SELECT ` + ledgerColumns + ` FROM ledger_transactions
	WHERE sync_status = 'pending' ORDER BY created_at LIMIT ?`

const setLedgerSyncStatusSQL = `UPDATE ledger_transactions SET sync_status = ? WHERE id = ?`

func (q *Queries) InsertLedgerTransaction(ctx context.Context, row ledgerRow) error {
	_, err := q.db.ExecContext(ctx, insertLedgerSQL,
		row.ID, row.Description, row.AmountCents, row.TxDate, row.TxType,
		row.Category, row.SubCategory, row.Bank, row.PaymentMethod)
	return err
}

func (q *Queries) GetLedgerTransaction(ctx context.Context, id string) (ledgerRow, error) {
	var row ledgerRow
	err := q.db.QueryRowContext(ctx, getLedgerSQL, id).Scan(
		&row.ID, &row.Description, &row.AmountCents, &row.TxDate, &row.TxType,
		&row.Category, &row.SubCategory, &row.Bank, &row.PaymentMethod, &row.SyncStatus)
	return row, err
}

func (q *Queries) ListPendingLedgerTransactions(ctx context.Context, limit int) ([]ledgerRow, error) {
	rows, err := q.db.QueryContext(ctx, listPendingLedgerSQL, int64(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledgerRow
	for rows.Next() {
		var row ledgerRow
		if err := rows.Scan(
			&row.ID, &row.Description, &row.AmountCents, &row.TxDate, &row.TxType,
			&row.Category, &row.SubCategory, &row.Bank, &row.PaymentMethod, &row.SyncStatus); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (q *Queries) SetLedgerSyncStatus(ctx context.Context, id, status string) error {
	_, err := q.db.ExecContext(ctx, setLedgerSyncStatusSQL, status, id)
	return err
}
