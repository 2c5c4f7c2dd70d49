package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"contas/internal/bills"
	"contas/internal/core"
)

// AutoPayProcessor pays flagged obligations on their due day. It runs from a
// cron schedule and is idempotent within a month: an occurrence already paid
// is skipped, and a concurrent run racing on the same record surfaces as
// ErrAlreadyPaid, which is swallowed.
type AutoPayProcessor struct {
	service *ObligationService
	bank    string
	method  string
}

func NewAutoPayProcessor(service *ObligationService, bank, method string) *AutoPayProcessor {
	return &AutoPayProcessor{
		service: service,
		bank:    bank,
		method:  method,
	}
}

// Run scans all obligations and pays the ones due today. It returns the
// number of payments made; individual failures are logged and do not stop
// the scan.
func (p *AutoPayProcessor) Run(ctx context.Context, now time.Time) (int, error) {
	year, month := now.Year(), int(now.Month())

	view, err := p.service.View(ctx, year, month, now)
	if err != nil {
		return 0, err
	}

	paid := 0
	for _, entry := range view.Entries {
		o := entry.Obligation
		if !o.AutoPay || !o.IsMonthly() {
			continue
		}
		if entry.Projection.PaidThisMonth {
			continue
		}
		if core.ClampDay(o.DueDay, year, month) != now.Day() {
			continue
		}

		_, err := p.service.Pay(ctx, o.ID, bills.PayParams{
			Year:   year,
			Month:  month,
			Bank:   p.bank,
			Method: p.method,
			Now:    now,
		})
		if errors.Is(err, core.ErrAlreadyPaid) {
			continue
		}
		if err != nil {
			slog.ErrorContext(ctx, "Auto pay failed",
				"id", o.ID,
				"description", o.Description,
				"error", err)
			continue
		}

		slog.InfoContext(ctx, "Auto paid obligation",
			"id", o.ID,
			"description", o.Description,
			"amount_cents", o.Amount.Cents)
		paid++
	}

	return paid, nil
}
