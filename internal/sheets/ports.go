package sheets

import (
	"context"

	"contas/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerAppender mirrors a ledger transaction into a remote sheet.
	LedgerAppender interface {
		Append(ctx context.Context, req core.LedgerRequest) (rowRef string, err error)
	}
)
