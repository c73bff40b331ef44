// Package sheets defines the external ledger the mirror worker writes to.
package sheets

import (
	"context"

	"finanzas/internal/core"
)

// LedgerAppender appends one transaction row to the ledger and returns a
// reference to the written row.
type LedgerAppender interface {
	AppendTransaction(ctx context.Context, t core.Transaction) (string, error)
}
