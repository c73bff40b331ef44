// Package memory implements the ledger in memory for tests and local runs
// without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"finanzas/internal/core"
	"finanzas/internal/sheets"
)

type Ledger struct {
	mu   sync.Mutex
	rows []core.Transaction
}

var _ sheets.LedgerAppender = (*Ledger)(nil)

func New() *Ledger {
	return &Ledger{}
}

// AppendTransaction stores the transaction and returns a synthetic row
// reference.
func (l *Ledger) AppendTransaction(_ context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = append(l.rows, t)
	return fmt.Sprintf("mem:%d", len(l.rows)), nil
}

// Rows returns a copy of the appended transactions.
func (l *Ledger) Rows() []core.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.Transaction(nil), l.rows...)
}
