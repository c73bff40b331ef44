// Package worker mirrors persisted transactions into the external ledger.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"finanzas/internal/amqp"
	"finanzas/internal/sheets"
	"finanzas/internal/store"
)

// MirrorWorker consumes transaction-created events and appends the full
// database record to the ledger.
type MirrorWorker struct {
	txs    store.TransactionWriter
	ledger sheets.LedgerAppender
}

func NewMirrorWorker(txs store.TransactionWriter, ledger sheets.LedgerAppender) *MirrorWorker {
	return &MirrorWorker{txs: txs, ledger: ledger}
}

// HandleCreatedMessage processes a single transaction-created event. A
// message referencing a transaction that no longer exists is dropped, not
// requeued; everything else that fails is retried by the broker.
func (w *MirrorWorker) HandleCreatedMessage(ctx context.Context, msg *amqp.TransactionCreatedMessage) error {
	tx, err := w.txs.TransactionByID(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}
	if tx == nil {
		slog.WarnContext(ctx, "Transaction referenced by message not found, dropping",
			"transaction_id", msg.ID)
		return nil
	}

	ref, err := w.ledger.AppendTransaction(ctx, *tx)
	if err != nil {
		return fmt.Errorf("append transaction to ledger: %w", err)
	}

	slog.InfoContext(ctx, "Mirrored transaction to ledger",
		"transaction_id", tx.ID,
		"user_id", tx.UserID,
		"ledger_ref", ref)

	return nil
}
