package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"finanzas/internal/core"
	"finanzas/internal/store"
)

// Statement is the computed input handed to the report renderer. Line items
// keep the store's natural iteration order; no re-sorting is guaranteed.
type Statement struct {
	UserID       string
	GeneratedAt  time.Time
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	Balance      decimal.Decimal
	LineItems    []LineItem
}

type LineItem struct {
	Date     time.Time
	Category string
	Amount   decimal.Decimal
	Type     core.TransactionType
}

// Renderer serializes a statement into a paginated document.
type Renderer interface {
	Render(s *Statement) ([]byte, error)
}

// Assembler shapes the raw transaction listing into renderer input.
type Assembler struct {
	txReader store.TransactionReader
	loc      *time.Location
	now      func() time.Time
}

func NewAssembler(txReader store.TransactionReader, loc *time.Location) *Assembler {
	return &Assembler{txReader: txReader, loc: loc, now: time.Now}
}

// BuildStatement computes the statement totals and line items in a single
// pass over the user's transactions.
func (a *Assembler) BuildStatement(ctx context.Context, userID string) (*Statement, error) {
	txs, err := a.txReader.TransactionsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	s := &Statement{
		UserID:       userID,
		GeneratedAt:  a.now().In(a.loc),
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
		LineItems:    make([]LineItem, 0, len(txs)),
	}

	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			s.TotalIncome = s.TotalIncome.Add(tx.Amount)
		case core.Expense:
			s.TotalExpense = s.TotalExpense.Add(tx.Amount)
		}

		s.LineItems = append(s.LineItems, LineItem{
			Date:     tx.Date,
			Category: core.NormalizeCategory(tx.Category),
			Amount:   tx.Amount,
			Type:     tx.Type,
		})
	}

	s.Balance = s.TotalIncome.Sub(s.TotalExpense)
	return s, nil
}
