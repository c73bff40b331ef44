package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finanzas/internal/core"
	"finanzas/internal/reports"
)

func sampleStatement(lineItems int) *reports.Statement {
	s := &reports.Statement{
		UserID:       "u1",
		GeneratedAt:  time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC),
		TotalIncome:  decimal.NewFromInt(1500),
		TotalExpense: decimal.NewFromInt(500),
		Balance:      decimal.NewFromInt(1000),
	}
	for i := 0; i < lineItems; i++ {
		s.LineItems = append(s.LineItems, reports.LineItem{
			Date:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i%28),
			Category: "Comida",
			Amount:   decimal.NewFromInt(10),
			Type:     core.Expense,
		})
	}
	return s
}

func TestRender(t *testing.T) {
	out, err := NewRenderer().Render(sampleStatement(3))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Errorf("output does not start with a PDF header")
	}
}

func TestRenderEmptyStatement(t *testing.T) {
	out, err := NewRenderer().Render(sampleStatement(0))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(out) == 0 {
		t.Error("empty output")
	}
}

func TestRenderPaginates(t *testing.T) {
	short, err := NewRenderer().Render(sampleStatement(3))
	if err != nil {
		t.Fatalf("Render short: %v", err)
	}
	long, err := NewRenderer().Render(sampleStatement(200))
	if err != nil {
		t.Fatalf("Render long: %v", err)
	}
	if !bytes.HasPrefix(long, []byte("%PDF")) {
		t.Fatal("long output does not start with a PDF header")
	}
	if len(long) <= len(short) {
		t.Errorf("200 line items produced %d bytes, short statement %d; expected extra pages", len(long), len(short))
	}
}
