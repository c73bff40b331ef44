package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"

	// SentinelCategory is the catch-all bucket. It is always listed last and
	// receives the transactions of deleted categories.
	SentinelCategory = "Otros"
)

type (
	TransactionType string

	Transaction struct {
		ID          string
		UserID      string
		Type        TransactionType
		Amount      decimal.Decimal
		Category    string // normalized, see NormalizeCategory
		Description string
		Date        time.Time // calendar date, time-of-day is ignored
	}

	// Category is a user-defined spending category. The default set is never
	// persisted and lives in configuration.
	Category struct {
		ID        string
		UserID    string
		Name      string // normalized, unique per user across defaults and customs
		CreatedAt time.Time
	}

	Goal struct {
		UserID      string
		MonthlyGoal decimal.Decimal
	}
)

var (
	ErrInvalidType    = errors.New("type must be 'income' or 'expense'")
	ErrNegativeAmount = errors.New("amount cannot be negative")
	ErrEmptyCategory  = errors.New("empty category name")
	ErrZeroDate       = errors.New("date cannot be zero")
)

// NormalizeCategory canonicalizes a raw category name: surrounding whitespace
// is trimmed and every word is title-cased, so "  COMIDA " and "comida" name
// the same category. Empty input maps to empty output; callers must reject it.
func NormalizeCategory(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return cases.Title(language.Und).String(trimmed)
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if t.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}
