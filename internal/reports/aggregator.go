// Package reports folds the transaction stream into the aggregate views the
// API serves: balance, per-category monthly trends, the current-month problem
// category, and the printable statement.
package reports

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"finanzas/internal/core"
	"finanzas/internal/store"
)

const monthKeyLayout = "2006-01"

// Aggregator computes derived views over a user's transactions. Buckets are
// rebuilt from the full stream on every call; nothing is cached or persisted.
type Aggregator struct {
	txReader    store.TransactionReader
	goalReader  store.GoalReader
	defaultGoal decimal.Decimal
	loc         *time.Location
	now         func() time.Time
}

// CategoryTrend is one row of the monthly report. Amounts are plain floats
// because the payload feeds chart rendering directly.
type CategoryTrend struct {
	CategoryName string               `json:"category_name"`
	TotalAmount  float64              `json:"total_amount"`
	MonthlyTrend []float64            `json:"monthly_trend"`
	Type         core.TransactionType `json:"type"`
}

// Diagnostic describes the highest-spending category of the current month
// measured against the user's monthly goal.
type Diagnostic struct {
	Category     string  `json:"category"`
	CurrentSpend float64 `json:"current_spend"`
	GoalAmount   float64 `json:"goal_amount"`
	ExceedsGoal  bool    `json:"exceeds_goal"`
}

func NewAggregator(txReader store.TransactionReader, goalReader store.GoalReader, defaultGoal decimal.Decimal, loc *time.Location) *Aggregator {
	return &Aggregator{
		txReader:    txReader,
		goalReader:  goalReader,
		defaultGoal: defaultGoal,
		loc:         loc,
		now:         time.Now,
	}
}

// CurrentBalance returns total income minus total expense across all dates.
func (a *Aggregator) CurrentBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	txs, err := a.txReader.TransactionsByUser(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}

	balance := decimal.Zero
	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			balance = balance.Add(tx.Amount)
		case core.Expense:
			balance = balance.Sub(tx.Amount)
		}
	}
	return balance, nil
}

// MonthlyTrend groups transactions by normalized category and buckets each
// group by YYYY-MM month key. A category with a single month of data gets a
// synthetic leading zero so charts always have two points to draw. The row
// type comes from the last transaction seen for the category; iteration is
// pinned to (date ASC, id ASC) store order, so the result is reproducible.
func (a *Aggregator) MonthlyTrend(ctx context.Context, userID string) ([]CategoryTrend, error) {
	txs, err := a.txReader.TransactionsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]map[string]decimal.Decimal)
	types := make(map[string]core.TransactionType)
	var order []string

	for _, tx := range txs {
		if !tx.Type.Valid() {
			continue
		}
		category := core.NormalizeCategory(tx.Category)
		if category == "" {
			category = core.SentinelCategory
		}

		months, ok := buckets[category]
		if !ok {
			months = make(map[string]decimal.Decimal)
			buckets[category] = months
			order = append(order, category)
		}
		monthKey := tx.Date.Format(monthKeyLayout)
		months[monthKey] = months[monthKey].Add(tx.Amount)
		types[category] = tx.Type
	}

	result := make([]CategoryTrend, 0, len(order))
	for _, category := range order {
		months := buckets[category]
		keys := make([]string, 0, len(months))
		for k := range months {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		total := decimal.Zero
		trend := make([]float64, 0, len(keys)+1)
		for _, k := range keys {
			total = total.Add(months[k])
			trend = append(trend, months[k].InexactFloat64())
		}
		if len(trend) == 1 {
			trend = []float64{0, trend[0]}
		}

		result = append(result, CategoryTrend{
			CategoryName: category,
			TotalAmount:  total.InexactFloat64(),
			MonthlyTrend: trend,
			Type:         types[category],
		})
	}
	return result, nil
}

// MostProblematic finds the category with the highest expense total since the
// first day of the current month (in the configured reference timezone) and
// compares that single category's spend against the user's monthly goal.
// Storage failures degrade to an "Error" sentinel instead of propagating, so
// callers can always render a placeholder. Every other read path in this
// package propagates; the asymmetry is deliberate.
func (a *Aggregator) MostProblematic(ctx context.Context, userID string) Diagnostic {
	goal := a.defaultGoal
	if g, err := a.goalReader.GoalByUser(ctx, userID); err != nil {
		slog.ErrorContext(ctx, "Goal lookup failed, serving degraded diagnostic",
			"user_id", userID, "error", err)
		return Diagnostic{Category: "Error"}
	} else if g != nil {
		goal = g.MonthlyGoal
	}

	now := a.now().In(a.loc)
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, a.loc)

	expenses, err := a.txReader.ExpensesSince(ctx, userID, startOfMonth)
	if err != nil {
		slog.ErrorContext(ctx, "Expense query failed, serving degraded diagnostic",
			"user_id", userID, "error", err)
		return Diagnostic{Category: "Error"}
	}

	totals := make(map[string]decimal.Decimal)
	for _, tx := range expenses {
		category := core.NormalizeCategory(tx.Category)
		if category == "" {
			category = core.SentinelCategory
		}
		totals[category] = totals[category].Add(tx.Amount)
	}

	worst := core.SentinelCategory
	maxSpend := decimal.Zero
	if len(totals) > 0 {
		// Sorted iteration pins the tie-break to the lexicographically
		// smaller category name.
		names := make([]string, 0, len(totals))
		for name := range totals {
			names = append(names, name)
		}
		sort.Strings(names)

		worst = names[0]
		maxSpend = totals[worst]
		for _, name := range names[1:] {
			if totals[name].GreaterThan(maxSpend) {
				worst = name
				maxSpend = totals[name]
			}
		}
	}

	return Diagnostic{
		Category:     worst,
		CurrentSpend: maxSpend.InexactFloat64(),
		GoalAmount:   goal.InexactFloat64(),
		ExceedsGoal:  maxSpend.GreaterThan(goal),
	}
}
