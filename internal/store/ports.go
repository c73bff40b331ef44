package store

import (
	"context"
	"time"

	"finanzas/internal/core"
)

// Ports for the document-store collaborator. Services depend on the narrow
// interface they need; SQLite implements all of them.
type (
	CategoryReader interface {
		// CategoriesByUser returns the persisted custom categories for a user.
		CategoriesByUser(ctx context.Context, userID string) ([]core.Category, error)
		// CategoryByName returns the custom category matching (userID, name),
		// or nil when no record exists.
		CategoryByName(ctx context.Context, userID, name string) (*core.Category, error)
	}

	CategoryWriter interface {
		AddCategory(ctx context.Context, c core.Category) error
		RenameCategoryRecord(ctx context.Context, id, newName string) error
		DeleteCategoryRecord(ctx context.Context, id string) error
	}

	TransactionReader interface {
		// TransactionsByUser returns every transaction for a user ordered by
		// (date ASC, id ASC) so aggregation iteration is reproducible.
		TransactionsByUser(ctx context.Context, userID string) ([]core.Transaction, error)
		// LatestTransactions returns the most recent transactions, date descending.
		LatestTransactions(ctx context.Context, userID string, limit int) ([]core.Transaction, error)
		// ExpensesSince returns expense transactions dated on or after since.
		ExpensesSince(ctx context.Context, userID string, since time.Time) ([]core.Transaction, error)
	}

	TransactionWriter interface {
		AddTransaction(ctx context.Context, t core.Transaction) error
		// TransactionByID returns a single transaction, or nil when missing.
		TransactionByID(ctx context.Context, id string) (*core.Transaction, error)
		// ReassignTransactions moves every transaction of fromCategory to
		// toCategory for the given user as one atomic batch, returning the
		// number of affected rows. Either all matched rows move or none do.
		ReassignTransactions(ctx context.Context, userID, fromCategory, toCategory string) (int64, error)
	}

	GoalReader interface {
		// GoalByUser returns the user's monthly goal, or nil when none is set.
		GoalByUser(ctx context.Context, userID string) (*core.Goal, error)
	}
)
