package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"finanzas/internal/core"
)

const dateLayout = "2006-01-02"

// SQLite persists transactions, custom categories and goals in a single
// SQLite database. It implements every port in this package.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(dbPath string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CategoriesByUser implements CategoryReader.
func (s *SQLite) CategoriesByUser(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, created_at FROM categories WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

// CategoryByName implements CategoryReader.
func (s *SQLite) CategoryByName(ctx context.Context, userID, name string) (*core.Category, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, created_at FROM categories WHERE user_id = ? AND name = ? LIMIT 1`,
		userID, name)

	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// AddCategory implements CategoryWriter.
func (s *SQLite) AddCategory(ctx context.Context, c core.Category) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (id, user_id, name, created_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, c.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// RenameCategoryRecord implements CategoryWriter.
func (s *SQLite) RenameCategoryRecord(ctx context.Context, id, newName string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE categories SET name = ? WHERE id = ?`, newName, id)
	if err != nil {
		return fmt.Errorf("rename category: %w", err)
	}
	return nil
}

// DeleteCategoryRecord implements CategoryWriter.
func (s *SQLite) DeleteCategoryRecord(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// AddTransaction implements TransactionWriter.
func (s *SQLite) AddTransaction(ctx context.Context, t core.Transaction) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, type, amount, category, description, date)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, string(t.Type), t.Amount.String(), t.Category, t.Description,
		t.Date.Format(dateLayout))
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// TransactionByID implements TransactionWriter.
func (s *SQLite) TransactionByID(ctx context.Context, id string) (*core.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, type, amount, category, description, date
		 FROM transactions WHERE id = ? LIMIT 1`, id)

	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// TransactionsByUser implements TransactionReader. Rows come back ordered by
// (date ASC, id ASC) so callers iterate deterministically.
func (s *SQLite) TransactionsByUser(ctx context.Context, userID string) ([]core.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT id, user_id, type, amount, category, description, date
		 FROM transactions WHERE user_id = ? ORDER BY date ASC, id ASC`, userID)
}

// LatestTransactions implements TransactionReader.
func (s *SQLite) LatestTransactions(ctx context.Context, userID string, limit int) ([]core.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT id, user_id, type, amount, category, description, date
		 FROM transactions WHERE user_id = ? ORDER BY date DESC, id DESC LIMIT ?`, userID, limit)
}

// ExpensesSince implements TransactionReader. ISO dates compare correctly as
// strings, so the range filter runs inside SQLite.
func (s *SQLite) ExpensesSince(ctx context.Context, userID string, since time.Time) ([]core.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT id, user_id, type, amount, category, description, date
		 FROM transactions WHERE user_id = ? AND type = 'expense' AND date >= ?
		 ORDER BY date ASC, id ASC`, userID, since.Format(dateLayout))
}

// ReassignTransactions implements TransactionWriter. The whole batch runs in
// one transaction: every matched row moves or none do.
func (s *SQLite) ReassignTransactions(ctx context.Context, userID, fromCategory, toCategory string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin reassign: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE transactions SET category = ? WHERE user_id = ? AND category = ?`,
		toCategory, userID, fromCategory)
	if err != nil {
		return 0, fmt.Errorf("reassign transactions: %w", err)
	}

	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count reassigned rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit reassign: %w", err)
	}
	return count, nil
}

// GoalByUser implements GoalReader.
func (s *SQLite) GoalByUser(ctx context.Context, userID string) (*core.Goal, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT monthly_goal FROM goals WHERE user_id = ? LIMIT 1`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query goal: %w", err)
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("parse goal amount %q: %w", raw, err)
	}
	return &core.Goal{UserID: userID, MonthlyGoal: amount}, nil
}

// UpsertGoal stores a user's monthly goal. The core never calls this; it
// exists for seeding and for whatever writes the settings collection.
func (s *SQLite) UpsertGoal(ctx context.Context, g core.Goal) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO goals (user_id, monthly_goal) VALUES (?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET monthly_goal = excluded.monthly_goal`,
		g.UserID, g.MonthlyGoal.String())
	if err != nil {
		return fmt.Errorf("upsert goal: %w", err)
	}
	return nil
}

func (s *SQLite) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t       core.Transaction
		txType  string
		rawAmt  string
		rawDate string
	)
	if err := row.Scan(&t.ID, &t.UserID, &txType, &rawAmt, &t.Category, &t.Description, &rawDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return t, err
		}
		return t, fmt.Errorf("scan transaction: %w", err)
	}

	amount, err := decimal.NewFromString(rawAmt)
	if err != nil {
		return t, fmt.Errorf("parse amount %q: %w", rawAmt, err)
	}
	date, err := time.Parse(dateLayout, rawDate)
	if err != nil {
		return t, fmt.Errorf("parse date %q: %w", rawDate, err)
	}

	t.Type = core.TransactionType(txType)
	t.Amount = amount
	t.Date = date
	return t, nil
}

func scanCategory(row rowScanner) (core.Category, error) {
	var (
		c      core.Category
		rawCre string
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &rawCre); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c, err
		}
		return c, fmt.Errorf("scan category: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339, rawCre)
	if err != nil {
		return c, fmt.Errorf("parse created_at %q: %w", rawCre, err)
	}
	c.CreatedAt = createdAt
	return c, nil
}
