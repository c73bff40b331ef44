package categories

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"finanzas/internal/core"
	"finanzas/internal/errs"
	"finanzas/internal/store"
)

// Service implements category mutations. Rename and delete cascade onto the
// user's transactions through an atomic batch reassignment. The category
// record update and the transaction batch are two separate store operations;
// a concurrent reader may observe the record changed before the transactions
// move. The batch itself is all-or-nothing.
type Service struct {
	registry  *Registry
	catReader store.CategoryReader
	catWriter store.CategoryWriter
	txWriter  store.TransactionWriter
}

type RenameResult struct {
	OldName    string
	NewName    string
	Reassigned int64
}

type DeleteResult struct {
	Deleted    int64
	Reassigned int64
}

func NewService(registry *Registry, catReader store.CategoryReader, catWriter store.CategoryWriter, txWriter store.TransactionWriter) *Service {
	return &Service{
		registry:  registry,
		catReader: catReader,
		catWriter: catWriter,
		txWriter:  txWriter,
	}
}

// Create persists a new custom category. The name is normalized before the
// uniqueness check, so "comida" conflicts with an existing "Comida".
func (s *Service) Create(ctx context.Context, userID, rawName string) (core.Category, error) {
	name := core.NormalizeCategory(rawName)
	if name == "" {
		return core.Category{}, errs.NewValidationError("category name is required")
	}

	for _, existing := range s.registry.List(ctx, userID) {
		if existing == name {
			return core.Category{}, errs.NewConflictError(fmt.Sprintf("category '%s' already exists", name))
		}
	}

	c := core.Category{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.catWriter.AddCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("persist category: %w", err)
	}

	slog.InfoContext(ctx, "Category created", "user_id", userID, "name", name)
	return c, nil
}

// Rename updates a custom category record and reassigns every matching
// transaction to the new name. Renaming a default category skips the record
// update (defaults are not persisted) and only moves transactions; the old
// default name reappears in future listings. Known limitation.
func (s *Service) Rename(ctx context.Context, userID, oldRaw, newRaw string) (RenameResult, error) {
	oldName := core.NormalizeCategory(oldRaw)
	newName := core.NormalizeCategory(newRaw)
	if oldName == "" || newName == "" {
		return RenameResult{}, errs.NewValidationError("old and new category names are required")
	}

	record, err := s.catReader.CategoryByName(ctx, userID, oldName)
	if err != nil {
		return RenameResult{}, fmt.Errorf("look up category '%s': %w", oldName, err)
	}

	switch {
	case record != nil:
		if err := s.catWriter.RenameCategoryRecord(ctx, record.ID, newName); err != nil {
			return RenameResult{}, fmt.Errorf("rename category record: %w", err)
		}
	case !s.registry.IsDefault(oldName):
		return RenameResult{}, errs.NewNotFoundError(fmt.Sprintf("category '%s' not found", oldName))
	}

	count, err := s.txWriter.ReassignTransactions(ctx, userID, oldName, newName)
	if err != nil {
		return RenameResult{}, fmt.Errorf("reassign transactions: %w", err)
	}

	slog.InfoContext(ctx, "Category renamed",
		"user_id", userID, "old_name", oldName, "new_name", newName, "reassigned", count)
	return RenameResult{OldName: oldName, NewName: newName, Reassigned: count}, nil
}

// Delete removes a custom category record and reassigns its transactions to
// the sentinel. Default categories cannot be deleted; the check happens
// before any storage mutation.
func (s *Service) Delete(ctx context.Context, userID, rawName string) (DeleteResult, error) {
	name := core.NormalizeCategory(rawName)
	if name == "" {
		return DeleteResult{}, errs.NewValidationError("category name is required")
	}
	if s.registry.IsDefault(name) {
		return DeleteResult{}, errs.NewForbiddenError(fmt.Sprintf("category '%s' is a default category and cannot be deleted", name))
	}

	record, err := s.catReader.CategoryByName(ctx, userID, name)
	if err != nil {
		return DeleteResult{}, fmt.Errorf("look up category '%s': %w", name, err)
	}
	if record == nil {
		return DeleteResult{}, errs.NewNotFoundError(fmt.Sprintf("category '%s' not found among custom categories", name))
	}

	if err := s.catWriter.DeleteCategoryRecord(ctx, record.ID); err != nil {
		return DeleteResult{}, fmt.Errorf("delete category record: %w", err)
	}

	count, err := s.txWriter.ReassignTransactions(ctx, userID, name, core.SentinelCategory)
	if err != nil {
		return DeleteResult{}, fmt.Errorf("reassign transactions: %w", err)
	}

	slog.InfoContext(ctx, "Category deleted",
		"user_id", userID, "name", name, "reassigned", count)
	return DeleteResult{Deleted: 1, Reassigned: count}, nil
}
