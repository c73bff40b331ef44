// Package categories implements the category engine: the merged default +
// custom listing and the create/rename/delete operations with their
// transaction cascades.
package categories

import (
	"context"
	"log/slog"
	"sort"

	"finanzas/internal/core"
	"finanzas/internal/store"
)

// Registry merges the configured default category set with a user's custom
// categories. It never mutates storage.
type Registry struct {
	reader   store.CategoryReader
	defaults []string
}

func NewRegistry(reader store.CategoryReader, defaults []string) *Registry {
	return &Registry{
		reader:   reader,
		defaults: append([]string(nil), defaults...),
	}
}

// List returns the effective category set for a user: defaults plus custom
// names, deduplicated, sorted ascending, with the sentinel forced last. When
// storage is unavailable it degrades to the default set alone instead of
// failing.
func (r *Registry) List(ctx context.Context, userID string) []string {
	custom, err := r.reader.CategoriesByUser(ctx, userID)
	if err != nil {
		slog.WarnContext(ctx, "Category storage unavailable, serving defaults only",
			"user_id", userID, "error", err)
		return append([]string(nil), r.defaults...)
	}

	set := make(map[string]struct{}, len(r.defaults)+len(custom)+1)
	for _, name := range r.defaults {
		set[name] = struct{}{}
	}
	for _, c := range custom {
		if name := core.NormalizeCategory(c.Name); name != "" {
			set[name] = struct{}{}
		}
	}

	// The sentinel never participates in the sort; it is re-appended last.
	delete(set, core.SentinelCategory)

	names := make([]string, 0, len(set)+1)
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return append(names, core.SentinelCategory)
}

// IsDefault reports whether name belongs to the configured default set.
func (r *Registry) IsDefault(name string) bool {
	for _, d := range r.defaults {
		if d == name {
			return true
		}
	}
	return false
}
