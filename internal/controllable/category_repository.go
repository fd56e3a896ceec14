package controllable

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// CategoryRepository reads the category reference data.
type CategoryRepository interface {
	Exists(ctx context.Context, name string) error
	List(ctx context.Context) ([]string, error)
}

// SQLiteCategoryRepository implements CategoryRepository using SQLite.
type SQLiteCategoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a new SQLite-backed category repository.
func NewCategoryRepository(db *sql.DB) *SQLiteCategoryRepository {
	return &SQLiteCategoryRepository{db: db}
}

// Exists returns nil if the category is known, ErrCategoryNotFound otherwise.
func (r *SQLiteCategoryRepository) Exists(ctx context.Context, name string) error {
	var found string
	err := r.db.QueryRowContext(ctx,
		"SELECT category_name FROM categories WHERE category_name = ?", name,
	).Scan(&found)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("looking up category: %w", err)
	}
	return nil
}

// List returns all category names in alphabetical order.
func (r *SQLiteCategoryRepository) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT category_name FROM categories ORDER BY category_name")
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
