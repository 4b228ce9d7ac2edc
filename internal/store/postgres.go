package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/lib/pq"

	"bakery-admin-service/internal/domain"
)

// Predefined errors for store operations
var (
	ErrCategoryNotFound   = errors.New("store: category not found")
	ErrCategoryNameExists = errors.New("store: category name already exists")
	ErrProductNotFound    = errors.New("store: product not found")
	ErrProductIDExists    = errors.New("store: product id already exists")
	ErrTagNotFound        = errors.New("store: tag not found")
	ErrTagInUse           = errors.New("store: tag is referenced by products")
	ErrOptionNotFound     = errors.New("store: option not found")
	ErrTagAlreadyAttached = errors.New("store: tag already attached to product")
	ErrAdminNotFound      = errors.New("store: admin not found")
	ErrUsernameExists     = errors.New("store: username already exists")
	ErrOrderNotFound      = errors.New("store: order not found")
	ErrInsufficientStock  = errors.New("store: insufficient stock or update constraint violation")
)

// Postgres error codes inspected when classifying write failures.
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// PostgresStore implements the CategoryStorer, ProductStorer, TagStorer,
// AdminStorer and OrderStorer interfaces using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore instance.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// --- CategoryStorer Implementation ---

func (s *PostgresStore) CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	query := `
		INSERT INTO bakery.categories (category_name)
		VALUES ($1)
		RETURNING category_id, category_name, created_at, updated_at;
	`
	row := s.db.QueryRowContext(ctx, query, category.CategoryName)

	var createdCategory domain.Category
	err := row.Scan(
		&createdCategory.CategoryID,
		&createdCategory.CategoryName,
		&createdCategory.CreatedAt,
		&createdCategory.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			if strings.Contains(pqErr.Constraint, "categories_category_name_key") || strings.Contains(pqErr.Detail, "Key (category_name)") {
				return nil, ErrCategoryNameExists
			}
		}
		return nil, fmt.Errorf("store: CreateCategory failed to scan row: %w", err)
	}
	return &createdCategory, nil
}

func (s *PostgresStore) GetCategoryByID(ctx context.Context, id int64) (*domain.Category, error) {
	query := `
		SELECT category_id, category_name, created_at, updated_at
		FROM bakery.categories
		WHERE category_id = $1;
	`
	var category domain.Category
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&category.CategoryID,
		&category.CategoryName,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("store: GetCategoryByID failed to scan row: %w", err)
	}
	return &category, nil
}

func (s *PostgresStore) GetCategoryByName(ctx context.Context, name string) (*domain.Category, error) {
	query := `
		SELECT category_id, category_name, created_at, updated_at
		FROM bakery.categories
		WHERE category_name = $1;
	`
	var category domain.Category
	err := s.db.QueryRowContext(ctx, query, name).Scan(
		&category.CategoryID,
		&category.CategoryName,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("store: GetCategoryByName failed to scan row: %w", err)
	}
	return &category, nil
}

func (s *PostgresStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	query := `
		SELECT category_id, category_name, created_at, updated_at
		FROM bakery.categories
		ORDER BY category_name ASC;
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: ListCategories failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]domain.Category, 0)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.CategoryID, &c.CategoryName, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("store: ListCategories failed to scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListCategories iteration error: %w", err)
	}

	return categories, nil
}

func (s *PostgresStore) UpdateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	query := `
		UPDATE bakery.categories
		SET category_name = $1, updated_at = CURRENT_TIMESTAMP
		WHERE category_id = $2
		RETURNING category_id, category_name, created_at, updated_at;
	`
	var updatedCategory domain.Category
	err := s.db.QueryRowContext(ctx, query, category.CategoryName, category.CategoryID).Scan(
		&updatedCategory.CategoryID,
		&updatedCategory.CategoryName,
		&updatedCategory.CreatedAt,
		&updatedCategory.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			if strings.Contains(pqErr.Constraint, "categories_category_name_key") || strings.Contains(pqErr.Detail, "Key (category_name)") {
				return nil, ErrCategoryNameExists
			}
		}
		return nil, fmt.Errorf("store: UpdateCategory failed to scan row: %w", err)
	}
	return &updatedCategory, nil
}

// DeleteCategory removes a category. Products referencing it keep their rows
// with a cleared category reference (ON DELETE SET NULL on the products FK).
func (s *PostgresStore) DeleteCategory(ctx context.Context, id int64) error {
	query := `DELETE FROM bakery.categories WHERE category_id = $1;`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("store: DeleteCategory failed to execute delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: DeleteCategory failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (s *PostgresStore) ListProductsByCategory(ctx context.Context, categoryID int64) ([]domain.Product, error) {
	query := productSelectColumns + `
		FROM bakery.products
		WHERE category_id = $1
		ORDER BY created_at DESC;
	`
	rows, err := s.db.QueryContext(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("store: ListProductsByCategory failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var p domain.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("store: ListProductsByCategory failed to scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListProductsByCategory iteration error: %w", err)
	}
	return products, nil
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		log.Println("INFO: Closing database connection pool...")
		err := s.db.Close()
		if err != nil {
			log.Printf("ERROR: Failed to close database connection pool: %v", err)
			return err
		}
		log.Println("INFO: Database connection pool closed successfully.")
		return nil
	}
	return nil
}
