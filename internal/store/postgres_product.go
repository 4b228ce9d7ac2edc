package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"bakery-admin-service/internal/domain"
)

const productSelectColumns = `
	SELECT product_id, name, description, price, stock, category_id, status, image_url, created_at, updated_at`

// scanProduct scans one product row from either *sql.Row or *sql.Rows.
func scanProduct(row interface{ Scan(dest ...interface{}) error }, p *domain.Product) error {
	return row.Scan(
		&p.ProductID, &p.Name, &p.Description, &p.Price, &p.Stock,
		&p.CategoryID, &p.Status, &p.ImageURL,
		&p.CreatedAt, &p.UpdatedAt,
	)
}

// classifyProductWriteError maps pq constraint violations onto store
// sentinels: duplicate generated id -> ErrProductIDExists, dangling category
// reference -> ErrCategoryNotFound.
func classifyProductWriteError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}
	switch pqErr.Code {
	case pqUniqueViolation:
		if strings.Contains(pqErr.Constraint, "products_pkey") || strings.Contains(pqErr.Detail, "Key (product_id)") {
			return ErrProductIDExists
		}
	case pqForeignKeyViolation:
		if strings.Contains(pqErr.Constraint, "category") {
			return ErrCategoryNotFound
		}
	}
	return nil
}

// --- ProductStorer Implementation ---

// CreateProductWithTags inserts the product row plus one tag association row
// per selection and one option association row per selected option, all in a
// single transaction. Either every row commits or none survive.
func (s *PostgresStore) CreateProductWithTags(ctx context.Context, product *domain.Product, selections []domain.TagSelection) (*domain.Product, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: CreateProductWithTags failed to begin transaction: %w", err)
	}
	// Rollback is a no-op once Commit has succeeded; this releases the
	// transaction on every other exit path, panics included.
	defer tx.Rollback()

	insertProduct := `
		INSERT INTO bakery.products
			(product_id, name, description, price, stock, category_id, status, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING product_id, name, description, price, stock, category_id, status, image_url, created_at, updated_at;
	`
	var createdProduct domain.Product
	err = scanProduct(tx.QueryRowContext(ctx, insertProduct,
		product.ProductID, product.Name, product.Description, product.Price,
		product.Stock, product.CategoryID, product.Status, product.ImageURL,
	), &createdProduct)
	if err != nil {
		if mapped := classifyProductWriteError(err); mapped != nil {
			return nil, mapped
		}
		return nil, fmt.Errorf("store: CreateProductWithTags failed to insert product: %w", err)
	}

	insertTagRelation := `
		INSERT INTO bakery.product_tag_relations (product_id, tag_id)
		VALUES ($1, $2);
	`
	insertOptionRelation := `
		INSERT INTO bakery.product_tag_option_relations (product_id, option_id, is_default)
		VALUES ($1, $2, $3);
	`
	for _, sel := range selections {
		if _, err := tx.ExecContext(ctx, insertTagRelation, createdProduct.ProductID, sel.TagID); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
				return nil, ErrTagNotFound
			}
			return nil, fmt.Errorf("store: CreateProductWithTags failed to insert tag relation (tagId=%d): %w", sel.TagID, err)
		}
		for _, optionID := range sel.OptionIDs {
			if _, err := tx.ExecContext(ctx, insertOptionRelation, createdProduct.ProductID, optionID, false); err != nil {
				var pqErr *pq.Error
				if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
					return nil, ErrOptionNotFound
				}
				return nil, fmt.Errorf("store: CreateProductWithTags failed to insert option relation (optionId=%d): %w", optionID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: CreateProductWithTags failed to commit: %w", err)
	}
	return &createdProduct, nil
}

func (s *PostgresStore) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	query := productSelectColumns + `
		FROM bakery.products
		WHERE product_id = $1;
	`
	var product domain.Product
	err := scanProduct(s.db.QueryRowContext(ctx, query, id), &product)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("store: GetProductByID failed to scan row: %w", err)
	}
	return &product, nil
}

func (s *PostgresStore) GetProductByName(ctx context.Context, name string) (*domain.Product, error) {
	query := productSelectColumns + `
		FROM bakery.products
		WHERE name = $1;
	`
	var product domain.Product
	err := scanProduct(s.db.QueryRowContext(ctx, query, name), &product)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("store: GetProductByName failed to scan row: %w", err)
	}
	return &product, nil
}

func (s *PostgresStore) ListProducts(ctx context.Context, params ListParams) ([]domain.Product, int, error) {
	countQuery := `SELECT COUNT(*) FROM bakery.products;`
	var totalCount int
	if err := s.db.QueryRowContext(ctx, countQuery).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("store: ListProducts failed to count products: %w", err)
	}

	if totalCount == 0 {
		return []domain.Product{}, 0, nil
	}

	query := productSelectColumns + `
		FROM bakery.products
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2;
	`
	rows, err := s.db.QueryContext(ctx, query, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("store: ListProducts failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0, params.PageSize)
	for rows.Next() {
		var p domain.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, 0, fmt.Errorf("store: ListProducts failed to scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("store: ListProducts iteration error: %w", err)
	}

	return products, totalCount, nil
}

func (s *PostgresStore) UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	query := `
		UPDATE bakery.products
		SET name = $1, description = $2, price = $3, stock = $4,
			category_id = $5, status = $6, image_url = $7, updated_at = CURRENT_TIMESTAMP
		WHERE product_id = $8
		RETURNING product_id, name, description, price, stock, category_id, status, image_url, created_at, updated_at;
	`
	var updatedProduct domain.Product
	err := scanProduct(s.db.QueryRowContext(ctx, query,
		product.Name, product.Description, product.Price, product.Stock,
		product.CategoryID, product.Status, product.ImageURL, product.ProductID,
	), &updatedProduct)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		if mapped := classifyProductWriteError(err); mapped != nil {
			return nil, mapped
		}
		return nil, fmt.Errorf("store: UpdateProduct failed to scan row: %w", err)
	}
	return &updatedProduct, nil
}

// DeleteProduct removes the product row. Tag and option association rows go
// with it (ON DELETE CASCADE on both junction tables), so no orphan
// association rows survive.
func (s *PostgresStore) DeleteProduct(ctx context.Context, id string) error {
	query := `DELETE FROM bakery.products WHERE product_id = $1;`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("store: DeleteProduct failed to execute delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: DeleteProduct failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// UpdateStock adjusts stock by quantityChange, refusing to go below zero.
// The "stock + $1 >= 0" clause acts as the precondition; when it fails the
// product is checked separately to distinguish not-found from insufficient
// stock.
func (s *PostgresStore) UpdateStock(ctx context.Context, productID string, quantityChange int32) (*domain.Product, error) {
	query := `
		UPDATE bakery.products
		SET stock = stock + $1, updated_at = CURRENT_TIMESTAMP
		WHERE product_id = $2 AND stock + $1 >= 0
		RETURNING product_id, name, description, price, stock, category_id, status, image_url, created_at, updated_at;
	`
	var updatedProduct domain.Product
	err := scanProduct(s.db.QueryRowContext(ctx, query, quantityChange, productID), &updatedProduct)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			var exists bool
			checkExistenceQuery := `SELECT EXISTS(SELECT 1 FROM bakery.products WHERE product_id = $1)`
			if scanErr := s.db.QueryRowContext(ctx, checkExistenceQuery, productID).Scan(&exists); scanErr != nil {
				return nil, fmt.Errorf("store: UpdateStock failed to check product existence: %w", scanErr)
			}
			if !exists {
				return nil, ErrProductNotFound
			}
			return nil, ErrInsufficientStock
		}
		return nil, fmt.Errorf("store: UpdateStock failed to scan row: %w", err)
	}
	return &updatedProduct, nil
}
