package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"bakery-admin-service/internal/domain"
)

const tagSelectColumns = `
	SELECT tag_id, name, required, multi_select, created_at, updated_at`

const optionSelectColumns = `
	SELECT option_id, tag_id, value, is_default, additional_price, recommendation_level, created_at, updated_at`

func scanTag(row interface{ Scan(dest ...interface{}) error }, t *domain.ProductTag) error {
	return row.Scan(&t.TagID, &t.Name, &t.Required, &t.MultiSelect, &t.CreatedAt, &t.UpdatedAt)
}

func scanOption(row interface{ Scan(dest ...interface{}) error }, o *domain.ProductTagOption) error {
	return row.Scan(
		&o.OptionID, &o.TagID, &o.Value, &o.IsDefault,
		&o.AdditionalPrice, &o.RecommendationLevel,
		&o.CreatedAt, &o.UpdatedAt,
	)
}

// --- TagStorer Implementation ---

func (s *PostgresStore) CreateTag(ctx context.Context, tag *domain.ProductTag) (*domain.ProductTag, error) {
	query := `
		INSERT INTO bakery.product_tags (name, required, multi_select)
		VALUES ($1, $2, $3)
		RETURNING tag_id, name, required, multi_select, created_at, updated_at;
	`
	var createdTag domain.ProductTag
	err := scanTag(s.db.QueryRowContext(ctx, query, tag.Name, tag.Required, tag.MultiSelect), &createdTag)
	if err != nil {
		return nil, fmt.Errorf("store: CreateTag failed to scan row: %w", err)
	}
	return &createdTag, nil
}

// GetTagByID loads a tag together with its full option set, which is what
// tag-policy validation needs.
func (s *PostgresStore) GetTagByID(ctx context.Context, id int64) (*domain.ProductTag, error) {
	query := tagSelectColumns + `
		FROM bakery.product_tags
		WHERE tag_id = $1;
	`
	var tag domain.ProductTag
	err := scanTag(s.db.QueryRowContext(ctx, query, id), &tag)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTagNotFound
		}
		return nil, fmt.Errorf("store: GetTagByID failed to scan row: %w", err)
	}

	options, err := s.ListOptionsByTag(ctx, id)
	if err != nil {
		return nil, err
	}
	tag.Options = options
	return &tag, nil
}

func (s *PostgresStore) ListTags(ctx context.Context) ([]domain.ProductTag, error) {
	query := tagSelectColumns + `
		FROM bakery.product_tags
		ORDER BY tag_id ASC;
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: ListTags failed to query tags: %w", err)
	}
	defer rows.Close()

	tags := make([]domain.ProductTag, 0)
	for rows.Next() {
		var t domain.ProductTag
		if err := scanTag(rows, &t); err != nil {
			return nil, fmt.Errorf("store: ListTags failed to scan tag row: %w", err)
		}
		tags = append(tags, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListTags iteration error: %w", err)
	}
	return tags, nil
}

func (s *PostgresStore) UpdateTag(ctx context.Context, tag *domain.ProductTag) (*domain.ProductTag, error) {
	query := `
		UPDATE bakery.product_tags
		SET name = $1, required = $2, multi_select = $3, updated_at = CURRENT_TIMESTAMP
		WHERE tag_id = $4
		RETURNING tag_id, name, required, multi_select, created_at, updated_at;
	`
	var updatedTag domain.ProductTag
	err := scanTag(s.db.QueryRowContext(ctx, query, tag.Name, tag.Required, tag.MultiSelect, tag.TagID), &updatedTag)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTagNotFound
		}
		return nil, fmt.Errorf("store: UpdateTag failed to scan row: %w", err)
	}
	return &updatedTag, nil
}

// DeleteTag removes a tag and (via cascade) its options. Deletion is blocked
// with ErrTagInUse while any product still references the tag, so product
// configurations never silently lose a tag.
func (s *PostgresStore) DeleteTag(ctx context.Context, id int64) error {
	var inUse bool
	checkQuery := `SELECT EXISTS(SELECT 1 FROM bakery.product_tag_relations WHERE tag_id = $1)`
	if err := s.db.QueryRowContext(ctx, checkQuery, id).Scan(&inUse); err != nil {
		return fmt.Errorf("store: DeleteTag failed to check tag usage: %w", err)
	}
	if inUse {
		return ErrTagInUse
	}

	query := `DELETE FROM bakery.product_tags WHERE tag_id = $1;`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("store: DeleteTag failed to execute delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: DeleteTag failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrTagNotFound
	}
	return nil
}

func (s *PostgresStore) CreateOption(ctx context.Context, option *domain.ProductTagOption) (*domain.ProductTagOption, error) {
	query := `
		INSERT INTO bakery.product_tag_options (tag_id, value, is_default, additional_price, recommendation_level)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING option_id, tag_id, value, is_default, additional_price, recommendation_level, created_at, updated_at;
	`
	var createdOption domain.ProductTagOption
	err := scanOption(s.db.QueryRowContext(ctx, query,
		option.TagID, option.Value, option.IsDefault, option.AdditionalPrice, option.RecommendationLevel,
	), &createdOption)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
			return nil, ErrTagNotFound
		}
		return nil, fmt.Errorf("store: CreateOption failed to scan row: %w", err)
	}
	return &createdOption, nil
}

func (s *PostgresStore) GetOptionByID(ctx context.Context, id int64) (*domain.ProductTagOption, error) {
	query := optionSelectColumns + `
		FROM bakery.product_tag_options
		WHERE option_id = $1;
	`
	var option domain.ProductTagOption
	err := scanOption(s.db.QueryRowContext(ctx, query, id), &option)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOptionNotFound
		}
		return nil, fmt.Errorf("store: GetOptionByID failed to scan row: %w", err)
	}
	return &option, nil
}

func (s *PostgresStore) ListOptionsByTag(ctx context.Context, tagID int64) ([]domain.ProductTagOption, error) {
	query := optionSelectColumns + `
		FROM bakery.product_tag_options
		WHERE tag_id = $1
		ORDER BY option_id ASC;
	`
	rows, err := s.db.QueryContext(ctx, query, tagID)
	if err != nil {
		return nil, fmt.Errorf("store: ListOptionsByTag failed to query options: %w", err)
	}
	defer rows.Close()

	options := make([]domain.ProductTagOption, 0)
	for rows.Next() {
		var o domain.ProductTagOption
		if err := scanOption(rows, &o); err != nil {
			return nil, fmt.Errorf("store: ListOptionsByTag failed to scan option row: %w", err)
		}
		options = append(options, o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListOptionsByTag iteration error: %w", err)
	}
	return options, nil
}

func (s *PostgresStore) DeleteOption(ctx context.Context, id int64) error {
	query := `DELETE FROM bakery.product_tag_options WHERE option_id = $1;`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("store: DeleteOption failed to execute delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: DeleteOption failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrOptionNotFound
	}
	return nil
}

// --- Product <-> Tag associations ---

func (s *PostgresStore) ListTagsByProduct(ctx context.Context, productID string) ([]domain.ProductTag, error) {
	query := `
		SELECT t.tag_id, t.name, t.required, t.multi_select, t.created_at, t.updated_at
		FROM bakery.product_tags t
		INNER JOIN bakery.product_tag_relations ptr ON ptr.tag_id = t.tag_id
		WHERE ptr.product_id = $1
		ORDER BY t.tag_id ASC;
	`
	rows, err := s.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("store: ListTagsByProduct failed to query tags: %w", err)
	}
	defer rows.Close()

	tags := make([]domain.ProductTag, 0)
	for rows.Next() {
		var t domain.ProductTag
		if err := scanTag(rows, &t); err != nil {
			return nil, fmt.Errorf("store: ListTagsByProduct failed to scan tag row: %w", err)
		}
		tags = append(tags, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListTagsByProduct iteration error: %w", err)
	}
	return tags, nil
}

func (s *PostgresStore) ListProductTagOptions(ctx context.Context, productID string, tagID int64) ([]domain.ProductTagOption, error) {
	query := `
		SELECT o.option_id, o.tag_id, o.value, o.is_default, o.additional_price, o.recommendation_level, o.created_at, o.updated_at
		FROM bakery.product_tag_options o
		INNER JOIN bakery.product_tag_option_relations ptor ON ptor.option_id = o.option_id
		WHERE ptor.product_id = $1 AND o.tag_id = $2
		ORDER BY o.option_id ASC;
	`
	rows, err := s.db.QueryContext(ctx, query, productID, tagID)
	if err != nil {
		return nil, fmt.Errorf("store: ListProductTagOptions failed to query options: %w", err)
	}
	defer rows.Close()

	options := make([]domain.ProductTagOption, 0)
	for rows.Next() {
		var o domain.ProductTagOption
		if err := scanOption(rows, &o); err != nil {
			return nil, fmt.Errorf("store: ListProductTagOptions failed to scan option row: %w", err)
		}
		options = append(options, o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListProductTagOptions iteration error: %w", err)
	}
	return options, nil
}

// AddProductTags attaches validated tag selections to an existing product,
// one transaction for all rows.
func (s *PostgresStore) AddProductTags(ctx context.Context, productID string, selections []domain.TagSelection) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: AddProductTags failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insertTagRelation := `
		INSERT INTO bakery.product_tag_relations (product_id, tag_id)
		VALUES ($1, $2);
	`
	insertOptionRelation := `
		INSERT INTO bakery.product_tag_option_relations (product_id, option_id, is_default)
		VALUES ($1, $2, $3);
	`
	for _, sel := range selections {
		if _, err := tx.ExecContext(ctx, insertTagRelation, productID, sel.TagID); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) {
				switch pqErr.Code {
				case pqUniqueViolation:
					return ErrTagAlreadyAttached
				case pqForeignKeyViolation:
					return ErrTagNotFound
				}
			}
			return fmt.Errorf("store: AddProductTags failed to insert tag relation (tagId=%d): %w", sel.TagID, err)
		}
		for _, optionID := range sel.OptionIDs {
			if _, err := tx.ExecContext(ctx, insertOptionRelation, productID, optionID, false); err != nil {
				var pqErr *pq.Error
				if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
					return ErrOptionNotFound
				}
				return fmt.Errorf("store: AddProductTags failed to insert option relation (optionId=%d): %w", optionID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: AddProductTags failed to commit: %w", err)
	}
	return nil
}

// RemoveProductTags drops the option associations belonging to each tag and
// then the tag associations themselves, transactionally.
func (s *PostgresStore) RemoveProductTags(ctx context.Context, productID string, tagIDs []int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: RemoveProductTags failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	deleteOptionRelations := `
		DELETE FROM bakery.product_tag_option_relations ptor
		USING bakery.product_tag_options o
		WHERE ptor.option_id = o.option_id
		  AND ptor.product_id = $1
		  AND o.tag_id = $2;
	`
	deleteTagRelation := `
		DELETE FROM bakery.product_tag_relations
		WHERE product_id = $1 AND tag_id = $2;
	`
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx, deleteOptionRelations, productID, tagID); err != nil {
			return fmt.Errorf("store: RemoveProductTags failed to delete option relations (tagId=%d): %w", tagID, err)
		}
		if _, err := tx.ExecContext(ctx, deleteTagRelation, productID, tagID); err != nil {
			return fmt.Errorf("store: RemoveProductTags failed to delete tag relation (tagId=%d): %w", tagID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: RemoveProductTags failed to commit: %w", err)
	}
	return nil
}

// RemoveProductTagOption deletes a single option association. When no option
// associations remain for the (product, tag) pair the tag association row is
// removed too, keeping the association table free of tag links with no
// selected options.
func (s *PostgresStore) RemoveProductTagOption(ctx context.Context, productID string, tagID, optionID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: RemoveProductTagOption failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	deleteOptionRelation := `
		DELETE FROM bakery.product_tag_option_relations
		WHERE product_id = $1 AND option_id = $2;
	`
	result, err := tx.ExecContext(ctx, deleteOptionRelation, productID, optionID)
	if err != nil {
		return fmt.Errorf("store: RemoveProductTagOption failed to delete option relation: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: RemoveProductTagOption failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrOptionNotFound
	}

	countRemaining := `
		SELECT COUNT(*)
		FROM bakery.product_tag_option_relations ptor
		INNER JOIN bakery.product_tag_options o ON o.option_id = ptor.option_id
		WHERE ptor.product_id = $1 AND o.tag_id = $2;
	`
	var remaining int
	if err := tx.QueryRowContext(ctx, countRemaining, productID, tagID).Scan(&remaining); err != nil {
		return fmt.Errorf("store: RemoveProductTagOption failed to count remaining options: %w", err)
	}

	if remaining == 0 {
		deleteTagRelation := `
			DELETE FROM bakery.product_tag_relations
			WHERE product_id = $1 AND tag_id = $2;
		`
		if _, err := tx.ExecContext(ctx, deleteTagRelation, productID, tagID); err != nil {
			return fmt.Errorf("store: RemoveProductTagOption failed to delete empty tag relation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: RemoveProductTagOption failed to commit: %w", err)
	}
	return nil
}
