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

const adminSelectColumns = `
	SELECT admin_id, username, password_hash, created_at, updated_at`

func scanAdmin(row interface{ Scan(dest ...interface{}) error }, a *domain.Admin) error {
	return row.Scan(&a.AdminID, &a.Username, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
}

// --- AdminStorer Implementation ---

func (s *PostgresStore) CreateAdmin(ctx context.Context, admin *domain.Admin) (*domain.Admin, error) {
	query := `
		INSERT INTO bakery.admins (username, password_hash)
		VALUES ($1, $2)
		RETURNING admin_id, username, password_hash, created_at, updated_at;
	`
	var createdAdmin domain.Admin
	err := scanAdmin(s.db.QueryRowContext(ctx, query, admin.Username, admin.PasswordHash), &createdAdmin)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			if strings.Contains(pqErr.Constraint, "admins_username_key") || strings.Contains(pqErr.Detail, "Key (username)") {
				return nil, ErrUsernameExists
			}
		}
		return nil, fmt.Errorf("store: CreateAdmin failed to scan row: %w", err)
	}
	return &createdAdmin, nil
}

func (s *PostgresStore) GetAdminByID(ctx context.Context, id int64) (*domain.Admin, error) {
	query := adminSelectColumns + `
		FROM bakery.admins
		WHERE admin_id = $1;
	`
	var admin domain.Admin
	err := scanAdmin(s.db.QueryRowContext(ctx, query, id), &admin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("store: GetAdminByID failed to scan row: %w", err)
	}
	return &admin, nil
}

func (s *PostgresStore) GetAdminByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	query := adminSelectColumns + `
		FROM bakery.admins
		WHERE username = $1;
	`
	var admin domain.Admin
	err := scanAdmin(s.db.QueryRowContext(ctx, query, username), &admin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("store: GetAdminByUsername failed to scan row: %w", err)
	}
	return &admin, nil
}

func (s *PostgresStore) ListAdmins(ctx context.Context) ([]domain.Admin, error) {
	query := adminSelectColumns + `
		FROM bakery.admins
		ORDER BY admin_id ASC;
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: ListAdmins failed to query admins: %w", err)
	}
	defer rows.Close()

	admins := make([]domain.Admin, 0)
	for rows.Next() {
		var a domain.Admin
		if err := scanAdmin(rows, &a); err != nil {
			return nil, fmt.Errorf("store: ListAdmins failed to scan admin row: %w", err)
		}
		admins = append(admins, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListAdmins iteration error: %w", err)
	}
	return admins, nil
}

func (s *PostgresStore) UpdateAdmin(ctx context.Context, admin *domain.Admin) (*domain.Admin, error) {
	query := `
		UPDATE bakery.admins
		SET username = $1, password_hash = $2, updated_at = CURRENT_TIMESTAMP
		WHERE admin_id = $3
		RETURNING admin_id, username, password_hash, created_at, updated_at;
	`
	var updatedAdmin domain.Admin
	err := scanAdmin(s.db.QueryRowContext(ctx, query, admin.Username, admin.PasswordHash, admin.AdminID), &updatedAdmin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			if strings.Contains(pqErr.Constraint, "admins_username_key") || strings.Contains(pqErr.Detail, "Key (username)") {
				return nil, ErrUsernameExists
			}
		}
		return nil, fmt.Errorf("store: UpdateAdmin failed to scan row: %w", err)
	}
	return &updatedAdmin, nil
}

func (s *PostgresStore) DeleteAdmin(ctx context.Context, id int64) error {
	query := `DELETE FROM bakery.admins WHERE admin_id = $1;`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("store: DeleteAdmin failed to execute delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: DeleteAdmin failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrAdminNotFound
	}
	return nil
}
