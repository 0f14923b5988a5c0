// Package accounts provides a PostgreSQL-backed repository for account rows.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/common"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/dbx"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/models"
)

const pgUniqueViolation = "23505"

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// Create inserts a new account. The unique constraint on email is the final
// authority against concurrent signups; a violation is reported as
// common.ErrAccountExists.
func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query := `
		INSERT INTO accounts (id, name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		account.ID, account.Name, account.Email, account.PasswordHash, account.Role).
		Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrAccountExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return account, nil
}

// GetByID returns the account with the given id or common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `
		SELECT id, name, email, password_hash, role, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail returns the account with the given email or common.ErrorNotFound.
// Emails are matched exactly as stored.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `
		SELECT id, name, email, password_hash, role, created_at, updated_at
		FROM accounts
		WHERE email = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

// Update persists name, email, password hash, and role for an existing
// account. An email collision with another account is reported as
// common.ErrEmailTaken.
func (r *PostgresRepository) Update(ctx context.Context, account *models.Account) error {
	query := `
		UPDATE accounts
		SET name = $2, email = $3, password_hash = $4, role = $5, updated_at = now()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		account.ID, account.Name, account.Email, account.PasswordHash, account.Role)
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrEmailTaken
		}
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// List returns all accounts ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.Account, error) {
	query := `
		SELECT id, name, email, password_hash, role, created_at, updated_at
		FROM accounts
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Account
	for rows.Next() {
		account := &models.Account{}
		if err := rows.Scan(&account.ID, &account.Name, &account.Email,
			&account.PasswordHash, &account.Role, &account.CreatedAt, &account.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.Account, error) {
	account := &models.Account{}
	err := row.Scan(&account.ID, &account.Name, &account.Email,
		&account.PasswordHash, &account.Role, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return account, nil
}
