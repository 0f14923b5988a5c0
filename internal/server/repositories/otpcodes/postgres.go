// Package otpcodes provides a PostgreSQL-backed repository for one-time
// verification codes.
package otpcodes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/common"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/dbx"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new one-time code row.
func (r *PostgresRepository) Create(ctx context.Context, code *models.OneTimeCode) (*models.OneTimeCode, error) {
	query := `
		INSERT INTO one_time_codes (id, owner_key, purpose, code, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		code.ID, code.Owner.String(), code.Purpose, code.Code, code.ExpiresAt).
		Scan(&code.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return code, nil
}

// FindValid returns the code row matching owner, purpose, and exact code
// value whose expiry is strictly after now, or common.ErrorNotFound. A row
// expiring exactly at now is already unusable.
func (r *PostgresRepository) FindValid(ctx context.Context, owner models.OwnerKey, purpose models.Purpose, code string, now time.Time) (*models.OneTimeCode, error) {
	query := `
		SELECT id, owner_key, purpose, code, expires_at, created_at
		FROM one_time_codes
		WHERE owner_key = $1 AND purpose = $2 AND code = $3 AND expires_at > $4
	`
	row := r.db.QueryRowContext(ctx, query, owner.String(), purpose, code, now)

	result := &models.OneTimeCode{}
	var ownerKey string
	err := row.Scan(&result.ID, &ownerKey, &result.Purpose, &result.Code,
		&result.ExpiresAt, &result.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	result.Owner = models.ParseOwnerKey(ownerKey)
	return result, nil
}

// LatestCreatedAt returns the creation time of the most recent code for
// (owner, purpose), or common.ErrorNotFound when none exists. Used for the
// per-owner resend cooldown.
func (r *PostgresRepository) LatestCreatedAt(ctx context.Context, owner models.OwnerKey, purpose models.Purpose) (time.Time, error) {
	query := `
		SELECT created_at
		FROM one_time_codes
		WHERE owner_key = $1 AND purpose = $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	var createdAt time.Time
	err := r.db.QueryRowContext(ctx, query, owner.String(), purpose).Scan(&createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, common.ErrorNotFound
		}
		return time.Time{}, fmt.Errorf("db error: %w", err)
	}
	return createdAt, nil
}

// DeleteByOwner removes every code filed under (owner, purpose). The issuer
// calls this before inserting so at most one usable code exists per pair.
func (r *PostgresRepository) DeleteByOwner(ctx context.Context, owner models.OwnerKey, purpose models.Purpose) error {
	query := `
		DELETE FROM one_time_codes
		WHERE owner_key = $1 AND purpose = $2
	`
	if _, err := r.db.ExecContext(ctx, query, owner.String(), purpose); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteByID removes a single code row, consuming it.
func (r *PostgresRepository) DeleteByID(ctx context.Context, id string) error {
	query := `
		DELETE FROM one_time_codes
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteExpired removes rows whose expiry has passed and reports how many
// were dropped. Best-effort housekeeping; callers may ignore failures.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM one_time_codes
		WHERE expires_at <= $1
	`
	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return affected, nil
}
