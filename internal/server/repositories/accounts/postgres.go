package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/restaurant/internal/common"
	"github.com/dmitrijs2005/restaurant/internal/dbx"
	"github.com/dmitrijs2005/restaurant/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, acc *models.Account) error {
	query := `
		INSERT INTO accounts (id, email, display_name, salt, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query, acc.ID, acc.Email, acc.DisplayName, acc.Salt, acc.PasswordHash).
		Scan(&acc.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.get(ctx, `
		SELECT id, email, display_name, salt, password_hash, failed_attempts, locked_until, created_at
		FROM accounts
		WHERE email = $1
	`, email)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return r.get(ctx, `
		SELECT id, email, display_name, salt, password_hash, failed_attempts, locked_until, created_at
		FROM accounts
		WHERE id = $1
	`, id)
}

func (r *PostgresRepository) get(ctx context.Context, query string, arg string) (*models.Account, error) {
	acc := &models.Account{}
	var locked sql.NullTime

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&acc.ID, &acc.Email, &acc.DisplayName, &acc.Salt, &acc.PasswordHash,
		&acc.FailedAttempts, &locked, &acc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if locked.Valid {
		acc.LockedUntil = &locked.Time
	}
	return acc, nil
}

func (r *PostgresRepository) SetSignInState(ctx context.Context, id string, failedAttempts int, lockedUntil *time.Time) error {
	query := `
		UPDATE accounts
		SET failed_attempts = $2, locked_until = $3
		WHERE id = $1
	`
	var locked sql.NullTime
	if lockedUntil != nil {
		locked = sql.NullTime{Time: *lockedUntil, Valid: true}
	}
	if _, err := r.db.ExecContext(ctx, query, id, failedAttempts, locked); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
