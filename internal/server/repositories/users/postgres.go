package users

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/restaurant/internal/dbx"
	"github.com/dmitrijs2005/restaurant/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (uid, username, email, role_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (uid) DO UPDATE
		SET username = EXCLUDED.username,
		    email = EXCLUDED.email,
		    role_id = EXCLUDED.role_id,
		    updated_at = now()
	`
	if _, err := r.db.ExecContext(ctx, query, user.ID, user.Username, dbx.NullString(user.Email), user.RoleID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.User, error) {
	query := `
		SELECT uid, username, email, role_id
		FROM users
		ORDER BY updated_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.User, 0)
	for rows.Next() {
		var (
			u     models.User
			email sql.NullString
		)
		if err := rows.Scan(&u.ID, &u.Username, &email, &u.RoleID); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		u.Email = dbx.StringPtr(email)
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
