package customers

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

func (r *PostgresRepository) Create(ctx context.Context, c *models.Customer) error {
	query := `
		INSERT INTO customers (id, first_name, last_name, email, phone)
		VALUES ($1, $2, $3, $4, $5)
	`
	return r.exec(ctx, query, c)
}

func (r *PostgresRepository) Upsert(ctx context.Context, c *models.Customer) error {
	query := `
		INSERT INTO customers (id, first_name, last_name, email, phone)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    email = EXCLUDED.email,
		    phone = EXCLUDED.phone
	`
	return r.exec(ctx, query, c)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, c *models.Customer) error {
	_, err := r.db.ExecContext(ctx, query, c.ID, c.FirstName, c.LastName, dbx.NullString(c.Email), dbx.NullString(c.Phone))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// List returns customers newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]models.Customer, error) {
	query := `
		SELECT id, first_name, last_name, email, phone
		FROM customers
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Customer, 0)
	for rows.Next() {
		var (
			c            models.Customer
			email, phone sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &email, &phone); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		c.Email = dbx.StringPtr(email)
		c.Phone = dbx.StringPtr(phone)
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
