package orders

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

// List returns all orders, most recent order date first.
func (r *PostgresRepository) List(ctx context.Context) ([]models.Order, error) {
	query := `
		SELECT o.id, o.status, o.order_date, c.first_name, c.last_name
		FROM orders o
		LEFT JOIN customers c ON c.id = o.customer_id
		ORDER BY o.order_date DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Order, 0)
	for rows.Next() {
		var (
			o           models.Order
			first, last sql.NullString
		)
		if err := rows.Scan(&o.ID, &o.Status, &o.OrderDate, &first, &last); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if first.Valid || last.Valid {
			o.Customer = &models.OrderCustomer{FirstName: first.String, LastName: last.String}
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
