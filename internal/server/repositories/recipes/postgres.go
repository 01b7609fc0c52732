package recipes

import (
	"context"
	"encoding/json"
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

func (r *PostgresRepository) Create(ctx context.Context, rec *models.Recipe) error {
	query := `
		INSERT INTO recipes (id, name, ingredients, steps)
		VALUES ($1, $2, $3, $4)
	`
	return r.exec(ctx, query, rec)
}

func (r *PostgresRepository) Upsert(ctx context.Context, rec *models.Recipe) error {
	query := `
		INSERT INTO recipes (id, name, ingredients, steps)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    ingredients = EXCLUDED.ingredients,
		    steps = EXCLUDED.steps
	`
	return r.exec(ctx, query, rec)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, rec *models.Recipe) error {
	ingredients, err := encodeLines(rec.Ingredients)
	if err != nil {
		return err
	}
	steps, err := encodeLines(rec.Steps)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, rec.ID, rec.Name, ingredients, steps); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// List returns recipes newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]models.Recipe, error) {
	query := `
		SELECT id, name, ingredients, steps
		FROM recipes
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Recipe, 0)
	for rows.Next() {
		var (
			rec                models.Recipe
			ingredients, steps []byte
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &ingredients, &steps); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if rec.Ingredients, err = decodeLines(ingredients); err != nil {
			return nil, err
		}
		if rec.Steps, err = decodeLines(steps); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// encodeLines renders lines as a JSON array. A nil slice becomes [].
func encodeLines(lines []string) (string, error) {
	if lines == nil {
		lines = []string{}
	}
	b, err := json.Marshal(lines)
	if err != nil {
		return "", fmt.Errorf("encode lines: %w", err)
	}
	return string(b), nil
}

func decodeLines(b []byte) ([]string, error) {
	lines := []string{}
	if len(b) == 0 {
		return lines, nil
	}
	if err := json.Unmarshal(b, &lines); err != nil {
		return nil, fmt.Errorf("decode lines: %w", err)
	}
	return lines, nil
}
