package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/restaurant/internal/dbx"
	"github.com/dmitrijs2005/restaurant/internal/logging"
	"github.com/dmitrijs2005/restaurant/internal/server/migrations"
	"github.com/dmitrijs2005/restaurant/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/restaurant/internal/server/repositories/customers"
	"github.com/dmitrijs2005/restaurant/internal/server/repositories/orders"
	"github.com/dmitrijs2005/restaurant/internal/server/repositories/recipes"
	"github.com/dmitrijs2005/restaurant/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/restaurant/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"
)

// PostgresRepositoryManager vends Postgres-backed repositories.
type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Accounts(db dbx.DBTX) accounts.Repository {
	return accounts.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Customers(db dbx.DBTX) customers.Repository {
	return customers.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Recipes(db dbx.DBTX) recipes.Repository {
	return recipes.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Orders(db dbx.DBTX) orders.Repository {
	return orders.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations to db.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return gooseUpContext(ctx, db, ".")
}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

// PingPolicy bounds the connection attempts made by OpenDatabase.
type PingPolicy struct {
	Base       time.Duration
	MaxRetries uint64
}

// DefaultPingPolicy waits up to roughly a minute for the database to come up.
var DefaultPingPolicy = PingPolicy{Base: 500 * time.Millisecond, MaxRetries: 7}

// OpenDatabase opens a pgx pool for dsn and pings it with exponential
// backoff until it answers or the policy is exhausted.
func OpenDatabase(ctx context.Context, dsn string, policy PingPolicy, l logging.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := Ping(ctx, db, policy, l); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Pinger is the part of *sql.DB Ping needs.
type Pinger interface {
	PingContext(ctx context.Context) error
}

func Ping(ctx context.Context, db Pinger, policy PingPolicy, l logging.Logger) error {
	b := retry.WithMaxRetries(policy.MaxRetries, retry.NewExponential(policy.Base))

	attempt := 0
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if err := db.PingContext(ctx); err != nil {
			l.Warn(ctx, "database not ready", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("db ping error: %w", err)
	}
	return nil
}
