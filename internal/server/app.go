// Package server wires the restaurant backend together: the Postgres
// store, the change feed, the identity and data services, the gRPC
// endpoint and the metrics endpoint.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/dmitrijs2005/restaurant/internal/logging"
	"github.com/dmitrijs2005/restaurant/internal/server/changefeed"
	"github.com/dmitrijs2005/restaurant/internal/server/config"
	"github.com/dmitrijs2005/restaurant/internal/server/metrics"
	"github.com/dmitrijs2005/restaurant/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/restaurant/internal/server/services"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/restaurant/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	feed    changefeed.Feed
	metrics *metrics.Metrics
	grpc    *gs.GRPCServer
}

// NewApp connects to the database, applies migrations and builds the
// services. The caller must Close the returned App.
func NewApp(ctx context.Context, c *config.Config, w io.Writer) (*App, error) {
	logger := logging.NewJSON(w, c.LogLevel)

	db, err := repomanager.OpenDatabase(ctx, c.DatabaseDSN, repomanager.DefaultPingPolicy, logger)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	feed, err := changefeed.New(ctx, c.ChangeFeedDriver, changefeed.RedisOptions{Addr: c.RedisAddr}, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("change feed init error: %w", err)
	}

	m := metrics.New()
	identity := services.NewIdentityService(db, rm, c, logger)
	data := services.NewDataService(db, rm, feed, logger)

	return &App{
		config:  c,
		logger:  logger,
		db:      db,
		feed:    feed,
		metrics: m,
		grpc:    gs.NewGRPCServer(c.EndpointAddrGRPC, logger, identity, data, m),
	}, nil
}

// Run serves gRPC and metrics until ctx is cancelled or either server
// fails. A failure of one stops the other.
func (app *App) Run(ctx context.Context) error {
	app.logger.Info(ctx, "Starting app...", "changefeed", app.config.ChangeFeedDriver)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.grpc.Run(ctx)
	})

	g.Go(func() error {
		router := metrics.NewRouter(app.metrics, app.db.PingContext)
		return metrics.Serve(ctx, app.config.MetricsAddr, router, app.logger)
	})

	return g.Wait()
}

func (app *App) Close() error {
	feedErr := app.feed.Close()
	dbErr := app.db.Close()
	if feedErr != nil {
		return feedErr
	}
	return dbErr
}
