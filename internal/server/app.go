// Package server wires configuration, storage, services and transports
// together and runs them until the process is signalled.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sehati-health/sehati/internal/dbx"
	"github.com/sehati-health/sehati/internal/logging"
	"github.com/sehati-health/sehati/internal/server/blobstore"
	"github.com/sehati-health/sehati/internal/server/config"
	"github.com/sehati-health/sehati/internal/server/metrics"
	"github.com/sehati-health/sehati/internal/server/ops"
	"github.com/sehati-health/sehati/internal/server/repositories/repomanager"
	"github.com/sehati-health/sehati/internal/server/services"

	gs "github.com/sehati-health/sehati/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	metrics *metrics.Collector
	grpc    *gs.GRPCServer
	ops     *ops.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	var blobs services.AttachmentStore
	if bc, ok := c.Blobstore(); ok {
		store, err := blobstore.NewS3Store(ctx, bc)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("blobstore init error: %w", err)
		}
		blobs = store
	} else {
		logger.Info(ctx, "S3 not configured, record attachments disabled")
	}

	mc := metrics.NewCollector()
	tx := dbx.NewSQLTransactor(db)

	audit := services.NewAuditService(tx, rm, logger, mc)
	grants := services.NewGrantService(tx, rm, audit, logger, mc, services.WithMaxTTL(c.MaxGrantTTL))
	records := services.NewRecordService(tx, rm, grants, audit, blobs, logger, mc)
	users := services.NewUserService(tx, rm, audit, logger, c)

	grpcServer := gs.NewGRPCServer(c.EndpointAddrGRPC, logger,
		gs.Services{Users: users, Grants: grants, Records: records, Audit: audit},
		mc, c.SecretKey, c.DefaultGrantTTL)

	return &App{
		config:  c,
		logger:  logger,
		db:      db,
		metrics: mc,
		grpc:    grpcServer,
		ops:     ops.NewServer(c.EndpointAddrHTTP, db, mc, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run blocks until a signal arrives or either server fails, then waits for
// both to stop and closes the database.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := app.grpc.Run(ctx); err != nil {
			app.logger.Error(ctx, "gRPC server failed", "error", err)
			cancelFunc()
		}
	}()
	go func() {
		defer wg.Done()
		if err := app.ops.Run(ctx); err != nil {
			app.logger.Error(ctx, "ops server failed", "error", err)
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close failed", "error", err)
	}
	app.logger.Info(ctx, "Stopped")
}
