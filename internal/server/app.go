// Package server initializes and runs the shop server. It opens the
// database, runs migrations, wires services into the GraphQL/HTTP surface,
// starts the cart cleanup worker and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophshop/internal/logging"
	"github.com/dmitrijs2005/gophshop/internal/server/cleanup"
	"github.com/dmitrijs2005/gophshop/internal/server/config"
	"github.com/dmitrijs2005/gophshop/internal/server/graphql"
	"github.com/dmitrijs2005/gophshop/internal/server/httpapi"
	"github.com/dmitrijs2005/gophshop/internal/server/mailer"
	"github.com/dmitrijs2005/gophshop/internal/server/metrics"
	"github.com/dmitrijs2005/gophshop/internal/server/payments"
	"github.com/dmitrijs2005/gophshop/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophshop/internal/server/services"
	"github.com/redis/go-redis/v9"
)

// shutdownTimeout bounds how long in-flight requests get after a signal.
const shutdownTimeout = 10 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	redis   *redis.Client
	handler http.Handler
	worker  *cleanup.Worker
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg *config.Config) logging.Logger {
	return logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
}

// NewApp connects to PostgreSQL (and Redis when configured), applies
// migrations and wires everything together.
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	db, err := repomanager.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	var (
		queue cleanup.Queue
		rdb   *redis.Client
	)
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = db.Close()
			_ = rdb.Close()
			return nil, fmt.Errorf("redis init error: %w", err)
		}
		queue = cleanup.NewRedisQueue(rdb)
	} else {
		logger.Warn(ctx, "redis not configured, cart cleanup retries are kept in memory")
		queue = cleanup.NewMemoryQueue()
	}

	app := build(cfg, logger, db, rm, queue,
		payments.NewStripeCharger(cfg.StripeSecretKey, nil),
		mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		}),
	)
	app.redis = rdb
	return app, nil
}

// build wires services and transport on top of already opened resources.
func build(cfg *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager,
	queue cleanup.Queue, charger payments.Charger, sender mailer.Sender) *App {

	m := metrics.New()

	users := services.NewUserService(db, rm, cfg, sender, logger.With("module", "users"))
	items := services.NewItemService(db, rm, logger.With("module", "items"))
	carts := services.NewCartService(db, rm, logger.With("module", "cart"))
	checkout := services.NewCheckoutService(db, rm, cfg, charger, queue, logger.With("module", "checkout"), m)
	orders := services.NewOrderService(db, rm)

	// the schema is static; an error here is a programming mistake
	schema, err := graphql.NewSchema(&graphql.Resolver{
		Users:    users,
		Items:    items,
		Carts:    carts,
		Checkout: checkout,
		Orders:   orders,
		Logger:   logger.With("module", "graphql"),
	})
	if err != nil {
		panic(fmt.Sprintf("graphql schema: %v", err))
	}

	handler := httpapi.NewRouter(httpapi.Options{
		GraphQL:       graphql.NewHandler(schema, logger),
		Authenticator: users,
		Metrics:       m,
		Logger:        logger.With("module", "http"),
		CORSOrigins:   cfg.CORSOrigins,
		CookieSecure:  cfg.CookieSecure,
		Ping:          db.PingContext,
	})

	return &App{
		config:  cfg,
		logger:  logger,
		db:      db,
		handler: handler,
		worker:  cleanup.NewWorker(queue, carts, cfg.CleanupRetryInterval, logger.With("module", "cleanup"), m),
	}
}

// Handler exposes the HTTP handler, mostly for tests.
func (app *App) Handler() http.Handler { return app.handler }

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:              app.config.HTTPAddr,
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "http shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// releases the database and Redis connections.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.worker.Run(ctx)
	}()

	wg.Wait()
	app.Close()
	app.logger.Info(context.Background(), "App stopped")
}

// Close releases external connections.
func (app *App) Close() {
	if app.redis != nil {
		_ = app.redis.Close()
	}
	if app.db != nil {
		_ = app.db.Close()
	}
}

// Migrate applies pending migrations and exits.
func Migrate(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	db, err := repomanager.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer db.Close()

	if err := repomanager.NewPostgresRepositoryManager().RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migrations error: %w", err)
	}
	logger.Info(ctx, "migrations applied")
	return nil
}
