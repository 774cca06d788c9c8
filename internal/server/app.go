// Package server wires the event portal together: database, migrations,
// services, the credential notifier, the REST API and the gRPC health
// endpoint, and runs them until the process is signalled.
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

	"github.com/dmitrijs2005/eventportal/internal/logging"
	"github.com/dmitrijs2005/eventportal/internal/server/config"
	"github.com/dmitrijs2005/eventportal/internal/server/httpapi"
	"github.com/dmitrijs2005/eventportal/internal/server/notify"
	"github.com/dmitrijs2005/eventportal/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/eventportal/internal/server/repositories/users"
	"github.com/dmitrijs2005/eventportal/internal/server/services"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/eventportal/internal/server/grpc"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	handler     http.Handler
	grpcServer  *gs.GRPCServer
	worker      *notify.Worker
	closers     []func() error
}

func NewApp(c *config.Config) (*App, error) {

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger, err := logging.New(c.LogBackend)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{
		config:      c,
		logger:      logger,
		db:          db,
		repomanager: repomanager.NewPostgresRepositoryManager(),
		closers:     []func() error{db.Close},
	}

	composer, err := notify.NewComposer("en", c.LoginURL)
	if err != nil {
		return nil, err
	}
	brevo := notify.NewBrevoSender(&http.Client{Timeout: c.NotifyTimeout}, c.BrevoBaseURL, c.BrevoAPIKey, c.SenderEmail, c.SenderName, composer)

	var notifier notify.Notifier = brevo
	checks := []gs.Check{gs.PostgresCheck(db)}

	if c.RedisAddr != "" {
		redisOpt := asynq.RedisClientOpt{Addr: c.RedisAddr, Password: c.RedisPassword}

		client := asynq.NewClient(redisOpt)
		notifier = notify.NewQueueNotifier(client,
			notify.WithMaxRetry(c.NotifyMaxRetry),
			notify.WithTaskTimeout(c.NotifyTimeout),
		)
		app.worker = notify.NewWorker(redisOpt, brevo, users.NewPostgresRepository(db), logger.With("module", "notify_worker"))

		rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr, Password: c.RedisPassword})
		checks = append(checks, gs.RedisCheck(rdb))

		app.closers = append(app.closers, client.Close, rdb.Close)
		logger.Info(context.Background(), "credential delivery via queue", "redis", c.RedisAddr)
	} else {
		logger.Info(context.Background(), "credential delivery is synchronous")
	}

	registration, err := services.NewRegistrationService(db, app.repomanager, c)
	if err != nil {
		return nil, err
	}

	api := &httpapi.Handler{
		Registration:  registration,
		Users:         services.NewUserService(db, app.repomanager, c),
		Approval:      services.NewApprovalService(db, app.repomanager, notifier, c, logger),
		Notifications: services.NewNotificationService(db, app.repomanager),
		Export:        services.NewExportService(db, app.repomanager, c),
		Logger:        logger.With("module", "http"),
		SecretKey:     []byte(c.SecretKey),
	}
	app.handler = api.Router(c.APIPrefix)
	app.grpcServer = gs.NewGRPCServer(c.EndpointAddrGRPC, logger, checks...)

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:              app.config.EndpointAddrHTTP,
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

	app.logger.Info(ctx, "Starting HTTP server", "address", srv.Addr, "prefix", app.config.APIPrefix)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.grpcServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	defer app.close(ctx)

	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	if app.worker != nil {
		if err := app.worker.Start(); err != nil {
			return err
		}
		defer app.worker.Shutdown()
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()
	app.logger.Info(ctx, "App stopped")

	return nil
}

func (app *App) close(ctx context.Context) {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			app.logger.Warn(ctx, "close failed", "error", err)
		}
	}
}
