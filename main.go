// This is the main entry point of the task manager API.
// It loads configuration, opens the configured store, wires services and
// handlers together, builds the HTTP router and runs the server until an
// interrupt or termination signal triggers a graceful shutdown.
//
// @title Task Manager API
// @version 1.0
// @description User-scoped task management: registration, bearer-token login and owner-scoped task CRUD.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/user/taskmanager-go/auth"
	"github.com/user/taskmanager-go/config"
	"github.com/user/taskmanager-go/db"
	"github.com/user/taskmanager-go/logging"
	"github.com/user/taskmanager-go/tasks"
	"github.com/user/taskmanager-go/users"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "taskmanager:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "taskmanager",
		Usage: "run the task manager HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env-file",
				Value:   ".env",
				EnvVars: []string{"ENV_FILE"},
				Usage:   "load environment variables from `FILE` before reading configuration",
			},
			&cli.StringFlag{
				Name:  "port",
				Usage: "listen on `PORT`, overriding the PORT variable",
			},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	// A missing default .env is normal outside development; a missing file
	// the operator asked for is not.
	envErr := godotenv.Load(c.String("env-file"))
	if envErr != nil && (c.IsSet("env-file") || !errors.Is(envErr, fs.ErrNotExist)) {
		return fmt.Errorf("load env file: %w", envErr)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if c.IsSet("port") {
		cfg.Server.Port = c.String("port")
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	slog.SetDefault(logger.Slog())

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	userRepo, taskRepo, closeStore, err := openStores(ctx, cfg.DB, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenDuration)
	authService := auth.NewAuthService(userRepo, auth.NewBcryptHasher(cfg.Auth.BcryptCost), tokens)
	taskService := tasks.NewService(taskRepo, cfg.Pagination.MaxLimit)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      newRouter(cfg.Server, logger, authService, taskService),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 65 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info(ctx, "server starting", "addr", srv.Addr, "store", cfg.DB.Driver, "cors_origin", cfg.Server.CORSOrigin)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info(shutdownCtx, "server stopped gracefully")
	return nil
}

// openStores returns the repositories for the configured driver and a
// function that releases them. For Postgres the schema is ensured before
// any request is served.
func openStores(ctx context.Context, cfg *config.DatabaseConfig, logger logging.Logger) (users.Repository, tasks.Repository, func(), error) {
	if cfg.Driver == config.StoreDriverMemory {
		logger.Warn(ctx, "using in-memory store; data is lost on exit")
		return users.NewMemoryRepository(), tasks.NewMemoryRepository(), func() {}, nil
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	conn := db.OpenSQL(pool)
	closeAll := func() {
		_ = conn.Close()
		pool.Close()
	}

	if err := db.EnsureSchema(ctx, conn); err != nil {
		closeAll()
		return nil, nil, nil, err
	}
	logger.Info(ctx, "database schema ready")

	return users.NewPostgresRepository(conn), tasks.NewPostgresRepository(conn), closeAll, nil
}
