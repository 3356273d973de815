/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the church treasury server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment, flags)
  2. Build the logger
  3. Open the KV backend (SQLite or memory) and load records
  4. Create the treasury Service and API handler
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port, overrides PORT
  -db      SQLite database path, overrides DB_PATH
           Use ":memory:" for an in-memory database

ENVIRONMENT:
  See config/config.go for every variable (PORT, STORE_BACKEND, DB_PATH,
  CHURCH_NAME, LOG_LEVEL, LOG_FORMAT, EPOCH_FLOOR_YEAR, REPORT_LOCALE,
  CURRENCY_SYMBOL, CORS_ORIGINS).

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  ./server -db="./data/treasury.db"
  STORE_BACKEND=memory ./server -port=3000

SEE ALSO:
  - api/server.go: Router configuration
  - treasury/service.go: Service wiring
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/treasury-engine/api"
	"github.com/warp/treasury-engine/config"
	"github.com/warp/treasury-engine/logger"
	"github.com/warp/treasury-engine/report"
	"github.com/warp/treasury-engine/store/sqlite"
	"github.com/warp/treasury-engine/treasury"
	"github.com/warp/treasury-engine/treasury/store"
)

func main() {
	// Flags
	port := flag.Int("port", 0, "HTTP server port (overrides PORT)")
	dbPath := flag.String("db", "", "SQLite database path (overrides DB_PATH)")
	flag.Parse()

	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	log := logger.Component(logger.New(cfg.LogLevel, cfg.LogFormat, os.Stdout), logger.ComponentApp)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx := context.Background()

	kv, closeKV, err := openKV(cfg)
	if err != nil {
		return err
	}
	defer closeKV()

	records := treasury.NewRecordStore(kv,
		treasury.WithLogger(log),
		treasury.WithDefaultChurchName(cfg.ChurchName),
	)
	if err := records.Load(ctx); err != nil {
		return fmt.Errorf("load records: %w", err)
	}

	svc := treasury.NewService(records,
		treasury.Engine{EpochFloorYear: cfg.EpochFloorYear},
		treasury.WithServiceLogger(log),
	)

	formatter, err := report.NewFormatter(cfg.ReportLocale, cfg.CurrencySymbol)
	if err != nil {
		return fmt.Errorf("report locale: %w", err)
	}

	handler := api.NewHandler(svc, formatter)
	router := api.NewRouter(handler, log, cfg.CORSOrigins)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str(logger.FieldOperation, logger.OpStartup).
			Int("port", cfg.Port).
			Str("backend", cfg.StoreBackend).
			Str("church", records.ChurchConfig().Name).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info().Str(logger.FieldOperation, logger.OpShutdown).Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

func openKV(cfg *config.Config) (treasury.KV, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return store.NewMemory(), func() {}, nil
	default:
		kv, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		return kv, func() { kv.Close() }, nil
	}
}
