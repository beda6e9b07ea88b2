package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/oysterfarm/books/internal/dictionary"
	httpapi "github.com/oysterfarm/books/internal/httpapi/v1"
	"github.com/oysterfarm/books/internal/service/account"
	"github.com/oysterfarm/books/internal/service/journal"
	"github.com/oysterfarm/books/internal/settings"
	"github.com/oysterfarm/books/internal/storage/memory"
	pgstore "github.com/oysterfarm/books/internal/storage/postgres"
)

// store is the union of the interfaces the services and API need from a
// storage backend; both the memory and postgres stores satisfy it.
type store interface {
	journal.Repo
	journal.Writer
	account.Repo
	account.Writer
	httpapi.Readier
	SetSetting(ctx context.Context, key, value string) error
}

func main() {
	// .env is a dev convenience; absence is not an error.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Logger (slog to stdout). Level via LOG_LEVEL; format via LOG_FORMAT (json|text, default json)
	logger := buildLoggerFromEnv()
	slog.SetDefault(logger)

	var st store
	var closeFn func()

	if dsn := strings.TrimSpace(os.Getenv("DATABASE_URL")); dsn != "" {
		pg, err := pgstore.Open(ctx, dsn)
		if err != nil {
			logger.Error("failed to connect to postgres", "err", err)
			os.Exit(1)
		}
		closeFn = pg.Close
		st = pg
		logger.Info("storage backend: postgres")
	} else {
		st = memory.New()
		logger.Info("storage backend: memory")
	}

	accountSvc := account.New(st, st)
	chart, err := accountSvc.SeedChart(ctx)
	if err != nil {
		logger.Error("chart seed failed", "err", err)
		os.Exit(1)
	}
	templates, err := dictionary.CompileTemplates(chart)
	if err != nil {
		logger.Error("template compilation failed", "err", err)
		os.Exit(1)
	}

	if devSeedEnabled() {
		if err := devSeed(ctx, st, accountSvc); err != nil {
			logger.Error("dev seed failed", "err", err)
		} else {
			logger.Info("dev seed applied", "accounts", len(chart))
		}
	}

	currency := currencyFromSettings(ctx, st)
	srv := &http.Server{
		Addr:              listenAddr(),
		Handler:           httpapi.New(st, st, st, st, st, templates, st, currency, logger).Handler(),
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("bookkeeping service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			logger.Error("server shutdown error", "err", err)
		}
	case err := <-errCh:
		logger.Error("server error", "err", err)
	}
	if closeFn != nil {
		closeFn()
	}
}

func devSeedEnabled() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEV_SEED"))) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// devSeed restores the canonical opening balances and a default company
// profile on top of the seeded chart.
func devSeed(ctx context.Context, st store, accountSvc account.Service) error {
	if err := accountSvc.RepairOpeningBalances(ctx); err != nil {
		return err
	}
	if err := st.SetSetting(ctx, settings.KeyCompanyName, "Budidaya Tiram Pak Budi"); err != nil {
		return err
	}
	return st.SetSetting(ctx, settings.KeyCurrency, "IDR")
}

func currencyFromSettings(ctx context.Context, repo journal.Repo) string {
	st, err := repo.Settings(ctx)
	if err != nil {
		return "IDR"
	}
	if cur, ok := st.Get(settings.KeyCurrency); ok && cur != "" {
		return cur
	}
	return "IDR"
}

func listenAddr() string {
	if addr := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); addr != "" {
		return addr
	}
	return ":8080"
}

// parseLogLevel maps env values to slog.Leveler
func parseLogLevel(s string) slog.Leveler {
	switch s {
	case "DEBUG", "debug":
		return slog.LevelDebug
	case "WARN", "WARNING", "warn", "warning":
		return slog.LevelWarn
	case "ERROR", "ERR", "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildLoggerFromEnv() *slog.Logger {
	level := parseLogLevel(os.Getenv("LOG_LEVEL"))
	format := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT")))
	if format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	// default to JSON
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
