package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/p-n-ai/pai-lms/internal/audit"
	"github.com/p-n-ai/pai-lms/internal/backend"
	"github.com/p-n-ai/pai-lms/internal/classroom"
	"github.com/p-n-ai/pai-lms/internal/curriculum"
	"github.com/p-n-ai/pai-lms/internal/httpapi"
	"github.com/p-n-ai/pai-lms/internal/platform/config"
	"github.com/p-n-ai/pai-lms/internal/platform/logger"
	"github.com/p-n-ai/pai-lms/internal/realtime"
	"github.com/p-n-ai/pai-lms/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger.New(os.Stdout, cfg.Log))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	api, closeAll, err := newServer(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer closeAll()

	// The change feed keeps connections open, so only the header read is
	// bounded.
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "store", cfg.Store.Backend, "use_backend", cfg.API.UseBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// newServer opens the store, seeds lessons and assembles the API. The
// returned func releases the store's connections.
func newServer(ctx context.Context, cfg *config.Config) (*httpapi.Server, func(), error) {
	b, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}

	lessons := backend.New(cfg, b.Store)
	if local, ok := lessons.(*backend.Local); ok {
		if err := seed(ctx, local, cfg.SeedPath); err != nil {
			b.Close()
			return nil, nil, err
		}
	}

	var events audit.EventLogger = audit.NewMemoryEventLogger(audit.DefaultMemoryLimit)
	if b.DB != nil {
		events = audit.NewPostgresEventLogger(b.DB.Pool)
	}

	api := httpapi.New(httpapi.Deps{
		Lessons:   lessons,
		Classroom: classroom.New(b.Store),
		Events:    events,
		Hub:       realtime.NewHub(),
		Auth:      cfg.Auth,
		Store:     b.Store,
	})
	return api, b.Close, nil
}

func seed(ctx context.Context, local *backend.Local, dir string) error {
	loader, err := curriculum.NewLoader(dir)
	if err != nil {
		return err
	}
	added, err := local.Seed(ctx, loader.All()...)
	if err != nil {
		return fmt.Errorf("seeding lessons: %w", err)
	}
	if added > 0 {
		slog.Info("seeded lessons", "added", added)
	}
	return nil
}
