// Command lessonctl browses and edits lesson structures from a terminal. It
// uses the same LEARN_ configuration as the server: with
// LEARN_API_USE_BACKEND set it talks to the REST API, otherwise it edits the
// configured store directly.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/p-n-ai/pai-lms/internal/backend"
	"github.com/p-n-ai/pai-lms/internal/console"
	"github.com/p-n-ai/pai-lms/internal/platform/config"
	"github.com/p-n-ai/pai-lms/internal/platform/logger"
	"github.com/p-n-ai/pai-lms/internal/store"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: lessonctl [lesson-id]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger.New(os.Stderr, cfg.Log))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	b, err := store.Open(ctx, cfg)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer b.Close()

	sess := console.New(backend.New(cfg, b.Store), b.Store, os.Stdout)
	if id := flag.Arg(0); id != "" {
		if err := sess.Exec(ctx, "open "+id); err != nil {
			slog.Error("failed to open lesson", "lesson_id", id, "error", err)
		}
	}
	if err := sess.Run(ctx, os.Stdin); err != nil && ctx.Err() == nil {
		slog.Error("session ended", "error", err)
		os.Exit(1)
	}
}
