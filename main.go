package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tphakala/misid-go/cmd"
	"github.com/tphakala/misid-go/internal/conf"
	"github.com/tphakala/misid-go/internal/inat"
	"github.com/tphakala/misid-go/internal/logging"
)

func main() {
	settings, err := conf.Load()
	if err != nil {
		log.Fatalf("Error loading settings: %v", err)
	}

	level := slog.LevelInfo
	if settings.Debug {
		level = slog.LevelDebug
	}
	logging.Init(level)

	if err := inat.InitFileLogger(); err != nil {
		logging.Warn("Service file logging disabled", "error", err)
	}
	defer func() {
		_ = inat.CloseLogger()
	}()

	// Interrupts cancel the context so a long multi-page fetch aborts
	// without waiting out its remaining delay schedule.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
