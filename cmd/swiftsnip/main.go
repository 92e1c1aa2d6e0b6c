// Package main is the terminal snippet editor.
//
// It shares configuration and the SQLite store with cmd/server, so snippets
// saved here show up in the HTTP API and vice versa. Logs go to a file
// (SWIFTSNIP_LOG) because the editor owns the terminal.
//
// Usage:
//
//	swiftsnip            start with a new snippet
//	swiftsnip -open ID   edit a saved snippet
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sakif/swiftsnip/internal/clipboard"
	"github.com/sakif/swiftsnip/internal/config"
	"github.com/sakif/swiftsnip/internal/editor"
	"github.com/sakif/swiftsnip/internal/markdown"
	"github.com/sakif/swiftsnip/internal/notify"
	"github.com/sakif/swiftsnip/internal/repository/sqlite"
	"github.com/sakif/swiftsnip/internal/service"
	"github.com/sakif/swiftsnip/internal/tui"
)

func main() {
	os.Exit(run())
}

func run() int {
	openID := flag.String("open", "", "ID of a saved snippet to edit")
	envFile := flag.String("env", ".env", "dotenv file to read configuration from")
	memory := flag.Bool("memory", false, "use an in-memory store and clipboard (nothing is kept)")
	flag.Parse()

	// === 1. CONFIGURATION ===
	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		return 1
	}

	// === 2. LOGGING ===
	logFile, err := os.OpenFile(cfg.TUILogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintln(os.Stderr, "opening log file:", err)
		return 1
	}
	defer logFile.Close()

	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// === 3. STORAGE ===
	dbPath := cfg.DBPath
	if *memory {
		dbPath = ":memory:"
	} else if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		fmt.Fprintln(os.Stderr, "creating database directory:", err)
		return 1
	}

	db, err := sqlite.New(dbPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer db.Close()

	snippets := service.NewSnippetService(db, logger)

	// === 4. EDITOR ===
	var clip editor.Clipboard = clipboard.NewSystem()
	if *memory {
		clip = &clipboard.Memory{}
	}

	toasts := notify.NewChannel(16)
	ed := editor.New(clip, notify.Multi{toasts, notify.NewLogger(logger)}, logger)
	ed.UseSaver(snippets)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *openID != "" {
		// The terminal user is the local author, so visibility is not checked.
		s, err := db.GetByID(ctx, *openID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "opening snippet %q: %v\n", *openID, err)
			return 1
		}
		ed.Load(*s)
	}

	// === 5. RUN ===
	err = tui.Run(ctx, tui.Options{
		Editor:        ed,
		Notifications: toasts.C(),
		Preview:       markdown.NewTerminal(80, "dark"),
		Context:       ctx,
	})
	if err != nil {
		logger.Error("editor exited with error", slog.String("error", err.Error()))
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if dropped := toasts.Dropped(); dropped > 0 {
		logger.Debug("notifications dropped", slog.Int64("count", dropped))
	}
	return 0
}
