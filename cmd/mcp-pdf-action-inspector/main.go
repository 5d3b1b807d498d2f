package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/a3tai/mcp-pdf-action-inspector/internal/config"
	"github.com/a3tai/mcp-pdf-action-inspector/internal/mcp"
	"github.com/a3tai/mcp-pdf-action-inspector/internal/pdf"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// newLogger builds the process logger. Logs always go to stderr since stdout
// carries the MCP protocol in stdio mode.
func newLogger(cfg *config.Config, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

// run wires the service and the MCP server and blocks until ctx is done or
// the server stops
func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	service, err := pdf.NewService(pdf.Options{
		Directory:          cfg.PDFDirectory,
		MaxFileSize:        cfg.MaxFileSize,
		CacheCapacity:      cfg.CacheCapacity,
		MaxConcurrentOpens: cfg.MaxConcurrentOpens,
		Logger:             logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create PDF service: %w", err)
	}
	defer func() {
		if err := service.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close document cache")
		}
	}()

	if cfg.WatchFiles {
		if err := service.Watch(ctx); err != nil {
			logger.WithError(err).Warn("File watching disabled")
		}
	}

	server, err := mcp.NewServer(cfg, service, logger)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	return server.Run(ctx)
}

func main() {
	cfg, err := config.LoadFromFlags()
	if errors.Is(err, config.ErrVersionRequested) {
		printVersion(os.Stdout)
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if version != "dev" {
		cfg.Version = version
	}

	logger := newLogger(cfg, os.Stderr)
	logger.WithField("config", cfg.String()).Debug("Starting with configuration")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Error("Server stopped with error")
		stop()
		os.Exit(1)
	}
	logger.Debug("Server stopped")
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "MCP PDF Action Inspector\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
