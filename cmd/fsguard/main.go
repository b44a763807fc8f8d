package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lcalzada-xor/fsguard/internal/app"
	"github.com/lcalzada-xor/fsguard/internal/config"
	"github.com/lcalzada-xor/fsguard/internal/telemetry"
)

func main() {
	// load config
	cfg := config.Load()

	// Setup Structured Logging
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Initialize Tracing
	if cfg.TraceFile != "" {
		traceOut, err := os.OpenFile(cfg.TraceFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			slog.Error("Failed to open trace file", "path", cfg.TraceFile, "error", err)
			os.Exit(1)
		}
		defer traceOut.Close()

		shutdownTracer, err := telemetry.InitTracer(traceOut)
		if err != nil {
			slog.Error("Failed to init tracer", "error", err)
		} else {
			defer func() {
				if err := shutdownTracer(context.Background()); err != nil {
					slog.Error("Failed to shutdown tracer", "error", err)
				}
			}()
		}
	}

	// Root Context with cancellation on Interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if code := run(ctx, cfg); code != 0 {
		cancel()
		os.Exit(code)
	}
}

func run(ctx context.Context, cfg *config.Config) int {
	application, err := app.New(cfg)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		return 1
	}
	if err := application.Load(ctx); err != nil {
		slog.Error("Failed to load state", "error", err)
		application.Close()
		return 1
	}

	if cfg.ScanDir != "" {
		return scanOnce(ctx, application, cfg)
	}

	slog.Info("fsguard starting...", "addr", cfg.Addr, "watch", cfg.WatchPaths)
	if err := application.Run(ctx); err != nil {
		slog.Error("Application error", "error", err)
		return 1
	}
	return 0
}

// scanOnce exits 0 when clean, 2 when threats were found and 1 on failure.
func scanOnce(ctx context.Context, application *app.Application, cfg *config.Config) int {
	defer application.Close()

	result, err := application.Scan(ctx, cfg.ScanDir, cfg.ReportPath)
	if err != nil {
		slog.Error("Scan failed", "error", err)
		return 1
	}

	for _, d := range result.Detections {
		slog.Warn("Threat", "path", d.FilePath, "threat", d.ThreatName, "severity", d.Severity, "source", d.Source())
	}
	slog.Info(result.Message, "files", result.FilesScanned, "errors", len(result.Errors), "duration", result.Duration())

	switch {
	case !result.Success:
		return 1
	case len(result.Detections) > 0:
		return 2
	default:
		return 0
	}
}
