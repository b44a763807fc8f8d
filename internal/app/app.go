package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/lcalzada-xor/fsguard/internal/adapters/fsutil"
	"github.com/lcalzada-xor/fsguard/internal/adapters/reporting"
	"github.com/lcalzada-xor/fsguard/internal/adapters/sigdb"
	"github.com/lcalzada-xor/fsguard/internal/adapters/storage"
	"github.com/lcalzada-xor/fsguard/internal/adapters/watcher"
	webserver "github.com/lcalzada-xor/fsguard/internal/adapters/web/server"
	"github.com/lcalzada-xor/fsguard/internal/config"
	"github.com/lcalzada-xor/fsguard/internal/core/domain"
	"github.com/lcalzada-xor/fsguard/internal/core/ports"
	"github.com/lcalzada-xor/fsguard/internal/core/services/audit"
	"github.com/lcalzada-xor/fsguard/internal/core/services/monitor"
	"github.com/lcalzada-xor/fsguard/internal/core/services/persistence"
	"github.com/lcalzada-xor/fsguard/internal/core/services/quarantine"
	"github.com/lcalzada-xor/fsguard/internal/core/services/rules"
	"github.com/lcalzada-xor/fsguard/internal/core/services/security"
	"github.com/lcalzada-xor/fsguard/internal/core/services/signature"
	"github.com/lcalzada-xor/fsguard/internal/telemetry"
)

// Application holds the core components of the application.
// It acts as the Facade for the entire system, orchestrating services and infrastructure.
type Application struct {
	Config        *config.Config
	Security      *security.Service
	WebServer     *webserver.Server
	TriggerWriter *persistence.TriggerWriter
	PDFExporter   *reporting.PDFExporter

	rules      *rules.Store
	signatures *signature.Service
	vault      *quarantine.Manager
	stopWriter context.CancelFunc
}

// New creates a new Application instance and bootstraps its components.
func New(cfg *config.Config) (*Application, error) {
	app := &Application{
		Config:      cfg,
		PDFExporter: reporting.NewPDFExporter(),
	}

	if err := app.bootstrap(); err != nil {
		return nil, fmt.Errorf("application bootstrap failed: %w", err)
	}

	return app, nil
}

// bootstrap orchestrates the initialization sequence.
func (app *Application) bootstrap() error {
	// 1. Foundation & Infrastructure
	telemetry.InitMetrics()

	store, sigRepo, err := app.initStorage()
	if err != nil {
		return err
	}

	journal := audit.NewJournal(store)
	subject := security.NewSubject(journal)

	// 2. Domain Services
	app.rules = rules.NewStore(store)
	if app.Config.RuleFile != "" {
		app.rules.SetSeedFile(app.Config.RuleFile)
	}

	hasher := fsutil.NewHasher()
	files := fsutil.NewFileOps(app.Config.ExcludedPaths)

	evaluator := rules.NewEvaluator(app.rules, hasher, security.NewBehaviorEngine())
	app.TriggerWriter = persistence.NewTriggerWriter(store, 0)
	evaluator.SetTriggerRecorder(app.TriggerWriter)

	var feed ports.SignatureFeed
	if app.Config.SignatureSeed != "" {
		feed = sigdb.NewJSONFeed(app.Config.SignatureSeed)
	}
	app.signatures = signature.NewService(sigRepo, feed, subject)
	app.vault = quarantine.NewManager(app.Config.QuarantineDir, files, store, subject)

	mon := monitor.New(app.Config.Monitor(), monitor.Deps{
		Rules:      app.rules,
		Evaluator:  evaluator,
		Signatures: app.signatures,
		Hasher:     hasher,
		Probe:      files,
		Remover:    files,
		Quarantine: app.vault,
		Notifier:   subject,
		Watchers:   watcher.Factory,
	})

	app.Security = security.NewService(security.Components{
		Rules:      app.rules,
		Evaluator:  evaluator,
		Signatures: app.signatures,
		Quarantine: app.vault,
		Monitor:    mon,
		Journal:    journal,
		Subject:    subject,
		Hasher:     hasher,
		Closers:    []io.Closer{sigRepo, store},
	})

	// 3. Servers
	if app.Config.Addr != "" {
		app.WebServer = webserver.NewServer(app.Config.Addr, app.Security, app.PDFExporter)
	}
	return nil
}

func (app *Application) initStorage() (*storage.SQLiteAdapter, *sigdb.SQLiteRepository, error) {
	for _, dir := range []string{filepath.Dir(app.Config.DBPath), filepath.Dir(app.Config.SignatureDBPath)} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, nil, fmt.Errorf("failed to create DB directory: %w", err)
		}
	}

	store, err := storage.NewSQLiteAdapter(app.Config.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init system storage: %w", err)
	}

	sigRepo, err := sigdb.NewSQLiteRepository(app.Config.SignatureDBPath)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("failed to init signature storage: %w", err)
	}
	return store, sigRepo, nil
}

// Load hydrates rules, the quarantine log and the signature store.
func (app *Application) Load(ctx context.Context) error {
	if err := app.rules.Load(ctx); err != nil {
		return err
	}
	if err := app.vault.Load(ctx); err != nil {
		return err
	}
	if err := app.signatures.Init(ctx); err != nil {
		slog.Warn("Signature store unavailable", "error", err)
	}
	return nil
}

// Run starts monitoring and the HTTP API, and blocks until ctx is cancelled
// or a server fails. Resources are released before it returns.
func (app *Application) Run(ctx context.Context) error {
	slog.Info("Starting fsguard components...")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	app.startWriter()

	if app.Config.AutoStart {
		if err := app.Security.StartMonitoring(runCtx); err != nil {
			slog.Error("Real-time monitoring not started", "error", err)
		}
	}

	errChan := make(chan error, 1)
	serverDone := make(chan struct{})
	if app.WebServer != nil {
		go func() {
			defer close(serverDone)
			if err := app.WebServer.Run(runCtx); err != nil {
				errChan <- fmt.Errorf("web server error: %w", err)
			}
		}()
	} else {
		close(serverDone)
	}

	slog.Info("fsguard ready. Press Ctrl+C to terminate.")

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errChan:
	}
	cancel()
	<-serverDone

	return errors.Join(runErr, app.cleanup())
}

// Scan runs a one-shot directory scan and optionally writes a PDF report.
func (app *Application) Scan(ctx context.Context, dir, reportPath string) (domain.ScanResult, error) {
	app.startWriter()

	lastBucket := -1
	result := app.Security.ScanDirectory(ctx, dir, func(p domain.ScanProgress) {
		if bucket := p.Percent / 10; bucket != lastBucket {
			lastBucket = bucket
			slog.Info("Scan progress", "percent", p.Percent, "processed", p.Processed, "total", p.Total)
		}
	})

	if reportPath == "" {
		return result, nil
	}

	report := &domain.ReportData{
		ID:          uuid.New().String(),
		Title:       "File Security Scan Report",
		GeneratedAt: time.Now(),
		GeneratedBy: "fsguard",
		Scan:        result,
		Quarantine:  app.Security.ListQuarantine(),
	}
	if host, err := os.Hostname(); err == nil {
		report.GeneratedBy = host
	}

	pdf, err := app.PDFExporter.ExportScanReport(report)
	if err != nil {
		return result, err
	}
	if err := os.WriteFile(reportPath, pdf, 0o600); err != nil {
		return result, fmt.Errorf("write report: %w", err)
	}
	slog.Info("Report written", "path", reportPath, "bytes", len(pdf))
	return result, nil
}

// startWriter runs the trigger statistics writer until cleanup.
func (app *Application) startWriter() {
	if app.stopWriter != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	app.stopWriter = cancel
	app.TriggerWriter.Start(ctx)
}

// Close releases resources without running the servers (one-shot mode).
func (app *Application) Close() error {
	return app.cleanup()
}

func (app *Application) cleanup() error {
	slog.Info("Cleaning up resources...")

	ctx, cancel := context.WithTimeout(context.Background(), app.Config.StopTimeout+5*time.Second)
	defer cancel()

	var errs []error
	if err := app.Security.StopMonitoring(ctx); err != nil {
		errs = append(errs, err)
	}
	if app.stopWriter != nil {
		app.stopWriter()
		app.TriggerWriter.Wait()
		app.stopWriter = nil
	}
	if err := app.Security.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
