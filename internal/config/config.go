package config

import (
	"errors"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
	"github.com/lcalzada-xor/fsguard/internal/core/services/monitor"
)

// Config holds all application configuration.
type Config struct {
	Addr            string
	DBPath          string
	SignatureDBPath string
	QuarantineDir   string
	RuleFile        string // optional; one rule per line
	SignatureSeed   string // optional JSON feed for signature updates
	TraceFile       string // optional; spans are discarded when empty

	WatchPaths         []string
	ExcludedPaths      []string
	ExcludedExtensions []string
	MinFileSize        int64
	SettleDelay        time.Duration
	QueueSize          int
	StopTimeout        time.Duration
	SignatureAction    domain.RuleAction
	AutoStart          bool

	Debug bool

	// One-shot mode
	ScanDir    string
	ReportPath string
}

// Load parses command line flags and environment variables to populate Config.
// Flags take precedence over environment variables.
func Load() *Config {
	cfg, err := parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

func parse(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{}
	defaults := monitor.DefaultConfig()
	dataDir := getDefaultDataDir()

	// Defaults and Environment Variables
	cfg.Addr = getEnv("FSGUARD_ADDR", "127.0.0.1:8085")
	cfg.DBPath = getEnv("FSGUARD_DB", filepath.Join(dataDir, "fsguard.db"))
	cfg.SignatureDBPath = getEnv("FSGUARD_SIGNATURE_DB", filepath.Join(dataDir, "signatures.db"))
	cfg.QuarantineDir = getEnv("FSGUARD_QUARANTINE_DIR", filepath.Join(dataDir, "quarantine"))
	cfg.RuleFile = getEnv("FSGUARD_RULES", "")
	cfg.SignatureSeed = getEnv("FSGUARD_SIGNATURE_SEED", "")
	cfg.TraceFile = getEnv("FSGUARD_TRACE_FILE", "")
	watch := getEnv("FSGUARD_WATCH", strings.Join(defaults.WatchPaths, ","))
	exclude := getEnv("FSGUARD_EXCLUDE", strings.Join(defaults.ExcludedPaths, ","))
	excludeExt := getEnv("FSGUARD_EXCLUDE_EXT", strings.Join(defaults.ExcludedExtensions, ","))
	minSize := getEnvInt("FSGUARD_MIN_SIZE", int(defaults.MinFileSize))
	cfg.SettleDelay = getEnvDuration("FSGUARD_SETTLE_DELAY", defaults.SettleDelay)
	cfg.QueueSize = getEnvInt("FSGUARD_QUEUE_SIZE", defaults.QueueSize)
	cfg.StopTimeout = getEnvDuration("FSGUARD_STOP_TIMEOUT", defaults.StopTimeout)
	sigAction := getEnv("FSGUARD_SIGNATURE_ACTION", string(defaults.SignatureAction))
	cfg.AutoStart = getEnvBool("FSGUARD_AUTOSTART", true)
	cfg.Debug = getEnvBool("FSGUARD_DEBUG", false)

	// Command Line Flags (Override Env)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP API address (empty to disable)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the SQLite state database")
	fs.StringVar(&cfg.SignatureDBPath, "sigdb", cfg.SignatureDBPath, "Path to the SQLite signature database")
	fs.StringVar(&cfg.QuarantineDir, "quarantine", cfg.QuarantineDir, "Quarantine directory")
	fs.StringVar(&cfg.RuleFile, "rules", cfg.RuleFile, "Rule file used to seed an empty rule store")
	fs.StringVar(&cfg.SignatureSeed, "signatures", cfg.SignatureSeed, "JSON signature feed (empty for the built-in baseline)")
	fs.StringVar(&cfg.TraceFile, "trace", cfg.TraceFile, "Write OpenTelemetry spans to this file")
	fs.StringVar(&watch, "watch", watch, "Directories to monitor (comma separated)")
	fs.StringVar(&exclude, "exclude", exclude, "Directory trees never evaluated (comma separated)")
	fs.StringVar(&excludeExt, "exclude-ext", excludeExt, "File extensions never evaluated (comma separated)")
	fs.IntVar(&minSize, "min-size", minSize, "Minimum file size in bytes")
	fs.DurationVar(&cfg.SettleDelay, "settle", cfg.SettleDelay, "Delay before evaluating a changed file")
	fs.IntVar(&cfg.QueueSize, "queue", cfg.QueueSize, "Event queue capacity")
	fs.DurationVar(&cfg.StopTimeout, "stop-timeout", cfg.StopTimeout, "Bounded wait for the monitor to stop")
	fs.StringVar(&sigAction, "signature-action", sigAction, "Action for signature matches (alert, log, quarantine, delete)")
	fs.BoolVar(&cfg.AutoStart, "monitor", cfg.AutoStart, "Start real-time monitoring on launch")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable verbose debug logging")
	fs.StringVar(&cfg.ScanDir, "scan", "", "Scan this directory once and exit")
	fs.StringVar(&cfg.ReportPath, "report", "", "Write a PDF report of the one-shot scan")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.WatchPaths = parseList(watch)
	cfg.ExcludedPaths = parseList(exclude)
	cfg.ExcludedExtensions = parseList(excludeExt)
	cfg.MinFileSize = int64(minSize)
	cfg.SignatureAction = domain.ParseRuleAction(sigAction)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the application cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.DBPath == "" || c.SignatureDBPath == "" {
		errs = append(errs, errors.New("database paths are required"))
	}
	if c.QuarantineDir == "" {
		errs = append(errs, errors.New("quarantine directory is required"))
	}
	if c.MinFileSize < 0 {
		errs = append(errs, errors.New("min-size must not be negative"))
	}
	if c.QueueSize <= 0 {
		errs = append(errs, errors.New("queue must be positive"))
	}
	if c.SignatureAction == domain.ActionBlock {
		errs = append(errs, errors.New("signature-action block is not supported for files"))
	}
	if c.ReportPath != "" && c.ScanDir == "" {
		errs = append(errs, errors.New("-report requires -scan"))
	}
	return errors.Join(errs...)
}

// Monitor returns the real-time monitor settings.
func (c *Config) Monitor() monitor.Config {
	return monitor.Config{
		WatchPaths:         c.WatchPaths,
		ExcludedPaths:      c.ExcludedPaths,
		ExcludedExtensions: c.ExcludedExtensions,
		MinFileSize:        c.MinFileSize,
		SettleDelay:        c.SettleDelay,
		QueueSize:          c.QueueSize,
		StopTimeout:        c.StopTimeout,
		SignatureAction:    c.SignatureAction,
	}
}

func parseList(s string) []string {
	var items []string
	if s == "" {
		return items
	}
	parts := strings.Split(s, ",")
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getDefaultDataDir returns ~/.fsguard, or the current directory when the
// home directory is unknown.
func getDefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("Warning: Could not get user home directory, using current dir: %v", err)
		return "."
	}
	return filepath.Join(home, ".fsguard")
}
