package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"

	"github.com/haukened/s1-filter/internal/filter/common/clock"
	"github.com/haukened/s1-filter/internal/filter/common/log"
	"github.com/haukened/s1-filter/internal/filter/common/metrics"
	"github.com/haukened/s1-filter/internal/filter/config"
	"github.com/haukened/s1-filter/internal/filter/domain"
	"github.com/haukened/s1-filter/internal/filter/repos/decisions/bloom"
	"github.com/haukened/s1-filter/internal/filter/repos/decisions/lru"
	"github.com/haukened/s1-filter/internal/filter/repos/rules"
	"github.com/haukened/s1-filter/internal/filter/repos/rules/bolt"
	"github.com/haukened/s1-filter/internal/filter/services/classifier"
)

const (
	// Version information
	version = "0.1.0-dev"
	appName = "s1-filter"

	// Default timeouts
	defaultShutdownTimeout = 10 * time.Second

	// Doorkeeper sizing relative to the decision cache.
	doorkeeperFactor = 10
	doorkeeperFPRate = 0.01

	// Longest input prefix echoed back before each decision.
	previewRunes = 40
)

// Application holds all the components of the filter
type Application struct {
	config   *config.AppConfig
	service  *classifier.Service
	recorder *metrics.Recorder
	store    rules.SnapshotStore
	watcher  *rules.Watcher
	server   *http.Server
}

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Configure global logging
	err = log.Configure(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"version":      version,
		"env":          cfg.Env,
		"log_level":    cfg.LogLevel,
		"rules_file":   cfg.RulesFile,
		"snapshot_db":  cfg.SnapshotDB,
		"cache_size":   cfg.CacheSize,
		"watch":        cfg.Watch,
		"metrics_addr": cfg.MetricsAddr,
	}, "Starting "+appName)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
		cancel()
	}()

	// Build application with all dependencies
	app, err := buildApplication(ctx, cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}

	if err := app.Run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		log.Fatal(map[string]any{"error": err}, "Filter failed")
	}

	log.Info(nil, appName+" stopped gracefully")
}

// buildApplication constructs all components and wires them together
func buildApplication(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	// Create shared clock for consistent time across all components
	clk := &clock.RealClock{}

	// Initialize logger (already configured globally)
	logger := log.GetLogger()

	app := &Application{
		config:   cfg,
		recorder: metrics.NewRecorder(),
	}

	// Build the rule source chain: file, optionally backed by a snapshot
	var source classifier.RuleSource = rules.NewFileSource(cfg.RulesFile)
	if cfg.SnapshotDB != "" {
		store, err := bolt.New(cfg.SnapshotDB)
		if err != nil {
			return nil, fmt.Errorf("failed to open snapshot store: %w", err)
		}
		app.store = store
		source = rules.NewSnapshotSource(source, store, clk, log.WithComponent(logger, "snapshot"))
		log.Info(map[string]any{"path": cfg.SnapshotDB}, "Rule snapshot store configured")
	}

	// Create decision cache and its admission filter
	cache, err := lru.New(cfg.CacheSize)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to create decision cache: %w", err)
	}
	var doorkeeper classifier.Doorkeeper
	if cfg.CacheSize > 0 {
		doorkeeper = bloom.New(uint64(cfg.CacheSize)*doorkeeperFactor, doorkeeperFPRate)
		log.Info(map[string]any{
			"type": "LRU",
			"size": cfg.CacheSize,
		}, "Decision cache configured")
	} else {
		log.Info(map[string]any{"disabled": true}, "Decision caching disabled")
	}

	// Build service layer
	svc, report := classifier.NewService(ctx, classifier.ServiceOptions{
		Source:     source,
		Cache:      cache,
		Doorkeeper: doorkeeper,
		Metrics:    app.recorder,
		Logger:     log.WithComponent(logger, "classifier"),
		Clock:      clk,
	})
	if report.Degraded() {
		log.Warn(map[string]any{"error": report.Err()}, "Rule engine built in degraded state")
	}
	app.service = svc

	if cfg.Watch {
		app.watcher = rules.NewWatcher(cfg.RulesFile, rules.DefaultDebounce, log.WithComponent(logger, "watcher"))
	}

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", app.recorder.Handler())
		app.server = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	return app, nil
}

// Run starts the optional watcher and metrics server, classifies each arg,
// or each line of in when args is empty, and writes the results to out. It
// returns once the input is exhausted or ctx is cancelled.
func (app *Application) Run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	defer app.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stats := app.service.Stats()
	log.Info(map[string]any{
		"whitelist": stats.Whitelist,
		"blacklist": stats.Blacklist,
	}, "Rules loaded")

	if app.watcher != nil {
		go func() {
			err := app.watcher.Run(ctx, func() {
				report := app.service.Reload(ctx)
				if report.Degraded() {
					log.Warn(map[string]any{"error": report.Err()}, "Rule reload degraded")
				}
			})
			if err != nil {
				log.Error(map[string]any{"error": err}, "Rule file watcher stopped")
			}
		}()
	}

	if app.server != nil {
		go func() {
			log.Info(map[string]any{"address": app.server.Addr}, "Metrics server started")
			if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error(map[string]any{"error": err}, "Metrics server failed")
			}
		}()
	}

	var err error
	if len(args) > 0 {
		err = app.classifyAll(ctx, args, out)
	} else {
		err = app.classifyLines(ctx, in, out)
	}

	log.Info(nil, "Shutdown initiated")
	return multierr.Append(err, app.shutdown())
}

func (app *Application) classifyAll(ctx context.Context, inputs []string, out io.Writer) error {
	for _, text := range inputs {
		if ctx.Err() != nil {
			return nil
		}
		if err := writeDecision(out, text, app.service.Classify(text)); err != nil {
			return err
		}
	}
	return nil
}

// classifyLines reads in on a separate goroutine so a blocked read does not
// hold up shutdown.
func (app *Application) classifyLines(ctx context.Context, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("failed to read input: %w", err)
					}
				default:
				}
				return nil
			}
			if err := writeDecision(out, line, app.service.Classify(line)); err != nil {
				return err
			}
		}
	}
}

func writeDecision(out io.Writer, text string, d domain.Decision) error {
	_, err := fmt.Fprintf(out, "Input: '%s...'\nDecision: %s (Rule: %s)\nMessage: %s\n\n",
		preview(text), d.Outcome, d.RuleID, d.Message)
	return err
}

func preview(text string) string {
	r := []rune(text)
	if len(r) > previewRunes {
		r = r[:previewRunes]
	}
	return string(r)
}

// shutdown stops the metrics server within defaultShutdownTimeout.
func (app *Application) shutdown() error {
	if app.server == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := app.server.Shutdown(shutdownCtx); err != nil {
		log.Warn(map[string]any{"timeout": defaultShutdownTimeout, "error": err}, "Metrics server shutdown failed")
		return fmt.Errorf("metrics server shutdown: %w", err)
	}
	log.Info(nil, "Graceful shutdown completed")
	return nil
}

// Close releases the snapshot store, if any.
func (app *Application) Close() {
	if app.store == nil {
		return
	}
	if err := app.store.Close(); err != nil {
		log.Warn(map[string]any{"error": err}, "Failed to close snapshot store")
	}
	app.store = nil
}
