package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatihsahinbas/eeg-mental-tracker/configs"
	"github.com/fatihsahinbas/eeg-mental-tracker/internal/pipeline"
	"github.com/fatihsahinbas/eeg-mental-tracker/internal/server"
	"github.com/fatihsahinbas/eeg-mental-tracker/internal/session"
	"github.com/fatihsahinbas/eeg-mental-tracker/pkg/logging"
)

// Context holds the application context and configuration
type Context struct {
	// CLI arguments
	Mode         string
	Cycles       int
	Seed         int64
	OutputFile   string
	OutputFormat string
	Verbose      bool
	Quiet        bool

	// Runtime context
	Logger logging.Logger
	Config *configs.Config
}

// TrackerApp handles the tracker application lifecycle
type TrackerApp struct {
	ctx    *Context
	config *configs.Config
	logger logging.Logger

	sched *pipeline.Scheduler
	store *session.Store
}

// NewTrackerApp creates a new tracker application
func NewTrackerApp(ctx *Context) (*TrackerApp, error) {
	// Set up logging
	logger := setupLogging(ctx)
	ctx.Logger = logger

	// Load configuration
	config, err := loadAndMergeConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	ctx.Config = config

	// Rebuild the logger so the configured log level applies; the flags
	// still win over the config file.
	logger = setupLogging(ctx)
	ctx.Logger = logger

	pipelineCfg, err := buildPipelineConfig(config, logger)
	if err != nil {
		return nil, err
	}

	sched, err := pipeline.NewScheduler(pipelineCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	store := session.NewStore(config.DataDir, logger)

	logger.Debug("Tracker application initialized", logging.Fields{
		"initial_mode":  sched.Mode().String(),
		"window_sec":    config.Signal.WindowSeconds,
		"hop_sec":       config.Signal.HopSeconds,
		"output_format": ctx.OutputFormat,
		"session_id":    store.ID(),
	})

	return &TrackerApp{
		ctx:    ctx,
		config: config,
		logger: logger,
		sched:  sched,
		store:  store,
	}, nil
}

// Scheduler exposes the pipeline scheduler
func (app *TrackerApp) Scheduler() *pipeline.Scheduler {
	return app.sched
}

// Store exposes the session store
func (app *TrackerApp) Store() *session.Store {
	return app.store
}

// Serve runs the HTTP/websocket server until the context is cancelled
func (app *TrackerApp) Serve(ctx context.Context) error {
	srv := server.New(&app.config.Server, app.sched, app.store, app.logger)
	return srv.Run(ctx)
}

// RunCycles executes a fixed number of analysis cycles without the server,
// recording each cycle into the session store.
func (app *TrackerApp) RunCycles(ctx context.Context, cycles int) ([]pipeline.CycleRecord, error) {
	records, err := app.sched.RunCycles(ctx, cycles)
	if err != nil {
		return nil, fmt.Errorf("cycle execution failed: %w", err)
	}

	for _, record := range records {
		app.store.Append(record)
	}

	return records, nil
}

// OutputResults formats records and writes them to the output file or stdout
func (app *TrackerApp) OutputResults(data any) error {
	formatted, err := formatOutput(data, app.ctx.OutputFormat)
	if err != nil {
		return fmt.Errorf("failed to format output data: %w", err)
	}

	if app.ctx.OutputFile != "" {
		return app.writeToFile(formatted)
	}

	_, err = os.Stdout.Write(formatted)
	return err
}

// setupLogging configures logging based on context
func setupLogging(ctx *Context) logging.Logger {
	return logging.NewLogger(resolveLogLevel(ctx))
}

// resolveLogLevel picks the effective log level: the quiet and verbose flags
// outrank the configured level, which outranks the info default.
func resolveLogLevel(ctx *Context) string {
	level := "info"
	if ctx.Config != nil && ctx.Config.LogLevel != "" {
		level = ctx.Config.LogLevel
	}
	if ctx.Verbose {
		level = "debug"
	}
	if ctx.Quiet {
		level = "error"
	}
	return level
}

// writeToFile writes data to the specified output file
func (app *TrackerApp) writeToFile(data []byte) error {
	// Ensure directory exists
	dir := filepath.Dir(app.ctx.OutputFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Write file
	if err := os.WriteFile(app.ctx.OutputFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	app.logger.Debug("Results written to file", logging.Fields{
		"output_file": app.ctx.OutputFile,
		"size_bytes":  len(data),
	})

	return nil
}
