package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/specialistvlad/chainrun/internal/chaindef"
	"github.com/specialistvlad/chainrun/internal/ctxlog"
	"github.com/specialistvlad/chainrun/internal/dataset"
	"github.com/specialistvlad/chainrun/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx        context.Context
	outW       io.Writer
	logCloser  io.Closer
	logger     *slog.Logger
	registry   *registry.Registry
	datasets   *dataset.Store
	chains     *chaindef.Store
	config     *Config
	status     *tracker
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and registry. When
// no modules are given the core stage modules are registered.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) (*App, error) {
	logW, logCloser, err := openLogDestination(cfg.LogFile, outW)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.", "destination", cfg.LogFile)

	if len(modules) == 0 {
		modules = coreModules
	}
	reg := registry.New(modules...)
	logger.Debug("All stage modules registered.", "count", len(modules), "stages", reg.IDs())

	return &App{
		ctx:       ctx,
		outW:      outW,
		logCloser: logCloser,
		logger:    logger,
		registry:  reg,
		datasets:  dataset.NewStore(),
		chains:    chaindef.NewStore(),
		config:    cfg,
		status:    newTracker(),
	}, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (app *App) Registry() *registry.Registry {
	return app.registry
}

// Status returns a snapshot of the current run.
func (app *App) Status() Status {
	return app.status.snapshot()
}

// Close stops the health check server and closes the log file.
func (app *App) Close() error {
	var errs []error
	if err := app.closeHealthCheckServer(); err != nil {
		errs = append(errs, err)
	}
	if app.logCloser != nil {
		if err := app.logCloser.Close(); err != nil {
			errs = append(errs, err)
		}
		app.logCloser = nil
	}
	return errors.Join(errs...)
}
