package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/specialistvlad/chainrun/internal/allocator"
	"github.com/specialistvlad/chainrun/internal/chaindef"
	"github.com/specialistvlad/chainrun/internal/ctxlog"
	"github.com/specialistvlad/chainrun/internal/executor"
	"github.com/specialistvlad/chainrun/internal/plan"
	"github.com/specialistvlad/chainrun/internal/worker"
)

// Run loads the chain and runs it over the input with the configured number
// of workers.
func (app *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, app.logger)
	app.logger.Debug("App.Run method started.")
	app.healthCheckServer()

	cfg := app.config
	def, err := app.chains.Populate(cfg.ChainPath)
	if err != nil {
		return fmt.Errorf("failed to load chain: %w", err)
	}
	if cfg.Name != "" {
		def.Name = cfg.Name
	}
	def.RunID = uuid.NewString()
	def.Input = cfg.InputPath
	if abs, err := filepath.Abs(cfg.InputPath); err == nil {
		def.Input = abs
	}

	ctx, logger := ctxlog.With(ctx, "run_id", def.RunID)
	if err := app.registry.Validate(def); err != nil {
		// No stage runs, but the attempted chain is still recorded.
		dest := chaindef.Destination(cfg.OutputDir, cfg.InputPath)
		if saveErr := app.chains.Save(def, dest); saveErr != nil {
			logger.Warn("Failed to save rejected chain.", "path", dest, "error", saveErr)
		}
		return err
	}
	logger.Info("Chain loaded.", "chain", def.Name, "stages", len(def.Stages), "workers", cfg.Workers)

	if cfg.PlanPath != "" {
		files, err := app.writePlan(def)
		if err != nil {
			return err
		}
		logger.Info("Plan written.", "path", cfg.PlanPath, "files", files)
	}

	group, err := worker.NewGroup(cfg.Workers)
	if err != nil {
		return err
	}
	exec := executor.New(app.registry, allocator.New(app.datasets), app.chains,
		executor.WithExtension(cfg.Extension),
		executor.WithObserver(app.status),
	)

	app.status.begin(def, cfg.Workers)
	start := time.Now()
	logger.Info("Starting chain execution...")
	err = group.Run(ctx, func(ctx context.Context, m worker.Member) error {
		in, err := app.datasets.Open(cfg.InputPath)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		final, err := exec.Run(ctx, in, def, cfg.OutputDir, m)
		if err != nil {
			return err
		}
		if len(def.Stages) == 0 {
			// An empty chain hands the input back untouched.
			return final.Complete()
		}
		if m.Context().IsLeader() {
			ctxlog.FromContext(ctx).Info("Final output written.", "path", final.Path())
		}
		return nil
	})
	app.status.finish(err)
	if err != nil {
		return fmt.Errorf("chain execution failed: %w", err)
	}

	logger.Info("Execution finished.",
		"duration", time.Since(start),
		"barriers", group.Generations(),
		"provenance", chaindef.Destination(cfg.OutputDir, cfg.InputPath),
	)
	app.logger.Debug("App.Run method finished.")
	return nil
}

// writePlan renders the chain's file graph to the plan path and returns the
// files in the order the chain produces them.
func (app *App) writePlan(def *chaindef.Definition) ([]string, error) {
	cfg := app.config
	g, err := plan.Build(def, cfg.InputPath, cfg.OutputDir, cfg.Extension)
	if err != nil {
		return nil, err
	}
	files, err := plan.Files(g)
	if err != nil {
		return nil, err
	}
	f, err := os.Create(cfg.PlanPath)
	if err != nil {
		return nil, fmt.Errorf("unable to create plan file %s: %w", cfg.PlanPath, err)
	}
	if err := plan.WriteDOT(f, g); err != nil {
		f.Close()
		return nil, err
	}
	return files, f.Close()
}
