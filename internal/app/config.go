package app

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/specialistvlad/chainrun/internal/executor"
)

// DefaultExtension is the extension of stage output files.
const DefaultExtension = executor.DefaultExtension

// DefaultLogFileName is the log file created in the output directory when no
// log file is configured.
const DefaultLogFileName = "log.txt"

// StdoutLogFile routes logs to the app's output writer instead of a file.
const StdoutLogFile = "-"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	InputPath string
	ChainPath string
	OutputDir string

	// Name overrides the chain name used to prefix output files.
	Name      string
	Extension string
	Workers   int

	LogFormat string
	LogLevel  string
	// LogFile is the log destination. Empty means log.txt in OutputDir.
	LogFile string

	// PlanPath, when set, receives a DOT rendering of the chain plan.
	PlanPath        string
	HealthcheckPort int
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	var errs []error
	if cfg.InputPath == "" {
		errs = append(errs, errors.New("InputPath is a required configuration field and cannot be empty"))
	}
	if cfg.ChainPath == "" {
		errs = append(errs, errors.New("ChainPath is a required configuration field and cannot be empty"))
	}
	if cfg.OutputDir == "" {
		errs = append(errs, errors.New("OutputDir is a required configuration field and cannot be empty"))
	}
	if cfg.Workers < 1 {
		errs = append(errs, fmt.Errorf("Workers must be at least 1, got %d", cfg.Workers))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if cfg.Extension == "" {
		cfg.Extension = DefaultExtension
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.OutputDir, DefaultLogFileName)
	}
	return &cfg, nil
}
