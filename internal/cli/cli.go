package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/chainrun/internal/app"
	"github.com/specialistvlad/chainrun/internal/fsutil"
)

// Exit codes returned to the shell.
const (
	ExitUsage            = 1
	ExitInputMissing     = 2
	ExitChainMissing     = 3
	ExitOutputDirMissing = 4
	ExitRunFailed        = 5
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("chainrun", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
chainrun - Runs a chain of processing stages over a dataset with a group of
workers that step through the stages in lockstep.

Usage:
  chainrun [options] INPUT_FILE CHAIN_FILE OUTPUT_DIR

Arguments:
  INPUT_FILE   The dataset to process.
  CHAIN_FILE   The .hcl file holding the chain definition.
  OUTPUT_DIR   Directory the stage outputs and the processed chain are written to.

Options:
`)
		flagSet.PrintDefaults()
	}

	workersFlag := flagSet.Int("workers", 1, "Number of workers in the group.")
	nameFlag := flagSet.String("name", "", "Prefix for output file names. Overrides the chain name.")
	extFlag := flagSet.String("ext", app.DefaultExtension, "Extension of the stage output files.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	logFileFlag := flagSet.String("log-file", "", "Log file path. Defaults to OUTPUT_DIR/log.txt; '-' logs to stdout.")
	planFlag := flagSet.String("plan", "", "Write the chain's file plan as a DOT graph to this path.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if flagSet.NArg() != 3 {
		flagSet.Usage()
		return nil, false, &ExitError{
			Code:    ExitUsage,
			Message: fmt.Sprintf("expected 3 arguments (INPUT_FILE CHAIN_FILE OUTPUT_DIR), got %d", flagSet.NArg()),
		}
	}
	inputPath, chainPath, outputDir := flagSet.Arg(0), flagSet.Arg(1), flagSet.Arg(2)

	if !fsutil.FileExists(inputPath) {
		return nil, false, &ExitError{Code: ExitInputMissing, Message: fmt.Sprintf("input file '%s' does not exist", inputPath)}
	}
	if !fsutil.FileExists(chainPath) {
		return nil, false, &ExitError{Code: ExitChainMissing, Message: fmt.Sprintf("chain file '%s' does not exist", chainPath)}
	}
	if !fsutil.DirExists(outputDir) {
		return nil, false, &ExitError{Code: ExitOutputDirMissing, Message: fmt.Sprintf("output directory '%s' does not exist", outputDir)}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: ExitUsage, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: ExitUsage, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		InputPath:       inputPath,
		ChainPath:       chainPath,
		OutputDir:       outputDir,
		Name:            *nameFlag,
		Extension:       strings.TrimPrefix(*extFlag, "."),
		Workers:         *workersFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		LogFile:         *logFileFlag,
		PlanPath:        *planFlag,
		HealthcheckPort: *healthPortFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
