package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/chainrun/internal/dataset"
	"github.com/specialistvlad/chainrun/internal/registry"
	"github.com/specialistvlad/chainrun/internal/testutil"
)

// SetupAppTest creates a new app instance for system testing. Logs go to the
// returned buffer.
func SetupAppTest(t *testing.T, cfg Config, modules ...registry.Module) (*App, *testutil.SafeBuffer) {
	t.Helper()

	logBuffer := &testutil.SafeBuffer{}
	cfg.LogLevel = "debug"
	if cfg.LogFile == "" {
		cfg.LogFile = StdoutLogFile
	}
	appConfig, err := NewConfig(cfg)
	require.NoError(t, err)

	testApp, err := NewApp(logBuffer, appConfig, modules...)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, testApp.Close())
		if os.Getenv("CHAINRUN_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}

// runDirs is the on-disk layout of one test run.
type runDirs struct {
	input  string
	chain  string
	output string
}

// setupRun writes a raw time series input of frames x width values, where
// frame i holds i, i+1, ..., and the given chain file.
func setupRun(t *testing.T, frames, width int, chainHCL string) runDirs {
	t.Helper()
	root := t.TempDir()
	dirs := runDirs{
		input:  filepath.Join(root, "scan.h5"),
		chain:  filepath.Join(root, "chain.hcl"),
		output: filepath.Join(root, "out"),
	}
	require.NoError(t, os.Mkdir(dirs.output, 0o755))

	img, err := dataset.NewImage(dataset.Spec{
		Kind:     dataset.KindRawTimeseries,
		Shape:    dataset.Shape{Frames: frames, Width: width},
		Metadata: map[string]string{"detector": "pco1"},
	})
	require.NoError(t, err)
	for i := range img.Frames {
		for j := range img.Frames[i] {
			img.Frames[i][j] = float64(i + j)
		}
	}
	require.NoError(t, dataset.WriteFile(dirs.input, img))
	require.NoError(t, os.WriteFile(dirs.chain, []byte(chainHCL), 0o644))
	return dirs
}
