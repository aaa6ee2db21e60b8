package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice-republisher/internal/module"
	"backoffice-republisher/internal/pipeline"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestHelpExitsCleanly(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"--help"})

	err := rootCmd.Execute()
	require.NoError(t, err)
	assert.Equal(t, 0, ExitCode(err))
	assert.Contains(t, buf.String(), "scan")
	assert.Contains(t, buf.String(), "publish")
}

func TestExitCodes(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(fmt.Errorf("%w: missing BACKOFFICE_USER", errConfig)))
	assert.Equal(t, 2, ExitCode(fmt.Errorf("%w: listing fetch blew up", pipeline.ErrScanIncomplete)))
	assert.Equal(t, 2, ExitCode(errors.New("anything else")))
}

func TestParseCategoryArg(t *testing.T) {
	set, unknown := parseCategoryArg([]string{"os,ui"}, testLogger())
	assert.True(t, set[module.CategoryOS])
	assert.True(t, set[module.CategoryUI])
	assert.Empty(t, unknown)

	// No argument means no filtering.
	set, unknown = parseCategoryArg(nil, testLogger())
	assert.Nil(t, set)
	assert.Empty(t, unknown)

	// All tokens invalid: filter dropped, tokens reported.
	set, unknown = parseCategoryArg([]string{"bogus,nope"}, testLogger())
	assert.Nil(t, set)
	assert.Equal(t, []string{"bogus", "nope"}, unknown)
}

func TestSnapshotFlagOverridesEnvironment(t *testing.T) {
	t.Setenv("BACKOFFICE_USER", "operator")
	t.Setenv("BACKOFFICE_PASSWORD", "secret")
	t.Setenv("BACKOFFICE_ENV", "staging")
	t.Setenv("SNAPSHOT_PATH", "from-env.json")

	flag := rootCmd.PersistentFlags().Lookup("snapshot")
	require.NotNil(t, flag)
	require.NoError(t, flag.Value.Set("from-flag.json"))
	flag.Changed = true
	t.Cleanup(func() {
		flag.Value.Set("")
		flag.Changed = false
	})

	// The flag reaches the config through the viper binding.
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-flag.json", cfg.SnapshotPath)

	// Without the flag the environment value stands.
	flag.Value.Set("")
	flag.Changed = false
	cfg, err = loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-env.json", cfg.SnapshotPath)
}

func TestScanRequiresConfiguration(t *testing.T) {
	t.Setenv("BACKOFFICE_USER", "")
	t.Setenv("BACKOFFICE_PASSWORD", "")
	t.Setenv("BACKOFFICE_ENV", "")

	cmd := newScanCmd()
	cmd.SetArgs([]string{})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, 1, ExitCode(err))
}
