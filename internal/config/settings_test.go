package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{"CONFIG", "FORMAT", "TIMEFMT", "BACKEND", "LOG_LEVEL", "QUIET", "CSV"} {
		t.Setenv(EnvPrefix+"_"+key, "")
		os.Unsetenv(EnvPrefix + "_" + key)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("format", "", "")
	flags.String("timefmt", "", "")
	flags.String("backend", "auto", "")
	flags.BoolP("quiet", "q", false, "")
	flags.BoolP("csv", "c", false, "")
	return flags
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	settings, err := Load(LoadOptions{Tool: "inotifywait", Flags: testFlags()})
	require.NoError(t, err)
	assert.Equal(t, "auto", settings.Backend)
	assert.Equal(t, "error", settings.LogLevel)
	assert.False(t, settings.Quiet)
	assert.Empty(t, settings.Format)
	assert.Empty(t, settings.File)
}

func TestLoadPrecedence(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `format = "file-top"
timefmt = "%H"
backend = "inotify"
quiet = true

[inotifywait]
format = "file-section"
`)
	t.Setenv(EnvPrefix+"_TIMEFMT", "%M")

	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--backend", "fsnotify"}))

	settings, err := Load(LoadOptions{Tool: "inotifywait", Path: path, Flags: flags})
	require.NoError(t, err)
	assert.Equal(t, "file-section", settings.Format)
	assert.Equal(t, "%M", settings.Timefmt)
	assert.Equal(t, "fsnotify", settings.Backend)
	assert.True(t, settings.Quiet)
	assert.Equal(t, path, settings.File)
}

func TestLoadUnchangedFlagDoesNotMaskFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "backend = \"inotify\"\ncsv = true\n")

	settings, err := Load(LoadOptions{Tool: "inotifywatch", Path: path, Flags: testFlags()})
	require.NoError(t, err)
	assert.Equal(t, "inotify", settings.Backend)
	assert.True(t, settings.CSV)
}

func TestLoadFromEnvConfigPath(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "log-level = \"debug\"\n")
	t.Setenv(EnvConfig, path)

	settings, err := Load(LoadOptions{Tool: "inotifywait"})
	require.NoError(t, err)
	assert.Equal(t, "debug", settings.LogLevel)
}

func TestLoadFromUserConfigDir(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "inotools"), 0o755))
	path := filepath.Join(dir, "inotools", "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("quiet = true\n"), 0o600))

	settings, err := Load(LoadOptions{Tool: "inotifywait"})
	require.NoError(t, err)
	assert.True(t, settings.Quiet)
	assert.Equal(t, path, settings.File)
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	isolate(t)

	_, err := Load(LoadOptions{Tool: "inotifywait", Path: filepath.Join(t.TempDir(), "missing.toml")})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadReportsUnknownKeys(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "colour = \"red\"\nquiet = false\n[inotifywait]\nspeed = 3\n")

	settings, err := Load(LoadOptions{Tool: "inotifywait", Path: path})
	require.NoError(t, err)
	assert.Equal(t, []string{"colour", "speed"}, settings.Unknown)
}

func TestLoadInvalidToml(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "quiet = = true\n")

	_, err := Load(LoadOptions{Tool: "inotifywait", Path: path})
	assert.Error(t, err)
}
