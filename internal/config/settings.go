package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"inotools/internal/config/tomlkeys"
)

const (
	EnvPrefix = "INOTOOLS"
	// EnvConfig names a configuration file when --config is not given.
	EnvConfig = EnvPrefix + "_CONFIG"

	KeyFormat   = "format"
	KeyTimefmt  = "timefmt"
	KeyBackend  = "backend"
	KeyLogLevel = "log_level"
	KeyQuiet    = "quiet"
	KeyCSV      = "csv"
)

// flagNames maps configuration keys to the command-line flags that
// override them.
var flagNames = map[string]string{
	KeyFormat:   "format",
	KeyTimefmt:  "timefmt",
	KeyBackend:  "backend",
	KeyLogLevel: "log-level",
	KeyQuiet:    "quiet",
	KeyCSV:      "csv",
}

var defaults = map[string]any{
	KeyFormat:   "",
	KeyTimefmt:  "",
	KeyBackend:  "auto",
	KeyLogLevel: "error",
	KeyQuiet:    false,
	KeyCSV:      false,
}

// Settings are the values that may come from a file or the environment
// as well as from flags.
type Settings struct {
	Format   string
	Timefmt  string
	Backend  string
	LogLevel string
	Quiet    bool
	CSV      bool

	// File is the configuration file that was read, if any.
	File string
	// Unknown lists keys in the file that mean nothing to the tool.
	Unknown []string
}

type LoadOptions struct {
	// Tool selects the [tool] table of the configuration file.
	Tool string
	// Path is an explicit --config value.
	Path  string
	Flags *pflag.FlagSet
}

// Load layers defaults, the configuration file, INOTOOLS_* environment
// variables and changed flags, later layers winning.
func Load(options LoadOptions) (Settings, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	settings := Settings{}
	path, explicit := resolvePath(options.Path)
	if path != "" {
		store, err := tomlkeys.DecodeFile(path)
		switch {
		case err == nil:
			values := store.Section(options.Tool)
			settings.File = path
			settings.Unknown = unknownKeys(values)
			if err := v.MergeConfigMap(values); err != nil {
				return Settings{}, fmt.Errorf("load %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return Settings{}, fmt.Errorf("load configuration %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	for key := range defaults {
		if err := v.BindEnv(key); err != nil {
			return Settings{}, err
		}
	}

	if options.Flags != nil {
		for key, name := range flagNames {
			flag := options.Flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return Settings{}, err
			}
		}
	}

	settings.Format = v.GetString(KeyFormat)
	settings.Timefmt = v.GetString(KeyTimefmt)
	settings.Backend = strings.TrimSpace(v.GetString(KeyBackend))
	settings.LogLevel = strings.TrimSpace(v.GetString(KeyLogLevel))
	settings.Quiet = v.GetBool(KeyQuiet)
	settings.CSV = v.GetBool(KeyCSV)
	return settings, nil
}

// resolvePath picks the configuration file. explicit is true when the
// user named it, in which case it must exist.
func resolvePath(flagPath string) (string, bool) {
	if path := strings.TrimSpace(flagPath); path != "" {
		return path, true
	}
	if path := strings.TrimSpace(os.Getenv(EnvConfig)); path != "" {
		return path, true
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(dir, "inotools", "config.toml"), false
}

func unknownKeys(values map[string]any) []string {
	var unknown []string
	for key := range values {
		if _, ok := defaults[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	return unknown
}
