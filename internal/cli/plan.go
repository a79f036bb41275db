package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"inotools/internal/config"
	"inotools/internal/filter"
	"inotools/internal/fsutil"
	"inotools/internal/logging"
	"inotools/internal/notify"
	"inotools/internal/timeout"
)

// ErrNoTargets is returned when neither arguments nor --fromfile name a
// path.
var ErrNoTargets = errors.New("No files specified to watch!")

// Plan is a validated run configuration.
type Plan struct {
	Kinds notify.Kind
	// Requested is zero when --event was not given.
	Requested notify.Kind
	Timeout   time.Duration
	Filter    *filter.Filter
	Warnings  []string
	Paths     fsutil.PathList
	Recursive bool
	Backend   notify.Backend
	Settings  config.Settings
	Logger    *logging.Logger
}

// Inputs are the process resources a Plan is built from.
type Inputs struct {
	Tool  string
	Flags *pflag.FlagSet
	Args  []string
	Stdin io.Reader
	// LogOutput receives log lines, normally standard error.
	LogOutput io.Writer
}

// BuildPlan validates the common flags in a fixed order: filters, then
// timeout, then events, then settings, then paths. Nothing is watched
// before every check passed.
func (common *CommonFlags) BuildPlan(inputs Inputs) (Plan, error) {
	plan := Plan{}

	rules, err := filter.New(filter.Rules{
		Include:  common.Include,
		IncludeI: common.IncludeI,
		Exclude:  common.Exclude,
		ExcludeI: common.ExcludeI,
	})
	if err != nil {
		return Plan{}, err
	}
	plan.Filter = rules
	plan.Warnings = rules.Warnings()

	plan.Timeout, err = timeout.Parse(common.Timeout)
	if err != nil {
		return Plan{}, err
	}

	plan.Kinds, err = notify.ParseKinds(common.Events)
	if err != nil {
		return Plan{}, err
	}
	if len(common.Events) > 0 {
		plan.Requested = plan.Kinds
	}

	if common.Count < 0 {
		return Plan{}, fmt.Errorf("--count must be 0 or greater, got %d", common.Count)
	}

	plan.Settings, err = config.Load(config.LoadOptions{
		Tool:  inputs.Tool,
		Path:  common.Config,
		Flags: inputs.Flags,
	})
	if err != nil {
		return Plan{}, err
	}
	plan.Backend, err = notify.ParseBackend(plan.Settings.Backend)
	if err != nil {
		return Plan{}, err
	}
	plan.Logger = newLogger(plan.Settings.LogLevel, common.Verbose, inputs.LogOutput).With(map[string]string{
		"inotools.tool": inputs.Tool,
	})
	if plan.Settings.File != "" {
		plan.Logger.Debug("configuration loaded", map[string]string{"file": plan.Settings.File})
	}
	for _, key := range plan.Settings.Unknown {
		plan.Logger.Warn("unknown configuration key", map[string]string{
			"file": plan.Settings.File,
			"key":  key,
		})
	}

	plan.Recursive = common.Recursive
	plan.Paths = fsutil.SplitArgs(inputs.Args)
	if common.FromFile != "" {
		stdin := inputs.Stdin
		if stdin == nil {
			stdin = os.Stdin
		}
		list, err := fsutil.ReadPathFile(common.FromFile, stdin)
		if err != nil {
			return Plan{}, err
		}
		plan.Paths.Merge(list)
	}
	if len(plan.Paths.Targets) == 0 {
		return Plan{}, ErrNoTargets
	}
	return plan, nil
}

// MaxEvents resolves the stop-after-N setting. inotifywait stops after
// the first event unless monitoring; --count always wins.
func (common *CommonFlags) MaxEvents(monitor bool) int {
	if common.Count > 0 {
		return common.Count
	}
	if monitor {
		return 0
	}
	return 1
}

func newLogger(levelName string, verbose bool, output io.Writer) *logging.Logger {
	level, ok := logging.ParseLevel(levelName)
	if !ok {
		level = logging.LevelError
	}
	if verbose {
		level = logging.LevelDebug
	}
	return logging.NewLoggerWithOutput(level, output)
}
