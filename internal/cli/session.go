package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"inotools/internal/logging"
	"inotools/internal/metrics"
	"inotools/internal/notify"
	"inotools/internal/watcher"
)

// Banners are the two startup lines a tool prints around installation.
type Banners struct {
	SettingUp   string
	Established string
}

// Session runs a Plan against a notification source.
type Session struct {
	Plan      Plan
	Sink      watcher.Sink
	MaxEvents int
	Banners   Banners
	ErrOut    io.Writer

	// Open creates the notification source. Defaults to notify.New.
	Open    func(notify.Backend, *logging.Logger) (notify.Source, error)
	Metrics *metrics.Registry
}

const recursiveNotice = "  Beware: since -r was given, this may take a while!"

// Run installs the plan's watches and pumps events into the sink until a
// stop condition. Per-path failures are printed as they happen.
func (session *Session) Run(ctx context.Context) (watcher.Result, error) {
	plan := session.Plan
	open := session.Open
	if open == nil {
		open = notify.New
	}
	registry := session.Metrics
	if registry == nil {
		registry = &metrics.Registry{}
	}

	source, err := open(plan.Backend, plan.Logger)
	if err != nil {
		return watcher.Result{}, fmt.Errorf("Couldn't initialize the notification backend: %w", err)
	}
	defer func() {
		if err := source.Close(); err != nil {
			plan.Logger.Warn("closing notification source failed", map[string]string{"error": err.Error()})
		}
	}()

	quiet := plan.Settings.Quiet
	settingUp := session.Banners.SettingUp
	if plan.Recursive && settingUp != "" {
		settingUp += recursiveNotice
	}
	Banner(session.ErrOut, quiet, settingUp)

	result, err := watcher.Run(ctx, watcher.Options{
		Source:    source,
		Filter:    plan.Filter,
		Sink:      session.Sink,
		Targets:   plan.Paths.Targets,
		Excludes:  plan.Paths.Excludes,
		Kinds:     plan.Kinds,
		Recursive: plan.Recursive,
		Timeout:   plan.Timeout,
		MaxEvents: session.MaxEvents,
		Ready: func() {
			Banner(session.ErrOut, quiet, session.Banners.Established)
			if err := SignalReady(); err != nil {
				plan.Logger.Warn("ready file not written", map[string]string{"error": err.Error()})
			}
		},
		OnWatchError: func(err error) {
			fmt.Fprintln(session.ErrOut, err)
		},
		Logger:  plan.Logger,
		Metrics: registry,
	})
	LogMetrics(plan.Logger, registry)
	return result, err
}

// LogMetrics writes the run counters to the debug log.
func LogMetrics(logger *logging.Logger, registry *metrics.Registry) {
	if !logger.Enabled(logging.LevelDebug) {
		return
	}
	var text strings.Builder
	if err := registry.WritePrometheus(&text); err != nil {
		logger.Warn("metrics not rendered", map[string]string{"error": err.Error()})
		return
	}
	logger.Debug("run metrics", map[string]string{"metrics": text.String()})
}
