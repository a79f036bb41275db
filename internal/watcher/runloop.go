package watcher

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"inotools/internal/logging"
	"inotools/internal/metrics"
	"inotools/internal/notify"
	"inotools/internal/timeout"
)

// State is the phase of a run.
type State int

const (
	StateIdle State = iota
	StateInstalling
	StateRunning
	StateDraining
	StateTerminated
)

func (state State) String() string {
	switch state {
	case StateIdle:
		return "idle"
	case StateInstalling:
		return "installing"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateTerminated:
		return "terminated"
	default:
		return "state(" + strconv.Itoa(int(state)) + ")"
	}
}

// StopReason records why Running ended.
type StopReason string

const (
	StopNone      StopReason = ""
	StopDeadline  StopReason = "deadline"
	StopCount     StopReason = "count"
	StopCancelled StopReason = "cancelled"
	StopEmpty     StopReason = "empty"
	StopSource    StopReason = "source"
	StopError     StopReason = "error"
)

// Options configures one run.
type Options struct {
	Source notify.Source
	Filter Filter
	Sink   Sink

	Targets   []string
	Excludes  []string
	Kinds     notify.Kind
	Recursive bool

	// Timeout of zero waits indefinitely.
	Timeout time.Duration
	// MaxEvents of zero delivers events until another stop condition.
	MaxEvents int

	// Ready is called once every target has been installed.
	Ready func()
	// OnWatchError is called for each target that could not be watched.
	OnWatchError func(error)

	Logger  *logging.Logger
	Metrics *metrics.Registry
	Now     func() time.Time
}

// Result summarizes a finished run.
type Result struct {
	State    State
	Stop     StopReason
	Watched  int
	Accepted int
	Failed   []error
}

// Run installs the targets and delivers accepted events to the sink until
// the deadline passes, MaxEvents is reached, ctx is cancelled or no watch
// remains. The sink is flushed exactly once whenever Running was reached.
func Run(ctx context.Context, options Options) (Result, error) {
	result := Result{State: StateIdle}
	if options.Source == nil {
		return result, errors.New("notification source is required")
	}
	if options.Sink == nil {
		return result, errors.New("sink is required")
	}
	now := options.Now
	if now == nil {
		now = time.Now
	}
	kinds := options.Kinds
	if kinds == 0 {
		kinds = notify.AllEvents
	}
	logger := options.Logger.With(map[string]string{"inotools.category": "watcher"})

	result.State = StateInstalling
	set := NewWatchSet(options.Source, options.Logger, options.Metrics)
	defer func() {
		if err := set.Close(); err != nil {
			logger.Warn("watch cleanup failed", map[string]string{"error": err.Error()})
		}
	}()
	for _, exclude := range options.Excludes {
		set.Exclude(exclude)
	}
	if options.Recursive {
		set.EnableRecursion()
	}
	for _, target := range options.Targets {
		handles, err := set.InstallTree(target, kinds)
		if err != nil {
			var sourceErr *NotificationSourceError
			if errors.As(err, &sourceErr) {
				result.State = StateTerminated
				return result, err
			}
			result.Failed = append(result.Failed, err)
			if options.OnWatchError != nil {
				options.OnWatchError(err)
			}
			continue
		}
		for _, handle := range handles {
			if watched, ok := set.Lookup(handle.ID()); ok {
				options.Sink.Watching(watched.Display())
			}
		}
	}
	result.Watched = set.Len()
	if set.Len() == 0 {
		result.State = StateTerminated
		return result, ErrNoWatches
	}
	logger.Debug("watches established", map[string]string{
		"count":   strconv.Itoa(set.Len()),
		"backend": options.Source.Name(),
	})
	if options.Ready != nil {
		options.Ready()
	}

	result.State = StateRunning
	runErr := run(ctx, options, set, now, logger, &result)

	result.State = StateDraining
	if err := options.Sink.Flush(); err != nil && runErr == nil {
		runErr = fmt.Errorf("flush output: %w", err)
	}
	result.State = StateTerminated
	logger.Debug("run finished", map[string]string{
		"stop":     string(result.Stop),
		"accepted": strconv.Itoa(result.Accepted),
	})
	return result, runErr
}

func run(ctx context.Context, options Options, set *WatchSet, now func() time.Time, logger *logging.Logger, result *Result) error {
	var expired <-chan time.Time
	if deadline := timeout.Deadline(now(), options.Timeout); !deadline.IsZero() {
		timer := time.NewTimer(deadline.Sub(now()))
		defer timer.Stop()
		expired = timer.C
	}

	events := options.Source.Events()
	sourceErrors := options.Source.Errors()
	for {
		select {
		case <-ctx.Done():
			result.Stop = StopCancelled
			return nil
		case <-expired:
			result.Stop = StopDeadline
			return nil
		case err, ok := <-sourceErrors:
			if !ok {
				sourceErrors = nil
				continue
			}
			result.Stop = StopSource
			return &NotificationSourceError{Err: err}
		case raw, ok := <-events:
			if !ok {
				result.Stop = StopSource
				select {
				case err, ok := <-sourceErrors:
					if ok && err != nil {
						return &NotificationSourceError{Err: err}
					}
				default:
				}
				return &NotificationSourceError{Err: ErrSourceClosed}
			}
			done, err := handle(raw, options, set, now, logger, result)
			if err != nil || done {
				return err
			}
		}
	}
}

// handle processes one raw notification. done reports that a stop
// condition was reached.
func handle(raw notify.RawEvent, options Options, set *WatchSet, now func() time.Time, logger *logging.Logger, result *Result) (bool, error) {
	options.Metrics.IncEventsReceived()
	if raw.Kinds.Has(notify.QOverflow) {
		options.Metrics.IncQueueOverflows()
		logger.Warn("event queue overflowed, events were lost", nil)
		return false, nil
	}

	if _, err := set.Grow(raw); err != nil {
		var sourceErr *NotificationSourceError
		if errors.As(err, &sourceErr) {
			result.Stop = StopSource
			return true, err
		}
		logger.Warn("recursive watch failed", map[string]string{"error": err.Error()})
	}

	event, ok := set.Resolve(raw, now())
	if ok {
		if options.Filter != nil && !options.Filter.Accepts(event.Path) {
			options.Metrics.IncEventsFiltered()
			logger.Debug("event filtered", map[string]string{"path": event.Path})
		} else {
			if err := options.Sink.Handle(event); err != nil {
				result.Stop = StopError
				return true, fmt.Errorf("write event: %w", err)
			}
			result.Accepted++
			options.Metrics.RecordAccepted(event.Kinds.Names())
			if options.MaxEvents > 0 && result.Accepted >= options.MaxEvents {
				result.Stop = StopCount
				return true, nil
			}
		}
	}

	if set.Len() == 0 {
		result.Stop = StopEmpty
		return true, nil
	}
	return false, nil
}
