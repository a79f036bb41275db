package notify

import (
	"errors"
	"fmt"
	"strings"

	"inotools/internal/logging"
)

// WatchID identifies an installed watch within one Source.
type WatchID int

// RawEvent is a single notification as delivered by a Source. Name is the
// entry name for events inside a watched directory and empty for events on
// the watched object itself.
type RawEvent struct {
	Watch  WatchID
	Kinds  Kind
	Name   string
	Cookie uint32
}

// Source is the platform capability set the watcher engine runs on.
type Source interface {
	// Name identifies the backend.
	Name() string

	// Add installs or replaces a watch for path.
	Add(path string, kinds Kind) (WatchID, error)

	// Remove drops a watch. Removing an unknown watch is not an error.
	Remove(id WatchID) error

	// Events delivers raw notifications. Closed after Close.
	Events() <-chan RawEvent

	// Errors delivers fatal backend failures. Closed after Close.
	Errors() <-chan error

	// Close releases the backend.
	Close() error
}

// Backend selects a Source implementation.
type Backend string

const (
	BackendAuto     Backend = "auto"
	BackendInotify  Backend = "inotify"
	BackendFSNotify Backend = "fsnotify"
)

var (
	// ErrWatchLimit is returned when the kernel refuses more watches.
	ErrWatchLimit = errors.New("upper limit on inotify watches reached")
	// ErrUnsupported is returned for backends unavailable on this platform.
	ErrUnsupported = errors.New("backend not available on this platform")
)

const eventQueueSize = 256

func ParseBackend(value string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(value))) {
	case "", BackendAuto:
		return BackendAuto, nil
	case BackendInotify:
		return BackendInotify, nil
	case BackendFSNotify:
		return BackendFSNotify, nil
	default:
		return "", fmt.Errorf("unknown backend %q (expected auto, inotify or fsnotify)", value)
	}
}

// New opens a Source. BackendAuto prefers the native inotify API and falls
// back to fsnotify where it is unavailable.
func New(backend Backend, logger *logging.Logger) (Source, error) {
	switch backend {
	case BackendInotify:
		return newInotifySource(logger)
	case BackendFSNotify:
		return newFSNotifySource(logger)
	}

	source, err := newInotifySource(logger)
	if err == nil {
		logger.Debug("using inotify backend", nil)
		return source, nil
	}
	logger.Debug("inotify not available, falling back to fsnotify", map[string]string{
		"error": err.Error(),
	})
	return newFSNotifySource(logger)
}
