package watcher

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"inotools/internal/notify"
)

// Event is a notification resolved against the Watch Set.
type Event struct {
	// Watch is the watched path. Directories carry a trailing slash.
	Watch string
	// Name is the entry inside a watched directory, empty for events on
	// the watched object itself.
	Name      string
	Path      string
	Kinds     notify.Kind
	Cookie    uint32
	Timestamp time.Time
}

// Sink consumes accepted events.
type Sink interface {
	// Watching announces a watched path before any event is delivered.
	Watching(path string)
	Handle(event Event) error
	// Flush is called exactly once when the run drains.
	Flush() error
}

// Filter decides whether an event path is delivered.
type Filter interface {
	Accepts(path string) bool
}

var (
	// ErrNoWatches is returned when no target could be watched.
	ErrNoWatches = errors.New("No files could be watched.")
	// ErrSourceClosed is reported when the source stops without an error.
	ErrSourceClosed = errors.New("notification source closed unexpectedly")
)

// PathNotFoundError is returned by Install for a path that does not exist.
type PathNotFoundError struct {
	Path string
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("Couldn't watch %s: No such file or directory", e.Path)
}

func (e *PathNotFoundError) Unwrap() error {
	return fs.ErrNotExist
}

// InstallError is any other per-path install failure.
type InstallError struct {
	Path string
	Err  error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("Couldn't watch %s: %v", e.Path, e.Err)
}

func (e *InstallError) Unwrap() error {
	return e.Err
}

// NotificationSourceError means the notification facility became unusable.
type NotificationSourceError struct {
	Err error
}

func (e *NotificationSourceError) Error() string {
	if errors.Is(e.Err, notify.ErrWatchLimit) {
		return "Failed to watch; upper limit on inotify watches reached!\n" +
			"Please increase the amount of inotify watches allowed per user via `/proc/sys/fs/inotify/max_user_watches'."
	}
	return fmt.Sprintf("Notification source failed: %v", e.Err)
}

func (e *NotificationSourceError) Unwrap() error {
	return e.Err
}
