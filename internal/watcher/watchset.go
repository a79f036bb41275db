package watcher

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"inotools/internal/logging"
	"inotools/internal/metrics"
	"inotools/internal/notify"
)

// invalidationKinds are always requested from the source so the set can
// drop watches whose object went away.
const invalidationKinds = notify.DeleteSelf | notify.MoveSelf

// alwaysReported are delivered whether or not they were requested.
const alwaysReported = notify.Unmount

// WatchTarget is one installed watch.
type WatchTarget struct {
	Path      string
	Kinds     notify.Kind
	ID        notify.WatchID
	IsDir     bool
	Recursive bool
}

// Display is the path as it appears in output.
func (target WatchTarget) Display() string {
	if target.IsDir && !strings.HasSuffix(target.Path, string(os.PathSeparator)) {
		return target.Path + string(os.PathSeparator)
	}
	return target.Path
}

// Handle releases a single watch.
type Handle interface {
	ID() notify.WatchID
	Path() string
	Close() error
}

type watchHandle struct {
	set  *WatchSet
	id   notify.WatchID
	path string
	once sync.Once
}

func (handle *watchHandle) ID() notify.WatchID {
	return handle.id
}

func (handle *watchHandle) Path() string {
	return handle.path
}

func (handle *watchHandle) Close() error {
	if handle == nil || handle.set == nil {
		return nil
	}
	var err error
	handle.once.Do(func() {
		err = handle.set.remove(handle.id)
	})
	return err
}

// WatchSet owns the watches of one run. It is not safe for concurrent use.
type WatchSet struct {
	source    notify.Source
	byID      map[notify.WatchID]*WatchTarget
	byPath    map[string]notify.WatchID
	excludes  map[string]struct{}
	extra     notify.Kind
	recursive bool
	logger    *logging.Logger
	metrics   *metrics.Registry
}

func NewWatchSet(source notify.Source, logger *logging.Logger, registry *metrics.Registry) *WatchSet {
	return &WatchSet{
		source:   source,
		byID:     make(map[notify.WatchID]*WatchTarget),
		byPath:   make(map[string]notify.WatchID),
		excludes: make(map[string]struct{}),
		logger:   logger,
		metrics:  registry,
	}
}

// Exclude keeps path out of the set, including during recursion.
func (set *WatchSet) Exclude(path string) {
	set.excludes[filepath.Clean(path)] = struct{}{}
}

func (set *WatchSet) excluded(path string) bool {
	_, ok := set.excludes[filepath.Clean(path)]
	return ok
}

// Install watches path for kinds. Installing the same path again replaces
// the earlier watch.
func (set *WatchSet) Install(path string, kinds notify.Kind) (Handle, error) {
	return set.install(path, kinds, false)
}

func (set *WatchSet) install(path string, kinds notify.Kind, recursive bool) (Handle, error) {
	info, err := os.Stat(path)
	if err != nil {
		set.metrics.IncWatchesFailed()
		return nil, installFailure(path, err)
	}

	id, err := set.source.Add(path, kinds|invalidationKinds|set.extra)
	if err != nil {
		set.metrics.IncWatchesFailed()
		if errors.Is(err, notify.ErrWatchLimit) {
			return nil, &NotificationSourceError{Err: err}
		}
		return nil, installFailure(path, err)
	}

	key := filepath.Clean(path)
	if previous, ok := set.byPath[key]; ok && previous != id {
		delete(set.byID, previous)
	}
	if existing, ok := set.byID[id]; ok && existing.Path != path {
		delete(set.byPath, filepath.Clean(existing.Path))
	}

	target := &WatchTarget{
		Path:      path,
		Kinds:     kinds,
		ID:        id,
		IsDir:     info.IsDir(),
		Recursive: recursive,
	}
	set.byID[id] = target
	set.byPath[key] = id
	set.metrics.IncWatchesInstalled()
	set.logDebug("watch added", target)
	return &watchHandle{set: set, id: id, path: path}, nil
}

func installFailure(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return &PathNotFoundError{Path: path}
	}
	return &InstallError{Path: path, Err: err}
}

// Remove releases the watch behind handle.
func (set *WatchSet) Remove(handle Handle) error {
	if handle == nil {
		return nil
	}
	return handle.Close()
}

func (set *WatchSet) remove(id notify.WatchID) error {
	target, ok := set.byID[id]
	if !ok {
		return nil
	}
	set.forget(id)
	set.logDebug("watch removed", target)
	return set.source.Remove(id)
}

// forget drops the bookkeeping for a watch the kernel already released.
func (set *WatchSet) forget(id notify.WatchID) {
	target, ok := set.byID[id]
	if !ok {
		return
	}
	delete(set.byID, id)
	if set.byPath[filepath.Clean(target.Path)] == id {
		delete(set.byPath, filepath.Clean(target.Path))
	}
	set.metrics.IncWatchesRemoved()
}

// Lookup returns the target installed under id.
func (set *WatchSet) Lookup(id notify.WatchID) (WatchTarget, bool) {
	target, ok := set.byID[id]
	if !ok {
		return WatchTarget{}, false
	}
	return *target, true
}

// Paths lists the watched paths, sorted.
func (set *WatchSet) Paths() []string {
	paths := make([]string, 0, len(set.byID))
	for _, target := range set.byID {
		paths = append(paths, target.Path)
	}
	sort.Strings(paths)
	return paths
}

func (set *WatchSet) Len() int {
	return len(set.byID)
}

// Resolve turns a raw notification into an Event and applies watch
// invalidation. ok is false when nothing should be reported.
func (set *WatchSet) Resolve(raw notify.RawEvent, now time.Time) (Event, bool) {
	target, known := set.byID[raw.Watch]
	if !known {
		return Event{}, false
	}

	var event Event
	visible := raw.Kinds & (target.Kinds | alwaysReported)
	reported := visible != 0
	if reported {
		event = Event{
			Watch:     target.Display(),
			Name:      raw.Name,
			Kinds:     visible | raw.Kinds&notify.IsDir,
			Cookie:    raw.Cookie,
			Timestamp: now,
		}
		event.Path = event.Watch + event.Name
	}

	switch {
	case raw.Kinds.Has(notify.Ignored | notify.DeleteSelf | notify.Unmount):
		set.forget(raw.Watch)
		set.logDebug("watch invalidated", target)
	case raw.Kinds.Has(notify.MoveSelf):
		if err := set.remove(raw.Watch); err != nil {
			set.logger.Warn("watch remove failed", map[string]string{
				"inotools.category": "watcher",
				"path":              target.Path,
				"error":             err.Error(),
			})
		}
	}
	return event, reported
}

// Close removes every remaining watch.
func (set *WatchSet) Close() error {
	var errs []error
	for id := range set.byID {
		if err := set.remove(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (set *WatchSet) logDebug(message string, target *WatchTarget) {
	set.logger.Debug(message, map[string]string{
		"inotools.category": "watcher",
		"path":              target.Path,
		"wd":                strconv.Itoa(int(target.ID)),
		"active_watches":    strconv.Itoa(len(set.byID)),
	})
}
