package notify

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/tomb.v2"

	"inotools/internal/logging"
)

// fsnotifySource adapts fsnotify to Source. fsnotify exposes a reduced,
// portable set of operations so OPEN, ACCESS and CLOSE_* never fire here.
type fsnotifySource struct {
	watcher *fsnotify.Watcher
	events  chan RawEvent
	errors  chan error
	tomb    tomb.Tomb
	mutex   sync.Mutex
	closed  bool
	nextID  WatchID
	byPath  map[string]WatchID
	watches map[WatchID]fsnotifyWatch
	logger  *logging.Logger
}

type fsnotifyWatch struct {
	path  string
	kinds Kind
	isDir bool
}

func newFSNotifySource(logger *logging.Logger) (Source, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	source := &fsnotifySource{
		watcher: watcher,
		events:  make(chan RawEvent, eventQueueSize),
		errors:  make(chan error, 1),
		byPath:  make(map[string]WatchID),
		watches: make(map[WatchID]fsnotifyWatch),
		logger:  logger,
	}
	source.tomb.Go(source.forward)
	return source, nil
}

func (source *fsnotifySource) Name() string {
	return string(BackendFSNotify)
}

func (source *fsnotifySource) Add(path string, kinds Kind) (WatchID, error) {
	cleaned := filepath.Clean(path)
	info, err := os.Stat(cleaned)
	if err != nil {
		return 0, err
	}

	source.mutex.Lock()
	defer source.mutex.Unlock()
	if source.closed {
		return 0, os.ErrClosed
	}

	if id, ok := source.byPath[cleaned]; ok {
		watch := source.watches[id]
		watch.kinds = kinds
		source.watches[id] = watch
		return id, nil
	}

	if err := source.watcher.Add(cleaned); err != nil {
		return 0, err
	}
	source.nextID++
	id := source.nextID
	source.byPath[cleaned] = id
	source.watches[id] = fsnotifyWatch{path: cleaned, kinds: kinds, isDir: info.IsDir()}
	return id, nil
}

func (source *fsnotifySource) Remove(id WatchID) error {
	source.mutex.Lock()
	watch, ok := source.watches[id]
	if ok {
		delete(source.watches, id)
		delete(source.byPath, watch.path)
	}
	closed := source.closed
	source.mutex.Unlock()

	if !ok || closed {
		return nil
	}
	if err := source.watcher.Remove(watch.path); err != nil && !errors.Is(err, fsnotify.ErrNonExistentWatch) {
		return err
	}
	return nil
}

func (source *fsnotifySource) Events() <-chan RawEvent {
	return source.events
}

func (source *fsnotifySource) Errors() <-chan error {
	return source.errors
}

func (source *fsnotifySource) Close() error {
	source.mutex.Lock()
	if source.closed {
		source.mutex.Unlock()
		return nil
	}
	source.closed = true
	source.mutex.Unlock()

	source.tomb.Kill(nil)
	closeErr := source.watcher.Close()
	if err := source.tomb.Wait(); err != nil {
		return err
	}
	return closeErr
}

func (source *fsnotifySource) forward() error {
	defer close(source.events)
	defer close(source.errors)

	for {
		select {
		case event, ok := <-source.watcher.Events:
			if !ok {
				return nil
			}
			for _, raw := range source.translate(event) {
				select {
				case source.events <- raw:
				case <-source.tomb.Dying():
					return nil
				}
			}
		case err, ok := <-source.watcher.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				select {
				case source.events <- RawEvent{Watch: -1, Kinds: QOverflow}:
				case <-source.tomb.Dying():
					return nil
				}
				continue
			}
			select {
			case source.errors <- err:
			case <-source.tomb.Dying():
			}
			return nil
		case <-source.tomb.Dying():
			return nil
		}
	}
}

// translate maps one fsnotify event onto the watches it concerns: the
// watched object itself and, when watched, its parent directory.
func (source *fsnotifySource) translate(event fsnotify.Event) []RawEvent {
	name := filepath.Clean(event.Name)

	source.mutex.Lock()
	defer source.mutex.Unlock()

	raws := make([]RawEvent, 0, 2)
	if id, ok := source.byPath[name]; ok {
		watch := source.watches[id]
		kinds := selfKinds(event.Op)
		if watch.isDir && kinds != 0 {
			kinds |= IsDir
		}
		if kinds != 0 {
			raws = append(raws, RawEvent{Watch: id, Kinds: kinds})
		}
	}
	if id, ok := source.byPath[filepath.Dir(name)]; ok && name != filepath.Dir(name) {
		kinds := entryKinds(event.Op)
		if kinds != 0 {
			if info, err := os.Lstat(name); err == nil && info.IsDir() {
				kinds |= IsDir
			}
			raws = append(raws, RawEvent{Watch: id, Kinds: kinds, Name: filepath.Base(name)})
		}
	}
	return raws
}

func selfKinds(op fsnotify.Op) Kind {
	var kinds Kind
	if op.Has(fsnotify.Write) {
		kinds |= Modify
	}
	if op.Has(fsnotify.Chmod) {
		kinds |= Attrib
	}
	if op.Has(fsnotify.Remove) {
		kinds |= DeleteSelf
	}
	if op.Has(fsnotify.Rename) {
		kinds |= MoveSelf
	}
	return kinds
}

func entryKinds(op fsnotify.Op) Kind {
	var kinds Kind
	if op.Has(fsnotify.Create) {
		kinds |= Create
	}
	if op.Has(fsnotify.Write) {
		kinds |= Modify
	}
	if op.Has(fsnotify.Chmod) {
		kinds |= Attrib
	}
	if op.Has(fsnotify.Remove) {
		kinds |= Delete
	}
	if op.Has(fsnotify.Rename) {
		kinds |= MovedFrom
	}
	return kinds
}
