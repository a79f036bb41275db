package watcher

import (
	"path/filepath"
	"sync"

	"inotools/internal/notify"
)

// fakeSource hands out watch ids per cleaned path, the way the kernel
// hands them out per inode.
type fakeSource struct {
	mutex   sync.Mutex
	nextID  notify.WatchID
	byPath  map[string]notify.WatchID
	masks   map[notify.WatchID]notify.Kind
	removed []notify.WatchID
	addErr  map[string]error
	events  chan notify.RawEvent
	errors  chan error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		byPath: make(map[string]notify.WatchID),
		masks:  make(map[notify.WatchID]notify.Kind),
		addErr: make(map[string]error),
		events: make(chan notify.RawEvent, 64),
		errors: make(chan error, 1),
	}
}

func (source *fakeSource) Name() string {
	return "fake"
}

func (source *fakeSource) Add(path string, kinds notify.Kind) (notify.WatchID, error) {
	source.mutex.Lock()
	defer source.mutex.Unlock()
	key := filepath.Clean(path)
	if err := source.addErr[key]; err != nil {
		return 0, err
	}
	id, ok := source.byPath[key]
	if !ok {
		source.nextID++
		id = source.nextID
		source.byPath[key] = id
	}
	source.masks[id] = kinds
	return id, nil
}

func (source *fakeSource) Remove(id notify.WatchID) error {
	source.mutex.Lock()
	defer source.mutex.Unlock()
	source.removed = append(source.removed, id)
	return nil
}

func (source *fakeSource) Events() <-chan notify.RawEvent {
	return source.events
}

func (source *fakeSource) Errors() <-chan error {
	return source.errors
}

func (source *fakeSource) Close() error {
	return nil
}

func (source *fakeSource) idFor(path string) notify.WatchID {
	source.mutex.Lock()
	defer source.mutex.Unlock()
	return source.byPath[filepath.Clean(path)]
}

func (source *fakeSource) maskFor(path string) notify.Kind {
	source.mutex.Lock()
	defer source.mutex.Unlock()
	return source.masks[source.byPath[filepath.Clean(path)]]
}

func (source *fakeSource) removedIDs() []notify.WatchID {
	source.mutex.Lock()
	defer source.mutex.Unlock()
	return append([]notify.WatchID(nil), source.removed...)
}

type recordingSink struct {
	watching []string
	events   []Event
	flushes  int
	err      error
}

func (sink *recordingSink) Watching(path string) {
	sink.watching = append(sink.watching, path)
}

func (sink *recordingSink) Handle(event Event) error {
	if sink.err != nil {
		return sink.err
	}
	sink.events = append(sink.events, event)
	return nil
}

func (sink *recordingSink) Flush() error {
	sink.flushes++
	return nil
}
