//go:build linux

package notify

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
	"gopkg.in/tomb.v2"

	"inotools/internal/logging"
)

const inotifyBufferSize = 4096 * (unix.SizeofInotifyEvent + unix.NAME_MAX + 1)

type inotifySource struct {
	fd     int
	file   *os.File
	events chan RawEvent
	errors chan error
	tomb   tomb.Tomb
	mutex  sync.Mutex
	closed bool
	logger *logging.Logger
}

func newInotifySource(logger *logging.Logger) (Source, error) {
	fd, err := unix.InotifyInit1(unix.IN_CLOEXEC | unix.IN_NONBLOCK)
	if err != nil {
		return nil, fmt.Errorf("inotify init: %w", err)
	}

	source := &inotifySource{
		fd:     fd,
		file:   os.NewFile(uintptr(fd), "inotify"),
		events: make(chan RawEvent, eventQueueSize),
		errors: make(chan error, 1),
		logger: logger,
	}
	source.tomb.Go(source.readLoop)
	return source, nil
}

func (source *inotifySource) Name() string {
	return string(BackendInotify)
}

func (source *inotifySource) Add(path string, kinds Kind) (WatchID, error) {
	source.mutex.Lock()
	defer source.mutex.Unlock()
	if source.closed {
		return 0, os.ErrClosed
	}

	wd, err := unix.InotifyAddWatch(source.fd, path, uint32(kinds))
	if err != nil {
		if errors.Is(err, unix.ENOSPC) {
			return 0, fmt.Errorf("watch %s: %w", path, ErrWatchLimit)
		}
		return 0, &os.PathError{Op: "inotify_add_watch", Path: path, Err: err}
	}
	source.logger.Debug("inotify watch added", map[string]string{
		"path": path,
		"wd":   strconv.Itoa(wd),
		"mask": kinds.String(),
	})
	return WatchID(wd), nil
}

func (source *inotifySource) Remove(id WatchID) error {
	source.mutex.Lock()
	defer source.mutex.Unlock()
	if source.closed {
		return nil
	}

	if _, err := unix.InotifyRmWatch(source.fd, uint32(id)); err != nil {
		// EINVAL: the kernel already dropped the watch.
		if errors.Is(err, unix.EINVAL) {
			return nil
		}
		return fmt.Errorf("inotify_rm_watch %d: %w", id, err)
	}
	return nil
}

func (source *inotifySource) Events() <-chan RawEvent {
	return source.events
}

func (source *inotifySource) Errors() <-chan error {
	return source.errors
}

func (source *inotifySource) Close() error {
	source.mutex.Lock()
	if source.closed {
		source.mutex.Unlock()
		return nil
	}
	source.closed = true
	source.mutex.Unlock()

	source.tomb.Kill(nil)
	closeErr := source.file.Close()
	if err := source.tomb.Wait(); err != nil {
		return err
	}
	return closeErr
}

func (source *inotifySource) readLoop() error {
	defer close(source.events)
	defer close(source.errors)

	buf := make([]byte, inotifyBufferSize)
	for {
		n, err := source.file.Read(buf)
		if err != nil {
			if errors.Is(err, os.ErrClosed) {
				return nil
			}
			source.report(fmt.Errorf("read inotify events: %w", err))
			return nil
		}
		if n < unix.SizeofInotifyEvent {
			source.report(fmt.Errorf("short inotify read: %d bytes", n))
			return nil
		}

		offset := 0
		for offset <= n-unix.SizeofInotifyEvent {
			raw := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))
			nameLen := int(raw.Len)
			event := RawEvent{
				Watch:  WatchID(raw.Wd),
				Kinds:  Kind(raw.Mask),
				Cookie: raw.Cookie,
			}
			if nameLen > 0 {
				start := offset + unix.SizeofInotifyEvent
				event.Name = strings.TrimRight(string(buf[start:start+nameLen]), "\x00")
			}

			select {
			case source.events <- event:
			case <-source.tomb.Dying():
				return nil
			}
			offset += unix.SizeofInotifyEvent + nameLen
		}
	}
}

func (source *inotifySource) report(err error) {
	select {
	case source.errors <- err:
	case <-source.tomb.Dying():
	}
}
