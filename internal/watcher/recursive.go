package watcher

import (
	"errors"
	"io/fs"
	"path/filepath"

	"inotools/internal/notify"
)

// growKinds announce new subdirectories under a recursive watch.
const growKinds = notify.Create | notify.MovedTo

// EnableRecursion makes the set follow directories created or moved in
// below an installed tree.
func (set *WatchSet) EnableRecursion() {
	set.extra |= growKinds
	set.recursive = true
}

// InstallTree installs root and, when recursion is enabled and root is a
// directory, every directory below it. Only a failure on root itself or
// a NotificationSourceError is returned; other subdirectory failures are
// logged and skipped.
func (set *WatchSet) InstallTree(root string, kinds notify.Kind) ([]Handle, error) {
	if set.excluded(root) {
		return nil, nil
	}
	handle, err := set.install(root, kinds, false)
	if err != nil {
		return nil, err
	}
	handles := []Handle{handle}
	if !set.recursive {
		return handles, nil
	}
	if target, ok := set.Lookup(handle.ID()); !ok || !target.IsDir {
		return handles, nil
	}

	for _, dir := range set.collectRecursiveDirs(root) {
		child, err := set.install(dir, kinds, true)
		if err != nil {
			var sourceErr *NotificationSourceError
			if errors.As(err, &sourceErr) {
				return handles, err
			}
			set.logger.Warn("recursive watch skipped", map[string]string{
				"inotools.category": "watcher",
				"path":              dir,
				"error":             err.Error(),
			})
			continue
		}
		handles = append(handles, child)
	}
	return handles, nil
}

// collectRecursiveDirs lists the directories strictly below root, pruning
// excluded paths. Entries that vanish during the walk are skipped.
func (set *WatchSet) collectRecursiveDirs(root string) []string {
	dirs := []string{}
	_ = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		if path == root {
			return nil
		}
		if set.excluded(path) {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	return dirs
}

// Grow installs a directory that appeared below a recursive watch. It
// returns the number of watches added.
func (set *WatchSet) Grow(raw notify.RawEvent) (int, error) {
	if !set.recursive || raw.Name == "" {
		return 0, nil
	}
	if !raw.Kinds.Has(notify.IsDir) || !raw.Kinds.Has(growKinds) {
		return 0, nil
	}
	parent, ok := set.byID[raw.Watch]
	if !ok {
		return 0, nil
	}

	handles, err := set.InstallTree(filepath.Join(parent.Path, raw.Name), parent.Kinds)
	var missing *PathNotFoundError
	if errors.As(err, &missing) {
		// Removed again before we got to it.
		return 0, nil
	}
	for _, handle := range handles {
		if target, ok := set.byID[handle.ID()]; ok {
			target.Recursive = true
		}
	}
	return len(handles), err
}
