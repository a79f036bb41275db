package main

import (
	"errors"
	"fmt"
	"io"

	"inotools/internal/watcher"
)

const (
	exitCodeSuccess = 0
	exitCodeFailure = 1
)

// exitCodeFor reports err, unless it was already reported, and maps it to
// the process status. A deadline stop is a success.
func exitCodeFor(errOut io.Writer, err error) int {
	switch {
	case err == nil:
		return exitCodeSuccess
	case errors.Is(err, watcher.ErrNoWatches):
		// Each path already printed its own diagnostic.
		return exitCodeFailure
	default:
		fmt.Fprintln(errOut, err)
		return exitCodeFailure
	}
}
