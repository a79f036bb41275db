package cli

import (
	"fmt"
	"io"
	"os"
)

// EnvReadyFile names a file that is created once all watches are in
// place. Scripts wait for it instead of sleeping.
const EnvReadyFile = "INOTOOLS_READY_FILE"

// PrintWarnings writes each warning on its own line. Warnings are shown
// even with --quiet.
func PrintWarnings(errOut io.Writer, warnings []string) {
	for _, warning := range warnings {
		fmt.Fprintln(errOut, warning)
	}
}

// Banner prints a startup line unless quiet.
func Banner(errOut io.Writer, quiet bool, line string) {
	if quiet {
		return
	}
	fmt.Fprintln(errOut, line)
}

// SignalReady creates the file named by INOTOOLS_READY_FILE, if set.
func SignalReady() error {
	path := os.Getenv(EnvReadyFile)
	if path == "" {
		return nil
	}
	return os.WriteFile(path, []byte("ready\n"), 0o644)
}
