// Package cli holds the flags and startup checks shared by inotifywait and
// inotifywatch.
package cli

import (
	"github.com/spf13/pflag"
)

// CommonFlags are accepted by both tools.
type CommonFlags struct {
	Events    []string
	Timeout   string
	Quiet     bool
	Recursive bool
	Include   []string
	IncludeI  []string
	Exclude   []string
	ExcludeI  []string
	FromFile  string
	Config    string
	Backend   string
	Verbose   bool
	Count     int
}

// AddCommonFlags registers the shared flags on flags. Filter flags are
// string arrays so every occurrence is kept and repeats can be reported.
func AddCommonFlags(flags *pflag.FlagSet, common *CommonFlags) {
	flags.StringArrayVarP(&common.Events, "event", "e", nil, "Listen for specific event(s); may be repeated or comma separated")
	flags.StringVarP(&common.Timeout, "timeout", "t", "0", "Stop after `seconds`; 0 waits indefinitely")
	flags.BoolVarP(&common.Quiet, "quiet", "q", false, "Do not print the startup banner")
	flags.BoolVarP(&common.Recursive, "recursive", "r", false, "Watch directories recursively")
	flags.StringArrayVar(&common.Include, "include", nil, "Only report events for paths matching the extended regular `pattern`")
	flags.StringArrayVar(&common.IncludeI, "includei", nil, "Like --include but case insensitive")
	flags.StringArrayVar(&common.Exclude, "exclude", nil, "Do not report events for paths matching the extended regular `pattern`")
	flags.StringArrayVar(&common.ExcludeI, "excludei", nil, "Like --exclude but case insensitive")
	flags.StringVar(&common.FromFile, "fromfile", "", "Read paths to watch from `file`, one per line; '-' reads standard input")
	flags.StringVar(&common.Config, "config", "", "Read settings from the TOML `file`")
	flags.StringVar(&common.Backend, "backend", "auto", "Notification backend: auto, inotify or fsnotify")
	flags.BoolVar(&common.Verbose, "verbose", false, "Log debug information to standard error")
	flags.IntVar(&common.Count, "count", 0, "Stop after `n` events; 0 means no limit")
}
