package metrics

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// Registry counts watcher activity for the lifetime of one run. A nil
// *Registry ignores every update.
type Registry struct {
	eventsReceived   atomic.Int64
	eventsAccepted   atomic.Int64
	eventsFiltered   atomic.Int64
	queueOverflows   atomic.Int64
	watchesInstalled atomic.Int64
	watchesFailed    atomic.Int64
	watchesRemoved   atomic.Int64
	kinds            sync.Map
}

func (r *Registry) IncEventsReceived() {
	if r == nil {
		return
	}
	r.eventsReceived.Add(1)
}

func (r *Registry) IncEventsFiltered() {
	if r == nil {
		return
	}
	r.eventsFiltered.Add(1)
}

func (r *Registry) IncQueueOverflows() {
	if r == nil {
		return
	}
	r.queueOverflows.Add(1)
}

func (r *Registry) IncWatchesInstalled() {
	if r == nil {
		return
	}
	r.watchesInstalled.Add(1)
}

func (r *Registry) IncWatchesFailed() {
	if r == nil {
		return
	}
	r.watchesFailed.Add(1)
}

func (r *Registry) IncWatchesRemoved() {
	if r == nil {
		return
	}
	r.watchesRemoved.Add(1)
}

// RecordAccepted counts one delivered event under each of its kind names.
func (r *Registry) RecordAccepted(kinds []string) {
	if r == nil {
		return
	}
	r.eventsAccepted.Add(1)
	for _, name := range kinds {
		if strings.TrimSpace(name) == "" {
			continue
		}
		r.kindCounter(name).Add(1)
	}
}

// Accepted returns the number of events delivered so far.
func (r *Registry) Accepted() int64 {
	if r == nil {
		return 0
	}
	return r.eventsAccepted.Load()
}

func (r *Registry) WritePrometheus(writer io.Writer) error {
	if r == nil {
		return nil
	}

	writeCounter(writer, "inotools_events_received_total", "Raw events read from the notification source", r.eventsReceived.Load())
	writeCounter(writer, "inotools_events_accepted_total", "Events delivered to the output", r.eventsAccepted.Load())
	writeCounter(writer, "inotools_events_filtered_total", "Events dropped by include or exclude patterns", r.eventsFiltered.Load())
	writeCounter(writer, "inotools_queue_overflows_total", "Kernel event queue overflows", r.queueOverflows.Load())
	writeCounter(writer, "inotools_watches_installed_total", "Watches installed", r.watchesInstalled.Load())
	writeCounter(writer, "inotools_watches_failed_total", "Watches that could not be installed", r.watchesFailed.Load())
	writeCounter(writer, "inotools_watches_removed_total", "Watches removed", r.watchesRemoved.Load())

	names := r.kindNames()
	sort.Strings(names)

	writeHelp(writer, "inotools_events_by_kind_total", "Delivered events per event kind")
	fmt.Fprintln(writer, "# TYPE inotools_events_by_kind_total counter")
	for _, name := range names {
		fmt.Fprintf(writer, "inotools_events_by_kind_total{kind=%s} %d\n", formatLabel(name), r.kindCounter(name).Load())
	}

	return nil
}

func (r *Registry) kindCounter(name string) *atomic.Int64 {
	value, _ := r.kinds.LoadOrStore(name, &atomic.Int64{})
	return value.(*atomic.Int64)
}

func (r *Registry) kindNames() []string {
	var names []string
	r.kinds.Range(func(key, value interface{}) bool {
		if name, ok := key.(string); ok {
			names = append(names, name)
		}
		return true
	})
	return names
}

func writeHelp(writer io.Writer, metric, help string) {
	fmt.Fprintf(writer, "# HELP %s %s\n", metric, help)
}

func writeCounter(writer io.Writer, metric, help string, value int64) {
	writeHelp(writer, metric, help)
	fmt.Fprintf(writer, "# TYPE %s counter\n", metric)
	fmt.Fprintf(writer, "%s %d\n", metric, value)
}

func formatLabel(value string) string {
	escaped := strings.ReplaceAll(value, "\\", "\\\\")
	escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
	return fmt.Sprintf("\"%s\"", escaped)
}
