package aggregate

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"inotools/internal/notify"
	"inotools/internal/watcher"
)

var ErrAlreadyFlushed = errors.New("statistics were already written")

// NoEvents is printed instead of a table when nothing was counted.
const NoEvents = "No events occurred."

// SortTotal sorts rows by their total event count.
const SortTotal = "total"

// StatsOptions configures the statistics table.
type StatsOptions struct {
	// Requested fixes the table columns. Zero shows every kind that
	// occurred.
	Requested notify.Kind
	Zero      bool
	// SortKey is SortTotal or an event name.
	SortKey   string
	Ascending bool
	CSV       bool
}

type tally struct {
	path   string
	total  uint64
	counts map[notify.Kind]uint64
}

func (row *tally) count(key notify.Kind) uint64 {
	if key == 0 {
		return row.total
	}
	return row.counts[key]
}

// Stats counts events per watched path and writes the table on Flush.
type Stats struct {
	writer  io.Writer
	options StatsOptions
	sortKey notify.Kind
	rows    map[string]*tally
	flushed bool
}

func NewStats(writer io.Writer, options StatsOptions) (*Stats, error) {
	stats := &Stats{
		writer:  writer,
		options: options,
		rows:    make(map[string]*tally),
	}
	key := strings.ToLower(strings.TrimSpace(options.SortKey))
	if key != "" && key != SortTotal {
		kind, err := notify.ParseKind(key)
		if err != nil {
			return nil, err
		}
		if len(kind.Split()) != 1 {
			return nil, &notify.UnknownEventError{Name: options.SortKey}
		}
		stats.sortKey = kind
	}
	return stats, nil
}

func (stats *Stats) row(path string) *tally {
	row, ok := stats.rows[path]
	if !ok {
		row = &tally{path: path, counts: make(map[notify.Kind]uint64)}
		stats.rows[path] = row
	}
	return row
}

func (stats *Stats) Watching(path string) {
	stats.row(path)
}

func (stats *Stats) Handle(event watcher.Event) error {
	if stats.flushed {
		return ErrAlreadyFlushed
	}
	row := stats.row(event.Watch)
	row.total++
	for _, kind := range (event.Kinds &^ notify.IsDir).Split() {
		row.counts[kind]++
	}
	return nil
}

// Flush writes the table. It may only be called once.
func (stats *Stats) Flush() error {
	if stats.flushed {
		return ErrAlreadyFlushed
	}
	stats.flushed = true

	rows := stats.sortedRows()
	if len(rows) == 0 {
		_, err := fmt.Fprintln(stats.writer, NoEvents)
		return err
	}
	columns := stats.columns()

	header := []string{"total"}
	for _, kind := range columns {
		header = append(header, strings.ToLower(kind.String()))
	}
	header = append(header, "filename")

	records := [][]string{header}
	for _, row := range rows {
		record := []string{strconv.FormatUint(row.total, 10)}
		for _, kind := range columns {
			record = append(record, strconv.FormatUint(row.counts[kind], 10))
		}
		records = append(records, append(record, row.path))
	}

	if stats.options.CSV {
		writer := csv.NewWriter(stats.writer)
		if err := writer.WriteAll(records); err != nil {
			return err
		}
		return nil
	}

	table := tabwriter.NewWriter(stats.writer, 0, 8, 2, ' ', 0)
	for _, record := range records {
		if _, err := fmt.Fprintln(table, strings.Join(record, "\t")); err != nil {
			return err
		}
	}
	return table.Flush()
}

func (stats *Stats) sortedRows() []*tally {
	rows := make([]*tally, 0, len(stats.rows))
	for _, row := range stats.rows {
		if row.total == 0 && !stats.options.Zero {
			continue
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		left, right := rows[i].count(stats.sortKey), rows[j].count(stats.sortKey)
		if left != right {
			if stats.options.Ascending {
				return left < right
			}
			return left > right
		}
		return rows[i].path < rows[j].path
	})
	return rows
}

func (stats *Stats) columns() []notify.Kind {
	if stats.options.Requested != 0 {
		return (stats.options.Requested &^ notify.IsDir).Split()
	}
	var seen notify.Kind
	for _, row := range stats.rows {
		for kind, count := range row.counts {
			if count > 0 {
				seen |= kind
			}
		}
	}
	return seen.Split()
}
