package aggregate

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inotools/internal/notify"
	"inotools/internal/watcher"
)

func fields(line string) []string {
	return strings.Fields(line)
}

func lines(output string) []string {
	return strings.Split(strings.TrimRight(output, "\n"), "\n")
}

func fileEvent(path string, kinds notify.Kind) watcher.Event {
	return watcher.Event{Watch: path, Path: path, Kinds: kinds}
}

func TestStatsRequestedColumns(t *testing.T) {
	var output bytes.Buffer
	stats, err := NewStats(&output, StatsOptions{Requested: notify.Open})
	require.NoError(t, err)

	for _, path := range []string{"/t/a.less", "/t/b.LESS", "/t/c.LeSsley", "/t/d"} {
		stats.Watching(path)
	}
	require.NoError(t, stats.Handle(fileEvent("/t/a.less", notify.Open)))
	require.NoError(t, stats.Handle(fileEvent("/t/b.LESS", notify.Open)))
	require.NoError(t, stats.Flush())

	got := lines(output.String())
	require.Len(t, got, 3)
	assert.Equal(t, []string{"total", "open", "filename"}, fields(got[0]))
	assert.Equal(t, []string{"1", "1", "/t/a.less"}, fields(got[1]))
	assert.Equal(t, []string{"1", "1", "/t/b.LESS"}, fields(got[2]))
}

func TestStatsColumnsAreAligned(t *testing.T) {
	var output bytes.Buffer
	stats, err := NewStats(&output, StatsOptions{Requested: notify.Open})
	require.NoError(t, err)
	require.NoError(t, stats.Handle(fileEvent("/t/a", notify.Open)))
	require.NoError(t, stats.Flush())

	got := lines(output.String())
	assert.Equal(t, strings.Index(got[0], "filename"), strings.Index(got[1], "/t/a"))
}

func TestStatsObservedColumnsAndDefaultSort(t *testing.T) {
	var output bytes.Buffer
	stats, err := NewStats(&output, StatsOptions{})
	require.NoError(t, err)

	require.NoError(t, stats.Handle(fileEvent("/t/a", notify.Modify)))
	require.NoError(t, stats.Handle(fileEvent("/t/b", notify.Open)))
	require.NoError(t, stats.Handle(fileEvent("/t/b", notify.Modify)))
	require.NoError(t, stats.Handle(watcher.Event{Watch: "/t/c/", Name: "x", Kinds: notify.Create | notify.IsDir}))
	require.NoError(t, stats.Flush())

	got := lines(output.String())
	require.Len(t, got, 4)
	assert.Equal(t, []string{"total", "modify", "open", "create", "filename"}, fields(got[0]))
	assert.Equal(t, []string{"2", "1", "1", "0", "/t/b"}, fields(got[1]))
	assert.Equal(t, []string{"1", "1", "0", "0", "/t/a"}, fields(got[2]))
	assert.Equal(t, []string{"1", "0", "0", "1", "/t/c/"}, fields(got[3]))
}

func TestStatsAscendingByKind(t *testing.T) {
	var output bytes.Buffer
	stats, err := NewStats(&output, StatsOptions{SortKey: "open", Ascending: true})
	require.NoError(t, err)

	require.NoError(t, stats.Handle(fileEvent("/t/a", notify.Open)))
	require.NoError(t, stats.Handle(fileEvent("/t/a", notify.Open)))
	require.NoError(t, stats.Handle(fileEvent("/t/b", notify.Modify)))
	require.NoError(t, stats.Handle(fileEvent("/t/b", notify.Modify)))
	require.NoError(t, stats.Handle(fileEvent("/t/b", notify.Modify)))
	require.NoError(t, stats.Flush())

	got := lines(output.String())
	require.Len(t, got, 3)
	assert.Equal(t, "/t/b", fields(got[1])[3])
	assert.Equal(t, "/t/a", fields(got[2])[3])
}

func TestStatsZeroRows(t *testing.T) {
	var output bytes.Buffer
	stats, err := NewStats(&output, StatsOptions{Requested: notify.Open, Zero: true})
	require.NoError(t, err)
	stats.Watching("/t/quiet")
	require.NoError(t, stats.Handle(fileEvent("/t/busy", notify.Open)))
	require.NoError(t, stats.Flush())

	got := lines(output.String())
	require.Len(t, got, 3)
	assert.Equal(t, []string{"0", "0", "/t/quiet"}, fields(got[2]))
}

func TestStatsWithoutEvents(t *testing.T) {
	var output bytes.Buffer
	stats, err := NewStats(&output, StatsOptions{})
	require.NoError(t, err)
	stats.Watching("/t/quiet")
	require.NoError(t, stats.Flush())

	assert.Equal(t, NoEvents+"\n", output.String())
}

func TestStatsFlushOnce(t *testing.T) {
	var output bytes.Buffer
	stats, err := NewStats(&output, StatsOptions{})
	require.NoError(t, err)
	require.NoError(t, stats.Handle(fileEvent("/t/a", notify.Open)))
	require.NoError(t, stats.Flush())
	written := output.String()

	assert.ErrorIs(t, stats.Flush(), ErrAlreadyFlushed)
	assert.ErrorIs(t, stats.Handle(fileEvent("/t/a", notify.Open)), ErrAlreadyFlushed)
	assert.Equal(t, written, output.String())
}

func TestStatsCSV(t *testing.T) {
	var output bytes.Buffer
	stats, err := NewStats(&output, StatsOptions{Requested: notify.Open | notify.Modify, CSV: true})
	require.NoError(t, err)
	require.NoError(t, stats.Handle(fileEvent("/t/a,b", notify.Open)))
	require.NoError(t, stats.Flush())

	assert.Equal(t, "total,modify,open,filename\n1,0,1,\"/t/a,b\"\n", output.String())
}

func TestStatsRejectsUnknownSortKey(t *testing.T) {
	_, err := NewStats(&bytes.Buffer{}, StatsOptions{SortKey: "bogus"})
	var unknown *notify.UnknownEventError
	assert.ErrorAs(t, err, &unknown)

	_, err = NewStats(&bytes.Buffer{}, StatsOptions{SortKey: "close"})
	assert.ErrorAs(t, err, &unknown)

	_, err = NewStats(&bytes.Buffer{}, StatsOptions{SortKey: "TOTAL"})
	assert.NoError(t, err)
}
