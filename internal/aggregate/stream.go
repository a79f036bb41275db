package aggregate

import (
	"encoding/csv"
	"io"

	"inotools/internal/watcher"
)

// StreamOptions configures streaming output.
type StreamOptions struct {
	CSV bool
	// NoNewline leaves the record terminator to the format string.
	NoNewline bool
}

// Stream writes each accepted event as soon as it is handled.
type Stream struct {
	writer    io.Writer
	formatter *Formatter
	csv       *csv.Writer
	options   StreamOptions
}

func NewStream(writer io.Writer, formatter *Formatter, options StreamOptions) *Stream {
	stream := &Stream{writer: writer, formatter: formatter, options: options}
	if options.CSV {
		stream.csv = csv.NewWriter(writer)
	}
	return stream
}

func (stream *Stream) Watching(string) {}

func (stream *Stream) Handle(event watcher.Event) error {
	if stream.csv != nil {
		record := []string{event.Watch, event.Kinds.Join(","), event.Name}
		if stamp := stream.formatter.Time(event); stamp != "" {
			record = append([]string{stamp}, record...)
		}
		if err := stream.csv.Write(record); err != nil {
			return err
		}
		stream.csv.Flush()
		return stream.csv.Error()
	}

	line := stream.formatter.Format(event)
	if !stream.options.NoNewline {
		line += "\n"
	}
	_, err := io.WriteString(stream.writer, line)
	return err
}

func (stream *Stream) Flush() error {
	if stream.csv != nil {
		stream.csv.Flush()
		return stream.csv.Error()
	}
	return nil
}
