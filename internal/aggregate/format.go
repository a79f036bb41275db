// Package aggregate turns accepted events into output: one record per
// event in streaming mode, or a per-path tally table in statistics mode.
package aggregate

import (
	"errors"
	"strings"

	"github.com/ncruces/go-strftime"

	"inotools/internal/watcher"
)

// DefaultFormat renders "<path> <EVENT,NAMES>".
const DefaultFormat = "%w%f %e"

var ErrMissingTimefmt = errors.New("%T is used in --format but no --timefmt was given.")

// Formatter renders events with a printf-like format:
//
//	%w  watched path (directories end in a slash)
//	%f  entry name inside a watched directory
//	%e  event names joined by commas
//	%Xe event names joined by the character X
//	%T  event time rendered with the strftime layout
//	%%  a literal percent sign
type Formatter struct {
	format  string
	timefmt string
}

func NewFormatter(format, timefmt string) (*Formatter, error) {
	if format == "" {
		format = DefaultFormat
	}
	if timefmt == "" && strings.Contains(strings.ReplaceAll(format, "%%", ""), "%T") {
		return nil, ErrMissingTimefmt
	}
	return &Formatter{format: format, timefmt: timefmt}, nil
}

func (formatter *Formatter) Format(event watcher.Event) string {
	var builder strings.Builder
	format := []rune(formatter.format)
	for i := 0; i < len(format); i++ {
		if format[i] != '%' || i+1 >= len(format) {
			builder.WriteRune(format[i])
			continue
		}
		next := format[i+1]
		switch next {
		case 'w':
			builder.WriteString(event.Watch)
		case 'f':
			builder.WriteString(event.Name)
		case 'e':
			builder.WriteString(event.Kinds.Join(","))
		case 'T':
			builder.WriteString(strftime.Format(formatter.timefmt, event.Timestamp))
		case '%':
			builder.WriteRune('%')
		default:
			if i+2 < len(format) && format[i+2] == 'e' {
				builder.WriteString(event.Kinds.Join(string(next)))
				i += 2
				continue
			}
			builder.WriteRune('%')
			builder.WriteRune(next)
		}
		i++
	}
	return builder.String()
}

// Time renders the event time alone, for CSV output.
func (formatter *Formatter) Time(event watcher.Event) string {
	if formatter.timefmt == "" {
		return ""
	}
	return strftime.Format(formatter.timefmt, event.Timestamp)
}
