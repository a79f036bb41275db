// Package timeout parses the --timeout argument.
package timeout

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// MaxSeconds is the largest timeout a time.Duration can hold.
const MaxSeconds = uint64(math.MaxInt64 / int64(time.Second))

var ErrOutOfRange = errors.New("The timeout value you provided is not in the representable range.")

// InvalidFormatError is returned for text that is not a non-negative
// base-10 integer.
type InvalidFormatError struct {
	Text string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("'%s' is not a valid timeout value.\nPlease specify an integer of value 0 or greater.", e.Text)
}

// Parse converts a number of seconds into a Duration. Zero means no
// timeout.
func Parse(text string) (time.Duration, error) {
	seconds, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, ErrOutOfRange
		}
		return 0, &InvalidFormatError{Text: text}
	}
	if seconds > MaxSeconds {
		return 0, ErrOutOfRange
	}
	return time.Duration(seconds) * time.Second, nil
}

// Deadline returns the absolute expiry for d, or the zero time when d is
// zero.
func Deadline(now time.Time, d time.Duration) time.Time {
	if d <= 0 {
		return time.Time{}
	}
	return now.Add(d)
}
