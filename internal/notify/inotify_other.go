//go:build !linux

package notify

import "inotools/internal/logging"

func newInotifySource(logger *logging.Logger) (Source, error) {
	return nil, ErrUnsupported
}
