package downloader

import (
	"errors"

	"github.com/silverfox-dev/boorudl/booru"
)

// ErrDuplicate is returned by Sink.Store when an identical file is
// already present. The downloader counts it as a skip, not a failure.
var ErrDuplicate = errors.New("identical file already stored")

// Sink places verified media bytes. name carries the extension; the
// sink decides the layout around it (rating subdirectories for both
// implementations).
type Sink interface {
	// Contains is a cheap existence probe checked before the download
	// starts. Sinks that cannot probe cheaply return false and rely on
	// Store's duplicate handling instead.
	Contains(p booru.Post, name string) bool

	// Store persists data under name. Implementations must be safe for
	// concurrent use.
	Store(p booru.Post, name string, data []byte) error

	// Close flushes whatever the sink buffers.
	Close() error
}
