// Package mavlink is the inbound telemetry boundary: it turns a MAVLink
// link (UDP/TCP/serial, pymavlink-style connection strings) into a stream
// of decoded records with a category tag and a flat field mapping.
// The wire protocol itself is handled by gomavlib, treated as a black box.
package mavlink

import (
	"time"

	"github.com/juju/errors"
)

// Decoded is one telemetry record. Fields hold scalar/array values
// keyed by snake_case names, same shape as pymavlink's to_dict().
type Decoded struct {
	Type        string
	SystemID    byte
	ComponentID byte
	Fields      map[string]interface{}
}

var ErrSourceClosed = errors.New("mavlink source is closed")

// Source contract:
// - Recv waits at most timeout for the next record; no record within
//   timeout returns an error matching errors.IsTimeout
// - a single undecodable frame returns a plain error, the source stays usable
// - after Close, Recv returns ErrSourceClosed
type Source interface {
	Recv(timeout time.Duration) (*Decoded, error)
	Close() error
}

func errRecvTimeout(timeout time.Duration) error {
	return errors.Timeoutf("no message within %s", timeout)
}
