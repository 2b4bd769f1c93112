//go:generate mockgen -destination=./mock/mock_source.go -package=mock github.com/brimdata/wave/recordstream Source

// Package recordstream defines Source, the interface through which waveform
// records are requested from an archive, a realtime server or a composite
// of several of them, along with the pieces its implementations share.
package recordstream

import (
	"time"

	"github.com/brimdata/wave"
	"github.com/brimdata/wave/pkg/nano"
)

// A Source delivers the records of the streams added to it.  A Source is
// configured with the setters, then drained with Read.  Read returns a nil
// record and a nil error at the end of the acquisition.  Close may be
// called from any goroutine and is idempotent.  It unblocks a pending Read,
// which then returns the end of the acquisition.
//
// Setters report configuration problems as rserr.Invalid errors.
type Source interface {
	// SetSource sets the backend specific address of the source.
	SetSource(address string) error
	// AddStream requests the stream id for the overall time window set
	// with SetStartTime, SetEndTime or SetTimeWindow.  The id may contain
	// the wildcards '*' and '?' if the backend supports them.
	AddStream(id wave.StreamID) error
	// AddStreamWindow requests the stream id for the window w.  An unset
	// side of w falls back to the overall time window.
	AddStreamWindow(id wave.StreamID, w nano.Window) error
	SetStartTime(nano.Ts) error
	SetEndTime(nano.Ts) error
	SetTimeWindow(nano.Window) error
	// SetTimeout bounds how long a single blocking backend operation
	// may wait.  Zero means no timeout.
	SetTimeout(time.Duration) error
	// SetRecordType selects the record format to deliver.  Only "mseed"
	// is supported.
	SetRecordType(string) error
	Read() (*wave.Record, error)
	Close() error
}

// RecordTypeMiniSEED is the only record type sources deliver.
const RecordTypeMiniSEED = "mseed"
