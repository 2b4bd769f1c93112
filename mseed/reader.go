package mseed

import (
	"errors"
	"fmt"
	"io"

	"github.com/brimdata/wave"
	"go.uber.org/zap"
)

type ReadStats struct {
	Records    int64 `json:"records"`
	Bytes      int64 `json:"bytes"`
	BadRecords int64 `json:"bad_records"`
}

// Reader frames a stream of concatenated MiniSEED records.  The length of
// each record is taken from its blockette 1000, or the default record
// length if it has none.  Records that cannot be decoded are logged,
// counted and skipped.
type Reader struct {
	reader    io.Reader
	decoder   *Decoder
	logger    *zap.Logger
	defLength int
	stats     ReadStats
}

func NewReader(r io.Reader, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{
		reader:    r,
		decoder:   NewDecoder(logger),
		logger:    logger,
		defLength: DefaultRecordLen,
	}
}

// SetDefaultRecordLength sets the length assumed for records without
// blockette 1000.
func (r *Reader) SetDefaultRecordLength(n int) error {
	if n < MinRecordLen || n > MaxRecordLen {
		return fmt.Errorf("%w: %d bytes", ErrRecordLength, n)
	}
	r.defLength = n
	return nil
}

func (r *Reader) Stats() ReadStats {
	return r.stats
}

// Read returns the next record, or nil and a nil error at the end of the
// stream.
func (r *Reader) Read() (*wave.Record, error) {
	for {
		rec, err := r.next()
		if err != nil || rec != nil {
			return rec, err
		}
		if r.reader == nil {
			return nil, nil
		}
	}
}

// next returns a record, an error, or (nil, nil) after skipping a bad
// record.  At the end of the stream r.reader is set to nil.
func (r *Reader) next() (*wave.Record, error) {
	if r.reader == nil {
		return nil, nil
	}
	prefix := make([]byte, MinRecordLen)
	n, err := io.ReadFull(r.reader, prefix)
	if err != nil {
		if err == io.EOF {
			r.reader = nil
			return nil, nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			r.reader = nil
			r.stats.BadRecords++
			r.logger.Warn("Truncated record at end of stream", zap.Int("bytes", n))
			return nil, nil
		}
		return nil, err
	}
	length := r.defLength
	meta, headErr := quiet.Decode(prefix)
	if headErr == nil && meta.RecordLength != 0 {
		length = meta.RecordLength
	}
	data := prefix
	if length > MinRecordLen {
		data = make([]byte, length)
		copy(data, prefix)
		if n, err := io.ReadFull(r.reader, data[MinRecordLen:]); err != nil {
			if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
				r.reader = nil
				r.stats.BadRecords++
				r.logger.Warn("Truncated record at end of stream", zap.Int("bytes", MinRecordLen+n))
				return nil, nil
			}
			return nil, err
		}
	}
	r.stats.Bytes += int64(len(data))
	if headErr != nil {
		r.stats.BadRecords++
		r.logger.Warn("Skipping undecodable record", zap.Int("length", length), zap.Error(headErr))
		return nil, nil
	}
	meta, err = r.decoder.Decode(data)
	if err != nil {
		r.stats.BadRecords++
		r.logger.Warn("Skipping undecodable record", zap.Int("length", length), zap.Error(err))
		return nil, nil
	}
	r.stats.Records++
	return meta.Record(data), nil
}
