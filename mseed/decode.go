// Package mseed decodes the metadata of MiniSEED records: the fixed
// section data header and the blockette chain that follows it.  Samples
// are never decompressed.
package mseed

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/brimdata/wave"
	"github.com/brimdata/wave/pkg/nano"
	"go.uber.org/zap"
)

const (
	MinRecordLen   = 128
	MaxRecordLen   = 1 << 20
	FixedHeaderLen = 48

	// DefaultRecordLen is assumed for records without blockette 1000.
	DefaultRecordLen = 512
)

var (
	ErrRecordLength  = errors.New("mseed: record length out of range")
	ErrInvalidHeader = errors.New("mseed: invalid fixed section header")
)

// Activity flag bit signalling that the time correction has already been
// applied to the start time.
const actTimeCorrectionApplied = 0x02

// Meta is the metadata of one record.
type Meta struct {
	ID         wave.StreamID
	Header     wave.Header
	NumSamples int
	Start      nano.Ts
	End        nano.Ts
	Encoding   Encoding
	// RecordLength is the record length announced by blockette 1000 or
	// zero if the record has none.
	RecordLength int
	Order        binary.ByteOrder
}

// Record returns a record carrying m and owning data.
func (m *Meta) Record(data []byte) *wave.Record {
	return &wave.Record{
		ID:         m.ID,
		Header:     m.Header,
		NumSamples: m.NumSamples,
		Start:      m.Start,
		End:        m.End,
		Data:       data,
	}
}

// A Decoder decodes record metadata and logs the structural problems it
// runs into.  It holds no per-record state and is safe for concurrent use.
type Decoder struct {
	logger *zap.Logger
}

func NewDecoder(logger *zap.Logger) *Decoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decoder{logger: logger}
}

var quiet = NewDecoder(nil)

// Decode decodes the metadata of the record b without logging.
func Decode(b []byte) (Meta, error) {
	return quiet.Decode(b)
}

// Decode decodes the metadata of the record b.  On error the returned Meta
// is the zero value.  A malformed blockette chain is not an error: the walk
// stops and whatever was decoded up to that point is kept.
func (d *Decoder) Decode(b []byte) (Meta, error) {
	if len(b) < MinRecordLen || len(b) > MaxRecordLen {
		d.logger.Debug("Record length out of range", zap.Int("length", len(b)))
		return Meta{}, fmt.Errorf("%w: %d bytes", ErrRecordLength, len(b))
	}
	if !validFixedSection(b) {
		d.logger.Debug("Invalid fixed section header")
		return Meta{}, ErrInvalidHeader
	}
	r := &fieldReader{buf: b}
	var m Meta
	r.seek(8)
	m.ID.Station = r.code(5)
	m.ID.Location = r.code(2)
	m.ID.Channel = r.code(3)
	m.ID.Network = r.code(2)
	r.order = detectOrder(b)
	if r.order == nil {
		d.logger.Warn("Invalid record start time", zap.Stringer("stream", m.ID))
		return Meta{}, fmt.Errorf("%w: %s: no byte order yields a valid year and day", ErrInvalidHeader, m.ID)
	}
	m.Order = r.order
	start, err := readBTime(r)
	if err != nil {
		d.logger.Warn("Invalid record start time", zap.Stringer("stream", m.ID), zap.Error(err))
		return Meta{}, fmt.Errorf("%w: %s: %s", ErrInvalidHeader, m.ID, err)
	}
	m.NumSamples = int(r.uint16())
	fact := r.int16()
	mult := r.int16()
	act := r.uint8()
	r.skip(3) // io flags, dq flags, blockette count
	correction := r.int32()
	r.skip(2) // begin data
	firstBlockette := int(r.uint16())
	if correction != 0 && act&actTimeCorrectionApplied == 0 {
		start += nano.Ts(correction) * nano.Ts(100*time.Microsecond)
	}
	m.Encoding = EncodingNone
	start += d.walkBlockettes(r, &m, firstBlockette)
	m.Start = start
	num, den := sampleRate(fact, mult)
	m.Header = wave.Header{
		DataType:                     m.Encoding.DataType(),
		SamplingTime:                 start,
		SamplingFrequencyNumerator:   num,
		SamplingFrequencyDenominator: den,
	}
	m.End = EndTime(start, m.NumSamples, num, den)
	return m, nil
}

// walkBlockettes follows the blockette chain starting at off, fills in the
// fields of m the blockettes describe and returns the start time offset
// carried by blockette 1001.  Offsets must strictly increase, so the walk
// ends after at most len(r.buf) steps and never reads outside r.buf.
func (d *Decoder) walkBlockettes(r *fieldReader, m *Meta, off int) nano.Ts {
	var delta nano.Ts
	size := len(r.buf)
	for off != 0 {
		if off < FixedHeaderLen {
			d.stopWalk(m, "blockette offset inside fixed header", off)
			break
		}
		if off+blocketteHeaderLen > size {
			d.stopWalk(m, "blockette header beyond record end", off)
			break
		}
		r.seek(off)
		typ := r.uint16()
		next := int(r.uint16())
		length := blocketteLength(typ, r, off)
		if length == 0 {
			d.stopWalk(m, fmt.Sprintf("unknown length for blockette %d", typ), off)
			break
		}
		if off+length > size {
			d.stopWalk(m, fmt.Sprintf("blockette %d exceeds record length", typ), off)
			break
		}
		switch typ {
		case Blockette1000:
			r.seek(off + blocketteHeaderLen)
			m.Encoding = Encoding(r.uint8())
			r.skip(1) // word order
			if exp := r.uint8(); exp >= 7 && exp <= 20 {
				m.RecordLength = 1 << exp
			}
		case Blockette1001:
			r.seek(off + blocketteHeaderLen + 1)
			delta += nano.Ts(r.int8()) * nano.Ts(time.Microsecond)
		}
		if next == 0 {
			break
		}
		if next < off+length {
			d.stopWalk(m, "next blockette offset points into current blockette", next)
			break
		}
		if next >= size {
			d.stopWalk(m, "next blockette offset beyond record end", next)
			break
		}
		off = next
	}
	return delta
}

func (d *Decoder) stopWalk(m *Meta, reason string, off int) {
	d.logger.Warn("Blockette chain abandoned",
		zap.Stringer("stream", m.ID),
		zap.String("reason", reason),
		zap.Int("offset", off))
}

// validFixedSection checks the byte-order independent parts of the fixed
// section: sequence number, quality indicator, reserved byte and the
// single-byte time fields.
func validFixedSection(b []byte) bool {
	for _, c := range b[:6] {
		if (c < '0' || c > '9') && c != ' ' && c != 0 {
			return false
		}
	}
	switch b[6] {
	case 'D', 'R', 'Q', 'M':
	default:
		return false
	}
	if b[7] != ' ' && b[7] != 0 {
		return false
	}
	return b[24] <= 23 && b[25] <= 59 && b[26] <= 60
}

// detectOrder returns the byte order in which the start time's year and
// day of year are plausible, preferring the big-endian order mandated by
// SEED, or nil if neither order is.
func detectOrder(b []byte) binary.ByteOrder {
	for _, order := range []binary.ByteOrder{binary.BigEndian, binary.LittleEndian} {
		year := order.Uint16(b[20:])
		doy := order.Uint16(b[22:])
		if validYearDay(year, doy) {
			return order
		}
	}
	return nil
}

func validYearDay(year, doy uint16) bool {
	return year >= 1900 && year <= 2100 && doy >= 1 && doy <= 366
}

// readBTime reads the 10-byte SEED BTIME at offset 20.
func readBTime(r *fieldReader) (nano.Ts, error) {
	r.seek(20)
	year := int(r.uint16())
	doy := int(r.uint16())
	hour := int(r.uint8())
	min := int(r.uint8())
	sec := int(r.uint8())
	r.skip(1)
	fract := int(r.uint16())
	if fract > 9999 {
		return 0, fmt.Errorf("fractional seconds %d out of range", fract)
	}
	t := time.Date(year, time.January, doy, hour, min, sec, fract*100_000, time.UTC)
	return nano.TimeToTs(t), nil
}

// sampleRate converts the SEED sample rate factor and multiplier into a
// rational numerator/denominator.  A positive value multiplies the
// numerator and a negative one, negated, multiplies the denominator.  A zero
// factor or multiplier means no sample rate.
func sampleRate(fact, mult int16) (int, int) {
	num, den := 1, 1
	switch {
	case fact > 0:
		num = int(fact)
	case fact < 0:
		den = -int(fact)
	default:
		return 0, 1
	}
	switch {
	case mult > 0:
		num *= int(mult)
	case mult < 0:
		den *= -int(mult)
	default:
		return 0, 1
	}
	return num, den
}

// EndTime returns start + n*den/num seconds using integer arithmetic,
// saturating at nano.MaxTs.  A record without a sample rate ends where it
// starts.
func EndTime(start nano.Ts, n, num, den int) nano.Ts {
	if num <= 0 || den <= 0 || n <= 0 {
		return start
	}
	total := int64(n) * int64(den)
	q, rem := total/int64(num), total%int64(num)
	if q > math.MaxInt64/int64(time.Second)-1 {
		return nano.MaxTs
	}
	d := nano.Ts(q*int64(time.Second) + rem*int64(time.Second)/int64(num))
	if start > 0 && d > nano.MaxTs-start {
		return nano.MaxTs
	}
	return start + d
}
