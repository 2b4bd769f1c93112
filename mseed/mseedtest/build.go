// Package mseedtest builds synthetic MiniSEED records for tests.
package mseedtest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/brimdata/wave"
	"github.com/brimdata/wave/mseed"
	"github.com/brimdata/wave/pkg/nano"
)

// Spec describes a record to build.  Zero fields take the defaults noted.
type Spec struct {
	ID    wave.StreamID
	Start nano.Ts
	// NumSamples defaults to 100.
	NumSamples int
	// Fact and Mult default to a 20 Hz sample rate.
	Fact, Mult int16
	// Encoding defaults to Steim2.
	Encoding mseed.Encoding
	// Length is the record length and defaults to 512.
	Length int
	// Order defaults to big endian.
	Order          binary.ByteOrder
	TimeCorrection int32
	ActivityFlags  uint8
	// USec adds a blockette 1001 with this microsecond offset when set.
	USec int8
	// NoBlockette1000 omits blockette 1000.
	NoBlockette1000 bool
	Sequence        int
}

func (s *Spec) defaults() {
	if s.NumSamples == 0 {
		s.NumSamples = 100
	}
	if s.Fact == 0 && s.Mult == 0 {
		s.Fact, s.Mult = 20, 1
	}
	if s.Encoding == 0 {
		s.Encoding = mseed.EncodingSteim2
	}
	if s.Length == 0 {
		s.Length = 512
	}
	if s.Order == nil {
		s.Order = binary.BigEndian
	}
	if s.Sequence == 0 {
		s.Sequence = 1
	}
}

// Build returns the bytes of the record s describes.
func Build(s Spec) []byte {
	s.defaults()
	b := make([]byte, s.Length)
	copy(b, fmt.Sprintf("%06dD ", s.Sequence%1_000_000))
	putCode(b[8:13], s.ID.Station)
	putCode(b[13:15], s.ID.Location)
	putCode(b[15:18], s.ID.Channel)
	putCode(b[18:20], s.ID.Network)
	o := s.Order
	t := s.Start.Time()
	o.PutUint16(b[20:], uint16(t.Year()))
	o.PutUint16(b[22:], uint16(t.YearDay()))
	b[24] = byte(t.Hour())
	b[25] = byte(t.Minute())
	b[26] = byte(t.Second())
	o.PutUint16(b[28:], uint16(t.Nanosecond()/int(100*time.Microsecond)))
	o.PutUint16(b[30:], uint16(s.NumSamples))
	o.PutUint16(b[32:], uint16(s.Fact))
	o.PutUint16(b[34:], uint16(s.Mult))
	b[36] = s.ActivityFlags
	o.PutUint32(b[40:], uint32(s.TimeCorrection))
	var blockettes []func(off, next int)
	if !s.NoBlockette1000 {
		blockettes = append(blockettes, func(off, next int) {
			o.PutUint16(b[off:], mseed.Blockette1000)
			o.PutUint16(b[off+2:], uint16(next))
			b[off+4] = byte(s.Encoding)
			if o == binary.BigEndian {
				b[off+5] = 1
			}
			b[off+6] = byte(log2(s.Length))
		})
	}
	if s.USec != 0 {
		blockettes = append(blockettes, func(off, next int) {
			o.PutUint16(b[off:], mseed.Blockette1001)
			o.PutUint16(b[off+2:], uint16(next))
			b[off+5] = byte(s.USec)
		})
	}
	off := mseed.FixedHeaderLen
	for i, put := range blockettes {
		next := 0
		if i < len(blockettes)-1 {
			next = off + 8
		}
		put(off, next)
		off += 8
	}
	b[39] = byte(len(blockettes))
	if len(blockettes) > 0 {
		o.PutUint16(b[46:], mseed.FixedHeaderLen)
	}
	o.PutUint16(b[44:], 64)
	return b
}

// Record builds and decodes the record s describes.
func Record(s Spec) *wave.Record {
	b := Build(s)
	m, err := mseed.Decode(b)
	if err != nil {
		panic(err)
	}
	return m.Record(b)
}

// Sequence builds n contiguous records of the stream id starting at start,
// each with the default 100 samples at 20 Hz.
func Sequence(id wave.StreamID, start nano.Ts, n int) []*wave.Record {
	recs := make([]*wave.Record, 0, n)
	for i := 0; i < n; i++ {
		rec := Record(Spec{ID: id, Start: start, Sequence: i + 1})
		recs = append(recs, rec)
		start = rec.End
	}
	return recs
}

// Concat returns the raw bytes of recs back to back, as found in a
// MiniSEED file.
func Concat(recs []*wave.Record) []byte {
	var buf bytes.Buffer
	for _, rec := range recs {
		buf.Write(rec.Data)
	}
	return buf.Bytes()
}

// Swap returns a copy of the big-endian record b with every multi-byte
// fixed header and blockette header field byte-swapped.
func Swap(b []byte) []byte {
	out := append([]byte(nil), b...)
	for _, off := range []int{20, 22, 28, 30, 32, 34, 44, 46} {
		out[off], out[off+1] = out[off+1], out[off]
	}
	out[40], out[41], out[42], out[43] = out[43], out[42], out[41], out[40]
	off := int(binary.BigEndian.Uint16(b[46:]))
	for off >= mseed.FixedHeaderLen && off+4 <= len(b) {
		next := int(binary.BigEndian.Uint16(b[off+2:]))
		out[off], out[off+1] = out[off+1], out[off]
		out[off+2], out[off+3] = out[off+3], out[off+2]
		if next <= off {
			break
		}
		off = next
	}
	return out
}

func putCode(dst []byte, code string) {
	for i := range dst {
		dst[i] = ' '
	}
	copy(dst, code)
}

func log2(n int) int {
	var exp int
	for n > 1 {
		n >>= 1
		exp++
	}
	return exp
}
