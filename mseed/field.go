package mseed

import (
	"encoding/binary"
	"strings"
)

// fieldReader reads fixed-width header fields from a record through an
// offset cursor in a byte order decided at run time.  Callers check bounds
// before reading.
type fieldReader struct {
	buf   []byte
	off   int
	order binary.ByteOrder
}

func (r *fieldReader) seek(off int) {
	r.off = off
}

func (r *fieldReader) skip(n int) {
	r.off += n
}

func (r *fieldReader) uint8() uint8 {
	v := r.buf[r.off]
	r.off++
	return v
}

func (r *fieldReader) int8() int8 {
	return int8(r.uint8())
}

func (r *fieldReader) uint16() uint16 {
	v := r.order.Uint16(r.buf[r.off:])
	r.off += 2
	return v
}

func (r *fieldReader) int16() int16 {
	return int16(r.uint16())
}

func (r *fieldReader) int32() int32 {
	v := r.order.Uint32(r.buf[r.off:])
	r.off += 4
	return int32(v)
}

// code reads a blank-padded ASCII code of width n.
func (r *fieldReader) code(n int) string {
	b := r.buf[r.off : r.off+n]
	r.off += n
	return strings.TrimRight(string(b), " \x00")
}
