package wave

import (
	"fmt"

	"github.com/brimdata/wave/pkg/nano"
)

// DataType is the sample representation of a record's payload.
type DataType int

const (
	Unknown DataType = iota
	Int8
	Int16
	Int32
	Float32
	Float64
)

func (d DataType) String() string {
	switch d {
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	}
	return "unknown"
}

// Header is the metadata decoded from a record without unpacking its
// samples.  The sampling frequency is kept as the rational
// SamplingFrequencyNumerator/SamplingFrequencyDenominator so that long
// sequences of records do not accumulate rounding drift.
type Header struct {
	DataType                     DataType
	SamplingTime                 nano.Ts
	SamplingFrequencyNumerator   int
	SamplingFrequencyDenominator int
}

// SamplingFrequency returns the sampling frequency in Hz or zero if it is
// not defined.
func (h Header) SamplingFrequency() float64 {
	if h.SamplingFrequencyNumerator == 0 || h.SamplingFrequencyDenominator == 0 {
		return 0
	}
	return float64(h.SamplingFrequencyNumerator) / float64(h.SamplingFrequencyDenominator)
}

// Record is one binary waveform record.  It owns Data, the raw record
// bytes including the header.  A Record is handed from its producer to a
// single consumer and is not shared thereafter.
type Record struct {
	ID         StreamID
	Header     Header
	NumSamples int
	Start      nano.Ts
	End        nano.Ts
	Data       []byte
}

func (r *Record) StartTime() nano.Ts { return r.Start }
func (r *Record) EndTime() nano.Ts   { return r.End }

func (r *Record) Window() nano.Window {
	return nano.NewWindow(r.Start, r.End)
}

func (r *Record) String() string {
	return fmt.Sprintf("%s %s %s %d samples %s", r.ID, r.Start, r.End, r.NumSamples, r.Header.DataType)
}
