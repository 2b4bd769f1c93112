package mseed

import (
	"strconv"

	"github.com/brimdata/wave"
)

// Encoding is the SEED data encoding format code carried in blockette
// 1000.
type Encoding uint8

const (
	EncodingASCII       Encoding = 0
	EncodingInt16       Encoding = 1
	EncodingInt24       Encoding = 2
	EncodingInt32       Encoding = 3
	EncodingFloat32     Encoding = 4
	EncodingFloat64     Encoding = 5
	EncodingSteim1      Encoding = 10
	EncodingSteim2      Encoding = 11
	EncodingGeoscope24  Encoding = 12
	EncodingGeoscope163 Encoding = 13
	EncodingGeoscope164 Encoding = 14
	EncodingCDSN        Encoding = 16
	EncodingSRO         Encoding = 30
	EncodingDWWSSN      Encoding = 32

	// EncodingNone marks a record without blockette 1000.
	EncodingNone Encoding = 0xff
)

// DataType maps an encoding to the sample type its decompressed samples
// would have.  Codes not listed here, INT24 included, map to wave.Unknown.
func (e Encoding) DataType() wave.DataType {
	switch e {
	case EncodingASCII:
		return wave.Int8
	case EncodingInt16:
		return wave.Int16
	case EncodingInt32, EncodingSteim1, EncodingSteim2, EncodingCDSN, EncodingDWWSSN, EncodingSRO:
		return wave.Int32
	case EncodingFloat32:
		return wave.Float32
	case EncodingFloat64:
		return wave.Float64
	case EncodingGeoscope24, EncodingGeoscope163, EncodingGeoscope164:
		return wave.Float32
	}
	return wave.Unknown
}

func (e Encoding) String() string {
	switch e {
	case EncodingASCII:
		return "ascii"
	case EncodingInt16:
		return "int16"
	case EncodingInt24:
		return "int24"
	case EncodingInt32:
		return "int32"
	case EncodingFloat32:
		return "float32"
	case EncodingFloat64:
		return "float64"
	case EncodingSteim1:
		return "steim1"
	case EncodingSteim2:
		return "steim2"
	case EncodingGeoscope24:
		return "geoscope24"
	case EncodingGeoscope163:
		return "geoscope16-3"
	case EncodingGeoscope164:
		return "geoscope16-4"
	case EncodingCDSN:
		return "cdsn"
	case EncodingSRO:
		return "sro"
	case EncodingDWWSSN:
		return "dwwssn"
	case EncodingNone:
		return "none"
	}
	return "encoding(" + strconv.Itoa(int(e)) + ")"
}
