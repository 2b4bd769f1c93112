package mseed_test

import (
	"bytes"
	"encoding/binary"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/brimdata/wave"
	"github.com/brimdata/wave/mseed"
	"github.com/brimdata/wave/mseed/mseedtest"
	"github.com/brimdata/wave/pkg/nano"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var (
	ape   = wave.NewStreamID("GE", "APE", "", "BHZ")
	start = nano.TimeToTs(time.Date(2024, 2, 29, 23, 59, 50, 123400000, time.UTC))
)

func TestDecodeFixedHeader(t *testing.T) {
	b := mseedtest.Build(mseedtest.Spec{ID: ape, Start: start, NumSamples: 400, Fact: 20, Mult: 1})
	m, err := mseed.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, ape, m.ID)
	assert.Equal(t, start, m.Start)
	assert.Equal(t, 400, m.NumSamples)
	assert.Equal(t, 20, m.Header.SamplingFrequencyNumerator)
	assert.Equal(t, 1, m.Header.SamplingFrequencyDenominator)
	assert.Equal(t, wave.Int32, m.Header.DataType)
	assert.Equal(t, mseed.EncodingSteim2, m.Encoding)
	assert.Equal(t, 512, m.RecordLength)
	assert.Equal(t, start.Add(20*time.Second), m.End)
	assert.Equal(t, binary.ByteOrder(binary.BigEndian), m.Order)
}

func TestDecodeIdempotent(t *testing.T) {
	b := mseedtest.Build(mseedtest.Spec{ID: ape, Start: start, USec: -7})
	orig := append([]byte(nil), b...)
	m1, err1 := mseed.Decode(b)
	m2, err2 := mseed.Decode(b)
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, m1, m2)
	assert.Equal(t, orig, b, "decode must not modify the record")
}

func TestDecodeByteOrderSelfCorrection(t *testing.T) {
	specs := []mseedtest.Spec{
		{ID: ape, Start: start},
		{ID: ape, Start: start, USec: 42, TimeCorrection: 5000},
		{ID: wave.NewStreamID("IU", "ANMO", "00", "LHZ"), Start: start, Fact: -10, Mult: 1, NumSamples: 3},
	}
	for _, spec := range specs {
		native := mseedtest.Build(spec)
		swapped := mseedtest.Swap(native)
		require.NotEqual(t, native, swapped)
		m1, err := mseed.Decode(native)
		require.NoError(t, err)
		m2, err := mseed.Decode(swapped)
		require.NoError(t, err)
		assert.Equal(t, binary.ByteOrder(binary.LittleEndian), m2.Order)
		m2.Order = m1.Order
		assert.Equal(t, m1, m2)

		spec.Order = binary.LittleEndian
		m3, err := mseed.Decode(mseedtest.Build(spec))
		require.NoError(t, err)
		m3.Order = m1.Order
		assert.Equal(t, m1, m3)
	}
}

func TestDecodeTimeCorrection(t *testing.T) {
	// 12345 units of 100µs.
	b := mseedtest.Build(mseedtest.Spec{ID: ape, Start: start, TimeCorrection: 12345})
	m, err := mseed.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, start.Add(1234500*time.Microsecond), m.Start)
	assert.Equal(t, m.Start, m.Header.SamplingTime)

	b = mseedtest.Build(mseedtest.Spec{ID: ape, Start: start, TimeCorrection: 12345, ActivityFlags: 0x02})
	m, err = mseed.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, start, m.Start)
}

func TestDecodeBlockette1001(t *testing.T) {
	b := mseedtest.Build(mseedtest.Spec{ID: ape, Start: start, USec: -55})
	m, err := mseed.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, start.Add(-55*time.Microsecond), m.Start)
	assert.Equal(t, wave.Int32, m.Header.DataType)
}

func TestDecodeEncodings(t *testing.T) {
	cases := []struct {
		enc      mseed.Encoding
		expected wave.DataType
	}{
		{mseed.EncodingASCII, wave.Int8},
		{mseed.EncodingInt16, wave.Int16},
		{mseed.EncodingInt24, wave.Unknown},
		{mseed.EncodingInt32, wave.Int32},
		{mseed.EncodingFloat32, wave.Float32},
		{mseed.EncodingFloat64, wave.Float64},
		{mseed.EncodingSteim1, wave.Int32},
		{mseed.EncodingSteim2, wave.Int32},
		{mseed.EncodingGeoscope24, wave.Float32},
		{mseed.EncodingGeoscope163, wave.Float32},
		{mseed.EncodingGeoscope164, wave.Float32},
		{mseed.EncodingCDSN, wave.Int32},
		{mseed.EncodingSRO, wave.Int32},
		{mseed.EncodingDWWSSN, wave.Int32},
		{mseed.Encoding(99), wave.Unknown},
	}
	for _, c := range cases {
		b := mseedtest.Build(mseedtest.Spec{ID: ape, Start: start})
		// Patch the encoding byte of blockette 1000 at offset 48.
		b[52] = byte(c.enc)
		m, err := mseed.Decode(b)
		require.NoError(t, err)
		assert.Equal(t, c.expected, m.Header.DataType, "encoding %s", c.enc)
	}
	m, err := mseed.Decode(mseedtest.Build(mseedtest.Spec{ID: ape, Start: start, NoBlockette1000: true}))
	require.NoError(t, err)
	assert.Equal(t, wave.Unknown, m.Header.DataType)
	assert.Equal(t, 0, m.RecordLength)
}

func TestSampleRates(t *testing.T) {
	cases := []struct {
		fact, mult int16
		num, den   int
	}{
		{20, 1, 20, 1},
		{100, 10, 1000, 1},
		{-10, 1, 1, 10},
		{1, -10, 1, 10},
		{-60, -10, 1, 600},
		{5, -2, 5, 2},
		{0, 1, 0, 1},
	}
	for _, c := range cases {
		b := mseedtest.Build(mseedtest.Spec{ID: ape, Start: start, Fact: c.fact, Mult: c.mult, NumSamples: 10})
		m, err := mseed.Decode(b)
		require.NoError(t, err)
		assert.Equal(t, c.num, m.Header.SamplingFrequencyNumerator, "fact %d mult %d", c.fact, c.mult)
		assert.Equal(t, c.den, m.Header.SamplingFrequencyDenominator, "fact %d mult %d", c.fact, c.mult)
	}
}

func TestEndTimeExact(t *testing.T) {
	// 3 samples at 3 Hz is exactly one second, which a float period of
	// 0.333... would miss.
	assert.Equal(t, nano.Ts(time.Second), mseed.EndTime(0, 3, 3, 1))
	assert.Equal(t, nano.Ts(7*time.Second/3), mseed.EndTime(0, 7, 3, 1))
	assert.Equal(t, nano.Ts(600*time.Second), mseed.EndTime(0, 1, 1, 600))
	assert.Equal(t, nano.Ts(42), mseed.EndTime(42, 10, 0, 1))
	// Chained end times of contiguous records do not drift.
	ts := nano.Ts(0)
	for i := 0; i < 86400*40/412; i++ {
		ts = mseed.EndTime(ts, 412, 40, 1)
	}
	assert.Equal(t, nano.Ts(int64(86400*40/412)*412*int64(time.Second)/40), ts)
}

func TestEndTimeSaturates(t *testing.T) {
	assert.Equal(t, nano.MaxTs, mseed.EndTime(start, 30, 1, 300_000_000))
	assert.Equal(t, nano.MaxTs, mseed.EndTime(start, math.MaxInt32, 1, math.MaxInt32))
	b := mseedtest.Build(mseedtest.Spec{ID: ape, Start: start, NumSamples: 30, Fact: -30000, Mult: -10000})
	m, err := mseed.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, nano.MaxTs, m.End)
	assert.True(t, nano.NewWindow(m.Start, m.End).Valid())
}

func TestDecodeRejects(t *testing.T) {
	good := mseedtest.Build(mseedtest.Spec{ID: ape, Start: start})

	_, err := mseed.Decode(good[:mseed.MinRecordLen-1])
	assert.ErrorIs(t, err, mseed.ErrRecordLength)
	_, err = mseed.Decode(make([]byte, mseed.MaxRecordLen+1))
	assert.ErrorIs(t, err, mseed.ErrRecordLength)

	bad := append([]byte(nil), good...)
	bad[6] = 'X'
	_, err = mseed.Decode(bad)
	assert.ErrorIs(t, err, mseed.ErrInvalidHeader)

	bad = append([]byte(nil), good...)
	bad[0] = 'A'
	_, err = mseed.Decode(bad)
	assert.ErrorIs(t, err, mseed.ErrInvalidHeader)

	bad = append([]byte(nil), good...)
	binary.BigEndian.PutUint16(bad[20:], 3000)
	m, err := mseed.Decode(bad)
	assert.ErrorIs(t, err, mseed.ErrInvalidHeader)
	assert.Equal(t, mseed.Meta{}, m)

	bad = append([]byte(nil), good...)
	binary.BigEndian.PutUint16(bad[28:], 10000)
	_, err = mseed.Decode(bad)
	assert.ErrorIs(t, err, mseed.ErrInvalidHeader)

	bad = append([]byte(nil), good...)
	bad[24] = 24
	_, err = mseed.Decode(bad)
	assert.ErrorIs(t, err, mseed.ErrInvalidHeader)
}

func TestBlocketteChainFailsClosed(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	d := mseed.NewDecoder(zap.New(core))
	good := mseedtest.Build(mseedtest.Spec{ID: ape, Start: start, USec: 10})

	cases := []struct {
		name  string
		patch func(b []byte)
	}{
		{"offset inside fixed header", func(b []byte) { binary.BigEndian.PutUint16(b[46:], 20) }},
		{"offset beyond record", func(b []byte) { binary.BigEndian.PutUint16(b[46:], 510) }},
		{"unknown type", func(b []byte) { binary.BigEndian.PutUint16(b[48:], 4242) }},
		{"self reference", func(b []byte) { binary.BigEndian.PutUint16(b[50:], 48) }},
		{"backward next", func(b []byte) { binary.BigEndian.PutUint16(b[50:], 52) }},
		{"next past end", func(b []byte) { binary.BigEndian.PutUint16(b[50:], 0xffff) }},
		{"variable length past end", func(b []byte) {
			binary.BigEndian.PutUint16(b[56:], mseed.Blockette2000)
			binary.BigEndian.PutUint16(b[60:], 1000)
		}},
	}
	for _, c := range cases {
		b := append([]byte(nil), good...)
		c.patch(b)
		before := logs.Len()
		m, err := d.Decode(b)
		require.NoError(t, err, c.name)
		assert.Equal(t, ape, m.ID, c.name)
		assert.Equal(t, 5*time.Second, m.End.Sub(m.Start), c.name)
		assert.Greater(t, logs.Len(), before, c.name)
		for _, entry := range logs.All()[before:] {
			assert.Equal(t, "GE.APE..BHZ", entry.ContextMap()["stream"], c.name)
		}
	}
}

func TestBlocketteWalkTerminatesOnGarbage(t *testing.T) {
	good := mseedtest.Build(mseedtest.Spec{ID: ape, Start: start, Length: 256})
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 2000; i++ {
		b := append([]byte(nil), good...)
		// Scribble over the blockette area and the first blockette offset.
		rng.Read(b[mseed.FixedHeaderLen:])
		binary.BigEndian.PutUint16(b[46:], uint16(rng.Intn(len(b)+16)))
		if rng.Intn(2) == 0 {
			// Make a plausible chain of known types with random links.
			for off := mseed.FixedHeaderLen; off+8 <= len(b); off += 8 {
				binary.BigEndian.PutUint16(b[off:], []uint16{1000, 1001, 2000, 100}[rng.Intn(4)])
			}
		}
		_, err := mseed.Decode(b)
		assert.NoError(t, err)
	}
}

func TestReader(t *testing.T) {
	recs := mseedtest.Sequence(ape, start, 5)
	var buf bytes.Buffer
	buf.Write(mseedtest.Concat(recs[:2]))
	// A record without blockette 1000 uses the default length.
	buf.Write(mseedtest.Build(mseedtest.Spec{ID: ape, Start: recs[1].End, NoBlockette1000: true}))
	// A 4096-byte record.
	buf.Write(mseedtest.Build(mseedtest.Spec{ID: ape, Start: recs[2].Start, Length: 4096}))
	// A garbage record is skipped.
	buf.Write(bytes.Repeat([]byte{'x'}, 512))
	buf.Write(mseedtest.Concat(recs[3:]))

	r := mseed.NewReader(&buf, nil)
	var got []*wave.Record
	for {
		rec, err := r.Read()
		require.NoError(t, err)
		if rec == nil {
			break
		}
		got = append(got, rec)
	}
	require.Len(t, got, 6)
	assert.Equal(t, recs[0].Data, got[0].Data)
	assert.Len(t, got[3].Data, 4096)
	assert.Equal(t, recs[4].Start, got[5].Start)
	stats := r.Stats()
	assert.EqualValues(t, 6, stats.Records)
	assert.EqualValues(t, 1, stats.BadRecords)
}

func TestReaderTruncated(t *testing.T) {
	b := mseedtest.Build(mseedtest.Spec{ID: ape, Start: start})
	r := mseed.NewReader(bytes.NewReader(b[:300]), nil)
	rec, err := r.Read()
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.EqualValues(t, 1, r.Stats().BadRecords)
}
