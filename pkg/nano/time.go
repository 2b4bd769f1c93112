// Package nano provides nanosecond timestamps and time windows used by
// records and record streams.
package nano

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Ts is a timestamp in nanoseconds since the Unix epoch.  The zero Ts is
// used throughout this module to mean "unset".
type Ts int64

const (
	MinTs Ts = math.MinInt64
	MaxTs Ts = math.MaxInt64
)

var ErrBadTime = errors.New("bad time value")

func Unix(sec, ns int64) Ts {
	return Ts(sec*1_000_000_000 + ns)
}

func TimeToTs(t time.Time) Ts {
	return Ts(t.UnixNano())
}

func Now() Ts {
	return TimeToTs(time.Now())
}

func (t Ts) Time() time.Time {
	return time.Unix(0, int64(t)).UTC()
}

func (t Ts) IsZero() bool {
	return t == 0
}

func (t Ts) Add(d time.Duration) Ts {
	return t + Ts(d)
}

func (t Ts) Sub(u Ts) time.Duration {
	return time.Duration(t - u)
}

// Trunc truncates t to a multiple of d.
func (t Ts) Trunc(d time.Duration) Ts {
	return t - t%Ts(d)
}

// String formats t as RFC3339 with nanosecond precision.
func (t Ts) String() string {
	return t.Time().Format(time.RFC3339Nano)
}

// Parse parses a decimal string of seconds since the epoch, e.g.,
// "1425565514.419939" or "1e9".
func Parse(s []byte) (Ts, error) {
	str := string(s)
	if str == "" {
		return 0, ErrBadTime
	}
	if sec, frac, ok := strings.Cut(str, "."); ok || !strings.ContainsAny(str, "eE") {
		neg := strings.HasPrefix(sec, "-")
		sec = strings.TrimPrefix(sec, "-")
		n, err := strconv.ParseInt(sec, 10, 64)
		if err != nil {
			if ok && strings.ContainsAny(frac, "eE") {
				return parseFloat(str)
			}
			return 0, ErrBadTime
		}
		var ns int64
		if frac != "" {
			if len(frac) > 9 {
				frac = frac[:9]
			}
			ns, err = strconv.ParseInt(frac+strings.Repeat("0", 9-len(frac)), 10, 64)
			if err != nil {
				return parseFloat(str)
			}
		}
		v := Unix(n, ns)
		if neg {
			v = -v
		}
		return v, nil
	}
	return parseFloat(str)
}

func parseFloat(s string) (Ts, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrBadTime
	}
	return Ts(f * 1e9), nil
}

// ParseTime parses a human-readable time such as "2024-03-01 12:00:00",
// "2024-03-01T12:00:00.5Z" or the SeisComP form "2024,03,01,12,00,00".
// A bare number is taken as seconds since the epoch.
func ParseTime(s string) (Ts, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrBadTime
	}
	if isNumeric(s) {
		return Parse([]byte(s))
	}
	if strings.Count(s, ",") >= 2 {
		return parseCommaTime(s)
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadTime, s)
	}
	return TimeToTs(t), nil
}

func isNumeric(s string) bool {
	for i, c := range s {
		if (c < '0' || c > '9') && c != '.' && !(i == 0 && c == '-') {
			return false
		}
	}
	return true
}

func parseCommaTime(s string) (Ts, error) {
	var fields [6]int
	parts := strings.Split(s, ",")
	if len(parts) > len(fields) {
		return 0, fmt.Errorf("%w: %q", ErrBadTime, s)
	}
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrBadTime, s)
		}
		fields[i] = n
	}
	if fields[1] == 0 {
		fields[1] = 1
	}
	if fields[2] == 0 {
		fields[2] = 1
	}
	t := time.Date(fields[0], time.Month(fields[1]), fields[2], fields[3], fields[4], fields[5], 0, time.UTC)
	return TimeToTs(t), nil
}
