package recordstream

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/brimdata/wave/pkg/nano"
	"github.com/brimdata/wave/rserr"
)

// Composite source addresses look like
//
//	type1/address1;type2/(address;with;separators)??key=value&key2=value2
//
// Segments are separated by ';' outside parentheses.  A segment may start
// with a type name followed by '/'; otherwise the composite's default type
// applies, so "http://host/path" is an address of the default type.  A
// parenthesized address is used without its outer parentheses.
// Parameters follow the first "??" outside parentheses.

var typeName = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// SplitSources splits a composite address into its segments.
func SplitSources(s string) ([]string, error) {
	var segs []string
	var depth, begin int
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			if depth == 0 {
				return nil, rserr.ErrInvalid("source %q: unbalanced ')' at offset %d", s, i)
			}
			depth--
		case ';':
			if depth == 0 {
				segs = append(segs, s[begin:i])
				begin = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, rserr.ErrInvalid("source %q: unbalanced '('", s)
	}
	segs = append(segs, s[begin:])
	for i, seg := range segs {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			return nil, rserr.ErrInvalid("source %q: empty segment %d", s, i+1)
		}
		segs[i] = seg
	}
	return segs, nil
}

// ParseSegment splits one segment of a composite address into its type and
// address, using defaultType when the segment names none.
func ParseSegment(seg, defaultType string) (string, string) {
	typ, address := defaultType, seg
	if i := strings.IndexByte(seg, '/'); i > 0 && typeName.MatchString(seg[:i]) {
		typ, address = seg[:i], seg[i+1:]
	}
	return typ, unwrap(address)
}

// unwrap removes one pair of parentheses enclosing all of s.
func unwrap(s string) string {
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return s
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i != len(s)-1 {
				// The first parenthesis closes early, as in "(a)/(b)".
				return s
			}
		}
	}
	return s[1 : len(s)-1]
}

// SplitParams separates the "??key=value&..." suffix from an address.
func SplitParams(s string) (string, map[string]string, error) {
	params := make(map[string]string)
	depth := 0
	for i := 0; i+1 < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case '?':
			if depth != 0 || s[i+1] != '?' {
				continue
			}
			for _, kv := range strings.Split(s[i+2:], "&") {
				if kv == "" {
					continue
				}
				k, v, ok := strings.Cut(kv, "=")
				if !ok || k == "" {
					return "", nil, rserr.ErrInvalid("source %q: malformed parameter %q", s, kv)
				}
				params[k] = v
			}
			return s[:i], params, nil
		}
	}
	return s, params, nil
}

// ParseDuration parses a number of seconds, optionally followed by one of
// the units s, m, h, d or w.
func ParseDuration(s string) (time.Duration, error) {
	num, unit := strings.TrimSpace(s), time.Second
	if n := len(num); n > 0 {
		switch num[n-1] {
		case 's':
			num = num[:n-1]
		case 'm':
			num, unit = num[:n-1], time.Minute
		case 'h':
			num, unit = num[:n-1], time.Hour
		case 'd':
			num, unit = num[:n-1], 24*time.Hour
		case 'w':
			num, unit = num[:n-1], 7*24*time.Hour
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil || f < 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, rserr.ErrInvalid("duration %q: expected a non-negative number of seconds", s)
	}
	v := f * float64(unit)
	if v >= math.MaxInt64 {
		return 0, rserr.ErrInvalid("duration %q: out of range", s)
	}
	return time.Duration(v), nil
}

// ParseWindow parses a "start~end" time window.
func ParseWindow(s string) (nano.Window, error) {
	w, err := nano.ParseWindow(s)
	if err != nil {
		return nano.Window{}, rserr.E(rserr.Invalid, err)
	}
	return w, nil
}
