package nano

import (
	"fmt"
	"strings"
)

// Window is a half-open time interval [Start, End).  A zero Start or End
// is unset and leaves that side of the window open.
type Window struct {
	Start Ts `json:"start,omitempty" yaml:"start,omitempty"`
	End   Ts `json:"end,omitempty" yaml:"end,omitempty"`
}

func NewWindow(start, end Ts) Window {
	return Window{Start: start, End: end}
}

func (w Window) HasStart() bool { return w.Start != 0 }
func (w Window) HasEnd() bool   { return w.End != 0 }

// IsZero returns true if neither bound is set.
func (w Window) IsZero() bool {
	return w.Start == 0 && w.End == 0
}

// Valid returns true unless both bounds are set and End precedes Start.
func (w Window) Valid() bool {
	return !w.HasStart() || !w.HasEnd() || w.Start <= w.End
}

// Empty returns true if the window cannot contain any instant.
func (w Window) Empty() bool {
	return w.HasStart() && w.HasEnd() && w.Start >= w.End
}

func (w Window) lo() Ts {
	if w.HasStart() {
		return w.Start
	}
	return MinTs
}

func (w Window) hi() Ts {
	if w.HasEnd() {
		return w.End
	}
	return MaxTs
}

// Contains returns true if ts lies within the window.
func (w Window) Contains(ts Ts) bool {
	return ts >= w.lo() && ts < w.hi()
}

// Overlaps returns true if the closed span [start, end] touches the window.
// A record whose last sample is at the window start still overlaps.
func (w Window) Overlaps(start, end Ts) bool {
	if end < start {
		start, end = end, start
	}
	return end >= w.lo() && start < w.hi()
}

// Intersect returns the window covered by both w and o.
func (w Window) Intersect(o Window) Window {
	var out Window
	switch {
	case w.HasStart() && o.HasStart():
		out.Start = max(w.Start, o.Start)
	case w.HasStart():
		out.Start = w.Start
	default:
		out.Start = o.Start
	}
	switch {
	case w.HasEnd() && o.HasEnd():
		out.End = min(w.End, o.End)
	case w.HasEnd():
		out.End = w.End
	default:
		out.End = o.End
	}
	return out
}

// Union returns the smallest window covering both w and o.  An open side
// in either window leaves that side of the union open.
func (w Window) Union(o Window) Window {
	var out Window
	if w.HasStart() && o.HasStart() {
		out.Start = min(w.Start, o.Start)
	}
	if w.HasEnd() && o.HasEnd() {
		out.End = max(w.End, o.End)
	}
	return out
}

func (w Window) String() string {
	var b strings.Builder
	if w.HasStart() {
		b.WriteString(w.Start.String())
	} else {
		b.WriteString("-inf")
	}
	b.WriteString("~")
	if w.HasEnd() {
		b.WriteString(w.End.String())
	} else {
		b.WriteString("+inf")
	}
	return b.String()
}

// MarshalText formats w in the form accepted by ParseWindow.
func (w Window) MarshalText() ([]byte, error) {
	var b []byte
	if w.HasStart() {
		b = append(b, w.Start.String()...)
	}
	b = append(b, '~')
	if w.HasEnd() {
		b = append(b, w.End.String()...)
	}
	return b, nil
}

func (w *Window) UnmarshalText(b []byte) error {
	out, err := ParseWindow(string(b))
	if err != nil {
		return err
	}
	*w = out
	return nil
}

// ParseWindow parses "start~end" where either side may be empty.
func ParseWindow(s string) (Window, error) {
	start, end, ok := strings.Cut(s, "~")
	if !ok {
		return Window{}, fmt.Errorf("time window %q: expected start~end", s)
	}
	var w Window
	var err error
	if start = strings.TrimSpace(start); start != "" {
		if w.Start, err = ParseTime(start); err != nil {
			return Window{}, fmt.Errorf("time window %q: %w", s, err)
		}
	}
	if end = strings.TrimSpace(end); end != "" {
		if w.End, err = ParseTime(end); err != nil {
			return Window{}, fmt.Errorf("time window %q: %w", s, err)
		}
	}
	if !w.Valid() {
		return Window{}, fmt.Errorf("time window %q: end before start", s)
	}
	return w, nil
}

func min(a, b Ts) Ts {
	if a < b {
		return a
	}
	return b
}

func max(a, b Ts) Ts {
	if a > b {
		return a
	}
	return b
}
