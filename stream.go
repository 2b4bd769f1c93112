package wave

import (
	"fmt"
	"path"
	"strings"
)

// StreamID identifies a waveform stream by its network, station, location
// and channel codes.  It is comparable and may be used as a map key.
type StreamID struct {
	Network  string `json:"net" yaml:"net"`
	Station  string `json:"sta" yaml:"sta"`
	Location string `json:"loc" yaml:"loc"`
	Channel  string `json:"cha" yaml:"cha"`
}

func NewStreamID(net, sta, loc, cha string) StreamID {
	return StreamID{Network: net, Station: sta, Location: loc, Channel: cha}
}

// ParseStreamID parses "NET.STA.LOC.CHA".  The location may be empty,
// e.g., "GE.APE..BHZ".
func ParseStreamID(s string) (StreamID, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return StreamID{}, fmt.Errorf("stream id %q: expected NET.STA.LOC.CHA", s)
	}
	if parts[0] == "" || parts[1] == "" || parts[3] == "" {
		return StreamID{}, fmt.Errorf("stream id %q: network, station and channel are required", s)
	}
	return NewStreamID(parts[0], parts[1], parts[2], parts[3]), nil
}

func (s StreamID) String() string {
	return s.Network + "." + s.Station + "." + s.Location + "." + s.Channel
}

// Less orders stream ids lexicographically by network, station, location
// and channel.
func (s StreamID) Less(o StreamID) bool {
	if s.Network != o.Network {
		return s.Network < o.Network
	}
	if s.Station != o.Station {
		return s.Station < o.Station
	}
	if s.Location != o.Location {
		return s.Location < o.Location
	}
	return s.Channel < o.Channel
}

// Match treats s as a pattern whose codes may contain the wildcards '*'
// and '?' and returns true if id matches it.
func (s StreamID) Match(id StreamID) bool {
	return matchCode(s.Network, id.Network) &&
		matchCode(s.Station, id.Station) &&
		matchCode(s.Location, id.Location) &&
		matchCode(s.Channel, id.Channel)
}

func (s StreamID) HasWildcard() bool {
	return strings.ContainsAny(s.String(), "*?")
}

// matchCode matches code against a path.Match pattern. Codes hold no
// separators so '*' spans any run of characters. A malformed pattern
// matches nothing.
func matchCode(pattern, code string) bool {
	ok, _ := path.Match(pattern, code)
	return ok
}
