package service

import (
	"bufio"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/brimdata/wave"
	"github.com/brimdata/wave/pkg/nano"
	"github.com/brimdata/wave/recordstream"
	"github.com/brimdata/wave/rserr"
)

// Query is a parsed dataselect query.
type Query struct {
	Streams []recordstream.StreamRequest
	Window  nano.Window
	// NoData is the status sent when no record matches.
	NoData int
}

var paramAliases = map[string]string{
	"net":       "network",
	"sta":       "station",
	"loc":       "location",
	"cha":       "channel",
	"start":     "starttime",
	"end":       "endtime",
	"network":   "network",
	"station":   "station",
	"location":  "location",
	"channel":   "channel",
	"starttime": "starttime",
	"endtime":   "endtime",
	"nodata":    "nodata",
	"format":    "format",
	"quality":   "quality",
}

// ParseQuery parses the parameters of a GET request or the body of a
// POST request.
func ParseQuery(r *http.Request) (Query, error) {
	if r.Method == http.MethodPost {
		return parsePost(r.Body)
	}
	return parseValues(r.URL.Query())
}

func newQuery() Query {
	return Query{NoData: http.StatusNoContent}
}

func (q *Query) setParam(key, value string) (string, error) {
	name, ok := paramAliases[strings.ToLower(key)]
	if !ok {
		return "", rserr.ErrInvalid("unsupported parameter %q", key)
	}
	switch name {
	case "starttime", "endtime":
		ts, err := nano.ParseTime(value)
		if err != nil {
			return "", rserr.ErrInvalid("%s: %w", key, err)
		}
		if name == "starttime" {
			q.Window.Start = ts
		} else {
			q.Window.End = ts
		}
	case "nodata":
		switch value {
		case "204":
			q.NoData = http.StatusNoContent
		case "404":
			q.NoData = http.StatusNotFound
		default:
			return "", rserr.ErrInvalid("nodata must be 204 or 404")
		}
	case "format":
		if value != "miniseed" {
			return "", rserr.ErrInvalid("unsupported format %q", value)
		}
	case "quality":
		switch value {
		case "D", "R", "Q", "M", "B":
		default:
			return "", rserr.ErrInvalid("unsupported quality %q", value)
		}
	}
	return name, nil
}

func parseValues(values url.Values) (Query, error) {
	q := newQuery()
	codes := map[string][]string{
		"location": {"*"},
		"channel":  {"*"},
	}
	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		val := vals[len(vals)-1]
		name, err := q.setParam(key, val)
		if err != nil {
			return Query{}, err
		}
		switch name {
		case "network", "station", "location", "channel":
			codes[name] = strings.Split(val, ",")
		}
	}
	if len(codes["network"]) == 0 || len(codes["station"]) == 0 {
		return Query{}, rserr.ErrInvalid("network and station are required")
	}
	if !q.Window.Valid() {
		return Query{}, rserr.ErrInvalid("endtime before starttime")
	}
	for _, net := range codes["network"] {
		for _, sta := range codes["station"] {
			for _, loc := range codes["location"] {
				for _, cha := range codes["channel"] {
					id := wave.NewStreamID(net, sta, location(loc), cha)
					q.Streams = append(q.Streams, recordstream.StreamRequest{ID: id})
				}
			}
		}
	}
	return q, nil
}

// parsePost parses a body of key=value lines followed by lines of
// "NET STA LOC CHA START END".
func parsePost(r io.Reader) (Query, error) {
	q := newQuery()
	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if key, val, ok := strings.Cut(line, "="); ok {
			name, err := q.setParam(strings.TrimSpace(key), strings.TrimSpace(val))
			if err != nil {
				return Query{}, err
			}
			if name != "nodata" && name != "format" && name != "quality" {
				return Query{}, rserr.ErrInvalid("line %d: %s is not allowed in a POST body", n, key)
			}
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 6 {
			return Query{}, rserr.ErrInvalid("line %d: expected NET STA LOC CHA START END", n)
		}
		start, err := nano.ParseTime(fields[4])
		if err != nil {
			return Query{}, rserr.ErrInvalid("line %d: %w", n, err)
		}
		end, err := nano.ParseTime(fields[5])
		if err != nil {
			return Query{}, rserr.ErrInvalid("line %d: %w", n, err)
		}
		w := nano.NewWindow(start, end)
		if !w.Valid() {
			return Query{}, rserr.ErrInvalid("line %d: end before start", n)
		}
		id := wave.NewStreamID(fields[0], fields[1], location(fields[2]), fields[3])
		q.Streams = append(q.Streams, recordstream.StreamRequest{ID: id, Window: w})
	}
	if err := scanner.Err(); err != nil {
		return Query{}, err
	}
	if len(q.Streams) == 0 {
		return Query{}, rserr.ErrInvalid("no streams requested")
	}
	return q, nil
}

// location maps the blank location code "--" to the empty string.
func location(s string) string {
	if s == "--" {
		return ""
	}
	return s
}

// Apply configures s with the streams and window of q.
func (q Query) Apply(s recordstream.Source) error {
	if err := s.SetTimeWindow(q.Window); err != nil {
		return err
	}
	for _, sr := range q.Streams {
		if err := s.AddStreamWindow(sr.ID, sr.Window); err != nil {
			return err
		}
	}
	return nil
}
