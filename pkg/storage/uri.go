package storage

import (
	"net/url"
	"path/filepath"
	"strings"
)

type Scheme string

const (
	FileScheme  Scheme = "file"
	StdioScheme Scheme = "stdio"
	HTTPScheme  Scheme = "http"
	HTTPSScheme Scheme = "https"
	S3Scheme    Scheme = "s3"
)

func knownScheme(s Scheme) bool {
	switch s {
	case FileScheme, StdioScheme, HTTPScheme, HTTPSScheme, S3Scheme:
		return true
	}
	return false
}

type URI url.URL

// ParseURI parses the path using `url.Parse`. If the provided uri does not
// contain a known scheme, it is treated as a file path and resolved to an
// absolute path.  The path "-" refers to stdin or stdout.
func ParseURI(path string) (*URI, error) {
	if path == "" {
		return &URI{}, nil
	}
	if path == "-" {
		return &URI{Scheme: string(StdioScheme), Opaque: "-"}, nil
	}
	u, err := url.Parse(path)
	if err == nil && knownScheme(Scheme(u.Scheme)) {
		return (*URI)(u), nil
	}
	// Either there is no scheme or the path has a colon in it.
	return parseBarePath(path)
}

func MustParseURI(path string) *URI {
	u, err := ParseURI(path)
	if err != nil {
		panic(err)
	}
	return u
}

func parseBarePath(path string) (*URI, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return &URI{Scheme: string(FileScheme), Path: filepath.ToSlash(path)}, nil
}

func (u URI) String() string {
	return (*url.URL)(&u).String()
}

func (u *URI) Filepath() string {
	return filepath.FromSlash(u.Path)
}

func (u *URI) HasScheme(s Scheme) bool {
	return Scheme(u.Scheme) == s
}

func (u *URI) JoinPath(elem ...string) *URI {
	p := *u
	for _, el := range elem {
		p.Path = strings.TrimSuffix(p.Path, "/") + "/" + el
	}
	return &p
}

func (u *URI) IsZero() bool {
	return *u == URI{}
}

func (u *URI) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

func (u *URI) UnmarshalText(b []byte) error {
	uri, err := ParseURI(string(b))
	if err != nil {
		return err
	}
	*u = *uri
	return nil
}
