package recordstream

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/brimdata/wave/rserr"
	"golang.org/x/exp/slices"
)

// A Constructor returns a new, unconfigured Source.
type Constructor func() Source

// A Registry maps source type names such as "slink" or "fdsnws" to
// constructors.  Composite sources receive the registry they resolve their
// backends through.  A Registry must be fully populated before it is
// shared between goroutines.
type Registry struct {
	constructors map[string]Constructor
}

func NewRegistry() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

// Register adds the constructor c under name, replacing any earlier one.
func (r *Registry) Register(name string, c Constructor) {
	r.constructors[name] = c
}

// Types returns the registered type names in sorted order.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		types = append(types, name)
	}
	slices.Sort(types)
	return types
}

// Create returns a new Source of type typ.
func (r *Registry) Create(typ string) (Source, error) {
	c, ok := r.constructors[typ]
	if !ok {
		return nil, rserr.ErrInvalid("unknown record stream type %q%s", typ, r.suggest(typ))
	}
	return c(), nil
}

// New creates a Source of type typ and sets its address.
func (r *Registry) New(typ, address string) (Source, error) {
	s, err := r.Create(typ)
	if err != nil {
		return nil, err
	}
	if err := s.SetSource(address); err != nil {
		s.Close()
		if !rserr.IsInvalid(err) {
			err = rserr.E(rserr.Invalid, fmt.Errorf("%s source %q: %w", typ, address, err))
		}
		return nil, err
	}
	return s, nil
}

// Open creates a Source from a URL of the form "type://address".
func (r *Registry) Open(url string) (Source, error) {
	typ, address, ok := strings.Cut(url, "://")
	if !ok || typ == "" {
		return nil, rserr.ErrInvalid("record stream URL %q: expected type://address", url)
	}
	return r.New(typ, address)
}

func (r *Registry) suggest(typ string) string {
	best, bestDist := "", 3
	for _, name := range r.Types() {
		if d := levenshtein.ComputeDistance(typ, name); d < bestDist {
			best, bestDist = name, d
		}
	}
	if best == "" {
		return ""
	}
	return fmt.Sprintf(" (did you mean %q?)", best)
}
