package space

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Comcast/atomspace/atom"
)

// Spaces is a registry of named Spaces.
//
// A Spaces is passed explicitly to whatever needs to resolve a name.
// There is no global registry.
type Spaces struct {
	sync.RWMutex

	spaces map[string]*Space
}

// NewSpaces makes an empty registry.
func NewSpaces() *Spaces {
	return &Spaces{
		spaces: make(map[string]*Space, 8),
	}
}

// UnknownSpace occurs when a name isn't in a Spaces.
type UnknownSpace struct {
	Name string
}

func (e *UnknownSpace) Error() string {
	return `unknown space "` + e.Name + `"`
}

// Get returns the named Space.
func (ss *Spaces) Get(name string) (*Space, error) {
	ss.RLock()
	s, have := ss.spaces[name]
	ss.RUnlock()
	if !have {
		return nil, &UnknownSpace{name}
	}
	return s, nil
}

// Must returns the named Space, which it creates if necessary.
func (ss *Spaces) Must(name string) *Space {
	ss.Lock()
	defer ss.Unlock()
	s, have := ss.spaces[name]
	if !have {
		s = New()
		ss.spaces[name] = s
	}
	return s
}

// Set adds or replaces a named Space.
func (ss *Spaces) Set(name string, s *Space) {
	ss.Lock()
	ss.spaces[name] = s
	ss.Unlock()
}

// Names returns the sorted names.
func (ss *Spaces) Names() []string {
	ss.RLock()
	acc := make([]string, 0, len(ss.spaces))
	for name := range ss.spaces {
		acc = append(acc, name)
	}
	ss.RUnlock()
	sort.Strings(acc)
	return acc
}

// Value is a Space as a grounded value.
//
// Two Values are equal only if they refer to the same Space.
type Value struct {
	Name  string
	Space *Space
}

// NewValue makes a Grounded atom for the Space.
func NewValue(name string, s *Space) atom.Grounded {
	return atom.G(&Value{
		Name:  name,
		Space: s,
	})
}

func (v *Value) Equal(other atom.Value) bool {
	w, is := other.(*Value)
	return is && v.Space == w.Space
}

func (v *Value) String() string {
	if v.Name != "" {
		return v.Name
	}
	return fmt.Sprintf("space@%p", v.Space)
}

// Encode encodes the Value by name, so a Decoder needs a Spaces to
// resolve it.
func (v *Value) Encode() (string, interface{}, error) {
	if v.Name == "" {
		return "", nil, atom.NotEncodable
	}
	return "space", v.Name, nil
}

// Decoder returns a Decoder for "space" forms that resolves names in
// the registry, creating Spaces as needed.
func (ss *Spaces) Decoder() atom.Decoder {
	return func(x interface{}) (atom.Value, error) {
		name, is := x.(string)
		if !is {
			return nil, &atom.BadForm{X: x}
		}
		return &Value{
			Name:  name,
			Space: ss.Must(name),
		}, nil
	}
}

// Tokens returns a token table that maps each registered name to its
// Space's Value.
func (ss *Spaces) Tokens() map[string]atom.Atom {
	ss.RLock()
	defer ss.RUnlock()
	acc := make(map[string]atom.Atom, len(ss.spaces))
	for name, s := range ss.spaces {
		acc[name] = NewValue(name, s)
	}
	return acc
}

// SpaceOf extracts the Space from an atom that's a Space Value, or,
// if the Spaces isn't nil, a Symbol that names one.
func SpaceOf(ss *Spaces, a atom.Atom) (*Space, error) {
	switch vv := a.(type) {
	case atom.Grounded:
		if v, is := vv.Value.(*Value); is {
			return v.Space, nil
		}
	case atom.Symbol:
		if ss != nil {
			return ss.Get(string(vv))
		}
	}
	return nil, fmt.Errorf("%s is not a space", a)
}
