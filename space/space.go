/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package space provides an ordered, append-only store of atoms.
//
// A Space preserves insertion order, allows duplicates, and never
// removes anything.  Iteration order is insertion order, and that
// order determines the order of query results.
//
// A Space can be shared between goroutines: one writer at a time and
// any number of readers.
package space

import (
	"strings"
	"sync"

	"github.com/Comcast/atomspace/atom"
	"github.com/Comcast/atomspace/match"
)

// Collector receives query results.
type Collector interface {
	Add(atom.Atom) error
}

// CollectorFunc adapts a function to a Collector.
type CollectorFunc func(atom.Atom) error

func (f CollectorFunc) Add(a atom.Atom) error {
	return f(a)
}

// Space is an ordered multiset of atoms.
type Space struct {
	// Matcher, if not nil, is used for queries instead of
	// match.DefaultMatcher.
	Matcher *match.Matcher

	sync.RWMutex

	atoms []atom.Atom
}

// New makes a Space that contains the given atoms in order.
func New(atoms ...atom.Atom) *Space {
	s := &Space{
		atoms: make([]atom.Atom, 0, len(atoms)+8),
	}
	s.atoms = append(s.atoms, atoms...)
	return s
}

func (s *Space) matcher() *match.Matcher {
	if s.Matcher == nil {
		return match.DefaultMatcher
	}
	return s.Matcher
}

// Insert appends the atom.
func (s *Space) Insert(a atom.Atom) {
	s.Lock()
	s.atoms = append(s.atoms, a)
	s.Unlock()
}

// Add implements Collector by calling Insert, so a Space can receive
// query results directly.
func (s *Space) Add(a atom.Atom) error {
	s.Insert(a)
	return nil
}

// Merge appends all of the other Space's atoms, preserving their
// order.
func (s *Space) Merge(other *Space) {
	if other == s {
		s.Lock()
		s.atoms = append(s.atoms, s.atoms...)
		s.Unlock()
		return
	}
	xs := other.Content()
	s.Lock()
	s.atoms = append(s.atoms, xs...)
	s.Unlock()
}

// Content returns a copy of the atoms in insertion order.
func (s *Space) Content() []atom.Atom {
	s.RLock()
	acc := make([]atom.Atom, len(s.atoms))
	copy(acc, s.atoms)
	s.RUnlock()
	return acc
}

// From returns a copy of the atoms starting at the given position.
func (s *Space) From(i int) []atom.Atom {
	s.RLock()
	defer s.RUnlock()
	if len(s.atoms) <= i {
		return nil
	}
	acc := make([]atom.Atom, len(s.atoms)-i)
	copy(acc, s.atoms[i:])
	return acc
}

// Len returns the number of atoms.
func (s *Space) Len() int {
	s.RLock()
	n := len(s.atoms)
	s.RUnlock()
	return n
}

// Query matches the pattern against every atom and sends each
// instantiated template to the Collector.
//
// The query sees a snapshot of the Space, so the Collector can
// safely be the Space itself.  The first error from the Collector
// terminates the query.
func (s *Space) Query(pattern, template atom.Atom, c Collector) error {
	return s.matcher().Query(pattern, template, s.Content(), c.Add)
}

// UnifyQuery is Query except that the atoms in the Space can have
// variables of their own.  See match.Matcher.Unify.
func (s *Space) UnifyQuery(pattern, template atom.Atom, c Collector) error {
	return s.matcher().UnifyQuery(pattern, template, s.Content(), c.Add)
}

// QueryAll is Query that gathers the results.
func (s *Space) QueryAll(pattern, template atom.Atom) []atom.Atom {
	acc := make([]atom.Atom, 0, 8)
	s.Query(pattern, template, CollectorFunc(func(a atom.Atom) error {
		acc = append(acc, a)
		return nil
	}))
	return acc
}

// Equal reports whether the two Spaces have equal atoms in the same
// order.
func (s *Space) Equal(other *Space) bool {
	if s == other {
		return true
	}
	xs, ys := s.Content(), other.Content()
	if len(xs) != len(ys) {
		return false
	}
	for i := range xs {
		if !atom.Equal(xs[i], ys[i]) {
			return false
		}
	}
	return true
}

// String renders one atom per line.
func (s *Space) String() string {
	return strings.Join(atom.Strings(s.Content()), "\n")
}
