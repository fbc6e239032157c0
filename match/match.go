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

// Package match implements the core pattern matcher.
package match

import (
	"sort"
	"strings"

	"github.com/Comcast/atomspace/atom"
)

type Matcher struct {
	// Quote is the name of the symbol that marks a quoted
	// expression.
	//
	// When a template expression has this symbol as its head,
	// Instantiate drops the head and returns the remaining
	// children as a new expression.  That new expression is
	// substituted but otherwise left alone, so any quoted
	// expressions inside of it survive.  That's how a template
	// can construct a second query to be evaluated later.
	//
	// An empty Quote turns off quoting.
	Quote string

	// GroundedVariables allows a pattern variable to bind to a
	// Grounded atom.
	//
	// Turning this switch off restricts variables to symbolic
	// structure, which is occasionally useful when a pattern
	// should only see data.
	GroundedVariables bool
}

var DefaultMatcher = &Matcher{
	Quote:             "q",
	GroundedVariables: true,
}

// Bindings is a map from variables to their values.
type Bindings map[atom.Variable]atom.Atom

func NewBindings() Bindings {
	return make(Bindings, 8)
}

// Extend adds the binding; modifies and returns the Bindings.
//
// The Bindings are modified.
func (bs Bindings) Extend(v atom.Variable, x atom.Atom) Bindings {
	bs[v] = x
	return bs
}

// Remove removes the given variables.
//
// The Bindings are modified.
func (bs Bindings) Remove(vs ...atom.Variable) Bindings {
	for _, v := range vs {
		delete(bs, v)
	}
	return bs
}

// Copy makes a shallow copy of the Bindings.
func (bs Bindings) Copy() Bindings {
	acc := make(Bindings, len(bs))
	for k, v := range bs {
		acc[k] = v
	}
	return acc
}

// Get returns the binding for the named variable or nil.
func (bs Bindings) Get(name string) atom.Atom {
	return bs[atom.Variable(name)]
}

// String renders the Bindings with the variables in sorted order.
func (bs Bindings) String() string {
	vs := make([]string, 0, len(bs))
	for v := range bs {
		vs = append(vs, string(v))
	}
	sort.Strings(vs)
	var b strings.Builder
	b.WriteByte('{')
	for i, v := range vs {
		if 0 < i {
			b.WriteString(", ")
		}
		b.WriteString(atom.VariableSigil + v + ": " + bs[atom.Variable(v)].String())
	}
	b.WriteByte('}')
	return b.String()
}

// IsQuoted reports whether the atom is an expression whose head is
// the quoting symbol.
func (m *Matcher) IsQuoted(a atom.Atom) bool {
	if m.Quote == "" {
		return false
	}
	e, is := a.(atom.Expr)
	return is && 0 < len(e) && atom.IsSymbol(e[0], m.Quote)
}

// Unquote returns the quoted expression without its head.  Anything
// else is returned as is.
func (m *Matcher) Unquote(a atom.Atom) atom.Atom {
	if !m.IsQuoted(a) {
		return a
	}
	e := a.(atom.Expr)
	acc := make(atom.Expr, len(e)-1)
	copy(acc, e[1:])
	return acc
}

// Match attempts to match the pattern against the candidate.
//
// Only the pattern's variables can be bound.  A variable in the
// candidate is just another term, which the pattern must match
// exactly.
//
// The given Bindings (if any) constrain the match and are not
// modified.  If the match succeeds, the returned Bindings extend
// them.  A failure to match is not an error.
func (m *Matcher) Match(pattern, candidate atom.Atom, bs Bindings) (Bindings, bool) {
	if bs == nil {
		bs = NewBindings()
	} else {
		bs = bs.Copy()
	}
	if !m.match(pattern, candidate, bs) {
		return nil, false
	}
	return bs, true
}

func (m *Matcher) match(pattern, candidate atom.Atom, bs Bindings) bool {
	switch p := pattern.(type) {
	case atom.Variable:
		if !m.GroundedVariables && candidate.Kind() == atom.GroundedKind {
			return false
		}
		if x, have := bs[p]; have {
			return atom.Equal(m.Substitute(x, bs), candidate)
		}
		bs[p] = candidate
		return true
	case atom.Symbol:
		c, is := candidate.(atom.Symbol)
		return is && p == c
	case atom.Expr:
		c, is := candidate.(atom.Expr)
		if !is || len(p) != len(c) {
			return false
		}
		for i := range p {
			if !m.match(p[i], c[i], bs) {
				return false
			}
		}
		return true
	case atom.Grounded:
		return atom.Equal(p, candidate)
	}
	return false
}

// Substitute replaces every bound variable in the atom with its
// binding.
//
// Substitution is a single pass: a binding is not itself
// substituted.
func (m *Matcher) Substitute(a atom.Atom, bs Bindings) atom.Atom {
	if len(bs) == 0 {
		return a
	}
	switch vv := a.(type) {
	case atom.Variable:
		if x, have := bs[vv]; have {
			return x
		}
		return vv
	case atom.Expr:
		acc := make(atom.Expr, len(vv))
		for i, x := range vv {
			acc[i] = m.Substitute(x, bs)
		}
		return acc
	}
	return a
}

// Instantiate builds a term from a template and bindings.
//
// Instantiate is Substitute except for quoted expressions.  See
// Matcher.Quote.
func (m *Matcher) Instantiate(template atom.Atom, bs Bindings) atom.Atom {
	switch vv := template.(type) {
	case atom.Variable:
		if x, have := bs[vv]; have {
			return x
		}
		return vv
	case atom.Expr:
		if m.IsQuoted(vv) {
			return m.Substitute(m.Unquote(vv), bs)
		}
		acc := make(atom.Expr, len(vv))
		for i, x := range vv {
			acc[i] = m.Instantiate(x, bs)
		}
		return acc
	}
	return template
}

// Query matches the pattern against each atom in order and emits the
// instantiated template for every match.
//
// An error from emit stops the query.
func (m *Matcher) Query(pattern, template atom.Atom, atoms []atom.Atom, emit func(atom.Atom) error) error {
	for _, a := range atoms {
		bs, ok := m.Match(pattern, a, nil)
		if !ok {
			continue
		}
		if err := emit(m.Instantiate(template, bs)); err != nil {
			return err
		}
	}
	return nil
}

// Match calls DefaultMatcher.Match.
func Match(pattern, candidate atom.Atom, bs Bindings) (Bindings, bool) {
	return DefaultMatcher.Match(pattern, candidate, bs)
}

// Instantiate calls DefaultMatcher.Instantiate.
func Instantiate(template atom.Atom, bs Bindings) atom.Atom {
	return DefaultMatcher.Instantiate(template, bs)
}

// Substitute calls DefaultMatcher.Substitute.
func Substitute(a atom.Atom, bs Bindings) atom.Atom {
	return DefaultMatcher.Substitute(a, bs)
}
