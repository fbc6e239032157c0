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

// Package tools has some utilities for looking at rule bases.
package tools

import (
	"sort"

	"github.com/Comcast/atomspace/atom"
	"github.com/Comcast/atomspace/core"
	"github.com/Comcast/atomspace/match"
	"github.com/Comcast/atomspace/space"
)

// Analysis summarizes the rules in a space.
type Analysis struct {
	// Rules is the number of well-formed (= PATTERN BODY) atoms.
	Rules int

	// Facts is the number of atoms that aren't rules.
	Facts int

	// Defined lists the heads that have rules.
	Defined []string

	// Malformed lists the text of rules that don't have exactly
	// a pattern and a body.
	Malformed []string

	// Undefined lists the symbol heads that rule bodies use but
	// no rule defines.  These are often just data constructors.
	Undefined []string

	// Grounded lists the grounded heads that rule bodies use.
	Grounded []string

	// Deps maps each defined head to the heads its bodies use.
	Deps map[string][]string `json:"-"`
}

// Head returns the name of the head of a rule pattern, which is
// either the pattern itself (for a symbol) or the symbol at the head
// of an expression.
func Head(pattern atom.Atom) (string, bool) {
	switch vv := pattern.(type) {
	case atom.Symbol:
		return string(vv), true
	case atom.Expr:
		if s, is := vv.Head().(atom.Symbol); is {
			return string(s), true
		}
	}
	return "", false
}

// uses walks a rule body and reports the heads of its expressions.
// The quote symbol itself isn't reported, but quoted expressions are
// still examined because they are often templates.
func uses(m *match.Matcher, a atom.Atom, sym func(string), g func(atom.Grounded)) {
	e, is := a.(atom.Expr)
	if !is || len(e) == 0 {
		return
	}
	switch vv := e[0].(type) {
	case atom.Symbol:
		if m.Quote == "" || string(vv) != m.Quote {
			sym(string(vv))
		}
	case atom.Grounded:
		g(vv)
	}
	for _, x := range e {
		uses(m, x, sym, g)
	}
}

// Analyze examines the rules in the given space.
func Analyze(s *space.Space) (*Analysis, error) {
	var (
		m = match.DefaultMatcher
		a = &Analysis{
			Deps: make(map[string][]string),
		}
		defined    = make(map[string]bool)
		referenced = make(map[string]bool)
		grounded   = make(map[string]bool)
		deps       = make(map[string]map[string]bool)
	)

	for _, x := range s.Content() {
		e, is := x.(atom.Expr)
		if !is || len(e) == 0 || !atom.Equal(e[0], core.RuleSymbol) {
			a.Facts++
			continue
		}
		if len(e) != 3 {
			a.Malformed = append(a.Malformed, x.String())
			continue
		}
		a.Rules++

		head, ok := Head(e[1])
		if ok {
			defined[head] = true
			if deps[head] == nil {
				deps[head] = make(map[string]bool)
			}
		}

		uses(m, e[2],
			func(name string) {
				referenced[name] = true
				if ok {
					deps[head][name] = true
				}
			},
			func(g atom.Grounded) {
				name := g.String()
				grounded[name] = true
				if ok {
					deps[head][name] = true
				}
			})
	}

	for name := range defined {
		delete(referenced, name)
	}
	delete(referenced, string(core.RuleSymbol))

	a.Defined = keys(defined)
	a.Undefined = keys(referenced)
	a.Grounded = keys(grounded)
	for head, used := range deps {
		a.Deps[head] = keys(used)
	}

	return a, nil
}

// keys returns the sorted keys of the map.
func keys(m map[string]bool) []string {
	acc := make([]string, 0, len(m))
	for key := range m {
		acc = append(acc, key)
	}
	sort.Strings(acc)
	return acc
}
