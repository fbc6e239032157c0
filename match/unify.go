package match

import (
	"github.com/Comcast/atomspace/atom"
)

// Unify matches a pattern against a candidate that might also
// contain variables.
//
// The two sides have separate variable namespaces: $x in the pattern
// and $x in the candidate are different variables.  The first
// returned Bindings are for the pattern's variables, and their values
// are candidate-side terms.  The second are for the candidate's
// variables, and their values have already been resolved through the
// pattern's bindings, so they are also candidate-side terms.
//
// Unify is what lets a rule (= (isa Fred frog) True) apply to the
// query (isa Fred $x), binding the candidate's $x to frog.
func (m *Matcher) Unify(pattern, candidate atom.Atom) (Bindings, Bindings, bool) {
	u := &unifier{
		m:   m,
		pbs: NewBindings(),
		cbs: NewBindings(),
	}
	if !u.unify(pattern, candidate) {
		return nil, nil, false
	}
	for v, x := range u.cbs {
		u.cbs[v] = m.Substitute(x, u.pbs)
	}
	return u.pbs, u.cbs, true
}

// UnifyQuery is Query with Unify instead of Match.
//
// Each result is the template instantiated with the pattern's
// bindings and then substituted with the candidate's bindings.
func (m *Matcher) UnifyQuery(pattern, template atom.Atom, atoms []atom.Atom, emit func(atom.Atom) error) error {
	for _, a := range atoms {
		pbs, cbs, ok := m.Unify(pattern, a)
		if !ok {
			continue
		}
		if err := emit(m.Substitute(m.Instantiate(template, pbs), cbs)); err != nil {
			return err
		}
	}
	return nil
}

// Unify calls DefaultMatcher.Unify.
func Unify(pattern, candidate atom.Atom) (Bindings, Bindings, bool) {
	return DefaultMatcher.Unify(pattern, candidate)
}

type unifier struct {
	m *Matcher

	// pbs maps pattern variables to candidate-side terms.
	pbs Bindings

	// cbs maps candidate variables to pattern-side terms.
	cbs Bindings
}

func (u *unifier) unify(p, c atom.Atom) bool {
	if v, is := p.(atom.Variable); is {
		if !u.m.GroundedVariables && c.Kind() == atom.GroundedKind {
			return false
		}
		if x, have := u.pbs[v]; have {
			return u.agree(x, c, u.cbs)
		}
		u.pbs[v] = c
		return true
	}

	if v, is := c.(atom.Variable); is {
		if x, have := u.cbs[v]; have {
			return u.agree(x, p, u.pbs)
		}
		u.cbs[v] = p
		return true
	}

	switch pp := p.(type) {
	case atom.Symbol:
		cc, is := c.(atom.Symbol)
		return is && pp == cc
	case atom.Expr:
		cc, is := c.(atom.Expr)
		if !is || len(pp) != len(cc) {
			return false
		}
		for i := range pp {
			if !u.unify(pp[i], cc[i]) {
				return false
			}
		}
		return true
	case atom.Grounded:
		return atom.Equal(pp, c)
	}
	return false
}

// agree checks that two terms from the same side are consistent.
//
// Variables from that side may be bound along the way, but only to
// ground terms, which are meaningful on either side.
func (u *unifier) agree(x, y atom.Atom, bs Bindings) bool {
	if v, is := x.(atom.Variable); is {
		if b, have := bs[v]; have && atom.IsGround(b) {
			return u.agree(b, y, bs)
		}
	}
	if v, is := y.(atom.Variable); is {
		if b, have := bs[v]; have && atom.IsGround(b) {
			return u.agree(x, b, bs)
		}
	}

	if atom.Equal(x, y) {
		return true
	}

	if v, is := x.(atom.Variable); is {
		if _, have := bs[v]; !have && atom.IsGround(y) {
			bs[v] = y
			return true
		}
		return false
	}
	if v, is := y.(atom.Variable); is {
		if _, have := bs[v]; !have && atom.IsGround(x) {
			bs[v] = x
			return true
		}
		return false
	}

	xe, is := x.(atom.Expr)
	if !is {
		return false
	}
	ye, is := y.(atom.Expr)
	if !is || len(xe) != len(ye) {
		return false
	}
	for i := range xe {
		if !u.agree(xe[i], ye[i], bs) {
			return false
		}
	}
	return true
}
