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

package core

import (
	"context"
	"log"

	"github.com/Comcast/atomspace/atom"
	"github.com/Comcast/atomspace/match"
	"github.com/Comcast/atomspace/space"
)

var (
	// EOS is the end-of-stream sentinel that InterpretStep
	// returns when a State has nothing left to offer.
	EOS = atom.Symbol("eos")

	// RuleSymbol heads equality rules in a background Space.
	RuleSymbol = atom.Symbol("=")

	// DefaultInterpreter is used by the package-level functions.
	DefaultInterpreter = NewInterpreter()
)

// Interpreter holds the configuration for reduction.
//
// An Interpreter has no state of its own, so one can serve any number
// of States.
type Interpreter struct {
	// Matcher is used for rules and quoting.  If nil,
	// match.DefaultMatcher.
	Matcher *match.Matcher

	// MaxBranches, if positive, bounds the number of pending
	// Branches in a State.
	MaxBranches int

	// Tracing turns on the accumulation of Traces in each Stride.
	Tracing bool

	// Debug turns on logging.
	Debug bool
}

// NewInterpreter makes an Interpreter with the default Matcher and
// no bound on Branches.
func NewInterpreter() *Interpreter {
	return &Interpreter{
		Matcher: match.DefaultMatcher,
	}
}

func (i *Interpreter) matcher() *match.Matcher {
	if i.Matcher == nil {
		return match.DefaultMatcher
	}
	return i.Matcher
}

func (i *Interpreter) logf(format string, args ...interface{}) {
	if i.Debug {
		log.Printf("core.Interpreter."+format, args...)
	}
}

// Branch is one alternative that's still being reduced.
//
// Branches are independent: each holds a complete atom.
type Branch struct {
	Atom atom.Atom `json:"atom"`

	// Steps counts the reductions that produced this Branch.
	Steps int `json:"steps"`
}

func (b *Branch) String() string {
	if b == nil {
		return "nil"
	}
	return b.Atom.String()
}

// State is a target Space plus the worklist of pending Branches.
//
// The worklist is FIFO.  When it's empty, the next Step seeds it
// with the target's atoms that haven't been seen yet, in insertion
// order.  Each target atom is seeded once, so atoms inserted into the
// target later are picked up later.
type State struct {
	Target *space.Space

	pending []*Branch

	// seeded is the number of target atoms seeded so far.
	seeded int
}

// NewState makes a State for the given target.
func NewState(target *space.Space) *State {
	return &State{
		Target:  target,
		pending: make([]*Branch, 0, 16),
	}
}

// Pending returns a copy of the worklist.
func (st *State) Pending() []*Branch {
	acc := make([]*Branch, len(st.pending))
	copy(acc, st.pending)
	return acc
}

// Exhausted reports whether the worklist is empty and every target
// atom has been seeded.
func (st *State) Exhausted() bool {
	return len(st.pending) == 0 && st.Target.Len() <= st.seeded
}

func (st *State) seed() []atom.Atom {
	xs := st.Target.From(st.seeded)
	st.seeded += len(xs)
	for _, x := range xs {
		st.pending = append(st.pending, &Branch{Atom: x})
	}
	return xs
}

func (st *State) pop() *Branch {
	b := st.pending[0]
	st.pending[0] = nil
	st.pending = st.pending[1:]
	return b
}

// rule is an equality rule from a background Space.
type rule struct {
	pattern, body atom.Atom
}

// rules gathers the background's equality rules in order.
func (i *Interpreter) rules(background *space.Space) ([]rule, error) {
	if background == nil {
		return nil, nil
	}
	xs := background.Content()
	acc := make([]rule, 0, len(xs))
	for _, x := range xs {
		e, is := x.(atom.Expr)
		if !is || len(e) == 0 || !atom.Equal(e[0], RuleSymbol) {
			continue
		}
		if len(e) != 3 {
			return nil, &MalformedRule{x}
		}
		acc = append(acc, rule{e[1], e[2]})
	}
	return acc, nil
}

// alt is one way to rewrite an atom.
type alt struct {
	atom atom.Atom

	// bs holds bindings for the branch's own variables, which
	// apply to the entire branch.
	bs match.Bindings
}

// rewriting carries what one reduction needs.
type rewriting struct {
	i      *Interpreter
	ctx    context.Context
	rules  []rule
	stride *Stride

	// branch is the whole term being reduced.
	branch atom.Atom
}

// rewrite finds the leftmost outermost redex in the atom and
// rewrites it.
//
// Returns the alternatives and true if there was a redex.  An empty
// set of alternatives with true means that the branch died.
func (r *rewriting) rewrite(a atom.Atom) ([]alt, bool) {
	switch vv := a.(type) {
	case atom.Symbol:
		return r.applyRules(vv)
	case atom.Expr:
		if len(vv) == 0 || r.i.matcher().IsQuoted(vv) {
			return nil, false
		}
		if g, is := vv[0].(atom.Grounded); is && g.Executable() {
			if alts, ok := r.within(vv, 1); ok {
				return alts, true
			}
			if waiting(g, vv) {
				// Normal form until something binds the variable.
				return nil, false
			}
			return r.execute(g, vv), true
		}
		if alts, ok := r.applyRules(vv); ok {
			return alts, true
		}
		return r.within(vv, 0)
	}
	return nil, false
}

// within rewrites the leftmost child, starting at the given index,
// that has a redex.
func (r *rewriting) within(e atom.Expr, from int) ([]alt, bool) {
	for j := from; j < len(e); j++ {
		alts, ok := r.rewrite(e[j])
		if !ok {
			continue
		}
		acc := make([]alt, len(alts))
		for k, x := range alts {
			acc[k] = alt{
				atom: e.With(j, x.atom),
				bs:   x.bs,
			}
		}
		return acc, true
	}
	return nil, false
}

// Binder is implemented by grounded values that bind variables in
// their own arguments, like the match op.
type Binder interface {
	BindsVariables() bool
}

// waiting reports whether an argument of the expression is an
// unbound Variable that the grounded head won't bind itself.  A
// query template like (+ $x 10) waits for the query to bind $x.
func waiting(g atom.Grounded, e atom.Expr) bool {
	if b, is := g.Value.(Binder); is && b.BindsVariables() {
		return false
	}
	for _, x := range e[1:] {
		if _, is := x.(atom.Variable); is {
			return true
		}
	}
	return false
}

func (r *rewriting) execute(g atom.Grounded, e atom.Expr) []alt {
	r.i.logf("execute %s", e)
	xs, err := g.Execute(r.ctx, e)
	if err != nil {
		failed := &BranchFailed{
			Atom: e,
			Err:  err,
		}
		r.i.logf("execute %s", failed)
		r.stride.Failed = append(r.stride.Failed, failed)
		r.trace("failed", e, "error", err.Error())
		return nil
	}
	r.trace("executed", e, "results", atom.Strings(xs))
	acc := make([]alt, len(xs))
	for k, x := range xs {
		acc[k] = alt{atom: x}
	}
	return acc
}

func (r *rewriting) applyRules(a atom.Atom) ([]alt, bool) {
	m := r.i.matcher()
	var acc []alt
	for _, ru := range r.rules {
		pbs, cbs, ok := m.Unify(ru.pattern, a)
		if !ok {
			continue
		}
		r.apart(ru, pbs)
		x := m.Instantiate(ru.body, pbs)
		r.trace("rule", ru.pattern, "atom", a.String(), "bs", pbs.String(), "result", x.String())
		acc = append(acc, alt{
			atom: x,
			bs:   cbs,
		})
	}
	return acc, 0 < len(acc)
}

// apart binds the rule body's free variables to fresh variables when
// their names are already used in the branch.  Otherwise a rule's
// $y would become the branch's $y.
func (r *rewriting) apart(ru rule, pbs match.Bindings) {
	var used, avoid map[atom.Variable]bool
	for _, v := range atom.Vars(ru.body) {
		if _, bound := pbs[v]; bound {
			continue
		}
		if used == nil {
			used = make(map[atom.Variable]bool)
			avoid = make(map[atom.Variable]bool)
			for _, w := range atom.Vars(r.branch) {
				used[w] = true
				avoid[w] = true
			}
			for _, w := range atom.Vars(ru.body) {
				avoid[w] = true
			}
		}
		if !used[v] {
			continue
		}
		fresh := v + "'"
		for avoid[fresh] {
			fresh += "'"
		}
		avoid[fresh] = true
		pbs[v] = fresh
	}
}

func (r *rewriting) trace(what string, a atom.Atom, kvs ...interface{}) {
	if !r.i.Tracing {
		return
	}
	m := map[string]interface{}{
		what: a.String(),
	}
	for k := 0; k+1 < len(kvs); k += 2 {
		if s, is := kvs[k].(string); is {
			m[s] = kvs[k+1]
		}
	}
	r.stride.Traces.Add(m)
}
