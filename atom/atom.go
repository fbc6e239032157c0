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

// Package atom defines the terms that everything else operates on.
//
// An Atom is one of four things: a Symbol, a Variable, an Expr (an
// ordered sequence of Atoms), or a Grounded value that wraps something
// external.  Atoms are immutable.  Code that needs a modified Atom
// builds a new one.
package atom

import (
	"context"
	"strings"
)

// Kind enumerates the Atom variants.
type Kind int

const (
	SymbolKind Kind = iota
	VariableKind
	ExprKind
	GroundedKind
)

func (k Kind) String() string {
	switch k {
	case SymbolKind:
		return "symbol"
	case VariableKind:
		return "variable"
	case ExprKind:
		return "expr"
	case GroundedKind:
		return "grounded"
	}
	return "unknown"
}

// VariableSigil prefixes a Variable's name in its textual form.
const VariableSigil = "$"

// Atom is a term.
//
// The set of implementations is closed.
type Atom interface {
	Kind() Kind
	String() string

	atom()
}

// Symbol is a named constant.
type Symbol string

func (s Symbol) Kind() Kind     { return SymbolKind }
func (s Symbol) String() string { return string(s) }
func (s Symbol) atom()          {}

// Variable is a placeholder that matching can bind.
type Variable string

func (v Variable) Kind() Kind     { return VariableKind }
func (v Variable) String() string { return VariableSigil + string(v) }
func (v Variable) atom()          {}

// Name returns the variable's name without the sigil.
func (v Variable) Name() string { return string(v) }

// Expr is an ordered composite.  The first child, if any, is the
// head.
//
// An Expr must not be modified after construction.
type Expr []Atom

func (e Expr) Kind() Kind { return ExprKind }
func (e Expr) atom()      {}

func (e Expr) String() string {
	var b strings.Builder
	e.write(&b)
	return b.String()
}

func (e Expr) write(b *strings.Builder) {
	b.WriteByte('(')
	for i, x := range e {
		if 0 < i {
			b.WriteByte(' ')
		}
		if sub, is := x.(Expr); is {
			sub.write(b)
		} else {
			b.WriteString(x.String())
		}
	}
	b.WriteByte(')')
}

// Head returns the first child or nil.
func (e Expr) Head() Atom {
	if len(e) == 0 {
		return nil
	}
	return e[0]
}

// Args returns every child except the head.
func (e Expr) Args() []Atom {
	if len(e) == 0 {
		return nil
	}
	return e[1:]
}

// With returns a copy of the Expr with child i replaced.
func (e Expr) With(i int, x Atom) Expr {
	acc := make(Expr, len(e))
	copy(acc, e)
	acc[i] = x
	return acc
}

// Value is what a Grounded atom wraps.
//
// Equality and textual rendering are entirely up to the Value.
type Value interface {
	Equal(Value) bool
	String() string
}

// Executor is the optional execution capability of a Value.
//
// The given Expr is the full invoking expression: its head is the
// Grounded atom itself and the rest are arguments.  Zero results
// means the call produced nothing.  More than one result means the
// computation is non-deterministic.
type Executor interface {
	Execute(ctx context.Context, args Expr) ([]Atom, error)
}

// Grounded wraps an external Value.
type Grounded struct {
	Value Value
}

func (g Grounded) Kind() Kind { return GroundedKind }
func (g Grounded) atom()      {}

func (g Grounded) String() string {
	if g.Value == nil {
		return "<nil>"
	}
	return g.Value.String()
}

// Executable reports whether the wrapped Value implements Executor.
func (g Grounded) Executable() bool {
	_, is := g.Value.(Executor)
	return is
}

// Execute invokes the wrapped Value's execution capability.
//
// Returns *UnsupportedOperation if the Value doesn't have one.
func (g Grounded) Execute(ctx context.Context, args Expr) ([]Atom, error) {
	x, is := g.Value.(Executor)
	if !is {
		return nil, &UnsupportedOperation{
			Op:    "execute",
			Value: g.String(),
		}
	}
	return x.Execute(ctx, args)
}

// S makes a Symbol.
func S(name string) Symbol {
	return Symbol(name)
}

// V makes a Variable.
func V(name string) Variable {
	return Variable(name)
}

// E makes an Expr.
func E(xs ...Atom) Expr {
	if xs == nil {
		return Expr{}
	}
	return Expr(xs)
}

// G makes a Grounded atom.
func G(v Value) Grounded {
	return Grounded{Value: v}
}

// Equal reports structural equality.
func Equal(a, b Atom) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case Symbol:
		y, is := b.(Symbol)
		return is && x == y
	case Variable:
		y, is := b.(Variable)
		return is && x == y
	case Expr:
		y, is := b.(Expr)
		if !is || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case Grounded:
		y, is := b.(Grounded)
		if !is {
			return false
		}
		if x.Value == nil || y.Value == nil {
			return x.Value == nil && y.Value == nil
		}
		return x.Value.Equal(y.Value)
	}
	return false
}

// IsExecutable reports whether the atom is Grounded with an
// execution capability.
func IsExecutable(a Atom) bool {
	g, is := a.(Grounded)
	return is && g.Executable()
}

// IsSymbol reports whether the atom is the Symbol with the given
// name.
func IsSymbol(a Atom, name string) bool {
	s, is := a.(Symbol)
	return is && string(s) == name
}

// Vars returns the distinct variables in the atom in order of first
// occurrence.
func Vars(a Atom) []Variable {
	var (
		acc  []Variable
		seen = make(map[Variable]bool)
		walk func(Atom)
	)
	walk = func(a Atom) {
		switch vv := a.(type) {
		case Variable:
			if !seen[vv] {
				seen[vv] = true
				acc = append(acc, vv)
			}
		case Expr:
			for _, x := range vv {
				walk(x)
			}
		}
	}
	walk(a)
	return acc
}

// IsGround reports whether the atom contains no variables.
func IsGround(a Atom) bool {
	switch vv := a.(type) {
	case Variable:
		return false
	case Expr:
		for _, x := range vv {
			if !IsGround(x) {
				return false
			}
		}
	}
	return true
}

// Strings renders each atom.
func Strings(xs []Atom) []string {
	acc := make([]string, len(xs))
	for i, x := range xs {
		acc[i] = x.String()
	}
	return acc
}
