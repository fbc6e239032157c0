package grounded

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Comcast/atomspace/atom"
	"github.com/Comcast/atomspace/space"

	"github.com/gorhill/cronexpr"
)

// Tag identifies an operator.
type Tag int

const (
	Add Tag = iota
	Sub
	Mul
	Div
	Eq
	Lt
	Gt
	Concat
	And
	Or
	Not
	Match
	Spaces
	Insert
	Call
	Fetch
	CronNext
)

var tagNames = map[Tag]string{
	Add:      "+",
	Sub:      "-",
	Mul:      "*",
	Div:      "/",
	Eq:       "==",
	Lt:       "<",
	Gt:       ">",
	Concat:   "++",
	And:      "and",
	Or:       "or",
	Not:      "not",
	Match:    "match",
	Spaces:   "spaces",
	Insert:   "insert",
	Call:     "call",
	Fetch:    "fetch",
	CronNext: "cron-next",
}

func (t Tag) String() string {
	if s, have := tagNames[t]; have {
		return s
	}
	return fmt.Sprintf("Tag(%d)", int(t))
}

// Capability implements an operator.  The args do not include the
// operator itself.
type Capability func(ctx context.Context, op *Op, args []atom.Atom) ([]atom.Atom, error)

// capabilities is the dispatch table.
var capabilities = map[Tag]Capability{
	Add:      arith(func(x, y int64) (int64, error) { return x + y, nil }, func(x, y float64) float64 { return x + y }),
	Sub:      arith(func(x, y int64) (int64, error) { return x - y, nil }, func(x, y float64) float64 { return x - y }),
	Mul:      arith(func(x, y int64) (int64, error) { return x * y, nil }, func(x, y float64) float64 { return x * y }),
	Div:      arith(divInt, func(x, y float64) float64 { return x / y }),
	Eq:       equal,
	Lt:       compare(func(c int) bool { return c < 0 }),
	Gt:       compare(func(c int) bool { return 0 < c }),
	Concat:   concat,
	And:      logic(true),
	Or:       logic(false),
	Not:      not,
	Match:    query,
	Spaces:   spaces,
	Insert:   insert,
	Call:     call,
	Fetch:    fetch,
	CronNext: cronNext,
}

// Op is an operator.
//
// Two Ops are equal if their Tags and Names are equal.  The Name is
// only used by Call, where it's the name of the Method.
type Op struct {
	Tag  Tag
	Name string

	env    *Env
	method Method
}

func (o *Op) Equal(v atom.Value) bool {
	p, is := v.(*Op)
	return is && o.Tag == p.Tag && o.Name == p.Name
}

func (o *Op) String() string {
	if o.Tag == Call {
		return CallPrefix + o.Name
	}
	return o.Tag.String()
}

// BindsVariables reports whether the Op binds variables in its own
// arguments, so an interpreter can execute it before those variables
// are bound.
func (o *Op) BindsVariables() bool {
	return o.Tag == Match
}

func (o *Op) Encode() (string, interface{}, error) {
	return "op", o.String(), nil
}

// Execute dispatches to the Capability for the Op's Tag.
func (o *Op) Execute(ctx context.Context, args atom.Expr) ([]atom.Atom, error) {
	c, have := capabilities[o.Tag]
	if !have {
		return nil, &atom.UnsupportedOperation{
			Op:    "execute",
			Value: o.String(),
		}
	}
	return c(ctx, o, args.Args())
}

// TypeMismatch occurs when an operator gets arguments it can't
// handle.
type TypeMismatch struct {
	Op   string
	Args []atom.Atom
}

func (e *TypeMismatch) Error() string {
	return fmt.Sprintf("%s can't handle (%s)", e.Op, strings.Join(atom.Strings(e.Args), " "))
}

// BadArity occurs when an operator gets the wrong number of
// arguments.
type BadArity struct {
	Op        string
	Want, Got int
}

func (e *BadArity) Error() string {
	return fmt.Sprintf("%s wants %d arguments, not %d", e.Op, e.Want, e.Got)
}

// DivisionByZero is returned by integer division.
var DivisionByZero = errors.New("division by zero")

func arity(op *Op, args []atom.Atom, n int) error {
	if len(args) != n {
		return &BadArity{op.String(), n, len(args)}
	}
	return nil
}

func value(a atom.Atom) atom.Value {
	if g, is := a.(atom.Grounded); is {
		return g.Value
	}
	return nil
}

func divInt(x, y int64) (int64, error) {
	if y == 0 {
		return 0, DivisionByZero
	}
	return x / y, nil
}

// arith makes a binary arithmetic Capability.  Both arguments must
// be Ints or both must be Floats.
func arith(ints func(x, y int64) (int64, error), floats func(x, y float64) float64) Capability {
	return func(ctx context.Context, op *Op, args []atom.Atom) ([]atom.Atom, error) {
		if err := arity(op, args, 2); err != nil {
			return nil, err
		}
		switch x := value(args[0]).(type) {
		case Int:
			if y, is := value(args[1]).(Int); is {
				z, err := ints(int64(x), int64(y))
				if err != nil {
					return nil, err
				}
				return []atom.Atom{I(z)}, nil
			}
		case Float:
			if y, is := value(args[1]).(Float); is {
				return []atom.Atom{F(floats(float64(x), float64(y)))}, nil
			}
		}
		return nil, &TypeMismatch{op.String(), args}
	}
}

func equal(ctx context.Context, op *Op, args []atom.Atom) ([]atom.Atom, error) {
	if err := arity(op, args, 2); err != nil {
		return nil, err
	}
	return []atom.Atom{Bool(atom.Equal(args[0], args[1]))}, nil
}

func compare(f func(int) bool) Capability {
	return func(ctx context.Context, op *Op, args []atom.Atom) ([]atom.Atom, error) {
		if err := arity(op, args, 2); err != nil {
			return nil, err
		}
		c := 0
		switch x := value(args[0]).(type) {
		case Int:
			y, is := value(args[1]).(Int)
			if !is {
				return nil, &TypeMismatch{op.String(), args}
			}
			if x < y {
				c = -1
			} else if y < x {
				c = 1
			}
		case Float:
			y, is := value(args[1]).(Float)
			if !is {
				return nil, &TypeMismatch{op.String(), args}
			}
			if x < y {
				c = -1
			} else if y < x {
				c = 1
			}
		case String:
			y, is := value(args[1]).(String)
			if !is {
				return nil, &TypeMismatch{op.String(), args}
			}
			c = strings.Compare(string(x), string(y))
		default:
			return nil, &TypeMismatch{op.String(), args}
		}
		return []atom.Atom{Bool(f(c))}, nil
	}
}

func concat(ctx context.Context, op *Op, args []atom.Atom) ([]atom.Atom, error) {
	var b strings.Builder
	for _, a := range args {
		s, is := value(a).(String)
		if !is {
			return nil, &TypeMismatch{op.String(), args}
		}
		b.WriteString(string(s))
	}
	return []atom.Atom{Str(b.String())}, nil
}

// logic makes "and" (given true) or "or" (given false).
func logic(and bool) Capability {
	return func(ctx context.Context, op *Op, args []atom.Atom) ([]atom.Atom, error) {
		if len(args) < 1 {
			return nil, &BadArity{op.String(), 2, len(args)}
		}
		acc := and
		for _, a := range args {
			b, ok := AsBool(a)
			if !ok {
				return nil, &TypeMismatch{op.String(), args}
			}
			if and {
				acc = acc && b
			} else {
				acc = acc || b
			}
		}
		return []atom.Atom{Bool(acc)}, nil
	}
}

func not(ctx context.Context, op *Op, args []atom.Atom) ([]atom.Atom, error) {
	if err := arity(op, args, 1); err != nil {
		return nil, err
	}
	b, ok := AsBool(args[0])
	if !ok {
		return nil, &TypeMismatch{op.String(), args}
	}
	return []atom.Atom{Bool(!b)}, nil
}

// query implements (match SPACE PATTERN TEMPLATE).  A quoted pattern
// is unquoted first.
func query(ctx context.Context, op *Op, args []atom.Atom) ([]atom.Atom, error) {
	if err := arity(op, args, 3); err != nil {
		return nil, err
	}
	s, err := space.SpaceOf(op.env.spaces(), args[0])
	if err != nil {
		return nil, err
	}
	acc := make([]atom.Atom, 0, 4)
	m := op.env.matcher()
	err = m.Query(m.Unquote(args[1]), args[2], s.Content(), func(a atom.Atom) error {
		acc = append(acc, a)
		return nil
	})
	return acc, err
}

// spaces implements (spaces NAME).
func spaces(ctx context.Context, op *Op, args []atom.Atom) ([]atom.Atom, error) {
	if err := arity(op, args, 1); err != nil {
		return nil, err
	}
	switch vv := args[0].(type) {
	case atom.Symbol:
		s, err := op.env.spaces().Get(string(vv))
		if err != nil {
			return nil, err
		}
		return []atom.Atom{space.NewValue(string(vv), s)}, nil
	case atom.Grounded:
		// Already resolved by a token.
		if _, is := vv.Value.(*space.Value); is {
			return []atom.Atom{vv}, nil
		}
	}
	return nil, &TypeMismatch{op.String(), args}
}

// insert implements (insert SPACE ATOM ...).  Quoted atoms are
// inserted without their quotes.  There are no results.
func insert(ctx context.Context, op *Op, args []atom.Atom) ([]atom.Atom, error) {
	if len(args) < 2 {
		return nil, &BadArity{op.String(), 2, len(args)}
	}
	s, err := space.SpaceOf(op.env.spaces(), args[0])
	if err != nil {
		return nil, err
	}
	m := op.env.matcher()
	for _, a := range args[1:] {
		s.Insert(m.Unquote(a))
	}
	return nil, nil
}

// call implements (call:METHOD TARGET ARG ...).
func call(ctx context.Context, op *Op, args []atom.Atom) ([]atom.Atom, error) {
	if len(args) < 1 {
		return nil, &BadArity{op.String(), 1, len(args)}
	}
	if op.method == nil {
		return nil, &UnknownMethod{op.Name}
	}
	return op.method(ctx, args[0], args[1:])
}

func stringArg(op *Op, args []atom.Atom) (string, error) {
	if err := arity(op, args, 1); err != nil {
		return "", err
	}
	switch vv := args[0].(type) {
	case atom.Symbol:
		return string(vv), nil
	case atom.Grounded:
		if s, is := vv.Value.(String); is {
			return string(s), nil
		}
	}
	return "", &TypeMismatch{op.String(), args}
}

// fetch implements (fetch URL) as an HTTP GET.
func fetch(ctx context.Context, op *Op, args []atom.Atom) ([]atom.Atom, error) {
	u, err := stringArg(op, args)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest("GET", u, nil)
	if err != nil {
		return nil, err
	}
	req = req.WithContext(ctx)
	resp, err := op.env.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	bs, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch status %s", resp.Status)
	}
	return []atom.Atom{Str(string(bs))}, nil
}

// cronNext implements (cron-next EXPR), which gives the next time
// (in RFC3339Nano) that the cron expression fires.
func cronNext(ctx context.Context, op *Op, args []atom.Atom) ([]atom.Atom, error) {
	expr, err := stringArg(op, args)
	if err != nil {
		return nil, err
	}
	c, err := cronexpr.Parse(expr)
	if err != nil {
		return nil, err
	}
	next := c.Next(op.env.now())
	if next.IsZero() {
		return nil, nil
	}
	return []atom.Atom{Str(next.UTC().Format(time.RFC3339Nano))}, nil
}
