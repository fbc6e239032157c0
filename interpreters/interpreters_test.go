package interpreters

import (
	"context"
	"testing"

	"github.com/Comcast/atomspace/atom"
	"github.com/Comcast/atomspace/grounded"
	. "github.com/Comcast/atomspace/util/testutil"
)

func TestStandard(t *testing.T) {
	env, err := grounded.NewEnv(nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	c, i := Standard(ctx, env)

	if err = Define(ctx, c, i, "twice", `return [_.args[0], _.args[0]];`); err != nil {
		t.Fatal(err)
	}

	x := Atom(c, `["twice",["+",1,2]]`)
	if s := x.String(); s != "(twice (+ 1 2))" {
		t.Fatal(s)
	}

	e := x.(atom.Expr)
	xs, err := e.Head().(atom.Grounded).Execute(ctx, atom.E(e[0], grounded.I(3)))
	if err != nil {
		t.Fatal(err)
	}
	if len(xs) != 2 || !atom.Equal(xs[1], grounded.I(3)) {
		t.Fatal(atom.Strings(xs))
	}

	if err = Define(ctx, c, i, "broken", `return (;`); err == nil {
		t.Fatal("didn't protest")
	}
}
