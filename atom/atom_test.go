package atom

import (
	"context"
	"testing"
)

type name string

func (n name) Equal(v Value) bool {
	m, is := v.(name)
	return is && n == m
}

func (n name) String() string { return "name:" + string(n) }

type echo struct{}

func (e echo) Equal(v Value) bool {
	_, is := v.(echo)
	return is
}

func (e echo) String() string { return "echo" }

func (e echo) Execute(ctx context.Context, args Expr) ([]Atom, error) {
	return args.Args(), nil
}

func TestRender(t *testing.T) {
	tests := []struct {
		a    Atom
		want string
	}{
		{S("foo"), "foo"},
		{V("x"), "$x"},
		{E(), "()"},
		{E(S("="), V("a"), S("0")), "(= $a 0)"},
		{E(S("a"), E(S("b"), E()), G(name("c"))), "(a (b ()) name:c)"},
	}
	for _, test := range tests {
		if got := test.a.String(); got != test.want {
			t.Errorf("%#v rendered as %q, not %q", test.a, got, test.want)
		}
	}
}

func TestEqual(t *testing.T) {
	a := E(S("="), V("a"), S("0"))
	if !Equal(a, E(S("="), V("a"), S("0"))) {
		t.Fatal("equal expressions not equal")
	}
	if Equal(a, E(S("="), V("a"))) {
		t.Fatal("arity ignored")
	}
	if Equal(S("a"), V("a")) {
		t.Fatal("symbol equals variable")
	}
	if !Equal(G(name("x")), G(name("x"))) {
		t.Fatal("grounded equality not delegated")
	}
	if Equal(G(name("x")), G(echo{})) {
		t.Fatal("different grounded values equal")
	}
}

func TestExecute(t *testing.T) {
	ctx := context.Background()

	g := G(echo{})
	got, err := g.Execute(ctx, E(g, S("a"), S("b")))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || !Equal(got[1], S("b")) {
		t.Fatal(got)
	}

	n := G(name("x"))
	if IsExecutable(n) {
		t.Fatal("name is executable")
	}
	_, err = n.Execute(ctx, E(n))
	if _, is := err.(*UnsupportedOperation); !is {
		t.Fatalf("wanted UnsupportedOperation, not %v", err)
	}
}

func TestVars(t *testing.T) {
	a := E(S("f"), V("x"), E(V("y"), V("x")), V("z"))
	vs := Vars(a)
	if len(vs) != 3 || vs[0] != "x" || vs[1] != "y" || vs[2] != "z" {
		t.Fatal(vs)
	}
	if IsGround(a) {
		t.Fatal("not ground")
	}
	if !IsGround(E(S("f"), G(name("n")))) {
		t.Fatal("ground")
	}
}

func TestWith(t *testing.T) {
	e := E(S("a"), S("b"))
	f := e.With(1, S("c"))
	if e.String() != "(a b)" || f.String() != "(a c)" {
		t.Fatal(e, f)
	}
}
