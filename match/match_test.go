package match

import (
	"testing"

	. "github.com/Comcast/atomspace/atom"
)

type num int

func (n num) Equal(v Value) bool {
	m, is := v.(num)
	return is && n == m
}

func (n num) String() string { return string(rune('0' + n)) }

func TestMatch(t *testing.T) {
	tests := []struct {
		name      string
		pattern   Atom
		candidate Atom
		want      string // Bindings.String() or "" for no match
	}{
		{"symbols", S("a"), S("a"), "{}"},
		{"different symbols", S("a"), S("b"), ""},
		{"variable", V("x"), E(S("a"), S("b")), "{$x: (a b)}"},
		{"expr", E(S("isa"), V("x"), S("lamp")), E(S("isa"), S("kitchen"), S("lamp")), "{$x: kitchen}"},
		{"arity", E(S("f"), V("x")), E(S("f"), S("a"), S("b")), ""},
		{"consistent", E(S("f"), V("x"), V("x")), E(S("f"), S("a"), S("a")), "{$x: a}"},
		{"inconsistent", E(S("f"), V("x"), V("x")), E(S("f"), S("a"), S("b")), ""},
		{"nested", E(S("f"), E(V("x"), V("y")), V("y")), E(S("f"), E(S("a"), S("b")), S("b")), "{$x: a, $y: b}"},
		{"grounded", E(S("n"), G(num(3))), E(S("n"), G(num(3))), "{}"},
		{"grounded differ", G(num(3)), G(num(4)), ""},
		{"grounded vs symbol", G(num(3)), S("3"), ""},
		{"candidate variable is literal", E(S("f"), S("a")), E(S("f"), V("x")), ""},
		{"variable vs variable", E(S("f"), V("y")), E(S("f"), V("x")), "{$y: $x}"},
		{"mismatched kinds", E(), S("a"), ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			bs, ok := Match(test.pattern, test.candidate, nil)
			if test.want == "" {
				if ok {
					t.Fatalf("unexpected match %s", bs)
				}
				return
			}
			if !ok {
				t.Fatal("no match")
			}
			if got := bs.String(); got != test.want {
				t.Fatalf("got %s, wanted %s", got, test.want)
			}
			if got := Instantiate(test.pattern, bs); !Equal(got, test.candidate) {
				t.Fatalf("instantiated %s, not %s", got, test.candidate)
			}
		})
	}
}

func TestMatchWithBindings(t *testing.T) {
	given := NewBindings().Extend("x", S("a"))
	if _, ok := Match(E(V("x"), V("y")), E(S("b"), S("c")), given); ok {
		t.Fatal("prior binding ignored")
	}
	bs, ok := Match(E(V("x"), V("y")), E(S("a"), S("c")), given)
	if !ok {
		t.Fatal("no match")
	}
	if len(given) != 1 {
		t.Fatal("input bindings modified")
	}
	if bs.String() != "{$x: a, $y: c}" {
		t.Fatal(bs)
	}
}

func TestGroundedVariables(t *testing.T) {
	m := &Matcher{Quote: "q"}
	if _, ok := m.Match(V("x"), G(num(1)), nil); ok {
		t.Fatal("variable bound to grounded atom")
	}
	if _, ok := m.Match(V("x"), S("one"), nil); !ok {
		t.Fatal("variable didn't bind to symbol")
	}
}

func TestInstantiate(t *testing.T) {
	bs := NewBindings().
		Extend("verb", S("make")).
		Extend("var0", S("pottery"))

	tests := []struct {
		name     string
		template Atom
		want     string
	}{
		{"variable", V("var0"), "pottery"},
		{"unbound", V("other"), "$other"},
		{"expr", E(S("a"), V("verb"), E(V("var0"))), "(a make (pottery))"},
		{"quoted",
			E(S("q"), S("match"), S("kb"), E(S("from"), V("verb"), V("var1")), E(S("make_from"), V("var0"), V("var1"))),
			"(match kb (from make $var1) (make_from pottery $var1))"},
		{"quoted inside", E(S("list"), E(S("q"), V("verb"))), "(list (make))"},
		{"nested quote kept", E(S("q"), S("a"), E(S("q"), V("verb"))), "(a (q make))"},
		{"bare quote", E(S("q")), "()"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Instantiate(test.template, bs).String(); got != test.want {
				t.Fatalf("got %s, wanted %s", got, test.want)
			}
		})
	}

	plain := Substitute(E(S("q"), V("verb")), bs)
	if plain.String() != "(q make)" {
		t.Fatal(plain)
	}
}

func TestQuery(t *testing.T) {
	kb := []Atom{
		E(S("isa"), S("kitchen-lamp"), S("lamp")),
		E(S("isa"), S("Fred"), S("frog")),
		E(S("isa"), S("bedroom-lamp"), S("lamp")),
	}
	var got []Atom
	emit := func(a Atom) error {
		got = append(got, a)
		return nil
	}
	if err := DefaultMatcher.Query(E(S("isa"), V("x"), S("lamp")), V("x"), kb, emit); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].String() != "kitchen-lamp" || got[1].String() != "bedroom-lamp" {
		t.Fatal(got)
	}

	got = nil
	if err := DefaultMatcher.Query(E(S("isa"), V("x"), S("toad")), V("x"), kb, emit); err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatal(got)
	}
}

func TestUnify(t *testing.T) {
	tests := []struct {
		name      string
		pattern   Atom
		candidate Atom
		pbs, cbs  string // "" for no match
	}{
		{"one way",
			E(S("foo"), V("a"), V("b")), E(S("foo"), S("3"), S("4")),
			"{$a: 3, $b: 4}", "{}"},
		{"variable in candidate",
			E(S("isa"), S("Fred"), S("frog")), E(S("isa"), S("Fred"), V("x")),
			"{}", "{$x: frog}"},
		{"separate namespaces",
			E(S("f"), V("x"), S("a")), E(S("f"), S("b"), V("x")),
			"{$x: b}", "{$x: a}"},
		{"candidate bound through pattern",
			E(S("f"), V("y"), V("y")), E(S("f"), S("c"), V("x")),
			"{$y: c}", "{$x: c}"},
		{"candidate inconsistent",
			E(S("f"), S("a"), S("b")), E(S("f"), V("x"), V("x")),
			"", ""},
		{"candidate consistent",
			E(S("f"), S("a"), S("a")), E(S("f"), V("x"), V("x")),
			"{}", "{$x: a}"},
		{"arity",
			E(S("f"), S("a")), E(S("f"), V("x"), V("y")),
			"", ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			pbs, cbs, ok := Unify(test.pattern, test.candidate)
			if test.pbs == "" {
				if ok {
					t.Fatalf("unexpected unification %s %s", pbs, cbs)
				}
				return
			}
			if !ok {
				t.Fatal("didn't unify")
			}
			if pbs.String() != test.pbs || cbs.String() != test.cbs {
				t.Fatalf("got %s %s, wanted %s %s", pbs, cbs, test.pbs, test.cbs)
			}
			l := Substitute(test.pattern, pbs)
			r := Substitute(test.candidate, cbs)
			if !Equal(Substitute(l, cbs), r) {
				t.Fatalf("%s and %s don't agree", l, r)
			}
		})
	}
}
