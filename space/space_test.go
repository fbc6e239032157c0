package space

import (
	"errors"
	"testing"

	"github.com/Comcast/atomspace/atom"
)

func TestInsertOrder(t *testing.T) {
	s := New()
	s.Insert(atom.S("b"))
	s.Insert(atom.S("a"))
	s.Insert(atom.S("b"))

	if s.Len() != 3 {
		t.Fatal(s.Len())
	}
	if got := s.String(); got != "b\na\nb" {
		t.Fatal(got)
	}

	xs := s.Content()
	xs[0] = atom.S("z")
	if s.Content()[0] != atom.S("b") {
		t.Fatal("Content isn't a copy")
	}
}

func TestMerge(t *testing.T) {
	s := New(atom.S("a"))
	s.Merge(New(atom.S("b"), atom.S("c")))
	if !s.Equal(New(atom.S("a"), atom.S("b"), atom.S("c"))) {
		t.Fatal(s)
	}
	s.Merge(s)
	if s.Len() != 6 {
		t.Fatal(s)
	}
	if s.Equal(New(atom.S("c"), atom.S("b"), atom.S("a"), atom.S("a"), atom.S("b"), atom.S("c"))) {
		t.Fatal("order ignored")
	}
}

func TestQuery(t *testing.T) {
	kb := New(
		atom.E(atom.S(":-"), atom.E(atom.S("fact"), atom.S("0")), atom.S("1")),
		atom.E(atom.S(":-"), atom.E(atom.S("fact"), atom.V("n")),
			atom.E(atom.S("*"), atom.V("n"), atom.E(atom.S("-"), atom.V("n"), atom.S("1")))),
	)

	result := New()
	if err := kb.Query(atom.E(atom.S(":-"), atom.E(atom.S("fact"), atom.S("5")), atom.V("x")), atom.V("x"), result); err != nil {
		t.Fatal(err)
	}
	// A one-way match treats the rule's $n literally.
	if result.Len() != 0 {
		t.Fatal(result)
	}

	if err := kb.UnifyQuery(atom.E(atom.S(":-"), atom.E(atom.S("fact"), atom.S("5")), atom.V("x")), atom.V("x"), result); err != nil {
		t.Fatal(err)
	}
	if !result.Equal(New(atom.E(atom.S("*"), atom.S("5"), atom.E(atom.S("-"), atom.S("5"), atom.S("1"))))) {
		t.Fatal(result)
	}

	kb = New(
		atom.E(atom.S("isa"), atom.S("kitchen-lamp"), atom.S("lamp")),
		atom.E(atom.S("isa"), atom.S("bedroom-lamp"), atom.S("lamp")),
	)
	got := kb.QueryAll(atom.E(atom.S("isa"), atom.V("x"), atom.S("lamp")), atom.V("x"))
	if !New(got...).Equal(New(atom.S("kitchen-lamp"), atom.S("bedroom-lamp"))) {
		t.Fatal(got)
	}

	if got := kb.QueryAll(atom.E(atom.S("isa"), atom.V("x"), atom.S("toad")), atom.V("x")); len(got) != 0 {
		t.Fatal(got)
	}
}

func TestQueryIntoSelf(t *testing.T) {
	s := New(atom.E(atom.S("a"), atom.S("1")), atom.E(atom.S("a"), atom.S("2")))
	if err := s.Query(atom.E(atom.S("a"), atom.V("x")), atom.E(atom.S("b"), atom.V("x")), s); err != nil {
		t.Fatal(err)
	}
	if s.String() != "(a 1)\n(a 2)\n(b 1)\n(b 2)" {
		t.Fatal(s)
	}
}

func TestQueryCollectorError(t *testing.T) {
	s := New(atom.S("a"), atom.S("a"), atom.S("a"))
	n := 0
	stop := errors.New("stop")
	err := s.Query(atom.V("x"), atom.V("x"), CollectorFunc(func(a atom.Atom) error {
		n++
		if n == 2 {
			return stop
		}
		return nil
	}))
	if err != stop || n != 2 {
		t.Fatal(err, n)
	}
}

func TestSpaces(t *testing.T) {
	ss := NewSpaces()
	kb := ss.Must("kb")
	kb.Insert(atom.S("x"))

	if _, err := ss.Get("nope"); err == nil {
		t.Fatal("expected an error")
	}

	got, err := SpaceOf(ss, atom.S("kb"))
	if err != nil {
		t.Fatal(err)
	}
	if got != kb {
		t.Fatal("wrong space")
	}

	v := NewValue("kb", kb)
	if got, err = SpaceOf(nil, v); err != nil || got != kb {
		t.Fatal(err)
	}
	if !atom.Equal(v, NewValue("other name", kb)) {
		t.Fatal("values for the same space differ")
	}
	if atom.Equal(v, NewValue("kb", New())) {
		t.Fatal("values for different spaces are equal")
	}

	c := atom.NewCodec()
	c.Register("space", ss.Decoder())
	a, err := c.UnmarshalAtom([]byte(`[{"space":"kb"},{"space":"fresh"}]`))
	if err != nil {
		t.Fatal(err)
	}
	if !atom.Equal(a.(atom.Expr)[0], v) {
		t.Fatal(a)
	}
	if names := ss.Names(); len(names) != 2 || names[0] != "fresh" {
		t.Fatal(names)
	}
}
