package storage

import (
	"context"
	"testing"

	"github.com/Comcast/atomspace/atom"
	"github.com/Comcast/atomspace/space"
)

func TestImpl(t *testing.T) {
	var _ Storage = NewMem()
}

func TestMemLoadSave(t *testing.T) {
	ctx := context.Background()

	ss := space.NewSpaces()
	ss.Must("kb").Insert(atom.E(atom.S("isa"), atom.S("Fred"), atom.S("frog")))
	ss.Must("target").Insert(atom.E(atom.S("isa"), atom.S("Fred"), atom.V("x")))

	st := NewMem()
	if err := Save(ctx, st, ss); err != nil {
		t.Fatal(err)
	}

	names, err := st.Names(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "kb" || names[1] != "target" {
		t.Fatal(names)
	}

	// The stored copy doesn't follow later inserts.
	ss.Must("kb").Insert(atom.S("later"))
	s, err := st.ReadSpace(ctx, "kb")
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 1 {
		t.Fatal(s)
	}

	again := space.NewSpaces()
	if err = Load(ctx, st, again); err != nil {
		t.Fatal(err)
	}
	if s := again.Must("target").String(); s != "(isa Fred $x)" {
		t.Fatal(s)
	}

	if err = st.RemSpace(ctx, "kb"); err != nil {
		t.Fatal(err)
	}
	if s, err = st.ReadSpace(ctx, "kb"); err != nil {
		t.Fatal(err)
	}
	if s != nil {
		t.Fatal(s)
	}

	if err = Save(ctx, st, ss, "nope"); err == nil {
		t.Fatal("didn't protest")
	}
}
