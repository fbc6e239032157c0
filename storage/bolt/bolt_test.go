package bolt

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/Comcast/atomspace/atom"
	"github.com/Comcast/atomspace/grounded"
	"github.com/Comcast/atomspace/space"
	"github.com/Comcast/atomspace/storage"
	. "github.com/Comcast/atomspace/util/testutil"
)

func TestImpl(t *testing.T) {
	// Just confirm that this code compiles.
	var _ storage.Storage = &Storage{}
}

func open(t testing.TB) (*Storage, *space.Spaces, func()) {
	dir, err := ioutil.TempDir("", "atomspace-bolt")
	if err != nil {
		t.Fatal(err)
	}

	env, err := grounded.NewEnv(nil)
	if err != nil {
		t.Fatal(err)
	}
	env.Spaces.Must("kb")

	s, err := NewStorage(filepath.Join(dir, "storage.db"), env.Codec())
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if err := s.Open(ctx); err != nil {
		t.Fatal(err)
	}

	return s, env.Spaces, func() {
		if err := s.Close(ctx); err != nil {
			t.Fatal(err)
		}
		os.RemoveAll(dir)
	}
}

func TestBasics(t *testing.T) {
	s, ss, done := open(t)
	defer done()

	ctx := context.Background()

	kb := ss.Must("kb")
	for _, a := range Atoms(s.Codec, `[
  ["likes","Homer","tacos"],
  ["=",["double","$x"],["+","$x","$x"]],
  ["price",{"float":2.5}],
  ["greeting",{"str":"hi"}],
  ["match","kb",["q","likes","$x","$y"],"$y"]
]`) {
		kb.Insert(a)
	}

	if err := s.WriteSpace(ctx, "kb", kb); err != nil {
		t.Fatal(err)
	}

	got, err := s.ReadSpace(ctx, "kb")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(kb) {
		t.Fatalf("%s\n!=\n%s", got, kb)
	}

	// Writing again replaces.
	smaller := space.New(atom.S("chips"))
	if err = s.WriteSpace(ctx, "kb", smaller); err != nil {
		t.Fatal(err)
	}
	if got, err = s.ReadSpace(ctx, "kb"); err != nil {
		t.Fatal(err)
	}
	if s := got.String(); s != "chips" {
		t.Fatal(s)
	}

	if err = s.Append(ctx, "kb", atom.S("queso"), grounded.I(3)); err != nil {
		t.Fatal(err)
	}
	if got, err = s.ReadSpace(ctx, "kb"); err != nil {
		t.Fatal(err)
	}
	if s := got.String(); s != "chips\nqueso\n3" {
		t.Fatal(s)
	}

	names, err := s.Names(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "kb" {
		t.Fatal(names)
	}

	if err = s.RemSpace(ctx, "kb"); err != nil {
		t.Fatal(err)
	}
	if got, err = s.ReadSpace(ctx, "kb"); err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatal(got)
	}
	if err = s.RemSpace(ctx, "kb"); err != nil {
		t.Fatal(err)
	}
}

func TestLoadSave(t *testing.T) {
	s, ss, done := open(t)
	defer done()

	ctx := context.Background()
	ss.Must("kb").Insert(atom.E(atom.S("isa"), atom.S("Fred"), atom.S("frog")))
	ss.Must("target").Insert(atom.E(atom.S("isa"), atom.S("Fred"), atom.V("x")))

	if err := storage.Save(ctx, s, ss); err != nil {
		t.Fatal(err)
	}

	again := space.NewSpaces()
	if err := storage.Load(ctx, s, again); err != nil {
		t.Fatal(err)
	}
	if names := again.Names(); len(names) != 2 {
		t.Fatal(names)
	}
	if !again.Must("kb").Equal(ss.Must("kb")) {
		t.Fatal(again.Must("kb"))
	}
}

func TestNotOpen(t *testing.T) {
	s, err := NewStorage("nope.db", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err = s.ReadSpace(context.Background(), "kb"); err != NotOpen {
		t.Fatal(err)
	}
}

// BenchmarkBolt is just for fun.  Bolt is slow.
func BenchmarkBolt(b *testing.B) {
	s, _, done := open(b)
	defer done()

	ctx := context.Background()
	sp := space.New(Atoms(s.Codec, `[["likes","Homer","tacos"],["likes","Marge","queso"]]`)...)

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		var err error
		if i%2 == 0 {
			err = s.WriteSpace(ctx, "simpsons", sp)
		} else {
			_, err = s.ReadSpace(ctx, "simpsons")
		}
		if err != nil {
			b.Fatal(err)
		}
	}
}
