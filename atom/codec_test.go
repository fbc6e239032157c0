package atom

import (
	"testing"
)

func (n name) Encode() (string, interface{}, error) {
	return "name", string(n), nil
}

func testCodec() *Codec {
	c := NewCodec()
	c.Register("name", func(x interface{}) (Value, error) {
		s, is := x.(string)
		if !is {
			return nil, &BadForm{x}
		}
		return name(s), nil
	})
	return c
}

func TestCodecDecode(t *testing.T) {
	c := testCodec()
	c.Tokens = map[string]Atom{
		"echo": G(echo{}),
	}

	a, err := c.UnmarshalAtom([]byte(`["echo", "$x", ["a", {"sym":"$b"}], {"name":"n"}, []]`))
	if err != nil {
		t.Fatal(err)
	}
	want := E(G(echo{}), V("x"), E(S("a"), S("$b")), G(name("n")), E())
	if !Equal(a, want) {
		t.Fatalf("%s != %s", a, want)
	}
}

func TestCodecErrors(t *testing.T) {
	c := testCodec()

	if _, err := c.UnmarshalAtom([]byte(`{"nope":1}`)); err == nil {
		t.Fatal("expected an error")
	} else if _, is := err.(*UnknownGroundedType); !is {
		t.Fatalf("unexpected %T", err)
	}

	if _, err := c.UnmarshalAtom([]byte(`3`)); err == nil {
		t.Fatal("numbers shouldn't decode without Number")
	}

	if _, err := c.Encode(G(echo{})); err != NotEncodable {
		t.Fatalf("wanted NotEncodable, not %v", err)
	}
}

func TestCodecEncode(t *testing.T) {
	c := testCodec()
	c.Tokens = map[string]Atom{
		"echo": G(echo{}),
	}
	a := E(G(echo{}), V("x"), S("$odd"), G(name("n")))
	js, err := c.MarshalAtom(a)
	if err != nil {
		t.Fatal(err)
	}
	if string(js) != `["echo","$x",{"sym":"$odd"},{"name":"n"}]` {
		t.Fatal(string(js))
	}
	b, err := c.UnmarshalAtom(js)
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(a, b) {
		t.Fatalf("%s != %s", a, b)
	}
}
