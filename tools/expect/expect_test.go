package expect

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jsccast/yaml"
)

var doubles = `
doc: Doubling with a script and a timer.
program:
  name: double
  scripts:
    double: "return _.args[0] * 2;"
  spaces:
    background:
      - ["=", ["quad", "$x"], ["double", ["double", "$x"]]]
    target:
      - ["quad", 1]
ios:
  - doc: The target is reduced with the first message.
    inputs:
      - ["quad", 5]
    outputSet:
      - pattern: 20
      - pattern: 4
      - pattern: 0
        inverted: true
  - doc: Additions to a space.
    inputs:
      - {"to": "kb", "add": [["likes", "Fred", "flies"]]}
    outputSet:
      - space: kb
        pattern: ["likes", "$who", "flies"]
  - doc: A timer.
    inputs:
      - {"timer": {"in": "20ms", "msg": ["double", 21]}}
    outputSet:
      - pattern: 42
`

func parse(t *testing.T, src string) *Session {
	var s *Session
	if err := yaml.Unmarshal([]byte(src), &s); err != nil {
		t.Fatal(err)
	}
	s.DefaultTimeout = 5 * time.Second
	return s
}

func TestExpectBasic(t *testing.T) {
	s := parse(t, doubles)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Run(ctx); err != nil {
		t.Fatal(err)
	}

	bss := s.IOs[1].OutputSet[0].Bindingss
	if len(bss) != 1 {
		t.Fatal(bss)
	}
	if who := bss[0].Get("who"); who == nil || who.String() != "Fred" {
		t.Fatal(bss[0])
	}
}

func TestExpectTimeout(t *testing.T) {
	s := parse(t, doubles)
	s.IOs = s.IOs[:1]
	s.IOs[0].OutputSet[0].Pattern = 21
	s.IOs[0].Timeout = 100 * time.Millisecond

	if err := s.Run(context.Background()); !errors.Is(err, Timeout) {
		t.Fatalf("got %v", err)
	}
}

func TestExpectInverted(t *testing.T) {
	s := parse(t, doubles)
	s.IOs = s.IOs[:1]
	s.IOs[0].OutputSet[2].Pattern = 20

	if err := s.Run(context.Background()); err == nil {
		t.Fatal("didn't protest")
	}
}

func TestExpectNoProgram(t *testing.T) {
	s := &Session{}
	if err := s.Run(context.Background()); err != NoProgram {
		t.Fatal(err)
	}
}
