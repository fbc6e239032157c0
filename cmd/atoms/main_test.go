package main

import (
	"bytes"
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/Comcast/atomspace/core"
)

var factorial = `
name: factorial
spaces:
  background:
    - ["=", ["if", "True", "$then", "$else"], "$then"]
    - ["=", ["if", "False", "$then", "$else"], "$else"]
    - ["=", ["fact", "$n"], ["if", ["==", "$n", 0], 1, ["*", "$n", ["fact", ["-", "$n", 1]]]]]
  target:
    - ["fact", 5]
    - ["++", {"str": "a"}, {"str": "b"}]
`

var session = `
program:
  spaces:
    target:
      - ["+", 1, 2]
ios:
  - inputs:
      - ["*", 6, 7]
    outputSet:
      - pattern: 3
      - pattern: 42
`

func write(t *testing.T, dir, name, src string) string {
	filename := filepath.Join(dir, name)
	if err := ioutil.WriteFile(filename, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	return filename
}

func TestRun(t *testing.T) {
	dir, err := ioutil.TempDir("", "atoms")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	filename := write(t, dir, "factorial.yaml", factorial)

	tests := []struct {
		format string
		want   string
	}{
		{"text", "\"ab\"\n120\n"},
		{"json", "[{\"str\":\"ab\"},120]\n"},
		{"yaml", "- str: ab\n- 120\n"},
	}
	for _, test := range tests {
		t.Run(test.format, func(t *testing.T) {
			var b bytes.Buffer
			if err := run(context.Background(), filename, core.NewInterpreter(), nil, test.format, &b); err != nil {
				t.Fatal(err)
			}
			if s := b.String(); s != test.want {
				t.Fatalf("%q", s)
			}
		})
	}

	var b bytes.Buffer
	if err := run(context.Background(), filename, core.NewInterpreter(), nil, "xml", &b); err == nil {
		t.Fatal("didn't protest")
	}
}

func TestExpect(t *testing.T) {
	dir, err := ioutil.TempDir("", "atoms")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	filename := write(t, dir, "session.yaml", session)
	if err = runExpect(context.Background(), filename, false); err != nil {
		t.Fatal(err)
	}
}
