package tools

import (
	"bytes"
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v2"
)

var frogs = `
name: frogs
doc: |
  Some *frogs*.
scripts:
  ribbit:
    code: 'return "ribbit";'
spaces:
  background:
    - ["=", ["croaks", "$x"], ["isa", "$x", "frog"]]
    - ["=", ["green", "$x"], ["croaks", "$x"]]
    - ["isa", "Fred", "frog"]
  target:
    - ["green", "Fred"]
`

func writeProgram(t *testing.T) (string, func()) {
	dir, err := ioutil.TempDir("", "atomspace-tools")
	if err != nil {
		t.Fatal(err)
	}
	filename := filepath.Join(dir, "frogs.yaml")
	if err = ioutil.WriteFile(filename, []byte(frogs), 0644); err != nil {
		t.Fatal(err)
	}
	return filename, func() { os.RemoveAll(dir) }
}

func TestRenderProgramPage(t *testing.T) {
	filename, cleanup := writeProgram(t)
	defer cleanup()

	var b bytes.Buffer
	if err := ReadAndRenderProgramPage(filename, nil, &b, true); err != nil {
		t.Fatal(err)
	}
	page := b.String()
	for _, want := range []string{
		"<title>frogs</title>",
		"<em>frogs</em>",
		`<span id="rule-background-green" class="head">green</span>`,
		`<a href="#rule-background-croaks"><code>croaks</code></a>`,
		"(isa Fred frog)",
		"return &#34;ribbit&#34;;",
		`id="space-target"`,
		"var thisProgram = ",
	} {
		if !strings.Contains(page, want) {
			t.Fatalf("no %s in\n%s", want, page)
		}
	}
}

func TestRenderSpaceHTMLMalformed(t *testing.T) {
	var b bytes.Buffer
	if err := RenderSpaceHTML("kb", rulebase(t), &b); err != nil {
		t.Fatal(err)
	}
	if s := b.String(); !strings.Contains(s, "malformed:<pre>\n(= (broken))") {
		t.Fatal(s)
	}
}

func TestYAML(t *testing.T) {
	filename, cleanup := writeProgram(t)
	defer cleanup()

	inst, err := BuildFile(context.Background(), filename)
	if err != nil {
		t.Fatal(err)
	}

	bs, err := YAML(inst.Background, inst.Codec)
	if err != nil {
		t.Fatal(err)
	}

	var xs []interface{}
	if err = yaml.Unmarshal(bs, &xs); err != nil {
		t.Fatal(err)
	}
	if len(xs) != 3 {
		t.Fatal(string(bs))
	}
	if !strings.Contains(string(bs), "croaks") {
		t.Fatal(string(bs))
	}
}
