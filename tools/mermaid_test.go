package tools

import (
	"strings"
	"testing"
)

func TestMermaid(t *testing.T) {
	var b buffer
	if err := Mermaid(rulebase(t), &b, nil); err != nil {
		t.Fatal(err)
	}
	g := b.String()
	for _, want := range []string{
		"graph TB\n",
		`n2("fact<br/>(fact $n)")`,
		"n2 --> n1",
		"n2 -.-> n4",
		"style n4 fill:#bcf2db",
	} {
		if !strings.Contains(g, want) {
			t.Fatalf("no %s in\n%s", want, g)
		}
	}
	if strings.Contains(g, `"S"`) {
		t.Fatal(g)
	}
}

func TestMermaidUndefined(t *testing.T) {
	var b buffer
	opts := &MermaidOpts{
		ShowUndefined: true,
		GroundedClass: "op",
		GroundedFill:  "#eee",
	}
	if err := Mermaid(rulebase(t), &b, opts); err != nil {
		t.Fatal(err)
	}
	g := b.String()
	for _, want := range []string{
		"classDef op fill:#eee",
		"class n4 op",
		`n7>"S"]`,
		"n3 --> n7",
	} {
		if !strings.Contains(g, want) {
			t.Fatalf("no %s in\n%s", want, g)
		}
	}
}
