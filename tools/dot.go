package tools

// dot -Tpng g.dot > g.png

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/Comcast/atomspace/atom"
	"github.com/Comcast/atomspace/core"
	"github.com/Comcast/atomspace/space"

	"gopkg.in/yaml.v2"
)

// rulesByHead groups the well-formed rules in the space by the name
// of the head of their patterns.  The heads are returned in the order
// they first appear.
func rulesByHead(s *space.Space) ([]string, map[string][]atom.Expr) {
	var (
		heads []string
		rules = make(map[string][]atom.Expr)
	)
	for _, x := range s.Content() {
		e, is := x.(atom.Expr)
		if !is || len(e) != 3 || !atom.Equal(e[0], core.RuleSymbol) {
			continue
		}
		head, ok := Head(e[1])
		if !ok {
			continue
		}
		if _, have := rules[head]; !have {
			heads = append(heads, head)
		}
		rules[head] = append(rules[head], e)
	}
	return heads, rules
}

// DotOpts controls Dot's output.
type DotOpts struct {
	// YAMLPatterns renders each rule pattern as YAML of its
	// generic form.  Otherwise a pattern is rendered as its
	// string.
	YAMLPatterns bool

	// Highlight names a head to draw in red.
	Highlight string

	// Codec encodes patterns for YAMLPatterns.  If nil, uses
	// atom.NewCodec().
	Codec *atom.Codec
}

// Dot makes a Graphviz dot file for the rules in the given space.
//
// Each node is the head of some rules, and its label lists those
// rules' patterns.  An edge from one head to another means some
// rule for the first uses the second.  Grounded heads are drawn as
// notes.
func Dot(s *space.Space, w io.WriteCloser, opts *DotOpts) error {
	if opts == nil {
		opts = &DotOpts{}
	}
	c := opts.Codec
	if c == nil {
		c = atom.NewCodec()
	}

	a, err := Analyze(s)
	if err != nil {
		return err
	}
	heads, rules := rulesByHead(s)

	fmt.Fprintf(w, "digraph G {\n")
	fmt.Fprintf(w, `  graph [ordering=out,rankdir=TB,nodesep=0.3,ranksep=0.6]
  node [shape="record" style="rounded,filled"]
  edge [fontsize = "12"]
`)

	ids := make(map[string]string)
	id := func(name string) string {
		if nid, have := ids[name]; have {
			return nid
		}
		nid := fmt.Sprintf("n%d", len(ids))
		ids[name] = nid
		return nid
	}

	pattern := func(p atom.Atom) string {
		if !opts.YAMLPatterns {
			return escHTML(p.String())
		}
		x, err := c.Encode(p)
		if err != nil {
			return escHTML(err.Error())
		}
		bs, err := yaml.Marshal(x)
		if err != nil {
			return escHTML(err.Error())
		}
		return strings.Replace(escHTML(strings.TrimSpace(string(bs))), "\n", `<BR ALIGN="LEFT"/>`, -1)
	}

	for _, head := range heads {
		label := "<B>" + escHTML(head) + "</B>"
		for _, r := range rules[head] {
			label += `<FONT POINT-SIZE="8"><BR ALIGN="LEFT"/>` + pattern(r[1]) + `</FONT>`
		}
		color, fillcolor := "black", "#99ddc8"
		if head == opts.Highlight {
			color, fillcolor = "red", "#f98b8b"
		}
		fmt.Fprintf(w, "  %s [style=\"rounded,filled\", color=\"%s\", fillcolor=\"%s\", label=<%s> ]\n",
			id(head), color, fillcolor, label)
	}

	grounded := make(map[string]bool, len(a.Grounded))
	for _, name := range a.Grounded {
		grounded[name] = true
		fmt.Fprintf(w, "  %s [shape=\"note\", style=\"filled\", fillcolor=\"#bcf2db\", label=<%s> ]\n",
			id(name), escHTML(name))
	}
	for _, name := range a.Undefined {
		fmt.Fprintf(w, "  %s [style=\"dashed\", label=<%s> ]\n", id(name), escHTML(name))
	}

	for _, head := range heads {
		for _, used := range a.Deps[head] {
			style := "solid"
			if grounded[used] {
				style = "dotted"
			}
			fmt.Fprintf(w, "  %s -> %s [ style=\"%s\" ]\n", id(head), id(used), style)
		}
	}

	fmt.Fprintf(w, "}\n")
	return w.Close()
}

// PNG generates a PNG image based on output from Dot.
//
// This function with write two files: basename.dot and basename.png,
// where the basename is the given string.
func PNG(s *space.Space, basename string, opts *DotOpts) (string, error) {
	dotname := basename + ".dot"
	pngname := basename + ".png"

	dotfile, err := os.Create(dotname)
	if err != nil {
		return pngname, err
	}
	if err := Dot(s, dotfile, opts); err != nil {
		return pngname, err
	}
	if err := exec.Command("dot", "-Tpng", "-Gstart=1", "-o", pngname, dotname).Run(); err != nil {
		return pngname, err
	}
	return pngname, nil
}

func escHTML(s string) string {
	s = strings.Replace(s, "&", "&amp;", -1)
	s = strings.Replace(s, "<", "&lt;", -1)
	s = strings.Replace(s, ">", "&gt;", -1)
	return s
}
