package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"sort"

	"github.com/Comcast/atomspace/atom"
	"github.com/Comcast/atomspace/core"
	"github.com/Comcast/atomspace/load"
	"github.com/Comcast/atomspace/space"

	md "github.com/russross/blackfriday/v2"
)

// RenderSpaceHTML writes a table of the space's atoms.  Rules are
// grouped by head, and each head links to its first rule.
func RenderSpaceHTML(name string, s *space.Space, out io.Writer) error {
	f := func(format string, args ...interface{}) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	a, err := Analyze(s)
	if err != nil {
		return err
	}
	heads, rules := rulesByHead(s)

	f(`<div class="space" id="space-%s">`, html.EscapeString(name))
	f(`<h2>%s</h2>`, html.EscapeString(name))
	f(`<div class="summary">%d rules, %d other atoms</div>`, a.Rules, a.Facts)

	if 0 < len(heads) {
		f(`<table class="rules">`)
		for _, head := range heads {
			id := "rule-" + html.EscapeString(name) + "-" + html.EscapeString(head)
			f(`<tr class="rule"><td><span id="%s" class="head">%s</span></td><td>`, id, html.EscapeString(head))
			f(`<table>`)
			for i, r := range rules[head] {
				f(`<tr><td><div class="ruleNum">%d</div></td>`, i)
				f(`<td><code>%s</code></td>`, html.EscapeString(r[1].String()))
				f(`<td><code>%s</code></td></tr>`, html.EscapeString(r[2].String()))
			}
			f(`</table>`)
			if used := a.Deps[head]; 0 < len(used) {
				f(`<div class="uses">uses`)
				for _, u := range used {
					if _, have := rules[u]; have {
						f(` <a href="#rule-%s-%s"><code>%s</code></a>`,
							html.EscapeString(name), html.EscapeString(u), html.EscapeString(u))
					} else {
						f(` <code>%s</code>`, html.EscapeString(u))
					}
				}
				f(`</div>`)
			}
			f(`</td></tr>`)
		}
		f(`</table>`)
	}

	var others []atom.Atom
	for _, x := range s.Content() {
		if e, is := x.(atom.Expr); is && 0 < len(e) && atom.Equal(e[0], core.RuleSymbol) {
			continue
		}
		others = append(others, x)
	}
	if 0 < len(others) {
		f(`<div class="atoms"><pre>`)
		for _, x := range others {
			f(`%s`, html.EscapeString(x.String()))
		}
		f(`</pre></div>`)
	}

	if 0 < len(a.Malformed) {
		f(`<div class="malformed">malformed:<pre>`)
		for _, m := range a.Malformed {
			f(`%s`, html.EscapeString(m))
		}
		f(`</pre></div>`)
	}

	f(`</div>`)

	return nil
}

// RenderProgramHTML writes the Program's doc (as markdown) followed
// by each of its spaces.  The Program must have been built so that
// its spaces are in the given registry.
func RenderProgramHTML(p *load.Program, ss *space.Spaces, out io.Writer) error {
	fmt.Fprintf(out, "<div class=\"programDoc doc\">%s</div>\n", md.Run([]byte(p.Doc)))

	if 0 < len(p.Scripts) {
		names := make([]string, 0, len(p.Scripts))
		for name := range p.Scripts {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintf(out, "<div class=\"scripts\"><table>\n")
		for _, name := range names {
			src := p.Scripts[name]
			if m, is := src.(map[string]interface{}); is {
				if code, have := m["code"]; have {
					src = code
				}
			}
			fmt.Fprintf(out, "<tr><td><code>%s</code></td><td><div class=\"code\"><pre>%s</pre></div></td></tr>\n",
				html.EscapeString(name), html.EscapeString(fmt.Sprintf("%v", src)))
		}
		fmt.Fprintf(out, "</table></div>\n")
	}

	for _, name := range ss.Names() {
		s, err := ss.Get(name)
		if err != nil {
			return err
		}
		if err = RenderSpaceHTML(name, s, out); err != nil {
			return err
		}
	}

	return nil
}

// RenderProgramPage writes a complete HTML page for the Program.
//
// If includeGraph, the page includes the Program as JSON in a
// variable for client-side graph rendering.
func RenderProgramPage(p *load.Program, ss *space.Spaces, out io.Writer, cssFiles []string, includeGraph bool) error {

	if cssFiles == nil {
		cssFiles = []string{"/static/program-html.css"}
	}

	title := html.EscapeString(p.Name)

	fmt.Fprintf(out, `<!DOCTYPE html>
<meta charset="utf-8">
<html>
  <head>
  <title>%s</title>
`, title)

	if includeGraph {
		js, err := json.Marshal(p)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, `
  <script src="https://unpkg.com/mermaid@8/dist/mermaid.min.js"></script>
  <script>
  var thisProgram = %s;
  </script>
`, js)
	}

	for _, cssFile := range cssFiles {
		fmt.Fprintf(out, "  <link href=\"%s\" rel=\"stylesheet\">\n", cssFile)
	}

	fmt.Fprintf(out, `
  </head>
  <body>
    <h1>%s</h1>
`, title)

	if err := RenderProgramHTML(p, ss, out); err != nil {
		return err
	}

	fmt.Fprintf(out, `
  </body>
</html>
`)

	return nil
}

// ReadAndRenderProgramPage reads a Program, builds it in a fresh
// Env, and renders it.
func ReadAndRenderProgramPage(filename string, cssFiles []string, out io.Writer, includeGraph bool) error {
	inst, err := BuildFile(context.Background(), filename)
	if err != nil {
		return err
	}
	return RenderProgramPage(inst.Program, inst.Env.Spaces, out, cssFiles, includeGraph)
}
