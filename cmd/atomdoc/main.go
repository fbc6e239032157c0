// Package main renders documentation for a program.
//
//   atomdoc html programs/frogs.yaml > frogs.html
//   atomdoc dot programs/frogs.yaml background > frogs.dot
//   atomdoc analyze programs/frogs.yaml
//
// See Usage for all of the subcommands.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Comcast/atomspace/load"
	"github.com/Comcast/atomspace/space"
	"github.com/Comcast/atomspace/tools"
)

func Usage() {
	fmt.Fprintf(os.Stderr, `Usage: atomdoc COMMAND PROGRAM [SPACE]

Commands:

  html PROGRAM          render an HTML page
  dot PROGRAM [SPACE]   write a Graphviz rule graph
  png PROGRAM [SPACE]   write PROGRAM.dot and PROGRAM.png
  mermaid PROGRAM [SPACE]
                        write a Mermaid rule graph
  analyze PROGRAM [SPACE]
                        write an analysis of the rules as JSON
  yaml PROGRAM [SPACE]  write the atoms of a space as YAML
  json PROGRAM          write the whole program as JSON

SPACE defaults to the program's background.
`)
}

// stdout is os.Stdout as an io.WriteCloser that doesn't close.
type stdout struct {
	io.Writer
}

func (w *stdout) Close() error {
	return nil
}

func die(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func main() {

	if len(os.Args) < 3 {
		Usage()
		os.Exit(1)
	}

	var (
		ctx      = context.Background()
		cmd      = os.Args[1]
		filename = os.Args[2]
		out      = &stdout{os.Stdout}
	)

	if cmd == "html" {
		if err := tools.ReadAndRenderProgramPage(filename, nil, out, false); err != nil {
			die(err)
		}
		return
	}

	inst, err := tools.BuildFile(ctx, filename)
	if err != nil {
		die(err)
	}

	s := inst.Background
	if 3 < len(os.Args) {
		if s, err = inst.Env.Spaces.Get(os.Args[3]); err != nil {
			die(err)
		}
	}

	if err = run(cmd, filename, inst, s, out); err != nil {
		die(err)
	}
}

func run(cmd, filename string, inst *load.Instance, s *space.Space, out io.WriteCloser) error {
	switch cmd {
	case "dot":
		return tools.Dot(s, out, &tools.DotOpts{
			YAMLPatterns: true,
			Codec:        inst.Codec,
		})

	case "png":
		pngname, err := tools.PNG(s, filename, &tools.DotOpts{
			Codec: inst.Codec,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n", pngname)

	case "mermaid":
		return tools.Mermaid(s, out, nil)

	case "analyze":
		a, err := tools.Analyze(s)
		if err != nil {
			return err
		}
		bs, err := json.MarshalIndent(a, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n", bs)

	case "yaml":
		bs, err := tools.YAML(s, inst.Codec)
		if err != nil {
			return err
		}
		if _, err = out.Write(bs); err != nil {
			return err
		}

	case "json":
		p, err := load.FromSpaces(inst.Program.Name, inst.Env.Spaces, inst.Codec)
		if err != nil {
			return err
		}
		p.Doc = inst.Program.Doc
		p.Scripts = inst.Program.Scripts
		p.Background = inst.Program.Background
		p.Target = inst.Program.Target
		p.Feedback = inst.Program.Feedback
		bs, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n", bs)

	default:
		Usage()
		return fmt.Errorf("unknown command %s", cmd)
	}

	return nil
}
