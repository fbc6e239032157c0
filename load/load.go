/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package load reads programs.
//
// A Program is a structured document (YAML or JSON) that lists the
// atoms of some named spaces.  Atoms use the generic form from
// atom.Codec, so a Program never needs a text parser.  A Program can
// also define Scripts, which become tokens.
//
// Example:
//
//    name: double
//    scripts:
//      double: "return _.args[0] * 2;"
//    spaces:
//      background:
//        - ["=", ["quad", "$x"], ["double", ["double", "$x"]]]
//      target:
//        - ["quad", 5]
package load

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"sort"

	"github.com/Comcast/atomspace/atom"
	"github.com/Comcast/atomspace/core"
	"github.com/Comcast/atomspace/grounded"
	"github.com/Comcast/atomspace/interpreters"
	"github.com/Comcast/atomspace/interpreters/goja"
	"github.com/Comcast/atomspace/space"
	"github.com/Comcast/atomspace/util"

	"github.com/jsccast/yaml"
)

var (
	// DefaultBackground is the name of the background space when
	// a Program doesn't say.
	DefaultBackground = "background"

	// DefaultTarget is the name of the target space when a
	// Program doesn't say.
	DefaultTarget = "target"
)

// Program is a document that describes some spaces.
type Program struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	Doc  string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// Scripts maps names to Script sources.  See
	// interpreters/goja.AsSource.
	Scripts map[string]interface{} `json:"scripts,omitempty" yaml:"scripts,omitempty"`

	// Spaces maps names to the atoms in generic form.
	Spaces map[string][]interface{} `json:"spaces" yaml:"spaces"`

	// Background names the background space.
	Background string `json:"background,omitempty" yaml:"background,omitempty"`

	// Target names the target space.
	Target string `json:"target,omitempty" yaml:"target,omitempty"`

	// Feedback, if true, requests that results are added to the
	// background.  See core.Interpreter.Feedback.
	Feedback bool `json:"feedback,omitempty" yaml:"feedback,omitempty"`
}

// ParseYAML parses a Program from YAML.
func ParseYAML(bs []byte) (*Program, error) {
	var p Program
	if err := yaml.Unmarshal(bs, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ParseJSON parses a Program from JSON.
//
// Numbers are preserved as json.Numbers so that integers stay
// integers.
func ParseJSON(bs []byte) (*Program, error) {
	d := json.NewDecoder(bytes.NewReader(bs))
	d.UseNumber()
	var p Program
	if err := d.Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ReadFile reads a Program from a file.  A ".json" file is parsed as
// JSON, and anything else is parsed as YAML.
func ReadFile(filename string) (*Program, error) {
	bs, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	if filepath.Ext(filename) == ".json" {
		return ParseJSON(bs)
	}
	return ParseYAML(bs)
}

func (p *Program) background() string {
	if p.Background == "" {
		return DefaultBackground
	}
	return p.Background
}

func (p *Program) target() string {
	if p.Target == "" {
		return DefaultTarget
	}
	return p.Target
}

// Instance is a Program that has been built.
type Instance struct {
	Program *Program

	Env   *grounded.Env
	Codec *atom.Codec

	// Scripts is the interpreter for the Program's Scripts.
	Scripts *goja.Interpreter

	Background *space.Space
	Target     *space.Space
}

// BadSpace reports an atom that couldn't be decoded.
type BadSpace struct {
	Space string
	Index int
	Err   error
}

func (e *BadSpace) Error() string {
	return fmt.Sprintf("space %s atom %d: %s", e.Space, e.Index, e.Err)
}

func (e *BadSpace) Unwrap() error {
	return e.Err
}

// Build makes the Program's spaces in the Env's registry.
//
// All of the spaces are registered first, so any atom can refer to
// any space by name.  Then the Scripts are compiled and become
// tokens.  Finally the atoms are decoded and inserted in order.  The
// background and target spaces are created if the Program doesn't
// list them.
func (p *Program) Build(ctx context.Context, env *grounded.Env) (*Instance, error) {
	names := make([]string, 0, len(p.Spaces)+2)
	for name := range p.Spaces {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		env.Spaces.Must(name)
	}

	inst := &Instance{
		Program:    p,
		Env:        env,
		Background: env.Spaces.Must(p.background()),
		Target:     env.Spaces.Must(p.target()),
	}

	inst.Codec, inst.Scripts = interpreters.Standard(ctx, env)

	scripts := make([]string, 0, len(p.Scripts))
	for name := range p.Scripts {
		scripts = append(scripts, name)
	}
	sort.Strings(scripts)
	for _, name := range scripts {
		if err := interpreters.Define(ctx, inst.Codec, inst.Scripts, name, p.Scripts[name]); err != nil {
			return nil, fmt.Errorf("script %s: %w", name, err)
		}
	}

	for _, name := range names {
		util.Logf("load.Build %s space %s (%d atoms)", p.Name, name, len(p.Spaces[name]))
		s := env.Spaces.Must(name)
		for j, x := range p.Spaces[name] {
			a, err := inst.Codec.Decode(x)
			if err != nil {
				return nil, &BadSpace{name, j, err}
			}
			s.Insert(a)
		}
	}

	return inst, nil
}

// Run reduces the target against the background.  If the Program
// wants Feedback, Run uses Interpreter.Feedback.  Otherwise Run just
// Drains.
func (inst *Instance) Run(ctx context.Context, i *core.Interpreter, c *core.Control) ([]atom.Atom, error) {
	if inst.Program.Feedback {
		return i.Feedback(ctx, inst.Target, inst.Background, c)
	}
	return i.Drain(ctx, core.NewState(inst.Target), inst.Background, c)
}

// FromSpaces makes a Program that describes the given spaces.  The
// Codec's Tokens are used to encode grounded atoms by name.
func FromSpaces(name string, ss *space.Spaces, c *atom.Codec) (*Program, error) {
	p := &Program{
		Name:   name,
		Spaces: make(map[string][]interface{}),
	}
	for _, n := range ss.Names() {
		s, err := ss.Get(n)
		if err != nil {
			return nil, err
		}
		xs, err := c.EncodeAll(s.Content())
		if err != nil {
			return nil, fmt.Errorf("space %s: %w", n, err)
		}
		p.Spaces[n] = xs
	}
	return p, nil
}
