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

package tools

import (
	"fmt"
	"io"
	"strings"

	"github.com/Comcast/atomspace/space"
)

type MermaidOpts struct {
	// ShowPatterns will result in a node label that includes the
	// patterns of the head's rules.
	ShowPatterns bool `json:"showPatterns"`

	// GroundedFill is the fill color for grounded heads.  Does
	// not apply if GroundedClass is set.
	GroundedFill string `json:"groundedFill,omitempty"`

	// GroundedClass will be the CSS class for grounded heads.
	GroundedClass string `json:"groundedClass,omitempty"`

	// ShowUndefined includes heads that no rule defines.
	ShowUndefined bool `json:"showUndefined,omitempty"`
}

// Mermaid makes a Mermaid (https://mermaidjs.github.io/) input file
// for the rule graph of the given space.  See Dot.
func Mermaid(s *space.Space, w io.WriteCloser, opts *MermaidOpts) error {

	if opts == nil {
		opts = &MermaidOpts{
			ShowPatterns: true,
			GroundedFill: "#bcf2db",
		}
	}

	a, err := Analyze(s)
	if err != nil {
		return err
	}
	heads, rules := rulesByHead(s)

	fmt.Fprintf(w, "graph TB\n")

	if opts.GroundedClass != "" {
		fmt.Fprintf(w, "  classDef %s fill:%s\n", opts.GroundedClass, opts.GroundedFill)
	}

	nids := make(map[string]string)
	node := func(name string) string {
		if nid, already := nids[name]; already {
			return nid
		}
		nid := fmt.Sprintf("n%d", len(nids)+1)
		nids[name] = nid
		return nid
	}

	quote := func(s string) string {
		return strings.Replace(s, `"`, `'`, -1)
	}

	for _, head := range heads {
		label := quote(head)
		if opts.ShowPatterns {
			for _, r := range rules[head] {
				label += "<br/>" + quote(r[1].String())
			}
		}
		fmt.Fprintf(w, "  %s(\"%s\")\n", node(head), label)
	}

	grounded := make(map[string]bool, len(a.Grounded))
	for _, name := range a.Grounded {
		grounded[name] = true
		nid := node(name)
		fmt.Fprintf(w, "  %s[\"%s\"]\n", nid, quote(name))
		switch {
		case opts.GroundedClass != "":
			fmt.Fprintf(w, "  class %s %s\n", nid, opts.GroundedClass)
		case opts.GroundedFill != "":
			fmt.Fprintf(w, "  style %s fill:%s\n", nid, opts.GroundedFill)
		}
	}

	undefined := make(map[string]bool, len(a.Undefined))
	for _, name := range a.Undefined {
		undefined[name] = true
		if opts.ShowUndefined {
			fmt.Fprintf(w, "  %s>\"%s\"]\n", node(name), quote(name))
		}
	}

	for _, head := range heads {
		for _, used := range a.Deps[head] {
			if undefined[used] && !opts.ShowUndefined {
				continue
			}
			arrow := "-->"
			if grounded[used] {
				arrow = "-.->"
			}
			fmt.Fprintf(w, "  %s %s %s\n", node(head), arrow, node(used))
		}
	}

	fmt.Fprintf(w, "\n")

	return w.Close()
}
