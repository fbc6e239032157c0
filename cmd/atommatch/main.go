/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
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

// Package main is a little command-line utility to invoke pattern matching.
//
//   atommatch -p '["likes","$who","tacos"]' -m '["likes","Homer","tacos"]' -w '{"$who":"Homer"}'
//
// Atoms use the generic JSON form.  With -u, the candidate can have
// variables, too, and both sets of bindings are reported.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/Comcast/atomspace/atom"
	"github.com/Comcast/atomspace/grounded"
	"github.com/Comcast/atomspace/match"
)

func main() {
	var (
		candidateJS = flag.String("m", "", "candidate atom in JSON")
		patternJS   = flag.String("p", "", "pattern atom in JSON")
		bindingsJS  = flag.String("b", "{}", "bindings in JSON")
		wantJS      = flag.String("w", "", "wanted bindings in JSON")
		unify       = flag.Bool("u", false, "unify instead of match")
		noQuote     = flag.Bool("no-quote", false, "don't treat quoted expressions specially")

		bench = flag.Int("bench", 0, "number of times to run (and report time)")

		verbose = flag.Bool("v", false, "verbosity")
	)

	flag.Parse()

	env, err := grounded.NewEnv(nil)
	if err != nil {
		panic(err)
	}
	c := env.Codec()

	m := *match.DefaultMatcher
	if *noQuote {
		m.Quote = ""
	}

	candidate, err := c.UnmarshalAtom([]byte(*candidateJS))
	if err != nil {
		log.Fatalf("candidate: %s", err)
	}
	pattern, err := c.UnmarshalAtom([]byte(*patternJS))
	if err != nil {
		log.Fatalf("pattern: %s", err)
	}
	bindings, err := parseBindings(c, *bindingsJS)
	if err != nil {
		log.Fatalf("bindings: %s", err)
	}

	if 0 < *bench {
		var stats runtime.MemStats
		runtime.ReadMemStats(&stats)
		allocs := stats.TotalAlloc
		then := time.Now()
		for i := 0; i < *bench; i++ {
			if *unify {
				m.Unify(pattern, candidate)
			} else {
				m.Match(pattern, candidate, bindings.Copy())
			}
		}
		elapsed := time.Now().Sub(then)
		meanNanos := elapsed.Nanoseconds() / int64(*bench)

		runtime.ReadMemStats(&stats)
		allocated := (stats.TotalAlloc - allocs) / uint64(*bench)

		log.Printf("%d iterations, %d mean ns/Match, %d mean bytes allocated per Match", *bench, meanNanos, allocated)
	}

	var (
		got, other match.Bindings
		ok         bool
	)
	if *unify {
		got, other, ok = m.Unify(pattern, candidate)
	} else {
		got, ok = m.Match(pattern, candidate, bindings)
	}

	if *wantJS != "" {
		want, err := parseBindings(c, *wantJS)
		if err != nil {
			log.Fatalf("wanted: %s", err)
		}
		if ok && Same(want, got, *verbose) {
			fmt.Printf("true\n")
			return
		}
		fmt.Printf("false\n")
		os.Exit(1)
	}

	if !ok {
		fmt.Printf("null\n")
		return
	}

	js, err := render(c, got)
	if err != nil {
		panic(err)
	}
	if *unify {
		ojs, err := render(c, other)
		if err != nil {
			panic(err)
		}
		fmt.Printf("%s %s\n", js, ojs)
		return
	}
	fmt.Printf("%s\n", js)
}

// parseBindings decodes a JSON object that maps variables to atoms.
// The variable names can have the "$" prefix or not.
func parseBindings(c *atom.Codec, js string) (match.Bindings, error) {
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(js), &m); err != nil {
		return nil, err
	}
	bs := match.NewBindings()
	for name, x := range m {
		a, err := c.Decode(x)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		bs = bs.Extend(atom.V(strings.TrimPrefix(name, atom.VariableSigil)), a)
	}
	return bs, nil
}

// render makes a JSON object from Bindings.
func render(c *atom.Codec, bs match.Bindings) ([]byte, error) {
	m := make(map[string]interface{}, len(bs))
	for v, a := range bs {
		x, err := c.Encode(a)
		if err != nil {
			return nil, err
		}
		m[v.String()] = x
	}
	return json.Marshal(m)
}

// Same checks that the two Bindings have the same variables bound to
// equal atoms.
func Same(x, y match.Bindings, verbose bool) bool {
	if len(x) != len(y) {
		if verbose {
			log.Printf("%s and %s have different sizes", x, y)
		}
		return false
	}
	for v, a := range x {
		b, have := y[v]
		if !have || !atom.Equal(a, b) {
			if verbose {
				log.Printf("%s: %v != %v", v, a, b)
			}
			return false
		}
	}
	return true
}
