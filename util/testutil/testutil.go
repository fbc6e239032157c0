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

// Package testutil has some helpers for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/Comcast/atomspace/atom"
)

// JS renders its argument as JSON or as a string indicating an error.
func JS(x interface{}) string {
	bs, err := json.Marshal(&x)
	if err != nil {
		log.Printf("warning: testutil.JS error %s for %#v", err, x)
		return fmt.Sprintf("%#v", x)
	}
	return string(bs)
}

// Dwimjs, when given a string or bytes, parses that data as JSON.
// If the data isn't JSON, returns the string.  When given anything
// else, just returns what's given.
//
// See https://en.wikipedia.org/wiki/DWIM.
func Dwimjs(x interface{}) interface{} {
	switch vv := x.(type) {
	case []byte:
		return Dwimjs(string(vv))
	case string:
		var v interface{}
		if err := json.Unmarshal([]byte(vv), &v); err != nil {
			return vv
		}
		return v
	default:
		return x
	}
}

// Atom decodes the JSON form of an atom with the given Codec.  Panics
// on error.
func Atom(c *atom.Codec, js string) atom.Atom {
	a, err := c.UnmarshalAtom([]byte(js))
	if err != nil {
		panic(fmt.Errorf("testutil.Atom %s: %w", js, err))
	}
	return a
}

// Atoms decodes a JSON array of atoms with the given Codec.  Panics
// on error.
func Atoms(c *atom.Codec, js string) []atom.Atom {
	e, is := Atom(c, js).(atom.Expr)
	if !is {
		panic(fmt.Errorf("testutil.Atoms %s: not an array", js))
	}
	return []atom.Atom(e)
}
