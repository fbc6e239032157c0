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

// Package grounded provides the standard grounded values and
// operators: numbers, strings, arithmetic, logic, space queries, and
// a few operators that reach outside (HTTP and cron schedules).
//
// Booleans are the Symbols True and False so that rules can match
// them.
//
// Every operator is an *Op, which carries a Tag.  An Op's behavior is
// whatever Capability is registered for its Tag.
package grounded

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Comcast/atomspace/atom"
)

var (
	True  = atom.Symbol("True")
	False = atom.Symbol("False")
)

// Bool returns True or False.
func Bool(b bool) atom.Symbol {
	if b {
		return True
	}
	return False
}

// AsBool interprets True or False.
func AsBool(a atom.Atom) (bool, bool) {
	switch {
	case atom.Equal(a, True):
		return true, true
	case atom.Equal(a, False):
		return false, true
	}
	return false, false
}

// Int is an integer.
type Int int64

func (n Int) Equal(v atom.Value) bool {
	m, is := v.(Int)
	return is && n == m
}

func (n Int) String() string {
	return strconv.FormatInt(int64(n), 10)
}

func (n Int) Encode() (string, interface{}, error) {
	return "", int64(n), nil
}

// Float is a floating-point number.
type Float float64

func (f Float) Equal(v atom.Value) bool {
	g, is := v.(Float)
	return is && f == g
}

func (f Float) String() string {
	s := strconv.FormatFloat(float64(f), 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		// Distinguish 2.0 from 2.
		s += ".0"
	}
	return s
}

// Encode uses a tagged form for integral Floats so that they don't
// come back as Ints.
func (f Float) Encode() (string, interface{}, error) {
	if f == Float(math.Trunc(float64(f))) {
		return "float", float64(f), nil
	}
	return "", float64(f), nil
}

// String is a string.
//
// Its textual form is quoted so that it's distinguishable from a
// Symbol.
type String string

func (s String) Equal(v atom.Value) bool {
	t, is := v.(String)
	return is && s == t
}

func (s String) String() string {
	return strconv.Quote(string(s))
}

func (s String) Encode() (string, interface{}, error) {
	return "str", string(s), nil
}

// I makes a Grounded Int.
func I(n int64) atom.Grounded {
	return atom.G(Int(n))
}

// F makes a Grounded Float.
func F(f float64) atom.Grounded {
	return atom.G(Float(f))
}

// Str makes a Grounded String.
func Str(s string) atom.Grounded {
	return atom.G(String(s))
}

// Number makes an Int or a Float from a number that a JSON or YAML
// decoder produced.
func Number(x interface{}) (atom.Atom, error) {
	switch vv := x.(type) {
	case int:
		return I(int64(vv)), nil
	case int64:
		return I(vv), nil
	case float64:
		if vv == math.Trunc(vv) && math.Abs(vv) < 1<<53 {
			return I(int64(vv)), nil
		}
		return F(vv), nil
	case json.Number:
		if n, err := vv.Int64(); err == nil {
			return I(n), nil
		}
		f, err := vv.Float64()
		if err != nil {
			return nil, err
		}
		return F(f), nil
	}
	return nil, fmt.Errorf("%#v (%T) isn't a number", x, x)
}

func decodeString(x interface{}) (atom.Value, error) {
	s, is := x.(string)
	if !is {
		return nil, &atom.BadForm{X: x}
	}
	return String(s), nil
}

func decodeFloat(x interface{}) (atom.Value, error) {
	switch vv := x.(type) {
	case float64:
		return Float(vv), nil
	case int:
		return Float(vv), nil
	case int64:
		return Float(vv), nil
	case json.Number:
		f, err := vv.Float64()
		if err != nil {
			return nil, err
		}
		return Float(f), nil
	}
	return nil, &atom.BadForm{X: x}
}
