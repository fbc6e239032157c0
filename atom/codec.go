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

package atom

import (
	"encoding/json"
	"fmt"
	"strings"
)

// The generic form of an atom is what you get from parsing JSON or
// YAML into an interface{}:
//
//   "foo"                Symbol foo
//   "$x"                 Variable x
//   {"sym":"$x"}         Symbol $x
//   ["+", 1, "$x"]       Expr
//   {"str":"hello"}      Grounded, decoded by the "str" Decoder
//
// Numbers are handed to Codec.Number.

// SymbolKey is the property used for Symbols whose names would
// otherwise look like Variables.
const SymbolKey = "sym"

// Decoder makes a Value from the payload of a grounded form.
type Decoder func(payload interface{}) (Value, error)

// Encoder is implemented by Values that have a generic form.
//
// Encode returns the type name (which should have a corresponding
// Decoder) and the payload.
type Encoder interface {
	Encode() (string, interface{}, error)
}

// Codec translates between Atoms and their generic forms.
type Codec struct {
	// Decoders maps grounded type names to Decoders.
	Decoders map[string]Decoder

	// Number, if not nil, makes an Atom from a number.
	Number func(x interface{}) (Atom, error)

	// Tokens, if not nil, maps symbol names to the Atoms that
	// should replace them.
	Tokens map[string]Atom
}

// NewCodec makes a Codec with no Decoders.
func NewCodec() *Codec {
	return &Codec{
		Decoders: make(map[string]Decoder),
	}
}

// Copy makes a shallow copy with its own maps.
func (c *Codec) Copy() *Codec {
	acc := &Codec{
		Decoders: make(map[string]Decoder, len(c.Decoders)),
		Number:   c.Number,
	}
	for k, v := range c.Decoders {
		acc.Decoders[k] = v
	}
	if c.Tokens != nil {
		acc.Tokens = make(map[string]Atom, len(c.Tokens))
		for k, v := range c.Tokens {
			acc.Tokens[k] = v
		}
	}
	return acc
}

// Register adds a Decoder.
func (c *Codec) Register(typ string, d Decoder) {
	if c.Decoders == nil {
		c.Decoders = make(map[string]Decoder)
	}
	c.Decoders[typ] = d
}

// Decode makes an Atom from a generic form.
func (c *Codec) Decode(x interface{}) (Atom, error) {
	switch vv := x.(type) {
	case string:
		if strings.HasPrefix(vv, VariableSigil) && 1 < len(vv) {
			return Variable(vv[len(VariableSigil):]), nil
		}
		if a, have := c.Tokens[vv]; have {
			return a, nil
		}
		return Symbol(vv), nil
	case []interface{}:
		acc := make(Expr, 0, len(vv))
		for _, y := range vv {
			a, err := c.Decode(y)
			if err != nil {
				return nil, err
			}
			acc = append(acc, a)
		}
		return acc, nil
	case map[string]interface{}:
		return c.decodeMap(vv)
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(vv))
		for k, v := range vv {
			s, is := k.(string)
			if !is {
				return nil, &BadForm{x}
			}
			m[s] = v
		}
		return c.decodeMap(m)
	case int, int64, float64, json.Number:
		if c.Number == nil {
			return nil, &BadForm{x}
		}
		return c.Number(vv)
	case Atom:
		return vv, nil
	}
	return nil, &BadForm{x}
}

func (c *Codec) decodeMap(m map[string]interface{}) (Atom, error) {
	if len(m) != 1 {
		return nil, &BadForm{m}
	}
	for typ, payload := range m {
		if typ == SymbolKey {
			s, is := payload.(string)
			if !is {
				return nil, &BadForm{m}
			}
			return Symbol(s), nil
		}
		d, have := c.Decoders[typ]
		if !have {
			return nil, &UnknownGroundedType{typ}
		}
		v, err := d(payload)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", typ, err)
		}
		return Grounded{Value: v}, nil
	}
	return nil, &BadForm{m} // Not reached.
}

// DecodeAll decodes each element of a list.
func (c *Codec) DecodeAll(xs []interface{}) ([]Atom, error) {
	acc := make([]Atom, 0, len(xs))
	for _, x := range xs {
		a, err := c.Decode(x)
		if err != nil {
			return nil, err
		}
		acc = append(acc, a)
	}
	return acc, nil
}

// Encode makes the generic form of an Atom.
//
// A Grounded atom that appears in Tokens encodes as its token name.
// Otherwise a Grounded value that doesn't implement Encoder results
// in NotEncodable.
func (c *Codec) Encode(a Atom) (interface{}, error) {
	switch vv := a.(type) {
	case Symbol:
		s := string(vv)
		if strings.HasPrefix(s, VariableSigil) {
			return map[string]interface{}{SymbolKey: s}, nil
		}
		return s, nil
	case Variable:
		return vv.String(), nil
	case Expr:
		acc := make([]interface{}, 0, len(vv))
		for _, x := range vv {
			y, err := c.Encode(x)
			if err != nil {
				return nil, err
			}
			acc = append(acc, y)
		}
		return acc, nil
	case Grounded:
		if name, have := c.tokenName(vv); have {
			return name, nil
		}
		e, is := vv.Value.(Encoder)
		if !is {
			return nil, NotEncodable
		}
		typ, payload, err := e.Encode()
		if err != nil {
			return nil, err
		}
		if typ == "" {
			// Numbers and the like encode as themselves.
			return payload, nil
		}
		return map[string]interface{}{typ: payload}, nil
	}
	return nil, &BadForm{a}
}

func (c *Codec) tokenName(g Grounded) (string, bool) {
	for name, t := range c.Tokens {
		if Equal(t, g) {
			return name, true
		}
	}
	return "", false
}

// EncodeAll encodes each Atom.
func (c *Codec) EncodeAll(xs []Atom) ([]interface{}, error) {
	acc := make([]interface{}, 0, len(xs))
	for _, x := range xs {
		y, err := c.Encode(x)
		if err != nil {
			return nil, err
		}
		acc = append(acc, y)
	}
	return acc, nil
}

// MarshalAtom renders the Atom as JSON.
func (c *Codec) MarshalAtom(a Atom) ([]byte, error) {
	x, err := c.Encode(a)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&x)
}

// UnmarshalAtom parses JSON into an Atom.
//
// Numbers are preserved as json.Numbers so that Codec.Number can
// tell integers from floats.
func (c *Codec) UnmarshalAtom(js []byte) (Atom, error) {
	d := json.NewDecoder(strings.NewReader(string(js)))
	d.UseNumber()
	var x interface{}
	if err := d.Decode(&x); err != nil {
		return nil, err
	}
	return c.Decode(x)
}
