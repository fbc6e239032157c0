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

package grounded

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/Comcast/atomspace/atom"
	"github.com/Comcast/atomspace/match"
	"github.com/Comcast/atomspace/space"

	"golang.org/x/net/publicsuffix"
)

// CallPrefix starts the token name for a call Op.
const CallPrefix = "call:"

// Method is something a call Op can invoke.  The target is the first
// argument of the call.
type Method func(ctx context.Context, target atom.Atom, args []atom.Atom) ([]atom.Atom, error)

// UnknownMethod occurs when a call names a Method that isn't
// registered.
type UnknownMethod struct {
	Name string
}

func (e *UnknownMethod) Error() string {
	return fmt.Sprintf(`unknown method "%s"`, e.Name)
}

// Env holds what the Ops need from the outside world.
type Env struct {
	sync.RWMutex

	// Spaces resolves space names for match, spaces, and insert.
	Spaces *space.Spaces

	// Matcher is used by match and insert.  If nil,
	// match.DefaultMatcher.
	Matcher *match.Matcher

	// Client does HTTP for fetch.
	Client *http.Client

	// Now is the clock for cron-next.
	Now func() time.Time

	// Debug turns on logging.
	Debug bool

	methods map[string]Method
}

// NewEnv makes an Env with an HTTP client that has a cookie jar.
//
// If the given Spaces is nil, the Env gets an empty one.
func NewEnv(ss *space.Spaces) (*Env, error) {
	if ss == nil {
		ss = space.NewSpaces()
	}
	jar, err := cookiejar.New(&cookiejar.Options{
		PublicSuffixList: publicsuffix.List,
	})
	if err != nil {
		return nil, err
	}
	return &Env{
		Spaces: ss,
		Client: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
		Now:     time.Now,
		methods: make(map[string]Method),
	}, nil
}

func (e *Env) logf(format string, args ...interface{}) {
	if e.Debug {
		log.Printf("grounded.Env."+format, args...)
	}
}

func (e *Env) spaces() *space.Spaces {
	if e == nil {
		return nil
	}
	return e.Spaces
}

func (e *Env) matcher() *match.Matcher {
	if e == nil || e.Matcher == nil {
		return match.DefaultMatcher
	}
	return e.Matcher
}

func (e *Env) client() *http.Client {
	if e == nil || e.Client == nil {
		return http.DefaultClient
	}
	return e.Client
}

func (e *Env) now() time.Time {
	if e == nil || e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// Register adds (or replaces) a Method for call Ops.
//
// Call Ops made before the registration don't see it.
func (e *Env) Register(name string, m Method) {
	e.Lock()
	e.methods[name] = m
	e.Unlock()
	e.logf("Register %s", name)
}

// Op makes an Op (other than a call) that's bound to this Env.
func (e *Env) Op(tag Tag) atom.Grounded {
	return atom.G(&Op{
		Tag: tag,
		env: e,
	})
}

// Call makes a call Op for the named Method, which must be
// registered.
func (e *Env) Call(name string) (atom.Grounded, error) {
	e.RLock()
	m, have := e.methods[name]
	e.RUnlock()
	if !have {
		return atom.Grounded{}, &UnknownMethod{name}
	}
	return atom.G(&Op{
		Tag:    Call,
		Name:   name,
		env:    e,
		method: m,
	}), nil
}

// Tokens returns the token table: each operator by name, each
// registered Method as "call:NAME", and each Space in the Env's
// Spaces by name.
//
// The table is a snapshot.  Spaces and Methods added later aren't in
// it.
func (e *Env) Tokens() map[string]atom.Atom {
	acc := e.Spaces.Tokens()
	for tag, name := range tagNames {
		if tag == Call {
			continue
		}
		acc[name] = e.Op(tag)
	}
	e.RLock()
	names := make([]string, 0, len(e.methods))
	for name := range e.methods {
		names = append(names, name)
	}
	e.RUnlock()
	for _, name := range names {
		if c, err := e.Call(name); err == nil {
			acc[CallPrefix+name] = c
		}
	}
	return acc
}

// Codec returns an atom.Codec that knows numbers, strings, floats,
// operators, and spaces.  Its Tokens are the Env's Tokens.
func (e *Env) Codec() *atom.Codec {
	c := atom.NewCodec()
	c.Number = Number
	c.Tokens = e.Tokens()
	c.Register("str", decodeString)
	c.Register("float", decodeFloat)
	c.Register("space", e.Spaces.Decoder())
	c.Register("op", e.decodeOp)
	return c
}

func (e *Env) decodeOp(x interface{}) (atom.Value, error) {
	s, is := x.(string)
	if !is {
		return nil, &atom.BadForm{X: x}
	}
	if strings.HasPrefix(s, CallPrefix) {
		g, err := e.Call(s[len(CallPrefix):])
		if err != nil {
			return nil, err
		}
		return g.Value, nil
	}
	for tag, name := range tagNames {
		if name == s && tag != Call {
			return &Op{
				Tag: tag,
				env: e,
			}, nil
		}
	}
	return nil, &atom.UnknownGroundedType{Type: "op " + s}
}
