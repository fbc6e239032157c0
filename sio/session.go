/* Copyright 2019 Comcast Cable Communications Management, LLC
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

// Package sio couples a set of spaces and an interpreter to the
// outside world.
//
// A Session receives messages from its Couplings.  Each message adds
// atoms to a space (or manages timers or runs a query), and then the
// Session walks the target against the background.  The Result,
// which includes the normal forms found and the atoms added to each
// space, goes back out through the Couplings.
//
// Messages:
//
//    ["fact", 5]                          add one atom to the target
//    {"add": [ATOM, ...], "to": "kb"}     add atoms to a space
//    {"query": {"space": "kb", "pattern": P, "template": T}}
//    {"timer": {"id": "t0", "in": "2s", "msg": MSG}}
//    {"timer": {"id": "t1", "cron": "0 * * * *", "msg": MSG}}
//    {"cancel": "t0"}
package sio

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/Comcast/atomspace/atom"
	"github.com/Comcast/atomspace/core"
	"github.com/Comcast/atomspace/grounded"
	"github.com/Comcast/atomspace/storage"
)

var (
	// DefaultTarget is the name of the target space.
	DefaultTarget = "target"

	// DefaultBackground is the name of the background space.
	DefaultBackground = "background"

	// BadMessage is returned for a message that isn't any of
	// the known forms.
	BadMessage = errors.New("bad message")
)

// SessionConf provides some basic Session parameters.
type SessionConf struct {
	Id string `json:"id,omitempty" yaml:"id,omitempty"`

	// Target names the space that's walked.
	Target string `json:"target,omitempty" yaml:"target,omitempty"`

	// Background names the space with the rules.
	Background string `json:"background,omitempty" yaml:"background,omitempty"`

	// Ctl bounds each walk.
	Ctl *core.Control `json:"-" yaml:"-"`

	// Feedback requests that results are added to the
	// background.  See core.Interpreter.Feedback.
	Feedback bool `json:"feedback,omitempty" yaml:"feedback,omitempty"`

	// HaltOnInputEOF stops the Loop when the Couplings' input is
	// done.
	HaltOnInputEOF bool `json:"haltOnInputEOF,omitempty" yaml:"haltOnInputEOF,omitempty"`
}

func (c *SessionConf) target() string {
	if c.Target == "" {
		return DefaultTarget
	}
	return c.Target
}

func (c *SessionConf) background() string {
	if c.Background == "" {
		return DefaultBackground
	}
	return c.Background
}

// Input is a parsed message.
type Input struct {
	To     string
	Add    []interface{}
	Query  *Query
	Timer  *TimerSpec
	Cancel string
}

// Query asks for Space.QueryAll.
type Query struct {
	Space    string
	Pattern  interface{}
	Template interface{}
}

// ParseInput interprets a message.
//
// A list is a single atom for the target.  Otherwise the message
// should be a map with one of "add", "query", "timer", or "cancel".
func ParseInput(msg interface{}) (*Input, error) {
	switch vv := msg.(type) {
	case []interface{}:
		return &Input{
			Add: []interface{}{vv},
		}, nil
	case map[string]interface{}:
		in := &Input{}
		str := func(k string) (string, error) {
			x, have := vv[k]
			if !have {
				return "", nil
			}
			s, is := x.(string)
			if !is {
				return "", fmt.Errorf("%w: %s isn't a string", BadMessage, k)
			}
			return s, nil
		}

		var err error
		if in.To, err = str("to"); err != nil {
			return nil, err
		}
		if in.Cancel, err = str("cancel"); err != nil {
			return nil, err
		}

		if x, have := vv["add"]; have {
			xs, is := x.([]interface{})
			if !is {
				return nil, fmt.Errorf("%w: add isn't a list", BadMessage)
			}
			in.Add = xs
		}

		if x, have := vv["query"]; have {
			m, is := x.(map[string]interface{})
			if !is {
				return nil, fmt.Errorf("%w: query isn't a map", BadMessage)
			}
			q := &Query{
				Pattern:  m["pattern"],
				Template: m["template"],
			}
			q.Space, _ = m["space"].(string)
			if q.Pattern == nil || q.Template == nil {
				return nil, fmt.Errorf("%w: query needs a pattern and a template", BadMessage)
			}
			in.Query = q
		}

		if x, have := vv["timer"]; have {
			m, is := x.(map[string]interface{})
			if !is {
				return nil, fmt.Errorf("%w: timer isn't a map", BadMessage)
			}
			t := &TimerSpec{
				Msg: m["msg"],
			}
			t.Id, _ = m["id"].(string)
			t.In, _ = m["in"].(string)
			t.Cron, _ = m["cron"].(string)
			if t.Id == "" {
				t.Id = string(core.Gensym(16))
			}
			in.Timer = t
		}

		if in.Add == nil && in.Query == nil && in.Timer == nil && in.Cancel == "" {
			return nil, BadMessage
		}
		return in, nil
	}
	return nil, BadMessage
}

// Result represents all visible output from processing a message.
type Result struct {
	// Results are the normal forms that the walk produced, in
	// generic form.
	Results []interface{} `json:"results,omitempty"`

	// Changed maps the name of a space to the atoms that were
	// added to it.
	Changed map[string][]interface{} `json:"changed,omitempty"`

	// Diag includes internal processing data.
	Diag []*Stroll `json:"diag,omitempty"`
}

// Stroll is internal processing data for the given message.
//
// Result.Diag gathers this information.
type Stroll struct {
	Msg     interface{} `json:"msg"`
	Steps   int         `json:"steps,omitempty"`
	Stopped string      `json:"stopped,omitempty"`
	Failed  []string    `json:"failed,omitempty"`
	Err     string      `json:"err,omitempty"`
}

// Session represents a set of spaces and associated gear to support
// message processing, with I/O coupled via two channels (in and out).
type Session struct {
	Env   *grounded.Env
	Codec *atom.Codec

	Interpreter *core.Interpreter

	// Conf provides some basic Session parameters.
	Conf *SessionConf `json:"conf"`

	// Storage, if not nil, receives the spaces that change.
	Storage storage.Storage

	// Verbose turns on logging.
	Verbose bool

	// state persists across messages, so each target atom is
	// seeded once.
	state *core.State

	timers *Timers

	// in receives all in-bound messages.
	in chan interface{}

	// out receives all out-bound messages.
	out chan *Result

	// done is closed by Couplings when its input is closed.
	done chan bool

	sync.Mutex
}

// NewSession makes a Session with the given configuration and
// couplings.
//
// The coupling's IO() method is called to obtain the session's in/out
// channels.  If the Codec is nil, the Env's Codec is used.
func NewSession(ctx context.Context, conf *SessionConf, env *grounded.Env, c *atom.Codec, couplings Couplings) (*Session, error) {
	in, out, done, err := couplings.IO(ctx)
	if err != nil {
		return nil, err
	}
	if conf == nil {
		conf = &SessionConf{}
	}
	if conf.Ctl == nil {
		conf.Ctl = core.DefaultControl
	}
	if c == nil {
		c = env.Codec()
	}
	s := &Session{
		Env:         env,
		Codec:       c,
		Interpreter: core.NewInterpreter(),
		Conf:        conf,
		in:          in,
		out:         out,
		done:        done,
	}

	if env.Matcher != nil {
		s.Interpreter.Matcher = env.Matcher
	}

	s.state = core.NewState(env.Spaces.Must(conf.target()))
	env.Spaces.Must(conf.background())

	s.timers = NewTimers(func(ctx context.Context, te *TimerEntry) {
		s.Logf("queuing timed message: %s", JS(te.Msg))
		select {
		case <-ctx.Done():
		case s.in <- te.Msg:
		}
	})
	s.timers.Logf = s.Logf

	return s, nil
}

// Logf logs if s.Verbose.
func (s *Session) Logf(format string, args ...interface{}) {
	if !s.Verbose {
		return
	}
	log.Printf(format, args...)
}

// Timers returns the Session's timers.
func (s *Session) Timers() *Timers {
	return s.timers
}

// Load adds atoms (in generic form) to the named spaces.  Names are
// processed in sorted order.
func (s *Session) Load(ctx context.Context, spaces map[string][]interface{}) error {
	s.Lock()
	defer s.Unlock()

	names := make([]string, 0, len(spaces))
	for name := range spaces {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		xs, err := s.Codec.DecodeAll(spaces[name])
		if err != nil {
			return fmt.Errorf("space %s: %w", name, err)
		}
		sp := s.Env.Spaces.Must(name)
		for _, x := range xs {
			sp.Insert(x)
		}
	}
	return nil
}

func (s *Session) lengths() map[string]int {
	acc := make(map[string]int)
	for _, name := range s.Env.Spaces.Names() {
		sp, err := s.Env.Spaces.Get(name)
		if err != nil {
			continue
		}
		acc[name] = sp.Len()
	}
	return acc
}

// changed computes the atoms added to each space since the given
// lengths were taken.
func (s *Session) changed(before map[string]int) (map[string][]interface{}, []string, error) {
	var (
		acc   = make(map[string][]interface{})
		names = make([]string, 0, 4)
	)
	for _, name := range s.Env.Spaces.Names() {
		sp, err := s.Env.Spaces.Get(name)
		if err != nil {
			return nil, nil, err
		}
		added := sp.From(before[name])
		if len(added) == 0 {
			continue
		}
		xs, err := s.Codec.EncodeAll(added)
		if err != nil {
			return nil, nil, err
		}
		acc[name] = xs
		names = append(names, name)
	}
	return acc, names, nil
}

func (s *Session) encode(xs []atom.Atom) []interface{} {
	acc := make([]interface{}, 0, len(xs))
	for _, x := range xs {
		y, err := s.Codec.Encode(x)
		if err != nil {
			// Give the text form instead.
			y = x.String()
		}
		acc = append(acc, y)
	}
	return acc
}

// ProcessMsg processes the given message and returns the results,
// which can then be processed by the session's Result coupling.
//
// An error is also reported in the Result's Diag.
func (s *Session) ProcessMsg(ctx context.Context, msg interface{}) (*Result, error) {
	s.Logf("ProcessMsg %s", JS(msg))

	s.Lock()
	defer s.Unlock()

	var (
		before = s.lengths()
		stroll = &Stroll{
			Msg: msg,
		}
		r = &Result{
			Diag: []*Stroll{stroll},
		}
	)

	err := s.process(ctx, msg, r, stroll)
	if err != nil {
		stroll.Err = err.Error()
	}

	changed, names, cerr := s.changed(before)
	if cerr != nil {
		return r, cerr
	}
	if 0 < len(changed) {
		r.Changed = changed
	}

	if s.Storage != nil && 0 < len(names) {
		if serr := storage.Save(ctx, s.Storage, s.Env.Spaces, names...); serr != nil && err == nil {
			err = serr
			stroll.Err = err.Error()
		}
	}

	return r, err
}

func (s *Session) process(ctx context.Context, msg interface{}, r *Result, stroll *Stroll) error {
	in, err := ParseInput(msg)
	if err != nil {
		return err
	}

	if in.Cancel != "" {
		if err = s.timers.Cancel(ctx, in.Cancel); err != nil {
			return err
		}
	}

	if t := in.Timer; t != nil {
		now := time.Now()
		if s.Env.Now != nil {
			now = s.Env.Now()
		}
		at, err := t.When(now)
		if err != nil {
			return err
		}
		if err = s.timers.Add(ctx, t.Id, t.Msg, at); err != nil {
			return err
		}
	}

	if q := in.Query; q != nil {
		name := q.Space
		if name == "" {
			name = s.Conf.background()
		}
		sp, err := s.Env.Spaces.Get(name)
		if err != nil {
			return err
		}
		pattern, err := s.Codec.Decode(q.Pattern)
		if err != nil {
			return err
		}
		template, err := s.Codec.Decode(q.Template)
		if err != nil {
			return err
		}
		r.Results = append(r.Results, s.encode(sp.QueryAll(pattern, template))...)
	}

	if in.Add != nil {
		xs, err := s.Codec.DecodeAll(in.Add)
		if err != nil {
			return err
		}
		to := in.To
		if to == "" {
			to = s.Conf.target()
		}
		sp := s.Env.Spaces.Must(to)
		for _, x := range xs {
			sp.Insert(x)
		}
		return s.run(ctx, r, stroll)
	}

	return nil
}

// run walks the target against the background.
func (s *Session) run(ctx context.Context, r *Result, stroll *Stroll) error {
	var (
		target     = s.Env.Spaces.Must(s.Conf.target())
		background = s.Env.Spaces.Must(s.Conf.background())
	)

	if s.Conf.Feedback {
		xs, err := s.Interpreter.Feedback(ctx, target, background, s.Conf.Ctl)
		r.Results = append(r.Results, s.encode(xs)...)
		return err
	}

	walked, err := s.Interpreter.Walk(ctx, s.state, background, s.Conf.Ctl)
	if walked != nil {
		stroll.Steps = len(walked.Strides)
		stroll.Stopped = walked.StoppedBecause.String()
		walked.DoFailed(func(f *core.BranchFailed) error {
			stroll.Failed = append(stroll.Failed, f.Error())
			return nil
		})
		r.Results = append(r.Results, s.encode(walked.Results)...)
	}
	return err
}

// Loop starts the input processing loop in the current goroutine.
//
// This loop calls ProcessMsg on each message that arrives via the
// input coupling, and the loop halts when ctx.Done().
//
// When the loop halts, it sends a nil Result to the output coupling
// (unless ctx is done), so the output side can finish too.
func (s *Session) Loop(ctx context.Context) error {
	s.Logf("Session.Loop starting")
LOOP:
	for {
		select {
		case <-s.done:
			if s.Conf.HaltOnInputEOF {
				s.Logf("Session.Loop shutting down (s.done)")
				break LOOP
			}
			// Don't spin on a closed channel.
			s.done = nil
		case <-ctx.Done():
			s.Logf("Session.Loop shutting down (ctx.Done)")
			break LOOP
		case msg := <-s.in:
			if msg == nil {
				break LOOP
			}
			r, err := s.ProcessMsg(ctx, msg)
			if err != nil {
				log.Printf("ERROR Session.Loop ProcessMsg %s", err)
			}
			if r == nil {
				continue
			}
			select {
			case <-ctx.Done():
			case s.out <- r:
			}
		}
	}

	select {
	case <-ctx.Done():
	case s.out <- nil:
	}

	s.Logf("Session.Loop done")
	return nil
}
