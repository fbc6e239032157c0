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

// Package expect is a tool for testing programs.
//
// You construct a Session, which has a Program, inputs, and expected
// outputs.  Then run the session to see if the expected outputs
// actually appeared.
//
// An expected output is an atom pattern (in generic form) that must
// match some result.  An output can instead look at the atoms added
// to a named space.
//
// This package also has support for delays and timeouts, so timers
// can be tested.
//
// See ../../cmd/atoms for command-line use.
package expect

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Comcast/atomspace/atom"
	"github.com/Comcast/atomspace/grounded"
	"github.com/Comcast/atomspace/load"
	"github.com/Comcast/atomspace/match"
	"github.com/Comcast/atomspace/sio"
	. "github.com/Comcast/atomspace/util/testutil"
)

var (
	// NoProgram is returned by Run when the Session has no
	// Program.
	NoProgram = errors.New("no program")

	// Timeout is returned by Run when an IO's outputs didn't
	// appear in time.
	Timeout = errors.New("timeout")

	// Stopped is returned by Run when the session's loop halted
	// before an IO was done.
	Stopped = errors.New("session stopped")
)

// Output is a specification for an atom that's expected.
type Output struct {
	// Doc is an opaque documentation string.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// Pattern must be matched by a result.
	Pattern interface{} `json:"pattern,omitempty" yaml:"pattern,omitempty"`

	// Space, if not empty, means that Pattern must match an atom
	// added to this space rather than a result.
	Space string `json:"space,omitempty" yaml:"space,omitempty"`

	// Bindingss, which is the result of a match, is written
	// during processing.  Just for diagnostics.
	Bindingss []match.Bindings `json:"-" yaml:"-"`

	// Inverted means that matching output isn't desired!
	Inverted bool `json:"inverted,omitempty" yaml:"inverted,omitempty"`
}

// IO is a package of input messages and required output
// specifications.
type IO struct {
	// Doc is an opaque documentation string.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// WaitBefore is the time to wait before sending the first message.
	WaitBefore time.Duration `json:"waitBefore,omitempty" yaml:"waitBefore,omitempty"`

	// WaitBetween is the time to wait between sending messages.
	WaitBetween time.Duration `json:"waitBetween,omitempty" yaml:"waitBetween,omitempty"`

	// Inputs are the messages to send.  See sio.ParseInput.
	Inputs []interface{} `json:"inputs,omitempty" yaml:"inputs,omitempty"`

	// WaitAfter is the time to wait after sending the last
	// message.
	WaitAfter time.Duration `json:"waitAfter,omitempty" yaml:"waitAfter,omitempty"`

	// OutputSet is the set (not a list) of outputs to verify.
	OutputSet []Output `json:"outputSet,omitempty" yaml:"outputSet,omitempty"`

	// Timeout is the optional timeout for this set.
	// Session.DefaultTimeout is the default value.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Session is mostly a sequence of IOs.
type Session struct {
	// Doc is an opaque documentation string.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// Program is the program under test.
	Program *load.Program `json:"program" yaml:"program"`

	// IOs is sequence of IOs that this session will run.
	IOs []IO `json:"ios" yaml:"ios"`

	// DefaultTimeout is the default timeout for each IO.
	DefaultTimeout time.Duration `json:"defaultTimeout,omitempty" yaml:"defaultTimeout,omitempty"`

	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// couplings connects a sio.Session to Run.
type couplings struct {
	in   chan interface{}
	out  chan *sio.Result
	done chan bool
}

func (c *couplings) Start(ctx context.Context) error {
	return nil
}

func (c *couplings) IO(ctx context.Context) (chan interface{}, chan *sio.Result, chan bool, error) {
	return c.in, c.out, c.done, nil
}

func (c *couplings) Read(ctx context.Context) (map[string][]interface{}, error) {
	return nil, nil
}

func (c *couplings) Stop(ctx context.Context) error {
	return nil
}

func (s *Session) logf(format string, args ...interface{}) {
	if s.Verbose {
		log.Printf("expect "+format, args...)
	}
}

func (s *Session) pause(what string, d time.Duration) {
	if 0 < d {
		s.logf("%s %v", what, d)
		time.Sleep(d)
	}
}

// Run builds the Program and then processes all the IOs in the
// Session in order.
//
// Each IO's inputs are sent to a sio.Session, and each result is
// checked against the IO's OutputSet.  An IO is done when every
// output that isn't Inverted has matched.
func (s *Session) Run(ctx context.Context) error {
	if s.Program == nil {
		return NoProgram
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	env, err := grounded.NewEnv(nil)
	if err != nil {
		return err
	}
	inst, err := s.Program.Build(ctx, env)
	if err != nil {
		return err
	}

	c := &couplings{
		in:   make(chan interface{}),
		out:  make(chan *sio.Result, 8),
		done: make(chan bool),
	}

	conf := &sio.SessionConf{
		Id:         s.Program.Name,
		Target:     s.Program.Target,
		Background: s.Program.Background,
		Feedback:   s.Program.Feedback,
	}
	sess, err := sio.NewSession(ctx, conf, env, inst.Codec, c)
	if err != nil {
		return err
	}
	sess.Verbose = s.Verbose

	go func() {
		if err := sess.Loop(ctx); err != nil {
			log.Printf("expect session loop error %s", err)
		}
	}()

	for i := range s.IOs {
		if err := s.runIO(ctx, inst.Codec, c, &s.IOs[i]); err != nil {
			return fmt.Errorf("io %d: %w", i, err)
		}
	}

	return nil
}

func (s *Session) runIO(ctx context.Context, cod *atom.Codec, c *couplings, iop *IO) error {

	if iop.Timeout == 0 {
		iop.Timeout = s.DefaultTimeout
	}

	patterns := make([]atom.Atom, len(iop.OutputSet))
	need := 0
	for i, o := range iop.OutputSet {
		p, err := cod.Decode(o.Pattern)
		if err != nil {
			return fmt.Errorf("output %d pattern: %w", i, err)
		}
		patterns[i] = p
		if !o.Inverted {
			need++
		}
	}

	var (
		errs = make(chan error, 2)
		sent = make(chan bool)
	)

	// Send messages.
	go func() {
		defer close(sent)
		s.pause("waitBefore", iop.WaitBefore)
		for i, input := range iop.Inputs {
			if 0 < i {
				s.pause("waitBetween", iop.WaitBetween)
			}
			s.logf("in %s", JS(input))
			select {
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			case c.in <- input:
			}
		}
		s.pause("waitAfter", iop.WaitAfter)
	}()

	var timeout <-chan time.Time
	if 0 < iop.Timeout {
		timer := time.NewTimer(iop.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	check := func(r *sio.Result) error {
		for i := range iop.OutputSet {
			o := &iop.OutputSet[i]
			if o.Bindingss != nil {
				continue
			}
			xs := r.Results
			if o.Space != "" {
				xs = r.Changed[o.Space]
			}
			for _, x := range xs {
				a, err := cod.Decode(x)
				if err != nil {
					return err
				}
				bs, ok := match.Match(patterns[i], a, match.NewBindings())
				if !ok {
					continue
				}
				o.Bindingss = append(o.Bindingss, bs)
				if o.Inverted {
					return fmt.Errorf("undesired output %s", a)
				}
				need--
				break
			}
		}
		return nil
	}

	for 0 < need || sent != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout:
			return Timeout
		case err := <-errs:
			return err
		case <-sent:
			sent = nil
		case r := <-c.out:
			if r == nil {
				return Stopped
			}
			s.logf("out %s", JS(r.Results))
			if err := check(r); err != nil {
				return err
			}
		}
	}

	return nil
}
