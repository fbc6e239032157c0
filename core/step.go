package core

import (
	"context"
	"errors"

	"github.com/Comcast/atomspace/atom"
	"github.com/Comcast/atomspace/space"
)

var (
	// TracesInitialCap is the initial capacity for Traces buffers.
	TracesInitialCap = 16

	// DefaultControl will be used by Interpreter.Walk if the given
	// control is nil.
	DefaultControl = &Control{
		Limit: 1000,
	}
)

// StopReason represents the possible reasons for a Walk to terminate.
type StopReason int

const (
	Done              StopReason = iota // Reached EOS.
	Limited                             // Too many steps.
	InternalError                       // What else to do?
	BreakpointReached                   // During a Walk.
)

func (r StopReason) String() string {
	switch r {
	case Done:
		return "Done"
	case Limited:
		return "Limited"
	case InternalError:
		return "InternalError"
	case BreakpointReached:
		return "BreakpointReached"
	}
	return "StopReason(?)"
}

func (r StopReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Breakpoint is a *State predicate.
//
// When a Breakpoint returns true for a *State, then processing should
// stop at that point.
type Breakpoint func(context.Context, *State) bool

// Control influences how Walk() operates.
type Control struct {
	// Limit is the maximum number of Steps that a Walk() can take.
	Limit int

	// Rounds is the maximum number of rounds for Feedback.  Zero
	// means DefaultRounds.
	Rounds int

	Breakpoints map[string]Breakpoint
}

func (c *Control) Copy() *Control {
	bs := make(map[string]Breakpoint, len(c.Breakpoints))
	for id, b := range c.Breakpoints {
		bs[id] = b
	}
	return &Control{
		Limit:       c.Limit,
		Rounds:      c.Rounds,
		Breakpoints: bs,
	}
}

// Traces holds trace messages.
type Traces struct {
	Messages []interface{} `json:"messages,omitempty" yaml:",omitempty"`
}

// NewTraces creates an initialized Traces.
//
// The Messages array has TracesInitialCap initial capacity.
func NewTraces() *Traces {
	return &Traces{
		Messages: make([]interface{}, 0, TracesInitialCap),
	}
}

func (ts *Traces) Add(xs ...interface{}) {
	ts.Messages = append(ts.Messages, xs...)
}

// Stride represents a step that Walk has taken or attempted.
type Stride struct {
	// Seeded holds the target atoms that this step added to the
	// worklist.
	Seeded []atom.Atom `json:"seeded,omitempty" yaml:",omitempty"`

	// From is the Branch that was reduced (if any).
	From *Branch `json:"from,omitempty" yaml:",omitempty"`

	// To holds the successor Branches, which are now at the end
	// of the worklist.
	To []*Branch `json:"to,omitempty" yaml:",omitempty"`

	// Result is the Branch's atom if that atom was in normal
	// form.
	Result atom.Atom `json:"result,omitempty" yaml:",omitempty"`

	// Exhausted is true when there was nothing to reduce.
	Exhausted bool `json:"exhausted,omitempty" yaml:",omitempty"`

	// Failed holds grounded executions that failed.  Each failure
	// terminated its Branch.
	Failed []*BranchFailed `json:"failed,omitempty" yaml:",omitempty"`

	Traces *Traces `json:"traces,omitempty" yaml:",omitempty"`
}

func NewStride() *Stride {
	return &Stride{
		Traces: NewTraces(),
	}
}

// Step is the fundamental operation.  It takes the next Branch from
// the worklist and does one reduction.
//
// If the worklist is empty, the State is first seeded with any new
// target atoms.  If there's still nothing to do, the Stride is
// Exhausted.
//
// If the Branch's atom is in normal form, it becomes the Stride's
// Result.  Otherwise each alternative reduction is added to the end of
// the worklist.  A failed grounded execution terminates the Branch
// and is reported in Stride.Failed.
//
// The returned error is either a *MalformedRule from the background,
// in which case the State is unchanged, or ErrTooManyBranches, in
// which case the Branch has been dropped.
func (i *Interpreter) Step(ctx context.Context, st *State, background *space.Space) (*Stride, error) {
	stride := NewStride()

	rules, err := i.rules(background)
	if err != nil {
		return stride, err
	}

	if len(st.pending) == 0 {
		stride.Seeded = st.seed()
	}
	if len(st.pending) == 0 {
		stride.Exhausted = true
		return stride, nil
	}

	b := st.pending[0]
	stride.From = b

	r := &rewriting{
		i:      i,
		ctx:    ctx,
		rules:  rules,
		stride: stride,
		branch: b.Atom,
	}

	alts, reduced := r.rewrite(b.Atom)
	if !reduced {
		i.logf("Step result %s", b.Atom)
		st.pop()
		stride.Result = b.Atom
		return stride, nil
	}

	st.pop()

	if 0 < i.MaxBranches && i.MaxBranches < len(st.pending)+len(alts) {
		// Dropping the Branch means that its grounded
		// executions (if any) won't be repeated.
		return stride, ErrTooManyBranches
	}

	m := i.matcher()
	stride.To = make([]*Branch, 0, len(alts))
	for _, x := range alts {
		a := x.atom
		if 0 < len(x.bs) {
			a = m.Substitute(a, x.bs)
		}
		succ := &Branch{
			Atom:  a,
			Steps: b.Steps + 1,
		}
		stride.To = append(stride.To, succ)
		st.pending = append(st.pending, succ)
	}
	i.logf("Step %s -> %d branches", b.Atom, len(alts))

	return stride, nil
}

// InterpretStep Steps until it gets a result, which it returns.  If
// the State is exhausted, InterpretStep returns EOS.
//
// Each call returns exactly one result or EOS, and the State retains
// any remaining Branches for the next call.
func (i *Interpreter) InterpretStep(ctx context.Context, st *State, background *space.Space) (atom.Atom, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stride, err := i.Step(ctx, st, background)
		if err != nil {
			return nil, err
		}
		if stride.Result != nil {
			return stride.Result, nil
		}
		if stride.Exhausted {
			return EOS, nil
		}
	}
}

// Walked represents a sequence of strides taken by a Walk().
type Walked struct {
	// Strides contains each Stride taken and the last one
	// attempted.
	Strides []*Stride `json:"strides" yaml:",omitempty"`

	// Results gathers the Strides' results in order.
	Results []atom.Atom `json:"results,omitempty" yaml:",omitempty"`

	// StoppedBecause reports the reason why the Walk stopped.
	StoppedBecause StopReason `json:"stoppedBecause,omitempty" yaml:",omitempty"`

	// Error stores an internal error that occured (if any).
	Error error `json:"error,omitempty" yaml:",omitempty"`

	// BreakpointId is the id of the breakpoint, if any, that
	// caused this Walk to stop.
	BreakpointId string `json:"breakpoint,omitempty" yaml:",omitempty"`
}

// DoFailed is a convenience method to iterate over the failed
// branches in the Walked.
func (w *Walked) DoFailed(f func(*BranchFailed) error) error {
	for _, stride := range w.Strides {
		for _, failed := range stride.Failed {
			if err := f(failed); err != nil {
				return err
			}
		}
	}
	return nil
}

func newWalked(siz int) *Walked {
	max := 1024
	if max < siz {
		siz = max
	}
	return &Walked{
		Strides: make([]*Stride, 0, siz),
		Results: make([]atom.Atom, 0, 8),
	}
}

func (w *Walked) add(s *Stride) {
	w.Strides = append(w.Strides, s)
	if s.Result != nil {
		w.Results = append(w.Results, s.Result)
	}
}

// Walk takes as many steps as it can.
//
// A Walk stops when the State is exhausted (Done), when the Control's
// Limit is reached (Limited), or when a Breakpoint fires.  An error
// from Step stops the Walk with InternalError, and the error is also
// returned.  The context is checked before each step.
func (i *Interpreter) Walk(ctx context.Context, st *State, background *space.Space, c *Control) (*Walked, error) {
	if c == nil {
		c = DefaultControl
	}

	walked := newWalked(c.Limit)

	for n := 0; n < c.Limit; n++ {
		if err := ctx.Err(); err != nil {
			walked.StoppedBecause = InternalError
			walked.Error = err
			return walked, err
		}

		for id, breakpoint := range c.Breakpoints {
			if breakpoint(ctx, st) {
				walked.StoppedBecause = BreakpointReached
				walked.BreakpointId = id
				return walked, nil
			}
		}

		stride, err := i.Step(ctx, st, background)
		if stride == nil {
			// We hope we never get here.
			if err == nil {
				err = errors.New("nil stride")
			}
			stride = NewStride()
		}

		walked.add(stride)

		if err != nil {
			walked.StoppedBecause = InternalError
			walked.Error = err
			return walked, err
		}

		if stride.Exhausted {
			walked.StoppedBecause = Done
			return walked, nil
		}
	}

	// We hit the c.Limit.
	walked.StoppedBecause = Limited

	return walked, nil
}

// Drain Walks and returns the results.
//
// It's an error if the Walk doesn't reach EOS.
func (i *Interpreter) Drain(ctx context.Context, st *State, background *space.Space, c *Control) ([]atom.Atom, error) {
	walked, err := i.Walk(ctx, st, background, c)
	if err != nil {
		return walked.Results, err
	}
	if walked.StoppedBecause != Done {
		return walked.Results, &Incomplete{walked.StoppedBecause}
	}
	return walked.Results, nil
}

// Incomplete is returned by Drain when the Walk stopped early.
type Incomplete struct {
	StoppedBecause StopReason
}

func (e *Incomplete) Error() string {
	return "walk stopped: " + e.StoppedBecause.String()
}

// Step calls DefaultInterpreter.Step.
func Step(ctx context.Context, st *State, background *space.Space) (*Stride, error) {
	return DefaultInterpreter.Step(ctx, st, background)
}

// InterpretStep calls DefaultInterpreter.InterpretStep.
func InterpretStep(ctx context.Context, st *State, background *space.Space) (atom.Atom, error) {
	return DefaultInterpreter.InterpretStep(ctx, st, background)
}

// Walk calls DefaultInterpreter.Walk.
func Walk(ctx context.Context, st *State, background *space.Space, c *Control) (*Walked, error) {
	return DefaultInterpreter.Walk(ctx, st, background, c)
}
