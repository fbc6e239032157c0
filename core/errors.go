package core

// MalformedRule is a user error.  BranchFailed is just a record.
// ErrTooManyBranches reflects a Control that's too tight.

import (
	"errors"

	"github.com/Comcast/atomspace/atom"
)

// MalformedRule occurs when a background fact headed by the rule
// symbol isn't of the form (= pattern body).
type MalformedRule struct {
	Rule atom.Atom
}

func (e *MalformedRule) Error() string {
	return `malformed rule "` + e.Rule.String() + `"`
}

// BranchFailed records a grounded execution that returned an error.
//
// This error only terminates the Branch in which it occurred.  A Step
// doesn't return it.  Instead it's logged and reported in the
// Stride.
type BranchFailed struct {
	Atom atom.Atom
	Err  error
}

func (e *BranchFailed) Error() string {
	return `branch failed at "` + e.Atom.String() + `": ` + e.Err.Error()
}

func (e *BranchFailed) Unwrap() error {
	return e.Err
}

// ErrTooManyBranches occurs when a Step would push the worklist past
// Interpreter.MaxBranches.
var ErrTooManyBranches = errors.New("too many branches")
