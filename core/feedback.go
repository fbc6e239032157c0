package core

import (
	"context"

	"github.com/Comcast/atomspace/atom"
	"github.com/Comcast/atomspace/space"
)

// DefaultRounds bounds Feedback when Control.Rounds is zero.
var DefaultRounds = 100

// Feedback drains the target repeatedly, each time with a new State,
// and then inserts every new result into the background.  Each Drain
// is bounded by the Control's Limit.  A quoted result is unquoted
// first.  A result that's already in the background is not new.
//
// Feedback stops after a round that produces nothing new, and it
// returns the new results in the order they were inserted.  If the
// rounds run out first, the error is an *Incomplete with Limited.
func (i *Interpreter) Feedback(ctx context.Context, target, background *space.Space, c *Control) ([]atom.Atom, error) {
	if c == nil {
		c = DefaultControl
	}
	rounds := c.Rounds
	if rounds <= 0 {
		rounds = DefaultRounds
	}

	m := i.matcher()
	acc := make([]atom.Atom, 0, 8)

	known := func(a atom.Atom) bool {
		for _, x := range background.Content() {
			if atom.Equal(a, x) {
				return true
			}
		}
		return false
	}

	for round := 0; round < rounds; round++ {
		xs, err := i.Drain(ctx, NewState(target), background, c)
		if err != nil {
			return acc, err
		}
		added := 0
		for _, x := range xs {
			x = m.Unquote(x)
			if known(x) {
				continue
			}
			i.logf("Feedback round %d inserting %s", round, x)
			background.Insert(x)
			acc = append(acc, x)
			added++
		}
		if added == 0 {
			return acc, nil
		}
	}

	return acc, &Incomplete{Limited}
}

// Feedback calls DefaultInterpreter.Feedback.
func Feedback(ctx context.Context, target, background *space.Space, c *Control) ([]atom.Atom, error) {
	return DefaultInterpreter.Feedback(ctx, target, background, c)
}
