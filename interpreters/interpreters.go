// Package interpreters assembles the standard codec, which knows the
// grounded values from package grounded and Scripts from
// interpreters/goja.
package interpreters

import (
	"context"

	"github.com/Comcast/atomspace/atom"
	"github.com/Comcast/atomspace/grounded"
	"github.com/Comcast/atomspace/interpreters/goja"
)

// Standard returns a Codec for the Env that also decodes Scripts,
// along with the Interpreter for those Scripts.
//
// The Codec's Tokens are a snapshot of the Env's Tokens.  Use Define
// to add named Scripts.
func Standard(ctx context.Context, env *grounded.Env) (*atom.Codec, *goja.Interpreter) {
	c := env.Codec()
	i := goja.NewInterpreter(c)
	i.Matcher = env.Matcher
	i.Now = env.Now
	c.Register(goja.TypeName, i.Decoder(ctx))
	return c, i
}

// Define compiles a named Script and adds it to the Codec's Tokens.
func Define(ctx context.Context, c *atom.Codec, i *goja.Interpreter, name string, src interface{}) error {
	s, err := i.NewScript(ctx, name, src)
	if err != nil {
		return err
	}
	if c.Tokens == nil {
		c.Tokens = make(map[string]atom.Atom)
	}
	c.Tokens[name] = atom.G(s)
	return nil
}
