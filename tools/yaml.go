package tools

import (
	"context"

	"github.com/Comcast/atomspace/atom"
	"github.com/Comcast/atomspace/grounded"
	"github.com/Comcast/atomspace/load"
	"github.com/Comcast/atomspace/space"

	"gopkg.in/yaml.v2"
)

// YAML renders the space's atoms as a YAML list of their generic
// forms.  If the Codec is nil, uses atom.NewCodec(), which can't
// encode grounded atoms by name.
func YAML(s *space.Space, c *atom.Codec) ([]byte, error) {
	if c == nil {
		c = atom.NewCodec()
	}
	xs, err := c.EncodeAll(s.Content())
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(xs)
}

// BuildFile reads a Program and builds it in a fresh Env.
func BuildFile(ctx context.Context, filename string) (*load.Instance, error) {
	p, err := load.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	env, err := grounded.NewEnv(nil)
	if err != nil {
		return nil, err
	}
	return p.Build(ctx, env)
}
