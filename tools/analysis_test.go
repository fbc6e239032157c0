package tools

import (
	"testing"

	"github.com/Comcast/atomspace/grounded"
	"github.com/Comcast/atomspace/space"
	. "github.com/Comcast/atomspace/util/testutil"
)

var factorial = `[
  ["=",["if","True","$then","$else"],"$then"],
  ["=",["if","False","$then","$else"],"$else"],
  ["=",["fact","$n"],["if",["==","$n",0],1,["*","$n",["fact",["-","$n",1]]]]],
  ["=",["inc","$n"],["S","$n"]],
  ["=",["broken"]],
  ["isa","Fred","frog"]
]`

func rulebase(t *testing.T) *space.Space {
	env, err := grounded.NewEnv(nil)
	if err != nil {
		t.Fatal(err)
	}
	return space.New(Atoms(env.Codec(), factorial)...)
}

func TestAnalysis(t *testing.T) {
	a, err := Analyze(rulebase(t))
	if err != nil {
		t.Fatal(err)
	}
	if a.Rules != 4 || a.Facts != 1 {
		t.Fatal(JS(a))
	}
	if js := JS(a.Defined); js != `["fact","if","inc"]` {
		t.Fatal(js)
	}
	if js := JS(a.Malformed); js != `["(= (broken))"]` {
		t.Fatal(js)
	}
	if js := JS(a.Undefined); js != `["S"]` {
		t.Fatal(js)
	}
	if js := JS(a.Grounded); js != `["*","-","=="]` {
		t.Fatal(js)
	}
	if js := JS(a.Deps["fact"]); js != `["*","-","==","fact","if"]` {
		t.Fatal(js)
	}
	if js := JS(a.Deps["if"]); js != `[]` {
		t.Fatal(js)
	}
}
