package match

// Fuzz patterns and candidates.  Match and then verify the results.

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/Comcast/atomspace/atom"
)

// Fuzz has parameters used to generate random patterns and candidates.
type Fuzz struct {
	ExprWidth   int
	Alphabet    string
	VarAlphabet string
	VarWidth    int
	SymbolWidth int
	MaxNumber   int

	Symbols  float64
	Vars     float64
	Numbers  float64
	Exprs    float64
	Empties  float64
	Grounded float64

	// generated counts the number of atoms generated.
	generated int64
}

// NoVars sets Vars to zero so that no variables will be generated.
func (f *Fuzz) NoVars() {
	f.Vars = 0
}

// NewFuzz returns a reasonable, general-purpose Fuzz.
func NewFuzz() *Fuzz {
	return &Fuzz{
		ExprWidth:   4,
		Alphabet:    "abc",
		VarAlphabet: "XYZ",
		VarWidth:    2,
		SymbolWidth: 2,
		MaxNumber:   3,

		Symbols:  4,
		Vars:     2,
		Numbers:  1,
		Exprs:    4,
		Empties:  0.2,
		Grounded: 1,
	}
}

// Gen generates a random atom.
//
// If Vars is zero, then the generated atom will be ground.
func (f *Fuzz) Gen(r *rand.Rand, d int) atom.Atom {
	f.generated++

	m := f.Symbols + f.Vars + f.Grounded + f.Empties
	if 0 < d {
		m += f.Exprs
	}

	t := r.Float64() * m
	if t < f.Symbols {
		return atom.Symbol(f.genString(r, f.Alphabet, f.SymbolWidth))
	} else if t < f.Symbols+f.Vars {
		return atom.Variable(f.genString(r, f.VarAlphabet, f.VarWidth))
	} else if t < f.Symbols+f.Vars+f.Grounded {
		return atom.G(num(r.Intn(f.MaxNumber)))
	} else if t < f.Symbols+f.Vars+f.Grounded+f.Empties {
		return atom.E()
	} else {
		return f.genExpr(r, d-1)
	}
}

func (f *Fuzz) genString(r *rand.Rand, alphabet string, width int) string {
	n := r.Intn(width) + 1
	s := make([]byte, n)
	for i := range s {
		s[i] = alphabet[r.Intn(len(alphabet))]
	}
	return string(s)
}

func (f *Fuzz) genExpr(r *rand.Rand, d int) atom.Atom {
	xs := make(atom.Expr, r.Intn(f.ExprWidth)+1)
	for i := range xs {
		xs[i] = f.Gen(r, d)
	}
	return xs
}

// TestMatchFuzz matches a bunch of patterns against a bunch of
// candidates.
//
// Every successful match must reproduce the candidate when the
// pattern is instantiated with the bindings.  A pattern without
// variables must match exactly the candidates that equal it.
func TestMatchFuzz(t *testing.T) {
	var (
		pats        = 500
		candsPerPat = 500

		d = 3
		r = rand.New(rand.NewSource(42))
		p = NewFuzz()
		c = NewFuzz()

		matched   = 0
		attempted = 0
		ground    = 0
	)
	c.NoVars()

	then := time.Now()
	for i := 0; i < pats; i++ {
		pat := p.Gen(r, d)
		isGround := atom.IsGround(pat)
		cands := make([]atom.Atom, 0, candsPerPat+1)
		for j := 0; j < candsPerPat; j++ {
			cands = append(cands, c.Gen(r, d))
		}
		if isGround {
			// Make sure that there's at least one
			// candidate that should match.
			cands = append(cands, pat)
		}
		for _, cand := range cands {
			bs, ok := Match(pat, cand, nil)
			attempted++
			if isGround {
				ground++
				if ok != atom.Equal(pat, cand) {
					t.Fatalf("ground %s vs %s: %v", pat, cand, ok)
				}
			}
			if !ok {
				continue
			}
			matched++
			if got := Instantiate(pat, bs); !atom.Equal(got, cand) {
				t.Fatalf("%s with %s gave %s, not %s", pat, bs, got, cand)
			}
		}
	}
	elapsed := time.Now().Sub(then)

	fmt.Printf(`fuzzed      %d
matched     %f%%
ground      %d
elapsed     %fms
generated   %d
`,
		attempted,
		100*float64(matched)/float64(attempted),
		ground,
		elapsed.Seconds()*1000,
		p.generated+c.generated)
}
