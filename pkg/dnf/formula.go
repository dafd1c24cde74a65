// Package dnf turns pattern embeddings into disjunctive normal form formulas
// over edge variables.
package dnf

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/soundprediction/graphconf/pkg/graph"
)

// Var is a distinct edge variable of a formula
type Var struct {
	Pair graph.Pair
	P    float64
}

// Lit is a literal over a formula variable, by index into Formula.Vars
type Lit struct {
	Var      int
	Positive bool
}

// Prob returns the probability that the literal holds
func (l Lit) Prob(vars []Var) float64 {
	if l.Positive {
		return vars[l.Var].P
	}
	return 1 - vars[l.Var].P
}

// Clause is a conjunction of literals sorted by variable, one per variable
type Clause []Lit

// Satisfied reports whether assignment makes every literal true
func (c Clause) Satisfied(assignment []bool) bool {
	for _, l := range c {
		if assignment[l.Var] != l.Positive {
			return false
		}
	}
	return true
}

// Weight returns the probability that the clause alone holds
func (c Clause) Weight(vars []Var) float64 {
	w := 1.0
	for _, l := range c {
		w *= l.Prob(vars)
	}
	return w
}

// Formula is a disjunction of clauses over a table of distinct variables.
// A formula with no clauses is false.
type Formula struct {
	Vars    []Var
	Clauses []Clause
}

// NumVars returns the number of distinct variables
func (f *Formula) NumVars() int {
	return len(f.Vars)
}

// Len returns the number of clauses
func (f *Formula) Len() int {
	return len(f.Clauses)
}

// Empty reports whether the formula has no clauses
func (f *Formula) Empty() bool {
	return len(f.Clauses) == 0
}

// Satisfied reports whether any clause holds under assignment
func (f *Formula) Satisfied(assignment []bool) bool {
	for _, c := range f.Clauses {
		if c.Satisfied(assignment) {
			return true
		}
	}
	return false
}

// Fingerprint hashes variables and clauses. Equal formulas built from the
// same embeddings in the same order share a fingerprint.
func (f *Formula) Fingerprint() uint64 {
	h := xxhash.New()
	var buf [8]byte
	for _, v := range f.Vars {
		_, _ = h.WriteString(string(v.Pair.U))
		_, _ = h.Write([]byte{0})
		_, _ = h.WriteString(string(v.Pair.V))
		_, _ = h.Write([]byte{0})
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v.P))
		_, _ = h.Write(buf[:])
	}
	for _, c := range f.Clauses {
		_, _ = h.Write([]byte{'|'})
		for _, l := range c {
			n := uint64(l.Var) << 1
			if l.Positive {
				n |= 1
			}
			binary.LittleEndian.PutUint64(buf[:], n)
			_, _ = h.Write(buf[:])
		}
	}
	return h.Sum64()
}

func (f *Formula) String() string {
	if f.Empty() {
		return "false"
	}
	clauses := make([]string, len(f.Clauses))
	for i, c := range f.Clauses {
		lits := make([]string, len(c))
		for j, l := range c {
			lits[j] = f.Vars[l.Var].Pair.String()
			if !l.Positive {
				lits[j] = "!" + lits[j]
			}
		}
		clauses[i] = "(" + strings.Join(lits, " & ") + ")"
	}
	return strings.Join(clauses, " | ")
}

// Summary is a short description for logs
func (f *Formula) Summary() string {
	return fmt.Sprintf("%d clauses over %d variables", f.Len(), f.NumVars())
}
