package shuffle

import (
	"math/big"

	"github.com/takakv/e2easy/group"
)

// Verifier checks shuffle proofs against the same per-position generators
// the prover used.
type Verifier struct {
	g     group.Group
	hList []group.Element
	n     int
}

func NewVerifier(g group.Group, hList []group.Element) (*Verifier, error) {
	if len(hList) == 0 {
		return nil, ErrNoGenerators
	}
	return &Verifier{g: g, hList: hList, n: len(hList)}, nil
}

// CheckProof reports whether p proves that shuffled is a re-randomized
// permutation of original. Malformed proofs are rejected up front; for
// well-formed ones every equation is evaluated before the result is
// combined, so the outcome says nothing about which term failed.
func (v *Verifier) CheckProof(p *Proof, original, shuffled []group.Element) bool {
	if p == nil || len(original) != v.n || len(shuffled) != v.n || p.size() != v.n {
		return false
	}
	if !p.wellFormed(v.g) || hasNil(original) || hasNil(shuffled) {
		return false
	}
	g := v.g
	n := v.n

	u := perIndexChallenges(g, original, shuffled, p.CList)

	cBar := group.Sum(g, p.CList)
	cBar.Subtract(cBar, group.Sum(g, v.hList))

	uProd := big.NewInt(1)
	for _, ui := range u {
		uProd = group.ScalarMul(g, uProd, ui)
	}
	cHat := g.Element().Set(p.CHatList[n-1])
	cHat.Subtract(cHat, g.Element().Scale(v.hList[0], uProd))

	cTerms := make([]group.Element, n)
	eTerms := make([]group.Element, n)
	hTerms := make([]group.Element, n)
	sTerms := make([]group.Element, n)
	forEach(n, func(i int) {
		cTerms[i] = g.Element().Scale(p.CList[i], u[i])
		eTerms[i] = g.Element().Scale(original[i], u[i])
		hTerms[i] = g.Element().Scale(v.hList[i], p.SPrime[i])
		sTerms[i] = g.Element().Scale(shuffled[i], p.SPrime[i])
	})
	cTilde := group.Sum(g, cTerms)
	ePrime := group.Sum(g, eTerms)

	c := globalChallenge(g, original, shuffled, p.CList, p.CHatList, p.T0, p.T1, p.T2, p.T3, p.THat)

	t0 := g.Element().BaseScale(p.S0)
	t0.Subtract(t0, g.Element().Scale(cBar, c))

	t1 := g.Element().BaseScale(p.S1)
	t1.Subtract(t1, g.Element().Scale(cHat, c))

	t2 := group.Sum(g, hTerms)
	t2.Add(t2, g.Element().BaseScale(p.S2))
	t2.Subtract(t2, g.Element().Scale(cTilde, c))

	t3 := group.Sum(g, sTerms)
	t3.Subtract(t3, g.Element().BaseScale(p.S3))
	t3.Subtract(t3, g.Element().Scale(ePrime, c))

	hatOK := make([]bool, n)
	forEach(n, func(i int) {
		prev := v.hList[0]
		if i > 0 {
			prev = p.CHatList[i-1]
		}
		th := g.Element().BaseScale(p.SHat[i])
		th.Add(th, g.Element().Scale(prev, p.SPrime[i]))
		th.Subtract(th, g.Element().Scale(p.CHatList[i], c))
		hatOK[i] = th.IsEqual(p.THat[i])
	})

	failed := 0
	for _, ok := range []bool{t0.IsEqual(p.T0), t1.IsEqual(p.T1), t2.IsEqual(p.T2), t3.IsEqual(p.T3)} {
		if !ok {
			failed++
		}
	}
	for _, ok := range hatOK {
		if !ok {
			failed++
		}
	}
	return failed == 0
}

func hasNil(list []group.Element) bool {
	for _, e := range list {
		if e == nil {
			return true
		}
	}
	return false
}
