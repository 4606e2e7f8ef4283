package shuffle

import (
	"math/big"

	"github.com/takakv/e2easy/group"
)

// Proof is the non-interactive transcript of the shuffle argument.
type Proof struct {
	// Commitments of the sigma protocol.
	T0, T1, T2, T3 group.Element
	THat           []group.Element

	// Responses.
	S0, S1, S2, S3 *big.Int
	SHat           []*big.Int
	SPrime         []*big.Int

	CList    []group.Element // Commitment to the permutation.
	CHatList []group.Element // Chain binding the permuted challenges.
}

// size returns n if every list component of p has length n, or -1.
func (p *Proof) size() int {
	n := len(p.CList)
	if len(p.CHatList) != n || len(p.THat) != n || len(p.SHat) != n || len(p.SPrime) != n {
		return -1
	}
	return n
}

// wellFormed reports whether p has no missing component and every
// response is a reduced scalar.
func (p *Proof) wellFormed(g group.Group) bool {
	for _, e := range []group.Element{p.T0, p.T1, p.T2, p.T3} {
		if e == nil {
			return false
		}
	}
	for _, list := range [][]group.Element{p.THat, p.CList, p.CHatList} {
		for _, e := range list {
			if e == nil {
				return false
			}
		}
	}
	reduced := func(s *big.Int) bool {
		return s != nil && s.Sign() >= 0 && s.Cmp(g.N()) < 0
	}
	for _, s := range []*big.Int{p.S0, p.S1, p.S2, p.S3} {
		if !reduced(s) {
			return false
		}
	}
	for _, list := range [][]*big.Int{p.SHat, p.SPrime} {
		for _, s := range list {
			if !reduced(s) {
				return false
			}
		}
	}
	return true
}
