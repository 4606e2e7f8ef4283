// Package pedersen implements Pedersen commitments G·r + h·m over any
// prime-order group.
package pedersen

import (
	"errors"
	"math/big"

	"github.com/takakv/e2easy/group"
)

var ErrLengthMismatch = errors.New("pedersen: list lengths differ")

// Pedersen holds the public commitment parameters.
type Pedersen struct {
	g group.Group
	h group.Element // Generator whose logarithm to the base G is not known.
}

func New(g group.Group, h group.Element) *Pedersen {
	return &Pedersen{g: g, h: g.Element().Set(h)}
}

func (p *Pedersen) Group() group.Group {
	return p.g
}

func (p *Pedersen) H() group.Element {
	return p.g.Element().Set(p.h)
}

// Commit returns G·r + h·m.
func (p *Pedersen) Commit(m, r *big.Int) group.Element {
	blind := p.g.Element().BaseScale(r)
	bind := p.g.Element().Scale(p.h, m)
	return blind.Add(blind, bind)
}

func (p *Pedersen) Verify(m, r *big.Int, c group.Element) bool {
	return p.Commit(m, r).IsEqual(c)
}

func (p *Pedersen) CommitList(ms, rs []*big.Int) ([]group.Element, error) {
	if len(ms) != len(rs) {
		return nil, ErrLengthMismatch
	}
	out := make([]group.Element, len(ms))
	for i := range ms {
		out[i] = p.Commit(ms[i], rs[i])
	}
	return out, nil
}

// VerifyList reports whether every commitment opens to its (m, r) pair. It
// stops at the first failure, and lists of different lengths never verify.
func (p *Pedersen) VerifyList(ms, rs []*big.Int, cs []group.Element) bool {
	if len(ms) != len(rs) || len(rs) != len(cs) {
		return false
	}
	for i := range cs {
		if !p.Verify(ms[i], rs[i], cs[i]) {
			return false
		}
	}
	return true
}
