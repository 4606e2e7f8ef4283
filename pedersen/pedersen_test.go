package pedersen

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/takakv/e2easy/group"
)

func newPedersen(t *testing.T, g group.Group) *Pedersen {
	h, err := g.Element().MapToGroup("pedersen-test-h")
	require.NoError(t, err)
	return New(g, h)
}

func TestCommitVerify(t *testing.T) {
	for _, g := range []group.Group{group.P256(), group.Ristretto255(), group.SecP256k1()} {
		g := g
		t.Run(g.Name(), func(t *testing.T) {
			p := newPedersen(t, g)
			for i := 0; i < 16; i++ {
				m := group.RandomScalar(g)
				r := group.RandomScalar(g)
				c := p.Commit(m, r)
				require.True(t, p.Verify(m, r, c))

				require.False(t, p.Verify(group.ScalarAdd(g, m, big.NewInt(1)), r, c))
				require.False(t, p.Verify(m, group.ScalarAdd(g, r, big.NewInt(1)), c))
			}
		})
	}
}

func TestCommitIsHomomorphic(t *testing.T) {
	g := group.P384()
	p := newPedersen(t, g)
	m1, r1 := big.NewInt(3), group.RandomScalar(g)
	m2, r2 := big.NewInt(4), group.RandomScalar(g)

	sum := g.Element().Add(p.Commit(m1, r1), p.Commit(m2, r2))
	require.True(t, p.Verify(big.NewInt(7), group.ScalarAdd(g, r1, r2), sum))
}

func TestVerifyList(t *testing.T) {
	g := group.Ristretto255()
	p := newPedersen(t, g)

	ms := []*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3)}
	rs := []*big.Int{group.RandomScalar(g), group.RandomScalar(g), group.RandomScalar(g)}
	cs, err := p.CommitList(ms, rs)
	require.NoError(t, err)
	require.True(t, p.VerifyList(ms, rs, cs))

	bad := []*big.Int{ms[0], big.NewInt(9), ms[2]}
	require.False(t, p.VerifyList(bad, rs, cs))
	require.False(t, p.VerifyList(ms[:2], rs, cs))
	require.False(t, p.VerifyList(ms, rs, cs[:2]))

	_, err = p.CommitList(ms, rs[:1])
	require.ErrorIs(t, err, ErrLengthMismatch)

	require.True(t, p.VerifyList(nil, nil, nil))
}

func TestHIsCopied(t *testing.T) {
	g := group.P256()
	h, err := g.Element().MapToGroup("h")
	require.NoError(t, err)
	p := New(g, h)
	h.Add(h, g.Generator())
	require.False(t, p.H().IsEqual(h))
}
