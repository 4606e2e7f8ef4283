package ballot

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/takakv/e2easy/group"
)

func TestNonces(t *testing.T) {
	g := group.Ristretto255()
	seed := bytes.Repeat([]byte{1}, SeedSize)

	a, err := Nonces(g, seed, 4)
	require.NoError(t, err)
	b, err := Nonces(g, seed, 4)
	require.NoError(t, err)
	require.Equal(t, a, b)

	for i := range a {
		require.Equal(t, -1, a[i].Cmp(g.N()))
		for j := i + 1; j < len(a); j++ {
			require.NotEqual(t, 0, a[i].Cmp(a[j]))
		}
	}

	other, err := Nonces(g, bytes.Repeat([]byte{2}, SeedSize), 1)
	require.NoError(t, err)
	require.NotEqual(t, 0, other[0].Cmp(a[0]))

	_, err = Nonces(g, seed[:8], 1)
	require.Error(t, err)
}

func TestChallengeJSON(t *testing.T) {
	f := newChain(t, 1)
	c := &Challenge{
		PrevTrackingCode: f.log.Tail,
		CommittedVotes:   f.log.Entries[0].CommittedVotes,
		NonceSeed:        bytes.Repeat([]byte{0xab}, SeedSize),
	}
	b, err := c.MarshalJSON()
	require.NoError(t, err)
	require.Contains(t, string(b), `"nonce_seed":"abab`)

	back, err := ChallengeFromJSON(b, f.g)
	require.NoError(t, err)
	require.Equal(t, c.NonceSeed, back.NonceSeed)
	require.True(t, c.PrevTrackingCode.Equal(back.PrevTrackingCode))
	require.Len(t, back.CommittedVotes, 2)
	require.True(t, back.CommittedVotes[1].IsEqual(c.CommittedVotes[1]))
}
