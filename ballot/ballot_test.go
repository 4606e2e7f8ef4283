package ballot

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/takakv/e2easy/group"
	"github.com/takakv/e2easy/pedersen"
)

func TestVoteScalarRoundTrip(t *testing.T) {
	for c := 0; c < 256; c++ {
		for ch := 0; ch < 256; ch++ {
			v := Vote{Contest: uint8(c), Choice: uint8(ch)}
			require.Equal(t, v, VoteFromScalar(v.Scalar()))
		}
	}
}

func TestVoteEncoding(t *testing.T) {
	v := Vote{Contest: 1, Choice: 3}
	require.Equal(t, []byte{1, 3}, v.Bytes())
	require.Equal(t, int64(259), v.Scalar().Int64())

	got, err := VoteFromBytes([]byte{9, 9, 1, 3})
	require.NoError(t, err)
	require.Equal(t, v, got)

	_, err = VoteFromBytes([]byte{1})
	require.Error(t, err)

	require.Equal(t, Vote{}, VoteFromScalar(big.NewInt(0)))
	require.Equal(t, "(1,3)", v.String())
}

func TestTrackingCodeJSON(t *testing.T) {
	tc := TrackingCode{0xab, 0x01}
	b, err := tc.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, `"AB01"`, string(b))

	var back TrackingCode
	require.NoError(t, back.UnmarshalJSON(b))
	require.True(t, tc.Equal(back))

	var none TrackingCode
	b, err = none.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, "null", string(b))

	parsed, err := ParseTrackingCode(" ab01\n")
	require.NoError(t, err)
	require.True(t, tc.Equal(parsed))
}

type chainFixture struct {
	g   group.Group
	ped *pedersen.Pedersen
	log *AuditLog
}

func newChain(t *testing.T, ballots int) *chainFixture {
	g := group.P256()
	h, err := g.Element().MapToGroup("ballot-test/h")
	require.NoError(t, err)
	f := &chainFixture{g: g, ped: pedersen.New(g, h), log: NewAuditLog(GenesisCode("election-1"))}

	for i := 0; i < ballots; i++ {
		votes := []group.Element{
			f.ped.Commit(Vote{0, uint8(i)}.Scalar(), group.RandomScalar(g)),
			f.ped.Commit(Vote{1, uint8(i)}.Scalar(), group.RandomScalar(g)),
		}
		ts := fmt.Sprintf("2024-01-01T00:00:%02dZ", i)
		tc := NextTrackingCode(f.log.Last(), ts, votes)
		f.log.Append(CommittedBallot{TrackingCode: tc, CommittedVotes: votes, Timestamp: ts})
	}
	require.NoError(t, f.log.SetHead(CloseCode(f.log.Last())))
	return f
}

func TestReplayChain(t *testing.T) {
	f := newChain(t, 3)
	require.NoError(t, ReplayChain(f.log))
	require.Len(t, f.log.Votes(), 6)
	require.ErrorIs(t, f.log.SetHead(TrackingCode{1}), ErrHeadSet)
}

func TestReplayChainTampering(t *testing.T) {
	cases := map[string]func(l *AuditLog){
		"timestamp": func(l *AuditLog) { l.Entries[1].Timestamp = "2030-01-01T00:00:00Z" },
		"commitment": func(l *AuditLog) {
			g := group.P256()
			l.Entries[0].CommittedVotes[0] = g.Element().Add(l.Entries[0].CommittedVotes[0], g.Generator())
		},
		"drop entry":    func(l *AuditLog) { l.Entries = append(l.Entries[:1], l.Entries[2:]...) },
		"swap entries":  func(l *AuditLog) { l.Entries[0], l.Entries[1] = l.Entries[1], l.Entries[0] },
		"tail":          func(l *AuditLog) { l.Tail = GenesisCode("other-election") },
		"head":          func(l *AuditLog) { l.Head = CloseCode(l.Tail) },
		"tracking code": func(l *AuditLog) { l.Entries[2].TrackingCode = TrackingCode{0} },
		"reorder votes": func(l *AuditLog) { v := l.Entries[0].CommittedVotes; v[0], v[1] = v[1], v[0] },
	}
	for name, tamper := range cases {
		tamper := tamper
		t.Run(name, func(t *testing.T) {
			f := newChain(t, 3)
			tamper(f.log)
			require.ErrorIs(t, ReplayChain(f.log), ErrChainBroken)
		})
	}

	f := newChain(t, 1)
	f.log.Head = nil
	require.ErrorIs(t, ReplayChain(f.log), ErrHeadMissing)
}

func TestChainDomainSeparation(t *testing.T) {
	tail := GenesisCode("e")
	require.Len(t, tail, 32)
	require.False(t, CloseCode(tail).Equal(NextTrackingCode(tail, "CLOSE", nil)))
	require.False(t, GenesisCode("a").Equal(GenesisCode("b")))
}

func TestArtifactsJSON(t *testing.T) {
	f := newChain(t, 2)
	g := f.g

	b, err := f.log.MarshalJSON()
	require.NoError(t, err)
	log, err := AuditLogFromJSON(b, g)
	require.NoError(t, err)
	require.NoError(t, ReplayChain(log))
	again, err := log.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, b, again)

	open := NewAuditLog(GenesisCode("x"))
	b, err = open.MarshalJSON()
	require.NoError(t, err)
	require.Contains(t, string(b), `"head":null`)

	shuffled := &ShuffledLog{Entries: f.log.Votes()}
	b, err = shuffled.MarshalJSON()
	require.NoError(t, err)
	s2, err := ShuffledLogFromJSON(b, g)
	require.NoError(t, err)
	require.Len(t, s2.Entries, 4)
	for i := range s2.Entries {
		require.True(t, s2.Entries[i].IsEqual(shuffled.Entries[i]))
	}

	revealed := Decode([]*big.Int{Vote{0, 1}.Scalar(), Vote{1, 2}.Scalar()})
	b, err = revealed.MarshalJSON()
	require.NoError(t, err)
	require.JSONEq(t, `{"entries":[{"contest":0,"choice":1},{"contest":1,"choice":2}]}`, string(b))
	r2, err := RevealedVotesFromJSON(b)
	require.NoError(t, err)
	require.Equal(t, revealed, r2)

	_, err = ShuffledLogFromJSON([]byte(`{"entries":["00ff"]}`), g)
	require.Error(t, err)
}

func TestArtifactNames(t *testing.T) {
	names := map[string]bool{}
	for _, a := range []Artifact{&AuditLog{}, &ShuffledLog{}, &RevealedVotes{}, &ProofBundle{}} {
		names[a.Name()] = true
	}
	require.Len(t, names, 4)
}
