package e2easy

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"testing/iotest"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takakv/e2easy/ballot"
	"github.com/takakv/e2easy/config"
	"github.com/takakv/e2easy/log"
	"github.com/takakv/e2easy/notary"
	"github.com/takakv/e2easy/shuffle"
	"github.com/takakv/e2easy/verify"
)

const election = `
group = "%s"
election_id = "0b8d5f52-8a3c-4d8f-9c7e-2f3a1b4c5d6e"
voters = %d

[[contests]]
id = 0
name = "president"
choices = 3

[[contests]]
id = 1
name = "governor"
choices = 3
`

func newParams(t *testing.T, groupName string, voters int) *config.Params {
	e, err := config.Parse(fmt.Sprintf(election, groupName, voters))
	require.NoError(t, err)
	p, err := config.Setup(e)
	require.NoError(t, err)
	return p
}

func newMachine(t *testing.T, p *config.Params) (*Machine, clockwork.FakeClock) {
	signer, err := notary.NewSigner(notary.Ed25519)
	require.NoError(t, err)
	clock := clockwork.NewFakeClockAt(time.Date(2024, 10, 6, 8, 0, 0, 0, time.UTC))
	return New(p, signer, WithClock(clock), WithLogger(log.Nop())), clock
}

func votes(choices ...uint8) []ballot.Vote {
	out := make([]ballot.Vote, len(choices))
	for i, c := range choices {
		out[i] = ballot.Vote{Contest: uint8(i), Choice: c}
	}
	return out
}

func sorted(vs []ballot.Vote) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.String()
	}
	sort.Strings(out)
	return out
}

func TestElection(t *testing.T) {
	p := newParams(t, "P-256", 3)
	m, clock := newMachine(t, p)

	code1, ts1, err := m.Vote(votes(1, 1))
	require.NoError(t, err)
	require.Equal(t, "2024-10-06T08:00:00Z", ts1)
	sig, err := m.Cast()
	require.NoError(t, err)
	require.NoError(t, notary.Verify(notary.Ed25519, m.signer.PublicKey(), code1, sig))

	clock.Advance(time.Minute)
	challenged := votes(2, 2)
	code2, ts2, err := m.Vote(challenged)
	require.NoError(t, err)
	c, err := m.Challenge()
	require.NoError(t, err)
	require.True(t, c.PrevTrackingCode.Equal(code1))
	require.NoError(t, verify.Challenge(p, challenged, ts2, code2, c))
	require.ErrorIs(t, verify.Challenge(p, votes(2, 3), ts2, code2, c), verify.ErrVerification)
	require.True(t, m.LastTrackingCode().Equal(code1))

	clock.Advance(time.Minute)
	code3, _, err := m.Vote(votes(3, 3))
	require.NoError(t, err)
	sig3, err := m.Cast()
	require.NoError(t, err)

	tally, err := m.Tally()
	require.NoError(t, err)

	require.Len(t, tally.AuditLog.Entries, 2)
	require.True(t, tally.AuditLog.Entries[1].TrackingCode.Equal(code3))
	require.NoError(t, ballot.ReplayChain(tally.AuditLog))
	require.Len(t, tally.Revealed.Entries, 4)
	require.Len(t, tally.Shuffled.Entries, 4)

	v, err := shuffle.NewVerifier(p.Group, p.HList[:4])
	require.NoError(t, err)
	require.True(t, v.CheckProof(tally.Proof.Proof, tally.AuditLog.Votes(), tally.Shuffled.Entries))
	require.True(t, p.Pedersen().VerifyList(tally.Proof.MList, tally.Proof.RList, tally.Shuffled.Entries))

	want := []ballot.Vote{{Contest: 0, Choice: 1}, {Contest: 1, Choice: 1}, {Contest: 0, Choice: 3}, {Contest: 1, Choice: 3}}
	require.Equal(t, sorted(want), sorted(tally.Revealed.Entries))

	pub := publish(t, m, tally)
	require.NoError(t, verify.Election(p, pub, verify.WithLogger(log.Nop())))
	require.NoError(t, verify.Receipt(pub, code3, sig3))
	require.ErrorIs(t, verify.Receipt(pub, code2, sig3), verify.ErrVerification)

	_, err = m.Tally()
	require.ErrorIs(t, err, ErrClosed)
	_, _, err = m.Vote(votes(1, 1))
	require.ErrorIs(t, err, ErrProtocolState)
	_, err = m.Cast()
	require.ErrorIs(t, err, ErrClosed)
}

func publish(t *testing.T, m *Machine, tally *Tally) *verify.Publication {
	pub := &verify.Publication{
		AuditLog:   tally.AuditLog,
		Shuffled:   tally.Shuffled,
		Revealed:   tally.Revealed,
		Proof:      tally.Proof,
		Signatures: map[string][]byte{},
	}
	for _, a := range tally.Artifacts() {
		sig, err := m.Sign(a)
		require.NoError(t, err)
		pub.Signatures[a.Name()] = sig
	}
	return pub
}

func TestStateErrors(t *testing.T) {
	m, _ := newMachine(t, newParams(t, "ristretto255", 2))

	_, err := m.Challenge()
	require.ErrorIs(t, err, ErrNoPending)
	require.ErrorIs(t, err, ErrProtocolState)
	require.NotErrorIs(t, err, ErrValidation)

	_, err = m.Cast()
	require.ErrorIs(t, err, ErrProtocolState)

	_, err = m.Tally()
	require.ErrorIs(t, err, ErrNoBallots)
	require.False(t, m.closed)

	// The failed tally left the box open.
	_, _, err = m.Vote(votes(1))
	require.NoError(t, err)
	_, _, err = m.Vote(votes(2))
	require.ErrorIs(t, err, ErrBallotPending)
	require.ErrorIs(t, err, ErrValidation)
	require.ErrorIs(t, err, ErrProtocolState)

	_, err = m.Tally()
	require.ErrorIs(t, err, ErrTallyPending)
	require.ErrorIs(t, err, ErrProtocolState)
	require.NotErrorIs(t, err, ErrValidation)

	_, err = m.Cast()
	require.NoError(t, err)
	_, err = m.Cast()
	require.ErrorIs(t, err, ErrNoPending)
}

func TestValidation(t *testing.T) {
	cases := map[string][]ballot.Vote{
		"empty":     {},
		"contest":   {{Contest: 5, Choice: 1}},
		"choice":    {{Contest: 0, Choice: 4}},
		"duplicate": {{Contest: 0, Choice: 1}, {Contest: 0, Choice: 2}},
	}
	want := map[string]error{
		"empty":     ErrEmptyBallot,
		"contest":   ErrUnknownContest,
		"choice":    ErrChoiceRange,
		"duplicate": ErrDuplicateContest,
	}
	m, _ := newMachine(t, newParams(t, "P-256", 1))
	for name, vs := range cases {
		_, _, err := m.Vote(vs)
		require.ErrorIs(t, err, want[name], name)
		require.ErrorIs(t, err, ErrValidation, name)
		require.NotErrorIs(t, err, ErrProtocolState, name)
		// A rejected vote leaves no pending ballot behind.
		require.Nil(t, m.pending, name)
	}

	// Blank votes and the top choice are both accepted.
	_, _, err := m.Vote(votes(0, 3))
	require.NoError(t, err)
	_, err = m.Cast()
	require.NoError(t, err)

	// One voter, two contests: the box is full.
	_, _, err = m.Vote(votes(1))
	require.ErrorIs(t, err, ErrCapacity)
}

func TestChallengedBallotLeavesNoTrace(t *testing.T) {
	p := newParams(t, "P-256", 2)
	m, _ := newMachine(t, p)

	_, _, err := m.Vote(votes(1, 2))
	require.NoError(t, err)
	_, err = m.Challenge()
	require.NoError(t, err)
	assert.Empty(t, m.audit.Entries)
	assert.Empty(t, m.messages)

	_, _, err = m.Vote(votes(3, 0))
	require.NoError(t, err)
	_, err = m.Cast()
	require.NoError(t, err)

	tally, err := m.Tally()
	require.NoError(t, err)
	require.Equal(t, sorted(votes(3, 0)), sorted(tally.Revealed.Entries))
}

func TestGroups(t *testing.T) {
	for _, name := range []string{"secp256k1", "edwards25519", "P-384"} {
		name := name
		t.Run(name, func(t *testing.T) {
			p := newParams(t, name, 3)
			m, clock := newMachine(t, p)
			for i := uint8(0); i < 3; i++ {
				_, _, err := m.Vote(votes(i, 3-i))
				require.NoError(t, err)
				_, err = m.Cast()
				require.NoError(t, err)
				clock.Advance(time.Second)
			}
			tally, err := m.Tally()
			require.NoError(t, err)
			require.NoError(t, verify.Election(p, publish(t, m, tally), verify.WithLogger(log.Nop())))
		})
	}
}

func TestConcurrentVoters(t *testing.T) {
	p := newParams(t, "ristretto255", 8)
	m, _ := newMachine(t, p)

	// Vote and Cast form one session, so voters take turns in the booth.
	var booth sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			booth.Lock()
			defer booth.Unlock()
			_, _, err := m.Vote(votes(uint8(i % 4)))
			if assert.NoError(t, err) {
				_, err = m.Cast()
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	tally, err := m.Tally()
	require.NoError(t, err)
	require.Len(t, tally.AuditLog.Entries, 8)
	require.NoError(t, ballot.ReplayChain(tally.AuditLog))
}

func TestRandomSource(t *testing.T) {
	p := newParams(t, "P-256", 2)
	signer, err := notary.NewSigner(notary.Ed25519)
	require.NoError(t, err)
	clock := clockwork.NewFakeClock()

	seed := bytes.Repeat([]byte{9}, ballot.SeedSize)
	open := func(r io.Reader) *Machine {
		return New(p, signer, WithClock(clock), WithLogger(log.Nop()), WithRandom(r))
	}

	// The seed is read from the configured source and fully determines
	// the commitments.
	a, b := open(bytes.NewReader(seed)), open(bytes.NewReader(seed))
	codeA, _, err := a.Vote(votes(1, 2))
	require.NoError(t, err)
	codeB, _, err := b.Vote(votes(1, 2))
	require.NoError(t, err)
	require.True(t, codeA.Equal(codeB))
	c, err := a.Challenge()
	require.NoError(t, err)
	require.Equal(t, seed, c.NonceSeed)

	// A failing or exhausted source refuses the vote and leaves no
	// pending ballot.
	for name, r := range map[string]io.Reader{
		"error": iotest.ErrReader(errors.New("no entropy")),
		"short": bytes.NewReader(seed[:ballot.SeedSize-1]),
	} {
		m := open(r)
		_, _, err := m.Vote(votes(1, 2))
		require.Error(t, err, name)
		require.Nil(t, m.pending, name)
		_, err = m.Cast()
		require.ErrorIs(t, err, ErrNoPending, name)
	}
}

func BenchmarkVoteCast(b *testing.B) {
	e, err := config.Parse(fmt.Sprintf(election, "ristretto255", b.N))
	require.NoError(b, err)
	p, err := config.Setup(e)
	require.NoError(b, err)
	signer, err := notary.NewSigner(notary.Ed25519)
	require.NoError(b, err)
	m := New(p, signer, WithLogger(log.Nop()))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := m.Vote(votes(1, 2)); err != nil {
			b.Fatal(err)
		}
		if _, err := m.Cast(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkTally(b *testing.B) {
	for _, voters := range []int{50, 125, 250} {
		b.Run(fmt.Sprintf("votes=%d", 2*voters), func(b *testing.B) {
			e, err := config.Parse(fmt.Sprintf(election, "ristretto255", voters))
			require.NoError(b, err)
			p, err := config.Setup(e)
			require.NoError(b, err)
			signer, err := notary.NewSigner(notary.Ed25519)
			require.NoError(b, err)

			for i := 0; i < b.N; i++ {
				b.StopTimer()
				m := New(p, signer, WithLogger(log.Nop()))
				for v := 0; v < voters; v++ {
					if _, _, err := m.Vote(votes(uint8(v%4), uint8(v%4))); err != nil {
						b.Fatal(err)
					}
					if _, err := m.Cast(); err != nil {
						b.Fatal(err)
					}
				}
				b.StartTimer()
				if _, err := m.Tally(); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
