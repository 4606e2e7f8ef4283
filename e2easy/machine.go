// Package e2easy runs the ballot box of an election: voters commit to
// their votes, either audit or cast the commitment, and the box finally
// shuffles and opens every cast vote with a proof of correct shuffle.
package e2easy

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/takakv/e2easy/ballot"
	"github.com/takakv/e2easy/config"
	"github.com/takakv/e2easy/group"
	"github.com/takakv/e2easy/log"
	"github.com/takakv/e2easy/metrics"
	"github.com/takakv/e2easy/notary"
	"github.com/takakv/e2easy/pedersen"
	"github.com/takakv/e2easy/shuffle"
)

type pendingBallot struct {
	messages  []*big.Int
	nonces    []*big.Int
	committed []group.Element
	seed      []byte
	timestamp string
	code      ballot.TrackingCode
}

// Machine is the ballot box state machine. All methods are serialized by
// an internal mutex so the order of the hash chain is total.
type Machine struct {
	mu     sync.Mutex
	params *config.Params
	ped    *pedersen.Pedersen
	signer notary.Signer
	clock  clockwork.Clock
	rand   io.Reader
	l      log.Logger

	audit *ballot.AuditLog
	// Openings of the committed votes, in audit log order.
	messages []*big.Int
	nonces   []*big.Int

	pending *pendingBallot
	closed  bool
}

type Option func(*Machine)

// WithClock sets the clock timestamps are read from.
func WithClock(c clockwork.Clock) Option {
	return func(m *Machine) { m.clock = c }
}

func WithLogger(l log.Logger) Option {
	return func(m *Machine) { m.l = l }
}

// WithRandom replaces crypto/rand as the source of nonce seeds.
func WithRandom(r io.Reader) Option {
	return func(m *Machine) { m.rand = r }
}

// New opens the ballot box of the election described by params.
func New(params *config.Params, signer notary.Signer, opts ...Option) *Machine {
	m := &Machine{
		params: params,
		ped:    params.Pedersen(),
		signer: signer,
		clock:  clockwork.NewRealClock(),
		rand:   rand.Reader,
		l:      log.DefaultLogger(),
		audit:  ballot.NewAuditLog(ballot.GenesisCode(params.ElectionID)),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.l = m.l.Named("ballotbox")
	return m
}

// Vote commits to votes and holds them as the pending ballot until the
// voter casts or challenges it. Nothing is committed when a vote is invalid.
func (m *Machine) Vote(votes []ballot.Vote) (ballot.TrackingCode, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.validate(votes); err != nil {
		metrics.BallotsRejected.WithLabelValues(reason(err)).Inc()
		m.l.Debugw("vote rejected", "err", err)
		return nil, "", err
	}

	seed := make([]byte, ballot.SeedSize)
	if _, err := io.ReadFull(m.rand, seed); err != nil {
		return nil, "", fmt.Errorf("e2easy: reading nonce seed: %w", err)
	}
	nonces, err := ballot.Nonces(m.params.Group, seed, len(votes))
	if err != nil {
		return nil, "", err
	}
	messages := make([]*big.Int, len(votes))
	for i, v := range votes {
		messages[i] = v.Scalar()
	}
	committed, err := m.ped.CommitList(messages, nonces)
	if err != nil {
		return nil, "", err
	}

	timestamp := m.clock.Now().UTC().Format(time.RFC3339)
	code := ballot.NextTrackingCode(m.audit.Last(), timestamp, committed)
	m.pending = &pendingBallot{
		messages:  messages,
		nonces:    nonces,
		committed: committed,
		seed:      seed,
		timestamp: timestamp,
		code:      code,
	}
	m.l.Debugw("ballot committed", "tracking_code", code, "votes", len(votes))
	return code, timestamp, nil
}

func (m *Machine) validate(votes []ballot.Vote) error {
	switch {
	case m.closed:
		return ErrClosed
	case m.pending != nil:
		return ErrBallotPending
	case len(votes) == 0:
		return ErrEmptyBallot
	case len(m.messages)+len(votes) > m.params.Capacity():
		return ErrCapacity
	}
	seen := make(map[uint8]bool, len(votes))
	for _, v := range votes {
		c, ok := m.params.Contest(v.Contest)
		if !ok {
			return fmt.Errorf("%w: %d", ErrUnknownContest, v.Contest)
		}
		if v.Choice > c.Choices {
			return fmt.Errorf("%w: %s", ErrChoiceRange, v)
		}
		if seen[v.Contest] {
			return fmt.Errorf("%w: %d", ErrDuplicateContest, v.Contest)
		}
		seen[v.Contest] = true
	}
	return nil
}

// Challenge opens the pending ballot for auditing and discards it.
func (m *Machine) Challenge() (*ballot.Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.needPending(); err != nil {
		return nil, err
	}
	p := m.pending
	m.pending = nil
	metrics.BallotsChallenged.Inc()
	m.l.Infow("ballot challenged", "tracking_code", p.code)
	return &ballot.Challenge{
		PrevTrackingCode: m.audit.Last(),
		CommittedVotes:   p.committed,
		NonceSeed:        p.seed,
	}, nil
}

// Cast appends the pending ballot to the audit log and returns the
// signature of its tracking code.
func (m *Machine) Cast() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.needPending(); err != nil {
		return nil, err
	}
	p := m.pending
	sig, err := m.signer.Sign(p.code)
	if err != nil {
		return nil, fmt.Errorf("e2easy: signing tracking code: %w", err)
	}
	m.audit.Append(ballot.CommittedBallot{
		TrackingCode:   p.code,
		CommittedVotes: p.committed,
		Timestamp:      p.timestamp,
	})
	m.messages = append(m.messages, p.messages...)
	m.nonces = append(m.nonces, p.nonces...)
	m.pending = nil
	metrics.BallotsCast.Inc()
	m.l.Infow("ballot cast", "tracking_code", p.code, "position", len(m.audit.Entries))
	return sig, nil
}

func (m *Machine) needPending() error {
	if m.closed {
		return ErrClosed
	}
	if m.pending == nil {
		return ErrNoPending
	}
	return nil
}

// Tally holds the four artifacts published when the election closes.
type Tally struct {
	Revealed *ballot.RevealedVotes
	AuditLog *ballot.AuditLog
	Shuffled *ballot.ShuffledLog
	Proof    *ballot.ProofBundle
}

// Artifacts lists the tally in publication order.
func (t *Tally) Artifacts() []ballot.Artifact {
	return []ballot.Artifact{t.AuditLog, t.Shuffled, t.Revealed, t.Proof}
}

// Tally closes the election: it seals the audit log, shuffles every cast
// vote, proves the shuffle and opens the shuffled commitments. An election
// without any cast ballot cannot be closed; Tally then returns ErrNoBallots
// and the box stays open for voting.
func (m *Machine) Tally() (*Tally, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.closed:
		return nil, ErrClosed
	case m.pending != nil:
		return nil, ErrTallyPending
	case len(m.audit.Entries) == 0:
		return nil, ErrNoBallots
	}

	g := m.params.Group
	original := m.audit.Votes()
	n := len(original)

	start := m.clock.Now()
	s, err := shuffle.NewShuffler(g, m.params.HList[:n])
	if err != nil {
		return nil, err
	}
	shuffled, rPrime, psi, err := s.GenShuffle(original)
	if err != nil {
		return nil, err
	}
	proof, err := s.GenProof(original, shuffled, rPrime, psi)
	if err != nil {
		return nil, err
	}
	metrics.ProofDuration.WithLabelValues("prove").Observe(m.clock.Since(start).Seconds())

	mList := make([]*big.Int, n)
	rList := make([]*big.Int, n)
	for i, j := range psi {
		mList[i] = m.messages[j]
		rList[i] = group.ScalarAdd(g, m.nonces[j], rPrime[j])
	}

	if err := m.audit.SetHead(ballot.CloseCode(m.audit.Last())); err != nil {
		return nil, err
	}
	m.closed = true
	m.l.Infow("election closed", "ballots", len(m.audit.Entries), "votes", n, "head", m.audit.Head)

	return &Tally{
		Revealed: ballot.Decode(mList),
		AuditLog: m.audit,
		Shuffled: &ballot.ShuffledLog{Entries: shuffled},
		Proof: &ballot.ProofBundle{
			Scheme:       m.signer.Scheme(),
			VerifyingKey: m.signer.PublicKey(),
			Proof:        proof,
			MList:        mList,
			RList:        rList,
		},
	}, nil
}

// Sign returns a detached signature over the canonical JSON of a.
func (m *Machine) Sign(a ballot.Artifact) ([]byte, error) {
	b, err := a.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("e2easy: encoding %s: %w", a.Name(), err)
	}
	return m.signer.Sign(b)
}

// LastTrackingCode is the current end of the hash chain.
func (m *Machine) LastTrackingCode() ballot.TrackingCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.audit.Last()
}

func reason(err error) string {
	for _, r := range []struct {
		err  error
		name string
	}{
		{ErrClosed, "closed"},
		{ErrBallotPending, "pending"},
		{ErrEmptyBallot, "empty"},
		{ErrCapacity, "capacity"},
		{ErrUnknownContest, "contest"},
		{ErrChoiceRange, "choice"},
		{ErrDuplicateContest, "duplicate"},
	} {
		if errors.Is(err, r.err) {
			return r.name
		}
	}
	return "other"
}
