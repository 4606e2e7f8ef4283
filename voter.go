package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/takakv/e2easy/ballot"
	"github.com/takakv/e2easy/config"
	"github.com/takakv/e2easy/e2easy"
	"github.com/takakv/e2easy/notary"
	"github.com/takakv/e2easy/store"
)

func setupCmd(c *cli.Context) error {
	e, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	params, err := config.Setup(e)
	if err != nil {
		return err
	}
	if err := writeInfo(c.String("out"), params); err != nil {
		return err
	}
	logger(c).Infow("election set up", "election_id", params.ElectionID, "group", params.Group.Name(),
		"generators", params.Capacity())
	return nil
}

func simulateCmd(c *cli.Context) error {
	l := logger(c)
	params, err := readInfo(c.String(infoFlag.Name))
	if err != nil {
		return err
	}
	n := c.Int("ballots")
	if n <= 0 || n*len(params.Contests) > params.Capacity() {
		return fmt.Errorf("cannot cast %d ballots in an election for %d votes", n, params.Capacity())
	}
	rate := c.Float64("challenge-rate")
	if rate < 0 || rate >= 1 {
		return fmt.Errorf("challenge rate %v must be in [0, 1)", rate)
	}

	signer, err := newSigner(params.Scheme, c.String("key-seed"))
	if err != nil {
		return err
	}
	m := e2easy.New(params, signer, e2easy.WithLogger(l))

	auditDir := c.String("audit-dir")
	var records []*ballotRecord
	challenged := 0
	for cast := 0; cast < n; {
		rec, ch, err := castVote(m, params, rate)
		if err != nil {
			return err
		}
		if ch != nil {
			challenged++
			if auditDir != "" {
				if rec.Challenge, err = writeChallenge(auditDir, rec.TrackingCode, ch); err != nil {
					return err
				}
			}
			l.Debugw("ballot challenged", "tracking_code", rec.TrackingCode)
		} else {
			cast++
		}
		records = append(records, rec)
	}
	if auditDir != "" {
		if err := writeRecords(auditDir, records); err != nil {
			return err
		}
	}

	start := time.Now()
	tally, err := m.Tally()
	if err != nil {
		return err
	}
	l.Infow("tally done", "ballots", n, "challenged", challenged, "took", time.Since(start))

	st, err := store.Open(c.Context, l, c.String(dbFlag.Name))
	if err != nil {
		return err
	}
	defer st.Close()
	for _, a := range tally.Artifacts() {
		b, err := a.MarshalJSON()
		if err != nil {
			return err
		}
		sig, err := m.Sign(a)
		if err != nil {
			return err
		}
		if err := st.Put(c.Context, a.Name(), b, sig); err != nil {
			return err
		}
	}
	fmt.Fprintf(c.App.Writer, "verifying key: %s:%x\n", signer.Scheme(), signer.PublicKey())
	return nil
}

// newSigner restores the notary key from a hex seed, or makes a fresh one.
func newSigner(scheme, seed string) (notary.Signer, error) {
	if seed == "" {
		return notary.NewSigner(scheme)
	}
	b, err := hex.DecodeString(seed)
	if err != nil {
		return nil, fmt.Errorf("key seed: %w", err)
	}
	return notary.SignerFromSeed(scheme, b)
}

// castVote plays one voter: pick random choices, then either cast the
// ballot or audit it. A challenged ballot comes back with its challenge.
func castVote(m *e2easy.Machine, params *config.Params, rate float64) (*ballotRecord, *ballot.Challenge, error) {
	votes := make([]ballot.Vote, len(params.Contests))
	for i, contest := range params.Contests {
		votes[i] = ballot.Vote{Contest: contest.ID, Choice: uint8(randInt(int64(contest.Choices) + 1))}
	}

	code, timestamp, err := m.Vote(votes)
	if err != nil {
		return nil, nil, err
	}
	rec := &ballotRecord{TrackingCode: code, Timestamp: timestamp, Votes: votes}
	if float64(randInt(1_000_000)) < rate*1_000_000 {
		ch, err := m.Challenge()
		if err != nil {
			return nil, nil, err
		}
		return rec, ch, nil
	}
	if rec.Signature, err = m.Cast(); err != nil {
		return nil, nil, err
	}
	return rec, nil, nil
}

func randInt(max int64) int64 {
	r, err := rand.Int(rand.Reader, big.NewInt(max))
	if err != nil {
		panic(err)
	}
	return r.Int64()
}
