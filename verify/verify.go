// Package verify checks a published election using nothing but its public
// artifacts, the election parameters and the notary's verifying key.
package verify

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/takakv/e2easy/ballot"
	"github.com/takakv/e2easy/config"
	"github.com/takakv/e2easy/log"
	"github.com/takakv/e2easy/metrics"
	"github.com/takakv/e2easy/notary"
	"github.com/takakv/e2easy/shuffle"
)

// ErrVerification is wrapped by every failed check.
var ErrVerification = errors.New("verification failed")

// Publication is the set of artifacts published at the close of an
// election, with their detached signatures keyed by artifact name.
type Publication struct {
	AuditLog   *ballot.AuditLog
	Shuffled   *ballot.ShuffledLog
	Revealed   *ballot.RevealedVotes
	Proof      *ballot.ProofBundle
	Signatures map[string][]byte
}

// Artifacts lists the publication in a fixed order. Missing artifacts are
// left out.
func (p *Publication) Artifacts() []ballot.Artifact {
	var out []ballot.Artifact
	if p.AuditLog != nil {
		out = append(out, p.AuditLog)
	}
	if p.Shuffled != nil {
		out = append(out, p.Shuffled)
	}
	if p.Revealed != nil {
		out = append(out, p.Revealed)
	}
	if p.Proof != nil {
		out = append(out, p.Proof)
	}
	return out
}

type options struct {
	scheme string
	key    []byte
	l      log.Logger
}

type Option func(*options)

// WithTrustedKey pins the notary key the artifacts must be signed with.
// Without it the key carried by the proof bundle is used as is.
func WithTrustedKey(scheme string, key []byte) Option {
	return func(o *options) {
		o.scheme = scheme
		o.key = key
	}
}

func WithLogger(l log.Logger) Option {
	return func(o *options) { o.l = l }
}

// Election runs every check over pub and reports all failures together.
// The election verifies only if the returned error is nil.
func Election(params *config.Params, pub *Publication, opts ...Option) error {
	o := options{l: log.DefaultLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	err := election(params, pub, o)
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	metrics.Verifications.WithLabelValues(outcome).Inc()
	return err
}

func election(params *config.Params, pub *Publication, o options) error {
	if pub == nil || len(pub.Artifacts()) != 4 {
		return fmt.Errorf("%w: incomplete publication", ErrVerification)
	}

	var merr *multierror.Error
	fail := func(format string, args ...interface{}) {
		err := fmt.Errorf("%w: %s", ErrVerification, fmt.Sprintf(format, args...))
		o.l.Warnw("check failed", "err", err)
		merr = multierror.Append(merr, err)
	}

	scheme, key := pub.Proof.Scheme, pub.Proof.VerifyingKey
	if o.key != nil {
		if scheme != o.scheme || !bytes.Equal(key, o.key) {
			fail("proof bundle names an untrusted verifying key")
		}
		scheme, key = o.scheme, o.key
	}
	for _, a := range pub.Artifacts() {
		sig, ok := pub.Signatures[a.Name()]
		if !ok {
			fail("%s is not signed", a.Name())
			continue
		}
		b, err := a.MarshalJSON()
		if err != nil {
			fail("encoding %s: %v", a.Name(), err)
			continue
		}
		if err := notary.Verify(scheme, key, b, sig); err != nil {
			fail("signature of %s: %v", a.Name(), err)
		}
	}

	if err := ballot.ReplayChain(pub.AuditLog); err != nil {
		fail("audit log: %v", err)
	}
	if len(pub.AuditLog.Entries) > 0 && !pub.AuditLog.Tail.Equal(ballot.GenesisCode(params.ElectionID)) {
		fail("audit log does not start at the genesis of election %s", params.ElectionID)
	}

	original := pub.AuditLog.Votes()
	n := len(original)
	shuffled := pub.Shuffled.Entries
	switch {
	case n == 0:
		fail("audit log holds no votes")
		return merr.ErrorOrNil()
	case n > params.Capacity():
		fail("%d votes exceed the %d generators of the election", n, params.Capacity())
		return merr.ErrorOrNil()
	case len(shuffled) != n || len(pub.Revealed.Entries) != n || len(pub.Proof.MList) != n || len(pub.Proof.RList) != n:
		fail("artifact lengths disagree with the %d votes of the audit log", n)
		return merr.ErrorOrNil()
	case hasNil(pub.Proof.MList) || hasNil(pub.Proof.RList):
		fail("proof bundle has a missing opening")
		return merr.ErrorOrNil()
	}

	v, err := shuffle.NewVerifier(params.Group, params.HList[:n])
	if err != nil {
		fail("%v", err)
		return merr.ErrorOrNil()
	}
	start := time.Now()
	if !v.CheckProof(pub.Proof.Proof, original, shuffled) {
		fail("shuffle proof")
	}
	metrics.ProofDuration.WithLabelValues("verify").Observe(time.Since(start).Seconds())

	if !params.Pedersen().VerifyList(pub.Proof.MList, pub.Proof.RList, shuffled) {
		fail("openings of the shuffled log")
	}

	decoded := ballot.Decode(pub.Proof.MList)
	for i, vote := range decoded.Entries {
		if vote != pub.Revealed.Entries[i] {
			fail("revealed vote %d is %s, opening says %s", i, pub.Revealed.Entries[i], vote)
		}
		if pub.Proof.MList[i].Cmp(vote.Scalar()) != 0 {
			fail("opening %d is not a vote encoding", i)
			continue
		}
		c, ok := params.Contest(vote.Contest)
		if !ok || vote.Choice > c.Choices {
			fail("revealed vote %d %s is not a valid choice", i, vote)
		}
	}
	return merr.ErrorOrNil()
}

func hasNil(list []*big.Int) bool {
	for _, s := range list {
		if s == nil {
			return true
		}
	}
	return false
}
