package verify

import (
	"fmt"

	"github.com/takakv/e2easy/ballot"
	"github.com/takakv/e2easy/config"
	"github.com/takakv/e2easy/notary"
)

// Challenge checks that an audited ballot committed to votes: the revealed
// seed must reopen every commitment and the commitments must hash to the
// tracking code the voter was shown.
func Challenge(params *config.Params, votes []ballot.Vote, timestamp string, code ballot.TrackingCode, c *ballot.Challenge) error {
	if c == nil || len(votes) != len(c.CommittedVotes) {
		return fmt.Errorf("%w: challenge does not match the ballot", ErrVerification)
	}
	nonces, err := ballot.Nonces(params.Group, c.NonceSeed, len(votes))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerification, err)
	}
	ped := params.Pedersen()
	for i, v := range votes {
		if !ped.Verify(v.Scalar(), nonces[i], c.CommittedVotes[i]) {
			return fmt.Errorf("%w: commitment %d does not open to %s", ErrVerification, i, v)
		}
	}
	if !ballot.NextTrackingCode(c.PrevTrackingCode, timestamp, c.CommittedVotes).Equal(code) {
		return fmt.Errorf("%w: tracking code mismatch", ErrVerification)
	}
	return nil
}

// Receipt checks the signature a voter got when casting and that the
// ballot made it into the audit log.
func Receipt(pub *Publication, code ballot.TrackingCode, sig []byte) error {
	if pub == nil || pub.AuditLog == nil || pub.Proof == nil {
		return fmt.Errorf("%w: incomplete publication", ErrVerification)
	}
	if err := notary.Verify(pub.Proof.Scheme, pub.Proof.VerifyingKey, code, sig); err != nil {
		return fmt.Errorf("%w: receipt: %v", ErrVerification, err)
	}
	for _, e := range pub.AuditLog.Entries {
		if e.TrackingCode.Equal(code) {
			return nil
		}
	}
	return fmt.Errorf("%w: tracking code %s not in the audit log", ErrVerification, code)
}
