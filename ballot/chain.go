package ballot

import (
	"errors"
	"fmt"

	"github.com/takakv/e2easy/group"
	"github.com/takakv/e2easy/transcript"
)

const (
	domainGenesis = "e2easy/chain/genesis/v1"
	domainBallot  = "e2easy/chain/ballot/v1"
	domainClose   = "e2easy/chain/close/v1"

	closeMarker = "CLOSE"
)

var (
	ErrChainBroken = errors.New("ballot: hash chain broken")
	ErrHeadMissing = errors.New("ballot: audit log has no head")
	ErrHeadSet     = errors.New("ballot: audit log head already set")
)

// GenesisCode is the tail of the chain of an election.
func GenesisCode(electionID string) TrackingCode {
	return transcript.NewSHA256(domainGenesis).
		AppendMessage("election", []byte(electionID)).
		Sum()
}

// NextTrackingCode links a ballot to its predecessor.
func NextTrackingCode(prev TrackingCode, timestamp string, commitments []group.Element) TrackingCode {
	return transcript.NewSHA256(domainBallot).
		AppendMessage("prev", prev).
		AppendMessage("timestamp", []byte(timestamp)).
		AppendElements("commitments", commitments).
		Sum()
}

// CloseCode seals the chain after its last ballot.
func CloseCode(prev TrackingCode) TrackingCode {
	return transcript.NewSHA256(domainClose).
		AppendMessage("prev", prev).
		AppendMessage("marker", []byte(closeMarker)).
		Sum()
}

// ReplayChain recomputes every tracking code of the log from its tail and
// checks the closing head.
func ReplayChain(l *AuditLog) error {
	prev := l.Tail
	for i, e := range l.Entries {
		tc := NextTrackingCode(prev, e.Timestamp, e.CommittedVotes)
		if !tc.Equal(e.TrackingCode) {
			return fmt.Errorf("%w at entry %d", ErrChainBroken, i)
		}
		prev = tc
	}
	if l.Head == nil {
		return ErrHeadMissing
	}
	if !CloseCode(prev).Equal(l.Head) {
		return fmt.Errorf("%w at head", ErrChainBroken)
	}
	return nil
}
