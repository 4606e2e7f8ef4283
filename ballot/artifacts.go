package ballot

import (
	"math/big"

	"github.com/takakv/e2easy/group"
	"github.com/takakv/e2easy/shuffle"
)

// CommittedBallot is an entry of the audit log.
type CommittedBallot struct {
	TrackingCode   TrackingCode
	CommittedVotes []group.Element
	Timestamp      string
}

// AuditLog is the record of committed votes (RDCV).
type AuditLog struct {
	Tail    TrackingCode
	Entries []CommittedBallot
	Head    TrackingCode // nil until the election is closed.
}

func NewAuditLog(tail TrackingCode) *AuditLog {
	return &AuditLog{Tail: tail}
}

func (l *AuditLog) Append(b CommittedBallot) {
	l.Entries = append(l.Entries, b)
}

// SetHead closes the log. The head can only be set once.
func (l *AuditLog) SetHead(head TrackingCode) error {
	if l.Head != nil {
		return ErrHeadSet
	}
	l.Head = head
	return nil
}

// Votes flattens the committed votes in cast order.
func (l *AuditLog) Votes() []group.Element {
	var out []group.Element
	for _, e := range l.Entries {
		out = append(out, e.CommittedVotes...)
	}
	return out
}

// Last returns the tracking code of the last cast ballot, or the tail.
func (l *AuditLog) Last() TrackingCode {
	if len(l.Entries) == 0 {
		return l.Tail
	}
	return l.Entries[len(l.Entries)-1].TrackingCode
}

// ShuffledLog is the re-randomized, permuted commitment list (RDCV′).
type ShuffledLog struct {
	Entries []group.Element
}

// RevealedVotes are the opened votes in shuffled order (RDV′).
type RevealedVotes struct {
	Entries []Vote
}

// ProofBundle (ZKPOutput) carries the shuffle proof and the openings of
// the shuffled log.
type ProofBundle struct {
	Scheme       string // Signature scheme of VerifyingKey.
	VerifyingKey []byte
	Proof        *shuffle.Proof
	MList        []*big.Int
	RList        []*big.Int
}

// Decode turns opened messages back into votes.
func Decode(mList []*big.Int) *RevealedVotes {
	out := &RevealedVotes{Entries: make([]Vote, len(mList))}
	for i, m := range mList {
		out.Entries[i] = VoteFromScalar(m)
	}
	return out
}
