// Package ballot holds the ballot data model of an election: votes, the
// hash-chained audit log and the artifacts published at tally.
package ballot

import (
	"errors"
	"fmt"
	"math/big"
)

// Vote selects Choice in contest Contest. Choice 0 is a blank vote.
type Vote struct {
	Contest uint8 `json:"contest"`
	Choice  uint8 `json:"choice"`
}

const voteLen = 2

var errShortVote = errors.New("ballot: vote encoding needs two bytes")

// Bytes returns the fixed-width encoding [contest, choice].
func (v Vote) Bytes() []byte {
	return []byte{v.Contest, v.Choice}
}

// VoteFromBytes reads the last two bytes of b.
func VoteFromBytes(b []byte) (Vote, error) {
	if len(b) < voteLen {
		return Vote{}, errShortVote
	}
	n := len(b)
	return Vote{Contest: b[n-2], Choice: b[n-1]}, nil
}

// Scalar returns contest·256 + choice, the message committed to.
func (v Vote) Scalar() *big.Int {
	return new(big.Int).SetBytes(v.Bytes())
}

// VoteFromScalar decodes the two low-order bytes of s.
func VoteFromScalar(s *big.Int) Vote {
	low := new(big.Int).And(s, big.NewInt(0xffff))
	v, _ := VoteFromBytes(low.FillBytes(make([]byte, voteLen)))
	return v
}

func (v Vote) String() string {
	return fmt.Sprintf("(%d,%d)", v.Contest, v.Choice)
}
