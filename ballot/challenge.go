package ballot

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"math/big"

	json "github.com/nikkolasg/hexjson"
	"golang.org/x/crypto/hkdf"

	"github.com/takakv/e2easy/group"
)

// SeedSize is the length of the per-ballot nonce seed.
const SeedSize = 32

const nonceSalt = "e2easy/nonce/v1"

// Nonces expands seed into n commitment randomizers. The expansion is
// deterministic so revealing the seed reveals every opening of a ballot.
func Nonces(g group.Group, seed []byte, n int) ([]*big.Int, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("ballot: nonce seed must be %d bytes", SeedSize)
	}
	// 16 extra bytes keep the reduction bias negligible.
	size := (g.N().BitLen()+7)/8 + 16
	out := make([]*big.Int, n)
	for i := range out {
		var info [8]byte
		binary.BigEndian.PutUint64(info[:], uint64(i))
		buf := make([]byte, size)
		if _, err := io.ReadFull(hkdf.New(sha256.New, seed, []byte(nonceSalt), info[:]), buf); err != nil {
			return nil, err
		}
		out[i] = group.ScalarFromBytes(g, buf)
	}
	return out, nil
}

// Challenge is what a voter receives when auditing a ballot instead of
// casting it.
type Challenge struct {
	PrevTrackingCode TrackingCode
	CommittedVotes   []group.Element
	NonceSeed        []byte
}

type challengeJSON struct {
	PrevTrackingCode TrackingCode    `json:"prev_tracking_code"`
	CommittedVotes   []group.Element `json:"committed_votes"`
	NonceSeed        []byte          `json:"nonce_seed"`
}

func (c *Challenge) MarshalJSON() ([]byte, error) {
	return json.Marshal(challengeJSON{
		PrevTrackingCode: c.PrevTrackingCode,
		CommittedVotes:   nonNil(c.CommittedVotes),
		NonceSeed:        c.NonceSeed,
	})
}

func ChallengeFromJSON(b []byte, g group.Group) (*Challenge, error) {
	var tmp struct {
		PrevTrackingCode TrackingCode      `json:"prev_tracking_code"`
		CommittedVotes   []json.RawMessage `json:"committed_votes"`
		NonceSeed        []byte            `json:"nonce_seed"`
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return nil, err
	}
	votes, err := decodeElements(g, tmp.CommittedVotes)
	if err != nil {
		return nil, err
	}
	return &Challenge{PrevTrackingCode: tmp.PrevTrackingCode, CommittedVotes: votes, NonceSeed: tmp.NonceSeed}, nil
}
