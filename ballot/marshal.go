package ballot

import (
	"fmt"

	json "github.com/nikkolasg/hexjson"

	"github.com/takakv/e2easy/group"
	"github.com/takakv/e2easy/shuffle"
)

// Artifact is a publishable record of the election. Its MarshalJSON output
// is the canonical form that gets signed and stored.
type Artifact interface {
	Name() string
	MarshalJSON() ([]byte, error)
}

// Artifact names, also used as publication keys.
const (
	NameAuditLog      = "rdcv"
	NameShuffledLog   = "rdcv_prime"
	NameRevealedVotes = "rdv_prime"
	NameProofBundle   = "zkp_output"
)

func (*AuditLog) Name() string      { return NameAuditLog }
func (*ShuffledLog) Name() string   { return NameShuffledLog }
func (*RevealedVotes) Name() string { return NameRevealedVotes }
func (*ProofBundle) Name() string   { return NameProofBundle }

type committedBallotJSON struct {
	TrackingCode   TrackingCode    `json:"tracking_code"`
	CommittedVotes []group.Element `json:"committed_votes"`
	Timestamp      string          `json:"timestamp"`
}

type auditLogJSON struct {
	Tail    TrackingCode          `json:"tail"`
	Entries []committedBallotJSON `json:"entries"`
	Head    TrackingCode          `json:"head"`
}

func (l *AuditLog) MarshalJSON() ([]byte, error) {
	tmp := auditLogJSON{Tail: l.Tail, Head: l.Head, Entries: make([]committedBallotJSON, len(l.Entries))}
	for i, e := range l.Entries {
		tmp.Entries[i] = committedBallotJSON{
			TrackingCode:   e.TrackingCode,
			CommittedVotes: nonNil(e.CommittedVotes),
			Timestamp:      e.Timestamp,
		}
	}
	return json.Marshal(tmp)
}

func AuditLogFromJSON(b []byte, g group.Group) (*AuditLog, error) {
	var tmp struct {
		Tail    TrackingCode `json:"tail"`
		Entries []struct {
			TrackingCode   TrackingCode      `json:"tracking_code"`
			CommittedVotes []json.RawMessage `json:"committed_votes"`
			Timestamp      string            `json:"timestamp"`
		} `json:"entries"`
		Head TrackingCode `json:"head"`
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return nil, err
	}
	l := &AuditLog{Tail: tmp.Tail, Head: tmp.Head, Entries: make([]CommittedBallot, len(tmp.Entries))}
	for i, e := range tmp.Entries {
		votes, err := decodeElements(g, e.CommittedVotes)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		l.Entries[i] = CommittedBallot{TrackingCode: e.TrackingCode, CommittedVotes: votes, Timestamp: e.Timestamp}
	}
	return l, nil
}

type shuffledLogJSON struct {
	Entries []group.Element `json:"entries"`
}

func (s *ShuffledLog) MarshalJSON() ([]byte, error) {
	return json.Marshal(shuffledLogJSON{Entries: nonNil(s.Entries)})
}

func ShuffledLogFromJSON(b []byte, g group.Group) (*ShuffledLog, error) {
	var tmp struct {
		Entries []json.RawMessage `json:"entries"`
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return nil, err
	}
	entries, err := decodeElements(g, tmp.Entries)
	if err != nil {
		return nil, err
	}
	return &ShuffledLog{Entries: entries}, nil
}

type revealedVotesJSON struct {
	Entries []Vote `json:"entries"`
}

func (r *RevealedVotes) MarshalJSON() ([]byte, error) {
	entries := r.Entries
	if entries == nil {
		entries = []Vote{}
	}
	return json.Marshal(revealedVotesJSON{Entries: entries})
}

func RevealedVotesFromJSON(b []byte) (*RevealedVotes, error) {
	var tmp revealedVotesJSON
	if err := json.Unmarshal(b, &tmp); err != nil {
		return nil, err
	}
	return &RevealedVotes{Entries: tmp.Entries}, nil
}

type proofBundleJSON struct {
	Scheme       string         `json:"scheme"`
	VerifyingKey []byte         `json:"verifying_key"`
	Proof        *shuffle.Proof `json:"shuffle_proof"`
	MList        []string       `json:"m_list"`
	RList        []string       `json:"r_list"`
}

func (p *ProofBundle) MarshalJSON() ([]byte, error) {
	return json.Marshal(proofBundleJSON{
		Scheme:       p.Scheme,
		VerifyingKey: p.VerifyingKey,
		Proof:        p.Proof,
		MList:        shuffle.ScalarStrings(p.MList),
		RList:        shuffle.ScalarStrings(p.RList),
	})
}

func ProofBundleFromJSON(b []byte, g group.Group) (*ProofBundle, error) {
	var tmp struct {
		Scheme       string          `json:"scheme"`
		VerifyingKey []byte          `json:"verifying_key"`
		Proof        json.RawMessage `json:"shuffle_proof"`
		MList        []string        `json:"m_list"`
		RList        []string        `json:"r_list"`
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return nil, err
	}
	proof, err := shuffle.ProofUnmarshalJSON(tmp.Proof, g)
	if err != nil {
		return nil, fmt.Errorf("shuffle_proof: %w", err)
	}
	mList, err := shuffle.ParseScalars(tmp.MList)
	if err != nil {
		return nil, fmt.Errorf("m_list: %w", err)
	}
	rList, err := shuffle.ParseScalars(tmp.RList)
	if err != nil {
		return nil, fmt.Errorf("r_list: %w", err)
	}
	return &ProofBundle{
		Scheme:       tmp.Scheme,
		VerifyingKey: tmp.VerifyingKey,
		Proof:        proof,
		MList:        mList,
		RList:        rList,
	}, nil
}

func decodeElements(g group.Group, raws []json.RawMessage) ([]group.Element, error) {
	out := make([]group.Element, len(raws))
	for i, raw := range raws {
		e := g.Element()
		if err := e.UnmarshalJSON(raw); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = e
	}
	return out, nil
}

func nonNil(list []group.Element) []group.Element {
	if list == nil {
		return []group.Element{}
	}
	return list
}
