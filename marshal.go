package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	json "github.com/nikkolasg/hexjson"

	"github.com/takakv/e2easy/ballot"
	"github.com/takakv/e2easy/config"
	"github.com/takakv/e2easy/group"
	"github.com/takakv/e2easy/store"
	"github.com/takakv/e2easy/verify"
)

func readInfo(path string) (*config.Params, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return config.ParamsFromJSON(b)
}

func writeInfo(path string, p *config.Params) error {
	b, err := p.MarshalJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// loadPublication reads and decodes the four artifacts of an election.
func loadPublication(ctx context.Context, st *store.BoltStore, g group.Group) (*verify.Publication, error) {
	pub := &verify.Publication{Signatures: map[string][]byte{}}
	get := func(name string) ([]byte, error) {
		b, sig, err := st.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		pub.Signatures[name] = sig
		return b, nil
	}

	b, err := get(ballot.NameAuditLog)
	if err != nil {
		return nil, err
	}
	if pub.AuditLog, err = ballot.AuditLogFromJSON(b, g); err != nil {
		return nil, fmt.Errorf("%s: %w", ballot.NameAuditLog, err)
	}

	if b, err = get(ballot.NameShuffledLog); err != nil {
		return nil, err
	}
	if pub.Shuffled, err = ballot.ShuffledLogFromJSON(b, g); err != nil {
		return nil, fmt.Errorf("%s: %w", ballot.NameShuffledLog, err)
	}

	if b, err = get(ballot.NameRevealedVotes); err != nil {
		return nil, err
	}
	if pub.Revealed, err = ballot.RevealedVotesFromJSON(b); err != nil {
		return nil, fmt.Errorf("%s: %w", ballot.NameRevealedVotes, err)
	}

	if b, err = get(ballot.NameProofBundle); err != nil {
		return nil, err
	}
	if pub.Proof, err = ballot.ProofBundleFromJSON(b, g); err != nil {
		return nil, fmt.Errorf("%s: %w", ballot.NameProofBundle, err)
	}
	return pub, nil
}

// ballotRecord is what a scripted voter keeps to check its ballot later:
// the challenge file of an audited ballot, or the receipt of a cast one.
type ballotRecord struct {
	TrackingCode ballot.TrackingCode `json:"tracking_code"`
	Timestamp    string              `json:"timestamp"`
	Votes        []ballot.Vote       `json:"votes"`
	Challenge    string              `json:"challenge,omitempty"`
	Signature    []byte              `json:"signature,omitempty"`
}

const recordsFile = "ballots.json"

func writeChallenge(dir string, code ballot.TrackingCode, ch *ballot.Challenge) (string, error) {
	b, err := ch.MarshalJSON()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "challenge-"+code.String()+".json")
	return path, os.WriteFile(path, b, 0o644)
}

func writeRecords(dir string, records []*ballotRecord) error {
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, recordsFile), b, 0o644)
}

func readChallenge(path string, g group.Group) (*ballot.Challenge, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ballot.ChallengeFromJSON(b, g)
}

// parseVotes reads votes written as contest:choice pairs separated by
// commas, e.g. "0:1,1:3".
func parseVotes(s string) ([]ballot.Vote, error) {
	var votes []ballot.Vote
	for _, pair := range strings.Split(s, ",") {
		contest, choice, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok {
			return nil, fmt.Errorf("vote %q is not contest:choice", pair)
		}
		c, err := strconv.ParseUint(contest, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("vote %q: %w", pair, err)
		}
		ch, err := strconv.ParseUint(choice, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("vote %q: %w", pair, err)
		}
		votes = append(votes, ballot.Vote{Contest: uint8(c), Choice: uint8(ch)})
	}
	return votes, nil
}
