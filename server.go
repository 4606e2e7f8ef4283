package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/takakv/e2easy/ballot"
	"github.com/takakv/e2easy/store"
	"github.com/takakv/e2easy/verify"
)

func verifyCmd(c *cli.Context) error {
	l := logger(c)
	params, err := readInfo(c.String(infoFlag.Name))
	if err != nil {
		return err
	}
	if err := params.CheckDerivation(); err != nil {
		return cli.Exit(err, 1)
	}

	opts := []verify.Option{verify.WithLogger(l)}
	if k := c.String("verifying-key"); k != "" {
		scheme, key, err := parseKey(k)
		if err != nil {
			return err
		}
		opts = append(opts, verify.WithTrustedKey(scheme, key))
	}

	st, err := store.Open(c.Context, l, c.String(dbFlag.Name))
	if err != nil {
		return err
	}
	defer st.Close()
	pub, err := loadPublication(c.Context, st, params.Group)
	if err != nil {
		return cli.Exit(err, 1)
	}

	if err := verify.Election(params, pub, opts...); err != nil {
		return cli.Exit(err, 1)
	}

	// Results per contest and choice.
	counts := map[string]int{}
	for _, v := range pub.Revealed.Entries {
		counts[v.String()]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	w := c.App.Writer
	fmt.Fprintf(w, "election %s verified: %d ballots, %d votes\n", params.ElectionID,
		len(pub.AuditLog.Entries), len(pub.Revealed.Entries))
	for _, k := range keys {
		fmt.Fprintf(w, "%s %d\n", k, counts[k])
	}
	return nil
}

// verifyBallotCmd is the voter's own check: an audited ballot is reopened
// from its challenge, a cast ballot is looked up in the published audit log.
func verifyBallotCmd(c *cli.Context) error {
	params, err := readInfo(c.String(infoFlag.Name))
	if err != nil {
		return err
	}
	code, err := ballot.ParseTrackingCode(c.String("tracking-code"))
	if err != nil {
		return fmt.Errorf("tracking code: %w", err)
	}

	switch {
	case c.String("challenge") != "":
		if c.String("votes") == "" || c.String("timestamp") == "" {
			return errors.New("checking a challenge needs --votes and --timestamp")
		}
		votes, err := parseVotes(c.String("votes"))
		if err != nil {
			return err
		}
		ch, err := readChallenge(c.String("challenge"), params.Group)
		if err != nil {
			return err
		}
		if err := verify.Challenge(params, votes, c.String("timestamp"), code, ch); err != nil {
			return cli.Exit(err, 1)
		}
		fmt.Fprintf(c.App.Writer, "ballot %s committed to %v\n", code, votes)
	case c.String("signature") != "":
		if c.String("db") == "" {
			return errors.New("checking a receipt needs --db")
		}
		sig, err := hex.DecodeString(c.String("signature"))
		if err != nil {
			return fmt.Errorf("signature: %w", err)
		}
		l := logger(c)
		st, err := store.Open(c.Context, l, c.String("db"))
		if err != nil {
			return err
		}
		defer st.Close()
		pub, err := loadPublication(c.Context, st, params.Group)
		if err != nil {
			return cli.Exit(err, 1)
		}
		if err := verify.Receipt(pub, code, sig); err != nil {
			return cli.Exit(err, 1)
		}
		fmt.Fprintf(c.App.Writer, "ballot %s is in the audit log\n", code)
	default:
		return errors.New("verify-ballot needs --challenge or --signature")
	}
	return nil
}

func parseKey(s string) (string, []byte, error) {
	scheme, h, ok := strings.Cut(s, ":")
	if !ok {
		return "", nil, fmt.Errorf("verifying key %q is not scheme:hex", s)
	}
	key, err := hex.DecodeString(h)
	if err != nil {
		return "", nil, fmt.Errorf("verifying key: %w", err)
	}
	return scheme, key, nil
}
