package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/nikkolasg/hexjson"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/takakv/e2easy/ballot"
	"github.com/takakv/e2easy/log"
	"github.com/takakv/e2easy/notary"
	"github.com/takakv/e2easy/store"
)

const electionTOML = `
group = "ristretto255"
election_id = "1c9a4f0e-6b2d-4e8a-9f3c-7d5e2b1a0c4f"
signature_scheme = "secp256k1"
voters = 6

[[contests]]
id = 0
name = "president"
choices = 3

[[contests]]
id = 1
name = "senate"
choices = 5
`

func run(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	app := CLI()
	app.Writer = &out
	app.ErrWriter = &out
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.Run(append([]string{"e2easy"}, args...))
	return out.String(), err
}

func TestSetupSimulateVerify(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "election.toml")
	info := filepath.Join(dir, "info.json")
	db := filepath.Join(dir, "artifacts.db")
	prom := filepath.Join(dir, "e2easy.prom")
	require.NoError(t, os.WriteFile(cfg, []byte(electionTOML), 0o600))

	_, err := run(t, "setup", "--config", cfg, "--out", info)
	require.NoError(t, err)

	out, err := run(t, "--metrics-file", prom, "simulate", "--info", info, "--db", db, "--ballots", "5", "--challenge-rate", "0.3")
	require.NoError(t, err)
	require.Contains(t, out, "verifying key: secp256k1:")
	key := strings.TrimSpace(strings.TrimPrefix(out[strings.Index(out, "verifying key: "):], "verifying key: "))

	out, err = run(t, "verify", "--info", info, "--db", db, "--verifying-key", key)
	require.NoError(t, err)
	require.Contains(t, out, "verified: 5 ballots, 10 votes")

	m, err := os.ReadFile(prom)
	require.NoError(t, err)
	require.Contains(t, string(m), "e2easy_ballots_cast_total")

	// Too many ballots for the election.
	_, err = run(t, "simulate", "--info", info, "--db", filepath.Join(dir, "other.db"), "--ballots", "7")
	require.Error(t, err)
}

func TestVerifyRejectsTamperedStore(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "election.toml")
	info := filepath.Join(dir, "info.json")
	require.NoError(t, os.WriteFile(cfg, []byte(electionTOML), 0o600))
	_, err := run(t, "setup", "--config", cfg, "--out", info)
	require.NoError(t, err)

	// A store holding a revealed vote list that was signed by nobody.
	src := filepath.Join(dir, "good.db")
	_, err = run(t, "simulate", "--info", info, "--db", src, "--ballots", "2", "--challenge-rate", "0")
	require.NoError(t, err)

	ctx := context.Background()
	good, err := store.Open(ctx, log.Nop(), src)
	require.NoError(t, err)
	bad, err := store.Open(ctx, log.Nop(), filepath.Join(dir, "bad.db"))
	require.NoError(t, err)
	for _, name := range []string{ballot.NameAuditLog, ballot.NameShuffledLog, ballot.NameProofBundle} {
		b, sig, err := good.Get(ctx, name)
		require.NoError(t, err)
		require.NoError(t, bad.Put(ctx, name, b, sig))
	}
	_, sig, err := good.Get(ctx, ballot.NameRevealedVotes)
	require.NoError(t, err)
	forged := &ballot.RevealedVotes{Entries: []ballot.Vote{
		{Contest: 0, Choice: 1}, {Contest: 0, Choice: 1}, {Contest: 1, Choice: 1}, {Contest: 1, Choice: 1},
	}}
	b, err := forged.MarshalJSON()
	require.NoError(t, err)
	require.NoError(t, bad.Put(ctx, ballot.NameRevealedVotes, b, sig))
	require.NoError(t, good.Close())
	require.NoError(t, bad.Close())

	_, err = run(t, "verify", "--info", info, "--db", filepath.Join(dir, "bad.db"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "verification failed")
}

func formatVotes(votes []ballot.Vote) string {
	pairs := make([]string, len(votes))
	for i, v := range votes {
		pairs[i] = fmt.Sprintf("%d:%d", v.Contest, v.Choice)
	}
	return strings.Join(pairs, ",")
}

func TestVerifyBallot(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "election.toml")
	info := filepath.Join(dir, "info.json")
	db := filepath.Join(dir, "artifacts.db")
	audit := filepath.Join(dir, "audit")
	require.NoError(t, os.Mkdir(audit, 0o700))
	require.NoError(t, os.WriteFile(cfg, []byte(electionTOML), 0o600))
	_, err := run(t, "setup", "--config", cfg, "--out", info)
	require.NoError(t, err)

	seed := bytes.Repeat([]byte{0x42}, 32)
	out, err := run(t, "simulate", "--info", info, "--db", db, "--ballots", "3", "--challenge-rate", "0.9",
		"--key-seed", hex.EncodeToString(seed), "--audit-dir", audit)
	require.NoError(t, err)

	// The notary key is the one restored from the seed.
	signer, err := notary.SignerFromSeed(notary.Secp256k1, seed)
	require.NoError(t, err)
	require.Contains(t, out, fmt.Sprintf("verifying key: secp256k1:%x", signer.PublicKey()))

	b, err := os.ReadFile(filepath.Join(audit, recordsFile))
	require.NoError(t, err)
	var records []*ballotRecord
	require.NoError(t, json.Unmarshal(b, &records))

	cast := 0
	for _, rec := range records {
		code := rec.TrackingCode.String()
		if rec.Challenge != "" {
			out, err := run(t, "verify-ballot", "--info", info, "--tracking-code", code,
				"--challenge", rec.Challenge, "--votes", formatVotes(rec.Votes), "--timestamp", rec.Timestamp)
			require.NoError(t, err, out)
			require.Contains(t, out, "committed to")

			wrong := append([]ballot.Vote(nil), rec.Votes...)
			wrong[0].Choice ^= 1
			_, err = run(t, "verify-ballot", "--info", info, "--tracking-code", code,
				"--challenge", rec.Challenge, "--votes", formatVotes(wrong), "--timestamp", rec.Timestamp)
			require.Error(t, err)
			continue
		}
		cast++
		sig := hex.EncodeToString(rec.Signature)
		out, err := run(t, "verify-ballot", "--info", info, "--tracking-code", code, "--signature", sig, "--db", db)
		require.NoError(t, err, out)
		require.Contains(t, out, "is in the audit log")
	}
	require.Equal(t, 3, cast)

	// A challenged ballot never has a receipt in the audit log.
	for _, rec := range records {
		if rec.Challenge == "" {
			continue
		}
		sig := hex.EncodeToString(records[len(records)-1].Signature)
		_, err := run(t, "verify-ballot", "--info", info, "--tracking-code", rec.TrackingCode.String(), "--signature", sig, "--db", db)
		require.Error(t, err)
		break
	}

	_, err = run(t, "verify-ballot", "--info", info, "--tracking-code", "00")
	require.Error(t, err)
}

func TestParseVotes(t *testing.T) {
	votes, err := parseVotes("0:1, 1:3")
	require.NoError(t, err)
	require.Equal(t, []ballot.Vote{{Contest: 0, Choice: 1}, {Contest: 1, Choice: 3}}, votes)
	require.Equal(t, "0:1,1:3", formatVotes(votes))

	for _, bad := range []string{"", "0", "0:x", "300:1", "0:256"} {
		_, err := parseVotes(bad)
		require.Error(t, err, bad)
	}
}
