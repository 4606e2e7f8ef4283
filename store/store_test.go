package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/takakv/e2easy/log"
)

func openTest(t *testing.T, path string) *BoltStore {
	s, err := Open(context.Background(), log.Nop(), path)
	require.NoError(t, err)
	return s
}

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "artifacts.db")
	s := openTest(t, path)

	require.NoError(t, s.Put(ctx, "rdcv", []byte(`{"entries":[]}`), []byte{1, 2}))
	require.NoError(t, s.Put(ctx, "rdv_prime", []byte(`{}`), []byte{3}))
	require.ErrorIs(t, s.Put(ctx, "rdcv", []byte(`{}`), nil), ErrExists)

	data, sig, err := s.Get(ctx, "rdcv")
	require.NoError(t, err)
	require.Equal(t, `{"entries":[]}`, string(data))
	require.Equal(t, []byte{1, 2}, sig)

	_, _, err = s.Get(ctx, "zkp_output")
	require.ErrorIs(t, err, ErrNotFound)

	names, err := s.Names(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"rdcv", "rdv_prime"}, names)
	require.NoError(t, s.Close())

	// Artifacts survive a reopen.
	s = openTest(t, path)
	defer s.Close()
	data, _, err = s.Get(ctx, "rdv_prime")
	require.NoError(t, err)
	require.Equal(t, `{}`, string(data))
}

func TestCancelledContext(t *testing.T) {
	s := openTest(t, filepath.Join(t.TempDir(), "artifacts.db"))
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, s.Put(ctx, "rdcv", nil, nil), context.Canceled)
	_, _, err := s.Get(ctx, "rdcv")
	require.ErrorIs(t, err, context.Canceled)
	_, err = s.Names(ctx)
	require.ErrorIs(t, err, context.Canceled)

	_, err = Open(ctx, log.Nop(), filepath.Join(t.TempDir(), "x.db"))
	require.ErrorIs(t, err, context.Canceled)
}
