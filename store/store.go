// Package store publishes signed election artifacts in a bolt database.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	bolt "go.etcd.io/bbolt"

	"github.com/takakv/e2easy/log"
)

var (
	artifactBucket  = []byte("artifacts")
	signatureBucket = []byte("signatures")
)

// OpenPerm is the permission of a new database file.
const OpenPerm = 0660

var (
	ErrNotFound = errors.New("store: artifact not found")
	ErrExists   = errors.New("store: artifact already published")
)

// BoltStore keeps every artifact next to its detached signature. Published
// artifacts are immutable.
type BoltStore struct {
	sync.Mutex
	db *bolt.DB

	log log.Logger
}

func Open(ctx context.Context, l log.Logger, path string) (*BoltStore, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	db, err := bolt.Open(path, OpenPerm, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{artifactBucket, signatureBucket} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltStore{db: db, log: l}, nil
}

// Put publishes an artifact and its signature in one transaction.
func (s *BoltStore) Put(ctx context.Context, name string, data, sig []byte) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	s.Lock()
	defer s.Unlock()
	err := s.db.Update(func(tx *bolt.Tx) error {
		artifacts := tx.Bucket(artifactBucket)
		key := []byte(name)
		if artifacts.Get(key) != nil {
			return fmt.Errorf("%w: %s", ErrExists, name)
		}
		if err := artifacts.Put(key, data); err != nil {
			return err
		}
		return tx.Bucket(signatureBucket).Put(key, sig)
	})
	if err == nil {
		s.log.Debugw("artifact published", "name", name, "size", len(data))
	}
	return err
}

// Get returns copies of an artifact and its signature.
func (s *BoltStore) Get(ctx context.Context, name string) (data, sig []byte, err error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	default:
	}

	err = s.db.View(func(tx *bolt.Tx) error {
		key := []byte(name)
		d := tx.Bucket(artifactBucket).Get(key)
		if d == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		// bolt values are only valid inside the transaction.
		data = append([]byte(nil), d...)
		sig = append([]byte(nil), tx.Bucket(signatureBucket).Get(key)...)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return data, sig, nil
}

// Names lists the published artifacts in key order.
func (s *BoltStore) Names(ctx context.Context) ([]string, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(artifactBucket).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names, err
}

func (s *BoltStore) Close() error {
	s.Lock()
	defer s.Unlock()
	err := s.db.Close()
	if err != nil {
		s.log.Errorw("closing artifact store", "err", err)
	}
	return err
}
