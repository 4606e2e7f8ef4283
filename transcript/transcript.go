// Package transcript implements the canonical byte encoding hashed by the
// Fiat-Shamir challenges of the shuffle proof and by the ballot hash chain.
//
// A transcript is the domain label followed by a sequence of labelled
// items. Every item is written as
//
//	u32 len(label) || label || u64 len(data) || data
//
// with big-endian integers, so two different sequences of items can never
// produce the same byte stream.
package transcript

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding"
	"encoding/binary"
	"fmt"
	"hash"
	"math/big"

	"github.com/takakv/e2easy/group"
)

type Transcript struct {
	h   hash.Hash
	new func() hash.Hash
}

// New starts a SHA-512 transcript, the variant used for challenges.
func New(domain string) *Transcript {
	return start(sha512.New, domain)
}

// NewSHA256 starts a SHA-256 transcript, the variant used for tracking codes.
func NewSHA256(domain string) *Transcript {
	return start(sha256.New, domain)
}

func start(f func() hash.Hash, domain string) *Transcript {
	t := &Transcript{h: f(), new: f}
	var l [4]byte
	binary.BigEndian.PutUint32(l[:], uint32(len(domain)))
	t.h.Write(l[:])
	t.h.Write([]byte(domain))
	return t
}

func (t *Transcript) header(label string, n uint64) {
	var l [4]byte
	binary.BigEndian.PutUint32(l[:], uint32(len(label)))
	t.h.Write(l[:])
	t.h.Write([]byte(label))
	var d [8]byte
	binary.BigEndian.PutUint64(d[:], n)
	t.h.Write(d[:])
}

// AppendMessage adds a labelled byte string.
func (t *Transcript) AppendMessage(label string, data []byte) *Transcript {
	t.header(label, uint64(len(data)))
	t.h.Write(data)
	return t
}

func (t *Transcript) AppendUint64(label string, v uint64) *Transcript {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return t.AppendMessage(label, b[:])
}

// AppendScalar adds s as a minimal big-endian byte string.
func (t *Transcript) AppendScalar(label string, s *big.Int) *Transcript {
	return t.AppendMessage(label, s.Bytes())
}

// AppendElement adds the canonical binary encoding of e.
func (t *Transcript) AppendElement(label string, e encoding.BinaryMarshaler) *Transcript {
	return t.AppendMessage(label, mustEncode(e))
}

// AppendElements adds a list as u64 count followed by every element's
// length-prefixed canonical encoding.
func (t *Transcript) AppendElements(label string, list []group.Element) *Transcript {
	encs := make([][]byte, len(list))
	total := uint64(8)
	for i, e := range list {
		encs[i] = mustEncode(e)
		total += 8 + uint64(len(encs[i]))
	}
	t.header(label, total)
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(len(list)))
	t.h.Write(b[:])
	for _, enc := range encs {
		binary.BigEndian.PutUint64(b[:], uint64(len(enc)))
		t.h.Write(b[:])
		t.h.Write(enc)
	}
	return t
}

// Clone returns an independent transcript with the same state.
func (t *Transcript) Clone() *Transcript {
	m, ok := t.h.(encoding.BinaryMarshaler)
	if !ok {
		panic("transcript: hash state cannot be cloned")
	}
	state, err := m.MarshalBinary()
	if err != nil {
		panic(fmt.Sprintf("transcript: %v", err))
	}
	h := t.new()
	if err := h.(encoding.BinaryUnmarshaler).UnmarshalBinary(state); err != nil {
		panic(fmt.Sprintf("transcript: %v", err))
	}
	return &Transcript{h: h, new: t.new}
}

// Sum returns the digest of everything appended so far. The transcript
// stays usable.
func (t *Transcript) Sum() []byte {
	return t.h.Sum(nil)
}

// Challenge reduces the digest modulo the order of g.
func (t *Transcript) Challenge(g group.Group) *big.Int {
	return group.ScalarFromBytes(g, t.Sum())
}

// Encoding failures come from broken backends only.
func mustEncode(e encoding.BinaryMarshaler) []byte {
	b, err := e.MarshalBinary()
	if err != nil {
		panic(fmt.Sprintf("transcript: cannot encode element: %v", err))
	}
	return b
}
