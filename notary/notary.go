// Package notary signs published election artifacts and verifies those
// signatures.
package notary

import (
	"crypto/ecdsa"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/cloudflare/circl/sign/ed25519"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	Ed25519   = "ed25519"
	Secp256k1 = "secp256k1"
)

var (
	ErrUnknownScheme = errors.New("notary: unknown signature scheme")
	ErrBadSignature  = errors.New("notary: invalid signature")
)

// Signer produces detached signatures under a single key.
type Signer interface {
	Scheme() string
	PublicKey() []byte
	Sign(msg []byte) ([]byte, error)
}

// NewSigner creates a signer with a fresh key for scheme.
func NewSigner(scheme string) (Signer, error) {
	switch scheme {
	case Ed25519:
		_, sk, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, err
		}
		return &edSigner{sk: sk}, nil
	case Secp256k1:
		sk, err := crypto.GenerateKey()
		if err != nil {
			return nil, err
		}
		return &k1Signer{sk: sk}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
}

// SignerFromSeed rebuilds a signer from a 32-byte secret.
func SignerFromSeed(scheme string, seed []byte) (Signer, error) {
	switch scheme {
	case Ed25519:
		if len(seed) != ed25519.SeedSize {
			return nil, fmt.Errorf("notary: ed25519 seed must be %d bytes", ed25519.SeedSize)
		}
		return &edSigner{sk: ed25519.NewKeyFromSeed(seed)}, nil
	case Secp256k1:
		sk, err := crypto.ToECDSA(seed)
		if err != nil {
			return nil, err
		}
		return &k1Signer{sk: sk}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
}

// Verify checks sig over msg under the public key pub of scheme.
func Verify(scheme string, pub, msg, sig []byte) error {
	switch scheme {
	case Ed25519:
		if len(pub) != ed25519.PublicKeySize {
			return ErrBadSignature
		}
		if !ed25519.Verify(ed25519.PublicKey(pub), msg, sig) {
			return ErrBadSignature
		}
		return nil
	case Secp256k1:
		// Signatures carry a trailing recovery byte that the check ignores.
		if len(sig) != crypto.SignatureLength {
			return ErrBadSignature
		}
		if !crypto.VerifySignature(pub, crypto.Keccak256(msg), sig[:crypto.RecoveryIDOffset]) {
			return ErrBadSignature
		}
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
}

type edSigner struct {
	sk ed25519.PrivateKey
}

func (s *edSigner) Scheme() string {
	return Ed25519
}

func (s *edSigner) PublicKey() []byte {
	return []byte(s.sk.Public().(ed25519.PublicKey))
}

func (s *edSigner) Sign(msg []byte) ([]byte, error) {
	return ed25519.Sign(s.sk, msg), nil
}

type k1Signer struct {
	sk *ecdsa.PrivateKey
}

func (s *k1Signer) Scheme() string {
	return Secp256k1
}

// PublicKey returns the uncompressed SEC1 encoding.
func (s *k1Signer) PublicKey() []byte {
	return crypto.FromECDSAPub(&s.sk.PublicKey)
}

func (s *k1Signer) Sign(msg []byte) ([]byte, error) {
	return crypto.Sign(crypto.Keccak256(msg), s.sk)
}
