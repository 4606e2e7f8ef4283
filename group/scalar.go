package group

import (
	"crypto/rand"
	"math/big"
)

// Scalars are plain big integers kept reduced into [0, N) of the group they
// act on. The helpers below never alias their inputs.

// RandomScalar samples a uniform scalar in [0, N) from crypto/rand.
func RandomScalar(g Group) *big.Int {
	r, err := rand.Int(rand.Reader, g.N())
	if err != nil {
		panic("group: entropy source failure: " + err.Error())
	}
	return r
}

// ScalarFromBytes interprets b as a big-endian integer and reduces it
// modulo the group order. It is the Fiat-Shamir challenge derivation
// primitive, so callers should feed it a digest wider than N.
func ScalarFromBytes(g Group, b []byte) *big.Int {
	s := new(big.Int).SetBytes(b)
	return s.Mod(s, g.N())
}

// Reduce returns s mod N as a new integer.
func Reduce(g Group, s *big.Int) *big.Int {
	return new(big.Int).Mod(s, g.N())
}

func ScalarAdd(g Group, a, b *big.Int) *big.Int {
	s := new(big.Int).Add(a, b)
	return s.Mod(s, g.N())
}

func ScalarSub(g Group, a, b *big.Int) *big.Int {
	s := new(big.Int).Sub(a, b)
	return s.Mod(s, g.N())
}

func ScalarMul(g Group, a, b *big.Int) *big.Int {
	s := new(big.Int).Mul(a, b)
	return s.Mod(s, g.N())
}

func ScalarNeg(g Group, a *big.Int) *big.Int {
	s := new(big.Int).Neg(a)
	return s.Mod(s, g.N())
}

// ScalarInv returns the multiplicative inverse of a modulo N. In a
// prime-order group only zero has no inverse, and asking for it means the
// caller broke an invariant.
func ScalarInv(g Group, a *big.Int) *big.Int {
	s := new(big.Int).ModInverse(a, g.N())
	if s == nil {
		panic("group: scalar has no inverse")
	}
	return s
}
