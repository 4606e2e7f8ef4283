// Package shuffle implements a verifiable shuffle of Pedersen commitments:
// a re-randomized permutation of a commitment list together with a
// Wikström-style zero-knowledge proof that the output is a permutation of
// the input.
package shuffle

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/takakv/e2easy/group"
)

var (
	ErrLengthMismatch = errors.New("shuffle: list length does not match the number of generators")
	ErrNoGenerators   = errors.New("shuffle: at least one generator is required")
	ErrNotPermutation = errors.New("shuffle: not a permutation")
)

// Shuffler is the prover. hList holds one secondary generator per position;
// its length fixes the number of commitments that can be shuffled.
type Shuffler struct {
	g     group.Group
	hList []group.Element
	n     int
}

func NewShuffler(g group.Group, hList []group.Element) (*Shuffler, error) {
	if len(hList) == 0 {
		return nil, ErrNoGenerators
	}
	return &Shuffler{g: g, hList: hList, n: len(hList)}, nil
}

func (s *Shuffler) checkLen(lists ...int) error {
	for _, l := range lists {
		if l != s.n {
			return fmt.Errorf("%w: got %d, want %d", ErrLengthMismatch, l, s.n)
		}
	}
	return nil
}

// GenPermutation draws a uniformly random permutation of [0, n): position i
// takes a uniform pick from the pool of values not yet assigned.
func (s *Shuffler) GenPermutation() []int {
	pool := make([]int, s.n)
	for i := range pool {
		pool[i] = i
	}
	psi := make([]int, s.n)
	for i := 0; i < s.n; i++ {
		k := i + randIndex(s.n-i)
		psi[i] = pool[k]
		pool[k] = pool[i]
	}
	if !IsPermutation(psi) {
		panic("shuffle: generated an invalid permutation")
	}
	return psi
}

func randIndex(n int) int {
	k, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("shuffle: entropy source failure: " + err.Error())
	}
	return int(k.Int64())
}

// IsPermutation reports whether psi is a bijection on [0, len(psi)).
func IsPermutation(psi []int) bool {
	seen := make([]bool, len(psi))
	for _, v := range psi {
		if v < 0 || v >= len(psi) || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

// GenShuffle re-randomizes every commitment with a fresh G·r' term and
// permutes the result: shuffled[i] = commits[psi[i]] + G·rPrime[psi[i]].
// rPrime is indexed by the position before the permutation.
func (s *Shuffler) GenShuffle(commits []group.Element) (shuffled []group.Element, rPrime []*big.Int, psi []int, err error) {
	if err := s.checkLen(len(commits)); err != nil {
		return nil, nil, nil, err
	}

	psi = s.GenPermutation()
	rPrime = make([]*big.Int, s.n)
	recommit := make([]group.Element, s.n)
	forEach(s.n, func(i int) {
		rPrime[i] = group.RandomScalar(s.g)
		blank := s.g.Element().BaseScale(rPrime[i])
		recommit[i] = blank.Add(commits[i], blank)
	})

	shuffled = make([]group.Element, s.n)
	for i := range shuffled {
		shuffled[i] = recommit[psi[i]]
	}
	return shuffled, rPrime, psi, nil
}

// GenCommitment commits to psi: cList[psi[i]] = G·r + hList[i], with the
// randomness stored at the same index of rList.
func (s *Shuffler) GenCommitment(psi []int) (cList []group.Element, rList []*big.Int, err error) {
	if err := s.checkLen(len(psi)); err != nil {
		return nil, nil, err
	}
	if !IsPermutation(psi) {
		return nil, nil, ErrNotPermutation
	}

	cList = make([]group.Element, s.n)
	rList = make([]*big.Int, s.n)
	forEach(s.n, func(i int) {
		r := group.RandomScalar(s.g)
		c := s.g.Element().BaseScale(r)
		rList[psi[i]] = r
		cList[psi[i]] = c.Add(c, s.hList[i])
	})
	return cList, rList, nil
}

// GenCommitmentChain builds cList[i] = G·r_i + prev·uList[i] where prev is
// c0 for the first link and cList[i-1] afterwards. The chain is serial.
func (s *Shuffler) GenCommitmentChain(c0 group.Element, uList []*big.Int) (cList []group.Element, rList []*big.Int, err error) {
	if err := s.checkLen(len(uList)); err != nil {
		return nil, nil, err
	}

	cList = make([]group.Element, s.n)
	rList = make([]*big.Int, s.n)
	prev := c0
	for i := 0; i < s.n; i++ {
		rList[i] = group.RandomScalar(s.g)
		c := s.g.Element().BaseScale(rList[i])
		cList[i] = c.Add(c, s.g.Element().Scale(prev, uList[i]))
		prev = cList[i]
	}
	return cList, rList, nil
}

// GenProof proves that shuffled is a re-randomized permutation of original
// under psi, given the re-randomization scalars returned by GenShuffle.
func (s *Shuffler) GenProof(original, shuffled []group.Element, rPrime []*big.Int, psi []int) (*Proof, error) {
	if err := s.checkLen(len(original), len(shuffled), len(rPrime), len(psi)); err != nil {
		return nil, err
	}
	g := s.g
	n := s.n

	cList, rList, err := s.GenCommitment(psi)
	if err != nil {
		return nil, err
	}

	u := perIndexChallenges(g, original, shuffled, cList)
	uPrime := make([]*big.Int, n)
	for i := range uPrime {
		uPrime[i] = u[psi[i]]
	}

	cHatList, rHatList, err := s.GenCommitmentChain(s.hList[0], uPrime)
	if err != nil {
		return nil, err
	}

	// v[i] is the product of uPrime[i+1:].
	v := make([]*big.Int, n)
	v[n-1] = big.NewInt(1)
	for i := n - 2; i >= 0; i-- {
		v[i] = group.ScalarMul(g, uPrime[i+1], v[i+1])
	}

	rBar := new(big.Int)
	rHat := new(big.Int)
	rTilde := new(big.Int)
	rPrimeSum := new(big.Int)
	for i := 0; i < n; i++ {
		rBar = group.ScalarAdd(g, rBar, rList[i])
		rHat = group.ScalarAdd(g, rHat, group.ScalarMul(g, rHatList[i], v[i]))
		rTilde = group.ScalarAdd(g, rTilde, group.ScalarMul(g, rList[i], u[i]))
		rPrimeSum = group.ScalarAdd(g, rPrimeSum, group.ScalarMul(g, rPrime[i], u[i]))
	}

	w := make([]*big.Int, 4)
	for i := range w {
		w[i] = group.RandomScalar(g)
	}
	wHat := make([]*big.Int, n)
	wPrime := make([]*big.Int, n)
	for i := 0; i < n; i++ {
		wHat[i] = group.RandomScalar(g)
		wPrime[i] = group.RandomScalar(g)
	}

	t0 := g.Element().BaseScale(w[0])
	t1 := g.Element().BaseScale(w[1])

	hTerms := make([]group.Element, n)
	sTerms := make([]group.Element, n)
	tHat := make([]group.Element, n)
	forEach(n, func(i int) {
		hTerms[i] = g.Element().Scale(s.hList[i], wPrime[i])
		sTerms[i] = g.Element().Scale(shuffled[i], wPrime[i])
		prev := s.hList[0]
		if i > 0 {
			prev = cHatList[i-1]
		}
		th := g.Element().BaseScale(wHat[i])
		tHat[i] = th.Add(th, g.Element().Scale(prev, wPrime[i]))
	})

	t2 := group.Sum(g, hTerms)
	t2.Add(t2, g.Element().BaseScale(w[2]))
	t3 := group.Sum(g, sTerms)
	t3.Subtract(t3, g.Element().BaseScale(w[3]))

	c := globalChallenge(g, original, shuffled, cList, cHatList, t0, t1, t2, t3, tHat)

	respond := func(w, r *big.Int) *big.Int {
		return group.ScalarAdd(g, w, group.ScalarMul(g, c, r))
	}

	p := &Proof{
		T0: t0, T1: t1, T2: t2, T3: t3,
		THat:     tHat,
		S0:       respond(w[0], rBar),
		S1:       respond(w[1], rHat),
		S2:       respond(w[2], rTilde),
		S3:       respond(w[3], rPrimeSum),
		SHat:     make([]*big.Int, n),
		SPrime:   make([]*big.Int, n),
		CList:    cList,
		CHatList: cHatList,
	}
	for i := 0; i < n; i++ {
		p.SHat[i] = respond(wHat[i], rHatList[i])
		p.SPrime[i] = respond(wPrime[i], uPrime[i])
	}
	return p, nil
}
