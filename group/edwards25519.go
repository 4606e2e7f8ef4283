package group

import (
	"encoding/json"
	"errors"
	"math/big"

	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/group/edwards25519"
)

// Edwards25519 wraps the kyber twisted Edwards curve. Unlike ristretto255
// the raw curve has cofactor 8, so decoded and hashed points are forced
// into the prime-order subgroup.

type edwardsGroup struct {
	fieldOrder *big.Int
	curveOrder *big.Int
	cofactor   kyber.Scalar
	name       string
	suite      *edwards25519.SuiteEd25519
}

type edwardsPoint struct {
	curve *edwardsGroup
	val   kyber.Point
}

func (g *edwardsGroup) Name() string {
	return g.name
}

func (g *edwardsGroup) MarshalJSON() ([]byte, error) {
	return json.Marshal(&GroupId{g.name})
}

func (g *edwardsGroup) P() *big.Int {
	return g.fieldOrder
}

func (g *edwardsGroup) N() *big.Int {
	return g.curveOrder
}

func (g *edwardsGroup) Generator() Element {
	return &edwardsPoint{curve: g, val: g.suite.Point().Base()}
}

func (g *edwardsGroup) Identity() Element {
	return &edwardsPoint{curve: g, val: g.suite.Point().Null()}
}

func (g *edwardsGroup) Random() Element {
	e := g.Identity()
	e.BaseScale(RandomScalar(g))
	return e
}

func (g *edwardsGroup) Element() Element {
	return g.Identity()
}

// scalar converts s into a kyber scalar, which is little-endian on the wire.
func (g *edwardsGroup) scalar(s *big.Int) kyber.Scalar {
	k := new(big.Int).Mod(s, g.curveOrder)
	buf := k.FillBytes(make([]byte, 32))
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return g.suite.Scalar().SetBytes(buf)
}

// inSubgroup reports whether [N]P is the identity.
func (g *edwardsGroup) inSubgroup(p kyber.Point) bool {
	nMinusOne := new(big.Int).Sub(g.curveOrder, one)
	q := g.suite.Point().Mul(g.scalar(nMinusOne), p)
	q.Add(q, p)
	return q.Equal(g.suite.Point().Null())
}

func (e *edwardsPoint) check(a Element) *edwardsPoint {
	ey, ok := a.(*edwardsPoint)
	if !ok {
		panic("incompatible group element type")
	}
	if ey.curve.name != e.curve.name {
		panic("incompatible groups")
	}
	return ey
}

func (e *edwardsPoint) Add(a Element, b Element) Element {
	ca := e.check(a)
	cb := e.check(b)
	e.val = e.curve.suite.Point().Add(ca.val, cb.val)
	return e
}

func (e *edwardsPoint) Subtract(a Element, b Element) Element {
	ca := e.check(a)
	cb := e.check(b)
	e.val = e.curve.suite.Point().Sub(ca.val, cb.val)
	return e
}

func (e *edwardsPoint) Negate(a Element) Element {
	ca := e.check(a)
	e.val = e.curve.suite.Point().Neg(ca.val)
	return e
}

func (e *edwardsPoint) IsEqual(b Element) bool {
	cb := e.check(b)
	return e.val.Equal(cb.val)
}

func (e *edwardsPoint) Set(a Element) Element {
	ca := e.check(a)
	e.val = ca.val.Clone()
	return e
}

func (e *edwardsPoint) Scale(a Element, s *big.Int) Element {
	ca := e.check(a)
	e.val = e.curve.suite.Point().Mul(e.curve.scalar(s), ca.val)
	return e
}

func (e *edwardsPoint) BaseScale(s *big.Int) Element {
	e.val = e.curve.suite.Point().Mul(e.curve.scalar(s), nil)
	return e
}

func (e *edwardsPoint) GroupOrder() *big.Int {
	return e.curve.curveOrder
}

func (e *edwardsPoint) FieldOrder() *big.Int {
	return e.curve.fieldOrder
}

// MapToGroup seeds the suite XOF with s, picks a curve point from its
// stream and clears the cofactor.
func (e *edwardsPoint) MapToGroup(s string) (Element, error) {
	xof := e.curve.suite.XOF([]byte(mapToGroupDST + e.curve.name + s))
	picked := e.curve.suite.Point().Pick(xof)
	p := e.curve.suite.Point().Mul(e.curve.cofactor, picked)
	if p.Equal(e.curve.suite.Point().Null()) {
		return nil, errors.New("hash to group produced the identity")
	}
	e.val = p
	return e, nil
}

func (e *edwardsPoint) String() string {
	return hexString(e)
}

func (e *edwardsPoint) IsIdentity() bool {
	return e.val.Equal(e.curve.suite.Point().Null())
}

func (e *edwardsPoint) MarshalBinary() ([]byte, error) {
	return e.val.MarshalBinary()
}

func (e *edwardsPoint) UnmarshalBinary(data []byte) error {
	p := e.curve.suite.Point()
	if len(data) != p.MarshalSize() {
		return errors.New("invalid edwards25519 point length")
	}
	if err := p.UnmarshalBinary(data); err != nil {
		return err
	}
	if !e.curve.inSubgroup(p) {
		return errors.New("point is not in the prime-order subgroup")
	}
	e.val = p
	return nil
}

func (e *edwardsPoint) MarshalJSON() ([]byte, error) {
	return marshalHexJSON(e)
}

func (e *edwardsPoint) UnmarshalJSON(data []byte) error {
	return unmarshalHexJSON(data, e)
}

func Edwards25519() Group {
	p, _ := new(big.Int).SetString("7fffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffed", 16)
	n, _ := new(big.Int).SetString("1000000000000000000000000000000014def9dea2f79cd65812631a5cf5d3ed", 16)

	G := new(edwardsGroup)
	G.fieldOrder = p
	G.curveOrder = n
	G.name = "edwards25519"
	G.suite = edwards25519.NewBlakeSHA256Ed25519()
	G.cofactor = G.suite.Scalar().SetInt64(8)
	return G
}
