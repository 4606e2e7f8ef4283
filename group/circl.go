package group

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"

	"github.com/cloudflare/circl/group"
)

// mapToGroupDST domain-separates the hash-to-curve calls of this module
// from any other user of the same curves.
const mapToGroupDST = "E2EASY-V01-CS01-with-"

type circlGroup struct {
	fieldOrder *big.Int
	curveOrder *big.Int
	name       string
	g          group.Group
}

type circlPoint struct {
	curve *circlGroup
	val   group.Element
}

func (g *circlGroup) Name() string {
	return g.name
}

func (g *circlGroup) MarshalJSON() ([]byte, error) {
	return json.Marshal(&GroupId{g.name})
}

func (g *circlGroup) P() *big.Int {
	return g.fieldOrder
}

func (g *circlGroup) N() *big.Int {
	return g.curveOrder
}

func (g *circlGroup) Generator() Element {
	return &circlPoint{
		curve: g,
		val:   g.g.Generator(),
	}
}

func (g *circlGroup) Identity() Element {
	return &circlPoint{
		curve: g,
		val:   g.g.Identity(),
	}
}

func (g *circlGroup) Random() Element {
	return &circlPoint{
		curve: g,
		val:   g.g.RandomElement(rand.Reader),
	}
}

func (g *circlGroup) Element() Element {
	return &circlPoint{
		curve: g,
		val:   g.g.NewElement(),
	}
}

func (g *circlGroup) scalar(s *big.Int) group.Scalar {
	k := new(big.Int).Mod(s, g.curveOrder)
	return g.g.NewScalar().SetBigInt(k)
}

func (e *circlPoint) check(a Element) *circlPoint {
	ey, ok := a.(*circlPoint)
	if !ok {
		panic("incompatible group element type")
	}
	if ey.curve.name != e.curve.name {
		panic("incompatible groups")
	}
	return ey
}

func (e *circlPoint) Add(a Element, b Element) Element {
	ca := e.check(a)
	cb := e.check(b)
	e.val = e.curve.g.NewElement().Add(ca.val, cb.val)
	return e
}

func (e *circlPoint) Subtract(a Element, b Element) Element {
	tmp := e.curve.Identity()
	tmp.Negate(b)
	e.Add(a, tmp)
	return e
}

func (e *circlPoint) Negate(a Element) Element {
	ca := e.check(a)
	e.val = e.curve.g.NewElement().Neg(ca.val)
	return e
}

func (e *circlPoint) IsEqual(b Element) bool {
	cb := e.check(b)
	return e.val.IsEqual(cb.val)
}

func (e *circlPoint) Set(x Element) Element {
	ca := e.check(x)
	e.val = e.curve.g.NewElement().Set(ca.val)
	return e
}

func (e *circlPoint) Scale(x Element, s *big.Int) Element {
	ex := e.check(x)
	e.val = e.curve.g.NewElement().Mul(ex.val, e.curve.scalar(s))
	return e
}

func (e *circlPoint) BaseScale(s *big.Int) Element {
	e.val = e.curve.g.NewElement().MulGen(e.curve.scalar(s))
	return e
}

func (e *circlPoint) GroupOrder() *big.Int {
	return e.curve.curveOrder
}

func (e *circlPoint) FieldOrder() *big.Int {
	return e.curve.fieldOrder
}

func (e *circlPoint) MapToGroup(s string) (Element, error) {
	dst := []byte(mapToGroupDST + e.curve.name)
	val := e.curve.g.HashToElement([]byte(s), dst)
	if val.IsIdentity() {
		return nil, errors.New("hash to group produced the identity")
	}
	e.val = val
	return e, nil
}

func (e *circlPoint) String() string {
	return hexString(e)
}

func (e *circlPoint) IsIdentity() bool {
	return e.val.IsIdentity()
}

func (e *circlPoint) MarshalBinary() ([]byte, error) {
	return e.val.MarshalBinary()
}

func (e *circlPoint) UnmarshalBinary(data []byte) error {
	val := e.curve.g.NewElement()
	if err := val.UnmarshalBinary(data); err != nil {
		return err
	}
	e.val = val
	return nil
}

func (e *circlPoint) MarshalJSON() ([]byte, error) {
	return marshalHexJSON(e)
}

func (e *circlPoint) UnmarshalJSON(data []byte) error {
	return unmarshalHexJSON(data, e)
}

func newCirclGroup(name string, g group.Group, p, n string) Group {
	fieldOrder, _ := new(big.Int).SetString(p, 16)
	curveOrder, _ := new(big.Int).SetString(n, 16)

	G := new(circlGroup)
	G.fieldOrder = fieldOrder
	G.curveOrder = curveOrder
	G.name = name
	G.g = g
	return G
}

func P256() Group {
	return newCirclGroup("P-256", group.P256,
		"ffffffff00000001000000000000000000000000ffffffffffffffffffffffff",
		"ffffffff00000000ffffffffffffffffbce6faada7179e84f3b9cac2fc632551")
}

func P384() Group {
	return newCirclGroup("P-384", group.P384,
		"fffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffeffffffff0000000000000000ffffffff",
		"ffffffffffffffffffffffffffffffffffffffffffffffffc7634d81f4372ddf581a0db248b0a77aecec196accc52973")
}

func Ristretto255() Group {
	return newCirclGroup("ristretto255", group.Ristretto255,
		"7fffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffed",
		"1000000000000000000000000000000014def9dea2f79cd65812631a5cf5d3ed")
}
