package group

import (
	"crypto/elliptic"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ing-bank/zkrp/crypto/p256"
)

// secp256k1 points are held as zkrp affine points. The identity is the
// point with nil coordinates. The curve arithmetic of the underlying
// libraries does not handle the identity, doubling or P + (-P) uniformly,
// so those cases are resolved here before delegating.

type p256k1Group struct {
	fieldOrder *big.Int
	curveOrder *big.Int
	name       string
	curve      elliptic.Curve
}

type p256k1Point struct {
	curve *p256k1Group
	val   *p256.P256
}

const p256k1CoordLen = 32

func (g *p256k1Group) Name() string {
	return g.name
}

func (g *p256k1Group) MarshalJSON() ([]byte, error) {
	return json.Marshal(&GroupId{g.name})
}

func (g *p256k1Group) P() *big.Int {
	return g.fieldOrder
}

func (g *p256k1Group) N() *big.Int {
	return g.curveOrder
}

func (g *p256k1Group) Generator() Element {
	params := g.curve.Params()
	return &p256k1Point{
		curve: g,
		val:   &p256.P256{X: new(big.Int).Set(params.Gx), Y: new(big.Int).Set(params.Gy)},
	}
}

func (g *p256k1Group) Identity() Element {
	return &p256k1Point{
		curve: g,
		val:   &p256.P256{},
	}
}

func (g *p256k1Group) Random() Element {
	e := g.Identity()
	e.BaseScale(RandomScalar(g))
	return e
}

func (g *p256k1Group) Element() Element {
	return g.Identity()
}

func (g *p256k1Group) point(x, y *big.Int) *p256.P256 {
	if x == nil || y == nil || (x.Sign() == 0 && y.Sign() == 0) {
		return &p256.P256{}
	}
	return &p256.P256{X: x, Y: y}
}

func isInfinity(p *p256.P256) bool {
	return p.X == nil || p.Y == nil || (p.X.Sign() == 0 && p.Y.Sign() == 0)
}

func (e *p256k1Point) check(a Element) *p256k1Point {
	ey, ok := a.(*p256k1Point)
	if !ok {
		panic("incompatible group element type")
	}
	if ey.curve.name != e.curve.name {
		panic("incompatible groups")
	}
	return ey
}

func (g *p256k1Group) add(a, b *p256.P256) *p256.P256 {
	switch {
	case isInfinity(a):
		return g.point(copyInt(b.X), copyInt(b.Y))
	case isInfinity(b):
		return g.point(copyInt(a.X), copyInt(a.Y))
	case a.X.Cmp(b.X) == 0:
		if a.Y.Cmp(b.Y) != 0 {
			return &p256.P256{}
		}
		return g.point(g.curve.Double(a.X, a.Y))
	}
	return g.point(g.curve.Add(a.X, a.Y, b.X, b.Y))
}

func copyInt(x *big.Int) *big.Int {
	if x == nil {
		return nil
	}
	return new(big.Int).Set(x)
}

func (e *p256k1Point) Add(a Element, b Element) Element {
	ca := e.check(a)
	cb := e.check(b)
	e.val = e.curve.add(ca.val, cb.val)
	return e
}

func (e *p256k1Point) Subtract(a Element, b Element) Element {
	tmp := e.curve.Identity()
	tmp.Negate(b)
	e.Add(a, tmp)
	return e
}

func (e *p256k1Point) Negate(a Element) Element {
	ca := e.check(a)
	if isInfinity(ca.val) {
		e.val = &p256.P256{}
		return e
	}
	y := new(big.Int).Sub(e.curve.fieldOrder, ca.val.Y)
	e.val = &p256.P256{X: new(big.Int).Set(ca.val.X), Y: y}
	return e
}

func (e *p256k1Point) IsEqual(b Element) bool {
	cb := e.check(b)
	if isInfinity(e.val) || isInfinity(cb.val) {
		return isInfinity(e.val) && isInfinity(cb.val)
	}
	return e.val.X.Cmp(cb.val.X) == 0 && e.val.Y.Cmp(cb.val.Y) == 0
}

func (e *p256k1Point) Set(a Element) Element {
	ca := e.check(a)
	e.val = e.curve.point(copyInt(ca.val.X), copyInt(ca.val.Y))
	return e
}

func (e *p256k1Point) Scale(a Element, s *big.Int) Element {
	ca := e.check(a)
	k := new(big.Int).Mod(s, e.curve.curveOrder)
	if k.Sign() == 0 || isInfinity(ca.val) {
		e.val = &p256.P256{}
		return e
	}
	e.val = e.curve.point(e.curve.curve.ScalarMult(ca.val.X, ca.val.Y, k.Bytes()))
	return e
}

func (e *p256k1Point) BaseScale(s *big.Int) Element {
	k := new(big.Int).Mod(s, e.curve.curveOrder)
	if k.Sign() == 0 {
		e.val = &p256.P256{}
		return e
	}
	e.val = new(p256.P256).ScalarBaseMult(k)
	return e
}

func (e *p256k1Point) GroupOrder() *big.Int {
	return e.curve.curveOrder
}

func (e *p256k1Point) FieldOrder() *big.Int {
	return e.curve.fieldOrder
}

func (e *p256k1Point) MapToGroup(s string) (Element, error) {
	tmp, err := p256.MapToGroup(mapToGroupDST + e.curve.name + s)
	if err != nil {
		return nil, fmt.Errorf("hash to group failed: %w", err)
	}
	if isInfinity(tmp) {
		return nil, errors.New("hash to group produced the identity")
	}
	e.val = e.curve.point(copyInt(tmp.X), copyInt(tmp.Y))
	return e, nil
}

func (e *p256k1Point) String() string {
	return hexString(e)
}

func (e *p256k1Point) IsIdentity() bool {
	return isInfinity(e.val)
}

// MarshalBinary encodes the point in uncompressed SEC1 form. The identity
// is the single byte 0x00.
func (e *p256k1Point) MarshalBinary() ([]byte, error) {
	if isInfinity(e.val) {
		return []byte{0x00}, nil
	}
	out := make([]byte, 1+2*p256k1CoordLen)
	out[0] = 0x04
	e.val.X.FillBytes(out[1 : 1+p256k1CoordLen])
	e.val.Y.FillBytes(out[1+p256k1CoordLen:])
	return out, nil
}

func (e *p256k1Point) UnmarshalBinary(data []byte) error {
	if len(data) == 1 && data[0] == 0x00 {
		e.val = &p256.P256{}
		return nil
	}
	if len(data) != 1+2*p256k1CoordLen || data[0] != 0x04 {
		return errors.New("invalid secp256k1 point encoding")
	}
	x := new(big.Int).SetBytes(data[1 : 1+p256k1CoordLen])
	y := new(big.Int).SetBytes(data[1+p256k1CoordLen:])
	if x.Cmp(e.curve.fieldOrder) >= 0 || y.Cmp(e.curve.fieldOrder) >= 0 {
		return errors.New("coordinate out of range")
	}
	if !e.curve.curve.IsOnCurve(x, y) {
		return errors.New("point is not on the curve")
	}
	e.val = &p256.P256{X: x, Y: y}
	return nil
}

func (e *p256k1Point) MarshalJSON() ([]byte, error) {
	return marshalHexJSON(e)
}

func (e *p256k1Point) UnmarshalJSON(data []byte) error {
	return unmarshalHexJSON(data, e)
}

func SecP256k1() Group {
	p, _ := new(big.Int).SetString("fffffffffffffffffffffffffffffffffffffffffffffffffffffffefffffc2f", 16)
	n, _ := new(big.Int).SetString("fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141", 16)

	G := new(p256k1Group)
	G.fieldOrder = p
	G.curveOrder = n
	G.name = "secp256k1"
	G.curve = crypto.S256()
	return G
}
