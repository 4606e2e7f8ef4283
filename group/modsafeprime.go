package group

import (
	"crypto/sha512"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var one = big.NewInt(1)

// ModPElement is an element of the order-q subgroup of quadratic residues
// modulo a safe prime p = 2q + 1.
type ModPElement struct {
	group *ModPGroup
	val   *big.Int
}

type ModPGroup struct {
	gen        *big.Int
	fieldOrder *big.Int
	groupOrder *big.Int
	byteLen    int
	name       string
}

func (g *ModPGroup) Name() string {
	return g.name
}

func (g *ModPGroup) MarshalJSON() ([]byte, error) {
	return json.Marshal(&GroupId{g.name})
}

func (g *ModPGroup) equals(h *ModPGroup) bool {
	if g == h {
		return true
	}
	return g.fieldOrder.Cmp(h.fieldOrder) == 0 && g.gen.Cmp(h.gen) == 0
}

func (g *ModPGroup) P() *big.Int {
	return g.fieldOrder
}

func (g *ModPGroup) N() *big.Int {
	return g.groupOrder
}

func (g *ModPGroup) Generator() Element {
	return &ModPElement{
		group: g,
		val:   new(big.Int).Set(g.gen),
	}
}

func (g *ModPGroup) Identity() Element {
	return &ModPElement{
		group: g,
		val:   big.NewInt(1),
	}
}

func (g *ModPGroup) Random() Element {
	e := g.Identity()
	e.BaseScale(RandomScalar(g))
	return e
}

func (g *ModPGroup) Element() Element {
	return g.Identity()
}

// isMember reports whether v lies in the order-q subgroup.
func (g *ModPGroup) isMember(v *big.Int) bool {
	if v.Sign() <= 0 || v.Cmp(g.fieldOrder) >= 0 {
		return false
	}
	return new(big.Int).Exp(v, g.groupOrder, g.fieldOrder).Cmp(one) == 0
}

func (e *ModPElement) check(a Element) *ModPElement {
	ey, ok := a.(*ModPElement)
	if !ok {
		panic("incompatible group element type")
	}
	if !e.group.equals(ey.group) {
		panic("incompatible groups")
	}
	return ey
}

func (e *ModPElement) Add(a Element, b Element) Element {
	ex := e.check(a)
	ey := e.check(b)
	e.val = new(big.Int).Mul(ex.val, ey.val)
	e.val.Mod(e.val, e.group.fieldOrder)
	return e
}

func (e *ModPElement) Subtract(a Element, b Element) Element {
	tmp := e.group.Identity()
	tmp.Negate(b)
	e.Add(a, tmp)
	return e
}

func (e *ModPElement) Negate(a Element) Element {
	ex := e.check(a)
	inv := new(big.Int).ModInverse(ex.val, e.group.fieldOrder)
	if inv == nil {
		panic("element has no inverse")
	}
	e.val = inv
	return e
}

func (e *ModPElement) IsEqual(b Element) bool {
	ey := e.check(b)
	return e.val.Cmp(ey.val) == 0
}

func (e *ModPElement) Set(a Element) Element {
	ex := e.check(a)
	e.val = new(big.Int).Set(ex.val)
	return e
}

func (e *ModPElement) Scale(a Element, s *big.Int) Element {
	ex := e.check(a)
	k := new(big.Int).Mod(s, e.group.groupOrder)
	e.val = new(big.Int).Exp(ex.val, k, e.group.fieldOrder)
	return e
}

func (e *ModPElement) BaseScale(s *big.Int) Element {
	k := new(big.Int).Mod(s, e.group.groupOrder)
	e.val = new(big.Int).Exp(e.group.gen, k, e.group.fieldOrder)
	return e
}

func (e *ModPElement) GroupOrder() *big.Int {
	return e.group.groupOrder
}

func (e *ModPElement) FieldOrder() *big.Int {
	return e.group.fieldOrder
}

func (e *ModPElement) String() string {
	return e.val.Text(16)
}

func (e *ModPElement) IsIdentity() bool {
	return e.val.Cmp(one) == 0
}

// MapToGroup hashes s to an integer modulo p and squares it, which lands in
// the subgroup of quadratic residues with no known logarithm to the base g.
func (e *ModPElement) MapToGroup(s string) (Element, error) {
	for ctr := uint32(0); ctr < 256; ctr++ {
		x := new(big.Int).SetBytes(expandMessage(s, ctr, e.group.byteLen+16))
		x.Mod(x, e.group.fieldOrder)
		x.Exp(x, big.NewInt(2), e.group.fieldOrder)
		if x.Cmp(one) > 0 {
			e.val = x
			return e, nil
		}
	}
	return nil, errors.New("hash to group failed")
}

// expandMessage stretches s into n pseudo-random bytes with SHA-512 in
// counter mode.
func expandMessage(s string, ctr uint32, n int) []byte {
	out := make([]byte, 0, n+sha512.Size)
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[:4], ctr)
	for block := uint32(0); len(out) < n; block++ {
		binary.BigEndian.PutUint32(hdr[4:], block)
		h := sha512.New()
		h.Write([]byte(mapToGroupDST + "modp-"))
		h.Write(hdr[:])
		h.Write([]byte(s))
		out = h.Sum(out)
	}
	return out[:n]
}

func (e *ModPElement) MarshalBinary() ([]byte, error) {
	return e.val.FillBytes(make([]byte, e.group.byteLen)), nil
}

func (e *ModPElement) UnmarshalBinary(data []byte) error {
	if len(data) != e.group.byteLen {
		return fmt.Errorf("invalid element length %d, want %d", len(data), e.group.byteLen)
	}
	v := new(big.Int).SetBytes(data)
	if !e.group.isMember(v) {
		return errors.New("value is not in the prime-order subgroup")
	}
	e.val = v
	return nil
}

func (e *ModPElement) MarshalJSON() ([]byte, error) {
	return marshalHexJSON(e)
}

func (e *ModPElement) UnmarshalJSON(data []byte) error {
	return unmarshalHexJSON(data, e)
}

// NewModPGroup builds the subgroup of quadratic residues modulo the safe
// prime given in hex (whitespace is ignored). The generator must itself be
// a quadratic residue.
func NewModPGroup(name string, fieldOrder, generator string) Group {
	repr := strings.Join(strings.Fields(fieldOrder), "")

	ffOrder, ok := new(big.Int).SetString(repr, 16)
	if !ok {
		panic("invalid group definition")
	}

	gen, ok := new(big.Int).SetString(generator, 16)
	if !ok {
		panic("invalid generator")
	}

	genOrder := new(big.Int).Set(ffOrder)
	genOrder.Sub(genOrder, big.NewInt(1))
	genOrder.Div(genOrder, big.NewInt(2))

	G := new(ModPGroup)
	G.fieldOrder = ffOrder
	G.groupOrder = genOrder
	G.gen = gen
	G.byteLen = (ffOrder.BitLen() + 7) / 8
	G.name = name

	if !G.isMember(gen) {
		panic("generator is not in the prime-order subgroup")
	}
	return G
}

// RFC3526ModPGroup3072 returns the 3072-bit MODP group of RFC 3526 with
// generator 2, which is a quadratic residue for this prime.
func RFC3526ModPGroup3072() Group {
	return NewModPGroup(
		"RFC3526ModPGroup3072",
		`FFFFFFFF FFFFFFFF C90FDAA2 2168C234 C4C6628B 80DC1CD1
		29024E08 8A67CC74 020BBEA6 3B139B22 514A0879 8E3404DD
		EF9519B3 CD3A431B 302B0A6D F25F1437 4FE1356D 6D51C245
		E485B576 625E7EC6 F44C42E9 A637ED6B 0BFF5CB6 F406B7ED
		EE386BFB 5A899FA5 AE9F2411 7C4B1FE6 49286651 ECE45B3D
		C2007CB8 A163BF05 98DA4836 1C55D39A 69163FA8 FD24CF5F
		83655D23 DCA3AD96 1C62F356 208552BB 9ED52907 7096966D
		670C354E 4ABC9804 F1746C08 CA18217C 32905E46 2E36CE3B
		E39E772C 180E8603 9B2783A2 EC07A28F B5C55DF0 6F4C52C9
		DE2BCBF6 95581718 3995497C EA956AE5 15D22618 98FA0510
		15728E5A 8AAAC42D AD33170D 04507A33 A85521AB DF1CBA64
		ECFB8504 58DBEF0A 8AEA7157 5D060C7D B3970F85 A6E1E4C7
		ABF5AE8C DB0933D7 1E8C94E0 4A25619D CEE3D226 1AD2EE6B
		F12FFA06 D98A0864 D8760273 3EC86A64 521F2B18 177B200C
		BBE11757 7A615D6C 770988C0 BAD946E2 08E24FA0 74E5AB31
		43DB5BFC E0FD108E 4B82D120 A93AD2CA FFFFFFFF FFFFFFFF
		`, "2")
}
