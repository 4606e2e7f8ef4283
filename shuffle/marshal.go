package shuffle

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/takakv/e2easy/group"
)

// Scalars travel as lower-case hex strings, elements as the hex string of
// their canonical encoding.

type proofCommitJSON struct {
	T0   group.Element   `json:"t0"`
	T1   group.Element   `json:"t1"`
	T2   group.Element   `json:"t2"`
	T3   group.Element   `json:"t3"`
	THat []group.Element `json:"t_hat"`
}

type proofResponseJSON struct {
	S0     string   `json:"s0"`
	S1     string   `json:"s1"`
	S2     string   `json:"s2"`
	S3     string   `json:"s3"`
	SHat   []string `json:"s_hat"`
	SPrime []string `json:"s_prime"`
}

type proofJSON struct {
	T        proofCommitJSON   `json:"t"`
	S        proofResponseJSON `json:"s"`
	CList    []group.Element   `json:"c_list"`
	CHatList []group.Element   `json:"c_hat_list"`
}

type rawProofJSON struct {
	T struct {
		T0   json.RawMessage   `json:"t0"`
		T1   json.RawMessage   `json:"t1"`
		T2   json.RawMessage   `json:"t2"`
		T3   json.RawMessage   `json:"t3"`
		THat []json.RawMessage `json:"t_hat"`
	} `json:"t"`
	S        proofResponseJSON `json:"s"`
	CList    []json.RawMessage `json:"c_list"`
	CHatList []json.RawMessage `json:"c_hat_list"`
}

func (p *Proof) MarshalJSON() ([]byte, error) {
	return json.Marshal(proofJSON{
		T: proofCommitJSON{T0: p.T0, T1: p.T1, T2: p.T2, T3: p.T3, THat: p.THat},
		S: proofResponseJSON{
			S0: p.S0.Text(16), S1: p.S1.Text(16), S2: p.S2.Text(16), S3: p.S3.Text(16),
			SHat:   ScalarStrings(p.SHat),
			SPrime: ScalarStrings(p.SPrime),
		},
		CList:    p.CList,
		CHatList: p.CHatList,
	})
}

// ProofUnmarshalJSON decodes a proof whose elements belong to g.
func ProofUnmarshalJSON(b []byte, g group.Group) (*Proof, error) {
	var tmp rawProofJSON
	if err := json.Unmarshal(b, &tmp); err != nil {
		return nil, err
	}

	var err error
	p := new(Proof)
	if p.T0, err = DecodeElement(g, tmp.T.T0); err != nil {
		return nil, fmt.Errorf("t0: %w", err)
	}
	if p.T1, err = DecodeElement(g, tmp.T.T1); err != nil {
		return nil, fmt.Errorf("t1: %w", err)
	}
	if p.T2, err = DecodeElement(g, tmp.T.T2); err != nil {
		return nil, fmt.Errorf("t2: %w", err)
	}
	if p.T3, err = DecodeElement(g, tmp.T.T3); err != nil {
		return nil, fmt.Errorf("t3: %w", err)
	}
	if p.THat, err = DecodeElements(g, tmp.T.THat); err != nil {
		return nil, fmt.Errorf("t_hat: %w", err)
	}
	if p.CList, err = DecodeElements(g, tmp.CList); err != nil {
		return nil, fmt.Errorf("c_list: %w", err)
	}
	if p.CHatList, err = DecodeElements(g, tmp.CHatList); err != nil {
		return nil, fmt.Errorf("c_hat_list: %w", err)
	}

	for _, f := range []struct {
		dst **big.Int
		src string
	}{{&p.S0, tmp.S.S0}, {&p.S1, tmp.S.S1}, {&p.S2, tmp.S.S2}, {&p.S3, tmp.S.S3}} {
		if *f.dst, err = ParseScalar(f.src); err != nil {
			return nil, err
		}
	}
	if p.SHat, err = ParseScalars(tmp.S.SHat); err != nil {
		return nil, fmt.Errorf("s_hat: %w", err)
	}
	if p.SPrime, err = ParseScalars(tmp.S.SPrime); err != nil {
		return nil, fmt.Errorf("s_prime: %w", err)
	}
	return p, nil
}

// DecodeElement decodes one JSON element of g.
func DecodeElement(g group.Group, raw json.RawMessage) (group.Element, error) {
	if len(raw) == 0 {
		return nil, errors.New("missing element")
	}
	e := g.Element()
	if err := e.UnmarshalJSON(raw); err != nil {
		return nil, err
	}
	return e, nil
}

func DecodeElements(g group.Group, raws []json.RawMessage) ([]group.Element, error) {
	out := make([]group.Element, len(raws))
	for i, raw := range raws {
		e, err := DecodeElement(g, raw)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = e
	}
	return out, nil
}

func ParseScalar(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 16)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid scalar %q", s)
	}
	return v, nil
}

func ParseScalars(list []string) ([]*big.Int, error) {
	out := make([]*big.Int, len(list))
	for i, s := range list {
		v, err := ParseScalar(s)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// ScalarStrings is the inverse of ParseScalars.
func ScalarStrings(list []*big.Int) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.Text(16)
	}
	return out
}
