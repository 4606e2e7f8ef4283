package config

import (
	"encoding/json"
	"fmt"

	"github.com/takakv/e2easy/group"
	"github.com/takakv/e2easy/pedersen"
)

const setupDomain = "e2easy/setup/v1/"

// Params are the immutable public parameters of an election. They are built
// once by Setup or decoded from an InfoContest file and shared by reference.
type Params struct {
	Group      group.Group
	ElectionID string
	Scheme     string
	H          group.Element
	HList      []group.Element
	Contests   []Contest
}

// Setup derives the commitment generators of e by hashing into the group,
// so that nobody knows a discrete log relation between them.
func Setup(e *Election) (*Params, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	g, err := group.ByName(e.Group)
	if err != nil {
		return nil, err
	}
	h, hList, err := derive(g, e.ID, e.Capacity())
	if err != nil {
		return nil, err
	}
	return &Params{
		Group:      g,
		ElectionID: e.ID,
		Scheme:     e.Scheme,
		H:          h,
		HList:      hList,
		Contests:   append([]Contest(nil), e.Contests...),
	}, nil
}

func derive(g group.Group, id string, n int) (group.Element, []group.Element, error) {
	h, err := g.Element().MapToGroup(setupDomain + id + "/h")
	if err != nil {
		return nil, nil, fmt.Errorf("deriving h: %w", err)
	}
	hList := make([]group.Element, n)
	for i := range hList {
		if hList[i], err = g.Element().MapToGroup(fmt.Sprintf("%s%s/h_list/%d", setupDomain, id, i)); err != nil {
			return nil, nil, fmt.Errorf("deriving h_list[%d]: %w", i, err)
		}
	}
	return h, hList, nil
}

// CheckDerivation recomputes the generators from the election id and
// compares them with the ones in p.
func (p *Params) CheckDerivation() error {
	h, hList, err := derive(p.Group, p.ElectionID, len(p.HList))
	if err != nil {
		return err
	}
	if !h.IsEqual(p.H) {
		return fmt.Errorf("%w: h", ErrUntrustedSetup)
	}
	for i := range hList {
		if !hList[i].IsEqual(p.HList[i]) {
			return fmt.Errorf("%w: h_list[%d]", ErrUntrustedSetup, i)
		}
	}
	return nil
}

func (p *Params) Pedersen() *pedersen.Pedersen {
	return pedersen.New(p.Group, p.H)
}

// Contest looks up a contest by id.
func (p *Params) Contest(id uint8) (Contest, bool) {
	for _, c := range p.Contests {
		if c.ID == id {
			return c, true
		}
	}
	return Contest{}, false
}

// Capacity is the number of per-position generators.
func (p *Params) Capacity() int {
	return len(p.HList)
}

type cryptoJSON struct {
	H     group.Element   `json:"h"`
	HList []group.Element `json:"h_list"`
}

type infoContestJSON struct {
	group.GroupId
	ElectionID string     `json:"election_id"`
	Scheme     string     `json:"signature_scheme"`
	Crypto     cryptoJSON `json:"crypto"`
	Contests   []Contest  `json:"contests"`
}

// MarshalJSON encodes p as an InfoContest document.
func (p *Params) MarshalJSON() ([]byte, error) {
	return json.Marshal(infoContestJSON{
		GroupId:    group.GroupId{Name: p.Group.Name()},
		ElectionID: p.ElectionID,
		Scheme:     p.Scheme,
		Crypto:     cryptoJSON{H: p.H, HList: p.HList},
		Contests:   p.Contests,
	})
}

// ParamsFromJSON decodes an InfoContest document. The group is read first
// so that elements decode into the right backend.
func ParamsFromJSON(b []byte) (*Params, error) {
	var id group.GroupId
	if err := json.Unmarshal(b, &id); err != nil {
		return nil, err
	}
	g, err := group.ByName(id.Name)
	if err != nil {
		return nil, err
	}

	var tmp struct {
		ElectionID string `json:"election_id"`
		Scheme     string `json:"signature_scheme"`
		Crypto     struct {
			H     json.RawMessage   `json:"h"`
			HList []json.RawMessage `json:"h_list"`
		} `json:"crypto"`
		Contests []Contest `json:"contests"`
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return nil, err
	}

	p := &Params{Group: g, ElectionID: tmp.ElectionID, Scheme: tmp.Scheme, Contests: tmp.Contests}
	p.H = g.Element()
	if err := p.H.UnmarshalJSON(tmp.Crypto.H); err != nil {
		return nil, fmt.Errorf("crypto.h: %w", err)
	}
	p.HList = make([]group.Element, len(tmp.Crypto.HList))
	for i, raw := range tmp.Crypto.HList {
		e := g.Element()
		if err := e.UnmarshalJSON(raw); err != nil {
			return nil, fmt.Errorf("crypto.h_list[%d]: %w", i, err)
		}
		p.HList[i] = e
	}
	if len(p.HList) == 0 || len(p.Contests) == 0 {
		return nil, fmt.Errorf("%w: empty generator or contest list", ErrInvalidConfig)
	}
	return p, nil
}
