// Package config reads the election definition and derives the public
// parameters every participant shares.
package config

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"github.com/takakv/e2easy/group"
)

const (
	DefaultGroup  = "ristretto255"
	DefaultScheme = "ed25519"
)

var (
	ErrInvalidConfig  = errors.New("config: invalid election")
	ErrUntrustedSetup = errors.New("config: generators do not match the election id")
)

// Contest is one race on the ballot. Choice 0 is reserved for a blank vote,
// so valid choices run from 0 to Choices inclusive.
type Contest struct {
	ID      uint8  `toml:"id" json:"contest_id"`
	Name    string `toml:"name" json:"name"`
	Choices uint8  `toml:"choices" json:"num_choices"`
}

// Election is the on-disk election definition.
type Election struct {
	Group    string    `toml:"group"`
	ID       string    `toml:"election_id"`
	Scheme   string    `toml:"signature_scheme"`
	Voters   int       `toml:"voters"`
	Contests []Contest `toml:"contests"`
}

// Load reads an election definition from a TOML file.
func Load(path string) (*Election, error) {
	e := new(Election)
	if _, err := toml.DecodeFile(path, e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return e, e.normalize()
}

// Parse reads an election definition from TOML text.
func Parse(data string) (*Election, error) {
	e := new(Election)
	if _, err := toml.Decode(data, e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return e, e.normalize()
}

// normalize fills in defaults and validates the definition. An election
// without an id gets a fresh random one.
func (e *Election) normalize() error {
	if e.Group == "" {
		e.Group = DefaultGroup
	}
	if e.Scheme == "" {
		e.Scheme = DefaultScheme
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return e.Validate()
}

func (e *Election) Validate() error {
	if _, err := group.ByName(e.Group); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := uuid.Parse(e.ID); err != nil {
		return fmt.Errorf("%w: election_id: %v", ErrInvalidConfig, err)
	}
	if e.Voters <= 0 {
		return fmt.Errorf("%w: voters must be positive", ErrInvalidConfig)
	}
	if len(e.Contests) == 0 {
		return fmt.Errorf("%w: no contests", ErrInvalidConfig)
	}
	seen := make(map[uint8]bool, len(e.Contests))
	for _, c := range e.Contests {
		if seen[c.ID] {
			return fmt.Errorf("%w: duplicate contest id %d", ErrInvalidConfig, c.ID)
		}
		seen[c.ID] = true
		if c.Choices == 0 {
			return fmt.Errorf("%w: contest %d has no choices", ErrInvalidConfig, c.ID)
		}
	}
	return nil
}

// Capacity is the number of committed votes the election can hold.
func (e *Election) Capacity() int {
	return e.Voters * len(e.Contests)
}
