package group

import (
	"fmt"
	"sort"
)

var registry = map[string]func() Group{
	"P-256":                P256,
	"P-384":                P384,
	"ristretto255":         Ristretto255,
	"secp256k1":            SecP256k1,
	"edwards25519":         Edwards25519,
	"RFC3526ModPGroup3072": RFC3526ModPGroup3072,
}

// ByName returns the group registered under name.
func ByName(name string) (Group, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown group %q", name)
	}
	return ctor(), nil
}

// Names lists the registered group names in lexical order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
