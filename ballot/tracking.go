package ballot

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// TrackingCode is a link of the ballot hash chain.
type TrackingCode []byte

func (tc TrackingCode) String() string {
	return strings.ToUpper(hex.EncodeToString(tc))
}

func (tc TrackingCode) Equal(o TrackingCode) bool {
	return bytes.Equal(tc, o)
}

// MarshalJSON writes upper-case hex; a nil code is null.
func (tc TrackingCode) MarshalJSON() ([]byte, error) {
	if tc == nil {
		return []byte("null"), nil
	}
	return json.Marshal(tc.String())
}

func (tc *TrackingCode) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*tc = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	*tc = b
	return nil
}

// ParseTrackingCode reads the hex form printed on a voter receipt.
func ParseTrackingCode(s string) (TrackingCode, error) {
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	return b, nil
}
