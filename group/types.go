package group

import (
	"encoding"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// GroupId is needed for JSON marshalling groups.
type GroupId struct {
	Name string `json:"group"`
}

// Elements are exchanged in JSON as the hex string of their canonical
// binary encoding.
func marshalHexJSON(e encoding.BinaryMarshaler) ([]byte, error) {
	b, err := e.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return json.Marshal(hex.EncodeToString(b))
}

func unmarshalHexJSON(data []byte, e encoding.BinaryUnmarshaler) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid element encoding: %w", err)
	}
	return e.UnmarshalBinary(b)
}

func hexString(e encoding.BinaryMarshaler) string {
	b, err := e.MarshalBinary()
	if err != nil {
		return "<invalid>"
	}
	return hex.EncodeToString(b)
}
