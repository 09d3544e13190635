package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is an opaque identity assigned by the GitLab instance. The API returns
// numbers, but any JSON string is accepted as well.
type ID string

// String returns the textual form of the identity.
func (id ID) String() string {
	return string(id)
}

// UnmarshalJSON accepts either a JSON number or a JSON string.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid id %s: %w", data, err)
		}

		*id = ID(s)

		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}

	*id = ID(n.String())

	return nil
}

// MarshalJSON writes numeric identities as JSON numbers and anything else as
// a JSON string.
func (id ID) MarshalJSON() ([]byte, error) {
	if isNumeric(string(id)) {
		return []byte(id), nil
	}

	return json.Marshal(string(id))
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}

	if c := s[0]; c != '-' && (c < '0' || c > '9') {
		return false
	}

	return json.Valid([]byte(s))
}
