// Package encoding provides utilities for encoding and decoding data.
package encoding

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"
)

// SaveJSON marshals the value to indented JSON and writes it to path on fs.
// The parent directory must already exist.
// Uses 0600 permissions for the file.
func SaveJSON[T any](fs afero.Fs, path string, value T) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := afero.WriteFile(fs, path, data, 0600); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}
