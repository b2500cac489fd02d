package seed

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// Buenos Aires depot and nine stops, used when no seed file is available.
//
//go:embed default_stops.json
var defaultInput []byte

// DefaultInput returns a copy of the built-in editor content.
func DefaultInput() []byte {
	return append([]byte(nil), defaultInput...)
}

// Load the initial editor content from a JSON file.
// An empty path or a missing file falls back to DefaultInput; a file that is
// present but not JSON is an error.
func LoadInput(jsonPath string) ([]byte, bool, error) {
	if strings.TrimSpace(jsonPath) == "" {
		return DefaultInput(), false, nil
	}

	b, err := os.ReadFile(jsonPath)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultInput(), false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("seed input: read %q: %w", jsonPath, err)
	}

	if !json.Valid(b) {
		return nil, false, fmt.Errorf("seed input: %q is not valid JSON", jsonPath)
	}

	return b, true, nil
}
