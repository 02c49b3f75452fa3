package manifest

import (
	"encoding/json"
	"fmt"
)

// Encode validates m structurally, serializes it and validates the result
// against the manifest schema. Nothing is returned for an invalid manifest.
func Encode(m *Manifest) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: manifest is nil", ErrValidation)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	out := *m
	if out.Releases == nil {
		out.Releases = []Release{}
	}
	data, err := json.Marshal(&out)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	if err := ValidateDocument(data); err != nil {
		return nil, err
	}
	return data, nil
}

// Decode parses and validates a manifest document. The document is checked
// against the manifest schema first, so unknown fields and field names that
// differ only in case are rejected.
func Decode(data []byte) (*Manifest, error) {
	if err := ValidateDocument(data); err != nil {
		return nil, err
	}

	var m Manifest
	if err := decodeStrict(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if m.Releases == nil {
		m.Releases = []Release{}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}
