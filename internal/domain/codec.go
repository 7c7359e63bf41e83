package domain

import (
	"encoding/json"
	"fmt"
)

// Validator is implemented by every stage payload.
type Validator interface {
	Validate() error
}

// Encode validates a payload and serializes it for a JSON column.
func Encode(v Validator) (string, error) {
	if err := v.Validate(); err != nil {
		return "", err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}
	return string(data), nil
}

// Decode parses a JSON column into dst and validates the result.
func Decode(raw string, dst Validator) error {
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return dst.Validate()
}
