package llm

import (
	"errors"
	"strings"
	"unicode"
)

// ErrNoJSON is returned when a completion contains no JSON object.
var ErrNoJSON = errors.New("no JSON object in completion")

// ExtractJSON returns the outermost {...} span of text with control characters
// removed. Models often wrap JSON in prose or code fences.
func ExtractJSON(text string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, text)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return "", ErrNoJSON
	}
	return cleaned[start : end+1], nil
}
