package runner

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxInputSize is the reply limit, in bytes, used when none is configured.
const DefaultMaxInputSize = 4096

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// Sanitizer cleans a user reply before it reaches a run.
type Sanitizer struct {
	// MaxSize is the limit in bytes. Zero or less means DefaultMaxInputSize.
	MaxSize int
}

// NewSanitizer returns a Sanitizer with the given byte limit.
func NewSanitizer(maxSize int) Sanitizer {
	return Sanitizer{MaxSize: maxSize}
}

// Limit reports the effective byte limit.
func (s Sanitizer) Limit() int {
	if s.MaxSize <= 0 {
		return DefaultMaxInputSize
	}
	return s.MaxSize
}

// Clean rejects replies over the limit or with broken UTF-8, then drops
// control characters and byte order marks. Newlines and tabs are kept.
// Oversized replies are rejected, never truncated.
func (s Sanitizer) Clean(input string) (string, error) {
	if limit := s.Limit(); len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}
	if strings.IndexFunc(input, dropped) < 0 {
		return input, nil
	}
	return strings.Map(func(r rune) rune {
		if dropped(r) {
			return -1
		}
		return r
	}, input), nil
}

func dropped(r rune) bool {
	if r == '\n' || r == '\t' {
		return false
	}
	return unicode.IsControl(r) || r == '\uFEFF'
}
