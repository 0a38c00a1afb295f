package runner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizer_KeepsPortugueseReplies(t *testing.T) {
	s := NewSanitizer(0)
	for _, reply := range []string{
		"não",
		"Quero um apartamento na Conceição",
		"R$ 1.500,50",
		"São José, 2º andar",
		"ok 👍",
		"linha um\nlinha dois\tcom tab",
	} {
		got, err := s.Clean(reply)
		require.NoError(t, err)
		assert.Equal(t, reply, got)
	}
}

func TestSanitizer_StripsControlCharacters(t *testing.T) {
	tests := []struct {
		name, input, want string
	}{
		{"ansi colour", "\x1b[31mcomprar\x1b[0m", "[31mcomprar[0m"},
		{"null byte", "sim\x00", "sim"},
		{"bell", "ajuda\x07", "ajuda"},
		{"carriage return", "Maria\r\n", "Maria\n"},
		{"byte order mark", "\uFEFFCondição", "Condição"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewSanitizer(0).Clean(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizer_Limit(t *testing.T) {
	assert.Equal(t, DefaultMaxInputSize, Sanitizer{}.Limit())
	assert.Equal(t, DefaultMaxInputSize, NewSanitizer(-5).Limit())
	assert.Equal(t, 16, NewSanitizer(16).Limit())

	s := NewSanitizer(10)
	_, err := s.Clean(strings.Repeat("a", 10))
	assert.NoError(t, err)

	_, err = s.Clean(strings.Repeat("a", 11))
	assert.ErrorIs(t, err, ErrInputTooLarge)

	// The limit counts bytes: five "ç" take ten.
	_, err = s.Clean(strings.Repeat("ç", 5))
	assert.NoError(t, err)
	_, err = s.Clean(strings.Repeat("ç", 6))
	assert.ErrorIs(t, err, ErrInputTooLarge)
}

func TestSanitizer_InvalidUTF8(t *testing.T) {
	_, err := NewSanitizer(0).Clean("n\xe3o")
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}
