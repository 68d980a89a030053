package runner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeInput_Limit(t *testing.T) {
	_, err := SanitizeInput(strings.Repeat("x", DefaultMaxInputSize))
	assert.NoError(t, err)

	_, err = SanitizeInput(strings.Repeat("x", DefaultMaxInputSize+1))
	assert.ErrorIs(t, err, ErrInputTooLarge)
}

func TestSanitizeInput_StripsControls(t *testing.T) {
	cases := map[string]string{
		"Ada Lovelace":              "Ada Lovelace",
		"line one\nline two\tend\r": "line one\nline two\tend\r",
		"\x1b[1mcat\x1b[0m":         "[1mcat[0m",
		"dog\x00":                   "dog",
		"\x07ada@example.com":       "ada@example.com",
	}
	for in, want := range cases {
		got, err := SanitizeInput(in)
		require.NoError(t, err, "%q", in)
		assert.Equal(t, want, got, "%q", in)
	}
}

func TestSanitizeInput_RejectsInvalidUTF8(t *testing.T) {
	_, err := SanitizeInput("caf\xe9")
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestMaxInputSize_Env(t *testing.T) {
	t.Setenv(EnvMaxInputSize, "8")
	assert.Equal(t, 8, MaxInputSize())

	_, err := SanitizeInput("123456789")
	assert.ErrorIs(t, err, ErrInputTooLarge)

	t.Setenv(EnvMaxInputSize, "lots")
	assert.Equal(t, DefaultMaxInputSize, MaxInputSize())

	t.Setenv(EnvMaxInputSize, "-3")
	assert.Equal(t, DefaultMaxInputSize, MaxInputSize())
}
