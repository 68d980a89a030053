package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultMaxInputSize is 4KB, enough for any single form answer.
	DefaultMaxInputSize = 4096
	// EnvMaxInputSize is the environment variable to override the default.
	EnvMaxInputSize = "ARBOR_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// SanitizeInput cleans one answer typed at the terminal: it rejects oversized and
// invalid UTF-8 input and strips control characters other than newline, tab and
// carriage return (ANSI escapes, NUL, BEL), which would corrupt the terminal or logs.
// Oversized input is rejected rather than truncated so stored values stay exact.
func SanitizeInput(input string) (string, error) {
	if limit := MaxInputSize(); len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	if strings.IndexFunc(input, isUnsafeControl) < 0 {
		return input, nil
	}
	return strings.Map(func(r rune) rune {
		if isUnsafeControl(r) {
			return -1
		}
		return r
	}, input), nil
}

func isUnsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}

// MaxInputSize returns the answer size limit, honoring EnvMaxInputSize.
func MaxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}
