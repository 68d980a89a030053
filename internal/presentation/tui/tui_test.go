package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRenderer_Markdown(t *testing.T) {
	render, err := NewRenderer("notty", 60)
	require.NoError(t, err)

	out, err := render("# Welcome\n\nPlease fill **every** field.")
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome")
	assert.Contains(t, out, "every")
	assert.False(t, strings.HasPrefix(out, "\n"))
	assert.False(t, strings.HasSuffix(out, "\n"))
}

func TestPrintBanner_PlainWhenNotATerminal(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)

	assert.NotContains(t, buf.String(), "\x1b[")
	assert.Equal(t, len(bannerLines)+2, strings.Count(buf.String(), "\n"))
}
