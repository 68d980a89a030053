package cli

import (
	"context"
	"encoding/base64"
	"path/filepath"
	"testing"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/internal/testutils"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetermineEntryPoint(t *testing.T) {
	t.Run("Default to start if exists", func(t *testing.T) {
		assert.Equal(t, "start", DetermineEntryPoint(t.TempDir(), []string{"main", "start"}))
	})

	t.Run("Fallback to main", func(t *testing.T) {
		assert.Equal(t, "main", DetermineEntryPoint(t.TempDir(), []string{"index", "main"}))
	})

	t.Run("Fallback to index", func(t *testing.T) {
		assert.Equal(t, "index", DetermineEntryPoint(t.TempDir(), []string{"other", "index"}))
	})

	t.Run("Fallback to DirectoryName", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "checkout")
		assert.Equal(t, "checkout", DetermineEntryPoint(dir, []string{"checkout", "other"}))
	})

	t.Run("Single flow", func(t *testing.T) {
		assert.Equal(t, "signup", DetermineEntryPoint(t.TempDir(), []string{"signup"}))
	})

	t.Run("Ambiguous", func(t *testing.T) {
		assert.Empty(t, DetermineEntryPoint(t.TempDir(), []string{"a", "b"}))
	})
}

func TestParseValidationMode(t *testing.T) {
	mode, err := ParseValidationMode("")
	require.NoError(t, err)
	assert.Equal(t, domain.ValidateOnSubmit, mode)

	mode, err = ParseValidationMode("onChange")
	require.NoError(t, err)
	assert.Equal(t, domain.ValidateOnChange, mode)

	_, err = ParseValidationMode("eventually")
	assert.Error(t, err)
}

const signupMD = "---\nid: signup\nnodes:\n  - id: email\n    type: input\n    data: {name: email, required: true}\nedges: []\n---\n# Sign up\n"

func TestCreateEngine_ResolvesSingleFlow(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFlows(t, dir, map[string]string{"signup.md": signupMD})

	engine, err := CreateEngine(EngineConfig{RepoPath: dir, ValidationMode: "onChange"}, logging.NewNop())
	require.NoError(t, err)

	flowID, err := resolveFlow(engine, dir, "")
	require.NoError(t, err)
	assert.Equal(t, "signup", flowID)

	state, err := engine.Start(context.Background(), "s1", flowID, nil)
	require.NoError(t, err)
	assert.Equal(t, "signup", state.FlowID)
}

func TestCreateEngine_RejectsUnknownMode(t *testing.T) {
	_, err := CreateEngine(EngineConfig{RepoPath: t.TempDir(), ValidationMode: "never"}, logging.NewNop())
	assert.Error(t, err)
}

func TestParseValues(t *testing.T) {
	values, err := parseValues(`{"name":"Ana\u0007","age":3}`)
	require.NoError(t, err)
	assert.Equal(t, "Ana", values["name"])
	assert.EqualValues(t, 3, values["age"])

	values, err = parseValues("  ")
	require.NoError(t, err)
	assert.Nil(t, values)

	_, err = parseValues(`[1]`)
	assert.Error(t, err)
}

func TestStoreMiddleware(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(make([]byte, 32))

	env := func(vars map[string]string) func(string) string {
		return func(k string) string { return vars[k] }
	}

	mws, err := storeMiddleware(env(nil))
	require.NoError(t, err)
	assert.Empty(t, mws)

	mws, err = storeMiddleware(env(map[string]string{
		EnvPIIFields:     "ssn, ^email$",
		EnvEncryptionKey: key,
		EnvFallbackKeys:  key,
	}))
	require.NoError(t, err)
	assert.Len(t, mws, 2)

	_, err = storeMiddleware(env(map[string]string{EnvEncryptionKey: "not base64!"}))
	assert.Error(t, err)

	_, err = storeMiddleware(env(map[string]string{EnvEncryptionKey: base64.StdEncoding.EncodeToString([]byte("short"))}))
	assert.Error(t, err)
}
