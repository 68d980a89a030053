package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const petsMD = `---
id: pets
nodes:
  - id: pet
    type: input
    data: {name: pet}
  - id: species
    type: input
    data: {name: species}
edges:
  - id: e1
    source: pet
    target: species
    data:
      conditions:
        - {field: pet, operator: "===", value: "yes"}
---
# Pets
`

func TestOverlay(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	testutils.WriteFlows(t, dir, map[string]string{"pets.md": petsMD})

	engine, err := CreateEngine(EngineConfig{RepoPath: dir}, logging.NewNop())
	require.NoError(t, err)

	t.Run("no answers", func(t *testing.T) {
		overlay, flowID, err := Overlay(ctx, engine, OverlayOptions{RepoPath: dir}, logging.NewNop())
		require.NoError(t, err)
		assert.Nil(t, overlay)
		assert.Equal(t, "pets", flowID)
	})

	t.Run("values", func(t *testing.T) {
		overlay, _, err := Overlay(ctx, engine, OverlayOptions{RepoPath: dir, Values: `{"pet":"yes"}`}, logging.NewNop())
		require.NoError(t, err)
		require.NotNil(t, overlay)
		assert.Equal(t, []string{"pet", "species"}, overlay.Visible)
		assert.Equal(t, []string{"e1"}, overlay.ActiveEdges)
	})

	t.Run("saved session", func(t *testing.T) {
		p, err := SetupPersistence(ctx, PersistenceConfig{Dir: filepath.Join(dir, ".arbor", "sessions")}, logging.NewNop())
		require.NoError(t, err)
		state, err := engine.Start(ctx, "s1", "pets", nil)
		require.NoError(t, err)
		require.NoError(t, p.Sessions.Save(ctx, "s1", state))

		overlay, flowID, err := Overlay(ctx, engine, OverlayOptions{RepoPath: dir, SessionID: "s1"}, logging.NewNop())
		require.NoError(t, err)
		assert.Equal(t, "pets", flowID)
		assert.Equal(t, []string{"pet"}, overlay.Visible)

		_, _, err = Overlay(ctx, engine, OverlayOptions{RepoPath: dir, SessionID: "s1", FlowID: "other"}, logging.NewNop())
		assert.Error(t, err)
	})
}
