package registry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Resolve(t *testing.T) {
	reg := registry.NewRegistry()
	reg.Register("countries", registry.Static(
		domain.Option{Label: "Brazil", Value: "BR"},
		domain.Option{Label: "Portugal", Value: "PT"},
	))
	reg.Register("cities", func(_ context.Context, values domain.Values) ([]domain.Option, error) {
		if values["country"] == "BR" {
			return []domain.Option{{Label: "Recife", Value: "REC"}}, nil
		}
		return nil, errors.New("unknown country")
	})

	assert.Equal(t, []string{"cities", "countries"}, reg.Names())

	opts, err := reg.Resolve(context.Background(), "countries", nil)
	require.NoError(t, err)
	assert.Len(t, opts, 2)

	opts, err = reg.Resolve(context.Background(), "cities", domain.Values{"country": "BR"})
	require.NoError(t, err)
	assert.Equal(t, "REC", opts[0].Value)

	_, err = reg.Resolve(context.Background(), "cities", domain.Values{})
	assert.Error(t, err)

	_, err = reg.Resolve(context.Background(), "ghost", nil)
	assert.ErrorIs(t, err, registry.ErrSourceNotFound)
}

func TestRegistry_Options(t *testing.T) {
	static := &domain.InputData{Options: []domain.Option{{Label: "A", Value: "a"}}}
	sourced := &domain.InputData{Source: "letters"}

	var nilReg *registry.Registry
	opts, err := nilReg.Options(context.Background(), static, nil)
	require.NoError(t, err)
	assert.Equal(t, static.Options, opts)

	reg := registry.NewRegistry()
	reg.Register("letters", registry.Static(domain.Option{Label: "B", Value: "b"}))
	opts, err = reg.Options(context.Background(), sourced, nil)
	require.NoError(t, err)
	assert.Equal(t, "b", opts[0].Value)
}
