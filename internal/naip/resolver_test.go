package naip

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/naip-sync/internal/model"
	"github.com/sells-group/naip-sync/pkg/geocode"
)

func TestResolve_VerifiedMappingSkipsGeocoder(t *testing.T) {
	mapping := Mapping{
		Zips: map[string]ZipEntry{
			"75287": {Name: "Far North Dallas", Verified: true, QuadIDs: []string{"3209661"}},
		},
		Years: []int{2020, 2022},
	}
	r := NewResolver(mapping, &panicGeocoder{t: t})

	res, err := r.Resolve(context.Background(), "75287")
	require.NoError(t, err)
	assert.Equal(t, []string{"3209661"}, res.QuadIDs)
	assert.Equal(t, "config-verified", res.Tier)
	assert.Nil(t, res.Coords)
}

func TestResolve_UnverifiedEntryUsesCoordinates(t *testing.T) {
	mapping := Mapping{
		Zips: map[string]ZipEntry{
			"75001": {Name: "Addison", Coordinates: &model.Coordinates{Lat: 32.96, Lon: -96.83}},
		},
	}
	r := NewResolver(mapping, &panicGeocoder{t: t})

	res, err := r.Resolve(context.Background(), "75001")
	require.NoError(t, err)
	assert.Empty(t, res.QuadIDs)
	require.NotNil(t, res.Coords)
	assert.InDelta(t, 32.96, res.Coords.Lat, 0.001)
	assert.Equal(t, "config-coords", res.Tier)
}

func TestResolve_GeocoderTier(t *testing.T) {
	g := &fakeGeocoder{result: &geocode.Result{Latitude: 32.78, Longitude: -96.80, Matched: true}}
	r := NewResolver(FallbackMapping(), g)

	res, err := r.Resolve(context.Background(), "75226")
	require.NoError(t, err)
	assert.Equal(t, 1, g.calls)
	require.NotNil(t, res.Coords)
	assert.InDelta(t, 32.78, res.Coords.Lat, 0.001)
	assert.Equal(t, "geocode", res.Tier)
}

func TestResolve_GeocoderErrorFallsThroughToTable(t *testing.T) {
	g := &fakeGeocoder{err: errors.New("census down")}
	r := NewResolver(FallbackMapping(), g)

	res, err := r.Resolve(context.Background(), "75201")
	require.NoError(t, err)
	require.NotNil(t, res.Coords)
	assert.InDelta(t, 32.7831, res.Coords.Lat, 0.0001)
	assert.Equal(t, "fallback-table", res.Tier)
}

func TestResolve_GeocoderMissFallsThroughToTable(t *testing.T) {
	g := &fakeGeocoder{result: &geocode.Result{Matched: false}}
	r := NewResolver(FallbackMapping(), g)

	res, err := r.Resolve(context.Background(), "75204")
	require.NoError(t, err)
	assert.Equal(t, "fallback-table", res.Tier)
}

func TestResolve_Unresolvable(t *testing.T) {
	g := &fakeGeocoder{result: &geocode.Result{Matched: false}}
	r := NewResolver(FallbackMapping(), g)

	_, err := r.Resolve(context.Background(), "00000")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrUnresolvableRegion))
}

func TestResolve_NilGeocoder(t *testing.T) {
	r := NewResolver(FallbackMapping(), nil)

	res, err := r.Resolve(context.Background(), "75202")
	require.NoError(t, err)
	assert.Equal(t, "fallback-table", res.Tier)

	_, err = r.Resolve(context.Background(), "99999")
	assert.True(t, errors.Is(err, model.ErrUnresolvableRegion))
}
