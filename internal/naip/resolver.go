package naip

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/naip-sync/internal/model"
	"github.com/sells-group/naip-sync/pkg/geocode"
)

// Geocoder is the external ZIP geocoding collaborator.
type Geocoder interface {
	GeocodeZip(ctx context.Context, zip string) (*geocode.Result, error)
}

// fallbackCoords covers common Dallas ZIP codes when both the mapping file
// and the geocoder come up empty.
var fallbackCoords = map[string]model.Coordinates{
	"75287": {Lat: 33.0005, Lon: -96.8314},
	"75201": {Lat: 32.7831, Lon: -96.8067},
	"75202": {Lat: 32.7806, Lon: -96.7970},
	"75203": {Lat: 32.7487, Lon: -96.7919},
	"75204": {Lat: 32.8029, Lon: -96.7828},
}

// Resolution is the outcome of resolving a ZIP code: either a verified
// quad-ID list, or coordinates that could not be mapped to quads.
type Resolution struct {
	QuadIDs []string
	Coords  *model.Coordinates
	Tier    string
}

// Resolver maps ZIP codes to quad IDs or coordinates, trying the local
// mapping first, then geocoding, then the built-in fallback table.
type Resolver struct {
	mapping  Mapping
	geocoder Geocoder
}

// NewResolver creates a Resolver over an immutable mapping and a geocoder.
func NewResolver(mapping Mapping, geocoder Geocoder) *Resolver {
	return &Resolver{mapping: mapping, geocoder: geocoder}
}

// Resolve resolves a ZIP code through the configured tiers. Geocoding
// failures are misses, not fatal errors; only exhausting every tier
// returns ErrUnresolvableRegion.
func (r *Resolver) Resolve(ctx context.Context, zip string) (Resolution, error) {
	if entry, ok := r.mapping.Zips[zip]; ok {
		if entry.Verified && len(entry.QuadIDs) > 0 {
			zap.L().Info("resolved zip from verified mapping",
				zap.String("zip", zip),
				zap.String("name", entry.Name),
				zap.Strings("quad_ids", entry.QuadIDs),
			)
			return Resolution{QuadIDs: entry.QuadIDs, Tier: "config-verified"}, nil
		}
		if entry.Coordinates != nil {
			zap.L().Warn("zip mapping entry has no verified quad ids, using coordinates",
				zap.String("zip", zip),
				zap.String("name", entry.Name),
				zap.Float64("lat", entry.Coordinates.Lat),
				zap.Float64("lon", entry.Coordinates.Lon),
			)
			coords := *entry.Coordinates
			return Resolution{Coords: &coords, Tier: "config-coords"}, nil
		}
	}

	if r.geocoder != nil {
		result, err := r.geocoder.GeocodeZip(ctx, zip)
		if err != nil {
			zap.L().Debug("geocoder miss, trying fallback table",
				zap.String("zip", zip),
				zap.Error(err),
			)
		} else if result.Matched {
			zap.L().Info("resolved zip via geocoder",
				zap.String("zip", zip),
				zap.Float64("lat", result.Latitude),
				zap.Float64("lon", result.Longitude),
			)
			return Resolution{
				Coords: &model.Coordinates{Lat: result.Latitude, Lon: result.Longitude},
				Tier:   "geocode",
			}, nil
		}
	}

	if coords, ok := fallbackCoords[zip]; ok {
		zap.L().Info("resolved zip from fallback table", zap.String("zip", zip))
		return Resolution{Coords: &coords, Tier: "fallback-table"}, nil
	}

	return Resolution{}, eris.Wrapf(model.ErrUnresolvableRegion, "zip %s", zip)
}
