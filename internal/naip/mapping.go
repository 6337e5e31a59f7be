// Package naip implements the tile replication pipeline: ZIP resolution,
// descriptor generation, existence probing, copy-with-fallback transfer,
// and run orchestration.
package naip

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"slices"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/naip-sync/internal/model"
)

// ZipEntry maps one ZIP code to its verified quarter-quad IDs and/or
// centroid coordinates.
type ZipEntry struct {
	Name        string             `json:"name"`
	Verified    bool               `json:"verified"`
	QuadIDs     []string           `json:"quad_ids"`
	Coordinates *model.Coordinates `json:"coordinates,omitempty"`
}

// Mapping is the ZIP-to-quad configuration, loaded once at startup and
// read-only thereafter.
type Mapping struct {
	Zips  map[string]ZipEntry `json:"zip_code_mapping"`
	Years []int               `json:"naip_years"`
}

var defaultYears = []int{2020, 2022, 2024}

// FallbackMapping is the reduced configuration used when no mapping file
// exists: no verified quads, default acquisition years.
func FallbackMapping() Mapping {
	return Mapping{
		Zips:  map[string]ZipEntry{},
		Years: slices.Clone(defaultYears),
	}
}

// LoadMapping reads the ZIP-to-quad mapping file. A missing file degrades
// to FallbackMapping; a corrupt file is an error.
func LoadMapping(path string) (Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			zap.L().Warn("zip mapping file not found, using fallback configuration",
				zap.String("path", path),
			)
			return FallbackMapping(), nil
		}
		return Mapping{}, eris.Wrapf(err, "naip: read mapping %s", path)
	}

	var m Mapping
	if err := json.Unmarshal(data, &m); err != nil {
		return Mapping{}, eris.Wrapf(err, "naip: parse mapping %s", path)
	}
	if m.Zips == nil {
		m.Zips = map[string]ZipEntry{}
	}
	if len(m.Years) == 0 {
		m.Years = slices.Clone(defaultYears)
	}

	zap.L().Info("loaded zip mapping",
		zap.String("path", path),
		zap.Int("zip_codes", len(m.Zips)),
		zap.Ints("years", m.Years),
	)
	return m, nil
}
