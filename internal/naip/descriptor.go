package naip

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/sells-group/naip-sync/internal/model"
)

// Generator expands (quad IDs x years x quadrants) into tile descriptors
// following the fixed NAIP analytic naming convention.
type Generator struct {
	SourceBucket string
	State        string
	DestPrefix   string
}

// NewGenerator creates a Generator for the given source bucket, state
// token, and destination prefix.
func NewGenerator(sourceBucket, state, destPrefix string) *Generator {
	return &Generator{SourceBucket: sourceBucket, State: state, DestPrefix: destPrefix}
}

// Generate emits one descriptor per (year, quad, quadrant), years
// ascending, quads in input order, quadrants in canonical nw/ne/sw/se
// order. An empty quad list yields an empty slice: quad IDs are never
// fabricated from coordinates, since there is no reliable mapping and
// invented IDs would reference wrong or nonexistent tiles.
func (g *Generator) Generate(zip string, quadIDs []string, years []int) []model.TileDescriptor {
	if len(quadIDs) == 0 {
		zap.L().Warn("no quad ids to expand; run the discover command to find quad ids for this zip",
			zap.String("zip", zip),
		)
		return nil
	}

	sorted := slices.Clone(years)
	slices.Sort(sorted)

	descriptors := make([]model.TileDescriptor, 0, len(sorted)*len(quadIDs)*len(model.Quadrants))
	for _, year := range sorted {
		for _, quadID := range quadIDs {
			for _, quadrant := range model.Quadrants {
				filename := fmt.Sprintf("m_%s_%s_14_060_%d0815.tif", quadID, quadrant, year)
				descriptors = append(descriptors, model.TileDescriptor{
					Year:         year,
					QuadID:       quadID,
					Quadrant:     quadrant,
					SourceBucket: g.SourceBucket,
					SourceKey:    fmt.Sprintf("%s/%d/60cm/rgbir_cog/%s/%s", g.State, year, quadPrefix(quadID), filename),
					DestKey:      fmt.Sprintf("%s/%d/%s", g.DestPrefix, year, filename),
					Filename:     filename,
					ZipCode:      zip,
				})
			}
		}
	}
	return descriptors
}

// quadPrefix is the 5-character quad grouping prefix used in source keys.
func quadPrefix(quadID string) string {
	if len(quadID) < 5 {
		return quadID
	}
	return quadID[:5]
}
