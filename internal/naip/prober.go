package naip

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/naip-sync/internal/model"
)

// ProbeResult is the outcome of an existence probe for one descriptor.
type ProbeResult int

const (
	// ProceedToCopy means the tile is absent from the destination and
	// present at the source.
	ProceedToCopy ProbeResult = iota
	// AlreadyPresent means the destination already holds the tile.
	AlreadyPresent
	// SourceMissing means the source does not hold the tile (or could not
	// be checked).
	SourceMissing
)

// Prober checks destination presence before source presence. The
// destination check is free; the source check bills the requester, so it
// only runs when a transfer might actually happen.
type Prober struct {
	source     ObjectStore
	dest       ObjectStore
	destBucket string
}

// NewProber creates a Prober over the source and destination stores.
func NewProber(source, dest ObjectStore, destBucket string) *Prober {
	return &Prober{source: source, dest: dest, destBucket: destBucket}
}

// Probe determines whether d needs a transfer. A transient error on the
// destination check is treated as absent so the tile is re-attempted; any
// failure on the source check is treated as missing rather than guessing.
func (p *Prober) Probe(ctx context.Context, d model.TileDescriptor) ProbeResult {
	present, err := p.dest.Exists(ctx, p.destBucket, d.DestKey, false)
	if err != nil {
		zap.L().Debug("destination check failed, treating as absent",
			zap.String("key", d.DestKey),
			zap.Error(err),
		)
	} else if present {
		return AlreadyPresent
	}

	available, err := p.source.Exists(ctx, d.SourceBucket, d.SourceKey, true)
	if err != nil {
		zap.L().Warn("source check failed",
			zap.String("key", d.SourceKey),
			zap.Error(err),
		)
		return SourceMissing
	}
	if !available {
		return SourceMissing
	}
	return ProceedToCopy
}
