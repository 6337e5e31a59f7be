package naip

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/naip-sync/internal/model"
	"github.com/sells-group/naip-sync/internal/resilience"
	"github.com/sells-group/naip-sync/internal/s3store"
)

// Engine moves one tile from source to destination. The primary path is a
// server-side copy; the fallback reads the object through process memory,
// stages it to a scratch file, and uploads it single-stream.
type Engine struct {
	source     ObjectStore
	dest       ObjectStore
	destBucket string
	scratchDir string
	retry      resilience.RetryConfig
	now        func() time.Time
}

// NewEngine creates a transfer Engine. scratchDir may be empty to use the
// system temp directory.
func NewEngine(source, dest ObjectStore, destBucket, scratchDir string) *Engine {
	return &Engine{
		source:     source,
		dest:       dest,
		destBucket: destBucket,
		scratchDir: scratchDir,
		retry: resilience.RetryConfig{
			MaxAttempts:    2,
			InitialBackoff: time.Second,
		},
		now: time.Now,
	}
}

// Transfer attempts the direct copy, classifies its failure, and falls
// back to the read-through path when the failure is not a missing source.
// It always returns an outcome; per-tile errors never abort the run.
func (e *Engine) Transfer(ctx context.Context, d model.TileDescriptor) model.TransferOutcome {
	copyErr := e.copyDirect(ctx, d)
	if copyErr == nil {
		e.tagProvenance(ctx, d)
		zap.L().Info("copied tile", zap.String("filename", d.Filename), zap.String("dest_key", d.DestKey))
		return model.TransferOutcome{Status: model.OutcomeSucceeded, Filename: d.Filename}
	}

	// A missing source object fails the same way on the expensive path;
	// don't pay for the attempt.
	if s3store.IsNotFound(copyErr) {
		zap.L().Warn("source object gone, skipping fallback",
			zap.String("filename", d.Filename),
			zap.Error(copyErr),
		)
		return model.TransferOutcome{
			Status:   model.OutcomeFailed,
			Filename: d.Filename,
			Reason:   copyErr.Error(),
		}
	}

	zap.L().Info("direct copy failed, attempting read-through fallback",
		zap.String("filename", d.Filename),
		zap.Error(copyErr),
	)
	if fallbackErr := e.copyViaScratch(ctx, d); fallbackErr != nil {
		zap.L().Error("fallback transfer failed",
			zap.String("filename", d.Filename),
			zap.Error(fallbackErr),
		)
		return model.TransferOutcome{
			Status:   model.OutcomeFailed,
			Filename: d.Filename,
			Reason:   fmt.Sprintf("copy: %v; fallback: %v", copyErr, fallbackErr),
		}
	}

	zap.L().Info("uploaded tile via fallback", zap.String("filename", d.Filename), zap.String("dest_key", d.DestKey))
	return model.TransferOutcome{Status: model.OutcomeSucceeded, Filename: d.Filename}
}

// copyDirect runs the server-side copy with a single retry for transient
// errors, so a network blip doesn't escalate to the expensive path.
func (e *Engine) copyDirect(ctx context.Context, d model.TileDescriptor) error {
	cfg := e.retry
	cfg.OnRetry = resilience.RetryLogger("s3", "copy "+d.Filename)
	return resilience.Do(ctx, cfg, func(ctx context.Context) error {
		return e.dest.Copy(ctx, d.SourceBucket, d.SourceKey, e.destBucket, d.DestKey)
	})
}

// tagProvenance records where the tile came from. Tagging failures are
// logged, not fatal: the object itself transferred.
func (e *Engine) tagProvenance(ctx context.Context, d model.TileDescriptor) {
	tags := []s3store.Tag{
		{Key: "Source", Value: "NAIP"},
		{Key: "Year", Value: strconv.Itoa(d.Year)},
		{Key: "QuadID", Value: d.QuadID},
		{Key: "ZipCode", Value: d.ZipCode},
		{Key: "TransferDate", Value: e.now().UTC().Format(time.RFC3339)},
	}
	if err := e.dest.Tag(ctx, e.destBucket, d.DestKey, tags); err != nil {
		zap.L().Warn("failed to tag tile", zap.String("dest_key", d.DestKey), zap.Error(err))
	}
}

// copyViaScratch reads the full object, validates the TIFF header, stages
// the bytes to a scratch file, and uploads it single-stream. The scratch
// file is removed on every exit path.
func (e *Engine) copyViaScratch(ctx context.Context, d model.TileDescriptor) error {
	data, err := e.source.Download(ctx, d.SourceBucket, d.SourceKey, true)
	if err != nil {
		return err
	}
	if err := validateTIFF(data); err != nil {
		return eris.Wrapf(err, "naip: %s", d.Filename)
	}

	tmp, err := os.CreateTemp(e.scratchDir, "naip-*.tif")
	if err != nil {
		return eris.Wrap(err, "naip: create scratch file")
	}
	path := tmp.Name()
	defer os.Remove(path) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck,gosec
		return eris.Wrapf(err, "naip: write scratch %s", path)
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrapf(err, "naip: close scratch %s", path)
	}

	zap.L().Debug("staged tile to scratch file",
		zap.String("filename", d.Filename),
		zap.String("path", path),
		zap.Int("bytes", len(data)),
	)
	return e.dest.UploadFile(ctx, e.destBucket, d.DestKey, path)
}

// validateTIFF checks the TIFF header (byte order, magic, first IFD
// offset) before anything touches disk. It does not decode pixel data.
func validateTIFF(data []byte) error {
	if len(data) < 8 {
		return eris.New("object too short to be a tiff")
	}

	var order binary.ByteOrder
	switch {
	case data[0] == 'I' && data[1] == 'I':
		order = binary.LittleEndian
	case data[0] == 'M' && data[1] == 'M':
		order = binary.BigEndian
	default:
		return eris.Errorf("unrecognized tiff byte order %q", string(data[:2]))
	}

	if magic := order.Uint16(data[2:4]); magic != 42 {
		return eris.Errorf("bad tiff magic %d", magic)
	}
	if off := order.Uint32(data[4:8]); off < 8 || uint64(off) >= uint64(len(data)) {
		return eris.Errorf("tiff ifd offset %d out of range", off)
	}
	return nil
}
