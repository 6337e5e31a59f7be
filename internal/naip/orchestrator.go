package naip

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/naip-sync/internal/model"
)

// OrchestratorParams wires the pipeline components together.
type OrchestratorParams struct {
	Resolver   *Resolver
	Generator  *Generator
	Prober     *Prober
	Engine     *Engine
	Dest       ObjectStore
	DestBucket string
	DestPrefix string
	Years      []int

	// TilesPerSecond paces the loop to keep the request rate against the
	// requester-pays source low. Zero disables pacing.
	TilesPerSecond float64

	// History records runs locally; may be nil.
	History RunRecorder

	Now func() time.Time
}

// Orchestrator drives the pipeline for one ZIP code: resolve, generate,
// probe, transfer, aggregate, persist. Tiles are processed strictly
// sequentially so cost and request rate stay bounded.
type Orchestrator struct {
	resolver   *Resolver
	generator  *Generator
	prober     *Prober
	engine     *Engine
	dest       ObjectStore
	destBucket string
	destPrefix string
	years      []int
	limiter    *rate.Limiter
	history    RunRecorder
	now        func() time.Time
}

// NewOrchestrator creates an Orchestrator from params.
func NewOrchestrator(p OrchestratorParams) *Orchestrator {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if p.TilesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(p.TilesPerSecond), 1)
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		resolver:   p.Resolver,
		generator:  p.Generator,
		prober:     p.Prober,
		engine:     p.Engine,
		dest:       p.Dest,
		destBucket: p.DestBucket,
		destPrefix: p.DestPrefix,
		years:      p.Years,
		limiter:    limiter,
		history:    p.History,
		now:        now,
	}
}

// Run executes the pipeline for zip and returns the run summary. Only
// invalid input and an unresolvable region abort the run; per-tile
// failures are recorded in the summary.
func (o *Orchestrator) Run(ctx context.Context, zip string) (*model.RunSummary, error) {
	if err := model.ValidateZip(zip); err != nil {
		return nil, err
	}

	resolution, err := o.resolver.Resolve(ctx, zip)
	if err != nil {
		return nil, err
	}

	descriptors := o.generator.Generate(zip, resolution.QuadIDs, o.years)
	zap.L().Info("starting tile replication",
		zap.String("zip", zip),
		zap.String("tier", resolution.Tier),
		zap.Int("tiles", len(descriptors)),
	)

	var runID string
	if o.history != nil {
		run, histErr := o.history.CreateRun(ctx, zip)
		if histErr != nil {
			zap.L().Warn("failed to record run start", zap.Error(histErr))
		} else {
			runID = run.ID
		}
	}

	results := model.RunResults{
		Successful: []string{},
		Failed:     []string{},
		Skipped:    []string{},
	}

	for i, d := range descriptors {
		if err := o.limiter.Wait(ctx); err != nil {
			o.finishRun(ctx, runID, model.RunStatusFailed, nil)
			return nil, eris.Wrap(err, "naip: pacing interrupted")
		}

		zap.L().Info("processing tile",
			zap.Int("index", i+1),
			zap.Int("total", len(descriptors)),
			zap.String("filename", d.Filename),
		)

		switch o.prober.Probe(ctx, d) {
		case AlreadyPresent:
			zap.L().Info("already present, skipping", zap.String("dest_key", d.DestKey))
			results.Skipped = append(results.Skipped, d.Filename)
		case SourceMissing:
			zap.L().Warn("source not found", zap.String("source_key", d.SourceKey))
			results.Failed = append(results.Failed, d.Filename)
		case ProceedToCopy:
			outcome := o.engine.Transfer(ctx, d)
			if outcome.Status == model.OutcomeSucceeded {
				results.Successful = append(results.Successful, outcome.Filename)
			} else {
				results.Failed = append(results.Failed, outcome.Filename)
			}
		}
	}

	summary := &model.RunSummary{
		Timestamp:  o.now().UTC(),
		ZipCode:    zip,
		TotalTiles: len(descriptors),
		Successful: len(results.Successful),
		Failed:     len(results.Failed),
		Results:    results,
	}

	if err := o.persistSummary(ctx, summary); err != nil {
		o.finishRun(ctx, runID, model.RunStatusFailed, summary)
		return summary, err
	}
	o.finishRun(ctx, runID, model.RunStatusCompleted, summary)

	zap.L().Info("replication complete",
		zap.String("zip", zip),
		zap.Int("successful", summary.Successful),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", len(results.Skipped)),
	)
	return summary, nil
}

// persistSummary uploads the run summary JSON to the destination under a
// timestamped key.
func (o *Orchestrator) persistSummary(ctx context.Context, s *model.RunSummary) error {
	body, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return eris.Wrap(err, "naip: marshal summary")
	}
	key := fmt.Sprintf("%s/download_summary_%s_%s.json",
		o.destPrefix, s.ZipCode, s.Timestamp.Format("20060102_150405"))
	if err := o.dest.Put(ctx, o.destBucket, key, body, "application/json"); err != nil {
		return err
	}
	zap.L().Info("summary uploaded", zap.String("key", key))
	return nil
}

// finishRun updates the local run history, best effort.
func (o *Orchestrator) finishRun(ctx context.Context, runID string, status model.RunStatus, summary *model.RunSummary) {
	if o.history == nil || runID == "" {
		return
	}
	if err := o.history.CompleteRun(ctx, runID, status, summary); err != nil {
		zap.L().Warn("failed to record run completion", zap.String("run_id", runID), zap.Error(err))
	}
}
