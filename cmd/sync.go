package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/naip-sync/internal/model"
	"github.com/sells-group/naip-sync/internal/naip"
	"github.com/sells-group/naip-sync/internal/store"
	"github.com/sells-group/naip-sync/pkg/geocode"
)

var syncCmd = &cobra.Command{
	Use:   "sync <zip>",
	Short: "Replicate NAIP tiles for a ZIP code",
	Long:  "Resolves the ZIP code to quarter-quad IDs, expands tile descriptors for every configured year, and copies each tile into the destination bucket, skipping tiles already present.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	zip := args[0]

	// Reject malformed input before touching AWS or the geocoder.
	if err := model.ValidateZip(zip); err != nil {
		return err
	}

	mapping, err := naip.LoadMapping(cfg.Sync.MappingPath)
	if err != nil {
		return err
	}

	source, err := sourceStore(ctx)
	if err != nil {
		return err
	}
	dest, err := destStore(ctx)
	if err != nil {
		return err
	}

	geocoder := geocode.NewClient(
		geocode.WithTimeout(time.Duration(cfg.Geocode.TimeoutSecs)*time.Second),
		geocode.WithRateLimit(cfg.Geocode.RateLimit),
	)

	var history naip.RunRecorder
	st, err := store.NewSQLite(cfg.History.Path)
	if err != nil {
		zap.L().Warn("run history unavailable", zap.Error(err))
	} else {
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			zap.L().Warn("run history unavailable", zap.Error(err))
		} else {
			history = st
		}
	}

	orchestrator := naip.NewOrchestrator(naip.OrchestratorParams{
		Resolver:       naip.NewResolver(mapping, geocoder),
		Generator:      naip.NewGenerator(cfg.Source.Bucket, cfg.Source.State, cfg.Dest.Prefix),
		Prober:         naip.NewProber(source, dest, cfg.Dest.Bucket),
		Engine:         naip.NewEngine(source, dest, cfg.Dest.Bucket, cfg.Sync.ScratchDir),
		Dest:           dest,
		DestBucket:     cfg.Dest.Bucket,
		DestPrefix:     cfg.Dest.Prefix,
		Years:          mapping.Years,
		TilesPerSecond: cfg.Sync.TilesPerSecond,
		History:        history,
	})

	summary, err := orchestrator.Run(ctx, zip)
	if err != nil {
		return err
	}

	fmt.Printf("Replication complete for %s: %d tiles, %d copied, %d failed, %d skipped\n",
		zip, summary.TotalTiles, summary.Successful, summary.Failed, len(summary.Results.Skipped))

	// Tile failures are reported here, not via exit code.
	for _, filename := range summary.Results.Failed {
		zap.L().Warn("failed tile", zap.String("filename", filename))
	}
	return nil
}
