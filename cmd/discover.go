package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/naip-sync/internal/model"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Explore quarter-quad coverage in the source bucket",
	Long:  "Lists quad directory prefixes in the NAIP source bucket for one year, filters them to a numeric range, and samples tile keys from each candidate so new ZIP mappings can be built.",
	RunE:  runDiscover,
}

var discoverFlags struct {
	year    int
	minQuad int
	maxQuad int
	limit   int
	samples int32
}

func init() {
	discoverCmd.Flags().IntVar(&discoverFlags.year, "year", 2022, "acquisition year to scan")
	discoverCmd.Flags().IntVar(&discoverFlags.minQuad, "min-quad", 32095, "lowest quad prefix to keep")
	discoverCmd.Flags().IntVar(&discoverFlags.maxQuad, "max-quad", 33098, "highest quad prefix to keep")
	discoverCmd.Flags().IntVar(&discoverFlags.limit, "limit", 20, "maximum quad prefixes to sample")
	discoverCmd.Flags().Int32Var(&discoverFlags.samples, "samples", 8, "tile keys to sample per quad prefix")
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	source, err := sourceStore(ctx)
	if err != nil {
		return err
	}

	root := fmt.Sprintf("%s/%d/60cm/rgbir_cog/", cfg.Source.State, discoverFlags.year)
	prefixes, err := source.ListPrefixes(ctx, cfg.Source.Bucket, root, true)
	if err != nil {
		return err
	}

	var candidates []string
	for _, p := range prefixes {
		dir := strings.TrimSuffix(strings.TrimPrefix(p, root), "/")
		n, err := strconv.Atoi(dir)
		if err != nil {
			continue
		}
		if n >= discoverFlags.minQuad && n <= discoverFlags.maxQuad {
			candidates = append(candidates, dir)
		}
	}
	zap.L().Info("quad prefixes in range",
		zap.Int("listed", len(prefixes)),
		zap.Int("candidates", len(candidates)))

	if len(candidates) > discoverFlags.limit {
		candidates = candidates[:discoverFlags.limit]
	}

	var mu sync.Mutex
	quads := make(map[string][]string)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, dir := range candidates {
		g.Go(func() error {
			keys, err := source.ListKeys(gctx, cfg.Source.Bucket, root+dir+"/", discoverFlags.samples, true)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for _, key := range keys {
				if quad, ok := quadFromKey(key); ok {
					quads[quad] = appendUnique(quads[quad], dir)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	ids := make([]string, 0, len(quads))
	for quad := range quads {
		ids = append(ids, quad)
	}
	sort.Strings(ids)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "QUAD\tPREFIX")
	for _, quad := range ids {
		fmt.Fprintf(w, "%s\t%s\n", quad, strings.Join(quads[quad], ","))
	}
	return w.Flush()
}

// quadFromKey pulls the quarter-quad ID out of a tile key named like
// tx/2022/60cm/rgbir_cog/32096/m_3209661_nw_14_060_20220815.tif.
func quadFromKey(key string) (string, bool) {
	base := key[strings.LastIndex(key, "/")+1:]
	parts := strings.Split(base, "_")
	if len(parts) < 3 || parts[0] != "m" {
		return "", false
	}
	quadrant := parts[2]
	for _, q := range model.Quadrants {
		if quadrant == q {
			return parts[1], true
		}
	}
	return "", false
}

func appendUnique(list []string, v string) []string {
	for _, have := range list {
		if have == v {
			return list
		}
	}
	return append(list, v)
}
