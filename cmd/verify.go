package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Summarize replicated tiles in the destination bucket",
	Long:  "Lists every object under the destination imagery prefix and reports tile counts per acquisition year.",
	RunE:  runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	dest, err := destStore(ctx)
	if err != nil {
		return err
	}

	prefix := strings.TrimSuffix(cfg.Dest.Prefix, "/") + "/"
	keys, err := dest.ListAllKeys(ctx, cfg.Dest.Bucket, prefix)
	if err != nil {
		return err
	}

	byYear := make(map[int]int)
	var tiles, summaries int
	for _, key := range keys {
		rest := strings.TrimPrefix(key, prefix)
		if strings.HasPrefix(rest, "download_summary_") {
			summaries++
			continue
		}
		if !strings.HasSuffix(rest, ".tif") {
			continue
		}
		tiles++
		if year, ok := tileYear(rest); ok {
			byYear[year]++
		}
	}

	years := make([]int, 0, len(byYear))
	for year := range byYear {
		years = append(years, year)
	}
	sort.Ints(years)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "YEAR\tTILES")
	for _, year := range years {
		fmt.Fprintf(w, "%d\t%d\n", year, byYear[year])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d tiles, %d run summaries under s3://%s/%s\n", tiles, summaries, cfg.Dest.Bucket, prefix)
	return nil
}

// tileYear extracts the acquisition year from a tile filename such as
// m_3209661_nw_14_060_20220815.tif.
func tileYear(name string) (int, bool) {
	base := strings.TrimSuffix(name, ".tif")
	idx := strings.LastIndex(base, "_")
	if idx < 0 || len(base)-idx-1 != 8 {
		return 0, false
	}
	year, err := strconv.Atoi(base[idx+1 : idx+5])
	if err != nil {
		return 0, false
	}
	return year, true
}
