// README: rank scores a candidate file offline and prints the ranking and wave plan.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"kwenda/internal/config"
	"kwenda/internal/modules/matching"
	"kwenda/internal/types"
)

var (
	rankInput     string
	qualifiedOnly bool
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank drivers from a JSON file and print the dispatch waves",
	RunE:  rank,
}

func init() {
	rankCmd.Flags().StringVarP(&rankInput, "input", "i", "", "JSON file with pickup, drivers and optional priority/hour")
	rankCmd.Flags().BoolVar(&qualifiedOnly, "qualified-only", false, "drop drivers failing the qualification criteria")
	_ = rankCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(rankCmd)
}

type rankInputFile struct {
	Pickup      types.Point                `json:"pickup"`
	Destination *types.Point               `json:"destination,omitempty"`
	Priority    matching.Priority          `json:"priority"`
	Hour        *int                       `json:"hour,omitempty"`
	Drivers     []matching.DriverCandidate `json:"drivers"`
}

type rankOutput struct {
	Ranked []matching.RankedDriver `json:"ranked"`
	Best   *matching.RankedDriver  `json:"best"`
	Waves  []matching.Wave         `json:"waves"`
}

func rank(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	raw, err := os.ReadFile(rankInput)
	if err != nil {
		return err
	}
	var in rankInputFile
	if err := json.Unmarshal(raw, &in); err != nil {
		return fmt.Errorf("decode %s: %w", rankInput, err)
	}

	svc, err := matching.NewService(matching.Deps{}, cfg.Matching, cfg.Dispatch)
	if err != nil {
		return err
	}
	now := time.Now()
	hour := svc.LocalHour(now)
	if in.Hour != nil {
		hour = *in.Hour
	}
	if in.Priority == "" {
		in.Priority = matching.PriorityNormal
	}

	ranked := svc.Rank(in.Drivers, matching.RankingContext{
		Pickup:      in.Pickup,
		Destination: in.Destination,
		Priority:    in.Priority,
		TimeOfDay:   hour,
	}, qualifiedOnly)
	out := rankOutput{
		Ranked: ranked,
		Waves:  matching.BuildWaves(ranked, matching.PlanFromConfig(cfg.Dispatch), now),
	}
	if len(ranked) > 0 {
		out.Best = &ranked[0]
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
