// README: estimate prints the wait-time decision for a driver count and sample history.
package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"kwenda/internal/modules/waittime"
)

var (
	estimateDrivers int
	estimateSamples []float64
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Compute a wait-time estimate from available drivers and past assignment minutes",
	RunE:  estimate,
}

func init() {
	estimateCmd.Flags().IntVar(&estimateDrivers, "drivers", 0, "available drivers near the pickup")
	estimateCmd.Flags().Float64SliceVar(&estimateSamples, "samples", nil, "recent assignment times in minutes")
	rootCmd.AddCommand(estimateCmd)
}

func estimate(cmd *cobra.Command, args []string) error {
	t0 := time.Now()
	history := make([]waittime.Assignment, 0, len(estimateSamples))
	for _, mins := range estimateSamples {
		history = append(history, waittime.Assignment{
			CreatedAt:  t0,
			AssignedAt: t0.Add(time.Duration(mins * float64(time.Minute))),
		})
	}
	est := waittime.Decide(estimateDrivers, waittime.AverageAssignmentMinutes(history))

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(est)
}
