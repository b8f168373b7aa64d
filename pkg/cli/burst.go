package cli

import (
	"fmt"
	"time"

	"github.com/phinze/smokeport/pkg/probe"
	"github.com/spf13/cobra"
)

func newBurstCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "burst",
		Short: "Send concurrent probes",
		Long:  `Opens --count connections at once and checks that every one gets its own valid response.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := getAddress()
			if err != nil {
				return err
			}

			start := time.Now()
			results, err := probe.Burst(cmd.Context(), addr, count, timeout)
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			var slowest time.Duration
			mismatched := 0
			for _, res := range results {
				slowest = max(slowest, res.Latency)
				if !res.Response.ContentLengthMatches() {
					mismatched++
				}
				if verbose {
					printResult(cmd.OutOrStdout(), res)
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d/%d probes succeeded against %s\n", len(results), count, addr)
			fmt.Fprintf(out, "  Total: %s\n", elapsed.Round(time.Millisecond))
			fmt.Fprintf(out, "  Slowest: %s\n", slowest.Round(time.Millisecond))
			if mismatched > 0 {
				fmt.Fprintf(out, "  Content-Length mismatches: %d\n", mismatched)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 50, "Number of concurrent probes")

	return cmd
}
