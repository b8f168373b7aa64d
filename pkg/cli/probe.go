package cli

import (
	"github.com/phinze/smokeport/pkg/probe"
	"github.com/spf13/cobra"
)

func newProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Send one probe and validate the response",
		Long: `Connects to the listener, sends a single request line and checks that the
response is a 200 with a well-formed health body.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := getAddress()
			if err != nil {
				return err
			}

			res, err := probe.Probe(cmd.Context(), addr, timeout)
			if err != nil {
				return err
			}

			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
}
