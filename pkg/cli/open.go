package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/phinze/smokeport/internal/logger"
	"github.com/phinze/smokeport/pkg/opener"
	"github.com/spf13/cobra"
)

func newOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open",
		Short: "Open the listener's test URL in the local browser",
		Long:  `Opens http://<addr>/health in the default browser on this machine.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := getAddress()
			if err != nil {
				return err
			}

			log := logger.Get()
			if verbose {
				log = logger.New(os.Stderr, slog.LevelDebug, "text")
			}
			o := opener.New(log)

			testURL := "http://" + addr + "/health"
			if err := o.OpenURL(testURL); err != nil {
				return err
			}

			if verbose {
				fmt.Fprintf(cmd.OutOrStdout(), "Opened %s\n", testURL)
			}
			return nil
		},
	}
}
