package cli

import (
	"time"

	"github.com/phinze/smokeport/pkg/probe"
	"github.com/phinze/smokeport/version"
	"github.com/spf13/cobra"
)

var (
	address    string
	configPath string
	timeout    time.Duration
	verbose    bool
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "smokeport",
		Short: "Smokeport client - checks that a smokeport listener answers",
		Long: `Smokeport client connects to a smokeport listener to:
- Send a probe and validate the health response
- Fire a burst of concurrent probes
- Open the listener's test URL in your browser`,
		Version:      version.GetFullVersion(),
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&address, "addr", "a", "", "Listener address host:port (default: from config)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file (default: ~/.config/smokeport/config.yaml)")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", probe.DefaultTimeout, "Per-probe timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(newProbeCmd())
	rootCmd.AddCommand(newBurstCmd())
	rootCmd.AddCommand(newOpenCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}
