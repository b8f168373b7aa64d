package cli

import (
	"fmt"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/phinze/smokeport/pkg/config"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Display listener configuration",
		Long:  `Displays the effective listener configuration and where it was loaded from.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Smokeport Configuration:")
			fmt.Fprintf(out, "  Address: %s\n", cfg.Address())
			fmt.Fprintf(out, "  Server Name: %s\n", cfg.ServerName)
			fmt.Fprintf(out, "  Read Timeout: %s\n", cfg.ReadTimeout)
			fmt.Fprintf(out, "  Write Timeout: %s\n", cfg.WriteTimeout)
			if cfg.MaxConnections == 0 {
				fmt.Fprintf(out, "  Max Connections: unbounded\n")
			} else {
				fmt.Fprintf(out, "  Max Connections: %d\n", cfg.MaxConnections)
			}
			fmt.Fprintf(out, "  Legacy Content-Length: %t\n", cfg.LegacyContentLength)
			fmt.Fprintf(out, "  Log Level: %s\n", cfg.LogLevel)
			fmt.Fprintf(out, "  Log Format: %s\n", cfg.LogFormat)
			fmt.Fprintf(out, "  Test URL: %s\n", cfg.TestURL())

			path := configPath
			if path == "" {
				if path, err = config.DefaultPath(); err != nil {
					return err
				}
			}
			expanded, _ := homedir.Expand(path)
			if _, err := os.Stat(expanded); err == nil {
				fmt.Fprintf(out, "\nConfig File: %s (found)\n", path)
			} else {
				fmt.Fprintf(out, "\nConfig File: %s (not found, using defaults)\n", path)
			}

			return nil
		},
	}
}
