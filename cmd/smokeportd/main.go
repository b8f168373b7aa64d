package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/phinze/smokeport/internal/logger"
	"github.com/phinze/smokeport/pkg/config"
	"github.com/phinze/smokeport/pkg/daemon"
	"github.com/phinze/smokeport/version"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type flags struct {
	configPath  string
	debug       bool
	port        int
	serverName  string
	systemdMode bool
	pidFile     string
}

// loadConfig reads the config file and applies flags on top before
// validating, so flag values get the same checks and expansion
func (f *flags) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if f.debug {
		cfg.LogLevel = "debug"
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = f.port
	}
	if cmd.Flags().Changed("name") {
		cfg.ServerName = f.serverName
	}
	if cmd.Flags().Changed("pid-file") {
		cfg.PIDFile = f.pidFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "smokeportd",
		Short: "Smokeport listener - answers every connection with a health response",
		Long: `Smokeport listener binds a TCP port, reads one line from each connection
and answers with a small JSON health document before closing it. Use it to
check that a client can reach a host and port.`,
		Version:      version.GetFullVersion(),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.loadConfig(cmd)
			if err != nil {
				logger.Get().Error("Startup failed", "error", err)
				return err
			}

			level, err := logger.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			log := logger.New(os.Stderr, level, cfg.LogFormat)

			log.Info("Starting smokeport listener",
				"version", version.GetVersion(),
				"commit", version.Commit,
				"date", version.Date,
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			d := daemon.NewWithOptions(cfg, log, daemon.Options{
				SystemdMode: f.systemdMode,
			})
			if err := d.Run(ctx); err != nil {
				log.Error("Listener failed", "error", err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&f.configPath, "config", "", "Path to configuration file (default: ~/.config/smokeport/config.yaml)")
	cmd.Flags().BoolVar(&f.debug, "debug", false, "Enable debug logging")
	cmd.Flags().IntVarP(&f.port, "port", "p", config.DefaultPort, "Port to listen on")
	cmd.Flags().StringVar(&f.serverName, "name", config.DefaultServerName, "Server name reported in responses")
	cmd.Flags().BoolVar(&f.systemdMode, "systemd", false, "Run in systemd mode with sd_notify and socket activation")
	cmd.Flags().StringVar(&f.pidFile, "pid-file", "", "Path to PID file (overrides pid_file in config)")

	return cmd
}
