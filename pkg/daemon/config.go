package daemon

import (
	"log/slog"

	"github.com/phinze/smokeport/pkg/config"
)

// Options holds process settings that live outside the config file
type Options struct {
	SystemdMode bool // sd_notify readiness and socket activation
}

// NewWithOptions creates a daemon with process-level options applied
func NewWithOptions(cfg *config.Config, logger *slog.Logger, opts Options) *Daemon {
	d := New(cfg, logger)
	d.systemdMode = opts.SystemdMode
	return d
}
