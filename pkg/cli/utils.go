package cli

import (
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/phinze/smokeport/pkg/config"
	"github.com/phinze/smokeport/pkg/probe"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// getAddress returns --addr, or the configured listener as seen from this host
func getAddress() (string, error) {
	if address != "" {
		if _, _, err := net.SplitHostPort(address); err != nil {
			return "", fmt.Errorf("invalid address %q: %w", address, err)
		}
		return address, nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}

	host := cfg.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return net.JoinHostPort(host, strconv.Itoa(cfg.Port)), nil
}

func printResult(w io.Writer, res *probe.Result) {
	resp := res.Response
	fmt.Fprintf(w, "%s  %s  %s\n", res.Addr, resp.StatusLine, res.Latency.Round(10*time.Microsecond))
	fmt.Fprintf(w, "  Message: %s\n", resp.Health.Message)
	fmt.Fprintf(w, "  Timestamp: %s\n", resp.Health.Timestamp)
	if !resp.ContentLengthMatches() {
		fmt.Fprintf(w, "  Warning: Content-Length %d does not match body length %d\n",
			resp.DeclaredLength(), len(resp.Body))
	}
	if verbose {
		fmt.Fprintf(w, "  Probe ID: %s\n", res.ID)
		fmt.Fprintf(w, "  Body: %s\n", resp.Body)
	}
}
