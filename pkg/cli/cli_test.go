package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phinze/smokeport/pkg/config"
	"github.com/phinze/smokeport/pkg/daemon"
)

func startDaemon(t *testing.T) string {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	d := daemon.New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := d.Listen(); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return d.Addr().String()
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// Flags bind to package variables; reset them between runs
	address, configPath, verbose = "", "", false

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestProbeCommand(t *testing.T) {
	addr := startDaemon(t)

	out, err := execute(t, "probe", "--addr", addr, "-v")
	if err != nil {
		t.Fatalf("probe error = %v\n%s", err, out)
	}
	for _, want := range []string{"HTTP/1.1 200 OK", "Smokeport is working!", "Probe ID:"} {
		if !strings.Contains(out, want) {
			t.Errorf("probe output missing %q:\n%s", want, out)
		}
	}
}

func TestBurstCommand(t *testing.T) {
	addr := startDaemon(t)

	out, err := execute(t, "burst", "--addr", addr, "-n", "20")
	if err != nil {
		t.Fatalf("burst error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "20/20 probes succeeded") {
		t.Errorf("burst output = %s", out)
	}
}

func TestInvalidAddress(t *testing.T) {
	if _, err := execute(t, "probe", "--addr", "no-port"); err == nil {
		t.Error("probe with an address lacking a port should fail")
	}
}

func TestConfigCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "port: 4100\nserver_name: Java HTTP Server\nmax_connections: 0\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	out, err := execute(t, "config", "--config", path)
	if err != nil {
		t.Fatalf("config error = %v\n%s", err, out)
	}
	for _, want := range []string{
		"Address: :4100",
		"Server Name: Java HTTP Server",
		"Max Connections: unbounded",
		"Test URL: http://localhost:4100/health",
		"(found)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("config output missing %q:\n%s", want, out)
		}
	}
}

func TestGetAddressFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: 4200\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	address, configPath = "", path
	defer func() { configPath = "" }()

	got, err := getAddress()
	if err != nil {
		t.Fatalf("getAddress() error = %v", err)
	}
	if got != "localhost:4200" {
		t.Errorf("getAddress() = %v, want localhost:4200", got)
	}
}
