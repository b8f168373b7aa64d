package daemon

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

// listenFDsStart is the first file descriptor systemd passes
const listenFDsStart = 3

// notifySystemd writes state to NOTIFY_SOCKET; a no-op outside systemd mode
func (d *Daemon) notifySystemd(state string) {
	if !d.systemdMode {
		return
	}

	socketPath := os.Getenv("NOTIFY_SOCKET")
	if socketPath == "" {
		return
	}

	if socketPath[0] == '@' {
		socketPath = "\x00" + socketPath[1:]
	}

	conn, err := net.Dial("unixgram", socketPath)
	if err != nil {
		d.logger.Debug("Notify socket unreachable", "socket", socketPath, "error", err)
		return
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(state)); err != nil {
		d.logger.Debug("Notify write failed", "state", state, "error", err)
	}
}

// watchdogInterval is half of WATCHDOG_USEC, or false when systemd
// did not ask for watchdog pings
func watchdogInterval() (time.Duration, bool) {
	usec, err := strconv.ParseInt(os.Getenv("WATCHDOG_USEC"), 10, 64)
	if err != nil || usec <= 0 {
		return 0, false
	}
	return time.Duration(usec) * time.Microsecond / 2, true
}

// watchdogLoop pings WATCHDOG=1 until ctx ends
func (d *Daemon) watchdogLoop(ctx context.Context) {
	interval, ok := watchdogInterval()
	if !d.systemdMode || !ok {
		return
	}
	d.logger.Debug("Watchdog enabled", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.notifySystemd("WATCHDOG=1")
		case <-ctx.Done():
			return
		}
	}
}

// writePIDFile records our pid so service managers can find the listener
func (d *Daemon) writePIDFile() error {
	if d.pidFile == "" {
		return nil
	}

	pid := os.Getpid()
	if err := os.WriteFile(d.pidFile, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}

	d.logger.Debug("PID file written", "path", d.pidFile, "pid", pid)
	return nil
}

func (d *Daemon) removePIDFile() {
	if d.pidFile == "" {
		return
	}

	if err := os.Remove(d.pidFile); err != nil && !os.IsNotExist(err) {
		d.logger.Warn("Stale PID file left behind", "path", d.pidFile, "error", err)
	}
}

// getListenerWithActivation uses a socket passed by systemd when one is
// available, and binds the configured address otherwise
func (d *Daemon) getListenerWithActivation() (net.Listener, error) {
	address := d.config.Address()

	if !d.systemdMode {
		return net.Listen("tcp", address)
	}

	// LISTEN_PID must name us, otherwise the fds were meant for a parent
	if pid := os.Getenv("LISTEN_PID"); pid != "" && pid != strconv.Itoa(os.Getpid()) {
		return net.Listen("tcp", address)
	}

	numFDs, err := strconv.Atoi(os.Getenv("LISTEN_FDS"))
	if err != nil || numFDs < 1 {
		return net.Listen("tcp", address)
	}

	file := os.NewFile(uintptr(listenFDsStart), "systemd-socket")
	if file == nil {
		return net.Listen("tcp", address)
	}
	defer file.Close()

	listener, err := net.FileListener(file)
	if err != nil {
		d.logger.Warn("Failed to create listener from systemd socket", "error", err)
		return net.Listen("tcp", address)
	}

	d.logger.Info("Using systemd socket activation", "address", listener.Addr().String())
	return listener, nil
}
