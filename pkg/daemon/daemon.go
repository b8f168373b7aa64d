package daemon

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/phinze/smokeport/pkg/config"
	"github.com/phinze/smokeport/pkg/protocol"
)

const maxAcceptBackoff = time.Second

// Daemon accepts connections and answers each with a health response
type Daemon struct {
	config      *config.Config
	listener    net.Listener
	logger      *slog.Logger
	wg          sync.WaitGroup
	sem         *semaphore.Weighted
	now         func() time.Time
	systemdMode bool
	pidFile     string
}

// New creates a new daemon instance
func New(cfg *config.Config, logger *slog.Logger) *Daemon {
	d := &Daemon{
		config:  cfg,
		logger:  logger,
		now:     time.Now,
		pidFile: cfg.PIDFile,
	}
	if cfg.MaxConnections > 0 {
		d.sem = semaphore.NewWeighted(int64(cfg.MaxConnections))
	}
	return d
}

// Listen binds the configured address
func (d *Daemon) Listen() error {
	if d.listener != nil {
		return errors.New("listener already started")
	}

	listener, err := d.getListenerWithActivation()
	if err != nil {
		return fmt.Errorf("failed to start listener: %w", err)
	}
	d.listener = listener
	return nil
}

// Addr returns the bound address, or nil before Listen
func (d *Daemon) Addr() net.Addr {
	if d.listener == nil {
		return nil
	}
	return d.listener.Addr()
}

// Run binds, serves until ctx is cancelled and cleans up after itself
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Listen(); err != nil {
		return err
	}

	if d.pidFile != "" {
		if err := d.writePIDFile(); err != nil {
			_ = d.listener.Close()
			return err
		}
		defer d.removePIDFile()
	}

	d.logger.Info("Server started",
		"address", d.listener.Addr().String(),
		"server_name", d.config.ServerName,
		"test_url", d.testURL(),
	)

	if d.systemdMode {
		d.notifySystemd("READY=1")
		d.notifySystemd("STATUS=Accepting connections on " + d.listener.Addr().String())
		go d.watchdogLoop(ctx)
	}

	err := d.Serve(ctx)

	if d.systemdMode {
		d.notifySystemd("STOPPING=1")
	}
	d.logger.Info("Server stopped")
	return err
}

// Serve runs the accept loop until ctx is cancelled. Each connection is
// handled on its own goroutine; Serve waits for them before returning.
func (d *Daemon) Serve(ctx context.Context) error {
	if d.listener == nil {
		return errors.New("listener not started")
	}

	stop := context.AfterFunc(ctx, func() {
		if err := d.listener.Close(); err != nil {
			d.logger.Error("Failed to close listener", "error", err)
		}
	})
	defer stop()

	var backoff time.Duration
	for {
		conn, err := d.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			if errors.Is(err, net.ErrClosed) {
				d.wg.Wait()
				return fmt.Errorf("listener closed: %w", err)
			}

			if backoff == 0 {
				backoff = 5 * time.Millisecond
			} else {
				backoff = min(backoff*2, maxAcceptBackoff)
			}
			d.logger.Error("Failed to accept connection", "error", err, "retry_in", backoff)
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		remoteAddr := conn.RemoteAddr().String()
		d.logger.Info("New connection", "remote", remoteAddr)

		if d.sem != nil && !d.sem.TryAcquire(1) {
			d.logger.Warn("Rejecting connection, too many in flight",
				"remote", remoteAddr,
				"max_connections", d.config.MaxConnections,
			)
			_ = conn.Close()
			continue
		}

		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			if d.sem != nil {
				defer d.sem.Release(1)
			}
			d.handleConnection(ctx, conn)
		}()
	}

	d.wg.Wait()
	return nil
}

// handleConnection reads one line, answers it and closes conn. Cancelling
// ctx expires the connection's deadlines so a silent client cannot hold it.
func (d *Daemon) handleConnection(ctx context.Context, conn net.Conn) {
	remoteAddr := conn.RemoteAddr().String()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	err := d.respond(ctx, conn)
	if closeErr := conn.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("failed to close connection: %w", closeErr)
	}
	if err != nil {
		d.logger.Error("Error handling request", "error", err, "remote", remoteAddr)
		return
	}

	d.logger.Info("Response sent", "remote", remoteAddr)
}

func (d *Daemon) respond(ctx context.Context, conn net.Conn) error {
	if d.config.ReadTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(d.config.ReadTimeout)); err != nil {
			return fmt.Errorf("failed to set read deadline: %w", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("listener stopping: %w", err)
	}

	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read request line: %w", err)
	}
	d.logger.Info("Request", "line", strings.TrimRight(line, "\r\n"), "remote", conn.RemoteAddr().String())

	health := protocol.NewHealth(d.config.ServerName, d.now())
	data, err := protocol.MarshalResponse(health, d.config.LegacyContentLength)
	if err != nil {
		return err
	}

	if d.config.WriteTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(d.config.WriteTimeout)); err != nil {
			return fmt.Errorf("failed to set write deadline: %w", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("listener stopping: %w", err)
	}

	writer := bufio.NewWriter(conn)
	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush response: %w", err)
	}
	return nil
}

// testURL is the configured test URL with the port actually bound
func (d *Daemon) testURL() string {
	cfg := *d.config
	if tcpAddr, ok := d.listener.Addr().(*net.TCPAddr); ok {
		cfg.Port = tcpAddr.Port
	}
	return cfg.TestURL()
}
