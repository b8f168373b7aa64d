// Package probe checks that a smokeport listener is reachable and answering.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/phinze/smokeport/pkg/protocol"
)

// DefaultTimeout bounds a single probe when the caller passes zero
const DefaultTimeout = 5 * time.Second

// Result is the outcome of one successful probe
type Result struct {
	ID       string
	Addr     string
	Latency  time.Duration
	Response *protocol.Response
}

// Probe dials addr, sends one request line and validates the response
func Probe(ctx context.Context, addr string, timeout time.Duration) (*Result, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	id := uuid.New().String()
	start := time.Now()

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	defer func() {
		_ = conn.Close()
	}()

	deadline := start.Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("failed to set deadline: %w", err)
	}

	// Unblock the read if ctx is cancelled mid-probe
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	if _, err := io.WriteString(conn, protocol.NewProbeLine(id)); err != nil {
		return nil, fmt.Errorf("failed to send probe: %w", err)
	}

	resp, err := protocol.ReadResponse(conn)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	if err := Verify(resp); err != nil {
		return nil, err
	}

	return &Result{
		ID:       id,
		Addr:     addr,
		Latency:  time.Since(start),
		Response: resp,
	}, nil
}

// Verify checks the status line and the health body
func Verify(resp *protocol.Response) error {
	if !resp.OK() {
		return fmt.Errorf("unexpected status line: %q", resp.StatusLine)
	}
	if resp.Health.Status != protocol.StatusOK {
		return fmt.Errorf("unexpected status: %q", resp.Health.Status)
	}
	if resp.Health.Message == "" {
		return errors.New("response has no message")
	}
	if _, err := resp.Health.Time(); err != nil {
		return err
	}
	return nil
}

// Burst runs n probes concurrently. The first failure cancels the rest and
// is returned.
func Burst(ctx context.Context, addr string, n int, timeout time.Duration) ([]*Result, error) {
	if n < 1 {
		return nil, fmt.Errorf("invalid burst size: %d", n)
	}

	results := make([]*Result, n)
	g, ctx := errgroup.WithContext(ctx)
	for i := range n {
		g.Go(func() error {
			res, err := Probe(ctx, addr, timeout)
			if err != nil {
				return fmt.Errorf("probe %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
