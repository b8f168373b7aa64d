package opener

import (
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/pkg/browser"
)

// Opener opens a listener's test URL in the local browser
type Opener struct {
	logger *slog.Logger
	mu     sync.Mutex
	open   func(string) error
}

// New creates a new Opener
func New(logger *slog.Logger) *Opener {
	return &Opener{
		logger: logger,
		open:   browser.OpenURL,
	}
}

// OpenURL opens an http or https URL in the default browser
func (o *Opener) OpenURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host: %s", rawURL)
	}

	// Serialize browser launches
	o.mu.Lock()
	defer o.mu.Unlock()

	o.logger.Info("Opening URL", "url", rawURL)

	if err := o.open(rawURL); err != nil {
		o.logger.Error("Failed to open URL", "url", rawURL, "error", err)
		return fmt.Errorf("failed to open URL: %w", err)
	}

	o.logger.Debug("Successfully opened URL", "url", rawURL)
	return nil
}
