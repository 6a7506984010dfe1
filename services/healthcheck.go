package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"vastai-scraper/utils"
)

// HealthPinger notifies an external dead-man's-switch after a good cycle.
// Pings are never retried and their failures never propagate.
type HealthPinger struct {
	url    string
	client *http.Client
	logger utils.Logger
}

// NewHealthPinger returns nil when url is empty; a nil pinger is a no-op.
func NewHealthPinger(url string, timeout time.Duration, logger utils.Logger) *HealthPinger {
	if url == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HealthPinger{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger.With(utils.Fields{"component": "healthcheck"}),
	}
}

// Ping issues a best-effort GET. It reports whether the ping succeeded.
func (h *HealthPinger) Ping(ctx context.Context) bool {
	if h == nil {
		return false
	}
	if err := h.get(ctx); err != nil {
		h.logger.With(utils.Fields{"error": err.Error()}).Warn("Healthcheck ping failed")
		return false
	}
	return true
}

func (h *HealthPinger) get(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return fmt.Errorf("healthcheck: build request: %w", err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("healthcheck: request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("healthcheck: unexpected status %d", resp.StatusCode)
	}
	return nil
}
