package ipinfo

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Client resolves the caller's public IP address through an external lookup
// endpoint returning {"ip": "..."}. The lookup is strictly best-effort: every
// failure (network, status, parse) degrades to an empty string so attendance
// writes never block on it.
type Client struct {
	endpoint string
	http     *http.Client
	logger   *zap.Logger
}

// New builds a lookup client with its own timeout, independent of the caller's.
func New(endpoint string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// Lookup returns the public IP, or "" when the lookup fails for any reason.
func (c *Client) Lookup(ctx context.Context) string {
	if c == nil || c.endpoint == "" {
		return ""
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return ""
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("ip lookup failed", zap.Error(err))
		return ""
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("ip lookup returned non-200", zap.Int("status", resp.StatusCode))
		return ""
	}

	var payload struct {
		IP string `json:"ip"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.Debug("ip lookup decode failed", zap.Error(err))
		return ""
	}
	return payload.IP
}
