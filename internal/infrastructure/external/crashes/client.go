package crashes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/domain/entity"
)

// DefaultTimeout for HTTP requests
const DefaultTimeout = 30 * time.Second

// ErrMissingAPIKey is returned before any network call when the vendor
// credential is not configured.
var ErrMissingAPIKey = errors.New("crash reporting API key not configured")

// Config represents crash-reporting vendor configuration
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client fetches the crash-reporting vendor's stability snapshot for
// the dashboard header.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a crash-reporting vendor client
func NewClient(config Config, logger *zap.Logger) *Client {
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
	}
}

// FetchOverview returns the current crash-free-sessions rate and the
// trailing event count. Missing fields default to zero.
func (c *Client) FetchOverview(ctx context.Context) (*entity.CrashOverview, error) {
	if c.config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/api/v1/stability/overview", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crash overview request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read crash response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body := raw
		if len(body) > 512 {
			body = body[:512]
		}
		return nil, fmt.Errorf("crash vendor returned status %d: %s", resp.StatusCode, body)
	}

	var parsed struct {
		CrashFreeSessions float64 `json:"crash_free_sessions"`
		Events24h         int64   `json:"events_24h"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode crash response: %w", err)
	}

	c.logger.Debug("fetched crash overview", zap.Float64("crash_free_sessions", parsed.CrashFreeSessions))
	return &entity.CrashOverview{
		CrashFreeSessions: parsed.CrashFreeSessions,
		Events24h:         parsed.Events24h,
	}, nil
}
