package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/domain/entity"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/domain/repository"
)

const (
	// DefaultTimeout for HTTP requests
	DefaultTimeout = 30 * time.Second
	// maxErrorBody caps how much of an error response lands in the error message
	maxErrorBody = 512
)

// ErrMissingAPIKey is returned before any network call when the vendor
// credential is not configured.
var ErrMissingAPIKey = errors.New("billing API key not configured")

// Config represents billing vendor configuration
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client fetches the billing vendor's live metrics snapshot. It is a
// thin caller over one authenticated GET; all reconstruction logic
// lives in the metrics service.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a billing vendor client
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

var _ repository.OverviewProvider = (*Client)(nil)

// overviewResponse is the vendor's generic metrics envelope. Ids the
// dashboard does not know are ignored; ids the vendor omits default to
// zero.
type overviewResponse struct {
	Metrics []struct {
		ID    string  `json:"id"`
		Value float64 `json:"value"`
	} `json:"metrics"`
}

// FetchOverview performs a single authenticated GET against the
// vendor's overview endpoint. No retries, no pagination; a non-2xx
// status is fatal and carries the status plus a truncated body.
func (c *Client) FetchOverview(ctx context.Context) (*entity.Overview, error) {
	if c.config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	url := c.config.BaseURL + "/v2/projects/default/metrics/overview"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("billing overview request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read billing response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("billing vendor returned status %d: %s", resp.StatusCode, truncate(raw, maxErrorBody))
	}

	var parsed overviewResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode billing response: %w", err)
	}

	overview := &entity.Overview{}
	for _, m := range parsed.Metrics {
		value := int64(math.Round(m.Value))
		switch m.ID {
		case "mrr":
			overview.MRR = value
		case "active_subscriptions":
			overview.ActiveSubscriptions = value
		case "revenue":
			overview.Revenue28d = value
		case "active_users":
			overview.ActiveUsers28d = value
		case "new_customers":
			overview.NewCustomers28d = value
		case "active_trials":
			overview.ActiveTrials = value
		case "transactions":
			overview.Transactions28d = value
		}
	}

	c.logger.Debug("fetched billing overview",
		zap.Int64("mrr", overview.MRR),
		zap.Int64("active_subscriptions", overview.ActiveSubscriptions),
	)
	return overview, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
