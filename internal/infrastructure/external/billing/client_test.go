package billing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFetchOverview(t *testing.T) {
	ctx := context.Background()

	t.Run("maps known metric ids onto the overview", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v2/projects/default/metrics/overview", r.URL.Path)
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			w.Write([]byte(`{"metrics": [
				{"id": "mrr", "value": 12345.6},
				{"id": "active_subscriptions", "value": 321},
				{"id": "revenue", "value": 99999},
				{"id": "active_users", "value": 1200},
				{"id": "new_customers", "value": 45},
				{"id": "active_trials", "value": 17},
				{"id": "transactions", "value": 410},
				{"id": "some_future_metric", "value": 1}
			]}`))
		}))
		defer srv.Close()

		client := NewClient(Config{BaseURL: srv.URL, APIKey: "secret"}, zap.NewNop())

		ov, err := client.FetchOverview(ctx)
		require.NoError(t, err)

		assert.Equal(t, int64(12346), ov.MRR) // rounded
		assert.Equal(t, int64(321), ov.ActiveSubscriptions)
		assert.Equal(t, int64(99999), ov.Revenue28d)
		assert.Equal(t, int64(1200), ov.ActiveUsers28d)
		assert.Equal(t, int64(45), ov.NewCustomers28d)
		assert.Equal(t, int64(17), ov.ActiveTrials)
		assert.Equal(t, int64(410), ov.Transactions28d)
	})

	t.Run("omitted metric ids default to zero", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"metrics": [{"id": "mrr", "value": 100}]}`))
		}))
		defer srv.Close()

		client := NewClient(Config{BaseURL: srv.URL, APIKey: "secret"}, zap.NewNop())

		ov, err := client.FetchOverview(ctx)
		require.NoError(t, err)

		assert.Equal(t, int64(100), ov.MRR)
		assert.Zero(t, ov.ActiveSubscriptions)
		assert.Zero(t, ov.ActiveTrials)
	})

	t.Run("fails before any network call without an API key", func(t *testing.T) {
		called := false
		srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			called = true
		}))
		defer srv.Close()

		client := NewClient(Config{BaseURL: srv.URL}, zap.NewNop())

		_, err := client.FetchOverview(ctx)
		assert.ErrorIs(t, err, ErrMissingAPIKey)
		assert.False(t, called)
	})

	t.Run("surfaces non-2xx responses with status and truncated body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(strings.Repeat("r", 600)))
		}))
		defer srv.Close()

		client := NewClient(Config{BaseURL: srv.URL, APIKey: "secret"}, zap.NewNop())

		_, err := client.FetchOverview(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 429")
		assert.Contains(t, err.Error(), strings.Repeat("r", 512)+"...")
	})

	t.Run("fails on a malformed payload", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`not json`))
		}))
		defer srv.Close()

		client := NewClient(Config{BaseURL: srv.URL, APIKey: "secret"}, zap.NewNop())

		_, err := client.FetchOverview(ctx)
		assert.ErrorContains(t, err, "decode")
	})
}
