package docstore

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// queryServer records the last request and replies with a fixed body.
type queryServer struct {
	*httptest.Server
	lastPath string
	lastBody map[string]any
}

func newQueryServer(t *testing.T, status int, response string) *queryServer {
	t.Helper()
	qs := &queryServer{}
	qs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		qs.lastPath = r.URL.Path
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		qs.lastBody = nil
		require.NoError(t, json.Unmarshal(raw, &qs.lastBody))
		w.WriteHeader(status)
		w.Write([]byte(response))
	}))
	t.Cleanup(qs.Close)
	return qs
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(Config{BaseURL: baseURL, ProjectID: "test-project"}, zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestRunQuery(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes typed values into plain records", func(t *testing.T) {
		srv := newQueryServer(t, http.StatusOK, `[
			{"document": {"fields": {
				"type": {"stringValue": "RENEWAL"},
				"timestampMs": {"integerValue": "1709290800000"},
				"priceInPurchasedCurrency": {"doubleValue": 9.99},
				"isTrialPeriod": {"booleanValue": true},
				"createdAt": {"timestampValue": "2024-03-01T11:00:00Z"},
				"note": {"nullValue": null}
			}}},
			{"readTime": "2024-03-01T11:00:00Z"}
		]`)
		client := newTestClient(t, srv.URL)

		records, err := client.RunQuery(ctx, Query{Collection: "events"})
		require.NoError(t, err)

		// The documentless progress row is skipped.
		require.Len(t, records, 1)
		rec := records[0]
		assert.Equal(t, "RENEWAL", rec["type"])
		assert.Equal(t, int64(1709290800000), rec["timestampMs"])
		assert.Equal(t, 9.99, rec["priceInPurchasedCurrency"])
		assert.Equal(t, true, rec["isTrialPeriod"])
		assert.Equal(t, time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC), rec["createdAt"])
		assert.Nil(t, rec["note"])
	})

	t.Run("posts to the project runQuery endpoint", func(t *testing.T) {
		srv := newQueryServer(t, http.StatusOK, `[]`)
		client := newTestClient(t, srv.URL)

		_, err := client.RunQuery(ctx, Query{Collection: "events"})
		require.NoError(t, err)

		assert.Equal(t, "/projects/test-project/databases/(default)/documents:runQuery", srv.lastPath)
	})

	t.Run("encodes a single filter without a composite wrapper", func(t *testing.T) {
		srv := newQueryServer(t, http.StatusOK, `[]`)
		client := newTestClient(t, srv.URL)

		_, err := client.RunQuery(ctx, Query{
			Collection: "events",
			Where:      []Filter{{Field: "type", Op: OpEqual, Value: "RENEWAL"}},
		})
		require.NoError(t, err)

		sq := srv.lastBody["structuredQuery"].(map[string]any)
		where := sq["where"].(map[string]any)
		require.Contains(t, where, "fieldFilter")
		assert.NotContains(t, where, "compositeFilter")

		ff := where["fieldFilter"].(map[string]any)
		assert.Equal(t, "EQUAL", ff["op"])
		assert.Equal(t, map[string]any{"stringValue": "RENEWAL"}, ff["value"])
	})

	t.Run("combines multiple filters with a composite AND", func(t *testing.T) {
		srv := newQueryServer(t, http.StatusOK, `[]`)
		client := newTestClient(t, srv.URL)

		_, err := client.RunQuery(ctx, Query{
			Collection: "events",
			Where: []Filter{
				{Field: "timestampMs", Op: OpGreaterThanOrEqual, Value: int64(1000)},
				{Field: "timestampMs", Op: OpLessThanOrEqual, Value: int64(2000)},
			},
		})
		require.NoError(t, err)

		sq := srv.lastBody["structuredQuery"].(map[string]any)
		composite := sq["where"].(map[string]any)["compositeFilter"].(map[string]any)
		assert.Equal(t, "AND", composite["op"])
		assert.Len(t, composite["filters"], 2)

		// 64-bit integers travel as strings.
		first := composite["filters"].([]any)[0].(map[string]any)["fieldFilter"].(map[string]any)
		assert.Equal(t, map[string]any{"integerValue": "1000"}, first["value"])
	})

	t.Run("encodes order-by and field projection", func(t *testing.T) {
		srv := newQueryServer(t, http.StatusOK, `[]`)
		client := newTestClient(t, srv.URL)

		_, err := client.RunQuery(ctx, Query{
			Collection: "events",
			OrderBy:    []Order{{Field: "timestampMs", Direction: Ascending}},
			Select:     []string{"type", "timestampMs"},
		})
		require.NoError(t, err)

		sq := srv.lastBody["structuredQuery"].(map[string]any)

		orders := sq["orderBy"].([]any)
		require.Len(t, orders, 1)
		assert.Equal(t, "ASCENDING", orders[0].(map[string]any)["direction"])

		fields := sq["select"].(map[string]any)["fields"].([]any)
		assert.Len(t, fields, 2)
	})

	t.Run("surfaces non-2xx responses with status and truncated body", func(t *testing.T) {
		srv := newQueryServer(t, http.StatusForbidden, strings.Repeat("x", 600))
		client := newTestClient(t, srv.URL)

		_, err := client.RunQuery(ctx, Query{Collection: "events"})
		require.Error(t, err)

		assert.Contains(t, err.Error(), "status 403")
		assert.Contains(t, err.Error(), strings.Repeat("x", 512)+"...")
		assert.NotContains(t, err.Error(), strings.Repeat("x", 513))
	})
}

func TestRunAggregation(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the server-side count", func(t *testing.T) {
		srv := newQueryServer(t, http.StatusOK, `[
			{"result": {"aggregateFields": {"count": {"integerValue": "1234"}}}}
		]`)
		client := newTestClient(t, srv.URL)

		n, err := client.RunAggregation(ctx, "events", nil)
		require.NoError(t, err)

		assert.Equal(t, int64(1234), n)
		assert.Equal(t, "/projects/test-project/databases/(default)/documents:runAggregationQuery", srv.lastPath)
	})

	t.Run("fails when the response carries no count", func(t *testing.T) {
		srv := newQueryServer(t, http.StatusOK, `[{"readTime": "2024-03-01T11:00:00Z"}]`)
		client := newTestClient(t, srv.URL)

		_, err := client.RunAggregation(ctx, "events", nil)
		assert.ErrorContains(t, err, "missing count")
	})
}

func TestDecodeValue(t *testing.T) {
	t.Run("decodes nested maps and arrays", func(t *testing.T) {
		v := decodeValue(json.RawMessage(`{
			"mapValue": {"fields": {
				"tags": {"arrayValue": {"values": [
					{"stringValue": "a"},
					{"integerValue": "2"}
				]}}
			}}
		}`))

		m, ok := v.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, []any{"a", int64(2)}, m["tags"])
	})

	t.Run("malformed values decode to nil", func(t *testing.T) {
		assert.Nil(t, decodeValue(json.RawMessage(`"not an object"`)))
		assert.Nil(t, decodeValue(json.RawMessage(`{"integerValue": "not-a-number"}`)))
		assert.Nil(t, decodeValue(json.RawMessage(`{"unknownValue": 1}`)))
	})
}
