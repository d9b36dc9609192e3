package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	// DefaultTimeout for HTTP requests
	DefaultTimeout = 30 * time.Second
	// maxErrorBody caps how much of an error response lands in the error message
	maxErrorBody = 512

	datastoreScope = "https://www.googleapis.com/auth/datastore"
)

// Config represents document store configuration
type Config struct {
	BaseURL         string
	ProjectID       string
	CredentialsJSON []byte
	Timeout         time.Duration
}

// Client speaks the document store's structured-query REST contract.
// It depends only on the wire shape (typed-value documents, runQuery /
// runAggregationQuery endpoints), not on a vendor SDK.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a document store client. When credentials are
// provided, requests are authenticated with a service-account token
// source; otherwise requests go out bare (emulator / test servers).
func NewClient(config Config, logger *zap.Logger) (*Client, error) {
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	httpClient := &http.Client{Timeout: config.Timeout}
	if len(config.CredentialsJSON) > 0 {
		jwtCfg, err := google.JWTConfigFromJSON(config.CredentialsJSON, datastoreScope)
		if err != nil {
			return nil, fmt.Errorf("failed to parse docstore credentials: %w", err)
		}
		httpClient = &http.Client{
			Timeout: config.Timeout,
			Transport: &oauth2.Transport{
				Source: jwtCfg.TokenSource(context.Background()),
			},
		}
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Filter is one equality/range clause; clauses combine with logical AND.
type Filter struct {
	Field string
	Op    Operator
	Value any
}

// Operator names follow the store's wire contract.
type Operator string

const (
	OpEqual              Operator = "EQUAL"
	OpGreaterThanOrEqual Operator = "GREATER_THAN_OR_EQUAL"
	OpLessThanOrEqual    Operator = "LESS_THAN_OR_EQUAL"
)

// Order is one order-by clause.
type Order struct {
	Field     string
	Direction Direction
}

type Direction string

const (
	Ascending  Direction = "ASCENDING"
	Descending Direction = "DESCENDING"
)

// Query describes a structured read against one collection.
type Query struct {
	Collection string
	Where      []Filter
	OrderBy    []Order
	Select     []string
	Limit      int
	Offset     int
}

// Record is one decoded document: field names to plain Go values.
type Record = map[string]any

// RunQuery executes a structured query and decodes the typed-value
// documents into plain records. A non-2xx response is fatal and carries
// the status and a truncated body; there is no retry.
func (c *Client) RunQuery(ctx context.Context, q Query) ([]Record, error) {
	body, err := json.Marshal(map[string]any{"structuredQuery": c.encodeQuery(q)})
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	raw, err := c.post(ctx, ":runQuery", body)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Document *struct {
			Fields map[string]json.RawMessage `json:"fields"`
		} `json:"document"`
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode query response: %w", err)
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		// Result rows without a document are progress markers; skip them.
		if row.Document == nil {
			continue
		}
		rec := make(Record, len(row.Document.Fields))
		for name, v := range row.Document.Fields {
			rec[name] = decodeValue(v)
		}
		records = append(records, rec)
	}

	c.logger.Debug("docstore query completed",
		zap.String("collection", q.Collection),
		zap.Int("records", len(records)),
	)
	return records, nil
}

// RunAggregation returns a server-side row count for the filtered
// collection without transferring rows.
func (c *Client) RunAggregation(ctx context.Context, collection string, where []Filter) (int64, error) {
	body, err := json.Marshal(map[string]any{
		"structuredAggregationQuery": map[string]any{
			"structuredQuery": c.encodeQuery(Query{Collection: collection, Where: where}),
			"aggregations": []map[string]any{
				{"alias": "count", "count": map[string]any{}},
			},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to encode aggregation: %w", err)
	}

	raw, err := c.post(ctx, ":runAggregationQuery", body)
	if err != nil {
		return 0, err
	}

	var rows []struct {
		Result *struct {
			AggregateFields map[string]json.RawMessage `json:"aggregateFields"`
		} `json:"result"`
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return 0, fmt.Errorf("failed to decode aggregation response: %w", err)
	}

	for _, row := range rows {
		if row.Result == nil {
			continue
		}
		if v, ok := row.Result.AggregateFields["count"]; ok {
			if n, ok := decodeValue(v).(int64); ok {
				return n, nil
			}
		}
	}
	return 0, fmt.Errorf("aggregation response missing count")
}

func (c *Client) post(ctx context.Context, op string, body []byte) ([]byte, error) {
	url := fmt.Sprintf("%s/projects/%s/databases/(default)/documents%s", c.config.BaseURL, c.config.ProjectID, op)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("docstore request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read docstore response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("docstore returned status %d: %s", resp.StatusCode, truncate(raw, maxErrorBody))
	}
	return raw, nil
}

func (c *Client) encodeQuery(q Query) map[string]any {
	sq := map[string]any{
		"from": []map[string]any{{"collectionId": q.Collection}},
	}

	if len(q.Where) == 1 {
		sq["where"] = encodeFilter(q.Where[0])
	} else if len(q.Where) > 1 {
		filters := make([]map[string]any, len(q.Where))
		for i, f := range q.Where {
			filters[i] = encodeFilter(f)
		}
		sq["where"] = map[string]any{
			"compositeFilter": map[string]any{"op": "AND", "filters": filters},
		}
	}

	if len(q.OrderBy) > 0 {
		orders := make([]map[string]any, len(q.OrderBy))
		for i, o := range q.OrderBy {
			orders[i] = map[string]any{
				"field":     map[string]any{"fieldPath": o.Field},
				"direction": string(o.Direction),
			}
		}
		sq["orderBy"] = orders
	}

	if len(q.Select) > 0 {
		fields := make([]map[string]any, len(q.Select))
		for i, f := range q.Select {
			fields[i] = map[string]any{"fieldPath": f}
		}
		sq["select"] = map[string]any{"fields": fields}
	}

	if q.Limit > 0 {
		sq["limit"] = q.Limit
	}
	if q.Offset > 0 {
		sq["offset"] = q.Offset
	}
	return sq
}

func encodeFilter(f Filter) map[string]any {
	return map[string]any{
		"fieldFilter": map[string]any{
			"field": map[string]any{"fieldPath": f.Field},
			"op":    string(f.Op),
			"value": encodeValue(f.Value),
		},
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
