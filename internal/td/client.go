// Package td is a small client for the Treasure Data REST API (v3).
//
// It covers only what a one-shot query needs: listing databases and tables,
// issuing a job, following its status and streaming the formatted result.
// Requests are never retried.
package td

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tdquery/tdquery-go/internal/query"
)

// DefaultEndpoint is used when no endpoint is configured.
const DefaultEndpoint = "https://api.treasuredata.com"

// Client talks to a single API endpoint with a single API key.
type Client struct {
	apiKey     string
	endpoint   string
	userAgent  string
	httpClient *http.Client
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient validates the key and endpoint and returns a Client.
// An endpoint without a scheme is treated as https.
func NewClient(apiKey, endpoint string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" || strings.ContainsAny(apiKey, " \t\r\n") {
		return nil, ErrInvalidAPIKey
	}

	ep, err := NormalizeEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	c := &Client{
		apiKey:     apiKey,
		endpoint:   ep,
		userAgent:  "tdquery",
		httpClient: &http.Client{},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NormalizeEndpoint adds a missing https scheme and trims trailing slashes.
func NormalizeEndpoint(endpoint string) (string, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return DefaultEndpoint, nil
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid endpoint %q", endpoint)
	}
	return strings.TrimRight(endpoint, "/"), nil
}

// Endpoint returns the normalized endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

type databaseList struct {
	Databases []struct {
		Name string `json:"name"`
	} `json:"databases"`
}

// ListDatabases returns the names of all databases visible to the key.
func (c *Client) ListDatabases(ctx context.Context) ([]string, error) {
	var resp databaseList
	if err := c.doJSON(ctx, http.MethodGet, "/v3/database/list", nil, nil, &resp); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.Databases))
	for _, db := range resp.Databases {
		names = append(names, db.Name)
	}
	return names, nil
}

type tableList struct {
	Database string `json:"database"`
	Tables   []struct {
		Name string `json:"name"`
	} `json:"tables"`
}

// ListTables returns the table names of a database.
func (c *Client) ListTables(ctx context.Context, database string) ([]string, error) {
	var resp tableList
	path := "/v3/table/list/" + url.PathEscape(database)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.Tables))
	for _, t := range resp.Tables {
		names = append(names, t.Name)
	}
	return names, nil
}

type issueResponse struct {
	JobID    string `json:"job_id"`
	Database string `json:"database"`
}

// Query issues q against database on the given engine and returns the queued job.
func (c *Client) Query(ctx context.Context, database, q string, engine query.Engine) (*Job, error) {
	form := url.Values{}
	form.Set("query", q)

	var resp issueResponse
	path := fmt.Sprintf("/v3/job/issue/%s/%s", url.PathEscape(string(engine)), url.PathEscape(database))
	if err := c.doJSON(ctx, http.MethodPost, path, nil, form, &resp); err != nil {
		return nil, err
	}
	if resp.JobID == "" {
		return nil, fmt.Errorf("job issue response did not include a job id")
	}

	return &Job{
		client:   c,
		ID:       resp.JobID,
		Database: database,
		Type:     engine,
		Query:    q,
		Status:   StatusQueued,
	}, nil
}

type statusResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// JobStatus returns the current status string of a job.
func (c *Client) JobStatus(ctx context.Context, jobID string) (string, error) {
	var resp statusResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v3/job/status/"+url.PathEscape(jobID), nil, nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// ShowJob returns the full job description, including result schema and debug output.
func (c *Client) ShowJob(ctx context.Context, jobID string) (*JobInfo, error) {
	var info JobInfo
	if err := c.doJSON(ctx, http.MethodGet, "/v3/job/show/"+url.PathEscape(jobID), nil, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ResultFormatEach opens the job result in the requested format.
// The returned Rows must be closed. A new call restarts the stream.
func (c *Client) ResultFormatEach(ctx context.Context, jobID string, format query.Format) (*Rows, error) {
	params := url.Values{}
	params.Set("format", string(format))

	resp, err := c.send(ctx, http.MethodGet, "/v3/job/result/"+url.PathEscape(jobID), params, nil)
	if err != nil {
		return nil, err
	}
	return newRows(resp.Body), nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, params, form url.Values, out any) error {
	resp, err := c.send(ctx, method, path, params, form)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// send performs the request and converts error statuses into typed errors.
// On success the caller owns resp.Body.
func (c *Client) send(ctx context.Context, method, path string, params, form url.Values) (*http.Response, error) {
	target := c.endpoint + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "TD1 "+c.apiKey)
	req.Header.Set("User-Agent", c.userAgent)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api request")

	if resp.StatusCode < http.StatusBadRequest {
		return resp, nil
	}

	defer func() { _ = resp.Body.Close() }()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	msg := errorMessage(resp.StatusCode, raw)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, &AuthError{StatusCode: resp.StatusCode, Message: msg}
	case http.StatusNotFound:
		return nil, &NotFoundError{Path: path, Message: msg}
	default:
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
}

// errorMessage extracts the most specific message from an error body.
func errorMessage(status int, raw []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Text    string `json:"text"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		for _, m := range []string{payload.Message, payload.Error, payload.Text} {
			if m != "" {
				return m
			}
		}
	}
	if s := strings.TrimSpace(string(raw)); s != "" {
		return s
	}
	return http.StatusText(status)
}
