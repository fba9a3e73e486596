package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrRemoteQuery is returned when the query endpoint could not be reached.
var ErrRemoteQuery = errors.New("log analytics query failed")

// QueryResult is the raw response of the query endpoint
type QueryResult struct {
	StatusCode      int
	Body            string
	ExecutionTimeMs int64
}

// OK reports whether the endpoint answered with a 2xx status.
func (r *QueryResult) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// LogAnalyticsService submits KQL queries to an Azure Log Analytics workspace
type LogAnalyticsService struct {
	baseURL     string
	workspaceID string
	tokens      TokenProvider
	httpClient  *http.Client
}

// NewLogAnalyticsService creates a client for {baseURL}/v1/workspaces/{workspaceID}/query.
func NewLogAnalyticsService(baseURL, workspaceID string, tokens TokenProvider, httpClient *http.Client) *LogAnalyticsService {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &LogAnalyticsService{
		baseURL:     strings.TrimRight(baseURL, "/"),
		workspaceID: workspaceID,
		tokens:      tokens,
		httpClient:  httpClient,
	}
}

// QueryURL returns the workspace query endpoint.
func (s *LogAnalyticsService) QueryURL() string {
	return fmt.Sprintf("%s/v1/workspaces/%s/query", s.baseURL, url.PathEscape(s.workspaceID))
}

// TestConnection checks that a token can be acquired for the workspace
func (s *LogAnalyticsService) TestConnection(ctx context.Context) error {
	_, err := s.tokens.Token(ctx)
	return err
}

// ExecuteQuery acquires a fresh token and posts the query. The response body
// is returned verbatim whatever the status; only token and transport failures
// are errors.
func (s *LogAnalyticsService) ExecuteQuery(ctx context.Context, query string) (*QueryResult, error) {
	tok, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	body, err := encodeQueryBody(query)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.QueryURL(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteQuery, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok.Value)

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteQuery, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrRemoteQuery, err)
	}

	result := &QueryResult{
		StatusCode:      resp.StatusCode,
		Body:            string(raw),
		ExecutionTimeMs: time.Since(start).Milliseconds(),
	}
	if !result.OK() {
		log.Warn().
			Int("status", resp.StatusCode).
			Str("workspace_id", s.workspaceID).
			Msg("log analytics returned non-success status, relaying body")
	}
	return result, nil
}

// encodeQueryBody renders {"query": "..."} without HTML escaping so the
// operators in the query reach the API as typed.
func encodeQueryBody(query string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(struct {
		Query string `json:"query"`
	}{Query: query}); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
