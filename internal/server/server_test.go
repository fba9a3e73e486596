package server_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/secbot/secbot/internal/config"
	"github.com/secbot/secbot/internal/models"
	"github.com/secbot/secbot/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Host:               "127.0.0.1",
		Port:               8080,
		Environment:        "test",
		APIPrefix:          "/api/v1",
		APIKeyHeader:       "X-API-Key",
		APIKeys:            []string{"k1"},
		EnableAuth:         true,
		RateLimitPerMinute: 100,
		ChatModel:          config.DefaultChatModel,
		ChatMaxTokens:      config.DefaultChatMaxTokens,
		LogAnalyticsScope:  config.DefaultLogAnalyticsScope,
		TurnTimeout:        config.Duration(5 * time.Second),
		HTTPTimeout:        config.Duration(5 * time.Second),
		MaxMessageLength:   config.DefaultMaxMessageLength,
	}
}

func do(t *testing.T, h http.Handler, method, path, body string, key string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRoutesWithoutBackends(t *testing.T) {
	h := server.New(testConfig()).Handler()

	rr := do(t, h, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	rr = do(t, h, http.MethodPost, "/api/v1/messages", `{"text":"generate failed sign-in"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = do(t, h, http.MethodPost, "/api/v1/messages", `{"text":"generate failed sign-in"}`, "k1")
	require.Equal(t, http.StatusOK, rr.Code)
	var resp models.MessageResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "SecurityEvent | where 1 == 1 | where EventID == 4625 ", resp.Reply)

	rr = do(t, h, http.MethodPost, "/api/v1/messages", `{"text":"run failed sign-in"}`, "k1")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = do(t, h, http.MethodPost, "/api/v1/messages", `{"text":"what is phishing?"}`, "k1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "couldn't process your request")

	rr = do(t, h, http.MethodGet, "/api/v1/events", "", "k1")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRunThroughLogAnalytics(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tenant-1/oauth2/v2.0/token", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token_type":"Bearer","expires_in":3599,"access_token":"tok"}`))
	}))
	defer tokenSrv.Close()

	querySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/workspaces/ws-1/query", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		io.Copy(io.Discard, r.Body)
		w.Write([]byte(`{"tables":[{"name":"PrimaryResult","rows":[]}]}`))
	}))
	defer querySrv.Close()

	cfg := testConfig()
	cfg.WorkspaceID = "ws-1"
	cfg.TenantID = "tenant-1"
	cfg.ClientID = "client"
	cfg.ClientSecret = "secret"
	cfg.AuthorityURL = tokenSrv.URL
	cfg.LogAnalyticsURL = querySrv.URL
	h := server.New(cfg).Handler()

	rr := do(t, h, http.MethodPost, "/api/messages",
		`{"type":"message","id":"a1","text":"run account lockout for 2 days","from":{"id":"u1"}}`, "k1")
	require.Equal(t, http.StatusOK, rr.Code)

	var act models.Activity
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &act))
	assert.True(t, strings.HasPrefix(act.Text, "KQL Query: SecurityEvent | where 1 == 1 | where EventID == 4740 "))
	assert.True(t, strings.HasSuffix(act.Text, "\n\nResult: {\"tables\":[{\"name\":\"PrimaryResult\",\"rows\":[]}]}"))

	rr = do(t, h, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"log_analytics":"ok"`)
}
