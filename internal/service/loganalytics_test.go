package service_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/secbot/secbot/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens struct {
	value string
	err   error
	calls int
}

func (s *staticTokens) Token(ctx context.Context) (service.AccessToken, error) {
	s.calls++
	if s.err != nil {
		return service.AccessToken{}, s.err
	}
	return service.AccessToken{Value: s.value}, nil
}

func TestLogAnalyticsExecuteQuery(t *testing.T) {
	const query = "SecurityEvent | where 1 == 1 | where TimeGenerated > ago(1d) "

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/workspaces/ws-42/query", r.URL.Path)
		assert.Equal(t, "Bearer ok-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"query":"`+query+`"}`, string(body))

		w.Write([]byte(`{"tables":[]}`))
	}))
	defer srv.Close()

	tokens := &staticTokens{value: "ok-token"}
	la := service.NewLogAnalyticsService(srv.URL+"/", "ws-42", tokens, srv.Client())

	res, err := la.ExecuteQuery(context.Background(), query)
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, `{"tables":[]}`, res.Body)
	assert.Equal(t, 1, tokens.calls)
}

func TestLogAnalyticsRelaysErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"BadArgumentError"}}`))
	}))
	defer srv.Close()

	la := service.NewLogAnalyticsService(srv.URL, "ws", &staticTokens{value: "t"}, srv.Client())
	res, err := la.ExecuteQuery(context.Background(), "SecurityEvent")
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, `{"error":{"code":"BadArgumentError"}}`, res.Body)
}

func TestLogAnalyticsTokenFailureSkipsQuery(t *testing.T) {
	hit := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
	}))
	defer srv.Close()

	authErr := errors.Join(service.ErrAuthFailure, errors.New("invalid_client"))
	la := service.NewLogAnalyticsService(srv.URL, "ws", &staticTokens{err: authErr}, srv.Client())

	_, err := la.ExecuteQuery(context.Background(), "SecurityEvent")
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrAuthFailure)
	assert.False(t, hit)

	assert.ErrorIs(t, la.TestConnection(context.Background()), service.ErrAuthFailure)
}

func TestLogAnalyticsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	la := service.NewLogAnalyticsService(url, "ws", &staticTokens{value: "t"}, nil)
	_, err := la.ExecuteQuery(context.Background(), "SecurityEvent")
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrRemoteQuery)
}

func TestLogAnalyticsQueryURL(t *testing.T) {
	la := service.NewLogAnalyticsService("https://api.loganalytics.io", "abc-123", &staticTokens{}, nil)
	assert.Equal(t, "https://api.loganalytics.io/v1/workspaces/abc-123/query", la.QueryURL())
}
