package agent_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/secbot/secbot/internal/agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMessagesServer(t *testing.T, status int, content string, captured *map[string]interface{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/messages"), "path %s", r.URL.Path)
		if captured != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(`{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "test-model",
			"content": ` + content + `,
			"stop_reason": "end_turn",
			"stop_sequence": null,
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestChatAgentRespond(t *testing.T) {
	var body map[string]interface{}
	srv := newMessagesServer(t, http.StatusOK, `[{"type":"text","text":"  Use MFA.  "},{"type":"text","text":"ignored"}]`, &body)

	a := agent.NewChatAgent("test-key", "test-model", srv.URL, 256)
	got, err := a.Respond(context.Background(), agent.SystemPrompt, "How do I secure my server")
	require.NoError(t, err)
	assert.Equal(t, "Use MFA.", got)

	assert.Equal(t, "test-model", body["model"])
	assert.EqualValues(t, 256, body["max_tokens"])

	system, _ := json.Marshal(body["system"])
	assert.Contains(t, string(system), "cybersecurity assistant")

	msgs, ok := body["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, msgs, 1)
	first, _ := json.Marshal(msgs[0])
	assert.Contains(t, string(first), "How do I secure my server")
}

func TestChatAgentEmptyContent(t *testing.T) {
	srv := newMessagesServer(t, http.StatusOK, `[]`, nil)

	a := agent.NewChatAgent("test-key", "", srv.URL, 0)
	got, err := a.Respond(context.Background(), agent.SystemPrompt, "hi")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotEmpty(t, a.Model())
}

func TestChatAgentError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`))
	}))
	defer srv.Close()

	a := agent.NewChatAgent("test-key", "m", srv.URL, 16)
	_, err := a.Respond(context.Background(), agent.SystemPrompt, "hi")
	assert.Error(t, err)
}
