package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/secbot/secbot/internal/events"
	"github.com/secbot/secbot/internal/kql"
	"github.com/secbot/secbot/internal/security"
	"github.com/secbot/secbot/internal/service"
)

// SystemPrompt constrains the chat fallback to security topics.
const SystemPrompt = "You are a cybersecurity assistant responding only to Security related questions. For irrelevant topics answer with 'Irrelevant'"

// ApologyMessage replaces an empty chat reply.
const ApologyMessage = "I'm sorry, I couldn't process your request."

var (
	// ErrChatFailure is returned when the chat endpoint call fails.
	ErrChatFailure = errors.New("chat responder failed")
	// ErrRunUnavailable is returned for run requests when no workspace is configured.
	ErrRunUnavailable = errors.New("query execution is not configured")
)

// QueryExecutor runs a synthesized query remotely
type QueryExecutor interface {
	ExecuteQuery(ctx context.Context, query string) (*service.QueryResult, error)
}

// Reply is the single outbound message of a turn
type Reply struct {
	Intent  service.Intent
	Text    string
	Query   kql.Query
	EventID int
	Window  *kql.Window
	// ResultStatus is the HTTP status of the query endpoint for run turns.
	ResultStatus int
}

// Format renders the reply the way it is shown in a chat client.
func (r *Reply) Format() string {
	switch r.Intent {
	case service.IntentGenerate:
		return "Generated KQL Query: " + r.Query.String()
	case service.IntentRun:
		return fmt.Sprintf("KQL Query: %s\n\nResult: %s", r.Query, r.Text)
	default:
		return r.Text
	}
}

// SecurityBot routes one message per turn to query generation, query
// execution or the chat fallback. It holds no per-conversation state and is
// safe for concurrent use.
type SecurityBot struct {
	router      *service.IntentRouter
	table       *events.Table
	executor    QueryExecutor
	chat        Responder
	auditLogger *security.AuditLogger
}

// NewSecurityBot wires a bot. executor and chat may be nil when the
// corresponding backend is not configured.
func NewSecurityBot(
	router *service.IntentRouter,
	table *events.Table,
	executor QueryExecutor,
	chat Responder,
	auditLogger *security.AuditLogger,
) *SecurityBot {
	if auditLogger == nil {
		auditLogger = security.NewAuditLogger(false)
	}
	return &SecurityBot{
		router:      router,
		table:       table,
		executor:    executor,
		chat:        chat,
		auditLogger: auditLogger,
	}
}

// Handle processes one turn. caller identifies the client for audit logs.
func (b *SecurityBot) Handle(ctx context.Context, text, caller string) (*Reply, error) {
	start := time.Now()
	routing := b.router.Route(text)

	log.Debug().
		Str("intent", routing.Intent.String()).
		Str("reasoning", routing.Reasoning).
		Msg("message routed")

	var (
		reply *Reply
		err   error
	)
	switch routing.Intent {
	case service.IntentGenerate:
		reply = b.synthesize(text, routing.Intent)
	case service.IntentRun:
		reply, err = b.run(ctx, text, caller)
	default:
		reply, err = b.converse(ctx, text)
	}

	query := ""
	if reply != nil {
		query = reply.Query.String()
	}
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	b.auditLogger.LogTurn(text, caller, routing.Intent.String(), query, err == nil, time.Since(start).Milliseconds(), errMsg)

	return reply, err
}

// synthesize maps the message to an event id and window and builds the
// query. A message that names no known event still produces a query, just
// without the EventID filter.
func (b *SecurityBot) synthesize(text string, intent service.Intent) *Reply {
	eventID, _ := b.table.Lookup(text)

	var window *kql.Window
	if w, ok := kql.ExtractWindow(text); ok {
		window = &w
	}

	q := kql.Synthesize(eventID, window)
	return &Reply{
		Intent:  intent,
		Text:    q.String(),
		Query:   q,
		EventID: eventID,
		Window:  window,
	}
}

func (b *SecurityBot) run(ctx context.Context, text, caller string) (*Reply, error) {
	reply := b.synthesize(text, service.IntentRun)
	if b.executor == nil {
		return reply, ErrRunUnavailable
	}

	result, err := b.executor.ExecuteQuery(ctx, reply.Query.String())
	if err != nil {
		b.auditLogger.LogQuery(reply.Query.String(), caller, 0, 0, false, err.Error())
		return reply, fmt.Errorf("run query: %w", err)
	}
	b.auditLogger.LogQuery(reply.Query.String(), caller, result.StatusCode, result.ExecutionTimeMs, result.OK(), "")

	reply.Text = result.Body
	reply.ResultStatus = result.StatusCode
	return reply, nil
}

func (b *SecurityBot) converse(ctx context.Context, text string) (*Reply, error) {
	reply := &Reply{Intent: service.IntentChat, Text: ApologyMessage}
	if b.chat == nil {
		log.Warn().Msg("chat responder not configured, sending apology")
		return reply, nil
	}

	answer, err := b.chat.Respond(ctx, SystemPrompt, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChatFailure, err)
	}
	if answer = strings.TrimSpace(answer); answer != "" {
		reply.Text = answer
	}
	return reply, nil
}
