package security

import (
	"crypto/sha256"
	"fmt"

	"github.com/rs/zerolog/log"
)

// AuditLogger logs security-relevant events with hashed identifiers
type AuditLogger struct {
	enabled bool
}

func NewAuditLogger(enabled bool) *AuditLogger {
	return &AuditLogger{enabled: enabled}
}

// Enabled reports whether audit events are emitted.
func (a *AuditLogger) Enabled() bool { return a.enabled }

// LogTurn records one inbound message and its outcome
func (a *AuditLogger) LogTurn(
	message, caller, intent, query string,
	success bool,
	executionTimeMs int64,
	errMsg string,
) {
	if !a.enabled {
		return
	}

	evt := log.Info().
		Str("event", "turn_audit").
		Str("message_hash", shortHash(message)).
		Str("caller_hash", shortHash(caller)).
		Str("intent", intent).
		Int64("execution_time_ms", executionTimeMs).
		Bool("success", success)

	if query != "" {
		evt = evt.Str("query_hash", shortHash(query))
	}
	if errMsg != "" {
		evt = evt.Str("error", errMsg)
	}
	evt.Msg("audit")
}

// LogQuery records a Log Analytics execution
func (a *AuditLogger) LogQuery(
	query, caller string,
	statusCode int,
	executionTimeMs int64,
	success bool,
	errMsg string,
) {
	if !a.enabled {
		return
	}

	evt := log.Info().
		Str("event", "query_audit").
		Str("query_hash", shortHash(query)).
		Str("caller_hash", shortHash(caller)).
		Int("status_code", statusCode).
		Int64("execution_time_ms", executionTimeMs).
		Bool("success", success)

	if errMsg != "" {
		evt = evt.Str("error", errMsg)
	}
	evt.Msg("audit")
}

func shortHash(s string) string {
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", h)[:16]
}
