package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/secbot/secbot/internal/agent"
	"github.com/secbot/secbot/internal/models"
	"github.com/secbot/secbot/internal/security"
	"github.com/secbot/secbot/internal/service"
)

// botErrorText is sent back on the activity channel when a turn fails.
const botErrorText = "The bot encountered an error or bug."

// TurnHandler is implemented by the bot
type TurnHandler interface {
	Handle(ctx context.Context, text, caller string) (*agent.Reply, error)
}

// MessageHandler handles inbound chat messages
type MessageHandler struct {
	bot          TurnHandler
	validator    *security.MessageValidator
	apiKeyHeader string
	turnTimeout  time.Duration
}

func NewMessageHandler(
	bot TurnHandler,
	validator *security.MessageValidator,
	apiKeyHeader string,
	turnTimeout time.Duration,
) *MessageHandler {
	return &MessageHandler{
		bot:          bot,
		validator:    validator,
		apiKeyHeader: apiKeyHeader,
		turnTimeout:  turnTimeout,
	}
}

// Message handles POST /api/v1/messages
func (h *MessageHandler) Message(w http.ResponseWriter, r *http.Request) {
	var req models.MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteKindError(w, http.StatusBadRequest, models.ErrKindInvalidMessage, "invalid request body: "+err.Error())
		return
	}
	if vr := h.validator.Validate(req.Text); !vr.Valid {
		models.WriteKindError(w, http.StatusBadRequest, models.ErrKindInvalidMessage, vr.Message)
		return
	}

	reply, err := h.turn(r, req.Text, r.Header.Get(h.apiKeyHeader))
	if err != nil {
		code, kind := classifyError(err)
		models.WriteKindError(w, code, kind, err.Error())
		return
	}

	models.WriteJSON(w, http.StatusOK, toMessageResponse(reply))
}

// Activity handles POST /api/messages, the bot-channel shaped endpoint.
// Non-message activities (typing, conversationUpdate, ...) are acknowledged
// without a reply. A rejected or failed message gets the error text back as
// a reply activity; only an undecodable body is a 400.
func (h *MessageHandler) Activity(w http.ResponseWriter, r *http.Request) {
	var act models.Activity
	if err := json.NewDecoder(r.Body).Decode(&act); err != nil {
		models.WriteKindError(w, http.StatusBadRequest, models.ErrKindInvalidMessage, "invalid activity: "+err.Error())
		return
	}
	if act.Type != models.ActivityTypeMessage {
		w.WriteHeader(http.StatusOK)
		return
	}
	if vr := h.validator.Validate(act.Text); !vr.Valid {
		log.Warn().Str("reason", vr.Message).Msg("activity rejected")
		writeReplyActivity(w, act, botErrorText)
		return
	}

	caller := r.Header.Get(h.apiKeyHeader)
	if caller == "" && act.From != nil {
		caller = act.From.ID
	}

	text := botErrorText
	reply, err := h.turn(r, act.Text, caller)
	if err == nil {
		text = reply.Format()
	}
	writeReplyActivity(w, act, text)
}

func writeReplyActivity(w http.ResponseWriter, act models.Activity, text string) {
	models.WriteJSON(w, http.StatusOK, models.Activity{
		Type:         models.ActivityTypeMessage,
		Text:         text,
		From:         act.Recipient,
		Recipient:    act.From,
		Conversation: act.Conversation,
		ReplyToID:    act.ID,
	})
}

func (h *MessageHandler) turn(r *http.Request, text, caller string) (*agent.Reply, error) {
	ctx := r.Context()
	if h.turnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.turnTimeout)
		defer cancel()
	}

	reply, err := h.bot.Handle(ctx, text, caller)
	if err != nil {
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("turn failed")
	}
	return reply, err
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrAuthFailure):
		return http.StatusBadGateway, models.ErrKindAuthFailure
	case errors.Is(err, service.ErrRemoteQuery):
		return http.StatusBadGateway, models.ErrKindRemoteQuery
	case errors.Is(err, agent.ErrChatFailure):
		return http.StatusBadGateway, models.ErrKindChatFailure
	case errors.Is(err, agent.ErrRunUnavailable):
		return http.StatusServiceUnavailable, models.ErrKindUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, models.ErrKindUnavailable
	default:
		return http.StatusInternalServerError, models.ErrKindInternal
	}
}

func toMessageResponse(reply *agent.Reply) models.MessageResponse {
	resp := models.MessageResponse{
		Status:    "success",
		Intent:    reply.Intent.String(),
		Reply:     reply.Text,
		Formatted: reply.Format(),
	}
	if reply.Intent == service.IntentChat {
		return resp
	}

	q := reply.Query.String()
	resp.Query = &q
	if reply.EventID != 0 {
		id := reply.EventID
		resp.EventID = &id
	}
	if reply.Window != nil {
		days := reply.Window.Magnitude
		resp.WindowDays = &days
	}
	if reply.ResultStatus != 0 {
		status := reply.ResultStatus
		resp.ResultStatus = &status
	}
	return resp
}
