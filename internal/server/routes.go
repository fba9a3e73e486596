package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/secbot/secbot/internal/agent"
	"github.com/secbot/secbot/internal/events"
	"github.com/secbot/secbot/internal/handler"
	"github.com/secbot/secbot/internal/middleware"
	"github.com/secbot/secbot/internal/security"
	"github.com/secbot/secbot/internal/service"
)

func (s *Server) setupRoutes() http.Handler {
	cfg := s.cfg
	httpClient := &http.Client{Timeout: time.Duration(cfg.HTTPTimeout)}

	table := events.Load(cfg.EventMappingPath)

	// ─── Services ───────────────────────────────────────────────────────────────
	// executor and checker stay untyped nil when Log Analytics is not configured.
	var executor agent.QueryExecutor
	var checker handler.HealthChecker
	if cfg.LogAnalyticsEnabled() {
		creds := service.NewCredentialManager(service.CredentialConfig{
			AuthorityURL: cfg.AuthorityURL,
			TenantID:     cfg.TenantID,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scope:        cfg.LogAnalyticsScope,
			CacheTokens:  cfg.TokenCache,
		}, httpClient)
		la := service.NewLogAnalyticsService(cfg.LogAnalyticsURL, cfg.WorkspaceID, creds, httpClient)
		executor, checker = la, la
	} else {
		log.Warn().Msg("workspace_id/tenant_id not set - run queries disabled")
	}

	var chat agent.Responder
	if cfg.AnthropicAPIKey != "" {
		chat = agent.NewChatAgent(cfg.AnthropicAPIKey, cfg.ChatModel, cfg.AnthropicBaseURL, cfg.ChatMaxTokens)
	} else {
		log.Warn().Msg("ANTHROPIC_API_KEY not set - chat replies fall back to the apology message")
	}

	log.Info().
		Int("event_phrases", table.Len()).
		Bool("log_analytics_enabled", executor != nil).
		Bool("token_cache", cfg.TokenCache).
		Bool("chat_enabled", chat != nil).
		Bool("auth_enabled", cfg.EnableAuth && len(cfg.APIKeys) > 0).
		Bool("audit_logging", cfg.EnableAuditLogging).
		Msg("service configuration")

	if cfg.EnableAuth && len(cfg.APIKeys) == 0 {
		log.Warn().Msg("WARNING: auth enabled but no API keys configured - API requests are not authenticated")
	}

	bot := agent.NewSecurityBot(
		service.NewIntentRouter(),
		table,
		executor,
		chat,
		security.NewAuditLogger(cfg.EnableAuditLogging),
	)

	// ─── Handlers ────────────────────────────────────────────────────────────────
	healthH := handler.NewHealthHandler(checker, chat != nil, table)
	messageH := handler.NewMessageHandler(
		bot,
		security.NewMessageValidator(cfg.MaxMessageLength),
		cfg.APIKeyHeader,
		time.Duration(cfg.TurnTimeout),
	)
	eventsH := handler.NewEventsHandler(table)

	// ─── Router ──────────────────────────────────────────────────────────────────
	r := chi.NewRouter()

	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins, cfg.APIKeyHeader)))

	r.Get("/health", healthH.Health)
	r.Get("/", healthH.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, cfg.APIKeyHeader))
		if cfg.EnableAuth && len(cfg.APIKeys) > 0 {
			r.Use(middleware.Auth(cfg.APIKeys, cfg.APIKeyHeader))
		}

		r.Post("/api/messages", messageH.Activity)

		r.Route(cfg.APIPrefix, func(r chi.Router) {
			r.Post("/messages", messageH.Message)
			r.Get("/events", eventsH.List)
		})
	})

	return r
}
