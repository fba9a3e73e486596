package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Duration is a time.Duration that reads "30s"-style strings from JSON.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var secs float64
		if err2 := json.Unmarshal(b, &secs); err2 != nil {
			return fmt.Errorf("duration must be a string or seconds: %w", err)
		}
		*d = Duration(time.Duration(secs * float64(time.Second)))
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

type Config struct {
	// Server
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Environment string `json:"environment"`
	APIPrefix   string `json:"api_prefix"`
	LogLevel    string `json:"log_level"`

	// CORS
	CORSOrigins []string `json:"cors_origins"`

	// Auth
	APIKeyHeader string   `json:"api_key_header"`
	APIKeys      []string `json:"api_keys"`
	EnableAuth   bool     `json:"enable_auth"`

	// Rate Limiting
	RateLimitPerMinute int `json:"rate_limit_per_minute"`

	// Chat
	AnthropicAPIKey  string `json:"anthropic_api_key"`
	AnthropicBaseURL string `json:"anthropic_base_url"`
	ChatModel        string `json:"chat_model"`
	ChatMaxTokens    int    `json:"chat_max_tokens"`

	// Log Analytics
	WorkspaceID       string `json:"workspace_id"`
	TenantID          string `json:"tenant_id"`
	ClientID          string `json:"client_id"`
	ClientSecret      string `json:"client_secret"`
	AuthorityURL      string `json:"authority_url"`
	LogAnalyticsURL   string `json:"log_analytics_url"`
	LogAnalyticsScope string `json:"log_analytics_scope"`
	TokenCache        bool   `json:"token_cache"`

	// Bot
	EventMappingPath   string   `json:"event_mapping_path"`
	TurnTimeout        Duration `json:"turn_timeout"`
	HTTPTimeout        Duration `json:"http_timeout"`
	MaxMessageLength   int      `json:"max_message_length"`
	EnableAuditLogging bool     `json:"enable_audit_logging"`
}

func Load() (*Config, error) {
	cfg := &Config{
		Host:               DefaultHost,
		Port:               DefaultPort,
		Environment:        DefaultEnvironment,
		APIPrefix:          DefaultAPIPrefix,
		LogLevel:           DefaultLogLevel,
		CORSOrigins:        slices.Clone(DefaultCORSOrigins),
		APIKeyHeader:       DefaultAPIKeyHeader,
		EnableAuth:         true,
		RateLimitPerMinute: DefaultRateLimitPerMinute,
		ChatModel:          DefaultChatModel,
		ChatMaxTokens:      DefaultChatMaxTokens,
		AuthorityURL:       DefaultAuthorityURL,
		LogAnalyticsURL:    DefaultLogAnalyticsURL,
		LogAnalyticsScope:  DefaultLogAnalyticsScope,
		TurnTimeout:        Duration(DefaultTurnTimeout),
		HTTPTimeout:        Duration(DefaultHTTPTimeout),
		MaxMessageLength:   DefaultMaxMessageLength,
		EnableAuditLogging: true,
	}

	if path := getEnv("SECBOT_CONFIG", ""); path != "" {
		if err := loadJSON(path, cfg); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.RateLimitPerMinute <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit_per_minute must be positive, got %d", c.RateLimitPerMinute))
	}
	if c.ChatMaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("chat_max_tokens must be positive, got %d", c.ChatMaxTokens))
	}
	if c.MaxMessageLength <= 0 {
		errs = append(errs, fmt.Errorf("max_message_length must be positive, got %d", c.MaxMessageLength))
	}
	if c.TurnTimeout < 0 || c.HTTPTimeout < 0 {
		errs = append(errs, errors.New("timeouts cannot be negative"))
	}
	if c.APIPrefix != "" && !strings.HasPrefix(c.APIPrefix, "/") {
		errs = append(errs, fmt.Errorf("api_prefix %q must start with /", c.APIPrefix))
	}
	if c.LogAnalyticsEnabled() && (c.ClientID == "" || c.ClientSecret == "") {
		errs = append(errs, errors.New("client_id and client_secret are required when workspace_id and tenant_id are set"))
	}
	return errors.Join(errs...)
}

// LogAnalyticsEnabled reports whether enough is configured to run queries.
func (c *Config) LogAnalyticsEnabled() bool {
	return c.WorkspaceID != "" && c.TenantID != ""
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func loadJSON(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"SECBOT_HOST":                &cfg.Host,
		"SECBOT_ENV":                 &cfg.Environment,
		"SECBOT_API_PREFIX":          &cfg.APIPrefix,
		"SECBOT_LOG_LEVEL":           &cfg.LogLevel,
		"SECBOT_API_KEY_HEADER":      &cfg.APIKeyHeader,
		"ANTHROPIC_API_KEY":          &cfg.AnthropicAPIKey,
		"ANTHROPIC_BASE_URL":         &cfg.AnthropicBaseURL,
		"SECBOT_CHAT_MODEL":          &cfg.ChatModel,
		"LOG_ANALYTICS_WORKSPACE_ID": &cfg.WorkspaceID,
		"AZURE_TENANT_ID":            &cfg.TenantID,
		"AZURE_CLIENT_ID":            &cfg.ClientID,
		"AZURE_CLIENT_SECRET":        &cfg.ClientSecret,
		"AZURE_AUTHORITY_URL":        &cfg.AuthorityURL,
		"LOG_ANALYTICS_URL":          &cfg.LogAnalyticsURL,
		"LOG_ANALYTICS_SCOPE":        &cfg.LogAnalyticsScope,
		"SECBOT_EVENT_MAPPING":       &cfg.EventMappingPath,
	}
	for key, dst := range strs {
		if v := getEnv(key, ""); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"SECBOT_PORT":               &cfg.Port,
		"RATE_LIMIT_PER_MINUTE":     &cfg.RateLimitPerMinute,
		"SECBOT_CHAT_MAX_TOKENS":    &cfg.ChatMaxTokens,
		"SECBOT_MAX_MESSAGE_LENGTH": &cfg.MaxMessageLength,
	}
	for key, dst := range ints {
		if v := getEnv(key, ""); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}

	bools := map[string]*bool{
		"ENABLE_AUTH":                 &cfg.EnableAuth,
		"SECBOT_TOKEN_CACHE":          &cfg.TokenCache,
		"SECBOT_ENABLE_AUDIT_LOGGING": &cfg.EnableAuditLogging,
	}
	for key, dst := range bools {
		if v := getEnv(key, ""); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = b
		}
	}

	durations := map[string]*Duration{
		"SECBOT_TURN_TIMEOUT": &cfg.TurnTimeout,
		"SECBOT_HTTP_TIMEOUT": &cfg.HTTPTimeout,
	}
	for key, dst := range durations {
		if v := getEnv(key, ""); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = Duration(d)
		}
	}

	if v := getEnv("SECBOT_API_KEYS", ""); v != "" {
		cfg.APIKeys = splitList(v)
	}
	if v := getEnv("SECBOT_CORS_ORIGINS", ""); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
