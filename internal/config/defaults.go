package config

import "time"

const (
	DefaultHost        = "0.0.0.0"
	DefaultPort        = 3978
	DefaultEnvironment = "development"
	DefaultAPIPrefix   = "/api/v1"
	DefaultLogLevel    = "info"

	DefaultAPIKeyHeader       = "X-API-Key"
	DefaultRateLimitPerMinute = 60

	DefaultChatModel     = "claude-sonnet-4-6"
	DefaultChatMaxTokens = 1024

	DefaultAuthorityURL      = "https://login.microsoftonline.com"
	DefaultLogAnalyticsURL   = "https://api.loganalytics.io"
	DefaultLogAnalyticsScope = "https://api.loganalytics.io/.default"

	DefaultTurnTimeout      = 60 * time.Second
	DefaultHTTPTimeout      = 30 * time.Second
	DefaultMaxMessageLength = 2000
)

var DefaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:3978",
}
