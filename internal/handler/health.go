package handler

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/secbot/secbot/internal/events"
	"github.com/secbot/secbot/internal/models"
)

const version = "1.0.0"

// connectionCheckTTL is how long a Log Analytics connectivity result is
// reused. /health is public, so each hit must not trigger a token grant.
const connectionCheckTTL = 30 * time.Second

// HealthChecker is implemented by services that can report connectivity
type HealthChecker interface {
	TestConnection(ctx context.Context) error
}

// HealthHandler handles GET /health with optional dependency checks
type HealthHandler struct {
	logAnalytics HealthChecker
	chatEnabled  bool
	table        *events.Table

	mu        sync.Mutex
	checkedAt time.Time
	checkErr  error
}

func NewHealthHandler(logAnalytics HealthChecker, chatEnabled bool, table *events.Table) *HealthHandler {
	return &HealthHandler{logAnalytics: logAnalytics, chatEnabled: chatEnabled, table: table}
}

// Health handles GET /health. An empty event table or a failing token grant
// marks the service degraded; a disabled backend does not.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"server": "ok"}
	overallStatus := "healthy"

	if h.logAnalytics != nil {
		if err := h.checkLogAnalytics(r.Context()); err != nil {
			checks["log_analytics"] = "unavailable: " + err.Error()
			overallStatus = "degraded"
		} else {
			checks["log_analytics"] = "ok"
		}
	} else {
		checks["log_analytics"] = "disabled"
	}

	if h.chatEnabled {
		checks["chat"] = "ok"
	} else {
		checks["chat"] = "disabled"
	}

	if n := h.table.Len(); n > 0 {
		checks["event_mapping"] = strconv.Itoa(n) + " entries"
	} else {
		checks["event_mapping"] = "empty"
		overallStatus = "degraded"
	}

	statusCode := http.StatusOK
	if overallStatus == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}

	models.WriteJSON(w, statusCode, models.HealthResponse{
		Status:  overallStatus,
		Version: version,
		Checks:  checks,
	})
}

// checkLogAnalytics runs TestConnection at most once per connectionCheckTTL;
// concurrent callers wait for the running check.
func (h *HealthHandler) checkLogAnalytics(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.checkedAt.IsZero() && time.Since(h.checkedAt) < connectionCheckTTL {
		return h.checkErr
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	h.checkErr = h.logAnalytics.TestConnection(ctx)
	h.checkedAt = time.Now()
	return h.checkErr
}
