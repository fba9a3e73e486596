package handler

import (
	"net/http"

	"github.com/secbot/secbot/internal/events"
	"github.com/secbot/secbot/internal/models"
)

// EventsHandler exposes the event phrase catalogue
type EventsHandler struct {
	table *events.Table
}

func NewEventsHandler(table *events.Table) *EventsHandler {
	return &EventsHandler{table: table}
}

// List handles GET /api/v1/events
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	entries := h.table.Entries()
	out := make([]models.EventInfo, len(entries))
	for i, e := range entries {
		out[i] = models.EventInfo{Phrase: e.Phrase, EventID: e.EventID}
	}
	models.WriteJSON(w, http.StatusOK, models.EventsResponse{
		Status: "success",
		Count:  len(out),
		Events: out,
	})
}
