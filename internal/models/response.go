package models

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// MessageResponse is returned by POST /api/v1/messages
type MessageResponse struct {
	Status       string  `json:"status"`
	Intent       string  `json:"intent"`
	Reply        string  `json:"reply"`
	Formatted    string  `json:"formatted"`
	Query        *string `json:"query,omitempty"`
	EventID      *int    `json:"event_id,omitempty"`
	WindowDays   *int    `json:"window_days,omitempty"`
	ResultStatus *int    `json:"result_status,omitempty"`
}

// EventInfo is one row of the event phrase catalogue
type EventInfo struct {
	Phrase  string `json:"phrase"`
	EventID int    `json:"event_id"`
}

// EventsResponse is returned by GET /api/v1/events
type EventsResponse struct {
	Status string      `json:"status"`
	Count  int         `json:"count"`
	Events []EventInfo `json:"events"`
}
