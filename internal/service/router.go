package service

import "strings"

// Intent is the behaviour selected for one inbound message
type Intent int

const (
	IntentChat Intent = iota
	IntentGenerate
	IntentRun
)

func (i Intent) String() string {
	switch i {
	case IntentGenerate:
		return "generate"
	case IntentRun:
		return "run"
	default:
		return "chat"
	}
}

// Keywords are checked in order; the first one contained in the message wins,
// so "generate and run" is a generate request.
var intentKeywords = []struct {
	keyword string
	intent  Intent
}{
	{"generate", IntentGenerate},
	{"run", IntentRun},
}

// RoutingResult contains intent routing info
type RoutingResult struct {
	Intent    Intent
	Keyword   string
	Reasoning string
}

// IntentRouter classifies messages by literal keyword containment
type IntentRouter struct{}

func NewIntentRouter() *IntentRouter {
	return &IntentRouter{}
}

// Route classifies the message. It never fails; unmatched text goes to chat.
func (r *IntentRouter) Route(message string) RoutingResult {
	lower := strings.ToLower(message)

	for _, k := range intentKeywords {
		if strings.Contains(lower, k.keyword) {
			return RoutingResult{
				Intent:    k.intent,
				Keyword:   k.keyword,
				Reasoning: "message contains " + k.keyword + " keyword",
			}
		}
	}

	return RoutingResult{
		Intent:    IntentChat,
		Reasoning: "no query keywords, falling back to chat",
	}
}
