package kql

import (
	"strconv"
	"strings"
)

const (
	baseClause       = "SecurityEvent | where 1 == 1 "
	projectionClause = "| project TimeGenerated, Account, Computer, EventID | take 10 "
)

// Query is a synthesized KQL query. It is plain text and compares by value.
type Query string

func (q Query) String() string { return string(q) }

// Synthesize builds the query for an event id and an optional window.
// eventID 0 means "no event filter". Without a window the time filter,
// projection and row cap are all omitted.
func Synthesize(eventID int, window *Window) Query {
	var b strings.Builder
	b.WriteString(baseClause)
	if eventID != 0 {
		b.WriteString("| where EventID == ")
		b.WriteString(strconv.Itoa(eventID))
		b.WriteString(" ")
	}
	if window != nil {
		b.WriteString("| where TimeGenerated > ago(")
		b.WriteString(window.Timespan())
		b.WriteString(") ")
		b.WriteString(projectionClause)
	}
	return Query(b.String())
}
