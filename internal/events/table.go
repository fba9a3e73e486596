// Package events maps human phrases to Windows security event identifiers.
package events

import (
	"fmt"
	"strings"
)

// NoMatch is the identifier returned by Lookup when no phrase matches.
const NoMatch = 0

// Entry is a single phrase -> event identifier pair
type Entry struct {
	Phrase  string `json:"phrase" yaml:"phrase"`
	EventID int    `json:"event_id" yaml:"event_id"`
}

// Table is an ordered, read-only phrase table. Lookups walk the entries in
// insertion order, so when several phrases occur in the same text the first
// one added wins.
type Table struct {
	entries []Entry
}

// NewTable builds a table from entries, normalising phrases to lower case.
// It rejects empty phrases, duplicate phrases and non-positive identifiers.
func NewTable(entries []Entry) (*Table, error) {
	seen := make(map[string]bool, len(entries))
	normalised := make([]Entry, 0, len(entries))
	for i, e := range entries {
		phrase := strings.ToLower(strings.TrimSpace(e.Phrase))
		if phrase == "" {
			return nil, fmt.Errorf("entry %d: empty phrase", i)
		}
		if e.EventID <= NoMatch {
			return nil, fmt.Errorf("entry %d (%q): invalid event id %d", i, phrase, e.EventID)
		}
		if seen[phrase] {
			return nil, fmt.Errorf("entry %d: duplicate phrase %q", i, phrase)
		}
		seen[phrase] = true
		normalised = append(normalised, Entry{Phrase: phrase, EventID: e.EventID})
	}
	return &Table{entries: normalised}, nil
}

// Empty returns a table that matches nothing.
func Empty() *Table {
	return &Table{}
}

// Lookup returns the event id of the first phrase contained in text.
func (t *Table) Lookup(text string) (int, bool) {
	if t == nil {
		return NoMatch, false
	}
	lower := strings.ToLower(text)
	for _, e := range t.entries {
		if strings.Contains(lower, e.Phrase) {
			return e.EventID, true
		}
	}
	return NoMatch, false
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Entries returns a copy of the entries in lookup order.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}
