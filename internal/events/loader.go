package events

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Load builds the process-wide table. An empty path selects the built-in
// table. A declared file that is missing or malformed yields an empty table
// so every lookup misses; it never fails startup.
func Load(path string) *Table {
	if path == "" {
		t := Default()
		log.Info().Int("entries", t.Len()).Msg("event mapping: using built-in table")
		return t
	}
	t, err := LoadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("event mapping unavailable, lookups will not match")
		return Empty()
	}
	log.Info().Int("entries", t.Len()).Str("path", path).Msg("event mapping loaded")
	return t
}

// LoadFile reads a YAML or JSON mapping file. Two layouts are accepted:
//
//	failed sign-in: 4625          # mapping, document order is lookup order
//	account lockout: 4740
//
//	- phrase: failed sign-in      # sequence of entries
//	  event_id: 4625
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping file: %w", err)
	}
	entries, err := parseEntries(data)
	if err != nil {
		return nil, fmt.Errorf("parse mapping file %s: %w", path, err)
	}
	return NewTable(entries)
}

func parseEntries(data []byte) ([]Entry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	root := doc.Content[0]

	switch root.Kind {
	case yaml.MappingNode:
		entries := make([]Entry, 0, len(root.Content)/2)
		for i := 0; i+1 < len(root.Content); i += 2 {
			key, val := root.Content[i], root.Content[i+1]
			if key.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: phrase must be a string", key.Line)
			}
			var id int
			if err := val.Decode(&id); err != nil {
				return nil, fmt.Errorf("line %d: event id for %q: %w", val.Line, key.Value, err)
			}
			entries = append(entries, Entry{Phrase: key.Value, EventID: id})
		}
		return entries, nil
	case yaml.SequenceNode:
		var entries []Entry
		if err := root.Decode(&entries); err != nil {
			return nil, err
		}
		return entries, nil
	default:
		return nil, fmt.Errorf("line %d: expected a mapping or a list of entries", root.Line)
	}
}
