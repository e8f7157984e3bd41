package engine

import (
	"sort"
	"strings"
)

// =============================================================================
// CLIENT DIRECTORY - Derived autofill index
// =============================================================================

// ClientEntry is the most recent client data seen for a name, used by the
// front end to autofill the client block. Like the template index it is
// derived, never authoritative.
type ClientEntry struct {
	Client     Client `json:"client"`
	LastNumber string `json:"lastNumber"`
	LastSeen   string `json:"lastSeen"`
}

// BuildClientDirectory derives one entry per distinct client name
// (case-insensitively), keeping the latest record's data, alphabetized by
// name.
func BuildClientDirectory(records []QuotationRecord) []ClientEntry {
	byName := make(map[string]*ClientEntry)
	for _, r := range records {
		name := strings.TrimSpace(r.Client.Name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		e, ok := byName[key]
		if !ok {
			e = &ClientEntry{}
			byName[key] = e
		}
		e.Client = r.Client
		e.LastNumber = r.Number
		e.LastSeen = r.CreatedAt
	}

	entries := make([]ClientEntry, 0, len(byName))
	for _, e := range byName {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Client.Name) < strings.ToLower(entries[j].Client.Name)
	})
	return entries
}

// SuggestClients returns the entries whose name contains query,
// case-insensitively. An empty query matches nothing.
func SuggestClients(entries []ClientEntry, query string) []ClientEntry {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	var out []ClientEntry
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Client.Name), query) {
			out = append(out, e)
		}
	}
	return out
}
