package routes

// RouteEntry maps one path pattern to a content module.
type RouteEntry struct {
	// Pattern is the exact canonical path this entry matches.
	// Ignored for the fallback entry.
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`

	// ModuleID identifies the content module rendered for this route.
	ModuleID string `json:"module" yaml:"module"`

	// IsFallback marks the catch-all entry.
	IsFallback bool `json:"fallback,omitempty" yaml:"fallback,omitempty"`
}

// Matches reports whether the entry matches path.
func (e RouteEntry) Matches(path string) bool {
	return e.IsFallback || e.Pattern == path
}

// Table is an immutable, validated route table.
type Table struct {
	specific []RouteEntry
	fallback RouteEntry
}

// NewTable validates entries and builds a Table.
// The entries must contain exactly one fallback, declared last, and no
// duplicate patterns.
func NewTable(entries []RouteEntry) (*Table, error) {
	if err := Validate(entries); err != nil {
		return nil, err
	}
	specific := make([]RouteEntry, len(entries)-1)
	copy(specific, entries[:len(entries)-1])
	return &Table{
		specific: specific,
		fallback: entries[len(entries)-1],
	}, nil
}

// MustTable is like NewTable but panics on an invalid table.
func MustTable(entries []RouteEntry) *Table {
	t, err := NewTable(entries)
	if err != nil {
		panic(err)
	}
	return t
}

// Match returns the first entry whose pattern equals path, or the fallback.
func (t *Table) Match(path string) RouteEntry {
	for _, e := range t.specific {
		if e.Pattern == path {
			return e
		}
	}
	return t.fallback
}

// Fallback returns the catch-all entry.
func (t *Table) Fallback() RouteEntry {
	return t.fallback
}

// Entries returns a copy of all entries in declaration order, fallback last.
func (t *Table) Entries() []RouteEntry {
	out := make([]RouteEntry, 0, len(t.specific)+1)
	out = append(out, t.specific...)
	return append(out, t.fallback)
}

// ModuleIDs returns every distinct module id in declaration order.
func (t *Table) ModuleIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, e := range t.Entries() {
		if seen[e.ModuleID] {
			continue
		}
		seen[e.ModuleID] = true
		ids = append(ids, e.ModuleID)
	}
	return ids
}

// Len returns the number of entries including the fallback.
func (t *Table) Len() int {
	return len(t.specific) + 1
}
