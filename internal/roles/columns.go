package roles

// ColumnEntry is one candidate column of a per-row data table.
type ColumnEntry struct {
	ID     string `yaml:"id" json:"id"`
	Header string `yaml:"header" json:"header"`
	// Field is the gjson path read from each row; empty means ID.
	Field string `yaml:"field,omitempty" json:"field,omitempty"`
	Rule  Rule   `yaml:"rule" json:"rule"`
}

// ColumnCatalog is the fixed, ordered set of columns a table can show.
// Identity is always shown and always first.
type ColumnCatalog struct {
	Identity ColumnEntry   `yaml:"identity" json:"identity"`
	Entries  []ColumnEntry `yaml:"entries" json:"entries"`
}

// Permissions maps a role name to the feature IDs it may see.
//
// A role that is absent from the map has no mapping; a role mapped to an
// empty list has been explicitly granted nothing beyond the identity column.
type Permissions map[string][]string

// Lookup returns the permitted feature IDs for role and whether a mapping
// exists.
func (p Permissions) Lookup(role string) ([]string, bool) {
	ids, ok := p[role]
	return ids, ok
}

// ResolveColumns returns the columns visible to role.
//
// The identity column comes first and appears exactly once. When role has
// no mapping in perms every catalog entry follows it (fail-open). When role
// has a mapping, only entries whose ID is listed follow, so an empty
// mapping yields the identity column alone. Catalog order always wins over
// the order of the permission list.
func ResolveColumns(role string, cat ColumnCatalog, perms Permissions) []ColumnEntry {
	permitted, mapped := perms.Lookup(role)

	allowed := make(map[string]bool, len(permitted))
	for _, id := range permitted {
		allowed[id] = true
	}

	out := make([]ColumnEntry, 0, len(cat.Entries)+1)
	out = append(out, cat.Identity)
	for _, entry := range cat.Entries {
		if entry.ID == cat.Identity.ID {
			continue
		}
		if mapped && !allowed[entry.ID] {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// ColumnIDs returns the IDs of cols in order.
func ColumnIDs(cols []ColumnEntry) []string {
	ids := make([]string, len(cols))
	for i, c := range cols {
		ids[i] = c.ID
	}
	return ids
}
