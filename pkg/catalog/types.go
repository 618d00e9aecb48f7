// Package catalog holds schema/graph/graph-type/role/user/index metadata —
// everything a database directory tracks about its own structure, as
// opposed to the graph data itself (pkg/storage) or a running session's
// state (pkg/session).
package catalog

import "time"

// Schema is a named container for graphs, addressed by a path like
// "/production".
type Schema struct {
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

// Graph is one graph within a schema, addressed by a path like
// "/production/social". TypeName, if set, names the GraphType it conforms
// to.
type Graph struct {
	Path      string    `json:"path"`
	TypeName  string    `json:"type_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// GraphType is a named, reusable node/edge label schema. The engine does
// not enforce conformance against it at insert time (validation against a
// GraphType is out of scope); it exists as addressable metadata created and
// dropped by name. CREATE GRAPH does not bind a graph to a type: graphs
// created through ExecuteDDL always have an empty Graph.TypeName.
type GraphType struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Role is a named permission grant a User can hold. Role names are
// freeform; the catalog itself does not interpret them into permissions —
// that mapping is the embedding application's concern.
type Role struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// User is an account that can hold roles. PasswordHash is a bcrypt hash,
// never the plaintext password; it is tagged json:"-" so it never leaves
// the process via an accidental Marshal of the struct itself (catalog
// persistence uses its own wire copy, userRecord, which carries the hash
// deliberately).
type User struct {
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasRole reports whether u has been granted role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Index is a property, text, or vector index over one label/property pair
// within one graph.
type Index struct {
	Name      string    `json:"name"`
	GraphPath string    `json:"graph_path"`
	Kind      string    `json:"kind"` // "graph", "text", "vector"
	Label     string    `json:"label"`
	Property  string    `json:"property"`
	CreatedAt time.Time `json:"created_at"`
}

// key returns the composite key a property index is looked up by.
func (ix *Index) key() string { return ix.GraphPath + "\x00" + ix.Label + "\x00" + ix.Property }
