package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/orneryd/gqlgraph/pkg/storage"
	"golang.org/x/crypto/bcrypt"
)

// Errors returned by Catalog operations.
var (
	ErrSchemaExists    = errors.New("catalog: schema already exists")
	ErrSchemaNotFound  = errors.New("catalog: schema not found")
	ErrGraphExists     = errors.New("catalog: graph already exists")
	ErrGraphNotFound   = errors.New("catalog: graph not found")
	ErrTypeExists      = errors.New("catalog: graph type already exists")
	ErrTypeNotFound    = errors.New("catalog: graph type not found")
	ErrRoleExists      = errors.New("catalog: role already exists")
	ErrRoleNotFound    = errors.New("catalog: role not found")
	ErrUserExists      = errors.New("catalog: user already exists")
	ErrUserNotFound    = errors.New("catalog: user not found")
	ErrIndexExists     = errors.New("catalog: index already exists")
	ErrIndexNotFound   = errors.New("catalog: index not found")
	ErrInvalidPassword = errors.New("catalog: invalid password")
)

const (
	treeSchemas    = "catalog:schemas"
	treeGraphs     = "catalog:graphs"
	treeGraphTypes = "catalog:graphtypes"
	treeRoles      = "catalog:roles"
	treeUsers      = "catalog:users"
	treeIndexes    = "catalog:indexes"
)

// Catalog is the process's single view of schema/graph/graph-type/role/
// user/index metadata, backed by one storage.StorageTree per entity kind.
// It caches every entity in memory behind a RWMutex — the catalog is
// small and read far more often than written, the same tradeoff
// storage.GraphCache makes for graph data.
//
// Lock order: a caller holding a Catalog lock must never then try to
// acquire a session or graph lock; Catalog sits above both (the order
// documented engine-wide is catalog -> session -> graph -> text-index ->
// storage).
type Catalog struct {
	mu sync.RWMutex

	mgr *storage.StorageManager

	schemas    map[string]*Schema
	graphs     map[string]*Graph
	graphTypes map[string]*GraphType
	roles      map[string]*Role
	users      map[string]*User
	indexes    map[string]*Index // keyed by Index.key()
	byName     map[string]*Index // keyed by Index.Name, for DROP INDEX by name

	bcryptCost int
}

// userRecord is the JSON wire shape for a User — unlike User itself, it
// carries the password hash, since the catalog's own persistence is the
// one place that legitimately needs it back.
type userRecord struct {
	Name         string    `json:"name"`
	PasswordHash string    `json:"password_hash"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
}

// Open loads (or initializes) the catalog backed by mgr's driver.
// bcryptCost of 0 selects bcrypt.DefaultCost.
func Open(mgr *storage.StorageManager, bcryptCost int) (*Catalog, error) {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	c := &Catalog{
		mgr:        mgr,
		schemas:    map[string]*Schema{},
		graphs:     map[string]*Graph{},
		graphTypes: map[string]*GraphType{},
		roles:      map[string]*Role{},
		users:      map[string]*User{},
		indexes:    map[string]*Index{},
		byName:     map[string]*Index{},
		bcryptCost: bcryptCost,
	}
	if err := c.loadAll(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) loadAll() error {
	if err := loadTree(c.mgr, treeSchemas, &c.schemas); err != nil {
		return fmt.Errorf("catalog: load schemas: %w", err)
	}
	if err := loadTree(c.mgr, treeGraphs, &c.graphs); err != nil {
		return fmt.Errorf("catalog: load graphs: %w", err)
	}
	if err := loadTree(c.mgr, treeGraphTypes, &c.graphTypes); err != nil {
		return fmt.Errorf("catalog: load graph types: %w", err)
	}
	if err := loadTree(c.mgr, treeRoles, &c.roles); err != nil {
		return fmt.Errorf("catalog: load roles: %w", err)
	}

	records := map[string]*userRecord{}
	if err := loadTree(c.mgr, treeUsers, &records); err != nil {
		return fmt.Errorf("catalog: load users: %w", err)
	}
	for name, r := range records {
		c.users[name] = &User{Name: r.Name, PasswordHash: r.PasswordHash, Roles: r.Roles, CreatedAt: r.CreatedAt}
	}

	indexes := map[string]*Index{}
	if err := loadTree(c.mgr, treeIndexes, &indexes); err != nil {
		return fmt.Errorf("catalog: load indexes: %w", err)
	}
	for _, ix := range indexes {
		c.indexes[ix.key()] = ix
		c.byName[ix.Name] = ix
	}
	return nil
}

// loadTree scans every key in the named tree into dst (a pointer to a
// map[string]*T), tolerating a tree that has never been opened.
func loadTree[T any](mgr *storage.StorageManager, name string, dst *map[string]T) error {
	tree, err := mgr.Driver().OpenTree(name)
	if err != nil {
		return err
	}
	return tree.Iter(func(key, value []byte) bool {
		var v T
		if err := json.Unmarshal(value, &v); err != nil {
			return true // skip a corrupt record rather than fail the whole open
		}
		(*dst)[string(key)] = v
		return true
	})
}

func (c *Catalog) putJSON(treeName, key string, v any) error {
	tree, err := c.mgr.Driver().OpenTree(treeName)
	if err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return tree.Insert([]byte(key), data)
}

func (c *Catalog) delete(treeName, key string) error {
	tree, err := c.mgr.Driver().OpenTree(treeName)
	if err != nil {
		return err
	}
	return tree.Remove([]byte(key))
}

// ---- Schemas ----

func (c *Catalog) CreateSchema(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.schemas[path]; ok {
		return ErrSchemaExists
	}
	s := &Schema{Path: path, CreatedAt: time.Now()}
	if err := c.putJSON(treeSchemas, path, s); err != nil {
		return err
	}
	c.schemas[path] = s
	return nil
}

func (c *Catalog) DropSchema(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.schemas[path]; !ok {
		return ErrSchemaNotFound
	}
	if err := c.delete(treeSchemas, path); err != nil {
		return err
	}
	delete(c.schemas, path)
	return nil
}

func (c *Catalog) HasSchema(path string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.schemas[path]
	return ok
}

// ---- Graphs ----

func (c *Catalog) CreateGraph(path, typeName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.graphs[path]; ok {
		return ErrGraphExists
	}
	g := &Graph{Path: path, TypeName: typeName, CreatedAt: time.Now()}
	if err := c.putJSON(treeGraphs, path, g); err != nil {
		return err
	}
	c.graphs[path] = g
	return nil
}

// DropGraph removes the graph's catalog entry and its underlying node/edge
// storage trees.
func (c *Catalog) DropGraph(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.graphs[path]; !ok {
		return ErrGraphNotFound
	}
	if err := c.mgr.TruncateGraph(path); err != nil {
		return err
	}
	if err := c.delete(treeGraphs, path); err != nil {
		return err
	}
	delete(c.graphs, path)
	return nil
}

// TruncateGraph removes every node and edge in the graph but keeps its
// catalog entry (and any indexes defined on it) intact.
func (c *Catalog) TruncateGraph(path string) error {
	c.mu.RLock()
	_, ok := c.graphs[path]
	c.mu.RUnlock()
	if !ok {
		return ErrGraphNotFound
	}
	return c.mgr.TruncateGraph(path)
}

// ClearGraph is TRUNCATE's synonym here: both remove all data, neither
// touches the catalog entry. Kept as a distinct method because the DDL
// grammar admits both verbs as first-class statements.
func (c *Catalog) ClearGraph(path string) error {
	return c.TruncateGraph(path)
}

func (c *Catalog) HasGraph(path string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.graphs[path]
	return ok
}

// ---- Graph types ----

func (c *Catalog) CreateGraphType(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.graphTypes[name]; ok {
		return ErrTypeExists
	}
	gt := &GraphType{Name: name, CreatedAt: time.Now()}
	if err := c.putJSON(treeGraphTypes, name, gt); err != nil {
		return err
	}
	c.graphTypes[name] = gt
	return nil
}

func (c *Catalog) DropGraphType(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.graphTypes[name]; !ok {
		return ErrTypeNotFound
	}
	if err := c.delete(treeGraphTypes, name); err != nil {
		return err
	}
	delete(c.graphTypes, name)
	return nil
}

// ---- Roles ----

func (c *Catalog) CreateRole(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.roles[name]; ok {
		return ErrRoleExists
	}
	r := &Role{Name: name, CreatedAt: time.Now()}
	if err := c.putJSON(treeRoles, name, r); err != nil {
		return err
	}
	c.roles[name] = r
	return nil
}

func (c *Catalog) DropRole(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.roles[name]; !ok {
		return ErrRoleNotFound
	}
	if err := c.delete(treeRoles, name); err != nil {
		return err
	}
	delete(c.roles, name)
	for _, u := range c.users {
		u.Roles = removeString(u.Roles, name)
	}
	return nil
}

func removeString(ss []string, target string) []string {
	out := ss[:0]
	for _, s := range ss {
		if s != target {
			out = append(out, s)
		}
	}
	return out
}

// ---- Users ----

// CreateUser hashes password with bcrypt and stores the account. An empty
// password is rejected the way the rest of the DDL surface rejects empty
// identifiers — callers wanting a passwordless dev account should not
// route through CREATE USER at all.
func (c *Catalog) CreateUser(name, password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.users[name]; ok {
		return ErrUserExists
	}
	if password == "" {
		return ErrInvalidPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), c.bcryptCost)
	if err != nil {
		return fmt.Errorf("catalog: hash password: %w", err)
	}
	u := &User{Name: name, PasswordHash: string(hash), CreatedAt: time.Now()}
	rec := userRecord{Name: u.Name, PasswordHash: u.PasswordHash, Roles: u.Roles, CreatedAt: u.CreatedAt}
	if err := c.putJSON(treeUsers, name, rec); err != nil {
		return err
	}
	c.users[name] = u
	return nil
}

func (c *Catalog) DropUser(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.users[name]; !ok {
		return ErrUserNotFound
	}
	if err := c.delete(treeUsers, name); err != nil {
		return err
	}
	delete(c.users, name)
	return nil
}

// Authenticate verifies password against the stored bcrypt hash for name.
func (c *Catalog) Authenticate(name, password string) (*User, error) {
	c.mu.RLock()
	u, ok := c.users[name]
	c.mu.RUnlock()
	if !ok {
		return nil, ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidPassword
	}
	return u, nil
}

// GrantRole adds role to user's role set, persisting the updated user
// record.
func (c *Catalog) GrantRole(role, user string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.roles[role]; !ok {
		return ErrRoleNotFound
	}
	u, ok := c.users[user]
	if !ok {
		return ErrUserNotFound
	}
	if u.HasRole(role) {
		return nil
	}
	u.Roles = append(u.Roles, role)
	rec := userRecord{Name: u.Name, PasswordHash: u.PasswordHash, Roles: u.Roles, CreatedAt: u.CreatedAt}
	return c.putJSON(treeUsers, user, rec)
}

// RevokeRole removes role from user's role set.
func (c *Catalog) RevokeRole(role, user string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.users[user]
	if !ok {
		return ErrUserNotFound
	}
	u.Roles = removeString(u.Roles, role)
	rec := userRecord{Name: u.Name, PasswordHash: u.PasswordHash, Roles: u.Roles, CreatedAt: u.CreatedAt}
	return c.putJSON(treeUsers, user, rec)
}

// ---- Indexes ----

// CreateIndex registers an index by name over graphPath's label/property
// pair. kind is "graph", "text", or "vector" (pkg/engine maps gql.IndexKind
// to this string so the catalog stays independent of the gql package).
func (c *Catalog) CreateIndex(name, graphPath, kind, label, property string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byName[name]; ok {
		return ErrIndexExists
	}
	ix := &Index{Name: name, GraphPath: graphPath, Kind: kind, Label: label, Property: property, CreatedAt: time.Now()}
	if err := c.putJSON(treeIndexes, name, ix); err != nil {
		return err
	}
	c.byName[name] = ix
	c.indexes[ix.key()] = ix
	return nil
}

func (c *Catalog) DropIndex(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	ix, ok := c.byName[name]
	if !ok {
		return ErrIndexNotFound
	}
	if err := c.delete(treeIndexes, name); err != nil {
		return err
	}
	delete(c.byName, name)
	delete(c.indexes, ix.key())
	return nil
}

// GraphPaths returns every graph path currently registered, for the engine
// to preload a GraphCache per graph at startup.
func (c *Catalog) GraphPaths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.graphs))
	for path := range c.graphs {
		out = append(out, path)
	}
	return out
}

// IndexesByKind returns every index of the given kind across every graph,
// for the engine to rebuild its text-search registry at startup.
func (c *Catalog) IndexesByKind(kind string) []*Index {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []*Index
	for _, ix := range c.indexes {
		if ix.Kind == kind {
			out = append(out, ix)
		}
	}
	return out
}

// IndexesFor returns every index of kind defined on graphPath+label,
// regardless of property — used by the engine to find the text indexes a
// node mutation must update without knowing index names in advance.
func (c *Catalog) IndexesFor(graphPath, kind, label string) []*Index {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []*Index
	for _, ix := range c.indexes {
		if ix.GraphPath == graphPath && ix.Kind == kind && ix.Label == label {
			out = append(out, ix)
		}
	}
	return out
}

// HasPropertyIndex implements plan.IndexCatalog: it reports whether a
// graph-kind property index exists for label.property, without knowing
// which graph is being queried (the planner doesn't carry a graph path
// through plan.Build, so this checks across every graph — a false
// positive makes the builder choose NodeIndexScan for a graph that has no
// such index, which never gives wrong results, since NodeIndexScan
// re-validates properties against the row).
func (c *Catalog) HasPropertyIndex(label, property string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ix := range c.indexes {
		if ix.Kind == "graph" && ix.Label == label && ix.Property == property {
			return true
		}
	}
	return false
}
