// Package route implements the gateway's static prefix routing table.
package route

import "strings"

// Route maps a literal path prefix to an upstream base URL.
type Route struct {
	Name        string
	Prefix      string
	Upstream    string
	Description string
}

// Table is an immutable, ordered collection of routes. Matching is
// first-match in declaration order, not longest-prefix: the order routes
// are configured in is part of the routing contract.
type Table struct {
	routes []Route
}

// NewTable builds a Table preserving the declaration order of routes.
func NewTable(routes []Route) *Table {
	t := &Table{routes: make([]Route, len(routes))}
	copy(t.routes, routes)
	return t
}

// Resolve returns the first route whose prefix is a literal prefix of
// path, along with the downstream path (prefix stripped, leading slash
// guaranteed). ok is false when no route matches.
func (t *Table) Resolve(path string) (rt Route, downstream string, ok bool) {
	for _, r := range t.routes {
		if strings.HasPrefix(path, r.Prefix) {
			downstream = path[len(r.Prefix):]
			if !strings.HasPrefix(downstream, "/") {
				downstream = "/" + downstream
			}
			return r, downstream, true
		}
	}
	return Route{}, "", false
}

// Routes returns a copy of the configured routes in declaration order.
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// Prefixes returns the configured path prefixes in declaration order.
func (t *Table) Prefixes() []string {
	out := make([]string, len(t.routes))
	for i, r := range t.routes {
		out[i] = r.Prefix
	}
	return out
}
