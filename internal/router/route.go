package router

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// Route binds an HTTP method and a path pattern to a handler.
//
// A pattern is a '/' separated list of segments. Each segment is either a
// literal, "{name}" which accepts any non-empty segment, or "{name:regexp}"
// which accepts a segment fully matching regexp.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc

	segments []segment
}

type segment struct {
	literal string
	name    string
	param   bool
	re      *regexp.Regexp
}

func compilePattern(pattern string) ([]segment, error) {
	if !strings.HasPrefix(pattern, "/") {
		return nil, fmt.Errorf("pattern %q must start with '/'", pattern)
	}

	parts := splitPath(pattern)
	segs := make([]segment, 0, len(parts))
	for _, part := range parts {
		if !strings.HasPrefix(part, "{") || !strings.HasSuffix(part, "}") {
			segs = append(segs, segment{literal: part})
			continue
		}

		name, expr, hasExpr := strings.Cut(part[1:len(part)-1], ":")
		if name == "" {
			return nil, fmt.Errorf("pattern %q has an unnamed parameter", pattern)
		}
		seg := segment{name: name, param: true}
		if hasExpr {
			re, err := regexp.Compile("^(?:" + expr + ")$")
			if err != nil {
				return nil, fmt.Errorf("pattern %q: parameter %q: %w", pattern, name, err)
			}
			seg.re = re
		}
		segs = append(segs, seg)
	}
	return segs, nil
}

func splitPath(path string) []string {
	return strings.Split(strings.TrimPrefix(path, "/"), "/")
}

// match compares the route against an already split request path and
// returns the parameter values in pattern order.
func (rt *Route) match(method string, parts []string) ([]string, bool) {
	if rt.Method != method || len(parts) != len(rt.segments) {
		return nil, false
	}

	var values []string
	for i, seg := range rt.segments {
		part := parts[i]
		if !seg.param {
			if part != seg.literal {
				return nil, false
			}
			continue
		}
		if part == "" || (seg.re != nil && !seg.re.MatchString(part)) {
			return nil, false
		}
		values = append(values, part)
	}
	return values, true
}

func (rt *Route) paramNames() []string {
	var names []string
	for _, seg := range rt.segments {
		if seg.param {
			names = append(names, seg.name)
		}
	}
	return names
}

// Params holds the values captured by a matched route, in the order their
// placeholders appear in the pattern.
type Params struct {
	names  []string
	values []string
}

// At returns the i-th captured value, or "" when out of range.
func (p Params) At(i int) string {
	if i < 0 || i >= len(p.values) {
		return ""
	}
	return p.values[i]
}

// Get returns the value captured for the named placeholder.
func (p Params) Get(name string) string {
	for i, n := range p.names {
		if n == name {
			return p.values[i]
		}
	}
	return ""
}

func (p Params) Len() int {
	return len(p.values)
}

// Match is the result of a successful table lookup.
type Match struct {
	Route  *Route
	Params Params
}

// Table is an ordered route list. Lookups return the first route whose
// method and pattern both match, so more specific patterns must be added
// before more general ones when they could overlap.
type Table struct {
	routes []*Route
}

func NewTable() *Table {
	return &Table{}
}

// Handle appends a route. It panics on an invalid pattern, the same way
// route registration fails fast in chi.
func (t *Table) Handle(method, pattern string, h http.HandlerFunc) {
	segs, err := compilePattern(pattern)
	if err != nil {
		panic("router: " + err.Error())
	}
	t.routes = append(t.routes, &Route{
		Method:   strings.ToUpper(method),
		Pattern:  pattern,
		Handler:  h,
		segments: segs,
	})
}

func (t *Table) Get(pattern string, h http.HandlerFunc)    { t.Handle(http.MethodGet, pattern, h) }
func (t *Table) Post(pattern string, h http.HandlerFunc)   { t.Handle(http.MethodPost, pattern, h) }
func (t *Table) Put(pattern string, h http.HandlerFunc)    { t.Handle(http.MethodPut, pattern, h) }
func (t *Table) Patch(pattern string, h http.HandlerFunc)  { t.Handle(http.MethodPatch, pattern, h) }
func (t *Table) Delete(pattern string, h http.HandlerFunc) { t.Handle(http.MethodDelete, pattern, h) }

// Routes returns the registered routes in lookup order.
func (t *Table) Routes() []Route {
	out := make([]Route, 0, len(t.routes))
	for _, rt := range t.routes {
		out = append(out, *rt)
	}
	return out
}

// Match looks up the first route for method and path.
func (t *Table) Match(method, path string) (Match, bool) {
	parts := splitPath(path)
	for _, rt := range t.routes {
		values, ok := rt.match(method, parts)
		if !ok {
			continue
		}
		return Match{Route: rt, Params: Params{names: rt.paramNames(), values: values}}, true
	}
	return Match{}, false
}
