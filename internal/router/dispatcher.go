package router

import (
	"context"
	"net/http"
)

type paramsKey struct{}

// WithParams stores matched route params on ctx.
func WithParams(ctx context.Context, p Params) context.Context {
	return context.WithValue(ctx, paramsKey{}, p)
}

// ParamsFrom returns the params of the route that is serving r.
func ParamsFrom(r *http.Request) Params {
	p, _ := r.Context().Value(paramsKey{}).(Params)
	return p
}

// URLParam returns the named path parameter of the current request.
func URLParam(r *http.Request, name string) string {
	return ParamsFrom(r).Get(name)
}

// Dispatcher serves requests from a Table, falling back to NotFound when
// no route matches.
type Dispatcher struct {
	table    *Table
	NotFound http.HandlerFunc
}

func NewDispatcher(t *Table) *Dispatcher {
	return &Dispatcher{table: t, NotFound: defaultNotFound}
}

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m, ok := d.table.Match(r.Method, r.URL.Path)
	if !ok {
		d.NotFound(w, r)
		return
	}
	m.Route.Handler(w, r.WithContext(WithParams(r.Context(), m.Params)))
}

func defaultNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte(`{"error":"route not found"}`))
}
