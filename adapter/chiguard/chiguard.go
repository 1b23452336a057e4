// Package chiguard wires a csrf.Guard into chi routers, naming actions by
// their chi route pattern (e.g. "/posts/{id}").
//
// Mount it inside a Group or With so chi has resolved the route before the
// guard runs; at the top level of a router the pattern is not known yet and
// the raw URL path is used instead.
//
//	r.Group(func(r chi.Router) {
//	    r.Use(chiguard.Middleware(g))
//	    r.Post("/posts/{id}", updatePost)
//	})
package chiguard

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JeanGrijp/go-csrfguard/csrf"
)

// Middleware returns chi middleware enforcing g, scoped by route pattern.
func Middleware(g *csrf.Guard) func(http.Handler) http.Handler {
	return g.ProtectAction(RoutePattern)
}

// RoutePattern returns the matched chi route pattern, or the URL path when
// routing has not happened yet.
func RoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}
