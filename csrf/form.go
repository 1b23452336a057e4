package csrf

import (
	"html/template"
	"net/http"
)

// Token returns the current token for a request that went through Protect
// or Prepare.
func (g *Guard) Token(r *http.Request) (string, error) {
	s, ok := SessionFromContext(r.Context())
	if !ok {
		return "", ErrNoSessions
	}
	return g.CurrentToken(r.Context(), s)
}

// FieldName returns the form parameter the token is read from.
func (g *Guard) FieldName() string {
	return g.cfg.FormField
}

// FormField renders a hidden input carrying the current token, ready to be
// placed inside a <form>.
func (g *Guard) FormField(r *http.Request) (template.HTML, error) {
	tok, err := g.Token(r)
	if err != nil {
		return "", err
	}
	return template.HTML(`<input type="hidden" name="` +
		template.HTMLEscapeString(g.cfg.FormField) + `" value="` +
		template.HTMLEscapeString(tok) + `">`), nil
}

// TokenHandler returns an HTTP handler that writes the current CSRF token.
// This is useful for SPAs to fetch the token and attach it to subsequent requests.
//
// Returns:
// - http.Handler that responds with the token in the response body (text/plain).
func (g *Guard) TokenHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, err := g.Token(r)
		if err != nil {
			g.cfg.Logger.ErrorContext(r.Context(), "csrf: token unavailable", "error", err)
			http.Error(w, "no token", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(tok))
	})
}
