package csrf

import (
	"errors"
	"net/http"
)

// Protect wraps next and enforces CSRF protection.
//
// Behavior:
//   - Requests whose action is outside the Only/Except scope are never
//     verified; their session is still attached so handlers can render tokens.
//   - The session is loaded via Config.Sessions and a per-request token cache
//     is attached to the context, so Token and FormField derive the token
//     at most once. A failing store only rejects requests that need checking.
//   - Exempt requests (GET, non HTML/JS formats, disabled guard) continue.
//   - Everything else must carry the session's token in the header or form
//     field; otherwise Config.ErrorHandler is called with
//     ErrInvalidAuthenticityToken.
//
// Params:
// - next: downstream handler to be executed after CSRF checks pass.
//
// Returns:
// - An http.Handler that performs the CSRF logic before delegating to next.
func (g *Guard) Protect(next http.Handler) http.Handler {
	return g.ProtectAction(g.cfg.Actions)(next)
}

// ProtectAction is like Protect but names actions with actions instead of
// Config.Actions. Router adapters use it to scope by route pattern.
func (g *Guard) ProtectAction(actions ActionFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			action := actions(r)

			// attach the session first: handlers outside the guard's scope
			// still render forms that embed the token
			pr, perr := g.Prepare(w, r)
			if perr == nil {
				r = pr
			}

			// 1) out of scope: never verified
			if !g.Applies(action) {
				next.ServeHTTP(w, r)
				return
			}

			// 2) verify; exempt requests pass without a session or token
			if err := g.VerifyHTTP(r, action); err != nil {
				if perr != nil && !IsDenied(err) {
					err = perr
				}
				g.Fail(w, r, action, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Prepare loads the session for r and returns r with the session and a
// token cache attached to its context. Adapters that drive the guard
// themselves call Prepare once per request before VerifyHTTP.
func (g *Guard) Prepare(w http.ResponseWriter, r *http.Request) (*http.Request, error) {
	if g.cfg.Sessions == nil {
		return r, ErrNoSessions
	}
	s, err := g.cfg.Sessions(w, r)
	if err != nil {
		return r, errors.Join(ErrSessionStore, err)
	}
	ctx, _ := contextWithCell(contextWithSession(r.Context(), s))
	return r.WithContext(ctx), nil
}

// VerifyHTTP verifies a request previously passed through Prepare.
func (g *Guard) VerifyHTTP(r *http.Request, action string) error {
	req := Request{Method: r.Method, Format: DetectFormat(r), Action: action}
	if g.Exempt(req) {
		return nil
	}
	req.Token = extractClientToken(r, g.cfg.HeaderName, g.cfg.FormField)
	if g.cfg.EnforceOriginCheck {
		if err := checkSameSite(r, g.cfg.AllowedOrigin); err != nil {
			return errors.Join(ErrInvalidAuthenticityToken, err)
		}
	}
	s, ok := SessionFromContext(r.Context())
	if !ok {
		return ErrNoSessions
	}
	return g.Verify(r.Context(), req, s)
}

// Fail logs err and hands it to the configured ErrorHandler. Adapters call
// it when VerifyHTTP or Prepare returns an error.
func (g *Guard) Fail(w http.ResponseWriter, r *http.Request, action string, err error) {
	log := g.cfg.Logger.With("method", r.Method, "action", action)
	if IsDenied(err) {
		log.WarnContext(r.Context(), "csrf: request rejected", "error", err)
	} else {
		log.ErrorContext(r.Context(), "csrf: verification failed", "error", err)
	}
	g.cfg.ErrorHandler(w, r, err)
}
