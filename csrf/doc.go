// Package csrf provides session-bound CSRF protection for Go net/http servers.
//
// How it works
//   - Every session has one authenticity token. With a Secret configured the
//     token is the hex HMAC (Config.Digest, default SHA1) of the session id.
//     Without one, a random csrf id is stored in the session on first use and
//     the token is that id, digested by the store when the store can sign
//     values (see Digester).
//   - GET requests and requests for formats other than HTML or JS are never
//     checked. Everything else must submit the token in the form field
//     (default "authenticity_token") or header (default "X-CSRF-Token").
//     Comparison is done in constant time.
//   - Only/Except limit which actions the middleware guards at all.
//
// # Configuration
//
// All behavior is driven by Config. Key fields include:
//   - Secret (StaticSecret or SecretFunc) and Digest
//   - Only, Except and Disabled
//   - FormField, HeaderName
//   - SessionKey (default: "csrf_id") and Sessions, the SessionLoader
//   - EnforceOriginCheck and AllowedOrigin (empty means use the request host)
//
// Typical usage
//
//	g := csrf.MustNew(csrf.Config{
//	    Secret:   csrf.StaticSecret(os.Getenv("CSRF_SECRET")),
//	    Sessions: store.Load,
//	    Except:   []string{"/webhooks/stripe"},
//	})
//	http.ListenAndServe(":8080", g.Protect(appMux))
//
// In handlers, render the token into forms:
//
//	field, err := g.FormField(r)
//	// <form method="post">{{ .CSRFField }} ...</form>
//
// Denied requests reach Config.ErrorHandler with ErrInvalidAuthenticityToken;
// the default handler answers 422 Unprocessable Entity. Use IsDenied to tell
// denials from store or entropy failures.
//
// Callers that run their own pipeline can skip the middleware and call
// Verify with a Request and Session directly.
package csrf
