// Package sessionstore provides session stores that satisfy csrf.Session.
//
// Three stores are available:
//
//   - Memory keeps sessions in process, keyed by a uuid session cookie.
//     Sessions idle past the TTL (WithTTL, default 24h) are evicted. Useful
//     for tests and single instance deployments.
//   - Redis keeps one hash per session (go-redis), so every instance behind
//     a load balancer sees the same csrf id. First writes use HSETNX.
//   - Signed keeps the whole session in an HMAC-signed cookie and implements
//     csrf.Digester, so the token handed to forms is a keyed digest of the
//     csrf id rather than the id itself.
//
// Each store exposes Load, which matches csrf.SessionLoader:
//
//	store := sessionstore.NewRedis(client, sessionstore.WithTTL(12*time.Hour))
//	g := csrf.MustNew(csrf.Config{Sessions: store.Load})
package sessionstore
