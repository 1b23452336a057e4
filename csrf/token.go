package csrf

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
)

// newToken returns n random bytes, url-safe encoded.
func newToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	// base64 URL encoding without padding
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// deriveToken computes the token expected for s.
//
// With a Secret configured the token is the hex HMAC of the session id,
// keyed by the secret. Otherwise it is the session's csrf id, passed through
// the store's Digester when the store offers one.
func (g *Guard) deriveToken(ctx context.Context, s Session) (string, error) {
	if !g.cfg.Secret.IsZero() {
		key := g.cfg.Secret.Resolve(s.ID())
		return hmacHex(g.digest, key, s.ID()), nil
	}

	id, err := g.csrfID(ctx, s)
	if err != nil {
		return "", err
	}
	if d, ok := s.(Digester); ok {
		return d.Digest(id), nil
	}
	return id, nil
}

// extractClientToken reads the submitted token. The header wins over the form.
func extractClientToken(r *http.Request, headerName, formField string) string {
	if h := r.Header.Get(headerName); h != "" {
		return h
	}
	// form covers query, x-www-form-urlencoded and multipart bodies
	_ = r.ParseMultipartForm(32 << 20)
	return r.Form.Get(formField)
}
