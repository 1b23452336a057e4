package csrf

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

var errNoOrigin = errors.New("no Origin or Referer header")

// checkSameSite requires the request's Origin, or its Referer when Origin is
// absent, to name host. An empty host means r.Host. The returned error names
// the offending header and value.
func checkSameSite(r *http.Request, host string) error {
	if host == "" {
		host = r.Host
	}

	header, value := "Origin", r.Header.Get("Origin")
	if value == "" {
		header, value = "Referer", r.Header.Get("Referer")
	}
	if value == "" {
		return errNoOrigin
	}

	got, err := hostOf(value)
	if err != nil {
		return fmt.Errorf("%s %q: %w", header, value, err)
	}
	if !strings.EqualFold(got, host) {
		return fmt.Errorf("%s host %q does not match %q", header, got, host)
	}
	return nil
}

// hostOf returns the host[:port] part of an Origin or Referer value.
func hostOf(v string) (string, error) {
	u, err := url.Parse(v)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", errors.New("missing host")
	}
	return u.Host, nil
}
