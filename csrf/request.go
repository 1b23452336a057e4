package csrf

import (
	"mime"
	"net/http"
	"path"
	"strings"
)

// Format is the response format a request asks for.
type Format int

const (
	FormatHTML Format = iota
	FormatJS
	FormatOther
)

func (f Format) String() string {
	switch f {
	case FormatHTML:
		return "html"
	case FormatJS:
		return "js"
	default:
		return "other"
	}
}

// Request is the part of an inbound request the guard looks at.
type Request struct {
	Method string
	Format Format
	Token  string // submitted token, empty when absent
	Action string
}

// RequestFromHTTP builds a Request from r, reading the submitted token from
// headerName or formField.
func RequestFromHTTP(r *http.Request, formField, headerName, action string) Request {
	return Request{
		Method: r.Method,
		Format: DetectFormat(r),
		Token:  extractClientToken(r, headerName, formField),
		Action: action,
	}
}

// DetectFormat classifies r by an explicit format parameter, then the path
// extension, then the first Accept media type. Browsers sending no or a
// wildcard Accept header are treated as HTML.
func DetectFormat(r *http.Request) Format {
	if f := r.URL.Query().Get("format"); f != "" {
		return formatFromExt(f)
	}
	if ext := strings.ToLower(strings.TrimPrefix(path.Ext(r.URL.Path), ".")); ext != "" {
		if _, ok := otherExts[ext]; ok {
			return FormatOther
		}
		if ext == "html" || ext == "htm" || ext == "js" {
			return formatFromExt(ext)
		}
	}
	return formatFromAccept(r.Header.Get("Accept"))
}

// otherExts are path extensions recognised as non browser formats. Unknown
// extensions (e.g. "/users/john.doe") do not decide the format.
var otherExts = map[string]struct{}{
	"json": {}, "xml": {}, "atom": {}, "rss": {}, "csv": {},
	"txt": {}, "yaml": {}, "yml": {}, "ics": {}, "pdf": {},
}

func formatFromExt(ext string) Format {
	switch strings.ToLower(ext) {
	case "html", "htm":
		return FormatHTML
	case "js":
		return FormatJS
	default:
		return FormatOther
	}
}

func formatFromAccept(accept string) Format {
	first, _, _ := strings.Cut(accept, ",")
	first = strings.TrimSpace(first)
	if first == "" {
		return FormatHTML
	}
	mt, _, err := mime.ParseMediaType(first)
	if err != nil {
		return FormatOther
	}
	switch mt {
	case "text/html", "application/xhtml+xml", "*/*":
		return FormatHTML
	case "text/javascript", "application/javascript", "application/x-javascript":
		return FormatJS
	default:
		return FormatOther
	}
}

// Exempt reports whether req skips verification: protection disabled, a GET
// request, or a format other than HTML and JS. HEAD is answered as GET by
// net/http and is exempt as well.
func (g *Guard) Exempt(req Request) bool {
	if g == nil || g.cfg.Disabled {
		return true
	}
	switch strings.ToUpper(req.Method) {
	case http.MethodGet, http.MethodHead:
		return true
	}
	return req.Format != FormatHTML && req.Format != FormatJS
}
