// contact/guard.go
package contact

import (
	"net/http"
	"strings"
)

// PolicyError describes a rejected request: the HTTP status to answer with
// and a client-safe message.
type PolicyError struct {
	Status  int
	Message string
}

func (e *PolicyError) Error() string { return e.Message }

// Guard rejects cross-site submissions before any validation or storage
// work happens. The decision is a raw substring containment check on header
// text — deliberately not a parsed-URL host comparison, so "www.example.com"
// and "example.com:8080" both pass for the domain "example.com".
//
// Policy: the Host header is mandatory and must contain the domain. The
// Referer header is optional; when present and non-empty it must contain
// the domain. With requireOrigin set, the Origin header additionally
// becomes mandatory under the same containment rule.
type Guard struct {
	domain        string
	requireOrigin bool
}

// NewGuard creates a Guard for the given allowed domain.
func NewGuard(domain string, requireOrigin bool) *Guard {
	return &Guard{domain: domain, requireOrigin: requireOrigin}
}

// Check inspects the request headers and returns nil if the request may
// proceed, or a PolicyError describing the rejection.
func (g *Guard) Check(r *http.Request) *PolicyError {
	// net/http promotes the Host header onto the request itself.
	host := r.Host
	if !headerText(host) {
		return &PolicyError{Status: http.StatusBadRequest, Message: "Invalid host header"}
	}
	if host == "" || !strings.Contains(host, g.domain) {
		return &PolicyError{Status: http.StatusForbidden, Message: "Access denied"}
	}

	if vals, ok := r.Header["Referer"]; ok && len(vals) > 0 {
		referer := vals[0]
		if !headerText(referer) {
			return &PolicyError{Status: http.StatusBadRequest, Message: "Invalid referer header"}
		}
		if referer != "" && !strings.Contains(referer, g.domain) {
			return &PolicyError{Status: http.StatusForbidden, Message: "Access denied"}
		}
	}

	if g.requireOrigin {
		vals, ok := r.Header["Origin"]
		if !ok || len(vals) == 0 {
			return &PolicyError{Status: http.StatusBadRequest, Message: "Missing origin header"}
		}
		origin := vals[0]
		if !headerText(origin) {
			return &PolicyError{Status: http.StatusBadRequest, Message: "Invalid origin header"}
		}
		if origin != "" && !strings.Contains(origin, g.domain) {
			return &PolicyError{Status: http.StatusForbidden, Message: "Access denied"}
		}
	}

	return nil
}

// headerText reports whether a header value is representable as visible
// text. Values smuggling control bytes are rejected as malformed rather
// than merely forbidden.
func headerText(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] == 0x7f {
			return false
		}
	}
	return true
}
