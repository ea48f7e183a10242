package httpx

import (
	"net/http"
	"strings"
)

// KeyExtractor names the bucket a request is charged to. An empty key
// exempts the request.
type KeyExtractor func(*http.Request) string

// IPKeyExtractor returns the address resolved by ClientIPMiddleware, or the
// direct peer when the middleware is not installed. Forwarding headers are
// never read here.
func IPKeyExtractor(r *http.Request) string {
	if ip, ok := ClientIPFromContext(r.Context()); ok {
		return ip
	}
	return peerAddr(r)
}

// UserIDKeyExtractor returns the authenticated subject, or "" when anonymous.
func UserIDKeyExtractor(r *http.Request) string {
	if p, ok := PrincipalFromContext(r.Context()); ok {
		return p.Subject
	}
	return ""
}

// CompositeKeyExtractor joins the non-empty keys of each extractor with sep.
func CompositeKeyExtractor(sep string, extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(extractors))
		for _, extract := range extractors {
			if k := extract(r); k != "" {
				parts = append(parts, k)
			}
		}
		return strings.Join(parts, sep)
	}
}

// FormFieldKeyExtractor reads field from the query or body. JSON bodies are
// peeked and restored for the handler.
func FormFieldKeyExtractor(field string) KeyExtractor {
	return func(r *http.Request) string {
		if isJSON(r) {
			return peekJSONField(r, field)
		}
		if err := r.ParseForm(); err != nil {
			return ""
		}
		return r.FormValue(field)
	}
}
