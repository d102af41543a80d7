package fetch

import (
	"net/url"
	"strings"
)

// IsURL reports whether s is a single well-formed absolute http(s) URL.
func IsURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Resolve returns ref resolved against base, or ref unchanged when either
// does not parse.
func Resolve(base *url.URL, ref string) string {
	if base == nil || ref == "" {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(r).String()
}
