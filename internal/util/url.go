package util

import (
	"net/url"
	"strings"
)

// trackingParams are stripped from outbound deal links. Channels forward links
// through campaign tooling that appends these; removing them keeps the stored
// link stable across re-posts of the same product.
var trackingParams = []string{
	"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
	"gclid", "fbclid", "adjust_t",
}

// CleanTrackingParams removes known campaign parameters from rawURL.
// Unparseable input is returned unchanged.
func CleanTrackingParams(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := parsed.Query()
	changed := false
	for _, p := range trackingParams {
		if q.Has(p) {
			q.Del(p)
			changed = true
		}
	}
	if !changed {
		return rawURL
	}
	parsed.RawQuery = q.Encode()
	return parsed.String()
}

// ResolveURL turns a possibly relative ref into an absolute URL against base.
// Returns "" for refs that cannot name a fetchable resource (blob:, data:,
// javascript: and parse failures).
func ResolveURL(ref string, base *url.URL) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	lower := strings.ToLower(ref)
	for _, scheme := range []string{"blob:", "data:", "javascript:"} {
		if strings.HasPrefix(lower, scheme) {
			return ""
		}
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base == nil {
		if parsed.IsAbs() {
			return parsed.String()
		}
		return ""
	}
	return base.ResolveReference(parsed).String()
}

// Hostname returns the lowercased host of rawURL without a www. prefix,
// or "" if rawURL does not parse.
func Hostname(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	return strings.TrimPrefix(host, "www.")
}
