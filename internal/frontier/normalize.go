// Package frontier normalizes candidate URLs and tracks the bounded set of
// unique URLs considered during observation. Grounded on the project's
// deterministic-sort idiom used throughout internal/config for
// canonicalizing map-derived output.
package frontier

import (
	"net/url"
	"sort"
	"strings"
)

// trackingPrefixes is the closed set of tracking-parameter names stripped
// during normalization.
var trackingPrefixes = map[string]bool{
	"utm_":     true,
	"gclid":    true,
	"fbclid":   true,
	"msclkid":  true,
	"sid":      true,
	"session":  true,
	"ref":      true,
	"source":   true,
	"campaign": true,
	"medium":   true,
	"tracking": true,
	"click_id": true,
}

// isTrackingParam reports whether name matches the tracking-prefix set.
// Names are matched either exactly or by prefix (utm_* covers utm_source,
// utm_medium, etc; the remaining entries are exact names).
func isTrackingParam(name string) bool {
	lower := strings.ToLower(name)
	if strings.HasPrefix(lower, "utm_") {
		return true
	}
	return trackingPrefixes[lower]
}

// Normalize applies the ordered rules lowercase
// scheme/host, drop fragment, drop tracking parameters, sort remaining
// query parameters lexicographically, re-serialize. Normalize is
// idempotent: Normalize(Normalize(u)) == Normalize(u).
func Normalize(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""

	q := u.Query()
	for name := range q {
		if isTrackingParam(name) {
			q.Del(name)
		}
	}

	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		vals := q[k]
		sort.Strings(vals)
		for j, v := range vals {
			if j > 0 {
				sb.WriteByte('&')
			}
			sb.WriteString(url.QueryEscape(k))
			sb.WriteByte('=')
			sb.WriteString(url.QueryEscape(v))
		}
	}
	u.RawQuery = sb.String()

	return u.String(), nil
}

// Equivalent reports whether two URLs normalize to the same form
// ("Two URLs are equivalent iff their normalized forms are
// byte-equal").
func Equivalent(a, b string) bool {
	na, errA := Normalize(a)
	nb, errB := Normalize(b)
	if errA != nil || errB != nil {
		return false
	}
	return na == nb
}
