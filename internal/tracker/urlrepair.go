package tracker

import (
	"net/url"
	"strings"
)

// RepairURL normalizes a PR-creation link extracted from agent-authored
// markdown. Agents paste compare URLs with unencoded titles/bodies in the
// query string; those survive in markdown but break when clicked.
//
// Strategy: parse as URL; if parseable but the query carries literal spaces,
// re-encode each parameter value (decode first, so already-encoded values are
// not double-encoded). If not parseable at all, apply byte-level repairs
// (space → %20, bare colon → %3A) to the query portion only and re-validate.
// Returns "" when the link cannot be salvaged.
func RepairURL(raw string) string {
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err == nil && u.Scheme != "" && u.Host != "" {
		if !strings.Contains(u.RawQuery, " ") {
			return raw
		}
		u.RawQuery = reencodeQuery(u.RawQuery)
		return u.String()
	}

	// Not directly parseable. Repair the query bytes and try once more.
	base, query, found := strings.Cut(raw, "?")
	if !found {
		return ""
	}
	query = strings.ReplaceAll(query, " ", "%20")
	query = strings.ReplaceAll(query, ":", "%3A")
	repaired := base + "?" + query

	u, err = url.Parse(repaired)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return repaired
}

// reencodeQuery rebuilds a query string parameter by parameter, decoding
// each value before encoding so existing escapes stay single-encoded.
func reencodeQuery(rawQuery string) string {
	parts := strings.Split(rawQuery, "&")
	for i, part := range parts {
		key, value, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		if decoded, err := url.QueryUnescape(value); err == nil {
			value = decoded
		}
		parts[i] = key + "=" + url.QueryEscape(value)
	}
	return strings.Join(parts, "&")
}
