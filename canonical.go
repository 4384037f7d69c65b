package leadcrawl

import (
	"net/url"
	"sort"
	"strings"
)

// DefaultTrackingParams is the default denylist of query parameters stripped
// during canonicalization. Pagination parameters (page, p, start) are
// deliberately not on this list.
var DefaultTrackingParams = []string{
	"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
	"gclid", "fbclid", "msclkid", "mc_cid", "mc_eid", "igshid", "ref",
}

// Canonicalizer normalizes URLs into stable comparison keys. Two URLs
// that canonicalize identically are treated as the same page everywhere.
type Canonicalizer struct {
	deny map[string]struct{}
}

// NewCanonicalizer creates a Canonicalizer stripping the given query
// parameters. A nil denylist uses DefaultTrackingParams.
func NewCanonicalizer(trackingParams []string) *Canonicalizer {
	if trackingParams == nil {
		trackingParams = DefaultTrackingParams
	}
	deny := make(map[string]struct{}, len(trackingParams))
	for _, p := range trackingParams {
		deny[strings.ToLower(p)] = struct{}{}
	}
	return &Canonicalizer{deny: deny}
}

// Canonicalize normalizes a raw URL: lower-cases scheme and host, removes
// default ports, strips fragments and denylisted query parameters, sorts the
// remaining query parameters lexicographically, and removes the trailing
// slash except for the root path. Canonicalize is idempotent.
//
// Returns EINVALID if the URL cannot be parsed or is not absolute http(s).
func (c *Canonicalizer) Canonicalize(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", Errorf(EINVALID, "malformed URL %q: %v", raw, err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", Errorf(EINVALID, "unsupported URL scheme %q", raw)
	}
	if u.Host == "" {
		return "", Errorf(EINVALID, "URL %q has no host", raw)
	}

	host := strings.ToLower(u.Host)
	switch {
	case u.Scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case u.Scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}
	u.Host = host

	u.Fragment = ""
	u.RawQuery = c.canonicalQuery(u.Query())

	if u.Path == "" {
		u.Path = "/"
	} else if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	return u.String(), nil
}

// Domain returns the lower-cased host of a raw URL, without port.
func (c *Canonicalizer) Domain(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", Errorf(EINVALID, "malformed URL %q", raw)
	}
	host := strings.ToLower(u.Host)
	if i := strings.LastIndex(host, ":"); i != -1 && !strings.Contains(host, "]") {
		host = host[:i]
	}
	return host, nil
}

// canonicalQuery drops denylisted parameters and re-encodes the remainder
// in lexical key order.
func (c *Canonicalizer) canonicalQuery(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if _, denied := c.deny[strings.ToLower(k)]; denied {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		for _, v := range values[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

// CanonicalURL normalizes a URL using the default tracking-parameter
// denylist. See Canonicalizer.Canonicalize for the full contract.
func CanonicalURL(raw string) (string, error) {
	return defaultCanonicalizer.Canonicalize(raw)
}

var defaultCanonicalizer = NewCanonicalizer(nil)
