package util

import (
	"net/url"
	"strings"
)

// trackingParams are dropped from every link; any utm_* key is too.
var trackingParams = map[string]bool{
	"gclid": true, "fbclid": true, "msclkid": true,
	"mc_cid": true, "mc_eid": true, "mkt_tok": true,
	"trackingid": true, "refid": true,
	"gh_src": true, "lever-source": true, "lever-origin": true,
}

// CanonicalizeURL gives two links to the same posting the same string:
// lowercase scheme and host, no default port, no fragment, no tracking
// parameters, sorted query. LinkedIn links keep only currentJobId and
// lose the /comm prefix used in alert mails.
func CanonicalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = stripDefaultPort(u.Scheme, strings.ToLower(u.Host))
	u.Fragment = ""
	u.RawFragment = ""

	q := u.Query()
	if strings.HasSuffix(u.Hostname(), "linkedin.com") {
		if strings.HasPrefix(u.Path, "/comm/") {
			u.Path = strings.TrimPrefix(u.Path, "/comm")
			u.RawPath = ""
		}
		keep := url.Values{}
		if v := q.Get("currentJobId"); v != "" {
			keep.Set("currentJobId", v)
		}
		q = keep
	}
	for k := range q {
		lk := strings.ToLower(k)
		if trackingParams[lk] || strings.HasPrefix(lk, "utm_") {
			q.Del(k)
		}
	}

	// Encode sorts by key.
	u.RawQuery = q.Encode()
	return u.String()
}

func stripDefaultPort(scheme, host string) string {
	switch {
	case scheme == "https" && strings.HasSuffix(host, ":443"):
		return strings.TrimSuffix(host, ":443")
	case scheme == "http" && strings.HasSuffix(host, ":80"):
		return strings.TrimSuffix(host, ":80")
	}
	return host
}
