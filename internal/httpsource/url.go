package httpsource

import (
	"net/url"
	"strings"

	"citecheck/internal/content"
)

// URL is a cited address split into the document to fetch and an optional
// fragment naming an element inside it. Base is normalized and only
// identifies the citation; requests go to Fetch, which keeps the cited
// spelling.
type URL struct {
	Base     string `json:"base"`
	Fetch    string `json:"fetch"`
	Fragment string `json:"fragment,omitempty"`
	Host     string `json:"host"`
}

// ParseURL validates raw as an http(s) URL and normalizes its base.
func ParseURL(raw string) (URL, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return URL{}, content.ParsingError(err, "invalid URL %q", raw)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return URL{}, content.ParsingError(nil, "unsupported URL scheme %q in %q (want http or https)", u.Scheme, raw)
	}
	if u.Host == "" {
		return URL{}, content.ParsingError(nil, "URL %q has no host", raw)
	}

	base := raw
	if idx := strings.IndexByte(base, '#'); idx >= 0 {
		base = base[:idx]
	}

	return URL{
		Base:     Normalize(base),
		Fetch:    base,
		Fragment: u.Fragment,
		Host:     strings.ToLower(u.Hostname()),
	}, nil
}

// Normalize lower-cases s and trims at most one trailing slash, never
// shortening it below "scheme://x".
func Normalize(s string) string {
	s = strings.ToLower(s)
	floor := 1
	if idx := strings.Index(s, "://"); idx >= 0 {
		floor = idx + len("://") + 1
	}
	if strings.HasSuffix(s, "/") && len(s)-1 >= floor {
		s = s[:len(s)-1]
	}
	return s
}

// String returns the normalized base with its fragment.
func (u URL) String() string {
	if u.Fragment == "" {
		return u.Base
	}
	return u.Base + "#" + u.Fragment
}
