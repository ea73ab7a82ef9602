// Package httpsource cites a fragment of a web page.
package httpsource

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"citecheck/internal/cache"
	"citecheck/internal/content"
	"citecheck/internal/ident"
	"citecheck/internal/textdiff"
)

// DefaultUserAgent identifies citation checks to servers.
const DefaultUserAgent = "citecheck/1.0"

// DefaultTimeout bounds a single fetch when no client is supplied.
const DefaultTimeout = 30 * time.Second

// ErrNoExtractionTarget is returned when a citation names neither a match
// expression nor a URL fragment.
var ErrNoExtractionTarget = errors.New("citation has no match expression and no URL fragment")

// Referenced is the cited fragment.
type Referenced struct {
	URL     string          `json:"url"`
	Match   MatchExpression `json:"match"`
	Content string          `json:"content"`
}

// Current is a freshly extracted fragment plus fetch metadata.
type Current struct {
	URL        string          `json:"url"`
	Match      MatchExpression `json:"match"`
	Content    string          `json:"content"`
	FetchedAt  time.Time       `json:"fetchedAt"`
	Raw        []byte          `json:"raw,omitempty"`
	ByteLength int             `json:"byteLength"`
}

// Diff compares content, URL and match expression.
type Diff struct {
	ContentChanged bool   `json:"contentChanged"`
	URLChanged     bool   `json:"urlChanged"`
	MatchChanged   bool   `json:"matchChanged"`
	Unified        string `json:"unified,omitempty"`
}

// IsEmpty reports whether nothing about the citation changed.
func (d *Diff) IsEmpty() bool {
	return !d.ContentChanged && !d.URLChanged && !d.MatchChanged
}

// AsReferenced drops the fetch metadata.
func (c *Current) AsReferenced() *Referenced {
	return &Referenced{URL: c.URL, Match: c.Match, Content: c.Content}
}

// Diff compares c against ref. Fetch metadata is ignored.
func (c *Current) Diff(ref *Referenced) (*Diff, error) {
	d := &Diff{
		ContentChanged: ref.Content != c.Content,
		URLChanged:     ref.URL != c.URL,
		MatchChanged:   ref.Match != c.Match,
	}
	if d.ContentChanged {
		d.Unified = textdiff.Unified(c.URL, ref.Content, c.Content)
	}
	return d, nil
}

// Comparison is the comparison type produced by Source.
type Comparison = content.Comparison[*Referenced, *Current, *Diff]

// Source fetches URL and extracts Match from the response body. The body is
// fetched once per Source; build a new Source for every check.
type Source struct {
	URL   URL
	Match MatchExpression

	Client    *http.Client
	UserAgent string
	Logger    *slog.Logger

	body      []byte
	fetchedAt time.Time
}

// New builds a source for rawURL. A nil match is inferred: Fragment when the
// URL has one, otherwise ErrNoExtractionTarget. Pass FullDocument()
// explicitly to cite a whole page.
func New(rawURL string, match *MatchExpression) (*Source, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	var m MatchExpression
	switch {
	case match != nil:
		m = *match
	case u.Fragment != "":
		m = Fragment(u.Fragment)
	default:
		return nil, content.ParsingError(ErrNoExtractionTarget, "cannot cite %s", u)
	}

	return &Source{URL: u, Match: m}, nil
}

// ID combines the normalized URL and the serialized match expression, so
// different extraction rules on one page never share a cache entry.
func (s *Source) ID() content.ID {
	params := map[string]string{
		"url":   s.URL.String(),
		"match": s.Match.String(),
	}
	id, err := ident.Derive("http", s.URL.Host+" "+string(s.Match.Kind), params)
	if err != nil {
		return content.ID("http-" + ident.Slugify(s.URL.String()+" "+s.Match.String()))
	}
	return content.ID(id)
}

func (s *Source) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Source) client() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	return &http.Client{Timeout: DefaultTimeout}
}

func (s *Source) fetch() ([]byte, error) {
	if s.body != nil {
		return s.body, nil
	}

	req, err := http.NewRequest(http.MethodGet, s.URL.Fetch, nil)
	if err != nil {
		return nil, content.InternalError(err, "creating request for %s", s.URL.Fetch)
	}
	ua := s.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept-Encoding", "zstd, gzip")

	start := time.Now()
	resp, err := s.client().Do(req)
	if err != nil {
		return nil, content.NetworkError(err, "GET %s", s.URL.Fetch)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, content.NetworkError(nil, "GET %s: unexpected status %s", s.URL.Fetch, resp.Status)
	}

	body, err := decodeBody(resp)
	if err != nil {
		return nil, err
	}

	s.logger().Debug("fetched document",
		"url", s.URL.Fetch, "status", resp.StatusCode, "bytes", len(body), "elapsed", time.Since(start))
	s.body = body
	s.fetchedAt = time.Now().UTC()
	return body, nil
}

// decodeBody reads the response, undoing zstd or gzip content encoding.
func decodeBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	switch enc := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))); enc {
	case "", "identity":
	case "gzip", "x-gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, content.ParsingError(err, "decoding gzip response")
		}
		defer gz.Close()
		r = gz
	case "zstd":
		zr, err := zstd.NewReader(resp.Body)
		if err != nil {
			return nil, content.ParsingError(err, "decoding zstd response")
		}
		defer zr.Close()
		r = zr
	default:
		return nil, content.ParsingError(nil, "unsupported content encoding %q", enc)
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, content.NetworkError(err, "reading response body")
	}
	return body, nil
}

func (s *Source) extract() (string, []byte, error) {
	body, err := s.fetch()
	if err != nil {
		return "", nil, err
	}
	text, err := s.Match.Extract(string(body))
	if err != nil {
		return "", nil, fmt.Errorf("extracting %s from %s: %w", s.Match, s.URL.Fetch, err)
	}
	return text, body, nil
}

// Referenced fetches the page and extracts the cited fragment.
func (s *Source) Referenced() (*Referenced, error) {
	text, _, err := s.extract()
	if err != nil {
		return nil, err
	}
	return &Referenced{URL: s.URL.String(), Match: s.Match, Content: text}, nil
}

// Current fetches the page and extracts the fragment with fetch metadata.
func (s *Source) Current() (*Current, error) {
	text, body, err := s.extract()
	if err != nil {
		return nil, err
	}
	return &Current{
		URL:        s.URL.String(),
		Match:      s.Match,
		Content:    text,
		FetchedAt:  s.fetchedAt,
		Raw:        body,
		ByteLength: len(body),
	}, nil
}

// Get fetches both sides and diffs them.
func (s *Source) Get() (*Comparison, error) {
	return content.Get[*Referenced, *Current, *Diff](s)
}

// GetWithCache fetches a comparison through c.
func (s *Source) GetWithCache(c *cache.Cache, behavior cache.Behavior) (*Comparison, error) {
	return cache.GetSourceWithCache[*Referenced, *Current, *Diff](c, s, behavior)
}
