package httpsource

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"citecheck/internal/content"
)

// MatchKind tags a MatchExpression variant.
type MatchKind string

const (
	MatchRegex        MatchKind = "regex"
	MatchCSS          MatchKind = "css"
	MatchXPath        MatchKind = "xpath"
	MatchFragment     MatchKind = "fragment"
	MatchFullDocument MatchKind = "full"
)

// MatchExpression selects the part of a fetched document that is cited.
// Build one with Regex, CSSSelector, XPath, Fragment or FullDocument.
type MatchExpression struct {
	Kind  MatchKind `json:"kind"`
	Value string    `json:"value,omitempty"`
}

// Regex cites the first capture group of pattern, or the whole match when
// the pattern has no groups.
func Regex(pattern string) MatchExpression {
	return MatchExpression{Kind: MatchRegex, Value: pattern}
}

// CSSSelector cites the text of every element matching selector.
func CSSSelector(selector string) MatchExpression {
	return MatchExpression{Kind: MatchCSS, Value: selector}
}

// XPath is accepted so it can be named, but extraction always fails.
func XPath(expr string) MatchExpression {
	return MatchExpression{Kind: MatchXPath, Value: expr}
}

// Fragment cites the element whose id or name is id.
func Fragment(id string) MatchExpression {
	return MatchExpression{Kind: MatchFragment, Value: id}
}

// FullDocument cites the whole response body.
func FullDocument() MatchExpression {
	return MatchExpression{Kind: MatchFullDocument}
}

// String serializes the expression as "<kind>:<value>", or "<kind>" when
// there is no value. It is part of the cache key.
func (m MatchExpression) String() string {
	if m.Value == "" {
		return string(m.Kind)
	}
	return string(m.Kind) + ":" + m.Value
}

// ParseMatchExpression parses the String form.
func ParseMatchExpression(s string) (MatchExpression, error) {
	kind, value, _ := strings.Cut(s, ":")
	switch MatchKind(strings.ToLower(kind)) {
	case MatchRegex:
		return Regex(value), nil
	case MatchCSS:
		return CSSSelector(value), nil
	case MatchXPath:
		return XPath(value), nil
	case MatchFragment:
		return Fragment(value), nil
	case MatchFullDocument:
		return FullDocument(), nil
	default:
		return MatchExpression{}, content.ParsingError(nil,
			"unknown match expression %q (want regex:, css:, xpath:, fragment: or full)", s)
	}
}

// Extract applies the expression to body. Finding nothing is not an error:
// a regex without a match or an absent fragment yields "".
func (m MatchExpression) Extract(body string) (string, error) {
	switch m.Kind {
	case MatchRegex:
		return extractRegex(m.Value, body)
	case MatchCSS:
		return extractCSS(m.Value, body)
	case MatchXPath:
		return "", content.ParsingError(nil, "XPath extraction is not implemented (expression %q)", m.Value)
	case MatchFragment:
		return extractFragment(m.Value, body)
	case MatchFullDocument:
		return body, nil
	default:
		return "", content.InternalError(nil, "unknown match kind %q", m.Kind)
	}
}

func extractRegex(pattern, body string) (string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", content.ParsingError(err, "invalid regex %q", pattern)
	}
	m := re.FindStringSubmatch(body)
	switch {
	case m == nil:
		return "", nil
	case len(m) > 1:
		return m[1], nil
	default:
		return m[0], nil
	}
}

func parseHTML(body string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, content.ParsingError(err, "parsing HTML")
	}
	return doc, nil
}

func extractCSS(selector, body string) (string, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return "", content.ParsingError(err, "invalid CSS selector %q", selector)
	}
	doc, err := parseHTML(body)
	if err != nil {
		return "", err
	}

	var texts []string
	doc.FindMatcher(sel).Each(func(_ int, s *goquery.Selection) {
		texts = append(texts, visibleText(s))
	})
	return strings.Join(texts, "\n"), nil
}

// visibleText is the trimmed text of s without script and style contents.
func visibleText(s *goquery.Selection) string {
	clone := s.Clone()
	clone.Find("script, style, noscript, template").Remove()
	return strings.TrimSpace(clone.Text())
}

var cssIdentRe = regexp.MustCompile(`^-?[_a-zA-Z][_a-zA-Z0-9-]*$`)

// fragmentSelectors lists the lookups tried, in order, for a fragment id.
// The #id form is only used for plain identifiers; anything else would be
// read as classes, pseudo-classes or combinators.
func fragmentSelectors(id string) []string {
	quoted := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(id)
	var sels []string
	if cssIdentRe.MatchString(id) {
		sels = append(sels, "#"+id)
	}
	return append(sels,
		fmt.Sprintf("[id='%s']", quoted),
		fmt.Sprintf("[name='%s']", quoted),
		fmt.Sprintf("a[name='%s']", quoted),
	)
}

func extractFragment(id, body string) (string, error) {
	doc, err := parseHTML(body)
	if err != nil {
		return "", err
	}
	for _, s := range fragmentSelectors(id) {
		sel, err := cascadia.Compile(s)
		if err != nil {
			continue
		}
		if found := doc.FindMatcher(sel); found.Length() > 0 {
			return visibleText(found.First()), nil
		}
	}
	return "", nil
}
