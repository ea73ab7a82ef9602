package httpsource

import (
	"testing"

	"citecheck/internal/content"
)

const page = `<!DOCTYPE html>
<html>
<head><title>Example Domain</title></head>
<body>
  <h1 id="intro">Introduction</h1>
  <p class="note">First note</p>
  <p class="note">Second note</p>
  <div id="2col">Numeric id</div>
  <a name="legacy">Legacy anchor</a>
  <span name="named">Named span</span>
  <p id="foo" class="bar">Wrong element</p>
  <p id="foo.bar">Dotted id</p>
  <p id="a\b">Backslash id</p>
  <p id="it's">Quoted id</p>
  <div id="scripted">Visible<script>var hidden = 1;</script><style>p { color: red; }</style></div>
</body>
</html>`

func TestExtract(t *testing.T) {
	tests := []struct {
		name  string
		match MatchExpression
		want  string
	}{
		{"regex capture group", Regex(`<title>(.*?)</title>`), "Example Domain"},
		{"regex whole match", Regex(`Second \w+`), "Second note"},
		{"regex no match", Regex(`absent`), ""},
		{"css title", CSSSelector("title"), "Example Domain"},
		{"css multiple", CSSSelector("p.note"), "First note\nSecond note"},
		{"css no match", CSSSelector("table"), ""},
		{"fragment by id", Fragment("intro"), "Introduction"},
		{"fragment numeric id", Fragment("2col"), "Numeric id"},
		{"fragment by name", Fragment("named"), "Named span"},
		{"fragment anchor name", Fragment("legacy"), "Legacy anchor"},
		{"fragment absent", Fragment("missing"), ""},
		{"fragment dotted id", Fragment("foo.bar"), "Dotted id"},
		{"fragment backslash id", Fragment(`a\b`), "Backslash id"},
		{"fragment quoted id", Fragment("it's"), "Quoted id"},
		{"fragment skips script", Fragment("scripted"), "Visible"},
		{"css skips script and style", CSSSelector("#scripted"), "Visible"},
		{"full document", FullDocument(), page},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.match.Extract(page)
			if err != nil {
				t.Fatalf("Extract failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtract_Errors(t *testing.T) {
	for _, m := range []MatchExpression{Regex(`(`), CSSSelector("p[["), XPath("//title")} {
		_, err := m.Extract(page)
		if err == nil {
			t.Errorf("%s: expected error", m)
			continue
		}
		if !content.IsKind(err, content.KindContentParsing) {
			t.Errorf("%s: expected parsing error, got %v", m, err)
		}
	}
}

func TestParseMatchExpression(t *testing.T) {
	for _, m := range []MatchExpression{Regex("a:b"), CSSSelector("div > p"), XPath("//a"), Fragment("x"), FullDocument()} {
		got, err := ParseMatchExpression(m.String())
		if err != nil {
			t.Fatalf("ParseMatchExpression(%q): %v", m.String(), err)
		}
		if got != m {
			t.Errorf("got %+v, want %+v", got, m)
		}
	}

	if _, err := ParseMatchExpression("jsonpath:$.a"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestParseURL(t *testing.T) {
	u, err := ParseURL("HTTPS://Example.COM/Docs/#Section-2")
	if err != nil {
		t.Fatal(err)
	}
	if u.Base != "https://example.com/docs" {
		t.Errorf("Base = %q", u.Base)
	}
	if u.Fetch != "HTTPS://Example.COM/Docs/" {
		t.Errorf("Fetch = %q", u.Fetch)
	}
	if u.Fragment != "Section-2" {
		t.Errorf("Fragment = %q", u.Fragment)
	}
	if u.Host != "example.com" {
		t.Errorf("Host = %q", u.Host)
	}

	for _, bad := range []string{"ftp://example.com/file", "file:///etc/passwd", "not a url", "https://"} {
		if _, err := ParseURL(bad); err == nil {
			t.Errorf("ParseURL(%q) should fail", bad)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"https://example.com/":    "https://example.com",
		"https://example.com/a//": "https://example.com/a/",
		"https://x/":              "https://x",
		"HTTP://EXAMPLE.com/Path": "http://example.com/path",
		"https://example.com":     "https://example.com",
		"https:///":               "https:///",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}
