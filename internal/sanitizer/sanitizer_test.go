package sanitizer

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const linkAttrs = `rel="nofollow noopener noreferrer" target="_blank"`

func TestSanitize_Vectors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "hello", "hello"},
		{"empty", "", ""},
		{"javascript href dropped", `<a href="javascript:alert(1)">x</a>`, `<a ` + linkAttrs + `>x</a>`},
		{"https href kept", `<a href="https://example.com">x</a>`, `<a href="https://example.com" ` + linkAttrs + `>x</a>`},
		{"http href kept", `<a href="http://example.com">x</a>`, `<a href="http://example.com" ` + linkAttrs + `>x</a>`},
		{"mailto href kept", `<a href="mailto:me@example.com">x</a>`, `<a href="mailto:me@example.com" ` + linkAttrs + `>x</a>`},
		{"scheme case ignored", `<a href="HTTPS://EXAMPLE.COM">x</a>`, `<a href="HTTPS://EXAMPLE.COM" ` + linkAttrs + `>x</a>`},
		{"leading space rejected", `<a href=" https://example.com">x</a>`, `<a ` + linkAttrs + `>x</a>`},
		{"ftp rejected", `<a href="ftp://example.com">x</a>`, `<a ` + linkAttrs + `>x</a>`},
		{"data rejected", `<a href="data:text/html,hi">x</a>`, `<a ` + linkAttrs + `>x</a>`},
		{"relative rejected", `<a href="/local">x</a>`, `<a ` + linkAttrs + `>x</a>`},
		{"anchor without href", `<a>x</a>`, `<a ` + linkAttrs + `>x</a>`},
		{
			"rel and target overwritten",
			`<a href="https://e.com" title="t" rel="opener" target="_self" onclick="evil()">x</a>`,
			`<a href="https://e.com" title="t" ` + linkAttrs + `>x</a>`,
		},
		{"href entities", `<a href="https://e.com/?a=1&amp;b=2">x</a>`, `<a href="https://e.com/?a=1&amp;b=2" ` + linkAttrs + `>x</a>`},
		{"unwrap not delete", `<div>hello <b>world</b></div>`, `hello world`},
		{"deep unwrap", `<div><p><span><strong>deep</strong></span></p></div>`, `<strong>deep</strong>`},
		{"attributes stripped", `<STRONG onclick="x()" class="c">bold</STRONG>`, `<strong>bold</strong>`},
		{"all four tags", `<i class="x">a</i><code style="color:red">b</code>`, `<i>a</i><code>b</code>`},
		{"script becomes inert text", `<script>alert(1)</script>`, `alert(1)`},
		{"style becomes inert text", `<style>p{}</style>ok`, `p{}ok`},
		{"img removed", `<img src=x onerror=alert(1)>`, ``},
		{"comment removed", `a<!-- hidden -->b`, `ab`},
		{"text escaped", `1 < 2 & 3`, `1 &lt; 2 &amp; 3`},
		{"svg anchor unwrapped", `<svg><a href="https://e.com">y</a></svg>`, `y`},
		{"unclosed tag closed", `<i>unclosed`, `<i>unclosed</i>`},
		{"nested anchors flattened", `<a href="https://a.com">1<table><tr><td><a href="https://b.com">2</a></td></tr></table></a>`, `<a href="https://a.com" ` + linkAttrs + `>12</a>`},
		{"allowed inside disallowed", `<p>see <i>this</i> and <a href="https://e.com">that</a></p>`, `see <i>this</i> and <a href="https://e.com" ` + linkAttrs + `>that</a>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestSanitize_TitleTruncation(t *testing.T) {
	title := strings.Repeat("abcdefghij", 30)
	out := Sanitize(`<a href="https://e.com" title="` + title + `">x</a>`)

	attrs := anchorAttrs(t, out)
	require.Len(t, attrs, 1)
	assert.Equal(t, title[:255], attrs[0]["title"])
	assert.Equal(t, "https://e.com", attrs[0]["href"])
}

func TestSanitize_TitleTruncationCountsCharacters(t *testing.T) {
	title := strings.Repeat("ж", 300)
	out := Sanitize(`<a title="` + title + `">x</a>`)

	attrs := anchorAttrs(t, out)
	require.Len(t, attrs, 1)
	assert.Equal(t, strings.Repeat("ж", 255), attrs[0]["title"])
}

func TestSanitize_ShortTitleUntouched(t *testing.T) {
	out := Sanitize(`<a title="say &#34;hi&#34;">x</a>`)

	attrs := anchorAttrs(t, out)
	require.Len(t, attrs, 1)
	assert.Equal(t, `say "hi"`, attrs[0]["title"])
}

var corpus = []string{
	"",
	"plain",
	`<a href="javascript:alert(1)">x</a>`,
	`<a href="https://example.com" title="t" onclick="x">x</a>`,
	`<div>hello <b>world</b></div>`,
	`<script>document.cookie</script><i>ok</i>`,
	`<strong><i>x</strong>y</i>`,
	`<i><p>para</p></i>`,
	`<table><strong>fostered</strong><tr><td>cell</td></tr></table>`,
	`<a href="https://a.com">1<table><td><a href="https://b.com">2</a></td></table></a>`,
	`<code>&lt;b&gt;</code>`,
	`<textarea><i>raw</i></textarea>`,
	`<noscript><a href="https://e.com">n</a></noscript>`,
	`<select><option>o</option></select>`,
	`<pre>` + "\n\nlead" + `</pre>`,
	`<math><mi>x</mi></math><svg><title>t</title></svg>`,
	`<a href="mailto:x@y.z" title="` + strings.Repeat("t", 400) + `">m</a>`,
	`<<a>>`,
	`<a href='https://x.com/"><script>alert(1)</script>'>q</a>`,
	`<iframe src="https://evil"></iframe><object><a href="https://e.com">o</a></object>`,
	"line\r\nbreak\rcr",
	"<template><a>t</a></template>",
	`<plaintext><b>rest`,
	"\x00null",
}

func TestSanitize_Idempotent(t *testing.T) {
	for _, in := range corpus {
		once := Sanitize(in)
		assert.Equal(t, once, Sanitize(once), "input %q", in)
	}
}

func TestSanitize_AllowlistClosure(t *testing.T) {
	allowed := map[string]map[string]bool{
		"a":      {"href": true, "title": true, "rel": true, "target": true},
		"code":   {},
		"i":      {},
		"strong": {},
	}

	for _, in := range corpus {
		out := Sanitize(in)
		nodes, err := html.ParseFragment(strings.NewReader(out), bodyContext())
		require.NoError(t, err)
		for _, n := range nodes {
			walk(n, func(n *html.Node) {
				switch n.Type {
				case html.ElementNode:
					attrs, ok := allowed[n.Data]
					require.True(t, ok, "tag %q survived in %q", n.Data, out)
					for _, a := range n.Attr {
						assert.True(t, attrs[a.Key], "attr %q on %q survived in %q", a.Key, n.Data, out)
					}
					if n.Data == "a" {
						for _, a := range n.Attr {
							if a.Key == "href" {
								assert.True(t, SafeLink(a.Val), "unsafe href %q", a.Val)
							}
						}
					}
				case html.CommentNode, html.DoctypeNode:
					t.Errorf("non-content node in %q", out)
				}
			})
		}
	}
}

func TestSanitize_ConcurrentUse(t *testing.T) {
	s := New()
	done := make(chan string, 16)
	for i := 0; i < cap(done); i++ {
		go func() {
			done <- s.Sanitize(`<div><a href="https://e.com" onclick="x">go</a></div>`)
		}()
	}
	for i := 0; i < cap(done); i++ {
		assert.Equal(t, `<a href="https://e.com" `+linkAttrs+`>go</a>`, <-done)
	}
}

func TestSanitizer_CustomPolicy(t *testing.T) {
	strict := New(WithPolicy(NewPolicy().AllowElements("i")))
	assert.Equal(t, `x<i>y</i>`, strict.Sanitize(`<a href="https://e.com">x</a><i>y</i>`))

	loose := New(WithPolicy(DefaultPolicy().AllowAttrs("code", "class")))
	assert.Equal(t, `<code class="go">f()</code>`, loose.Sanitize(`<code class="go" id="c">f()</code>`))

	noLinks := New(WithPolicy(DefaultPolicy().RequireLinks(nil).LimitTitle(3).LinkAttrs("nofollow", "")))
	assert.Equal(t, `<a title="abc" rel="nofollow">x</a>`, noLinks.Sanitize(`<a href="https://e.com" title="abcdef">x</a>`))
}

type failingParser struct {
	HTMLParser
}

func (failingParser) Parse(string) ([]*html.Node, error) {
	return nil, errors.New("boom")
}

func TestSanitizer_ParserFailureDegradesToText(t *testing.T) {
	s := New(WithParser(failingParser{}))

	var out string
	assert.NotPanics(t, func() {
		out = s.Sanitize(`<script>alert(1)</script>`)
	})
	assert.Equal(t, `&lt;script&gt;alert(1)&lt;/script&gt;`, out)
}

func TestSafeLink(t *testing.T) {
	assert.True(t, SafeLink("http://x"))
	assert.True(t, SafeLink("hTTpS://x"))
	assert.True(t, SafeLink("MAILTO:a@b"))
	assert.False(t, SafeLink("https:/x"))
	assert.False(t, SafeLink("javascript:alert(1)"))
	assert.False(t, SafeLink("\thttps://x"))
	assert.False(t, SafeLink(""))
}

func bodyContext() *html.Node {
	return &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func anchorAttrs(t *testing.T, markup string) []map[string]string {
	t.Helper()
	nodes, err := html.ParseFragment(strings.NewReader(markup), bodyContext())
	require.NoError(t, err)

	var out []map[string]string
	for _, n := range nodes {
		walk(n, func(n *html.Node) {
			if n.Type == html.ElementNode && n.Data == "a" {
				attrs := make(map[string]string, len(n.Attr))
				for _, a := range n.Attr {
					attrs[a.Key] = a.Val
				}
				out = append(out, attrs)
			}
		})
	}
	return out
}
