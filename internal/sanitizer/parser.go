package sanitizer

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parser turns markup into a node forest and back. Implementations must be safe for
// concurrent use.
type Parser interface {
	Parse(raw string) ([]*html.Node, error)
	Render(nodes []*html.Node) (string, error)
}

// HTMLParser parses input as an HTML fragment in body context.
type HTMLParser struct{}

func (HTMLParser) Parse(raw string) ([]*html.Node, error) {
	// 每次调用新建上下文节点，避免并发调用共享可变状态
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	return html.ParseFragment(strings.NewReader(raw), context)
}

// Render serializes nodes in order. On error the markup written so far is returned
// together with the error.
func (HTMLParser) Render(nodes []*html.Node) (string, error) {
	var b strings.Builder
	for _, n := range nodes {
		if err := html.Render(&b, n); err != nil {
			return b.String(), err
		}
	}
	return b.String(), nil
}
