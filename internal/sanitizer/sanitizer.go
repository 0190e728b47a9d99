// Package sanitizer rewrites untrusted comment markup into a small approved vocabulary.
//
// The input is parsed into a node tree, and a new tree is rebuilt from it: elements the
// policy does not know are unwrapped (their filtered children take their place),
// approved elements lose every attribute outside their allowlist, and anchors get a
// checked href, a bounded title and forced rel/target attributes. Comments, doctypes
// and foreign (SVG, MathML) elements never survive.
//
// Sanitize never fails. Output re-sanitizes to itself.
package sanitizer

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Sanitizer is safe for concurrent use.
type Sanitizer struct {
	policy *Policy
	parser Parser
}

type Option func(*Sanitizer)

func WithPolicy(p *Policy) Option {
	return func(s *Sanitizer) {
		if p != nil {
			s.policy = p
		}
	}
}

func WithParser(p Parser) Option {
	return func(s *Sanitizer) {
		if p != nil {
			s.parser = p
		}
	}
}

func New(opts ...Option) *Sanitizer {
	s := &Sanitizer{policy: DefaultPolicy(), parser: HTMLParser{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var std = New()

// Sanitize filters raw with the default policy.
func Sanitize(raw string) string {
	return std.Sanitize(raw)
}

func (s *Sanitizer) Sanitize(raw string) string {
	nodes, err := s.parser.Parse(raw)
	if err != nil && len(nodes) == 0 {
		// 解析失败时整体按纯文本处理
		nodes = []*html.Node{{Type: html.TextNode, Data: raw}}
	}

	out := make([]*html.Node, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, s.rebuild(n, false)...)
	}

	markup, _ := s.parser.Render(out)
	return markup
}

// rebuild returns the filtered replacement for n as detached nodes. inLink is set
// while an emitted anchor is open above n.
func (s *Sanitizer) rebuild(n *html.Node, inLink bool) []*html.Node {
	switch n.Type {
	case html.TextNode:
		return []*html.Node{{Type: html.TextNode, Data: n.Data}}
	case html.ElementNode:
		// handled below
	default:
		return nil
	}

	allowedAttrs, ok := s.policy.attrsFor(n.Data)
	anchor := isAnchor(n)
	// 嵌套的 a 会被解析器拆开，提前展开才能保证结果可重复清洗
	if n.Namespace != "" || (anchor && inLink) {
		ok = false
	}

	var children []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		children = append(children, s.rebuild(c, inLink || (ok && anchor))...)
	}
	if !ok {
		return children
	}

	el := &html.Node{
		Type:     html.ElementNode,
		Data:     strings.ToLower(n.Data),
		DataAtom: n.DataAtom,
		Attr:     filterAttrs(n.Attr, allowedAttrs),
	}
	if anchor {
		el.Attr = s.rewriteLink(el.Attr)
	}
	for _, c := range children {
		el.AppendChild(c)
	}
	return []*html.Node{el}
}

func isAnchor(n *html.Node) bool {
	return n.DataAtom == atom.A || strings.EqualFold(n.Data, "a")
}

func filterAttrs(attrs []html.Attribute, allowed map[string]struct{}) []html.Attribute {
	out := make([]html.Attribute, 0, len(attrs))
	for _, a := range attrs {
		if a.Namespace != "" {
			continue
		}
		key := strings.ToLower(a.Key)
		if _, ok := allowed[key]; ok {
			out = append(out, html.Attribute{Key: key, Val: a.Val})
		}
	}
	return out
}

func (s *Sanitizer) rewriteLink(attrs []html.Attribute) []html.Attribute {
	p := s.policy
	out := make([]html.Attribute, 0, len(attrs)+2)
	for _, a := range attrs {
		switch a.Key {
		case "href":
			if !p.safeLink(a.Val) {
				continue
			}
		case "title":
			a.Val = truncate(a.Val, p.titleLimit)
		case "rel", "target":
			// overwritten below
			continue
		}
		out = append(out, a)
	}
	if p.linkRel != "" {
		out = append(out, html.Attribute{Key: "rel", Val: p.linkRel})
	}
	if p.linkTarget != "" {
		out = append(out, html.Attribute{Key: "target", Val: p.linkTarget})
	}
	return out
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
