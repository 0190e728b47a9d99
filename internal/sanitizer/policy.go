package sanitizer

import (
	"regexp"
	"strings"
)

const (
	// DefaultTitleLimit is the longest anchor title kept, in characters.
	DefaultTitleLimit = 255
	DefaultLinkRel    = "nofollow noopener noreferrer"
	DefaultLinkTarget = "_blank"
)

var safeLinkPattern = regexp.MustCompile(`(?i)^(https?://|mailto:)`)

// SafeLink accepts hrefs that start with http://, https:// or mailto:, ignoring case.
// Leading whitespace is not trimmed.
func SafeLink(href string) bool {
	return safeLinkPattern.MatchString(href)
}

// Policy describes which elements and attributes survive sanitization and how anchors
// are rewritten. Build it once and share it; it must not be changed after first use.
type Policy struct {
	elements   map[string]map[string]struct{}
	safeLink   func(href string) bool
	titleLimit int
	linkRel    string
	linkTarget string
}

// NewPolicy returns an empty policy: every element is unwrapped and anchors get the
// default rel/target and link check.
func NewPolicy() *Policy {
	return &Policy{
		elements:   make(map[string]map[string]struct{}),
		safeLink:   SafeLink,
		titleLimit: DefaultTitleLimit,
		linkRel:    DefaultLinkRel,
		linkTarget: DefaultLinkTarget,
	}
}

// DefaultPolicy allows a, code, i and strong; only a keeps href and title.
func DefaultPolicy() *Policy {
	return NewPolicy().
		AllowElements("a", "code", "i", "strong").
		AllowAttrs("a", "href", "title")
}

// AllowElements permits the named tags without attributes.
func (p *Policy) AllowElements(names ...string) *Policy {
	for _, name := range names {
		key := strings.ToLower(name)
		if _, ok := p.elements[key]; !ok {
			p.elements[key] = make(map[string]struct{})
		}
	}
	return p
}

// AllowAttrs permits attrs on element, allowing the element too.
func (p *Policy) AllowAttrs(element string, attrs ...string) *Policy {
	p.AllowElements(element)
	set := p.elements[strings.ToLower(element)]
	for _, attr := range attrs {
		set[strings.ToLower(attr)] = struct{}{}
	}
	return p
}

// RequireLinks replaces the href predicate. A nil fn rejects every href.
func (p *Policy) RequireLinks(fn func(href string) bool) *Policy {
	if fn == nil {
		fn = func(string) bool { return false }
	}
	p.safeLink = fn
	return p
}

// LimitTitle sets the anchor title limit; n <= 0 disables truncation.
func (p *Policy) LimitTitle(n int) *Policy {
	p.titleLimit = n
	return p
}

// LinkAttrs sets the rel and target forced onto every anchor.
func (p *Policy) LinkAttrs(rel, target string) *Policy {
	p.linkRel = rel
	p.linkTarget = target
	return p
}

func (p *Policy) attrsFor(tag string) (map[string]struct{}, bool) {
	attrs, ok := p.elements[strings.ToLower(tag)]
	return attrs, ok
}
