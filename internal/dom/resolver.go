package dom

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrNotFound signals that a locator matched nothing in the current
// document. Resolution misses are expected (content may have been edited
// since detection) and callers skip-and-report rather than abort.
var ErrNotFound = errors.New("locator target not found")

// OccurrenceContext counts, per target string, how many content-locator
// bindings were already made during the current resolution pass. A fresh
// context must be created for every pass over a freshly parsed document:
// the counters are what tie the Nth annotation for a repeated string to the
// Nth textual occurrence, so resolution order has to replicate annotation
// sequence order.
type OccurrenceContext map[string]int

// NewOccurrenceContext returns empty counters for one resolution pass.
func NewOccurrenceContext() OccurrenceContext {
	return make(OccurrenceContext)
}

func (o OccurrenceContext) next(loc Locator) int {
	key := loc.Payload
	if loc.Kind == KindLinkText {
		// Anchor text lives in a different search space than raw text runs.
		key = "a\x00" + key
	}
	idx := o[key]
	o[key] = idx + 1
	return idx
}

// Resolver maps locators back onto one live document.
type Resolver struct {
	doc *Document
}

// NewResolver binds a resolver to a document.
func NewResolver(doc *Document) *Resolver {
	return &Resolver{doc: doc}
}

// Resolve returns the node a locator addresses. Structural resolution never
// mutates the tree. Content resolution splits the containing text node and
// returns the inserted wrapper span; this is the only mutating path.
func (r *Resolver) Resolve(loc Locator, occ OccurrenceContext) (*html.Node, error) {
	switch loc.Kind {
	case KindStructural:
		return r.resolveStructural(loc.Raw)
	case KindLinkText:
		return r.resolveLinkText(loc.Payload, occ.next(loc))
	case KindTextSelection, KindTextVariable:
		return r.resolveText(loc.Payload, occ.next(loc))
	}
	return nil, fmt.Errorf("unknown locator kind %d", loc.Kind)
}

func (r *Resolver) resolveStructural(raw string) (*html.Node, error) {
	switch {
	case strings.HasPrefix(raw, "#"):
		return r.byID(raw[1:])
	case strings.Contains(raw, `[name="`):
		return r.byName(raw)
	case strings.Contains(raw, "/") || looksLikePathSegment(raw):
		return r.byPath(raw)
	default:
		return r.byTagAndClasses(raw)
	}
}

func looksLikePathSegment(raw string) bool {
	open := strings.IndexByte(raw, '[')
	if open < 0 || !strings.HasSuffix(raw, "]") {
		return false
	}
	for _, ch := range raw[open+1 : len(raw)-1] {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}

func (r *Resolver) byID(id string) (*html.Node, error) {
	var found *html.Node
	r.doc.Walk(func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode {
			if v, ok := Attr(n, "id"); ok && v == id {
				found = n
				return false
			}
		}
		return true
	})
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func (r *Resolver) byName(raw string) (*html.Node, error) {
	open := strings.Index(raw, `[name="`)
	if open < 0 || !strings.HasSuffix(raw, `"]`) {
		return nil, fmt.Errorf("malformed name selector %q: %w", raw, ErrNotFound)
	}
	tag := raw[:open]
	name := unescapeQuotes(raw[open+len(`[name="`) : len(raw)-len(`"]`)])

	var found *html.Node
	r.doc.Walk(func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode && n.Data == tag {
			if v, ok := Attr(n, "name"); ok && v == name {
				found = n
				return false
			}
		}
		return true
	})
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func (r *Resolver) byTagAndClasses(raw string) (*html.Node, error) {
	parts := strings.Split(raw, ".")
	tag := parts[0]
	wanted := parts[1:]

	var found *html.Node
	r.doc.Walk(func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type != html.ElementNode || n.Data != tag {
			return true
		}
		if hasAllClasses(n, wanted) {
			found = n
			return false
		}
		return true
	})
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func hasAllClasses(n *html.Node, wanted []string) bool {
	have := Classes(n)
	for _, w := range wanted {
		ok := false
		for _, h := range have {
			if h == w {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func (r *Resolver) byPath(raw string) (*html.Node, error) {
	cur := r.doc.Root()
	for _, seg := range strings.Split(raw, "/") {
		tag, idx, err := parsePathSegment(seg)
		if err != nil {
			return nil, err
		}
		child := elementChildAt(cur, idx)
		if child == nil || child.Data != tag {
			return nil, ErrNotFound
		}
		cur = child
	}
	return cur, nil
}

func parsePathSegment(seg string) (string, int, error) {
	open := strings.IndexByte(seg, '[')
	if open < 0 || !strings.HasSuffix(seg, "]") {
		return "", 0, fmt.Errorf("malformed path segment %q: %w", seg, ErrNotFound)
	}
	tag := seg[:open]
	idx := 0
	for _, ch := range seg[open+1 : len(seg)-1] {
		if ch < '0' || ch > '9' {
			return "", 0, fmt.Errorf("malformed path segment %q: %w", seg, ErrNotFound)
		}
		idx = idx*10 + int(ch-'0')
	}
	return tag, idx, nil
}

func elementChildAt(n *html.Node, idx int) *html.Node {
	i := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if i == idx {
			return c
		}
		i++
	}
	return nil
}

func (r *Resolver) resolveLinkText(text string, idx int) (*html.Node, error) {
	seen := 0
	var found *html.Node
	r.doc.Walk(func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode && n.Data == "a" {
			if InnerText(n) == text {
				if seen == idx {
					found = n
					return false
				}
				seen++
			}
		}
		return true
	})
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

// resolveText binds the idx-th occurrence of target across the document's
// text runs, splitting the containing text node into before / wrapped match
// / after. Earlier splits of the same pass leave their match text inside the
// wrapper span, so rescans still count them and later indexes stay aligned.
func (r *Resolver) resolveText(target string, idx int) (*html.Node, error) {
	if target == "" {
		return nil, ErrNotFound
	}
	seen := 0
	var found *html.Node
	r.doc.Walk(func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if rawTextElement(n) {
			return false
		}
		if n.Type != html.TextNode {
			return true
		}
		count := len(occurrenceOffsets(n.Data, target))
		if seen+count <= idx {
			seen += count
			return true
		}
		segments, ok := SegmentText(n.Data, target, idx-seen)
		if !ok {
			seen += count
			return true
		}
		found = replaceWithSegments(n, segments)
		return false
	})
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

// replaceWithSegments rewrites one text node into text runs plus a wrapper
// span around the matched segment, and returns that span.
func replaceWithSegments(n *html.Node, segments []Segment) *html.Node {
	parent := n.Parent
	var span *html.Node
	for _, seg := range segments {
		text := &html.Node{Type: html.TextNode, Data: seg.Text}
		if !seg.Match {
			parent.InsertBefore(text, n)
			continue
		}
		span = &html.Node{Type: html.ElementNode, Data: "span", DataAtom: atom.Span}
		span.AppendChild(text)
		parent.InsertBefore(span, n)
	}
	parent.RemoveChild(n)
	return span
}
