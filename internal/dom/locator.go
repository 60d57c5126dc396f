package dom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// LocatorKind discriminates the locator grammar forms.
type LocatorKind int

const (
	// KindStructural addresses an element by id, class list, name attribute
	// or positional path.
	KindStructural LocatorKind = iota
	// KindTextSelection addresses a literal run of text picked by the user.
	KindTextSelection
	// KindTextVariable addresses a detected placeholder by its literal text.
	KindTextVariable
	// KindLinkText addresses an anchor by its visible text.
	KindLinkText
)

const (
	prefixTextSelection = `:textselection("`
	prefixTextVariable  = `:textvariable("`
	prefixLinkText      = `:linktext("`
	contentSuffix       = `")`
)

// Locator is a parsed locator string. For content kinds Payload holds the
// unescaped target text; for structural locators Raw is authoritative.
type Locator struct {
	Kind    LocatorKind
	Raw     string
	Payload string
}

// IsContent reports whether resolution scans document content rather than
// structure. Content locators carry no occurrence index: disambiguation
// happens at resolve time via the pass-scoped occurrence counters.
func (l Locator) IsContent() bool {
	return l.Kind != KindStructural
}

// String returns the serialized locator.
func (l Locator) String() string {
	return l.Raw
}

// ParseLocator classifies a locator string per the stable grammar: #id,
// tag.class..., tag[name="..."], positional path, or one of the quoted
// content forms.
func ParseLocator(raw string) (Locator, error) {
	if raw == "" {
		return Locator{}, fmt.Errorf("empty locator")
	}
	for _, form := range []struct {
		prefix string
		kind   LocatorKind
	}{
		{prefixTextSelection, KindTextSelection},
		{prefixTextVariable, KindTextVariable},
		{prefixLinkText, KindLinkText},
	} {
		if strings.HasPrefix(raw, form.prefix) {
			if !strings.HasSuffix(raw, contentSuffix) {
				return Locator{}, fmt.Errorf("malformed content locator %q", raw)
			}
			payload := raw[len(form.prefix) : len(raw)-len(contentSuffix)]
			return Locator{Kind: form.kind, Raw: raw, Payload: unescapeQuotes(payload)}, nil
		}
	}
	return Locator{Kind: KindStructural, Raw: raw}, nil
}

// TextSelectionLocator serializes a user text selection.
func TextSelectionLocator(text string) string {
	return prefixTextSelection + escapeQuotes(text) + contentSuffix
}

// TextVariableLocator serializes a detected placeholder.
func TextVariableLocator(text string) string {
	return prefixTextVariable + escapeQuotes(text) + contentSuffix
}

// LinkTextLocator serializes an anchor addressed by its visible text.
func LinkTextLocator(text string) string {
	return prefixLinkText + escapeQuotes(text) + contentSuffix
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

func unescapeQuotes(s string) string {
	return strings.ReplaceAll(s, `\"`, `"`)
}

// Generator produces structural locators for elements of one document.
// Deterministic: the same element of unchanged content always yields the
// same locator.
type Generator struct {
	doc *Document
}

// NewGenerator binds a generator to a document.
func NewGenerator(doc *Document) *Generator {
	return &Generator{doc: doc}
}

// Element builds the most specific stable locator available: a unique #id,
// else tag plus class list, else tag plus name attribute, else the absolute
// positional path. The path fallback never fails for attached nodes.
func (g *Generator) Element(n *html.Node) string {
	if id, ok := Attr(n, "id"); ok && id != "" && g.idUnique(id) {
		return "#" + id
	}

	if classes := Classes(n); len(classes) > 0 {
		return n.Data + "." + strings.Join(classes, ".")
	}

	if name, ok := Attr(n, "name"); ok && name != "" {
		return fmt.Sprintf(`%s[name="%s"]`, n.Data, escapeQuotes(name))
	}

	return structuralPath(n)
}

func (g *Generator) idUnique(id string) bool {
	count := 0
	g.doc.Walk(func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			if v, ok := Attr(n, "id"); ok && v == id {
				count++
			}
		}
		return count < 2
	})
	return count == 1
}

// structuralPath encodes the absolute position of an element: slash-joined
// tag[i] segments where i indexes the parent's element children.
func structuralPath(n *html.Node) string {
	var segments []string
	for cur := n; cur != nil && cur.Type == html.ElementNode; cur = cur.Parent {
		idx := 0
		for sib := cur.Parent.FirstChild; sib != cur; sib = sib.NextSibling {
			if sib.Type == html.ElementNode {
				idx++
			}
		}
		segments = append(segments, fmt.Sprintf("%s[%d]", cur.Data, idx))
	}
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return strings.Join(segments, "/")
}
