package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func findByTag(t *testing.T, doc *Document, tag string) *html.Node {
	t.Helper()
	n := doc.findElement(tag)
	require.NotNil(t, n, "element %s not found", tag)
	return n
}

func TestParseLocatorContentForms(t *testing.T) {
	loc, err := ParseLocator(`:textselection("hello world")`)
	require.NoError(t, err)
	assert.Equal(t, KindTextSelection, loc.Kind)
	assert.Equal(t, "hello world", loc.Payload)
	assert.True(t, loc.IsContent())

	loc, err = ParseLocator(`:textvariable("[[first_name]]")`)
	require.NoError(t, err)
	assert.Equal(t, KindTextVariable, loc.Kind)
	assert.Equal(t, "[[first_name]]", loc.Payload)

	loc, err = ParseLocator(`:linktext("Contact")`)
	require.NoError(t, err)
	assert.Equal(t, KindLinkText, loc.Kind)
	assert.Equal(t, "Contact", loc.Payload)
}

func TestParseLocatorStructuralFallthrough(t *testing.T) {
	for _, raw := range []string{"#header", "div.btn.primary", `input[name="email"]`, "html[0]/body[1]/div[2]"} {
		loc, err := ParseLocator(raw)
		require.NoError(t, err)
		assert.Equal(t, KindStructural, loc.Kind)
		assert.Equal(t, raw, loc.Raw)
		assert.False(t, loc.IsContent())
	}
}

func TestParseLocatorRejectsEmptyAndMalformed(t *testing.T) {
	_, err := ParseLocator("")
	assert.Error(t, err)

	_, err = ParseLocator(`:textselection("unterminated`)
	assert.Error(t, err)
}

func TestContentLocatorQuoteEscaping(t *testing.T) {
	raw := TextSelectionLocator(`say "hi" now`)
	loc, err := ParseLocator(raw)
	require.NoError(t, err)
	assert.Equal(t, `say "hi" now`, loc.Payload)
}

func TestGeneratorPrefersUniqueID(t *testing.T) {
	doc, err := Parse(`<html><body><div id="header" class="wide">x</div></body></html>`)
	require.NoError(t, err)
	gen := NewGenerator(doc)

	div := findByTag(t, doc, "div")
	assert.Equal(t, "#header", gen.Element(div))
}

func TestGeneratorSkipsDuplicateID(t *testing.T) {
	doc, err := Parse(`<html><body><div id="dup" class="a">x</div><span id="dup">y</span></body></html>`)
	require.NoError(t, err)
	gen := NewGenerator(doc)

	div := findByTag(t, doc, "div")
	assert.Equal(t, "div.a", gen.Element(div))
}

func TestGeneratorClassAndNameForms(t *testing.T) {
	doc, err := Parse(`<html><body><a class="btn primary">x</a><input name="email"></body></html>`)
	require.NoError(t, err)
	gen := NewGenerator(doc)

	assert.Equal(t, "a.btn.primary", gen.Element(findByTag(t, doc, "a")))
	assert.Equal(t, `input[name="email"]`, gen.Element(findByTag(t, doc, "input")))
}

func TestGeneratorPositionalPathFallback(t *testing.T) {
	doc, err := Parse(`<html><body><p>one</p><p>two</p></body></html>`)
	require.NoError(t, err)
	gen := NewGenerator(doc)

	var second *html.Node
	doc.Walk(func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "p" {
			second = n
		}
		return true
	})
	require.NotNil(t, second)

	locator := gen.Element(second)
	assert.Equal(t, "html[0]/body[1]/p[1]", locator)

	// Round trip: the generated path resolves back to the same node.
	resolver := NewResolver(doc)
	loc, err := ParseLocator(locator)
	require.NoError(t, err)
	node, err := resolver.Resolve(loc, NewOccurrenceContext())
	require.NoError(t, err)
	assert.Same(t, second, node)
}
