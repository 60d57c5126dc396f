package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document wraps a parsed HTML tree. The tree is disposable: every render
// pass reparses the stored source, so mutations made while resolving content
// locators never leak across passes.
type Document struct {
	root *html.Node
}

// Parse builds a Document from raw HTML source.
func Parse(source string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return nil, err
	}
	return &Document{root: root}, nil
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// Render serializes the tree back to HTML.
func (d *Document) Render() (string, error) {
	var sb strings.Builder
	if err := html.Render(&sb, d.root); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Walk visits every node depth-first in document order. Returning false from
// fn stops descent into that node's children but continues with siblings.
func (d *Document) Walk(fn func(*html.Node) bool) {
	walk(d.root, fn)
}

func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// Head returns the head element, creating it under html when missing.
func (d *Document) Head() *html.Node {
	var head *html.Node
	d.Walk(func(n *html.Node) bool {
		if head != nil {
			return false
		}
		if n.Type == html.ElementNode && n.Data == "head" {
			head = n
			return false
		}
		return true
	})
	if head != nil {
		return head
	}

	// html.Parse normally synthesizes head; guard for fragment-ish input.
	head = &html.Node{Type: html.ElementNode, Data: "head", DataAtom: atom.Head}
	if htmlEl := d.findElement("html"); htmlEl != nil {
		htmlEl.InsertBefore(head, htmlEl.FirstChild)
	} else {
		d.root.InsertBefore(head, d.root.FirstChild)
	}
	return head
}

func (d *Document) findElement(tag string) *html.Node {
	var found *html.Node
	d.Walk(func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode && n.Data == tag {
			found = n
			return false
		}
		return true
	})
	return found
}

// Attr returns the value of the named attribute.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or replaces an attribute.
func SetAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// AddClass appends a class to the element's class list, preserving existing
// classes.
func AddClass(n *html.Node, class string) {
	existing, _ := Attr(n, "class")
	for _, c := range strings.Fields(existing) {
		if c == class {
			return
		}
	}
	if existing == "" {
		SetAttr(n, "class", class)
		return
	}
	SetAttr(n, "class", existing+" "+class)
}

// AppendStyle appends a CSS declaration to the element's inline style.
func AppendStyle(n *html.Node, declaration string) {
	existing, _ := Attr(n, "style")
	if existing == "" {
		SetAttr(n, "style", declaration)
		return
	}
	if !strings.HasSuffix(strings.TrimSpace(existing), ";") {
		existing += ";"
	}
	SetAttr(n, "style", existing+" "+declaration)
}

// Classes returns the element's class list.
func Classes(n *html.Node) []string {
	raw, _ := Attr(n, "class")
	return strings.Fields(raw)
}

// InnerText concatenates all descendant text, trimmed.
func InnerText(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		return true
	})
	return strings.TrimSpace(sb.String())
}

// rawTextElement reports whether text inside this element is code or markup
// payload rather than rendered copy; the detector and resolver skip it.
func rawTextElement(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	switch n.Data {
	case "script", "style", "noscript":
		return true
	}
	return false
}
