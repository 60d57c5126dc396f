package dom

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/annoforge/annotator-api/internal/models"
)

// Default placeholder patterns. Bracket-style delimiters classify as
// bracketVariable, hash-style as hashVariable.
var (
	defaultBracketPatterns = []string{`\[\[([^\[\]]+)\]\]`, `\{\{([^{}]+)\}\}`}
	defaultHashPatterns    = []string{`##([^#]+)##`}
)

// DetectorConfig overrides the placeholder regular expressions. A single
// capture group, when present, names the variable.
type DetectorConfig struct {
	BracketPatterns []string
	HashPatterns    []string
}

// Detector scans a template and produces the initial annotation list:
// form fields, hyperlinks and template variables in document order, each
// carrying a freshly generated locator. IDs are left unset; the store
// assigns them on insert.
type Detector struct {
	brackets []*regexp.Regexp
	hashes   []*regexp.Regexp
}

// NewDetector compiles the configured (or default) placeholder patterns.
func NewDetector(cfg DetectorConfig) (*Detector, error) {
	brackets := cfg.BracketPatterns
	if len(brackets) == 0 {
		brackets = defaultBracketPatterns
	}
	hashes := cfg.HashPatterns
	if len(hashes) == 0 {
		hashes = defaultHashPatterns
	}

	d := &Detector{}
	for _, p := range brackets {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile bracket pattern %q: %w", p, err)
		}
		d.brackets = append(d.brackets, re)
	}
	for _, p := range hashes {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile hash pattern %q: %w", p, err)
		}
		d.hashes = append(d.hashes, re)
	}
	return d, nil
}

// Detect parses the source once and walks it in document order. Repeated
// runs over identical input yield an identical sequence; that ordering later
// drives occurrence-counter disambiguation, so it must stay stable.
func (d *Detector) Detect(source string) ([]models.Annotation, error) {
	doc, err := Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	gen := NewGenerator(doc)

	var annotations []models.Annotation
	doc.Walk(func(n *html.Node) bool {
		if rawTextElement(n) {
			return false
		}
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "input", "textarea", "select", "button":
				if a, ok := d.formField(gen, n); ok {
					annotations = append(annotations, a)
				}
			case "a":
				if a, ok := d.hyperlink(gen, n); ok {
					annotations = append(annotations, a)
				}
			}
		case html.TextNode:
			annotations = append(annotations, d.variables(n.Data)...)
		}
		return true
	})
	return annotations, nil
}

func (d *Detector) formField(gen *Generator, n *html.Node) (models.Annotation, bool) {
	elementType := n.Data
	if n.Data == "input" {
		inputType, _ := Attr(n, "type")
		if inputType == "" {
			inputType = "text"
		}
		if inputType == "hidden" {
			return models.Annotation{}, false
		}
		elementType = strings.ToLower(inputType)
	}

	name, _ := Attr(n, "name")
	locator := gen.Element(n)
	return models.Annotation{
		Type:        models.TypeFormField,
		ElementType: elementType,
		Locator:     &locator,
		Label:       fieldLabel(n, name),
		Name:        name,
	}, true
}

func fieldLabel(n *html.Node, name string) string {
	subject := name
	if subject == "" {
		subject, _ = Attr(n, "id")
	}
	if subject == "" {
		subject, _ = Attr(n, "placeholder")
	}
	if subject == "" {
		subject = "unnamed"
	}

	switch n.Data {
	case "select":
		count := 0
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == "option" {
				count++
			}
		}
		if count > 0 {
			return fmt.Sprintf("select: %s (%d options)", subject, count)
		}
		return "select: " + subject
	case "button":
		if text := InnerText(n); text != "" {
			return "button: " + text
		}
		return "button: " + subject
	default:
		return n.Data + ": " + subject
	}
}

func (d *Detector) hyperlink(gen *Generator, n *html.Node) (models.Annotation, bool) {
	href, ok := Attr(n, "href")
	if !ok || href == "" || strings.HasPrefix(href, "#") {
		return models.Annotation{}, false
	}

	text := InnerText(n)
	label := text
	if label == "" {
		label = href
		if runes := []rune(label); len(runes) > 50 {
			label = string(runes[:50])
		}
	}

	locator := d.linkLocator(gen, n, text)
	return models.Annotation{
		Type:        models.TypeHyperlink,
		ElementType: "a",
		Locator:     &locator,
		Label:       label,
		URL:         href,
	}, true
}

// linkLocator prefers structure when the anchor has any; anchors identified
// only by their visible text get a content locator so repeated links stay
// disambiguated by occurrence order.
func (d *Detector) linkLocator(gen *Generator, n *html.Node, text string) string {
	if id, ok := Attr(n, "id"); ok && id != "" {
		return gen.Element(n)
	}
	if len(Classes(n)) > 0 {
		return gen.Element(n)
	}
	if text != "" {
		return LinkTextLocator(text)
	}
	return gen.Element(n)
}

type variableMatch struct {
	start       int
	text        string
	name        string
	elementType string
}

func (d *Detector) variables(text string) []models.Annotation {
	var matches []variableMatch
	collect := func(res []*regexp.Regexp, elementType string) {
		for _, re := range res {
			for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
				match := variableMatch{start: m[0], text: text[m[0]:m[1]], elementType: elementType}
				if len(m) >= 4 && m[2] >= 0 {
					match.name = strings.TrimSpace(text[m[2]:m[3]])
				} else {
					match.name = strings.TrimSpace(match.text)
				}
				matches = append(matches, match)
			}
		}
	}
	collect(d.brackets, models.ElementBracketVariable)
	collect(d.hashes, models.ElementHashVariable)

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].start < matches[j].start })

	annotations := make([]models.Annotation, 0, len(matches))
	for _, m := range matches {
		locator := TextVariableLocator(m.text)
		annotations = append(annotations, models.Annotation{
			Type:         models.TypeTemplateVariable,
			ElementType:  m.elementType,
			Locator:      &locator,
			Label:        m.name,
			VariableName: m.name,
		})
	}
	return annotations
}
