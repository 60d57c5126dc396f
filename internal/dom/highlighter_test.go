package dom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annoforge/annotator-api/internal/models"
)

func renderWith(t *testing.T, source string, annotations []models.Annotation) (string, Summary) {
	t.Helper()
	doc, err := Parse(source)
	require.NoError(t, err)
	summary := NewHighlighter(nil).Apply(doc, annotations)
	rendered, err := doc.Render()
	require.NoError(t, err)
	return rendered, summary
}

func TestApplyInjectsStylesheetOnce(t *testing.T) {
	source := `<html><head></head><body><p>x</p></body></html>`
	rendered, _ := renderWith(t, source, nil)
	assert.Equal(t, 1, strings.Count(rendered, `id="`+styleTagID+`"`))

	// A second pass over already-highlighted output must not stack styles.
	rendered2, _ := renderWith(t, rendered, nil)
	assert.Equal(t, 1, strings.Count(rendered2, `id="`+styleTagID+`"`))
}

func TestApplyTagsStructuralTarget(t *testing.T) {
	source := `<html><body><form><input type="email" name="email"></form></body></html>`
	annotations := []models.Annotation{{
		ID:      "a1",
		Type:    models.TypeFormField,
		Locator: locatorPtr(`input[name="email"]`),
		Label:   "input: email",
	}}

	rendered, summary := renderWith(t, source, annotations)
	assert.Equal(t, Summary{Highlighted: 1}, summary)
	assert.Contains(t, rendered, `data-annotation-id="a1"`)
	assert.Contains(t, rendered, "annotation-highlight-element")
}

func TestApplyHighlightClassesPerType(t *testing.T) {
	source := `<html><body>
		<a href="/x" class="lnk">go</a>
		<p>[[first_name]] ##code##</p>
	</body></html>`
	annotations := []models.Annotation{
		{ID: "l", Type: models.TypeHyperlink, Locator: locatorPtr("a.lnk")},
		{ID: "b", Type: models.TypeTemplateVariable, ElementType: models.ElementBracketVariable, Locator: locatorPtr(`:textvariable("[[first_name]]")`)},
		{ID: "h", Type: models.TypeTemplateVariable, ElementType: models.ElementHashVariable, Locator: locatorPtr(`:textvariable("##code##")`)},
	}

	rendered, summary := renderWith(t, source, annotations)
	assert.Equal(t, Summary{Highlighted: 3}, summary)
	assert.Contains(t, rendered, "annotation-highlight-link")
	assert.Contains(t, rendered, "annotation-highlight-bracket")
	assert.Contains(t, rendered, "annotation-highlight-variable")
}

func TestApplyCustomTextUsesInlineColor(t *testing.T) {
	source := `<html><body><p>flag this phrase</p></body></html>`
	annotations := []models.Annotation{{
		ID:      "c1",
		Type:    models.TypeCustomText,
		Locator: locatorPtr(TextSelectionLocator("phrase")),
	}}

	rendered, summary := renderWith(t, source, annotations)
	assert.Equal(t, Summary{Highlighted: 1}, summary)
	assert.Contains(t, rendered, "background-color: "+models.DefaultCustomColor)
	assert.Contains(t, rendered, "annotation-highlight-custom")
}

func TestApplyCustomColorOverridesDefault(t *testing.T) {
	source := `<html><body><p>flag this phrase</p></body></html>`
	annotations := []models.Annotation{{
		ID:          "c1",
		Type:        models.TypeCustomText,
		Locator:     locatorPtr(TextSelectionLocator("phrase")),
		CustomColor: "#123456",
	}}

	rendered, _ := renderWith(t, source, annotations)
	assert.Contains(t, rendered, "background-color: #123456")
	assert.NotContains(t, rendered, models.DefaultCustomColor)
}

func TestApplyBindsRepeatedTextInSequenceOrder(t *testing.T) {
	source := `<html><body><p>Submit</p><p>Submit</p></body></html>`
	annotations := []models.Annotation{
		{ID: "first", Type: models.TypeCustomText, Locator: locatorPtr(TextSelectionLocator("Submit"))},
		{ID: "second", Type: models.TypeCustomText, Locator: locatorPtr(TextSelectionLocator("Submit"))},
	}

	rendered, summary := renderWith(t, source, annotations)
	assert.Equal(t, Summary{Highlighted: 2}, summary)

	firstAt := strings.Index(rendered, `data-annotation-id="first"`)
	secondAt := strings.Index(rendered, `data-annotation-id="second"`)
	require.GreaterOrEqual(t, firstAt, 0)
	require.GreaterOrEqual(t, secondAt, 0)
	assert.Less(t, firstAt, secondAt)
}

func TestApplySwapsBindingsAfterReorder(t *testing.T) {
	source := `<html><body><p>Submit</p><p>Submit</p></body></html>`
	a := models.Annotation{ID: "a", Type: models.TypeCustomText, Locator: locatorPtr(TextSelectionLocator("Submit"))}
	b := models.Annotation{ID: "b", Type: models.TypeCustomText, Locator: locatorPtr(TextSelectionLocator("Submit"))}

	rendered, _ := renderWith(t, source, []models.Annotation{b, a})
	assert.Less(t, strings.Index(rendered, `data-annotation-id="b"`), strings.Index(rendered, `data-annotation-id="a"`))
}

func TestApplyCountsMissingAndSkipped(t *testing.T) {
	source := `<html><body><p>hello</p></body></html>`
	annotations := []models.Annotation{
		{ID: "gone", Type: models.TypeHyperlink, Locator: locatorPtr("#vanished")},
		{ID: "bare", Type: models.TypeCustomText},
		{ID: "bad", Type: models.TypeCustomText, Locator: locatorPtr(`:textselection("oops`)},
		{ID: "ok", Type: models.TypeCustomText, Locator: locatorPtr(TextSelectionLocator("hello"))},
	}

	rendered, summary := renderWith(t, source, annotations)
	assert.Equal(t, Summary{Highlighted: 1, Skipped: 1, NotFound: 2}, summary)
	assert.Contains(t, rendered, `data-annotation-id="ok"`)
	assert.NotContains(t, rendered, `data-annotation-id="gone"`)
}

func TestApplyIsDeterministic(t *testing.T) {
	source := `<html><body><p>Hello [[name]], Submit or Submit</p><a href="/x">x</a></body></html>`
	annotations := []models.Annotation{
		{ID: "v", Type: models.TypeTemplateVariable, ElementType: models.ElementBracketVariable, Locator: locatorPtr(`:textvariable("[[name]]")`)},
		{ID: "s1", Type: models.TypeCustomText, Locator: locatorPtr(TextSelectionLocator("Submit"))},
		{ID: "s2", Type: models.TypeCustomText, Locator: locatorPtr(TextSelectionLocator("Submit"))},
		{ID: "l", Type: models.TypeHyperlink, Locator: locatorPtr(`:linktext("x")`)},
	}

	first, summaryA := renderWith(t, source, annotations)
	second, summaryB := renderWith(t, source, annotations)
	assert.Equal(t, first, second)
	assert.Equal(t, summaryA, summaryB)
}

func TestApplyAfterDeleteRebindsRemaining(t *testing.T) {
	source := `<html><body><p>Submit and Submit</p></body></html>`
	b := models.Annotation{ID: "b", Type: models.TypeCustomText, Locator: locatorPtr(TextSelectionLocator("Submit"))}

	// The earlier annotation was removed, so b moves up to the first
	// occurrence on the next pass.
	rendered, summary := renderWith(t, source, []models.Annotation{b})
	assert.Equal(t, Summary{Highlighted: 1}, summary)
	assert.Contains(t, rendered, `<span data-annotation-id="b"`)
	assert.Less(t, strings.Index(rendered, `data-annotation-id="b"`), strings.Index(rendered, "and"))
}
