package structured

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

func rawDoc(path, mimeType, content string) *domain.RawDocument {
	return &domain.RawDocument{
		SourceID: "kb-local",
		Path:     path,
		MIMEType: mimeType,
		Content:  []byte(content),
	}
}

// normalise runs one raw file through the normaliser, failing the test
// on any error.
func normalise(t *testing.T, path, mimeType, content string) domain.Document {
	t.Helper()

	result, err := New().Normalise(context.Background(), rawDoc(path, mimeType, content))
	require.NoError(t, err)
	require.NotNil(t, result)
	return result.Document
}

func TestMIMETypesAndPriority(t *testing.T) {
	n := New()

	assert.ElementsMatch(t, []string{"application/json", "text/yaml", "application/yaml"}, n.SupportedMIMETypes())
	assert.Equal(t, 50, n.Priority())
}

func TestNormalise_NilInput(t *testing.T) {
	result, err := New().Normalise(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestNormalise_JSONSummarySections(t *testing.T) {
	content := `{
		"title": "Rome Guide",
		"summary": "A long weekend in Rome.",
		"sections": [
			{"heading": "Day One", "text": "Colosseum and Forum."},
			{"heading": "Day Two", "text": "Vatican museums."}
		],
		"metadata": {
			"category": "travel_guides",
			"tags": ["italy", "city-break"],
			"relevance_score": 0.8
		}
	}`

	doc := normalise(t, "notes/rome.json", "application/json", content)

	assert.Equal(t, "Rome Guide", doc.Title)
	assert.Equal(t, "A long weekend in Rome.\n\nDay One\nColosseum and Forum.\n\nDay Two\nVatican museums.", doc.Content)
	assert.Equal(t, "travel_guides", doc.Metadata["category"])
	assert.Equal(t, "italy, city-break", doc.Metadata["tags"])
	assert.Equal(t, "0.8", doc.Metadata["relevance_score"])
	assert.Equal(t, "json", doc.Metadata["format"])
	assert.Equal(t, domain.CategoryTravelGuides, doc.Category)
	assert.Equal(t, domain.NewDocumentID("kb-local", "notes/rome.json"), doc.ID)
}

func TestNormalise_JSONFallbackDump(t *testing.T) {
	doc := normalise(t, "faqs/prices.json", "application/json",
		`{"question": "How much?", "answer": "Twenty euro."}`)

	// No summary/sections shape, so the object is pretty-printed
	assert.Contains(t, doc.Content, `"question": "How much?"`)
	assert.Contains(t, doc.Content, `"answer": "Twenty euro."`)
	assert.Equal(t, "prices", doc.Title)
	assert.Equal(t, domain.CategoryFAQs, doc.Category)
}

func TestNormalise_JSONInvalid(t *testing.T) {
	result, err := New().Normalise(context.Background(),
		rawDoc("faqs/broken.json", "application/json", `{"unterminated": `))

	assert.ErrorIs(t, err, domain.ErrParse)
	assert.Nil(t, result)
}

func TestNormalise_YAMLSections(t *testing.T) {
	content := `title: Creator Profile
bio: Travel creator based in Lisbon.
audience:
  platforms: Instagram and YouTube
  size: 120k combined
topics:
  - food
  - budget travel
metadata:
  category: personal_info
  tags:
    - profile
`

	doc := normalise(t, "notes/profile.yaml", "text/yaml", content)

	assert.Equal(t, "Creator Profile", doc.Title)
	assert.Equal(t, "personal_info", doc.Metadata["category"])
	assert.Equal(t, "profile", doc.Metadata["tags"])
	assert.Equal(t, domain.CategoryPersonalInfo, doc.Category)

	rendered := "## title\nCreator Profile\n\n" +
		"## bio\nTravel creator based in Lisbon.\n\n" +
		"## audience\n### platforms\nInstagram and YouTube\n### size\n120k combined\n\n" +
		"## topics\n- food\n- budget travel"
	assert.Equal(t, rendered, doc.Content)
}

func TestNormalise_YAMLInvalid(t *testing.T) {
	result, err := New().Normalise(context.Background(),
		rawDoc("faqs/broken.yaml", "text/yaml", "key: [unclosed"))

	assert.ErrorIs(t, err, domain.ErrParse)
	assert.Nil(t, result)
}

func TestNormalise_YAMLNonMapping(t *testing.T) {
	result, err := New().Normalise(context.Background(),
		rawDoc("faqs/list.yaml", "text/yaml", "- one\n- two\n"))

	assert.ErrorIs(t, err, domain.ErrParse)
	assert.Nil(t, result)
}

func TestNormalise_DeterministicOutput(t *testing.T) {
	first := normalise(t, "faqs/prices.json", "application/json", `{"b": 2, "a": 1}`)
	second := normalise(t, "faqs/prices.json", "application/json", `{"b": 2, "a": 1}`)

	assert.Equal(t, first.ContentHash, second.ContentHash)
	assert.Equal(t, first.Content, second.Content)
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "plain", stringify("plain"))
	assert.Equal(t, "0.8", stringify(0.8))
	assert.Equal(t, "42", stringify(float64(42)))
	assert.Equal(t, "true", stringify(true))
	assert.Equal(t, "a, b", stringify([]any{"a", "b"}))
	assert.Equal(t, "", stringify(nil))
}
