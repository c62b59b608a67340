package structured

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
)

var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles structured knowledge files (JSON and YAML). The
// structure is flattened into readable text so chunking and embedding
// operate on prose rather than syntax.
type Normaliser struct{}

// New builds the structured-data normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes lists the MIME types this normaliser accepts.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/json", "text/yaml", "application/yaml"}
}

// Priority ranks this normaliser when several accept a type.
func (n *Normaliser) Priority() int {
	return 50 // Format-specific, higher than plaintext
}

// Normalise flattens a JSON or YAML document into prose; chunking is
// left to the post-processing pipeline.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	var (
		content string
		title   string
		parsed  map[string]string
		format  string
		err     error
	)

	switch raw.MIMEType {
	case "application/json":
		format = "json"
		content, title, parsed, err = normaliseJSON(raw.Content)
	default:
		format = "yaml"
		content, title, parsed, err = normaliseYAML(raw.Content)
	}
	if err != nil {
		return nil, fmt.Errorf("%s %s: %v: %w", format, raw.Path, err, domain.ErrParse)
	}

	metadata := maps.Clone(raw.Metadata)
	if metadata == nil {
		metadata = make(map[string]string)
	}
	maps.Copy(metadata, parsed)
	metadata["mime_type"] = raw.MIMEType
	metadata["format"] = format

	if title == "" {
		title = metadata["title"]
	}
	if title == "" {
		title = titleFromPath(raw.Path)
	}

	now := time.Now()
	doc := domain.Document{
		ID:        domain.NewDocumentID(raw.SourceID, raw.Path),
		SourceID:  raw.SourceID,
		URI:       raw.URI,
		Path:      raw.Path,
		Title:     title,
		Category:  domain.ResolveCategory(raw.Path, metadata["category"]),
		Content:   content,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	doc.ContentHash = domain.ComputeContentHash(doc.Content, doc.Metadata)

	return &driven.NormaliseResult{
		Document: doc,
	}, nil
}

// normaliseJSON flattens a JSON document into readable text. Objects
// shaped like {summary, sections: [{heading, text}]} become prose;
// anything else is pretty-printed.
func normaliseJSON(data []byte) (content, title string, metadata map[string]string, err error) {
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return "", "", nil, err
	}

	obj, _ := decoded.(map[string]any)
	if obj != nil {
		title, _ = obj["title"].(string)
		if meta, ok := obj["metadata"].(map[string]any); ok {
			metadata = stringifyMap(meta)
		}
	}

	if prose, ok := renderSummarySections(obj); ok {
		return prose, title, metadata, nil
	}

	pretty, err := json.MarshalIndent(decoded, "", "  ")
	if err != nil {
		return "", "", nil, err
	}
	return string(pretty), title, metadata, nil
}

// renderSummarySections renders the {summary, sections} document shape
// used by the knowledge base: the summary paragraph followed by each
// section as "heading\ntext".
func renderSummarySections(obj map[string]any) (string, bool) {
	if obj == nil {
		return "", false
	}

	summary, ok := obj["summary"].(string)
	if !ok {
		return "", false
	}
	sections, ok := obj["sections"].([]any)
	if !ok {
		return "", false
	}

	parts := []string{summary}
	for _, s := range sections {
		section, ok := s.(map[string]any)
		if !ok {
			continue
		}
		heading, _ := section["heading"].(string)
		text, _ := section["text"].(string)
		switch {
		case heading != "" && text != "":
			parts = append(parts, heading+"\n"+text)
		case text != "":
			parts = append(parts, text)
		case heading != "":
			parts = append(parts, heading)
		}
	}

	return strings.Join(parts, "\n\n"), true
}

// normaliseYAML flattens a YAML mapping into markdown-like text, one
// "## key" section per top-level key, preserving document order. The
// "metadata" mapping is extracted rather than rendered.
func normaliseYAML(data []byte) (content, title string, metadata map[string]string, err error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return "", "", nil, err
	}

	if len(root.Content) == 0 {
		return "", "", nil, nil
	}

	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return "", "", nil, fmt.Errorf("top level is not a mapping")
	}

	var sections []string
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key := doc.Content[i].Value
		value := doc.Content[i+1]

		if key == "metadata" && value.Kind == yaml.MappingNode {
			metadata = mappingToStrings(value)
			continue
		}
		if key == "title" && value.Kind == yaml.ScalarNode {
			title = value.Value
		}

		sections = append(sections, renderYAMLSection(key, value))
	}

	return strings.Join(sections, "\n\n"), title, metadata, nil
}

// renderYAMLSection renders one top-level key as a "## key" block.
// Nested mappings become "### subkey" entries, sequences become "- item"
// lines, scalars render as-is.
func renderYAMLSection(key string, value *yaml.Node) string {
	lines := []string{"## " + key}

	switch value.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(value.Content); i += 2 {
			lines = append(lines, "### "+value.Content[i].Value)
			lines = append(lines, nodeText(value.Content[i+1]))
		}
	case yaml.SequenceNode:
		for _, item := range value.Content {
			lines = append(lines, "- "+nodeText(item))
		}
	default:
		lines = append(lines, nodeText(value))
	}

	return strings.Join(lines, "\n")
}

// nodeText renders a node as text: scalars directly, anything deeper
// re-marshalled as YAML.
func nodeText(n *yaml.Node) string {
	if n.Kind == yaml.ScalarNode {
		return n.Value
	}
	out, err := yaml.Marshal(n)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// mappingToStrings converts a YAML mapping node into string metadata.
// Sequence values are joined with commas.
func mappingToStrings(n *yaml.Node) map[string]string {
	result := make(map[string]string, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		value := n.Content[i+1]
		if value.Kind == yaml.SequenceNode {
			items := make([]string, 0, len(value.Content))
			for _, item := range value.Content {
				items = append(items, nodeText(item))
			}
			result[key] = strings.Join(items, ", ")
			continue
		}
		result[key] = nodeText(value)
	}
	return result
}

// stringifyMap converts decoded JSON metadata values to strings.
// Lists are joined with commas.
func stringifyMap(m map[string]any) map[string]string {
	result := make(map[string]string, len(m))
	for k, v := range m {
		result[k] = stringify(v)
	}
	return result
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []any:
		items := make([]string, 0, len(val))
		for _, item := range val {
			items = append(items, stringify(item))
		}
		return strings.Join(items, ", ")
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

// titleFromPath falls back to a cleaned-up filename as the title.
func titleFromPath(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.NewReplacer("_", " ", "-", " ").Replace(name)
}
