package store

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Element is a top-level structural element of a rich document. The variant
// set is closed: Paragraph, ListItem and Table are the only implementations.
type Element interface {
	element()
}

// Span is a run of text with uniform styling inside a paragraph.
type Span struct {
	Text       string `json:"text"`
	FontFamily string `json:"font,omitempty"`
}

// Paragraph is a block of styled text. HeadingLevel is 0 for body text and
// 1..6 for heading-styled paragraphs.
type Paragraph struct {
	HeadingLevel int    `json:"heading,omitempty"`
	Spans        []Span `json:"spans"`
}

func (Paragraph) element() {}

// Text concatenates the paragraph's spans.
func (p Paragraph) Text() string {
	var sb strings.Builder
	for _, s := range p.Spans {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// ListItem is one item of a (possibly nested) list. Level is the nesting
// depth starting at 0. Glyph names the marker style as reported by the
// store ("decimal", "alpha", "roman", "bullet", ...).
type ListItem struct {
	Level int    `json:"level"`
	Glyph string `json:"glyph,omitempty"`
	Spans []Span `json:"spans"`
}

func (ListItem) element() {}

// Text concatenates the item's spans.
func (li ListItem) Text() string {
	var sb strings.Builder
	for _, s := range li.Spans {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// Ordered reports whether the glyph denotes an ordered marker (numeric,
// alphabetic or roman-numeral).
func (li ListItem) Ordered() bool {
	g := strings.ToLower(li.Glyph)
	for _, marker := range []string{"decimal", "number", "alpha", "roman"} {
		if strings.Contains(g, marker) {
			return true
		}
	}
	return false
}

// Table is a grid of plain-text cells.
type Table struct {
	Rows [][]string `json:"rows"`
}

func (Table) element() {}

// docTreeJSON is the serialized form of a rich document used by stores that
// persist trees as JSON (the filesystem adapter, test fixtures).
type docTreeJSON struct {
	Elements []elementJSON `json:"elements"`
}

type elementJSON struct {
	Type    string     `json:"type"`
	Heading int        `json:"heading,omitempty"`
	Level   int        `json:"level,omitempty"`
	Glyph   string     `json:"glyph,omitempty"`
	Spans   []Span     `json:"spans,omitempty"`
	Rows    [][]string `json:"rows,omitempty"`
}

// ParseDocTree decodes a JSON-serialized rich document into its elements.
func ParseDocTree(data []byte) ([]Element, error) {
	var tree docTreeJSON
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("parsing doc tree: %w", err)
	}

	elements := make([]Element, 0, len(tree.Elements))
	for i, e := range tree.Elements {
		switch e.Type {
		case "paragraph":
			elements = append(elements, Paragraph{HeadingLevel: e.Heading, Spans: e.Spans})
		case "list_item":
			elements = append(elements, ListItem{Level: e.Level, Glyph: e.Glyph, Spans: e.Spans})
		case "table":
			elements = append(elements, Table{Rows: e.Rows})
		default:
			return nil, fmt.Errorf("doc tree element %d: unknown type %q", i, e.Type)
		}
	}
	return elements, nil
}

// MarshalDocTree encodes elements into the JSON tree form.
func MarshalDocTree(elements []Element) ([]byte, error) {
	tree := docTreeJSON{Elements: make([]elementJSON, 0, len(elements))}
	for _, el := range elements {
		switch e := el.(type) {
		case Paragraph:
			tree.Elements = append(tree.Elements, elementJSON{Type: "paragraph", Heading: e.HeadingLevel, Spans: e.Spans})
		case ListItem:
			tree.Elements = append(tree.Elements, elementJSON{Type: "list_item", Level: e.Level, Glyph: e.Glyph, Spans: e.Spans})
		case Table:
			tree.Elements = append(tree.Elements, elementJSON{Type: "table", Rows: e.Rows})
		}
	}
	return json.Marshal(tree)
}
