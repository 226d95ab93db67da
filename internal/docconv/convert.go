// Package docconv turns a rich document's structural tree into markdown
// text. The conversion is heuristic and intentionally lossy: rich formats
// carry styling markdown cannot express, and code is recognized by font
// coverage rather than explicit markup.
package docconv

import (
	"strings"

	"github.com/kalambet/dwiki/internal/store"
)

// monospaceThreshold is the fraction of characters that must be set in a
// monospace font before a paragraph is treated as implicit code.
const monospaceThreshold = 0.7

var monospaceFonts = []string{"courier", "consolas", "mono"}

// ToMarkdown transcribes the document's top-level elements, in order, into
// markdown lines.
//
// Code handling keeps two notions of fence apart: explicit fences are
// paragraphs that literally start with three backticks and are copied
// through verbatim; implicit fences open when a paragraph's monospace
// ratio exceeds the threshold and are buffered until the next non-code
// element forces a flush.
func ToMarkdown(elements []store.Element) string {
	b := &builder{}
	for _, el := range elements {
		switch e := el.(type) {
		case store.Paragraph:
			b.paragraph(e)
		case store.ListItem:
			b.listItem(e)
		case store.Table:
			b.table(e)
		}
	}
	b.finish()
	return b.String()
}

type builder struct {
	out      []string
	code     []string // buffered lines suspected to be code
	implicit bool     // an implicit fence is pending flush
	explicit bool     // inside a verbatim ``` fence
}

func (b *builder) paragraph(p store.Paragraph) {
	text := p.Text()
	trimmed := strings.TrimSpace(text)

	if strings.HasPrefix(trimmed, "```") {
		b.flushCode()
		b.out = append(b.out, trimmed)
		b.explicit = !b.explicit
		return
	}

	if b.explicit {
		// Inside an explicit fence nothing is reinterpreted.
		b.out = append(b.out, text)
		return
	}

	if MonospaceRatio(p.Spans) > monospaceThreshold {
		b.implicit = true
		b.code = append(b.code, text)
		return
	}

	if p.HeadingLevel >= 1 && p.HeadingLevel <= 6 {
		b.flushCode()
		b.out = append(b.out, strings.Repeat("#", p.HeadingLevel)+" "+trimmed)
		return
	}

	if trimmed == "" {
		b.flushCode()
		b.out = append(b.out, "")
		return
	}

	b.flushCode()
	b.out = append(b.out, text, "")
}

func (b *builder) listItem(li store.ListItem) {
	b.flushCode()
	marker := "-"
	if li.Ordered() {
		marker = "1."
	}
	indent := strings.Repeat("  ", li.Level)
	b.out = append(b.out, indent+marker+" "+li.Text())
}

func (b *builder) table(t store.Table) {
	b.flushCode()
	for i, row := range t.Rows {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = strings.Join(strings.Fields(cell), " ")
		}
		b.out = append(b.out, "| "+strings.Join(cells, " | ")+" |")

		// GitHub header convention: separator after the first row.
		if i == 0 {
			seps := make([]string, len(row))
			for j := range seps {
				seps[j] = "---"
			}
			b.out = append(b.out, "| "+strings.Join(seps, " | ")+" |")
		}
	}
}

// flushCode closes a pending implicit fence, wrapping the buffered lines.
func (b *builder) flushCode() {
	if !b.implicit && len(b.code) == 0 {
		return
	}
	b.out = append(b.out, "```")
	b.out = append(b.out, b.code...)
	b.out = append(b.out, "```")
	b.code = b.code[:0]
	b.implicit = false
}

// finish closes whatever fence is still open at the end of the document.
func (b *builder) finish() {
	if b.explicit {
		b.out = append(b.out, "```")
		b.explicit = false
	}
	b.flushCode()
}

// String joins the emitted lines, collapsing runs of three or more blank
// lines to a single one.
func (b *builder) String() string {
	var lines []string
	blanks := 0
	for _, line := range b.out {
		if strings.TrimSpace(line) == "" {
			blanks++
			continue
		}
		lines = appendBlanks(lines, blanks)
		blanks = 0
		lines = append(lines, line)
	}
	// Trailing blank lines carry no content.
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

func appendBlanks(lines []string, n int) []string {
	if n == 0 {
		return lines
	}
	if n >= 3 {
		n = 1
	}
	for i := 0; i < n; i++ {
		lines = append(lines, "")
	}
	return lines
}

// MonospaceRatio is the fraction of characters set in a monospace-looking
// font family, by span length. Returns 0 for an empty paragraph.
func MonospaceRatio(spans []store.Span) float64 {
	var mono, total int
	for _, s := range spans {
		n := len([]rune(s.Text))
		total += n
		if isMonospaceFont(s.FontFamily) {
			mono += n
		}
	}
	if total == 0 {
		return 0
	}
	return float64(mono) / float64(total)
}

func isMonospaceFont(family string) bool {
	f := strings.ToLower(family)
	for _, m := range monospaceFonts {
		if strings.Contains(f, m) {
			return true
		}
	}
	return false
}
