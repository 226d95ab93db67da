// Package wordcloud builds the corpus-wide word-frequency summary: raw
// article markdown goes through a normalization pipeline and the surviving
// tokens are counted across all documents.
package wordcloud

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const minTokenLen = 3

var fencedBlockRe = regexp.MustCompile("(?s)```.*?```")

// stripMarks removes diacritics: NFD decomposition, drop combining marks,
// recompose.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Tokenize runs the full normalization pipeline over one document's
// markdown: fenced code and HTML code blocks are stripped, diacritics
// removed, everything lowercased, and the text split on non-alphanumeric
// runs. Tokens shorter than three characters, purely numeric tokens, and
// stopwords are discarded.
func Tokenize(text string) []string {
	text = fencedBlockRe.ReplaceAllString(text, " ")
	text = stripHTMLCode(text)

	if stripped, _, err := transform.String(stripMarks, text); err == nil {
		text = stripped
	}
	text = strings.ToLower(text)

	text = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, text)

	var tokens []string
	for _, tok := range strings.Fields(text) {
		if len([]rune(tok)) < minTokenLen {
			continue
		}
		if isNumeric(tok) {
			continue
		}
		if stopwords[tok] {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// stripHTMLCode walks the text with an HTML tokenizer, dropping markup and
// the contents of <code>/<pre> blocks. Plain markdown passes through as
// text tokens untouched.
func stripHTMLCode(text string) string {
	if !strings.Contains(text, "<") {
		return text
	}

	tok := html.NewTokenizer(strings.NewReader(text))
	var sb strings.Builder
	skip := 0
	for {
		switch tok.Next() {
		case html.ErrorToken:
			return sb.String()
		case html.StartTagToken:
			name, _ := tok.TagName()
			if isCodeTag(string(name)) {
				skip++
			}
		case html.EndTagToken:
			name, _ := tok.TagName()
			if isCodeTag(string(name)) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				sb.Write(tok.Text())
				sb.WriteByte(' ')
			}
		}
	}
}

func isCodeTag(name string) bool {
	return name == "code" || name == "pre"
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
