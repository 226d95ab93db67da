package wordcloud

import (
	"strings"

	"golang.org/x/text/transform"
)

// stopwordList is primarily Spanish, plus the English words and document
// jargon that otherwise dominate any wiki corpus. Accented entries are
// normalized through the same diacritic stripping as the tokens, so the
// comparison is accent-insensitive.
var stopwordList = []string{
	// Spanish
	"ante", "antes", "algo", "alguna", "algunas", "alguno", "algunos",
	"aqui", "ahi", "alli", "aunque", "cada", "como", "con", "contra",
	"cual", "cuales", "cuando", "cuanto", "del", "desde", "donde", "dos",
	"durante", "ella", "ellas", "ellos", "entre", "era", "eran", "ese",
	"esa", "esas", "esos", "esta", "estas", "este", "estos", "esto",
	"estaba", "estar", "fue", "fueron", "hace", "hacer", "hacia", "han",
	"hasta", "hay", "las", "les", "los", "más", "mas", "mediante",
	"mientras", "mismo", "misma", "mucho", "muchos", "muy", "nos",
	"nosotros", "nuestra", "nuestro", "otra", "otras", "otro", "otros",
	"para", "pero", "poco", "por", "porque", "pueden", "puede", "que",
	"qué", "ser", "sin", "sobre", "son", "sólo", "solo", "su", "sus",
	"también", "tambien", "tanto", "tiene", "tienen", "toda", "todas",
	"todo", "todos", "una", "unas", "uno", "unos", "usar", "vez", "ya",
	"él", "ésta", "según", "siempre", "sido", "sería",
	// English
	"about", "after", "all", "also", "and", "any", "are", "because",
	"been", "but", "can", "could", "does", "each", "for", "from", "get",
	"has", "have", "her", "here", "him", "his", "how", "into", "its",
	"just", "like", "more", "most", "not", "one", "only", "onto", "our",
	"out", "over", "set", "she", "should", "some", "such", "than", "that",
	"the", "their", "them", "then", "there", "these", "they", "this",
	"those", "use", "used", "using", "very", "was", "were", "what",
	"when", "where", "which", "while", "will", "with", "would", "you",
	"your",
	// document-format and web jargon
	"amp", "class", "com", "div", "doc", "docs", "gif", "height", "href",
	"html", "http", "https", "img", "jpeg", "jpg", "markdown", "nbsp",
	"null", "pdf", "png", "quot", "span", "src", "style", "svg", "true",
	"false", "width", "www",
}

// stopwords maps the normalized (diacritic-stripped, lowercase) form of
// each entry.
var stopwords = func() map[string]bool {
	m := make(map[string]bool, len(stopwordList))
	for _, w := range stopwordList {
		toks := normalizeStopword(w)
		m[toks] = true
	}
	return m
}()

func normalizeStopword(w string) string {
	if stripped, _, err := transform.String(stripMarks, w); err == nil {
		w = stripped
	}
	return strings.ToLower(w)
}
