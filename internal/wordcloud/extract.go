package wordcloud

import "sort"

// TopN is the number of entries a word cloud carries.
const TopN = 100

// WordCount is one ranked entry of the cloud.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Result is the corpus-wide summary: the top-ranked words and how many
// documents contributed tokens.
type Result struct {
	Words     []WordCount `json:"words"`
	TotalDocs int         `json:"totalDocs"`
}

// Frequencies accumulates token counts across documents, remembering
// first-insertion order so equal counts rank deterministically.
type Frequencies struct {
	counts map[string]int
	order  []string
}

// NewFrequencies returns an empty accumulator.
func NewFrequencies() *Frequencies {
	return &Frequencies{counts: make(map[string]int)}
}

// Add counts one document's tokens into the table.
func (f *Frequencies) Add(tokens []string) {
	for _, tok := range tokens {
		if _, seen := f.counts[tok]; !seen {
			f.order = append(f.order, tok)
		}
		f.counts[tok]++
	}
}

// Top returns the n highest-count words, descending by count. Ties keep
// first-insertion order (stable sort over the insertion sequence).
func (f *Frequencies) Top(n int) []WordCount {
	ranked := make([]WordCount, 0, len(f.order))
	for _, w := range f.order {
		ranked = append(ranked, WordCount{Word: w, Count: f.counts[w]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
