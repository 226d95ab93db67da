package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kalambet/dwiki/internal/wordcloud"
)

// WordCloud returns the corpus-wide word-frequency summary. The result is
// cached under its own fixed key with the same TTL as the index and
// evicted by ClearCache.
func (s *Service) WordCloud(ctx context.Context) (*wordcloud.Result, error) {
	data, err := s.cache.GetOrFill(cloudCacheKey, s.ttl, func() ([]byte, error) {
		result, err := s.computeWordCloud(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(result)
	})
	if err != nil {
		return nil, fmt.Errorf("computing word cloud: %w", err)
	}

	var result wordcloud.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decoding cached word cloud: %w", err)
	}
	return &result, nil
}

// computeWordCloud re-derives every article's raw text (never rendered
// output) and aggregates token frequencies. Articles that fail to resolve
// or are effectively empty are skipped, not fatal.
func (s *Service) computeWordCloud(ctx context.Context) (*wordcloud.Result, error) {
	articles, err := s.Index(ctx)
	if err != nil {
		return nil, err
	}

	freq := wordcloud.NewFrequencies()
	totalDocs := 0
	for _, a := range articles {
		text, err := s.articleText(ctx, a)
		if err != nil {
			s.logger.Warn("word cloud: skipping article", "slug", a.Slug, "error", err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		totalDocs++
		freq.Add(wordcloud.Tokenize(text))
	}

	return &wordcloud.Result{Words: freq.Top(wordcloud.TopN), TotalDocs: totalDocs}, nil
}
