// Package wiki is the core of dwiki: it turns a folder of heterogeneous
// documents in a content store into a slug-addressed article index, page
// content, and a corpus word cloud, with a TTL cache in front of the
// expensive passes.
package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/kalambet/dwiki/internal/cache"
	"github.com/kalambet/dwiki/internal/containment"
	"github.com/kalambet/dwiki/internal/metadata"
	"github.com/kalambet/dwiki/internal/store"
)

// Cache keys are fixed: the index and the word cloud are corpus-wide
// snapshots, not per-request values.
const (
	indexCacheKey = "article-index"
	cloudCacheKey = "word-cloud"

	articleSuffix = ".md"
)

// DefaultTTL is how long index and word-cloud snapshots stay valid.
const DefaultTTL = 60 * time.Second

// ErrNotFound reports a slug (or file id) with no matching content. File
// access denied by the containment check maps onto the same error so the
// response never reveals whether the file exists.
var ErrNotFound = errors.New("wiki: not found")

// Article is one eligible content file exposed via a stable slug. MimeType
// travels with the cached snapshot so the word-cloud pass knows how to
// resolve content without re-listing.
type Article struct {
	ID       string    `json:"id"`
	Slug     string    `json:"slug"`
	Title    string    `json:"title"`
	MimeType string    `json:"mime"`
	Updated  time.Time `json:"updated"`
}

// Service wires the content store, the metadata resolver, the containment
// checker and the cache into the public wiki operations.
type Service struct {
	store  store.ContentStore
	cache  *cache.Cache
	meta   *metadata.Resolver
	check  *containment.Checker
	rootID string
	ttl    time.Duration
	logger *slog.Logger
}

// NewService creates the wiki service rooted at rootID. A ttl of 0 uses
// DefaultTTL. debugMeta makes the metadata resolver carry failure
// diagnostics in its tier tag.
func NewService(st store.ContentStore, c *cache.Cache, rootID string, ttl time.Duration, debugMeta bool) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		store:  st,
		cache:  c,
		meta:   metadata.NewResolver(st, debugMeta),
		check:  containment.NewChecker(st),
		rootID: rootID,
		ttl:    ttl,
		logger: slog.Default(),
	}
}

// Index returns the article index, most recently updated first. Within the
// TTL the cached snapshot is returned verbatim; otherwise the root folder
// is re-enumerated, sorted and cached.
func (s *Service) Index(ctx context.Context) ([]Article, error) {
	data, err := s.cache.GetOrFill(indexCacheKey, s.ttl, func() ([]byte, error) {
		articles, err := s.enumerate(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(articles)
	})
	if err != nil {
		return nil, fmt.Errorf("building article index: %w", err)
	}

	var articles []Article
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, fmt.Errorf("decoding cached article index: %w", err)
	}
	return articles, nil
}

// enumerate lists the root folder and derives articles from every file
// whose name carries the .md suffix, case-insensitively. Slug collisions
// are not resolved; the last enumerated file wins.
func (s *Service) enumerate(ctx context.Context) ([]Article, error) {
	files, err := s.store.ListFolder(ctx, s.rootID)
	if err != nil {
		return nil, fmt.Errorf("listing content root: %w", err)
	}

	var articles []Article
	for _, f := range files {
		base, ok := articleBase(f)
		if !ok {
			continue
		}
		articles = append(articles, Article{
			ID:       f.ID,
			Slug:     Slugify(base),
			Title:    Prettify(base),
			MimeType: f.MimeType,
			Updated:  f.ModifiedTime,
		})
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].Updated.After(articles[j].Updated)
	})
	return articles, nil
}

// articleBase reports whether f is an article file and returns its name
// without the .md suffix. Rich documents named with the suffix qualify.
func articleBase(f store.File) (string, bool) {
	if f.MimeType == store.MimeFolder {
		return "", false
	}
	if !strings.HasSuffix(strings.ToLower(f.Name), articleSuffix) {
		return "", false
	}
	return f.Name[:len(f.Name)-len(articleSuffix)], true
}

// ClearCache unconditionally evicts the index and word-cloud snapshots.
func (s *Service) ClearCache() error {
	if err := s.cache.Delete(indexCacheKey, cloudCacheKey); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}

// File serves a raw file for direct access (image embedding and the like),
// gated by the containment check: only descendants of the content root are
// readable. Denial and absence are indistinguishable.
func (s *Service) File(ctx context.Context, fileID string) (data []byte, mimeType string, err error) {
	if !s.check.IsDescendant(ctx, fileID, s.rootID) {
		return nil, "", ErrNotFound
	}
	data, mimeType, err = s.store.ReadFile(ctx, fileID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("reading file: %w", err)
	}
	return data, mimeType, nil
}
