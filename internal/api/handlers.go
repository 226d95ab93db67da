// Package api exposes the wiki over HTTP and MCP. Handlers are thin: all
// semantics live in the wiki service.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/dwiki/internal/wiki"
)

// fileCacheControl is attached to approved direct file responses.
const fileCacheControl = "public, max-age=3600"

// Deps holds everything the HTTP surface needs.
type Deps struct {
	Wiki      *wiki.Service
	SiteTitle string
	Token     string // optional bearer token gating cache management
}

// NewHandler builds the full HTTP router.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", handleHealth(deps))
	r.Route("/api", func(r chi.Router) {
		r.Get("/index", handleIndex(deps))
		r.Get("/pages/{slug}", handlePage(deps))
		r.Get("/wordcloud", handleWordCloud(deps))

		clear := r.With()
		if deps.Token != "" {
			clear = r.With(BearerAuth(deps.Token))
		}
		clear.Post("/cache/clear", handleCacheClear(deps))
	})
	r.Get("/files/{id}", handleFile(deps))

	return r
}

func handleHealth(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok", "title": deps.SiteTitle})
	}
}

// indexEntry is the public shape of one article listing row.
type indexEntry struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Updated string `json:"updated"`
}

func handleIndex(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		articles, err := deps.Wiki.Index(r.Context())
		if err != nil {
			httpError(w, http.StatusBadGateway, "index_error", "building index: %v", err)
			return
		}

		entries := make([]indexEntry, len(articles))
		for i, a := range articles {
			entries[i] = indexEntry{
				Slug:    a.Slug,
				Title:   a.Title,
				Updated: a.Updated.UTC().Format(time.RFC3339),
			}
		}
		writeJSON(w, entries)
	}
}

func handlePage(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")

		page, err := deps.Wiki.Page(r.Context(), slug)
		if err != nil {
			if errors.Is(err, wiki.ErrNotFound) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(map[string]bool{"notFound": true})
				return
			}
			slog.Error("page resolution failed", "slug", slug, "error", err)
			httpError(w, http.StatusBadGateway, "page_error", "resolving page: %v", err)
			return
		}
		writeJSON(w, page)
	}
}

func handleWordCloud(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := deps.Wiki.WordCloud(r.Context())
		if err != nil {
			httpError(w, http.StatusBadGateway, "wordcloud_error", "computing word cloud: %v", err)
			return
		}
		writeJSON(w, result)
	}
}

func handleCacheClear(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Wiki.ClearCache(); err != nil {
			httpError(w, http.StatusInternalServerError, "cache_error", "clearing cache: %v", err)
			return
		}
		writeJSON(w, map[string]bool{"cleared": true})
	}
}

// handleFile proxies raw file bytes. Denied and missing files get the same
// generic response so the gate leaks nothing about what exists.
func handleFile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		data, mimeType, err := deps.Wiki.File(r.Context(), id)
		if err != nil {
			if !errors.Is(err, wiki.ErrNotFound) {
				slog.Error("file read failed", "file_id", id, "error", err)
			}
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", mimeType)
		w.Header().Set("Cache-Control", fileCacheControl)
		w.Write(data)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
