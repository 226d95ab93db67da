// Package fsstore serves a local directory tree as a content store: .md
// files are markdown articles, .pdf files are PDFs, and .md.json files are
// rich-document trees exposed under their .md name. Parent links follow the
// directory hierarchy and editor metadata comes from optional .meta.json
// sidecars, so the full resolution chain is exercisable without a remote
// store.
package fsstore

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/dwiki/internal/store"
)

const (
	idsFileName   = "ids.json"
	metaSuffix    = ".meta.json"
	richDocSuffix = ".md.json"
)

// Store implements store.ContentStore over a directory. File ids are uuids
// minted on first sight and persisted to ids.json inside the root, so they
// stay stable across restarts.
type Store struct {
	root    string
	idsPath string

	mu   sync.Mutex
	ids  map[string]string // relative path -> id
	byID map[string]string // id -> relative path
}

// Open prepares a Store over dir, loading (or creating) its id map.
func Open(dir string) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving content directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("opening content directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content path %s is not a directory", abs)
	}

	s := &Store{
		root:    abs,
		idsPath: filepath.Join(abs, idsFileName),
		ids:     make(map[string]string),
		byID:    make(map[string]string),
	}
	if err := s.loadIDs(); err != nil {
		return nil, err
	}
	if _, err := s.idFor("."); err != nil {
		return nil, err
	}
	return s, nil
}

// RootID returns the id of the root folder itself.
func (s *Store) RootID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ids["."]
}

func (s *Store) loadIDs() error {
	data, err := os.ReadFile(s.idsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading id map: %w", err)
	}
	if err := json.Unmarshal(data, &s.ids); err != nil {
		return fmt.Errorf("parsing id map: %w", err)
	}
	for rel, id := range s.ids {
		s.byID[id] = rel
	}
	return nil
}

// idFor returns the stable id for a relative path, minting and persisting
// one if needed.
func (s *Store) idFor(rel string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.ids[rel]; ok {
		return id, nil
	}
	id := uuid.New().String()
	s.ids[rel] = id
	s.byID[id] = rel

	data, err := json.MarshalIndent(s.ids, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(s.idsPath, data, 0o644); err != nil {
		return "", fmt.Errorf("persisting id map: %w", err)
	}
	return id, nil
}

// resolve maps an id back to its relative path.
func (s *Store) resolve(fileID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rel, ok := s.byID[fileID]
	if !ok {
		return "", store.ErrNotFound
	}
	return rel, nil
}

func (s *Store) absPath(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// ListFolder lists the direct children of a folder. The id map and meta
// sidecars are bookkeeping, not content, and never appear in listings.
func (s *Store) ListFolder(_ context.Context, folderID string) ([]store.File, error) {
	rel, err := s.resolve(folderID)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.absPath(rel))
	if err != nil {
		return nil, fmt.Errorf("listing folder %s: %w", rel, err)
	}

	var files []store.File
	for _, entry := range entries {
		name := entry.Name()
		if name == idsFileName || strings.HasSuffix(name, metaSuffix) || strings.HasPrefix(name, ".") {
			continue
		}

		childRel := name
		if rel != "." {
			childRel = rel + "/" + name
		}
		id, err := s.idFor(childRel)
		if err != nil {
			return nil, err
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("reading entry %s: %w", childRel, err)
		}

		files = append(files, store.File{
			ID:           id,
			Name:         displayName(name, entry.IsDir()),
			MimeType:     mimeFor(name, entry.IsDir()),
			ModifiedTime: info.ModTime().UTC(),
		})
	}
	return files, nil
}

// displayName exposes rich documents under their article name: the .json
// carrier extension is an implementation detail of this adapter.
func displayName(name string, isDir bool) string {
	if !isDir && strings.HasSuffix(strings.ToLower(name), richDocSuffix) {
		return name[:len(name)-len(".json")]
	}
	return name
}

func mimeFor(name string, isDir bool) string {
	if isDir {
		return store.MimeFolder
	}
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, richDocSuffix):
		return store.MimeRichDoc
	case strings.HasSuffix(lower, ".md"):
		return store.MimeMarkdown
	case strings.HasSuffix(lower, ".pdf"):
		return store.MimePDF
	}
	if byExt := mime.TypeByExtension(filepath.Ext(name)); byExt != "" {
		return byExt
	}
	return "application/octet-stream"
}

// ReadFile returns a file's bytes and content type.
func (s *Store) ReadFile(_ context.Context, fileID string) ([]byte, string, error) {
	rel, err := s.resolve(fileID)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(s.absPath(rel))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", store.ErrNotFound
		}
		return nil, "", fmt.Errorf("reading %s: %w", rel, err)
	}
	return data, mimeFor(filepath.Base(rel), false), nil
}

// DocTree parses a rich document's JSON tree.
func (s *Store) DocTree(_ context.Context, fileID string) ([]store.Element, error) {
	rel, err := s.resolve(fileID)
	if err != nil {
		return nil, err
	}
	if mimeFor(filepath.Base(rel), false) != store.MimeRichDoc {
		return nil, fmt.Errorf("%s is not a rich document", rel)
	}
	data, err := os.ReadFile(s.absPath(rel))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rel, err)
	}
	return store.ParseDocTree(data)
}

// metaSidecar is the optional per-file identity record.
type metaSidecar struct {
	LastModifyingUser *sidecarUser  `json:"last_modifying_user,omitempty"`
	Owners            []sidecarUser `json:"owners,omitempty"`
	Revisions         []sidecarRev  `json:"revisions,omitempty"`
}

type sidecarUser struct {
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
	PhotoLink   string `json:"photo_link,omitempty"`
}

type sidecarRev struct {
	ModifiedTime time.Time `json:"modified_time"`
	DisplayName  string    `json:"display_name,omitempty"`
	PhotoLink    string    `json:"photo_link,omitempty"`
}

func (u sidecarUser) toUser() store.User {
	return store.User{DisplayName: u.DisplayName, Email: u.Email, PhotoLink: u.PhotoLink}
}

func (s *Store) sidecar(rel string) (*metaSidecar, error) {
	data, err := os.ReadFile(s.absPath(rel) + metaSuffix)
	if err != nil {
		if os.IsNotExist(err) {
			return &metaSidecar{}, nil
		}
		return nil, fmt.Errorf("reading meta sidecar for %s: %w", rel, err)
	}
	var sc metaSidecar
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parsing meta sidecar for %s: %w", rel, err)
	}
	return &sc, nil
}

// FileMeta combines the filesystem mtime with the identity sidecar.
func (s *Store) FileMeta(_ context.Context, fileID string) (*store.FileMeta, error) {
	rel, err := s.resolve(fileID)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(s.absPath(rel))
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", rel, err)
	}
	sc, err := s.sidecar(rel)
	if err != nil {
		return nil, err
	}

	meta := &store.FileMeta{ModifiedTime: info.ModTime().UTC()}
	if sc.LastModifyingUser != nil {
		u := sc.LastModifyingUser.toUser()
		meta.LastModifyingUser = &u
	}
	for _, o := range sc.Owners {
		meta.Owners = append(meta.Owners, o.toUser())
	}
	return meta, nil
}

// Revisions returns the sidecar's revision history, oldest first.
func (s *Store) Revisions(_ context.Context, fileID string) ([]store.Revision, error) {
	rel, err := s.resolve(fileID)
	if err != nil {
		return nil, err
	}
	sc, err := s.sidecar(rel)
	if err != nil {
		return nil, err
	}

	revs := make([]store.Revision, 0, len(sc.Revisions))
	for _, r := range sc.Revisions {
		rev := store.Revision{ModifiedTime: r.ModifiedTime}
		if r.DisplayName != "" {
			rev.LastModifyingUser = &store.User{DisplayName: r.DisplayName, PhotoLink: r.PhotoLink}
		}
		revs = append(revs, rev)
	}
	return revs, nil
}

// Parents follows the directory hierarchy. The root has no parents.
func (s *Store) Parents(_ context.Context, fileID string) ([]string, error) {
	rel, err := s.resolve(fileID)
	if err != nil {
		return nil, err
	}
	if rel == "." {
		return nil, nil
	}
	parent := filepath.ToSlash(filepath.Dir(rel))
	id, err := s.idFor(parent)
	if err != nil {
		return nil, err
	}
	return []string{id}, nil
}

// ModifiedTime is the basic metadata query.
func (s *Store) ModifiedTime(_ context.Context, fileID string) (time.Time, error) {
	rel, err := s.resolve(fileID)
	if err != nil {
		return time.Time{}, err
	}
	info, err := os.Stat(s.absPath(rel))
	if err != nil {
		return time.Time{}, fmt.Errorf("stat %s: %w", rel, err)
	}
	return info.ModTime().UTC(), nil
}
