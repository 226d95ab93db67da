// Package store defines the content-store collaborator: the minimal surface
// dwiki needs from whatever system holds the wiki files (a local directory,
// a cloud drive, ...). Reading bytes and listing folders is the store's job;
// everything on top (indexing, conversion, metadata tiers) lives elsewhere.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a file or folder id does not resolve.
var ErrNotFound = errors.New("store: not found")

// Well-known content types. Stores may report others (images, octet-stream);
// the wiki layer only special-cases these three.
const (
	MimeMarkdown = "text/markdown"
	MimePDF      = "application/pdf"
	MimeFolder   = "application/x-folder"

	// MimeRichDoc marks structured documents that have no byte-level
	// markdown form and must go through DocTree + conversion.
	MimeRichDoc = "application/vnd.dwiki.richdoc+json"
)

// File is one entry in a folder listing.
type File struct {
	ID           string
	Name         string
	MimeType     string
	ModifiedTime time.Time
}

// User identifies an editor or owner as reported by the store.
type User struct {
	DisplayName string
	Email       string
	PhotoLink   string
}

// FileMeta is the "advanced" per-file metadata: modification time plus
// whatever identity information the store tracks. Any field except
// ModifiedTime may be absent.
type FileMeta struct {
	ModifiedTime      time.Time
	LastModifyingUser *User
	Owners            []User
}

// Revision is one entry of a file's revision history, oldest first.
type Revision struct {
	ModifiedTime      time.Time
	LastModifyingUser *User
}

// ContentStore is the collaborator interface over the backing content tree.
// Implementations are expected to be safe for concurrent use.
type ContentStore interface {
	// ListFolder returns the direct children of a folder.
	ListFolder(ctx context.Context, folderID string) ([]File, error)

	// ReadFile returns a file's raw bytes and its content type.
	ReadFile(ctx context.Context, fileID string) (data []byte, mimeType string, err error)

	// DocTree returns the structural elements of a rich document.
	// Fails for files that are not rich documents.
	DocTree(ctx context.Context, fileID string) ([]Element, error)

	// FileMeta performs the advanced metadata query. Stores without
	// identity tracking may return an error here; callers must degrade.
	FileMeta(ctx context.Context, fileID string) (*FileMeta, error)

	// Revisions returns the file's revision history, oldest first.
	Revisions(ctx context.Context, fileID string) ([]Revision, error)

	// Parents returns the ids of the file's direct parent folders.
	Parents(ctx context.Context, fileID string) ([]string, error)

	// ModifiedTime is the basic metadata query: last-modified only.
	ModifiedTime(ctx context.Context, fileID string) (time.Time, error)
}
