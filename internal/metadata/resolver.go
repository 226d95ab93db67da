// Package metadata resolves who last touched a file and when. Identity
// tracking is an optional store capability, so resolution is tiered: richer
// sources are tried first and every failure degrades to a poorer tier
// instead of surfacing. Resolve never returns an error — the page renderer
// has no blank state to fall back to.
package metadata

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kalambet/dwiki/internal/store"
)

// Resolution tiers, recorded in Metadata.Source.
const (
	TierPrimary  = "primary"
	TierRevision = "revision"
	TierOwner    = "owner-fallback"
	TierBasic    = "basic"
)

// Metadata is the total result of a resolution attempt. UpdatedBy and
// UpdatedByPhoto may be empty; Source always names the last tier attempted.
type Metadata struct {
	Updated        time.Time
	UpdatedBy      string
	UpdatedByPhoto string
	Source         string
}

// MetaStore is the slice of the content store the resolver needs.
type MetaStore interface {
	FileMeta(ctx context.Context, fileID string) (*store.FileMeta, error)
	Revisions(ctx context.Context, fileID string) ([]store.Revision, error)
	ModifiedTime(ctx context.Context, fileID string) (time.Time, error)
}

// Resolver performs tiered metadata resolution against a content store.
type Resolver struct {
	store  MetaStore
	debug  bool
	logger *slog.Logger
}

// NewResolver creates a Resolver. When debug is set, the basic tier's
// Source field carries the collected failure messages for diagnostics.
func NewResolver(st MetaStore, debug bool) *Resolver {
	return &Resolver{store: st, debug: debug, logger: slog.Default()}
}

// Resolve returns metadata for fileID. It is total: any combination of
// store failures still yields a usable value.
//
// Tier order: the advanced metadata query first; the revision history if
// that query returned no editor name; the owner list if the history had
// none either. If the advanced query (or the history query) fails outright,
// everything collapses to the basic last-modified-only tier.
func (r *Resolver) Resolve(ctx context.Context, fileID string) Metadata {
	meta, err := r.store.FileMeta(ctx, fileID)
	if err != nil {
		return r.basic(ctx, fileID, time.Time{}, err)
	}

	out := Metadata{Updated: meta.ModifiedTime, Source: TierPrimary}
	if u := meta.LastModifyingUser; u != nil && u.DisplayName != "" {
		out.UpdatedBy = u.DisplayName
		out.UpdatedByPhoto = u.PhotoLink
		return out
	}

	// The primary query answered but named no editor; consult the
	// revision history. Timestamp from the primary query is kept.
	revs, err := r.store.Revisions(ctx, fileID)
	if err != nil {
		return r.basic(ctx, fileID, out.Updated, err)
	}

	out.Source = TierRevision
	for i := len(revs) - 1; i >= 0; i-- {
		u := revs[i].LastModifyingUser
		if u == nil || u.DisplayName == "" {
			continue
		}
		out.UpdatedBy = u.DisplayName
		out.UpdatedByPhoto = u.PhotoLink
		if out.Updated.IsZero() {
			out.Updated = revs[i].ModifiedTime
		}
		return out
	}

	// Last resort within the advanced path: the owner list.
	out.Source = TierOwner
	if len(meta.Owners) > 0 {
		owner := meta.Owners[0]
		if owner.DisplayName != "" {
			out.UpdatedBy = owner.DisplayName
		} else {
			out.UpdatedBy = owner.Email
		}
		out.UpdatedByPhoto = owner.PhotoLink
	}
	return out
}

// basic is the terminal tier: last-modified time only, empty editor fields.
// known carries a timestamp already obtained from a richer tier, used when
// even the basic query fails.
func (r *Resolver) basic(ctx context.Context, fileID string, known time.Time, cause error) Metadata {
	failures := []string{cause.Error()}

	out := Metadata{Updated: known, Source: TierBasic}
	t, err := r.store.ModifiedTime(ctx, fileID)
	if err != nil {
		failures = append(failures, err.Error())
	} else {
		out.Updated = t
	}

	r.logger.Debug("metadata degraded to basic tier", "file_id", fileID, "failures", strings.Join(failures, "; "))
	if r.debug {
		out.Source = fmt.Sprintf("%s (%s)", TierBasic, strings.Join(failures, "; "))
	}
	return out
}
