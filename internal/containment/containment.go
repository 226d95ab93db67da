// Package containment gates direct file access: a file may only be served
// if it is reachable from the managed content root via its parent chain.
package containment

import (
	"context"
	"log/slog"
)

// ParentResolver resolves a file's direct parent folder ids.
type ParentResolver interface {
	Parents(ctx context.Context, fileID string) ([]string, error)
}

// Checker walks parent links upward from a file looking for the root folder.
type Checker struct {
	store  ParentResolver
	logger *slog.Logger
}

// NewChecker creates a Checker over the given parent resolver.
func NewChecker(store ParentResolver) *Checker {
	return &Checker{store: store, logger: slog.Default()}
}

// IsDescendant reports whether rootID is an ancestor of fileID. The walk is
// breadth-first with a visited set, so parent cycles terminate. Any parent
// resolution failure denies access rather than erroring out.
func (c *Checker) IsDescendant(ctx context.Context, fileID, rootID string) bool {
	if fileID == "" || rootID == "" {
		return false
	}

	queue, err := c.store.Parents(ctx, fileID)
	if err != nil {
		c.logger.Warn("containment: resolving parents failed, denying", "file_id", fileID, "error", err)
		return false
	}

	visited := make(map[string]bool, len(queue))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		if id == rootID {
			return true
		}
		if visited[id] {
			continue
		}
		visited[id] = true

		parents, err := c.store.Parents(ctx, id)
		if err != nil {
			c.logger.Warn("containment: resolving parents failed, denying", "file_id", id, "error", err)
			return false
		}
		for _, p := range parents {
			if !visited[p] {
				queue = append(queue, p)
			}
		}
	}
	return false
}
