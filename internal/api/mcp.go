package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/dwiki/internal/wiki"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Wiki      *wiki.Service
	SiteTitle string
}

// NewMCPServer creates an MCP server exposing the wiki to agents: the
// article index, page content, the word cloud, and cache management.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"dwiki",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions(fmt.Sprintf("%s — markdown wiki over a content store. Pages are addressed by slug.", deps.SiteTitle)),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("get_index",
			mcp.WithDescription("List all wiki articles, most recently updated first."),
		),
		mcpGetIndex(deps),
	)

	s.AddTool(
		mcp.NewTool("get_page",
			mcp.WithDescription("Fetch one wiki page by slug. Returns markdown, or base64 bytes for PDF pages."),
			mcp.WithString("slug", mcp.Description("The page slug, as listed by get_index"), mcp.Required()),
		),
		mcpGetPage(deps),
	)

	s.AddTool(
		mcp.NewTool("get_word_cloud",
			mcp.WithDescription("Compute the corpus-wide word-frequency summary across all articles."),
		),
		mcpGetWordCloud(deps),
	)

	s.AddTool(
		mcp.NewTool("clear_cache",
			mcp.WithDescription("Evict the cached article index and word cloud so the next read re-enumerates."),
		),
		mcpClearCache(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"wiki://index",
			"Article Index",
			mcp.WithResourceDescription("The current article index as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceIndex(deps),
	)

	return s
}

func mcpGetIndex(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		articles, err := deps.Wiki.Index(ctx)
		if err != nil {
			return mcpError(fmt.Sprintf("building index: %v", err)), nil
		}

		type entry struct {
			Slug    string `json:"slug"`
			Title   string `json:"title"`
			Updated string `json:"updated"`
		}
		entries := make([]entry, len(articles))
		for i, a := range articles {
			entries[i] = entry{Slug: a.Slug, Title: a.Title, Updated: a.Updated.UTC().Format(time.RFC3339)}
		}

		b, err := json.Marshal(entries)
		if err != nil {
			return mcpError(fmt.Sprintf("marshalling index: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpGetPage(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		slug, err := req.RequireString("slug")
		if err != nil {
			return mcpError("slug is required"), nil
		}

		page, err := deps.Wiki.Page(ctx, slug)
		if err != nil {
			if errors.Is(err, wiki.ErrNotFound) {
				return mcpError(fmt.Sprintf("no page with slug %q", slug)), nil
			}
			return mcpError(fmt.Sprintf("resolving page: %v", err)), nil
		}

		b, err := json.Marshal(page)
		if err != nil {
			return mcpError(fmt.Sprintf("marshalling page: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpGetWordCloud(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := deps.Wiki.WordCloud(ctx)
		if err != nil {
			return mcpError(fmt.Sprintf("computing word cloud: %v", err)), nil
		}

		b, err := json.Marshal(result)
		if err != nil {
			return mcpError(fmt.Sprintf("marshalling word cloud: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpClearCache(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := deps.Wiki.ClearCache(); err != nil {
			return mcpError(fmt.Sprintf("clearing cache: %v", err)), nil
		}
		return mcpText("cache cleared"), nil
	}
}

func mcpResourceIndex(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		articles, err := deps.Wiki.Index(ctx)
		if err != nil {
			return nil, fmt.Errorf("building index: %w", err)
		}

		b, err := json.Marshal(articles)
		if err != nil {
			return nil, fmt.Errorf("marshalling index: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
