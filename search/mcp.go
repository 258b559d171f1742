package search

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kode-rex/webcat/kit"
	"github.com/kode-rex/webcat/scrape"
)

// ServiceName and Version identify the service on the MCP surface and the
// health endpoint.
const (
	ServiceName = "webcat"
	Version     = "1.0.0"
)

// Capabilities describes what the service can do, reported by webcat_health.
var Capabilities = []string{
	"Web search with Serper API",
	"Tavily API search",
	"DuckDuckGo fallback search",
	"Content extraction and scraping",
	"Markdown conversion",
}

// RegisterMCP registers the search tools on an MCP server.
func (o *Orchestrator) RegisterMCP(srv *mcp.Server) {
	o.registerSearchTool(srv)
	o.registerScrapeTool(srv)
	o.registerHealthTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// --- search ---

type searchReq struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

func (o *Orchestrator) registerSearchTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "webcat_search",
		Description: "Search the web and return results enriched with markdown page content.",
		InputSchema: inputSchema(map[string]any{
			"query":       map[string]any{"type": "string", "description": "Search query"},
			"max_results": map[string]any{"type": "integer", "description": "Maximum number of results"},
		}, []string{"query"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*searchReq)
		return o.Search(ctx, r.Query, r.MaxResults), nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r searchReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- scrape ---

type scrapeReq struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

func (o *Orchestrator) registerScrapeTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "webcat_scrape",
		Description: "Fetch a single URL and convert its content to markdown.",
		InputSchema: inputSchema(map[string]any{
			"url":   map[string]any{"type": "string", "description": "URL to scrape"},
			"title": map[string]any{"type": "string", "description": "Optional title for the document header"},
		}, []string{"url"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*scrapeReq)
		res := o.cfg.Scrape(ctx, scrape.Target{Title: r.Title, URL: r.URL})
		return map[string]any{
			"url":     r.URL,
			"content": res.Content,
			"class":   res.Class.String(),
		}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r scrapeReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- health ---

func (o *Orchestrator) registerHealthTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "webcat_health",
		Description: "Report service status, version, and capabilities.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(_ context.Context, _ any) (any, error) {
		providers := make([]string, 0, len(o.cfg.Providers))
		for _, p := range o.cfg.Providers {
			if p.Available() {
				providers = append(providers, p.Name())
			}
		}
		return map[string]any{
			"service":      ServiceName,
			"version":      Version,
			"status":       "healthy",
			"capabilities": Capabilities,
			"providers":    providers,
		}, nil
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
