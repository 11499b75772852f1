package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/negaga53/codecompass/internal/diag"
	"github.com/negaga53/codecompass/internal/docrefs"
	"github.com/negaga53/codecompass/internal/nav"
)

type ModuleArgs struct {
	Module string `json:"module" jsonschema:"Module ID (dotted, e.g. app.models) or repo-relative file path"`
}

type LookupSymbolArgs struct {
	Query string `json:"query" jsonschema:"Symbol ID, qualified name, module-qualified name or local name"`
	Fuzzy bool   `json:"fuzzy,omitempty" jsonschema:"Fall back to ranked fuzzy search when nothing matches exactly"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of matches (default 10)"`
}

type DetectStaleDocsArgs struct {
	DocPath string `json:"doc_path,omitempty" jsonschema:"Repo-relative documentation file to audit (empty for all)"`
}

type SearchSymbolsArgs struct {
	Query string `json:"query" jsonschema:"Free-text query over symbol names, signatures, files and docstrings"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 10)"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "dependencies",
		Description: "Lists the modules and external packages a module imports, in source order",
	}, s.dependencies)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "dependents",
		Description: "Lists the internal modules that import a module",
	}, s.dependents)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "lookup_symbol",
		Description: "Finds functions, classes, methods and constants by name, best match first",
	}, s.lookupSymbol)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "detect_stale_docs",
		Description: "Checks documentation for references to missing files, unknown symbols and setup commands without prerequisites",
	}, s.detectStaleDocs)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "search_symbols",
		Description: "Ranked free-text search over symbols with typo tolerance",
	}, s.searchSymbols)
}

func (s *Server) dependencies(ctx context.Context, req *mcp.CallToolRequest, args ModuleArgs) (*mcp.CallToolResult, any, error) {
	targets, err := s.engine.Dependencies(args.Module)
	if err != nil {
		return s.queryError("dependencies", err)
	}
	result, err := jsonResult(map[string]any{"module": args.Module, "dependencies": targets})
	return result, nil, err
}

func (s *Server) dependents(ctx context.Context, req *mcp.CallToolRequest, args ModuleArgs) (*mcp.CallToolResult, any, error) {
	dependents, err := s.engine.Dependents(args.Module)
	if err != nil {
		return s.queryError("dependents", err)
	}
	result, err := jsonResult(map[string]any{"module": args.Module, "dependents": dependents})
	return result, nil, err
}

func (s *Server) lookupSymbol(ctx context.Context, req *mcp.CallToolRequest, args LookupSymbolArgs) (*mcp.CallToolResult, any, error) {
	limit := args.Limit
	if limit <= 0 {
		limit = 10
	}
	matches := s.engine.LookupSymbolWithOptions(args.Query, nav.ResolveOptions{Fuzzy: args.Fuzzy, Limit: limit})
	if len(matches) == 0 {
		return errorResult(fmt.Sprintf("symbol %q not found", args.Query)), nil, nil
	}
	result, err := jsonResult(map[string]any{"query": args.Query, "matches": matches})
	return result, nil, err
}

func (s *Server) detectStaleDocs(ctx context.Context, req *mcp.CallToolRequest, args DetectStaleDocsArgs) (*mcp.CallToolResult, any, error) {
	g := s.engine.Graph()
	refs, problems := docrefs.Collect(g.Root(), g.Files(), args.DocPath)
	if args.DocPath != "" && len(problems) > 0 {
		return errorResult(problems[0].Message), nil, nil
	}
	entries := s.engine.DetectStaleDocs(refs)
	if len(entries) == 0 {
		return textResult("No stale documentation detected. All references appear current."), nil, nil
	}
	result, err := jsonResult(map[string]any{"references": len(refs), "stale": entries})
	return result, nil, err
}

func (s *Server) searchSymbols(ctx context.Context, req *mcp.CallToolRequest, args SearchSymbolsArgs) (*mcp.CallToolResult, any, error) {
	limit := args.Limit
	if limit <= 0 {
		limit = 10
	}
	matches := s.engine.Search(args.Query, limit)
	result, err := jsonResult(map[string]any{"query": args.Query, "results": matches})
	return result, nil, err
}

// queryError turns a NotFound into a tool-level error result. Anything else
// is a protocol error.
func (s *Server) queryError(tool string, err error) (*mcp.CallToolResult, any, error) {
	if errors.Is(err, diag.ErrNotFound) {
		s.logger.Debug("query target not found", "tool", tool, "error", err)
		return errorResult(err.Error()), nil, nil
	}
	return nil, nil, err
}
