package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	summaryURI    = "codecompass://graph/summary"
	schemaURIBase = "codecompass://schemas/"
)

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         summaryURI,
		Name:        "Graph Summary",
		Description: "Counts, external packages and the most imported modules of the indexed repository",
		MIMEType:    "application/json",
	}, s.readSummary)

	schemaMap := buildSchemaMap()
	s.mcpServer.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: schemaURIBase + "{tool_name}",
		Name:        "Tool Schema",
		Description: "JSON schema for the named tool's arguments",
		MIMEType:    "application/schema+json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		uri := req.Params.URI
		schemaJSON, ok := schemaMap[strings.TrimPrefix(uri, schemaURIBase)]
		if !ok {
			return nil, fmt.Errorf("unknown tool schema: %q", uri)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: "application/schema+json", Text: schemaJSON}},
		}, nil
	})
}

func (s *Server) readSummary(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	g := s.engine.Graph()
	top := make([]string, 0)
	for _, mod := range g.TopModules(10) {
		top = append(top, mod.ID)
	}
	data, err := json.MarshalIndent(map[string]any{
		"build_id":          g.BuildID(),
		"root":              g.Root(),
		"stats":             g.Stats(),
		"external_packages": g.ExternalPackages(),
		"top_modules":       top,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{URI: summaryURI, MIMEType: "application/json", Text: string(data)}},
	}, nil
}

func buildSchemaMap() map[string]string {
	m := make(map[string]string)
	addSchema[ModuleArgs](m, "dependencies")
	addSchema[ModuleArgs](m, "dependents")
	addSchema[LookupSymbolArgs](m, "lookup_symbol")
	addSchema[DetectStaleDocsArgs](m, "detect_stale_docs")
	addSchema[SearchSymbolsArgs](m, "search_symbols")
	return m
}

func addSchema[T any](m map[string]string, name string) {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return
	}
	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return
	}
	m[name] = string(schemaJSON)
}
