package skill

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/skillseeker/skillseeker/ingest"
)

// MCPAdapter exposes extraction and skill building as MCP tools.
type MCPAdapter struct {
	pipe *ingest.Pipeline
}

// NewMCPAdapter creates an adapter over an ingestion pipeline.
func NewMCPAdapter(pipe *ingest.Pipeline) *MCPAdapter {
	return &MCPAdapter{pipe: pipe}
}

// Register registers the skill tools on an MCP server.
func (a *MCPAdapter) Register(srv *mcp.Server) {
	a.registerExtractTool(srv)
	a.registerDetectTool(srv)
	a.registerFormatsTool(srv)
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

// addTool wires a typed endpoint into the MCP server: decode arguments,
// run, marshal the response as a text content block. Endpoint errors become
// tool errors, never protocol errors.
func addTool(srv *mcp.Server, tool *mcp.Tool, endpoint func(ctx context.Context, args json.RawMessage) (any, error)) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		resp, err := endpoint(ctx, req.Params.Arguments)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(errors.New(err.Error()))
			return &res, nil
		}
		data, err := json.Marshal(resp)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("marshal: %w", err))
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

// --- extract ---

type extractReq struct {
	Path        string  `json:"path"`
	Name        string  `json:"name,omitempty"`
	Description string  `json:"description,omitempty"`
	MinQuality  float64 `json:"min_quality,omitempty"`
}

func (a *MCPAdapter) registerExtractTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "skill_extract",
		Description: "Extract a document file (docx, pdf, html, md, txt) into a skill package of categorized content blocks.",
		InputSchema: inputSchema(map[string]any{
			"path":        map[string]any{"type": "string", "description": "File path to extract"},
			"name":        map[string]any{"type": "string", "description": "Skill name (defaults to the file name)"},
			"description": map[string]any{"type": "string", "description": "Skill description"},
			"min_quality": map[string]any{"type": "number", "description": "Drop code blocks scoring below this (0-10)"},
		}, []string{"path"}),
	}

	addTool(srv, tool, func(ctx context.Context, args json.RawMessage) (any, error) {
		var r extractReq
		if err := json.Unmarshal(args, &r); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		doc, err := a.pipe.Extract(ctx, r.Path)
		if err != nil {
			return nil, err
		}
		name := r.Name
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(r.Path), filepath.Ext(r.Path))
		}
		return Build(doc.Blocks, Options{
			Name:        name,
			Description: r.Description,
			MinQuality:  r.MinQuality,
		})
	})
}

// --- detect ---

type detectReq struct {
	Path string `json:"path"`
}

func (a *MCPAdapter) registerDetectTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "skill_detect",
		Description: "Detect the format of a document file from its extension.",
		InputSchema: inputSchema(map[string]any{
			"path": map[string]any{"type": "string", "description": "File path to detect"},
		}, []string{"path"}),
	}

	addTool(srv, tool, func(_ context.Context, args json.RawMessage) (any, error) {
		var r detectReq
		if err := json.Unmarshal(args, &r); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		format, err := ingest.Detect(r.Path)
		if err != nil {
			return nil, err
		}
		return map[string]any{"format": string(format)}, nil
	})
}

// --- formats ---

func (a *MCPAdapter) registerFormatsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "skill_formats",
		Description: "List all supported document formats.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	addTool(srv, tool, func(_ context.Context, _ json.RawMessage) (any, error) {
		return map[string]any{"formats": ingest.SupportedFormats()}, nil
	})
}
