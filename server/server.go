// Package server exposes the tool registry over the Model Context Protocol
// on stdio.
package server

import (
	"context"
	"errors"
	"io"
	stdlog "log"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	logcontext "github.com/va6996/seatsaero-mcp/context"
	"github.com/va6996/seatsaero-mcp/log"
	"github.com/va6996/seatsaero-mcp/tools"
)

// unknownTool receives calls naming a tool outside the catalog, so they get
// the same error result as any other failed call. It is never listed.
const unknownTool = "__unknown_tool"

// Server wraps an MCP server publishing every registry tool
type Server struct {
	mcp      *mcpserver.MCPServer
	registry *tools.Registry
}

// New builds an MCP server that lists the registry's catalog and dispatches
// calls through it
func New(registry *tools.Registry, name, version string) *Server {
	hooks := &mcpserver.Hooks{}
	hooks.AddBeforeCallTool(func(ctx context.Context, id any, req *mcp.CallToolRequest) {
		if !registry.Has(req.Params.Name) {
			req.Params.Arguments = map[string]any{"name": req.Params.Name}
			req.Params.Name = unknownTool
		}
	})

	s := &Server{
		mcp: mcpserver.NewMCPServer(name, version,
			mcpserver.WithToolCapabilities(true),
			mcpserver.WithRecovery(),
			mcpserver.WithHooks(hooks),
			mcpserver.WithToolFilter(hideUnknownTool),
		),
		registry: registry,
	}

	for _, def := range registry.Definitions() {
		s.mcp.AddTool(mcp.NewToolWithRawSchema(def.Name, def.Description, def.RawSchema()), s.handle)
	}
	s.mcp.AddTool(mcp.NewTool(unknownTool), s.handleUnknown)
	return s
}

func hideUnknownTool(_ context.Context, listed []mcp.Tool) []mcp.Tool {
	kept := make([]mcp.Tool, 0, len(listed))
	for _, t := range listed {
		if t.Name != unknownTool {
			kept = append(kept, t)
		}
	}
	return kept
}

// MCP returns the underlying protocol server
func (s *Server) MCP() *mcpserver.MCPServer {
	return s.mcp
}

func (s *Server) handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx = logcontext.WithRequestID(ctx, logcontext.NewRequestID())
	name := req.Params.Name
	log.Infof(ctx, "tools/call %s", name)

	return result(s.registry.Call(ctx, name, req.GetArguments())), nil
}

// handleUnknown answers for the name the client asked for
func (s *Server) handleUnknown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx = logcontext.WithRequestID(ctx, logcontext.NewRequestID())
	name, _ := req.GetArguments()["name"].(string)
	log.Warnf(ctx, "tools/call for unknown tool %q", name)

	return result(s.registry.Call(ctx, name, nil)), nil
}

func result(resp tools.Response) *mcp.CallToolResult {
	if resp.IsError {
		return mcp.NewToolResultError(resp.Text)
	}
	return mcp.NewToolResultText(resp.Text)
}

// Serve speaks MCP over in and out until ctx is cancelled or in is closed.
// Protocol frames go to out only; diagnostics go to the logger.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := mcpserver.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(stdlog.New(log.Writer(), "", 0))

	log.Infof(ctx, "Seats.aero MCP server running on stdio")
	err := stdio.Listen(ctx, in, out)
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
