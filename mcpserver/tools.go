// Package mcpserver exposes the run service as MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	sexprsrv "github.com/rphilander/sexpr/server"
)

// Backend answers socket-protocol requests.
type Backend interface {
	Do(ctx context.Context, req map[string]any) (map[string]any, error)
}

type localBackend struct{ svc *sexprsrv.Service }

func (b localBackend) Do(ctx context.Context, req map[string]any) (map[string]any, error) {
	return b.svc.Handle(ctx, req), nil
}

// Local runs requests in-process on svc.
func Local(svc *sexprsrv.Service) Backend { return localBackend{svc} }

type remoteBackend struct{ client *sexprsrv.Client }

func (b remoteBackend) Do(_ context.Context, req map[string]any) (map[string]any, error) {
	return b.client.Send(req)
}

// Remote forwards requests to a running socket server.
func Remote(client *sexprsrv.Client) Backend { return remoteBackend{client} }

type tools struct {
	backend Backend
}

// NewServer returns an MCP server with the sexpr_run and sexpr_history
// tools bound to backend.
func NewServer(backend Backend) *server.MCPServer {
	t := &tools{backend: backend}
	s := server.NewMCPServer(
		sexprsrv.Name,
		sexprsrv.Version,
		server.WithToolCapabilities(false),
	)

	s.AddTool(
		mcp.NewTool("sexpr_run",
			mcp.WithDescription("Run an S-expression program. Returns the value of the last form, its kind and everything printed."),
			mcp.WithString("source",
				mcp.Required(),
				mcp.Description("Program text, e.g. (define (sq x) (* x x)) (sq 12)"),
			),
		),
		t.handleRun,
	)

	s.AddTool(
		mcp.NewTool("sexpr_history",
			mcp.WithDescription("List recent runs from the history database, newest first."),
			mcp.WithNumber("n",
				mcp.Description("Number of runs to return (default 20)"),
			),
		),
		t.handleHistory,
	)
	return s
}

func (t *tools) handleRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := request.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resp, err := t.backend.Do(ctx, map[string]any{"op": "run", "source": source})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return formatResult(resp)
}

func (t *tools) handleHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n := request.GetInt("n", 20)
	resp, err := t.backend.Do(ctx, map[string]any{"op": "history", "n": float64(n)})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return formatResult(resp)
}

// formatResult turns a protocol response into an MCP tool result. Output
// printed before a failure is kept in the error text.
func formatResult(resp map[string]any) (*mcp.CallToolResult, error) {
	ok, _ := resp["ok"].(bool)
	if !ok {
		errMsg, _ := resp["error"].(string)
		if errMsg == "" {
			errMsg = "unknown error"
		}
		if output, _ := resp["output"].(string); output != "" {
			errMsg = fmt.Sprintf("%s\noutput:\n%s", errMsg, output)
		}
		return mcp.NewToolResultError(errMsg), nil
	}
	out, err := json.MarshalIndent(resp["value"], "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}
