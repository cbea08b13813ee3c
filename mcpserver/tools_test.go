package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rphilander/sexpr/history"
	sexprsrv "github.com/rphilander/sexpr/server"
)

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])
	return text.Text
}

func newTestTools(t *testing.T, o sexprsrv.ServiceOptions) *tools {
	t.Helper()
	svc := sexprsrv.NewService(o)
	t.Cleanup(svc.Close)
	return &tools{backend: Local(svc)}
}

func TestRunTool(t *testing.T) {
	tl := newTestTools(t, sexprsrv.ServiceOptions{})
	res, err := tl.handleRun(context.Background(), callRequest(map[string]any{
		"source": `(print "x") (define (fib n) (if (= n 0) 0 (if (= n 1) 1 (+ (fib (- n 1)) (fib (- n 2)))))) (fib 50)`,
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var value map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &value))
	assert.Equal(t, float64(12586269025), value["result"])
	assert.Equal(t, "int", value["kind"])
	assert.Equal(t, "x", value["output"])
}

func TestRunToolFailure(t *testing.T) {
	tl := newTestTools(t, sexprsrv.ServiceOptions{})
	res, err := tl.handleRun(context.Background(), callRequest(map[string]any{
		"source": `(print "partial") (+ (abc 100) 10)`,
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "Undefined operator abc\noutput:\npartial", resultText(t, res))
}

func TestRunToolMissingSource(t *testing.T) {
	tl := newTestTools(t, sexprsrv.ServiceOptions{})
	res, err := tl.handleRun(context.Background(), callRequest(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHistoryTool(t *testing.T) {
	res, err := newTestTools(t, sexprsrv.ServiceOptions{}).handleHistory(context.Background(), callRequest(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, sexprsrv.ErrNoHistory.Error(), resultText(t, res))

	store, err := history.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer store.Close()

	tl := newTestTools(t, sexprsrv.ServiceOptions{History: store})
	for _, src := range []string{"1", "2", "3"} {
		_, err := tl.handleRun(context.Background(), callRequest(map[string]any{"source": src}))
		require.NoError(t, err)
	}
	res, err = tl.handleHistory(context.Background(), callRequest(map[string]any{"n": float64(2)}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "3", entries[0]["source"])
}

func TestRemoteBackend(t *testing.T) {
	svc := sexprsrv.NewService(sexprsrv.ServiceOptions{})
	defer svc.Close()
	sock := filepath.Join(t.TempDir(), "mcp.sock")
	srv, err := sexprsrv.Listen(sock, svc)
	require.NoError(t, err)
	go srv.Serve()
	defer srv.Shutdown()

	client, err := sexprsrv.Dial(sock)
	require.NoError(t, err)
	defer client.Close()

	tl := &tools{backend: Remote(client)}
	res, err := tl.handleRun(context.Background(), callRequest(map[string]any{"source": "(/ 1 0)"}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), `"text": "Infinity"`)
}

func TestNewServerRegistersTools(t *testing.T) {
	svc := sexprsrv.NewService(sexprsrv.ServiceOptions{})
	defer svc.Close()
	assert.NotNil(t, NewServer(Local(svc)))
}
