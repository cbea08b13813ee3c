package server

import (
	"context"
	"fmt"

	sexpr "github.com/rphilander/sexpr/core"
)

// Handle answers one request map the way the socket protocol does. It is
// shared by the socket server and in-process hosts.
func (s *Service) Handle(ctx context.Context, msg map[string]any) map[string]any {
	id, _ := msg["id"].(string)

	op, _ := msg["op"].(string)
	if op == "" {
		// No op: describe the service
		return manual(id)
	}

	switch op {
	case "run":
		return s.handleRun(ctx, id, msg)
	case "traces":
		return s.handleTraces(id, msg)
	case "history":
		return s.handleHistory(ctx, id, msg)
	default:
		return errorResponse(id, fmt.Sprintf("unknown op: %s", op))
	}
}

func manual(id string) map[string]any {
	return map[string]any{
		"id": id,
		"ok": true,
		"value": map[string]any{
			"name":    Name,
			"version": Version,
			"ops": map[string]any{
				"run":     "Run a program. Params: source (string). Returns result, kind and output.",
				"traces":  "Recent runs held in memory. Params: n (int, optional).",
				"history": "Recent runs from the history database. Params: n (int, optional, default 20).",
			},
			"builtins": sexpr.Builtins(),
		},
	}
}

func (s *Service) handleRun(ctx context.Context, id string, msg map[string]any) map[string]any {
	source, ok := msg["source"].(string)
	if !ok {
		return errorResponse(id, "run: missing 'source' string")
	}
	out, _ := s.Run(ctx, source)
	return runResponse(id, out)
}

func runResponse(id string, out sexpr.Outcome) map[string]any {
	if out.Failed() {
		return map[string]any{"id": id, "ok": false, "error": out.Message(), "output": out.Output}
	}
	return map[string]any{
		"id": id,
		"ok": true,
		"value": map[string]any{
			"result": sexpr.ValueToGo(out.Value),
			"text":   out.Value.String(),
			"kind":   out.Value.KindName(),
			"output": out.Output,
		},
	}
}

func (s *Service) handleTraces(id string, msg map[string]any) map[string]any {
	n, err := intParam(msg, "n", 0)
	if err != nil {
		return errorResponse(id, "traces: "+err.Error())
	}
	traces := s.Traces(n)
	list := make([]any, len(traces))
	for i := range traces {
		list[i] = traces[i].ToMap()
	}
	return map[string]any{"id": id, "ok": true, "value": list}
}

func (s *Service) handleHistory(ctx context.Context, id string, msg map[string]any) map[string]any {
	n, err := intParam(msg, "n", 20)
	if err != nil {
		return errorResponse(id, "history: "+err.Error())
	}
	entries, err := s.History(ctx, n)
	if err != nil {
		return errorResponse(id, err.Error())
	}
	list := make([]any, len(entries))
	for i, e := range entries {
		list[i] = e.ToMap()
	}
	return map[string]any{"id": id, "ok": true, "value": list}
}

// intParam reads an optional integer field; JSON numbers arrive as float64.
func intParam(msg map[string]any, key string, fallback int) (int, error) {
	raw, ok := msg[key]
	if !ok || raw == nil {
		return fallback, nil
	}
	f, ok := raw.(float64)
	if !ok || f != float64(int(f)) {
		return 0, fmt.Errorf("'%s' must be an integer", key)
	}
	return int(f), nil
}

func errorResponse(id, errMsg string) map[string]any {
	return map[string]any{"id": id, "ok": false, "error": errMsg}
}
