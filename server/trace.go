package server

import (
	"time"

	sexpr "github.com/rphilander/sexpr/core"
	"github.com/rphilander/sexpr/history"
)

// Trace captures one run: its source, the value or failure it produced and
// the output printed along the way.
type Trace struct {
	Source    string
	Result    sexpr.Value
	Output    string
	Error     string // non-empty on failure
	Duration  time.Duration
	Timestamp time.Time
}

func newTrace(source string, out sexpr.Outcome, took time.Duration, at time.Time) *Trace {
	return &Trace{
		Source:    source,
		Result:    out.Value,
		Output:    out.Output,
		Error:     out.Message(),
		Duration:  took,
		Timestamp: at,
	}
}

// ToMap converts a Trace for the traces op and the HTTP API.
func (t *Trace) ToMap() map[string]any {
	m := map[string]any{
		"source":      t.Source,
		"output":      t.Output,
		"duration_ms": float64(t.Duration) / float64(time.Millisecond),
		"timestamp":   t.Timestamp.UTC().Format(time.RFC3339),
	}
	if t.Error != "" {
		m["error"] = t.Error
		m["result"] = nil
	} else {
		m["error"] = nil
		m["result"] = sexpr.ValueToGo(t.Result)
		m["kind"] = t.Result.KindName()
	}
	return m
}

// Entry converts a Trace into a history row.
func (t *Trace) Entry() history.Entry {
	e := history.Entry{
		Source:    t.Source,
		Output:    t.Output,
		Error:     t.Error,
		Duration:  t.Duration,
		CreatedAt: t.Timestamp,
	}
	if t.Error == "" {
		e.Result = t.Result.String()
		e.Kind = t.Result.KindName()
	}
	return e
}
