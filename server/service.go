package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"fortio.org/log"

	sexpr "github.com/rphilander/sexpr/core"
	"github.com/rphilander/sexpr/history"
)

// ErrNoHistory is returned by History when no store is configured.
var ErrNoHistory = errors.New("history: no store configured")

// ServiceOptions configures a Service. Zero values mean: identity cache,
// default call depth, no timeout, 1000 traces, no history.
type ServiceOptions struct {
	Cache     sexpr.CacheMode
	MaxDepth  int
	Timeout   time.Duration
	MaxTraces int
	History   *history.Store
}

// Service runs sources for every host (socket, HTTP, MCP). Each run gets
// its own interpreter in the caller's goroutine; traces and history writes
// go through a single actor goroutine.
type Service struct {
	opts      []sexpr.Option
	timeout   time.Duration
	store     *history.Store
	maxTraces int
	traces    []Trace

	requests  chan func()
	closeOnce sync.Once
	done      chan struct{}
}

func NewService(o ServiceOptions) *Service {
	if o.MaxTraces <= 0 {
		o.MaxTraces = 1000
	}
	opts := []sexpr.Option{sexpr.WithCacheMode(o.Cache)}
	if o.MaxDepth > 0 {
		opts = append(opts, sexpr.WithMaxDepth(o.MaxDepth))
	}
	s := &Service{
		opts:      opts,
		timeout:   o.Timeout,
		store:     o.History,
		maxTraces: o.MaxTraces,
		requests:  make(chan func(), 64),
		done:      make(chan struct{}),
	}
	go s.actorLoop()
	return s
}

// actorLoop is the single goroutine that owns traces and history writes.
func (s *Service) actorLoop() {
	defer close(s.done)
	for fn := range s.requests {
		fn()
	}
}

// do runs fn on the actor and waits for it.
func (s *Service) do(fn func()) {
	finished := make(chan struct{})
	s.requests <- func() {
		defer close(finished)
		fn()
	}
	<-finished
}

// Run executes source and records the trace. The configured timeout, if
// any, bounds the run.
func (s *Service) Run(ctx context.Context, source string) (sexpr.Outcome, *Trace) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	start := time.Now()
	out := sexpr.RunContext(ctx, source, s.opts...)
	tr := newTrace(source, out, time.Since(start), start)

	if out.Failed() {
		log.LogVf("run failed after %v: %s", tr.Duration, out.Message())
	} else {
		log.LogVf("run ok after %v: %s", tr.Duration, out.Value)
	}

	s.do(func() {
		s.appendTrace(tr)
		if s.store != nil {
			if _, err := s.store.Record(context.Background(), tr.Entry()); err != nil {
				log.Errf("record history: %v", err)
			}
		}
	})
	return out, tr
}

// appendTrace adds a trace and enforces the maxTraces cap.
func (s *Service) appendTrace(t *Trace) {
	s.traces = append(s.traces, *t)
	if len(s.traces) > s.maxTraces {
		// Drop oldest traces
		excess := len(s.traces) - s.maxTraces
		s.traces = s.traces[excess:]
	}
}

// Traces returns the last n traces, oldest first. n <= 0 returns all.
func (s *Service) Traces(n int) []Trace {
	var result []Trace
	s.do(func() {
		count := len(s.traces)
		if n > 0 && n < count {
			count = n
		}
		result = make([]Trace, count)
		copy(result, s.traces[len(s.traces)-count:])
	})
	return result
}

// History returns the newest n recorded runs.
func (s *Service) History(ctx context.Context, n int) ([]history.Entry, error) {
	if s.store == nil {
		return nil, ErrNoHistory
	}
	return s.store.Recent(ctx, n)
}

// Close stops the actor. Run must not be called afterwards.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		close(s.requests)
		<-s.done
	})
}
