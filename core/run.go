package sexpr

import (
	"context"
	"fmt"

	"fortio.org/log"
)

// DefaultMaxDepth bounds nested user function calls.
const DefaultMaxDepth = 10000

type Option func(*Interp)

func WithCacheMode(m CacheMode) Option {
	return func(in *Interp) { in.cache = newCache(m) }
}

// WithMaxDepth sets the call depth limit; n <= 0 disables it.
func WithMaxDepth(n int) Option {
	return func(in *Interp) { in.maxDepth = n }
}

// NewInterp returns an Interp with an empty function table.
func NewInterp(opts ...Option) *Interp {
	in := &Interp{
		funcs:    make(FunctionTable),
		cache:    newCache(CacheIdentity),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Outcome is the result of one run. Output holds everything printed before
// the run finished or failed.
type Outcome struct {
	Value  Value
	Output string
	Err    error
}

func (o Outcome) Failed() bool { return o.Err != nil }

// Message is the failure text, or "" on success.
func (o Outcome) Message() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// Run parses and evaluates src in a fresh Interp.
func Run(src string, opts ...Option) Outcome {
	return RunContext(context.Background(), src, opts...)
}

// RunContext is Run with cancellation checked between top-level forms and
// before every user function call.
func RunContext(ctx context.Context, src string, opts ...Option) Outcome {
	return NewInterp(opts...).Exec(ctx, src)
}

// Exec evaluates src on in. Definitions made by earlier calls stay visible;
// output and cache start empty on every call. The value of the last
// top-level form is the result.
func (in *Interp) Exec(ctx context.Context, src string) (out Outcome) {
	in.out.Reset()
	in.cache.reset()
	in.depth = 0
	in.ctx = ctx
	defer func() {
		in.ctx = nil
		if r := recover(); r != nil {
			log.Errf("run panicked: %v", r)
			out = Outcome{Output: in.out.String(), Err: fmt.Errorf("internal error: %v", r)}
		}
	}()

	prog, err := Parse(src)
	if err != nil {
		return Outcome{Err: err}
	}

	result := UnitVal()
	for _, form := range prog.Forms {
		if err := ctx.Err(); err != nil {
			return Outcome{Output: in.out.String(), Err: err}
		}
		v, err := in.eval(form, nil)
		if err != nil {
			return Outcome{Output: in.out.String(), Err: err}
		}
		result = v
	}
	return Outcome{Value: result, Output: in.out.String()}
}
