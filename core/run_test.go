package sexpr

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunScenarios(t *testing.T) {
	cases := []struct {
		src    string
		result string
		output string
		err    string
	}{
		{src: "(* (+ 1 2) (+ 2 2))", result: "12"},
		{src: "(- 5.2 1 0.3)", result: "3.9"},
		{src: "(define (fn b a c) (+ a c (* 2 b))) (fn 3 2 3)", result: "11"},
		{src: "(x 123", err: "Syntax error"},
		{src: "(+ (abc 100) 10)", err: "Undefined operator abc"},
		{src: "(define (fn z) (+ 1 x)) (fn 1)", err: "Undefined variable x"},
		{src: `(if (= 1 1) (print "a") (print "b"))`, result: "undefined", output: "a"},
		{src: "(= (sqrt 100) 10 (+ 5 5))", result: "true"},
		{src: "", result: "undefined"},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			out := Run(tc.src)
			if tc.err != "" {
				require.Error(t, out.Err)
				assert.True(t, out.Failed())
				assert.Equal(t, tc.err, out.Message())
				assert.Equal(t, UnitVal(), out.Value)
				return
			}
			require.NoError(t, out.Err)
			assert.False(t, out.Failed())
			assert.Equal(t, "", out.Message())
			assert.Equal(t, tc.result, out.Value.String())
			assert.Equal(t, tc.output, out.Output)
		})
	}
}

func TestRunSyntaxErrorHasNoOutput(t *testing.T) {
	out := Run(`(print "a") (print "b"`)
	var se *SyntaxError
	require.True(t, errors.As(out.Err, &se))
	assert.Equal(t, "", out.Output)
}

func TestRunKeepsOutputOnFailure(t *testing.T) {
	out := Run(`(print "a") (print "b" c) (print "never")`)
	require.Error(t, out.Err)
	assert.Equal(t, "Undefined variable c", out.Message())
	assert.Equal(t, "ab", out.Output)

	var re *RuntimeError
	assert.True(t, errors.As(out.Err, &re))
}

func TestRunLastFormIsResult(t *testing.T) {
	out := Run(`1 2 (+ 1 2)`)
	require.NoError(t, out.Err)
	assert.Equal(t, IntVal(3), out.Value)

	out = Run(`(+ 1 2) (define (f) 1)`)
	require.NoError(t, out.Err)
	assert.Equal(t, UnitVal(), out.Value)
}

func TestRunIsolation(t *testing.T) {
	out := Run("(define (f x) 1) (f 0)")
	require.NoError(t, out.Err)
	assert.Equal(t, IntVal(1), out.Value)

	out = Run("(f 0)")
	assert.Equal(t, "Undefined operator f", out.Message())
}

func TestRunMaxDepth(t *testing.T) {
	out := Run("(define (loop n) (loop n)) (loop 1)", WithMaxDepth(100))
	require.Error(t, out.Err)
	assert.Equal(t, "Maximum call depth exceeded", out.Message())

	out = Run("(define (down n) (if (= n 0) 0 (down (- n 1)))) (down 99)", WithMaxDepth(100))
	require.NoError(t, out.Err)
	assert.Equal(t, IntVal(0), out.Value)
}

func TestRunContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := RunContext(ctx, "(+ 1 2)")
	require.Error(t, out.Err)
	assert.True(t, errors.Is(out.Err, context.Canceled))
}

func TestExecSessionKeepsDefinitions(t *testing.T) {
	in := NewInterp()
	out := in.Exec(t.Context(), `(define (sq x) (* x x)) (print "defined")`)
	require.NoError(t, out.Err)
	assert.Equal(t, "defined", out.Output)

	out = in.Exec(t.Context(), "(sq 12)")
	require.NoError(t, out.Err)
	assert.Equal(t, IntVal(144), out.Value)
	assert.Equal(t, "", out.Output, "output starts empty on every Exec")

	assert.Equal(t, []string{"sq"}, in.Functions())
	fn, ok := in.Lookup("sq")
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, fn.Params)
}

func TestRunConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	results := make([]Outcome, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			src := fmt.Sprintf(`(define (f x) (+ x %d)) (print "r%d") (f 1)`, i, i)
			results[i] = Run(src)
		}(i)
	}
	wg.Wait()
	for i, out := range results {
		require.NoError(t, out.Err)
		assert.Equal(t, IntVal(int64(i+1)), out.Value)
		assert.Equal(t, fmt.Sprintf("r%d", i), out.Output)
	}
}

func TestBuiltins(t *testing.T) {
	assert.Equal(t, []string{"*", "+", "-", "/", "=", "define", "if", "print", "sqrt"}, Builtins())
}
