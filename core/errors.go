package sexpr

import "fmt"

// SyntaxError is returned when brackets or quotes do not balance. The
// message is fixed; Pos is the byte offset where scanning gave up.
type SyntaxError struct {
	Pos int
}

func (e *SyntaxError) Error() string {
	return "Syntax error"
}

// RuntimeError aborts evaluation at the first failure.
type RuntimeError struct {
	Msg string
}

func (e *RuntimeError) Error() string {
	return e.Msg
}

func runtimeErrorf(format string, args ...any) error {
	return &RuntimeError{Msg: fmt.Sprintf(format, args...)}
}

func undefinedVariable(name string) error {
	return runtimeErrorf("Undefined variable %s", name)
}

func undefinedOperator(name string) error {
	return runtimeErrorf("Undefined operator %s", name)
}

func invalidOperand(v Value, op string) error {
	return runtimeErrorf("Invalid operand %s for %s", v.String(), op)
}

var (
	errMalformedDefine = &RuntimeError{Msg: "Malformed define"}
	errMaxDepth        = &RuntimeError{Msg: "Maximum call depth exceeded"}
)
