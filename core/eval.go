package sexpr

import (
	"context"
	"math"
	"sort"
	"strings"

	"fortio.org/log"
)

// Function is a user definition created by define.
type Function struct {
	Name   string
	Params []string
	Body   *Node
}

// FunctionTable maps names to definitions. Redefinition overwrites.
type FunctionTable map[string]*Function

type builtinOp int

const (
	opCall builtinOp = iota
	opAdd
	opSub
	opMul
	opDiv
	opSqrt
	opIf
	opPrint
	opEq
	opDefine
)

var builtinOps = map[string]builtinOp{
	"+":      opAdd,
	"-":      opSub,
	"*":      opMul,
	"/":      opDiv,
	"sqrt":   opSqrt,
	"if":     opIf,
	"print":  opPrint,
	"=":      opEq,
	"define": opDefine,
}

func (op builtinOp) String() string {
	for name, o := range builtinOps {
		if o == op {
			return name
		}
	}
	return "call"
}

// Builtins lists the built-in operator names in sorted order.
func Builtins() []string {
	names := make([]string, 0, len(builtinOps))
	for name := range builtinOps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Interp holds the state of one execution: the function table, the
// evaluation cache and the output accumulator. It is not safe for
// concurrent use; independent runs use independent Interps.
type Interp struct {
	funcs    FunctionTable
	cache    *cache
	out      strings.Builder
	effects  int // prints and defines so far, for cache purity
	depth    int
	maxDepth int
	ctx      context.Context
}

// Lookup returns the definition registered under name.
func (in *Interp) Lookup(name string) (*Function, bool) {
	fn, ok := in.funcs[name]
	return fn, ok
}

// Functions returns the defined function names in sorted order.
func (in *Interp) Functions() []string {
	names := make([]string, 0, len(in.funcs))
	for name := range in.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CacheHits counts cache hits during the last Exec.
func (in *Interp) CacheHits() int { return in.cache.hits }

// eval is the cached entry point used for every node.
func (in *Interp) eval(n *Node, frame Frame) (Value, error) {
	key, cacheable := in.cache.key(n, frame)
	if cacheable {
		if v, ok := in.cache.get(key); ok {
			return v, nil
		}
	}
	effects := in.effects
	v, err := in.evalNode(n, frame)
	if err != nil {
		return Value{}, err
	}
	if cacheable {
		in.cache.put(key, v, in.effects == effects)
	}
	return v, nil
}

func (in *Interp) evalNode(n *Node, frame Frame) (Value, error) {
	switch n.Kind {
	case NodeNumber, NodeString, NodeBool:
		return n.Value, nil
	case NodeSymbol:
		if v, ok := frame.lookup(n.Text); ok {
			return v, nil
		}
		return Value{}, undefinedVariable(n.Text)
	}

	if len(n.Children) == 1 {
		return in.eval(n.Children[0], frame)
	}

	head, operands := n.Children[0], n.Children[1:]
	op := builtinOps[head.Text]
	log.LogVf("eval %s with %d operands", head.Text, len(operands))

	var res Value
	var err error
	switch op {
	case opAdd, opSub, opMul, opDiv:
		res, err = in.evalArith(op, operands, frame)
	case opSqrt:
		res, err = in.evalSqrt(operands, frame)
	case opIf:
		res, err = in.evalIf(operands, frame)
	case opPrint:
		res, err = in.evalPrint(operands, frame)
	case opEq:
		res, err = in.evalEq(operands, frame)
	case opDefine:
		res, err = in.evalDefine(operands)
	default:
		res, err = in.callFn(head.Text, operands, frame)
	}
	if err != nil {
		return Value{}, err
	}
	return CoerceValue(res), nil
}

// evalArith: + and * fold from their identity, - and / start from the
// first operand and apply the rest left to right.
func (in *Interp) evalArith(op builtinOp, operands []*Node, frame Frame) (Value, error) {
	var acc Value
	rest := operands
	switch op {
	case opAdd:
		acc = IntVal(0)
	case opMul:
		acc = IntVal(1)
	default:
		first, err := in.evalNumber(op, operands[0], frame)
		if err != nil {
			return Value{}, err
		}
		acc = first
		rest = operands[1:]
	}
	for _, o := range rest {
		v, err := in.evalNumber(op, o, frame)
		if err != nil {
			return Value{}, err
		}
		acc = applyArith(op, acc, v)
	}
	return acc, nil
}

// evalNumber evaluates n and checks it can take part in arithmetic. Bools
// count as 1 and 0.
func (in *Interp) evalNumber(op builtinOp, n *Node, frame Frame) (Value, error) {
	v, err := in.eval(n, frame)
	if err != nil {
		return Value{}, err
	}
	switch v.Kind {
	case ValInt, ValFloat:
		return v, nil
	case ValBool:
		if v.Bool {
			return IntVal(1), nil
		}
		return IntVal(0), nil
	}
	return Value{}, invalidOperand(v, op.String())
}

func applyArith(op builtinOp, a, b Value) Value {
	if op != opDiv && a.Kind == ValInt && b.Kind == ValInt {
		if n, ok := intArith(op, a.Int, b.Int); ok {
			return IntVal(n)
		}
	}
	x, y := asFloat(a), asFloat(b)
	switch op {
	case opAdd:
		return FloatVal(x + y)
	case opSub:
		return FloatVal(x - y)
	case opMul:
		return FloatVal(x * y)
	default:
		return FloatVal(x / y)
	}
}

// intArith reports ok=false on int64 overflow.
func intArith(op builtinOp, a, b int64) (int64, bool) {
	switch op {
	case opAdd:
		s := a + b
		return s, (s > a) == (b > 0)
	case opSub:
		d := a - b
		return d, (d < a) == (b > 0)
	case opMul:
		if a == 0 || b == 0 {
			return 0, true
		}
		p := a * b
		if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
			return 0, false
		}
		return p, p/b == a
	}
	return 0, false
}

func asFloat(v Value) float64 {
	if v.Kind == ValInt {
		return float64(v.Int)
	}
	return v.Float
}

func (in *Interp) evalSqrt(operands []*Node, frame Frame) (Value, error) {
	v, err := in.evalNumber(opSqrt, operands[0], frame)
	if err != nil {
		return Value{}, err
	}
	return FloatVal(math.Sqrt(asFloat(v))), nil
}

// evalIf evaluates exactly one branch. A missing branch yields Unit.
func (in *Interp) evalIf(operands []*Node, frame Frame) (Value, error) {
	cond, err := in.eval(operands[0], frame)
	if err != nil {
		return Value{}, err
	}
	branch := 2
	if cond.Truthy() {
		branch = 1
	}
	if branch >= len(operands) {
		return UnitVal(), nil
	}
	return in.eval(operands[branch], frame)
}

func (in *Interp) evalPrint(operands []*Node, frame Frame) (Value, error) {
	for _, o := range operands {
		v, err := in.eval(o, frame)
		if err != nil {
			return Value{}, err
		}
		in.out.WriteString(v.String())
		in.effects++
	}
	return UnitVal(), nil
}

// evalEq stops at the first operand that differs from the reference.
func (in *Interp) evalEq(operands []*Node, frame Frame) (Value, error) {
	ref, err := in.eval(operands[0], frame)
	if err != nil {
		return Value{}, err
	}
	for _, o := range operands[1:] {
		v, err := in.eval(o, frame)
		if err != nil {
			return Value{}, err
		}
		if !LooseEqual(ref, v) {
			return BoolVal(false), nil
		}
	}
	return BoolVal(true), nil
}

// evalDefine: (define (name params...) body). Nothing is evaluated.
func (in *Interp) evalDefine(operands []*Node) (Value, error) {
	if len(operands) < 2 || operands[0].Kind != NodeList {
		return Value{}, errMalformedDefine
	}
	sig := operands[0]
	fn := &Function{
		Name:   sig.Children[0].Text,
		Params: make([]string, 0, len(sig.Children)-1),
		Body:   operands[1],
	}
	for _, p := range sig.Children[1:] {
		fn.Params = append(fn.Params, p.Text)
	}
	in.funcs[fn.Name] = fn
	in.effects++
	in.cache.invalidate()
	log.LogVf("define %s %v", fn.Name, fn.Params)
	return UnitVal(), nil
}

// callFn binds arguments evaluated in the caller's frame to the callee's
// parameters. Missing arguments leave parameters unbound; extra operands are
// never evaluated.
func (in *Interp) callFn(name string, operands []*Node, frame Frame) (Value, error) {
	fn, ok := in.funcs[name]
	if !ok {
		return Value{}, undefinedOperator(name)
	}
	if in.ctx != nil {
		if err := in.ctx.Err(); err != nil {
			return Value{}, err
		}
	}
	if in.maxDepth > 0 && in.depth >= in.maxDepth {
		return Value{}, errMaxDepth
	}

	args := make(Frame, len(fn.Params))
	for i, param := range fn.Params {
		if i >= len(operands) {
			break
		}
		v, err := in.eval(operands[i], frame)
		if err != nil {
			return Value{}, err
		}
		args[param] = v
	}
	log.LogVf("call %s %v", name, args)

	in.depth++
	defer func() { in.depth-- }()
	return in.eval(fn.Body, args)
}
