package sexpr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseOne(t *testing.T, src string) *Node {
	t.Helper()
	prog, err := Parse(src)
	require.NoError(t, err, "parse %q", src)
	require.Len(t, prog.Forms, 1, "parse %q", src)
	return prog.Forms[0]
}

func TestParseNumber(t *testing.T) {
	n := parseOne(t, "42")
	assert.Equal(t, NodeNumber, n.Kind)
	assert.Equal(t, IntVal(42), n.Value)

	n = parseOne(t, "3.14159")
	assert.Equal(t, NodeNumber, n.Kind)
	assert.Equal(t, FloatVal(3.14), n.Value)
	assert.Equal(t, "3.14159", n.Text)
}

func TestParseBool(t *testing.T) {
	n := parseOne(t, "true")
	assert.Equal(t, NodeBool, n.Kind)
	assert.Equal(t, BoolVal(true), n.Value)
}

func TestParseString(t *testing.T) {
	n := parseOne(t, `"hello (world) 12"`)
	assert.Equal(t, NodeString, n.Kind)
	assert.Equal(t, "hello (world) 12", n.Text)
	assert.Equal(t, TextVal("hello (world) 12"), n.Value)

	n = parseOne(t, `"42"`)
	assert.Equal(t, NodeString, n.Kind)
	assert.Equal(t, TextVal("42"), n.Value, "quoted text is never coerced")
}

func TestParseSymbol(t *testing.T) {
	n := parseOne(t, "foo-bar?")
	assert.Equal(t, NodeSymbol, n.Kind)
	assert.Equal(t, "foo-bar?", n.Text)
}

func TestParseList(t *testing.T) {
	n := parseOne(t, "(* (+ 1 2) (+ 2 2))")
	require.Equal(t, NodeList, n.Kind)
	require.Len(t, n.Children, 3)
	assert.Equal(t, "*", n.Children[0].Text)
	assert.Equal(t, "+ 1 2", n.Children[1].Text)
	assert.Equal(t, "* (+ 1 2) (+ 2 2)", n.Text)
	assert.Equal(t, "(* (+ 1 2) (+ 2 2))", n.String())
}

func TestParseTokensAgainstBrackets(t *testing.T) {
	n := parseOne(t, "(f(g 1)x)")
	require.Len(t, n.Children, 3)
	assert.Equal(t, "f", n.Children[0].Text)
	assert.Equal(t, NodeList, n.Children[1].Kind)
	assert.Equal(t, "x", n.Children[2].Text)
}

func TestParseWhitespace(t *testing.T) {
	n := parseOne(t, "\n\t( +\t1\r\n 2 )  ")
	require.Len(t, n.Children, 3)
	assert.Equal(t, IntVal(2), n.Children[2].Value)
}

func TestParseTopLevelForms(t *testing.T) {
	prog, err := Parse("(define (fn b a c) (+ a c (* 2 b))) (fn 3 2 3) 7 \"s\"")
	require.NoError(t, err)
	require.Len(t, prog.Forms, 4)
	assert.Equal(t, NodeList, prog.Forms[0].Kind)
	assert.Equal(t, NodeList, prog.Forms[1].Kind)
	assert.Equal(t, NodeNumber, prog.Forms[2].Kind)
	assert.Equal(t, NodeString, prog.Forms[3].Kind)
}

func TestParseEmpty(t *testing.T) {
	for _, src := range []string{"", "   \n\t"} {
		prog, err := Parse(src)
		require.NoError(t, err)
		assert.Empty(t, prog.Forms)
	}
}

func TestParseEmptyList(t *testing.T) {
	n := parseOne(t, "()")
	assert.Equal(t, NodeSymbol, n.Kind)
	assert.Equal(t, "", n.Text)
}

func TestParseNodeIDsUnique(t *testing.T) {
	prog, err := Parse("(+ (+ 1 2) (+ 1 2)) (+ 1 2)")
	require.NoError(t, err)
	seen := map[int]bool{}
	var walk func(n *Node)
	walk = func(n *Node) {
		assert.False(t, seen[n.ID], "duplicate id %d", n.ID)
		seen[n.ID] = true
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, f := range prog.Forms {
		walk(f)
	}
	assert.Len(t, seen, 14)
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"(x 123",
		"(()",
		"1 2)",
		")",
		"(+ 1 2))",
		`"unclosed`,
		`(print "a)`,
	}
	for _, src := range cases {
		_, err := Parse(src)
		require.Error(t, err, "parse %q", src)
		var se *SyntaxError
		assert.True(t, errors.As(err, &se), "parse %q: %T", src, err)
		assert.Equal(t, "Syntax error", err.Error())
	}
}

func TestParseBalanced(t *testing.T) {
	cases := []string{
		"(a (b (c (d))))",
		`(print "(" ")")`,
		"(if (= 1 1) (print \"a\") (print \"b\"))",
		"x y z",
	}
	for _, src := range cases {
		_, err := Parse(src)
		assert.NoError(t, err, "parse %q", src)
	}
}

func TestIncomplete(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"", false},
		{"(+ 1 2)", false},
		{"(+ 1", true},
		{"(define (f x)\n", true},
		{`(print "a)`, true},
		{`(print ")(")`, false},
		{"(+ 1 2))", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Incomplete(tt.src), tt.src)
	}
}
