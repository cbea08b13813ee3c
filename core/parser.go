package sexpr

import (
	"strconv"
	"strings"
)

type NodeKind int

const (
	NodeNumber NodeKind = iota
	NodeString
	NodeBool
	NodeSymbol
	NodeList
)

// Node is either a leaf (Value set, no Children) or a list with at least one
// child. ID is unique within one parse and is the node's cache identity.
// Text is the raw source: the token for leaves, the characters between the
// quotes for strings, the characters between the brackets for lists.
type Node struct {
	ID       int
	Kind     NodeKind
	Text     string
	Value    Value
	Children []*Node
}

func (n *Node) IsLeaf() bool { return n.Kind != NodeList }

func (n *Node) String() string {
	switch n.Kind {
	case NodeString:
		return strconv.Quote(n.Text)
	case NodeList:
		parts := make([]string, len(n.Children))
		for i, c := range n.Children {
			parts[i] = c.String()
		}
		return "(" + strings.Join(parts, " ") + ")"
	default:
		return n.Text
	}
}

// Program is the implicit top-level sequence of forms.
type Program struct {
	Source string
	Forms  []*Node
}

type tokenKind int

const (
	tokLParen tokenKind = iota
	tokRParen
	tokString
	tokAtom
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// tokenize splits src into brackets, quoted strings and bare atoms.
// Brackets inside a string are part of the string.
func tokenize(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == '(':
			toks = append(toks, token{kind: tokLParen, pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, pos: i})
			i++
		case c == '"':
			end := strings.IndexByte(src[i+1:], '"')
			if end < 0 {
				return nil, &SyntaxError{Pos: i}
			}
			toks = append(toks, token{kind: tokString, text: src[i+1 : i+1+end], pos: i})
			i += end + 2
		case isSpace(c):
			i++
		default:
			start := i
			for i < len(src) && !isDelimiter(src[i]) {
				i++
			}
			toks = append(toks, token{kind: tokAtom, text: src[start:i], pos: start})
		}
	}
	return toks, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDelimiter(c byte) bool {
	return isSpace(c) || c == '(' || c == ')' || c == '"'
}

type parser struct {
	src    string
	toks   []token
	pos    int
	nextID int
}

// Parse turns source text into a Program. Any number of top-level forms is
// accepted; unbalanced brackets or an unterminated string give a
// *SyntaxError.
func Parse(src string) (*Program, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, toks: toks}
	prog := &Program{Source: src}
	for p.pos < len(p.toks) {
		n, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		prog.Forms = append(prog.Forms, n)
	}
	return prog, nil
}

func (p *parser) id() int {
	p.nextID++
	return p.nextID
}

func (p *parser) parseNode() (*Node, error) {
	tok := p.toks[p.pos]
	switch tok.kind {
	case tokLParen:
		return p.parseList()
	case tokRParen:
		return nil, &SyntaxError{Pos: tok.pos}
	case tokString:
		p.pos++
		return &Node{ID: p.id(), Kind: NodeString, Text: tok.text, Value: TextVal(tok.text)}, nil
	default:
		p.pos++
		return p.parseAtom(tok.text), nil
	}
}

func (p *parser) parseList() (*Node, error) {
	open := p.toks[p.pos]
	p.pos++ // skip '('
	n := &Node{ID: p.id(), Kind: NodeList}
	for {
		if p.pos >= len(p.toks) {
			return nil, &SyntaxError{Pos: open.pos}
		}
		tok := p.toks[p.pos]
		if tok.kind == tokRParen {
			p.pos++ // skip ')'
			n.Text = p.src[open.pos+1 : tok.pos]
			if len(n.Children) == 0 {
				// "()" has nothing to evaluate; it stays a nameless symbol.
				return &Node{ID: n.ID, Kind: NodeSymbol, Value: TextVal("")}, nil
			}
			return n, nil
		}
		child, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, child)
	}
}

func (p *parser) parseAtom(text string) *Node {
	val := Coerce(text)
	kind := NodeSymbol
	switch {
	case val.IsNumber():
		kind = NodeNumber
	case val.Kind == ValBool:
		kind = NodeBool
	}
	return &Node{ID: p.id(), Kind: kind, Text: text, Value: val}
}

// Incomplete reports whether src stops inside an open list or string, so
// an interactive reader should ask for more input before parsing.
func Incomplete(src string) bool {
	depth := 0
	inString := false
	for i := 0; i < len(src); i++ {
		switch c := src[i]; {
		case c == '"':
			inString = !inString
		case inString:
		case c == '(':
			depth++
		case c == ')':
			depth--
		}
	}
	return inString || depth > 0
}
