package formula

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

const (
	// MaxLength bounds the formula source in bytes.
	MaxLength = 4096
	// MaxDepth bounds nesting of parentheses and unary operators.
	MaxDepth = 256
)

type node interface {
	String() string
}

type numberNode struct {
	value float64
}

type identNode struct {
	name string
	pos  int
}

type unaryNode struct {
	op      tokenKind
	operand node
}

type binaryNode struct {
	op          tokenKind
	left, right node
}

func (n *numberNode) String() string { return strconv.FormatFloat(n.value, 'g', -1, 64) }
func (n *identNode) String() string  { return n.name }

func (n *unaryNode) String() string {
	if n.op == tokMinus {
		return "(-" + n.operand.String() + ")"
	}
	return "(+" + n.operand.String() + ")"
}

func (n *binaryNode) String() string {
	return "(" + n.left.String() + " " + strings.Trim(n.op.String(), "'") + " " + n.right.String() + ")"
}

// Grammar:
//
//	expr    = term { ("+" | "-") term }
//	term    = unary { ("*" | "/") unary }
//	unary   = ("-" | "+") unary | power
//	power   = primary [ "**" unary ]
//	primary = number | identifier | "(" expr ")"
type parser struct {
	toks  []token
	pos   int
	depth int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) enter(at int) error {
	p.depth++
	if p.depth > MaxDepth {
		return &SyntaxError{Pos: at, Msg: fmt.Sprintf("expression nested deeper than %d levels", MaxDepth)}
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

func (p *parser) parseExpr() (node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokPlus && t.kind != tokMinus {
			return left, nil
		}
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: t.kind, left: left, right: right}
	}
}

func (p *parser) parseTerm() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokStar && t.kind != tokSlash {
			return left, nil
		}
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: t.kind, left: left, right: right}
	}
}

func (p *parser) parseUnary() (node, error) {
	t := p.peek()
	if t.kind != tokMinus && t.kind != tokPlus {
		return p.parsePower()
	}
	p.next()
	if err := p.enter(t.pos); err != nil {
		return nil, err
	}
	defer p.leave()
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &unaryNode{op: t.kind, operand: operand}, nil
}

func (p *parser) parsePower() (node, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokPow {
		return base, nil
	}
	t := p.next()
	if err := p.enter(t.pos); err != nil {
		return nil, err
	}
	defer p.leave()
	exp, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &binaryNode{op: tokPow, left: base, right: exp}, nil
}

func (p *parser) parsePrimary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return &numberNode{value: t.value}, nil
	case tokIdent:
		if p.peek().kind == tokLParen {
			return nil, &SyntaxError{Pos: p.peek().pos, Msg: fmt.Sprintf("function calls are not allowed (%s)", t.text)}
		}
		return &identNode{name: t.text, pos: t.pos}, nil
	case tokLParen:
		if err := p.enter(t.pos); err != nil {
			return nil, err
		}
		defer p.leave()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, &SyntaxError{Pos: closing.pos, Msg: fmt.Sprintf("expected ')' but found %v", closing.kind)}
		}
		return inner, nil
	default:
		return nil, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %v", t.kind)}
	}
}

// Expression is a compiled formula, safe for concurrent evaluation.
type Expression struct {
	src   string
	root  node
	names []string
}

// Compile parses src into an Expression.
func Compile(src string) (*Expression, error) {
	if len(src) > MaxLength {
		return nil, &SyntaxError{Pos: MaxLength, Msg: fmt.Sprintf("formula longer than %d bytes", MaxLength)}
	}
	if strings.TrimSpace(src) == "" {
		return nil, &SyntaxError{Pos: 0, Msg: "empty formula"}
	}

	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %v after expression", t.kind)}
	}

	var names []string
	collectIdents(root, &names)
	slices.Sort(names)
	names = slices.Compact(names)

	return &Expression{src: src, root: root, names: names}, nil
}

func collectIdents(n node, out *[]string) {
	switch n := n.(type) {
	case *identNode:
		*out = append(*out, n.name)
	case *unaryNode:
		collectIdents(n.operand, out)
	case *binaryNode:
		collectIdents(n.left, out)
		collectIdents(n.right, out)
	}
}

// Source returns the formula text as given.
func (e *Expression) Source() string { return e.src }

// Identifiers returns the distinct identifiers referenced, sorted.
func (e *Expression) Identifiers() []string { return slices.Clone(e.names) }

// String returns the fully parenthesized form of the expression.
func (e *Expression) String() string { return e.root.String() }
