package sequence

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/gyaneshwarpardhi/fwconfig/internal/cfgerr"
)

// -----------------------------------------------------------------------
// AST nodes
// -----------------------------------------------------------------------

// Expr is a parsed sequence expression such as "a + b * (c + ~d)".
type Expr interface {
	exprNode()
	String() string
}

// RefExpr names a module or sequence; Invert is set by a leading "~".
type RefExpr struct {
	Name   string
	Invert bool
	Pos    int
}

func (*RefExpr) exprNode() {}

func (e *RefExpr) String() string {
	if e.Invert {
		return "~" + e.Name
	}
	return e.Name
}

// ConcatExpr is Left followed by Right. Op is '+' or '*'; both concatenate.
type ConcatExpr struct {
	Op    byte
	Left  Expr
	Right Expr
}

func (*ConcatExpr) exprNode() {}

func (e *ConcatExpr) String() string {
	return e.Left.String() + " " + string(e.Op) + " " + group(e.Right)
}

func group(e Expr) string {
	if _, ok := e.(*ConcatExpr); ok {
		return "(" + e.String() + ")"
	}
	return e.String()
}

// -----------------------------------------------------------------------
// Tokenizer
// -----------------------------------------------------------------------

type tokenKind int

const (
	tokWord tokenKind = iota
	tokOp             // + or *
	tokNot            // ~
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	kind tokenKind
	val  string
	pos  int
}

func isWordChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func tokenize(expr string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(expr) {
		ch := rune(expr[i])
		switch {
		case unicode.IsSpace(ch):
			i++
		case ch == '(':
			tokens = append(tokens, token{tokLParen, "(", i})
			i++
		case ch == ')':
			tokens = append(tokens, token{tokRParen, ")", i})
			i++
		case ch == '+' || ch == '*':
			tokens = append(tokens, token{tokOp, string(ch), i})
			i++
		case ch == '~':
			tokens = append(tokens, token{tokNot, "~", i})
			i++
		case isWordChar(ch):
			start := i
			for i < len(expr) && isWordChar(rune(expr[i])) {
				i++
			}
			tokens = append(tokens, token{tokWord, expr[start:i], start})
		default:
			return nil, fmt.Errorf("unexpected character %q at position %d", ch, i)
		}
	}
	tokens = append(tokens, token{tokEOF, "", len(expr)})
	return tokens, nil
}

// -----------------------------------------------------------------------
// Parser
// -----------------------------------------------------------------------

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

// Parse compiles a sequence expression. Grammar:
//
//	expr := term (("+" | "*") term)*
//	term := "~"? name | "(" expr ")"
func Parse(expr string) (Expr, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return nil, cfgerr.Malformed("", "sequence %q: %v", expr, err)
	}
	p := &parser{tokens: tokens}
	if p.peek().kind == tokEOF {
		return nil, cfgerr.Malformed("", "sequence expression is empty")
	}
	e, err := p.parseExpr()
	if err == nil && p.peek().kind != tokEOF {
		t := p.peek()
		err = fmt.Errorf("unexpected %q at position %d", t.val, t.pos)
	}
	if err != nil {
		return nil, cfgerr.Malformed("", "sequence %q: %v", expr, err)
	}
	return e, nil
}

func (p *parser) parseExpr() (Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOp {
		op := p.next().val[0]
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &ConcatExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseTerm() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokNot:
		w := p.next()
		if w.kind != tokWord {
			return nil, fmt.Errorf("~ must be followed by a module label at position %d", w.pos)
		}
		return &RefExpr{Name: w.val, Invert: true, Pos: w.pos}, nil
	case tokWord:
		return &RefExpr{Name: t.val, Pos: t.pos}, nil
	case tokLParen:
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if c := p.next(); c.kind != tokRParen {
			return nil, fmt.Errorf("expected ) at position %d", c.pos)
		}
		return e, nil
	case tokEOF:
		return nil, errors.New("unexpected end of expression")
	}
	return nil, fmt.Errorf("unexpected %q at position %d", t.val, t.pos)
}

// Refs returns every referenced name in order of appearance.
func Refs(e Expr) []*RefExpr {
	switch x := e.(type) {
	case *RefExpr:
		return []*RefExpr{x}
	case *ConcatExpr:
		return append(Refs(x.Left), Refs(x.Right)...)
	}
	return nil
}

// Build turns e into a sequence named name, resolving each reference with
// resolve. Every failed reference is reported.
func Build(name string, e Expr, resolve func(ref *RefExpr) (Item, error)) (*Sequence, error) {
	var errs []error
	var items []Item
	for _, ref := range Refs(e) {
		it, err := resolve(ref)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ref.Invert {
			it = Not(it)
		}
		items = append(items, it)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return New(name, items...), nil
}

// Format renders labels joined with " + ".
func Format(labels []string) string {
	return strings.Join(labels, " + ")
}
