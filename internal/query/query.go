// Package query compiles row filter expressions such as
// "treated == 1 and (age >= 60 or stage > 2)" into dataset predicates.
package query

import (
	"fmt"
	"sort"

	"gosurv/domain/dataset"
	"gosurv/internal/errors"
)

// Expr is a parsed filter expression
type Expr interface {
	Predicate() dataset.Predicate
	columns(into map[string]bool)
}

type andExpr struct{ left, right Expr }
type orExpr struct{ left, right Expr }
type notExpr struct{ inner Expr }

// comparison compares a column against a constant; flipped comparisons are normalised.
type comparison struct {
	column string
	op     string
	value  float64
}

func (e andExpr) Predicate() dataset.Predicate {
	return dataset.And(e.left.Predicate(), e.right.Predicate())
}
func (e orExpr) Predicate() dataset.Predicate {
	return dataset.Or(e.left.Predicate(), e.right.Predicate())
}
func (e notExpr) Predicate() dataset.Predicate { return dataset.Not(e.inner.Predicate()) }

func (c comparison) Predicate() dataset.Predicate {
	switch c.op {
	case "==":
		return dataset.Eq(c.column, c.value)
	case "!=":
		return dataset.Ne(c.column, c.value)
	case "<":
		return dataset.Lt(c.column, c.value)
	case "<=":
		return dataset.Le(c.column, c.value)
	case ">":
		return dataset.Gt(c.column, c.value)
	default:
		return dataset.Ge(c.column, c.value)
	}
}

func (e andExpr) columns(into map[string]bool) { e.left.columns(into); e.right.columns(into) }
func (e orExpr) columns(into map[string]bool)  { e.left.columns(into); e.right.columns(into) }
func (e notExpr) columns(into map[string]bool) { e.inner.columns(into) }
func (c comparison) columns(into map[string]bool) {
	into[c.column] = true
}

// Columns lists the column names an expression refers to, sorted
func Columns(e Expr) []string {
	set := make(map[string]bool)
	e.columns(set)
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Parse parses a filter expression.
//
//	expr   := term { ("or" | "|") term }
//	term   := factor { ("and" | "&") factor }
//	factor := ("not" | "~" | "!") factor | "(" expr ")" | operand op operand
func Parse(src string) (Expr, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("query %q: %w", src, err))
	}
	p := &parser{toks: toks}
	if p.peek().kind == tokEOF {
		return nil, errors.InvalidInput("query is empty")
	}
	e, err := p.expr()
	if err == nil && p.peek().kind != tokEOF {
		err = fmt.Errorf("position %d: unexpected %q", p.peek().pos, p.peek().text)
	}
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("query %q: %w", src, err))
	}
	return e, nil
}

// Compile parses src and checks every referenced column exists in table.
func Compile(src string, table *dataset.Table) (dataset.Predicate, error) {
	e, err := Parse(src)
	if err != nil {
		return nil, err
	}
	if table != nil {
		for _, c := range Columns(e) {
			if !table.HasColumn(c) {
				return nil, errors.InvalidInput(fmt.Sprintf("query %q: unknown column %q", src, c))
			}
		}
	}
	return e.Predicate(), nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expr() (Expr, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		p.next()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = orExpr{left, right}
	}
	return left, nil
}

func (p *parser) term() (Expr, error) {
	left, err := p.factor()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		p.next()
		right, err := p.factor()
		if err != nil {
			return nil, err
		}
		left = andExpr{left, right}
	}
	return left, nil
}

func (p *parser) factor() (Expr, error) {
	switch t := p.peek(); t.kind {
	case tokNot:
		p.next()
		inner, err := p.factor()
		if err != nil {
			return nil, err
		}
		return notExpr{inner}, nil

	case tokLParen:
		p.next()
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokRParen {
			return nil, fmt.Errorf("position %d: expected ')'", p.peek().pos)
		}
		p.next()
		return e, nil
	}
	return p.comparison()
}

var flipped = map[string]string{"==": "==", "!=": "!=", "<": ">", "<=": ">=", ">": "<", ">=": "<="}

func (p *parser) comparison() (Expr, error) {
	left := p.next()
	op := p.next()
	right := p.next()

	if op.kind != tokOp {
		return nil, fmt.Errorf("position %d: expected comparison operator after %q", op.pos, left.text)
	}
	switch {
	case left.kind == tokIdent && right.kind == tokNumber:
		return comparison{column: left.text, op: op.text, value: right.num}, nil
	case left.kind == tokNumber && right.kind == tokIdent:
		return comparison{column: right.text, op: flipped[op.text], value: left.num}, nil
	}
	return nil, fmt.Errorf("position %d: comparison needs one column and one number", left.pos)
}
