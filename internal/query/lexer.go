package query

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokOp
	tokAnd
	tokOr
	tokNot
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

// lex splits a query into tokens. Column names may be backquoted to allow spaces.
func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := rune(src[i])
		switch {
		case unicode.IsSpace(c):
			i++

		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case c == '&':
			toks = append(toks, token{kind: tokAnd, text: "&", pos: i})
			i++
			if i < len(src) && src[i] == '&' {
				i++
			}
		case c == '|':
			toks = append(toks, token{kind: tokOr, text: "|", pos: i})
			i++
			if i < len(src) && src[i] == '|' {
				i++
			}
		case c == '~':
			toks = append(toks, token{kind: tokNot, text: "~", pos: i})
			i++

		case c == '=' || c == '!' || c == '<' || c == '>':
			op := string(c)
			if i+1 < len(src) && src[i+1] == '=' {
				op += "="
			}
			switch op {
			case "!":
				toks = append(toks, token{kind: tokNot, text: op, pos: i})
				i++
				continue
			case "=":
				return nil, fmt.Errorf("position %d: use '==' for equality", i)
			}
			toks = append(toks, token{kind: tokOp, text: op, pos: i})
			i += len(op)

		case c == '`':
			end := strings.IndexByte(src[i+1:], '`')
			if end < 0 {
				return nil, fmt.Errorf("position %d: unterminated quoted column name", i)
			}
			toks = append(toks, token{kind: tokIdent, text: src[i+1 : i+1+end], pos: i})
			i += end + 2

		case unicode.IsDigit(c) || c == '.' || c == '-' || c == '+':
			j := i + 1
			for j < len(src) && (unicode.IsDigit(rune(src[j])) || strings.ContainsRune(".eE", rune(src[j])) ||
				((src[j] == '-' || src[j] == '+') && (src[j-1] == 'e' || src[j-1] == 'E'))) {
				j++
			}
			v, err := strconv.ParseFloat(src[i:j], 64)
			if err != nil {
				return nil, fmt.Errorf("position %d: invalid number %q", i, src[i:j])
			}
			toks = append(toks, token{kind: tokNumber, text: src[i:j], num: v, pos: i})
			i = j

		case unicode.IsLetter(c) || c == '_':
			j := i + 1
			for j < len(src) && (unicode.IsLetter(rune(src[j])) || unicode.IsDigit(rune(src[j])) || src[j] == '_' || src[j] == '.') {
				j++
			}
			word := src[i:j]
			switch strings.ToLower(word) {
			case "and":
				toks = append(toks, token{kind: tokAnd, text: word, pos: i})
			case "or":
				toks = append(toks, token{kind: tokOr, text: word, pos: i})
			case "not":
				toks = append(toks, token{kind: tokNot, text: word, pos: i})
			case "true":
				toks = append(toks, token{kind: tokNumber, text: word, num: 1, pos: i})
			case "false":
				toks = append(toks, token{kind: tokNumber, text: word, num: 0, pos: i})
			default:
				toks = append(toks, token{kind: tokIdent, text: word, pos: i})
			}
			i = j

		default:
			return nil, fmt.Errorf("position %d: unexpected character %q", i, c)
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}
