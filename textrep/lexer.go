package textrep

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

type tokKind int

const (
	tokEOF tokKind = iota
	tokIllegal
	tokIdent
	tokInt
	tokFloat
	tokString
	tokChar
	tokLet
	tokType
	tokRecord
	tokUnion
	tokVec
	tokArray
	tokVariant
	tokTrue
	tokFalse
	// symbols
	tokEq     // =
	tokColon  // :
	tokSemi   // ;
	tokComma  // ,
	tokLBrace // {
	tokRBrace // }
	tokLBrack // [
	tokRBrack // ]
	tokLParen // (
	tokRParen // )
	tokLt     // <
	tokGt     // >
)

var tokNames = [...]string{
	tokEOF:     "end of input",
	tokIllegal: "illegal token",
	tokIdent:   "identifier",
	tokInt:     "integer",
	tokFloat:   "float",
	tokString:  "string",
	tokChar:    "char",
	tokLet:     "let",
	tokType:    "type",
	tokRecord:  "record",
	tokUnion:   "union",
	tokVec:     "vec",
	tokArray:   "array",
	tokVariant: "variant",
	tokTrue:    "true",
	tokFalse:   "false",
	tokEq:      "=",
	tokColon:   ":",
	tokSemi:    ";",
	tokComma:   ",",
	tokLBrace:  "{",
	tokRBrace:  "}",
	tokLBrack:  "[",
	tokRBrack:  "]",
	tokLParen:  "(",
	tokRParen:  ")",
	tokLt:      "<",
	tokGt:      ">",
}

func (k tokKind) String() string {
	if int(k) < len(tokNames) {
		return tokNames[k]
	}
	return fmt.Sprintf("tokKind(%d)", int(k))
}

var keywords = map[string]tokKind{
	"let":     tokLet,
	"type":    tokType,
	"record":  tokRecord,
	"union":   tokUnion,
	"vec":     tokVec,
	"array":   tokArray,
	"variant": tokVariant,
	"true":    tokTrue,
	"false":   tokFalse,
}

type token struct {
	kind    tokKind
	lit     string
	intBase int // 10 or 16 for tokInt
	line    int
	col     int
}

type lexer struct {
	src  []byte
	off  int
	line int
	bol  int // offset of the first byte of the current line
	cur  token
}

func newLexer(src []byte) *lexer { return &lexer{src: src, line: 1} }

// peek returns the token after cur without consuming anything.
func (lx *lexer) peek() token {
	save := *lx
	lx.next()
	t := lx.cur
	*lx = save
	return t
}

func (lx *lexer) next() {
	lx.skipSpaceAndComments()
	line, col := lx.line, lx.off-lx.bol+1
	lx.cur = lx.scan()
	lx.cur.line, lx.cur.col = line, col
}

func (lx *lexer) scan() token {
	if lx.off >= len(lx.src) {
		return token{kind: tokEOF}
	}
	b := lx.src[lx.off]
	// identifiers/keywords
	if isIdentStart(b) {
		start := lx.off
		lx.off++
		for lx.off < len(lx.src) && isIdentPart(lx.src[lx.off]) {
			lx.off++
		}
		s := string(lx.src[start:lx.off])
		if k, ok := keywords[s]; ok {
			return token{kind: k, lit: s}
		}
		return token{kind: tokIdent, lit: s}
	}
	// numbers
	if isDigit(b) || (b == '-' && lx.peekIsDigit()) {
		return lx.scanNumber()
	}
	switch b {
	case '"':
		s, n, err := scanQuoted(lx.src[lx.off:], '"')
		if err != nil {
			lx.off = len(lx.src)
			return token{kind: tokIllegal, lit: fmt.Sprintf("string: %v", err)}
		}
		lx.off += n
		return token{kind: tokString, lit: s}
	case '\'':
		s, n, err := scanQuoted(lx.src[lx.off:], '\'')
		if err != nil {
			lx.off = len(lx.src)
			return token{kind: tokIllegal, lit: fmt.Sprintf("char: %v", err)}
		}
		lx.off += n
		return token{kind: tokChar, lit: s}
	}
	// single-char tokens
	lx.off++
	switch b {
	case '=':
		return token{kind: tokEq, lit: "="}
	case ':':
		return token{kind: tokColon, lit: ":"}
	case ';':
		return token{kind: tokSemi, lit: ";"}
	case ',':
		return token{kind: tokComma, lit: ","}
	case '{':
		return token{kind: tokLBrace, lit: "{"}
	case '}':
		return token{kind: tokRBrace, lit: "}"}
	case '[':
		return token{kind: tokLBrack, lit: "["}
	case ']':
		return token{kind: tokRBrack, lit: "]"}
	case '(':
		return token{kind: tokLParen, lit: "("}
	case ')':
		return token{kind: tokRParen, lit: ")"}
	case '<':
		return token{kind: tokLt, lit: "<"}
	case '>':
		return token{kind: tokGt, lit: ">"}
	}
	return token{kind: tokIllegal, lit: fmt.Sprintf("unexpected char %q", b)}
}

func (lx *lexer) scanNumber() token {
	start := lx.off
	if lx.src[lx.off] == '-' {
		lx.off++
	}
	// hex prefix
	if lx.off+1 < len(lx.src) && lx.src[lx.off] == '0' && (lx.src[lx.off+1] == 'x' || lx.src[lx.off+1] == 'X') {
		lx.off += 2
		for lx.off < len(lx.src) && (isHexDigit(lx.src[lx.off]) || lx.src[lx.off] == '_') {
			lx.off++
		}
		return token{kind: tokInt, lit: string(lx.src[start:lx.off]), intBase: 16}
	}
	isFloat := false
	lx.digits()
	if lx.off < len(lx.src) && lx.src[lx.off] == '.' {
		isFloat = true
		lx.off++
		lx.digits()
	}
	// exponent part
	if lx.off < len(lx.src) && (lx.src[lx.off] == 'e' || lx.src[lx.off] == 'E') {
		isFloat = true
		lx.off++
		if lx.off < len(lx.src) && (lx.src[lx.off] == '+' || lx.src[lx.off] == '-') {
			lx.off++
		}
		lx.digits()
	}
	lit := string(lx.src[start:lx.off])
	if isFloat {
		return token{kind: tokFloat, lit: lit}
	}
	return token{kind: tokInt, lit: lit, intBase: 10}
}

func (lx *lexer) digits() {
	for lx.off < len(lx.src) && (isDigit(lx.src[lx.off]) || lx.src[lx.off] == '_') {
		lx.off++
	}
}

func (lx *lexer) skipSpaceAndComments() {
	for lx.off < len(lx.src) {
		b := lx.src[lx.off]
		if b == '\n' {
			lx.off++
			lx.line++
			lx.bol = lx.off
			continue
		}
		if b == ' ' || b == '\t' || b == '\r' {
			lx.off++
			continue
		}
		// line comments: # or //
		if b == '#' || (b == '/' && lx.off+1 < len(lx.src) && lx.src[lx.off+1] == '/') {
			for lx.off < len(lx.src) && lx.src[lx.off] != '\n' {
				lx.off++
			}
			continue
		}
		// block comments: /* ... */
		if b == '/' && lx.off+1 < len(lx.src) && lx.src[lx.off+1] == '*' {
			lx.off += 2
			for lx.off+1 < len(lx.src) && !(lx.src[lx.off] == '*' && lx.src[lx.off+1] == '/') {
				if lx.src[lx.off] == '\n' {
					lx.line++
					lx.bol = lx.off + 1
				}
				lx.off++
			}
			if lx.off+1 < len(lx.src) {
				lx.off += 2
			} else {
				lx.off = len(lx.src)
			}
			continue
		}
		break
	}
}

func isIdentStart(b byte) bool { return b == '_' || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') }
func isIdentPart(b byte) bool  { return isIdentStart(b) || isDigit(b) }
func isDigit(b byte) bool      { return '0' <= b && b <= '9' }
func isHexDigit(b byte) bool {
	return ('0' <= b && b <= '9') || ('a' <= b && b <= 'f') || ('A' <= b && b <= 'F')
}

func (lx *lexer) peekIsDigit() bool {
	if lx.off+1 >= len(lx.src) {
		return false
	}
	return isDigit(lx.src[lx.off+1])
}

// scanQuoted reads a Go-syntax quoted literal starting at src[0] and
// returns its unquoted value and length.
func scanQuoted(src []byte, quote byte) (string, int, error) {
	i := 1
	for i < len(src) {
		c := src[i]
		switch {
		case c == quote:
			i++
			unq, err := strconv.Unquote(string(src[:i]))
			return unq, i, err
		case c == '\n':
			return "", 0, fmt.Errorf("newline in literal")
		case c == '\\':
			i += 2
		case c < utf8.RuneSelf:
			i++
		default:
			r, size := utf8.DecodeRune(src[i:])
			if r == utf8.RuneError && size <= 1 {
				return "", 0, fmt.Errorf("invalid utf-8")
			}
			i += size
		}
	}
	return "", 0, fmt.Errorf("unterminated literal")
}

func stripUnderscores(s string) string { return strings.ReplaceAll(s, "_", "") }
