package lexer

import (
	"fmt"
	"strings"
)

// TokenType represents the type of a token
type TokenType int

const (
	// EOF represents the end of input
	EOF TokenType = iota
	// ILLEGAL represents input the lexer could not tokenize, such as an unterminated string
	ILLEGAL
	// KEYWORD represents a keyword token
	KEYWORD
	// IDENTIFIER represents an identifier token
	IDENTIFIER
	// NUMBER represents a number token
	NUMBER
	// STRING represents a quoted string token; Literal holds the unquoted text
	STRING
	// SYMBOL represents any other single character
	SYMBOL
	// LPAREN represents a left parenthesis
	LPAREN
	// RPAREN represents a right parenthesis
	RPAREN
	// COMMA represents a comma
	COMMA
	// SEMICOLON represents a semicolon
	SEMICOLON
	// ASTERISK represents an asterisk
	ASTERISK
	// EQUALS represents an equals sign
	EQUALS
	// OPERATOR represents a comparison operator other than '=': != <> < > <= >=
	OPERATOR
)

var tokenNames = map[TokenType]string{
	EOF:        "EOF",
	ILLEGAL:    "ILLEGAL",
	KEYWORD:    "KEYWORD",
	IDENTIFIER: "IDENTIFIER",
	NUMBER:     "NUMBER",
	STRING:     "STRING",
	SYMBOL:     "SYMBOL",
	LPAREN:     "LPAREN",
	RPAREN:     "RPAREN",
	COMMA:      "COMMA",
	SEMICOLON:  "SEMICOLON",
	ASTERISK:   "ASTERISK",
	EQUALS:     "EQUALS",
	OPERATOR:   "OPERATOR",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token represents a lexical token. Pos is the byte offset of the token in the input.
type Token struct {
	Type    TokenType
	Literal string
	Pos     int
}

// Is reports whether the token is the given keyword.
func (t Token) Is(keyword string) bool {
	return t.Type == KEYWORD && t.Literal == keyword
}

func (t Token) String() string {
	return fmt.Sprintf("Token{Type: %v, Literal: %q}", t.Type, t.Literal)
}

// Lexer represents a lexical analyzer
type Lexer struct {
	input        string
	position     int
	readPosition int
	ch           byte
}

// New creates a new lexer with the given input
func New(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// Tokenize returns every token of the input, ending with EOF or the first ILLEGAL token.
func Tokenize(input string) []Token {
	return New(input).Tokens()
}

// Tokens reads the remaining tokens, ending with EOF or the first ILLEGAL token.
func (l *Lexer) Tokens() []Token {
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == EOF || tok.Type == ILLEGAL {
			return tokens
		}
	}
}

// Input returns the text being tokenized.
func (l *Lexer) Input() string {
	return l.input
}

// Source returns the input text a token was read from. Keywords come back in
// their original case. STRING tokens return their unquoted literal.
func (l *Lexer) Source(tok Token) string {
	if tok.Type == STRING || tok.Type == EOF {
		return tok.Literal
	}
	end := tok.Pos + len(tok.Literal)
	if tok.Pos < 0 || end > len(l.input) {
		return tok.Literal
	}
	return l.input[tok.Pos:end]
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) NextToken() Token {
	var tok Token

	l.skipWhitespace()
	start := l.position

	switch l.ch {
	case '(':
		tok = Token{Type: LPAREN, Literal: "("}
	case ')':
		tok = Token{Type: RPAREN, Literal: ")"}
	case ',':
		tok = Token{Type: COMMA, Literal: ","}
	case ';':
		tok = Token{Type: SEMICOLON, Literal: ";"}
	case '*':
		tok = Token{Type: ASTERISK, Literal: "*"}
	case '=':
		tok = Token{Type: EQUALS, Literal: "="}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: OPERATOR, Literal: "!="}
		} else {
			tok = Token{Type: SYMBOL, Literal: "!"}
		}
	case '<':
		switch l.peekChar() {
		case '=':
			l.readChar()
			tok = Token{Type: OPERATOR, Literal: "<="}
		case '>':
			l.readChar()
			tok = Token{Type: OPERATOR, Literal: "!="}
		default:
			tok = Token{Type: OPERATOR, Literal: "<"}
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: OPERATOR, Literal: ">="}
		} else {
			tok = Token{Type: OPERATOR, Literal: ">"}
		}
	case 0:
		if l.position >= len(l.input) {
			return Token{Type: EOF, Literal: "", Pos: len(l.input)}
		}
		tok = Token{Type: ILLEGAL, Literal: "\x00"}
	case '"', '\'':
		quote := l.ch
		l.readChar()
		literal, ok := l.readString(quote)
		if !ok {
			return Token{Type: ILLEGAL, Literal: string(quote) + literal, Pos: start}
		}
		tok = Token{Type: STRING, Literal: literal}
	default:
		if isLetter(l.ch) {
			literal := l.readIdentifier()
			upper := strings.ToUpper(literal)
			if isKeyword(upper) {
				return Token{Type: KEYWORD, Literal: upper, Pos: start}
			}
			return Token{Type: IDENTIFIER, Literal: literal, Pos: start}
		} else if isDigit(l.ch) || (l.ch == '-' && (isDigit(l.peekChar()) || l.peekChar() == '.')) {
			return Token{Type: NUMBER, Literal: l.readNumber(), Pos: start}
		}
		tok = Token{Type: SYMBOL, Literal: string(l.ch)}
	}

	tok.Pos = start
	l.readChar()
	return tok
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

func (l *Lexer) readNumber() string {
	position := l.position
	if l.ch == '-' {
		l.readChar()
	}
	for isDigit(l.ch) || l.ch == '.' {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readString reads up to the closing quote and leaves the lexer on it.
// Quotes cannot be escaped.
func (l *Lexer) readString(quote byte) (string, bool) {
	position := l.position
	for l.ch != quote {
		if l.position >= len(l.input) {
			return l.input[position:], false
		}
		l.readChar()
	}
	return l.input[position:l.position], true
}

// Bytes >= 0x80 are treated as letters so UTF-8 column names survive.
func isLetter(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch == '_' || ch >= 0x80
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

var keywords = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "AND": true,
	"INSERT": true, "INTO": true, "VALUES": true,
	"UPDATE": true, "SET": true, "DELETE": true,
	"CREATE": true, "DROP": true, "TRUNCATE": true, "TABLE": true,
	"ORDER": true, "BY": true, "ASC": true, "DESC": true,
	"LIMIT": true, "OFFSET": true,
	"GET": true, "TABLES": true, "SHOW": true, "DETAIL": true,
}

func isKeyword(word string) bool {
	return keywords[word]
}
