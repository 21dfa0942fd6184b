// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sqlcheck statically validates candidate SQL before execution.
// It is the pipeline's only defense against a model emitting destructive
// or injected SQL, so validation walks a real token/statement structure:
// string literals and comments are consumed whole by the lexer, which is
// what keeps forbidden verbs hidden inside them from ever being treated
// as code.
package sqlcheck

import (
	"fmt"
	"strings"
	"unicode"
)

// TokenType classifies lexed tokens.
type TokenType int

const (
	// TokenIdent is a bare or quoted identifier/keyword.
	TokenIdent TokenType = iota
	// TokenString is a single-quoted string literal, quotes stripped.
	TokenString
	// TokenNumber is a numeric literal.
	TokenNumber
	// TokenPunct is an operator or punctuation rune sequence.
	TokenPunct
)

// Token is one lexical unit of a SQL text.
type Token struct {
	Type TokenType
	// Text is the token content. For quoted identifiers the quotes are
	// stripped and escapes resolved.
	Text string
	// Quoted marks identifiers that were quoted in the source.
	Quoted bool
	// Pos is the byte offset of the token start.
	Pos int
}

// IsKeyword reports whether the token is an unquoted identifier equal to
// the given keyword, case-insensitively. Quoted identifiers are never
// keywords.
func (t Token) IsKeyword(kw string) bool {
	return t.Type == TokenIdent && !t.Quoted && strings.EqualFold(t.Text, kw)
}

// IsPunct reports whether the token is the given punctuation.
func (t Token) IsPunct(p string) bool {
	return t.Type == TokenPunct && t.Text == p
}

// Tokenize lexes a SQL text. Comments (-- and /* */) are consumed and
// dropped; string literals become single TokenString values. Errors are
// returned for unterminated strings, comments, and quoted identifiers.
func Tokenize(sql string) ([]Token, error) {
	var tokens []Token
	i := 0
	n := len(sql)

	for i < n {
		c := sql[i]

		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case c == '-' && i+1 < n && sql[i+1] == '-':
			// Line comment: skip to end of line.
			for i < n && sql[i] != '\n' {
				i++
			}

		case c == '/' && i+1 < n && sql[i+1] == '*':
			end := strings.Index(sql[i+2:], "*/")
			if end < 0 {
				return nil, fmt.Errorf("unterminated block comment at offset %d", i)
			}
			i += 2 + end + 2

		case c == '\'':
			text, next, err := lexString(sql, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, Token{Type: TokenString, Text: text, Pos: i})
			i = next

		case c == '"' || c == '`':
			text, next, err := lexQuotedIdent(sql, i, c)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, Token{Type: TokenIdent, Text: text, Quoted: true, Pos: i})
			i = next

		case c == '[':
			end := strings.IndexByte(sql[i+1:], ']')
			if end < 0 {
				return nil, fmt.Errorf("unterminated bracket identifier at offset %d", i)
			}
			tokens = append(tokens, Token{Type: TokenIdent, Text: sql[i+1 : i+1+end], Quoted: true, Pos: i})
			i += end + 2

		case isIdentStart(rune(c)):
			start := i
			for i < n && isIdentPart(rune(sql[i])) {
				i++
			}
			tokens = append(tokens, Token{Type: TokenIdent, Text: sql[start:i], Pos: start})

		case c >= '0' && c <= '9':
			start := i
			for i < n && (isDigit(sql[i]) || sql[i] == '.' || sql[i] == 'e' || sql[i] == 'E' ||
				((sql[i] == '+' || sql[i] == '-') && (sql[i-1] == 'e' || sql[i-1] == 'E'))) {
				i++
			}
			tokens = append(tokens, Token{Type: TokenNumber, Text: sql[start:i], Pos: start})

		default:
			// Multi-rune operators first, then single punctuation.
			if op, ok := lexOperator(sql, i); ok {
				tokens = append(tokens, Token{Type: TokenPunct, Text: op, Pos: i})
				i += len(op)
			} else {
				tokens = append(tokens, Token{Type: TokenPunct, Text: string(c), Pos: i})
				i++
			}
		}
	}

	return tokens, nil
}

// lexString consumes a single-quoted literal with '' escapes.
func lexString(sql string, start int) (string, int, error) {
	var b strings.Builder
	i := start + 1
	n := len(sql)
	for i < n {
		if sql[i] == '\'' {
			if i+1 < n && sql[i+1] == '\'' {
				b.WriteByte('\'')
				i += 2
				continue
			}
			return b.String(), i + 1, nil
		}
		b.WriteByte(sql[i])
		i++
	}
	return "", 0, fmt.Errorf("unterminated string literal at offset %d", start)
}

// lexQuotedIdent consumes a quoted identifier with doubled-quote escapes.
func lexQuotedIdent(sql string, start int, quote byte) (string, int, error) {
	var b strings.Builder
	i := start + 1
	n := len(sql)
	for i < n {
		if sql[i] == quote {
			if i+1 < n && sql[i+1] == quote {
				b.WriteByte(quote)
				i += 2
				continue
			}
			return b.String(), i + 1, nil
		}
		b.WriteByte(sql[i])
		i++
	}
	return "", 0, fmt.Errorf("unterminated quoted identifier at offset %d", start)
}

var operators = []string{"<>", "<=", ">=", "!=", "||", "::"}

func lexOperator(sql string, i int) (string, bool) {
	for _, op := range operators {
		if strings.HasPrefix(sql[i:], op) {
			return op, true
		}
	}
	return "", false
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
