package scanner

import "strings"

// TokenKind classifies a lexical token of a masked line.
type TokenKind int

const (
	TokIdent TokenKind = iota
	TokNumber
	TokTypedLiteral
	TokString
	TokOperator
	TokPunct
)

// Token is a lexical token with byte offsets relative to its line.
type Token struct {
	Kind  TokenKind
	Text  string
	Start int
	End   int
}

// Upper returns the token text in upper case, for keyword comparisons.
func (t Token) Upper() string {
	return strings.ToUpper(t.Text)
}

var twoCharOperators = []string{":=", "=>", "<=", ">=", "<>", "**"}

// Tokenize splits a masked line into tokens. Whitespace is dropped. Typed
// literals such as T#5s, 16#FF or INT#3 become a single TokTypedLiteral.
func Tokenize(line string) []Token {
	var tokens []Token
	n := len(line)
	i := 0
	for i < n {
		c := line[i]
		start := i
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			i++
			continue

		case IsIdentStart(c):
			for i < n && IsIdentChar(line[i]) {
				i++
			}
			if i < n && line[i] == '#' {
				i = literalBody(line, i+1)
				tokens = append(tokens, Token{Kind: TokTypedLiteral, Text: line[start:i], Start: start, End: i})
				continue
			}
			tokens = append(tokens, Token{Kind: TokIdent, Text: line[start:i], Start: start, End: i})
			continue

		case c >= '0' && c <= '9':
			for i < n && (isDigit(line[i]) || line[i] == '_') {
				i++
			}
			if i < n && line[i] == '#' {
				i = literalBody(line, i+1)
				tokens = append(tokens, Token{Kind: TokTypedLiteral, Text: line[start:i], Start: start, End: i})
				continue
			}
			if i+1 < n && line[i] == '.' && isDigit(line[i+1]) {
				i++
				for i < n && (isDigit(line[i]) || line[i] == '_') {
					i++
				}
			}
			if i < n && (line[i] == 'e' || line[i] == 'E') {
				j := i + 1
				if j < n && (line[j] == '+' || line[j] == '-') {
					j++
				}
				if j < n && isDigit(line[j]) {
					i = j
					for i < n && isDigit(line[i]) {
						i++
					}
				}
			}
			tokens = append(tokens, Token{Kind: TokNumber, Text: line[start:i], Start: start, End: i})
			continue

		case c == '\'' || c == '"':
			end := strings.IndexByte(line[i+1:], c)
			if end < 0 {
				i = n
			} else {
				i = i + 1 + end + 1
			}
			tokens = append(tokens, Token{Kind: TokString, Text: line[start:i], Start: start, End: i})
			continue
		}

		if i+1 < n {
			two := line[i : i+2]
			matched := false
			for _, op := range twoCharOperators {
				if two == op {
					tokens = append(tokens, Token{Kind: TokOperator, Text: two, Start: i, End: i + 2})
					i += 2
					matched = true
					break
				}
			}
			if matched {
				continue
			}
			if two == ".." {
				tokens = append(tokens, Token{Kind: TokPunct, Text: two, Start: i, End: i + 2})
				i += 2
				continue
			}
		}

		switch c {
		case '=', '<', '>', '+', '-', '*', '/':
			tokens = append(tokens, Token{Kind: TokOperator, Text: string(c), Start: i, End: i + 1})
		default:
			tokens = append(tokens, Token{Kind: TokPunct, Text: string(c), Start: i, End: i + 1})
		}
		i++
	}
	return tokens
}

// literalBody consumes the value part of a typed literal starting at i.
func literalBody(line string, i int) int {
	n := len(line)
	if i < n && (line[i] == '-' || line[i] == '+') {
		i++
	}
	for i < n {
		c := line[i]
		switch {
		case IsIdentChar(c) || c == '.' || c == ':':
			i++
		case c == '-' && i+1 < n && isDigit(line[i+1]):
			i++
		case c == '\'' || c == '"':
			// STRING#'abc'
			end := strings.IndexByte(line[i+1:], c)
			if end < 0 {
				return n
			}
			i = i + 1 + end + 1
		default:
			return i
		}
	}
	return i
}

// Identifiers returns only the identifier tokens of a masked line.
func Identifiers(line string) []Token {
	var idents []Token
	for _, t := range Tokenize(line) {
		if t.Kind == TokIdent {
			idents = append(idents, t)
		}
	}
	return idents
}

// WordAt returns the byte span of the identifier touching col in line. The
// cursor may sit directly after the last character of the word. Parts of
// typed literals such as T#5s or 16#FF are not identifiers.
func WordAt(line string, col int) (int, int, bool) {
	if col > len(line) {
		col = len(line)
	}
	start := col
	for start > 0 && IsIdentChar(line[start-1]) {
		start--
	}
	end := col
	for end < len(line) && IsIdentChar(line[end]) {
		end++
	}
	if start == end || !IsIdentStart(line[start]) {
		return 0, 0, false
	}
	if (start > 0 && line[start-1] == '#') || (end < len(line) && line[end] == '#') {
		return 0, 0, false
	}
	return start, end, true
}

// IsValidIdentifier reports whether name is a syntactically valid identifier.
func IsValidIdentifier(name string) bool {
	if name == "" || !IsIdentStart(name[0]) {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !IsIdentChar(name[i]) {
			return false
		}
	}
	return true
}

// IsIdentStart reports whether c can begin an identifier.
func IsIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// IsIdentChar reports whether c can continue an identifier.
func IsIdentChar(c byte) bool {
	return IsIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// LeadingIndent returns the leading whitespace of line.
func LeadingIndent(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}
