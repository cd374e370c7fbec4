package symbols

import (
	"strings"

	"github.com/CWBudde/go-st-lsp/internal/builtins"
)

var literalPrefixes = []struct {
	prefix string
	typ    string
}{
	{"TIME_OF_DAY#", "TIME_OF_DAY"},
	{"DATE_AND_TIME#", "DATE_AND_TIME"},
	{"TOD#", "TIME_OF_DAY"},
	{"LTOD#", "TIME_OF_DAY"},
	{"DT#", "DATE_AND_TIME"},
	{"LDT#", "DATE_AND_TIME"},
	{"TIME#", "TIME"},
	{"LTIME#", "TIME"},
	{"T#", "TIME"},
	{"LT#", "TIME"},
	{"DATE#", "DATE"},
	{"LDATE#", "DATE"},
	{"D#", "DATE"},
	{"LD#", "DATE"},
}

// InferLiteralType returns the type of a literal initializer. Typed and
// prefixed literals map to their type, quotes to STRING or WSTRING, TRUE and
// FALSE to BOOL, plain numbers to INT or REAL. When the initializer is not a
// recognizable literal the declared type is returned.
func InferLiteralType(literal, declared string) string {
	if typ := LiteralType(literal); typ != "" {
		return typ
	}
	return declared
}

// LiteralType classifies a literal expression, returning "" when it is not a
// single recognizable literal.
func LiteralType(literal string) string {
	s := strings.TrimSpace(literal)
	if s == "" {
		return ""
	}
	upper := strings.ToUpper(s)

	for _, p := range literalPrefixes {
		if strings.HasPrefix(upper, p.prefix) {
			return p.typ
		}
	}

	switch s[0] {
	case '\'':
		if strings.HasSuffix(s, "'") && len(s) > 1 {
			return "STRING"
		}
		return ""
	case '"':
		if strings.HasSuffix(s, `"`) && len(s) > 1 {
			return "WSTRING"
		}
		return ""
	}

	if upper == "TRUE" || upper == "FALSE" {
		return "BOOL"
	}

	if prefix, _, ok := strings.Cut(upper, "#"); ok {
		if builtins.IsElementaryType(prefix) {
			return prefix
		}
		if isDigits(prefix) {
			// 16#FF, 2#1010
			return "INT"
		}
		return ""
	}

	num := strings.TrimLeft(upper, "+-")
	if num == "" || num[0] < '0' || num[0] > '9' {
		return ""
	}
	isReal := false
	for i := 0; i < len(num); i++ {
		c := num[i]
		switch {
		case c >= '0' && c <= '9', c == '_':
		case c == '.' || c == 'E':
			isReal = true
		case (c == '+' || c == '-') && i > 0 && num[i-1] == 'E':
		default:
			return ""
		}
	}
	if isReal {
		return "REAL"
	}
	return "INT"
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
