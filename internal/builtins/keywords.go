// Package builtins holds the static language tables of IEC 61131-3
// Structured Text: reserved keywords, elementary and generic data types,
// standard function blocks with their members, and standard functions.
// All lookups are case-insensitive.
package builtins

import (
	"sort"
	"strings"
)

// keywords lists every reserved word. Data type names are kept separately.
var keywords = map[string]bool{
	// Units
	"PROGRAM": true, "END_PROGRAM": true,
	"FUNCTION": true, "END_FUNCTION": true,
	"FUNCTION_BLOCK": true, "END_FUNCTION_BLOCK": true,
	"METHOD": true, "END_METHOD": true,
	"PROPERTY": true, "END_PROPERTY": true,
	"INTERFACE": true, "END_INTERFACE": true,
	"ACTION": true, "END_ACTION": true,
	"CONFIGURATION": true, "END_CONFIGURATION": true,
	"RESOURCE": true, "END_RESOURCE": true,
	"TASK": true, "WITH": true, "ON": true,
	"EXTENDS": true, "IMPLEMENTS": true, "ABSTRACT": true, "FINAL": true,
	"PUBLIC": true, "PRIVATE": true, "PROTECTED": true, "INTERNAL": true,
	"THIS": true, "SUPER": true,

	// Declarations
	"VAR": true, "VAR_INPUT": true, "VAR_OUTPUT": true, "VAR_IN_OUT": true,
	"VAR_GLOBAL": true, "VAR_EXTERNAL": true, "VAR_TEMP": true, "VAR_STAT": true,
	"VAR_CONFIG": true, "VAR_ACCESS": true, "END_VAR": true,
	"CONSTANT": true, "RETAIN": true, "NON_RETAIN": true, "PERSISTENT": true, "AT": true,
	"TYPE": true, "END_TYPE": true, "STRUCT": true, "END_STRUCT": true,
	"UNION": true, "END_UNION": true,
	"ARRAY": true, "OF": true, "POINTER": true, "REFERENCE": true, "REF_TO": true,

	// Control flow
	"IF": true, "THEN": true, "ELSIF": true, "ELSE": true, "END_IF": true,
	"CASE": true, "END_CASE": true,
	"FOR": true, "TO": true, "BY": true, "DO": true, "END_FOR": true,
	"WHILE": true, "END_WHILE": true,
	"REPEAT": true, "UNTIL": true, "END_REPEAT": true,
	"EXIT": true, "CONTINUE": true, "RETURN": true, "JMP": true,

	// Operators and literals
	"AND": true, "OR": true, "XOR": true, "NOT": true, "MOD": true,
	"AND_THEN": true, "OR_ELSE": true,
	"TRUE": true, "FALSE": true,
}

// controlKeywords are the statement keywords offered by completion.
var controlKeywords = []string{
	"IF", "THEN", "ELSIF", "ELSE", "END_IF",
	"CASE", "OF", "END_CASE",
	"FOR", "TO", "BY", "DO", "END_FOR",
	"WHILE", "END_WHILE",
	"REPEAT", "UNTIL", "END_REPEAT",
	"EXIT", "CONTINUE", "RETURN",
	"AND", "OR", "XOR", "NOT", "MOD",
}

// declarationKeywords are the declaration keywords offered by completion.
var declarationKeywords = []string{
	"PROGRAM", "END_PROGRAM",
	"FUNCTION", "END_FUNCTION",
	"FUNCTION_BLOCK", "END_FUNCTION_BLOCK",
	"VAR", "VAR_INPUT", "VAR_OUTPUT", "VAR_IN_OUT", "VAR_GLOBAL", "VAR_TEMP", "END_VAR",
	"CONSTANT", "RETAIN", "PERSISTENT", "AT",
	"TYPE", "END_TYPE", "STRUCT", "END_STRUCT",
	"ARRAY", "POINTER", "REFERENCE",
}

// IsKeyword reports whether name is a reserved keyword.
func IsKeyword(name string) bool {
	return keywords[strings.ToUpper(name)]
}

// ControlKeywords returns the statement keywords in display order.
func ControlKeywords() []string {
	return append([]string(nil), controlKeywords...)
}

// DeclarationKeywords returns the declaration keywords in display order.
func DeclarationKeywords() []string {
	return append([]string(nil), declarationKeywords...)
}

// Keywords returns all reserved keywords sorted alphabetically.
func Keywords() []string {
	out := make([]string, 0, len(keywords))
	for k := range keywords {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// IsReserved reports whether name is a keyword, a data type, a standard
// function block or a standard function.
func IsReserved(name string) bool {
	return IsKeyword(name) || IsDataType(name) || IsStandardFunctionBlock(name) || IsStandardFunction(name)
}
