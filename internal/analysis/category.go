package analysis

import (
	"fmt"
	"regexp"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Source identifies this engine on every diagnostic it produces.
const Source = "st-lsp"

// Category is the closed set of findings the engine reports.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryMissingCloser
	CategoryUnmatchedCloser
	CategoryUnclosedString
	CategoryUnmatchedOpenParen
	CategoryUnmatchedCloseParen
	CategoryMissingKeyword
	CategoryDeprecatedSyntax
	CategoryMissingSemicolon
	CategoryDuplicateDeclaration
	CategoryUndefinedIdentifier
	CategoryUnusedVariable
	CategoryTypeMismatch
)

var categoryCodes = map[Category]string{
	CategoryMissingCloser:        "missing-closer",
	CategoryUnmatchedCloser:      "unmatched-closer",
	CategoryUnclosedString:       "unclosed-string",
	CategoryUnmatchedOpenParen:   "unmatched-open-paren",
	CategoryUnmatchedCloseParen:  "unmatched-close-paren",
	CategoryMissingKeyword:       "missing-keyword",
	CategoryDeprecatedSyntax:     "deprecated-syntax",
	CategoryMissingSemicolon:     "missing-semicolon",
	CategoryDuplicateDeclaration: "duplicate-declaration",
	CategoryUndefinedIdentifier:  "undefined-identifier",
	CategoryUnusedVariable:       "unused-variable",
	CategoryTypeMismatch:         "type-mismatch",
}

// Code returns the stable diagnostic code of the category.
func (c Category) Code() string {
	return categoryCodes[c]
}

func (c Category) String() string {
	if code, ok := categoryCodes[c]; ok {
		return code
	}
	return "unknown"
}

// Severity returns the severity diagnostics of this category carry.
func (c Category) Severity() protocol.DiagnosticSeverity {
	switch c {
	case CategoryDeprecatedSyntax, CategoryUndefinedIdentifier, CategoryUnusedVariable:
		return protocol.DiagnosticSeverityWarning
	case CategoryMissingCloser, CategoryUnmatchedCloser, CategoryUnclosedString,
		CategoryUnmatchedOpenParen, CategoryUnmatchedCloseParen, CategoryMissingKeyword,
		CategoryMissingSemicolon, CategoryDuplicateDeclaration, CategoryTypeMismatch:
		return protocol.DiagnosticSeverityError
	default:
		return protocol.DiagnosticSeverityInformation
	}
}

// Structural reports whether the category comes from the structural pass.
func (c Category) Structural() bool {
	switch c {
	case CategoryMissingCloser, CategoryUnmatchedCloser, CategoryUnclosedString,
		CategoryUnmatchedOpenParen, CategoryUnmatchedCloseParen, CategoryMissingKeyword,
		CategoryDeprecatedSyntax:
		return true
	default:
		return false
	}
}

// CategoryForCode maps a diagnostic code back to its category.
func CategoryForCode(code string) Category {
	for c, s := range categoryCodes {
		if s == code {
			return c
		}
	}
	return CategoryUnknown
}

func missingCloserMessage(closer, opener, name string) string {
	if name != "" {
		return fmt.Sprintf("Missing %s for %s '%s'", closer, opener, name)
	}
	return fmt.Sprintf("Missing %s for %s", closer, opener)
}

func unmatchedCloserMessage(closer, opener string) string {
	return fmt.Sprintf("%s without matching %s", closer, opener)
}

func unclosedStringMessage(quote byte) string {
	if quote == '"' {
		return "Unclosed string literal (double quote)"
	}
	return "Unclosed string literal (single quote)"
}

func unmatchedOpenMessage(count int) string {
	return fmt.Sprintf("Unmatched opening parenthesis (%d unclosed)", count)
}

const unmatchedCloseMessage = "Unmatched closing parenthesis"

func missingKeywordMessage(keyword, statement, part string) string {
	return fmt.Sprintf("Missing %s after %s %s", keyword, statement, part)
}

func deprecatedMessage(replacement, original string) string {
	return fmt.Sprintf("Use '%s' instead of '%s'", replacement, original)
}

const missingSemicolonMessage = "Missing semicolon at end of statement"

func duplicateMessage(name string) string {
	return fmt.Sprintf("Duplicate declaration of '%s'", name)
}

func undefinedMessage(name, suggestion string) string {
	if suggestion != "" {
		return fmt.Sprintf("Undefined identifier '%s'. Did you mean '%s'?", name, suggestion)
	}
	return fmt.Sprintf("Undefined identifier '%s'", name)
}

func unusedMessage(name string) string {
	return fmt.Sprintf("Variable '%s' is declared but never used", name)
}

func typeMismatchMessage(source, target string) string {
	return fmt.Sprintf("Type mismatch: cannot assign %s to %s", source, target)
}

// Finding is a diagnostic message decomposed into its category and the
// values embedded in it.
type Finding struct {
	Category Category
	Args     []string
}

// Arg returns the i-th captured value, or "".
func (f Finding) Arg(i int) string {
	if i < len(f.Args) {
		return f.Args[i]
	}
	return ""
}

var messageShapes = []struct {
	category Category
	pattern  *regexp.Regexp
}{
	{CategoryMissingCloser, regexp.MustCompile(`^Missing (END_\w+) for (\w+)(?: '(\w+)')?$`)},
	{CategoryUnmatchedCloser, regexp.MustCompile(`^(END_\w+) without matching (\w+)$`)},
	{CategoryUnclosedString, regexp.MustCompile(`^Unclosed string literal \((single|double) quote\)$`)},
	{CategoryUnmatchedOpenParen, regexp.MustCompile(`^Unmatched opening parenthesis \((\d+) unclosed\)$`)},
	{CategoryUnmatchedCloseParen, regexp.MustCompile(`^Unmatched closing parenthesis$`)},
	{CategoryMissingKeyword, regexp.MustCompile(`^Missing (THEN|DO|OF) after (\w+)`)},
	{CategoryDeprecatedSyntax, regexp.MustCompile(`^Use '(\w+)' instead of '(\w+\s+\w+)'$`)},
	{CategoryMissingSemicolon, regexp.MustCompile(`^Missing semicolon`)},
	{CategoryDuplicateDeclaration, regexp.MustCompile(`^Duplicate declaration of '(\w+)'$`)},
	{CategoryUndefinedIdentifier, regexp.MustCompile(`^Undefined identifier '(\w+)'(?:\. Did you mean '(\w+)'\?)?$`)},
	{CategoryUnusedVariable, regexp.MustCompile(`^Variable '(\w+)' is declared but never used$`)},
	{CategoryTypeMismatch, regexp.MustCompile(`^Type mismatch: cannot assign (\S+) to (.+)$`)},
}

// ParseMessage recognizes the shape of a diagnostic message.
func ParseMessage(message string) (Finding, bool) {
	for _, shape := range messageShapes {
		if m := shape.pattern.FindStringSubmatch(message); m != nil {
			return Finding{Category: shape.category, Args: m[1:]}, true
		}
	}
	return Finding{}, false
}

// Classify identifies a diagnostic by its message shape, falling back to its
// code when the message is not recognized.
func Classify(d protocol.Diagnostic) Finding {
	if f, ok := ParseMessage(d.Message); ok {
		return f
	}
	if d.Code != nil {
		if code, ok := d.Code.Value.(string); ok {
			return Finding{Category: CategoryForCode(code)}
		}
	}
	return Finding{Category: CategoryUnknown}
}
