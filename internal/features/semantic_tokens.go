package features

import (
	"sort"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/builtins"
	"github.com/CWBudde/go-st-lsp/internal/scanner"
	"github.com/CWBudde/go-st-lsp/internal/symbols"
	"github.com/CWBudde/go-st-lsp/internal/workspace"
)

// SemanticToken is a classified token before delta encoding. Positions and
// lengths are in UTF-16 code units.
type SemanticToken struct {
	Line      uint32
	StartChar uint32
	Length    uint32
	TokenType uint32 // index into the legend's token types
	Modifiers uint32 // bit set over the legend's modifiers
}

// Token types, in legend order.
const (
	TokenTypeNamespace uint32 = iota // programs
	TokenTypeType
	TokenTypeClass // function block types
	TokenTypeEnum
	TokenTypeEnumMember
	TokenTypeParameter
	TokenTypeVariable
	TokenTypeProperty // instance members after a dot
	TokenTypeFunction
	TokenTypeKeyword
	TokenTypeString
	TokenTypeNumber
	TokenTypeComment
	TokenTypeMacro // pragmas
)

// Token modifiers, as bits.
const (
	TokenModifierDeclaration uint32 = 1 << iota
	TokenModifierReadonly
	TokenModifierStatic
	TokenModifierModification
	TokenModifierDefaultLibrary
)

var legend = protocol.SemanticTokensLegend{
	TokenTypes: []string{
		"namespace", "type", "class", "enum", "enumMember", "parameter", "variable",
		"property", "function", "keyword", "string", "number", "comment", "macro",
	},
	TokenModifiers: []string{
		"declaration", "readonly", "static", "modification", "defaultLibrary",
	},
}

// SemanticTokensLegend returns the legend announced in the server
// capabilities. Token type and modifier values index into it.
func SemanticTokensLegend() protocol.SemanticTokensLegend {
	return protocol.SemanticTokensLegend{
		TokenTypes:     append([]string(nil), legend.TokenTypes...),
		TokenModifiers: append([]string(nil), legend.TokenModifiers...),
	}
}

// SemanticTokens classifies the comments, literals, keywords and identifiers
// of text. Identifiers are classified through the document's symbol table,
// its TYPE declarations, the standard library and the workspace index;
// unknown identifiers get no token. The result is sorted by position.
func SemanticTokens(uri protocol.DocumentUri, text string, index *workspace.Index) []SemanticToken {
	doc := load(uri, text, index)
	c := &tokenCollector{doc: doc, tokens: []SemanticToken{}}

	for _, r := range doc.scan.Regions {
		c.region(r)
	}

	enumerators := map[string]bool{}
	types := map[string]symbols.TypeDecl{}
	for _, t := range doc.types {
		types[symbols.Normalize(t.Name)] = t
		for _, v := range t.Values {
			enumerators[symbols.Normalize(v)] = true
		}
	}
	c.types = types
	c.enumerators = enumerators

	depth := 0
	for line, masked := range doc.masked {
		toks := scanner.Tokenize(masked)
		for i, tok := range toks {
			switch tok.Kind {
			case scanner.TokNumber:
				c.add(line, tok.Start, tok.End, TokenTypeNumber, 0)
			case scanner.TokTypedLiteral:
				// STRING#'abc': the quoted part is a string region.
				end := tok.End
				if q := strings.IndexAny(tok.Text, `'"`); q >= 0 {
					end = tok.Start + q
				}
				c.add(line, tok.Start, end, TokenTypeNumber, 0)
			case scanner.TokIdent:
				c.identifier(line, toks, i, depth)
			case scanner.TokPunct:
				switch tok.Text {
				case "(":
					depth++
				case ")":
					depth = max(depth-1, 0)
				case ";":
					depth = 0
				}
			case scanner.TokString, scanner.TokOperator:
			}
		}
	}

	sort.Slice(c.tokens, func(i, j int) bool {
		if c.tokens[i].Line != c.tokens[j].Line {
			return c.tokens[i].Line < c.tokens[j].Line
		}
		return c.tokens[i].StartChar < c.tokens[j].StartChar
	})
	return c.tokens
}

// SemanticTokensInRange returns the tokens of lines intersecting rng.
func SemanticTokensInRange(tokens []SemanticToken, rng protocol.Range) []SemanticToken {
	out := []SemanticToken{}
	for _, t := range tokens {
		if t.Line < rng.Start.Line || t.Line > rng.End.Line {
			continue
		}
		if t.Line == rng.End.Line && t.StartChar >= rng.End.Character && rng.End.Line > rng.Start.Line {
			continue
		}
		out = append(out, t)
	}
	return out
}

type tokenCollector struct {
	doc         *document
	types       map[string]symbols.TypeDecl
	enumerators map[string]bool
	tokens      []SemanticToken
}

// add records the token at byte columns [start, end) of line.
func (c *tokenCollector) add(line, start, end int, tokenType, modifiers uint32) {
	if end <= start {
		return
	}
	text := c.doc.lines[line]
	from := scanner.UTF16Column(text, start)
	to := scanner.UTF16Column(text, end)
	c.tokens = append(c.tokens, SemanticToken{
		Line:      uint32(line),
		StartChar: uint32(from),
		Length:    uint32(to - from),
		TokenType: tokenType,
		Modifiers: modifiers,
	})
}

// region emits one token per line covered by a comment, pragma or string.
func (c *tokenCollector) region(r scanner.Region) {
	tokenType := TokenTypeComment
	switch r.Kind {
	case scanner.RegionString:
		tokenType = TokenTypeString
	case scanner.RegionPragma:
		tokenType = TokenTypeMacro
	case scanner.RegionLineComment, scanner.RegionBlockComment:
	}

	starts := c.doc.starts
	first := sort.Search(len(starts), func(i int) bool { return starts[i] > r.Start }) - 1
	for line := max(first, 0); line < len(starts) && starts[line] < r.End; line++ {
		lineStart := starts[line]
		lineEnd := lineStart + len(c.doc.lines[line])
		from := max(r.Start, lineStart)
		to := min(r.End, lineEnd)
		c.add(line, from-lineStart, to-lineStart, tokenType, 0)
	}
}

func (c *tokenCollector) identifier(line int, toks []scanner.Token, i int, depth int) {
	tok := toks[i]
	name := tok.Text
	next := ""
	if i+1 < len(toks) {
		next = toks[i+1].Text
	}

	if i > 0 && toks[i-1].Text == "." {
		c.add(line, tok.Start, tok.End, TokenTypeProperty, 0)
		return
	}
	if depth > 0 && (next == ":=" || next == "=>") {
		// Named argument of a call.
		c.add(line, tok.Start, tok.End, TokenTypeParameter, 0)
		return
	}
	if builtins.IsKeyword(name) {
		c.add(line, tok.Start, tok.End, TokenTypeKeyword, 0)
		return
	}

	if s := symbols.Resolve(c.doc.syms, name, line); s != nil {
		tokenType, modifiers := classifySymbol(s)
		if c.declaredAt(s.Location, line, tok) {
			modifiers |= TokenModifierDeclaration
		} else if next == ":=" && !s.Kind.IsUnit() {
			modifiers |= TokenModifierModification
		}
		if s.Kind == symbols.KindFunction && next == ":=" {
			// Assigning the return value.
			tokenType = TokenTypeVariable
			modifiers |= TokenModifierModification
		}
		c.add(line, tok.Start, tok.End, tokenType, modifiers)
		return
	}

	key := symbols.Normalize(name)
	if t, ok := c.types[key]; ok {
		tokenType := TokenTypeType
		if len(t.Values) > 0 {
			tokenType = TokenTypeEnum
		}
		var modifiers uint32
		if c.declaredAt(t.Location, line, tok) {
			modifiers = TokenModifierDeclaration
		}
		c.add(line, tok.Start, tok.End, tokenType, modifiers)
		return
	}
	if c.enumerators[key] {
		c.add(line, tok.Start, tok.End, TokenTypeEnumMember, TokenModifierReadonly)
		return
	}

	switch {
	case builtins.IsDataType(name):
		c.add(line, tok.Start, tok.End, TokenTypeType, TokenModifierDefaultLibrary)
		return
	case builtins.IsStandardFunctionBlock(name):
		c.add(line, tok.Start, tok.End, TokenTypeClass, TokenModifierDefaultLibrary)
		return
	case builtins.IsStandardFunction(name):
		c.add(line, tok.Start, tok.End, TokenTypeFunction, TokenModifierDefaultLibrary)
		return
	}

	if c.doc.index == nil {
		return
	}
	if s := c.doc.index.LookupUnit(name); s != nil {
		tokenType, _ := classifySymbol(s)
		c.add(line, tok.Start, tok.End, tokenType, 0)
		return
	}
	if s := c.doc.index.LookupGlobal(name); s != nil {
		tokenType, modifiers := classifySymbol(s)
		if next == ":=" {
			modifiers |= TokenModifierModification
		}
		c.add(line, tok.Start, tok.End, tokenType, modifiers)
	}
}

// declaredAt reports whether tok is the name token of a declaration at loc.
func (c *tokenCollector) declaredAt(loc protocol.Location, line int, tok scanner.Token) bool {
	if loc.URI != c.doc.uri || int(loc.Range.Start.Line) != line {
		return false
	}
	return int(loc.Range.Start.Character) == scanner.UTF16Column(c.doc.lines[line], tok.Start)
}

func classifySymbol(s *symbols.Symbol) (uint32, uint32) {
	var modifiers uint32
	if s.Scope == symbols.ScopeGlobal {
		modifiers |= TokenModifierStatic
	}
	switch s.Kind {
	case symbols.KindProgram:
		return TokenTypeNamespace, modifiers
	case symbols.KindFunction:
		return TokenTypeFunction, modifiers
	case symbols.KindFunctionBlock:
		return TokenTypeClass, modifiers
	case symbols.KindParameter:
		return TokenTypeParameter, modifiers
	case symbols.KindConstant:
		return TokenTypeVariable, modifiers | TokenModifierReadonly
	case symbols.KindVariable, symbols.KindFunctionBlockInstance:
		return TokenTypeVariable, modifiers
	default:
		return TokenTypeVariable, modifiers
	}
}

// EncodeSemanticTokens encodes sorted tokens in the relative five-integer
// form of the protocol: deltaLine, deltaStart, length, type, modifiers.
func EncodeSemanticTokens(tokens []SemanticToken) []protocol.UInteger {
	encoded := make([]protocol.UInteger, 0, len(tokens)*5)
	var prevLine, prevChar uint32
	for _, t := range tokens {
		deltaLine := t.Line - prevLine
		deltaChar := t.StartChar
		if deltaLine == 0 {
			deltaChar = t.StartChar - prevChar
		}
		encoded = append(encoded, deltaLine, deltaChar, t.Length, t.TokenType, t.Modifiers)
		prevLine = t.Line
		prevChar = t.StartChar
	}
	return encoded
}
