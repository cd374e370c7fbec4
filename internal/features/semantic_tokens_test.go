package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// tokenAt returns the token starting at line and char.
func tokenAt(t *testing.T, tokens []SemanticToken, line, char uint32) SemanticToken {
	t.Helper()
	for _, tok := range tokens {
		if tok.Line == line && tok.StartChar == char {
			return tok
		}
	}
	require.Failf(t, "no token", "no semantic token at %d:%d", line, char)
	return SemanticToken{}
}

func TestSemanticTokensLegend(t *testing.T) {
	l := SemanticTokensLegend()
	assert.Equal(t, "namespace", l.TokenTypes[TokenTypeNamespace])
	assert.Equal(t, "keyword", l.TokenTypes[TokenTypeKeyword])
	assert.Equal(t, "macro", l.TokenTypes[TokenTypeMacro])
	assert.Equal(t, "defaultLibrary", l.TokenModifiers[4])
	assert.Equal(t, uint32(1<<4), TokenModifierDefaultLibrary)

	// Callers get a copy.
	l.TokenTypes[0] = "changed"
	assert.Equal(t, "namespace", SemanticTokensLegend().TokenTypes[0])
}

func TestSemanticTokensClassification(t *testing.T) {
	tokens := SemanticTokens(mainURI, counterSource, nil)

	tests := []struct {
		name      string
		line      uint32
		char      uint32
		length    uint32
		tokenType uint32
		modifiers uint32
	}{
		{"program keyword", 0, 0, 7, TokenTypeKeyword, 0},
		{"program name", 0, 8, 4, TokenTypeNamespace, TokenModifierDeclaration},
		{"variable declaration", 2, 4, 7, TokenTypeVariable, TokenModifierDeclaration},
		{"elementary type", 2, 14, 3, TokenTypeType, TokenModifierDefaultLibrary},
		{"standard block type", 3, 12, 3, TokenTypeClass, TokenModifierDefaultLibrary},
		{"assignment target", 5, 0, 7, TokenTypeVariable, TokenModifierModification},
		{"variable read", 5, 11, 7, TokenTypeVariable, 0},
		{"integer literal", 5, 21, 1, TokenTypeNumber, 0},
		{"instance call", 6, 0, 5, TokenTypeVariable, 0},
		{"named argument", 6, 6, 2, TokenTypeParameter, 0},
		{"boolean literal", 6, 12, 4, TokenTypeKeyword, 0},
		{"time literal", 6, 24, 4, TokenTypeNumber, 0},
		{"member access", 7, 9, 1, TokenTypeProperty, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := tokenAt(t, tokens, tt.line, tt.char)
			assert.Equal(t, tt.length, tok.Length)
			assert.Equal(t, tt.tokenType, tok.TokenType)
			assert.Equal(t, tt.modifiers, tok.Modifiers)
		})
	}
}

func TestSemanticTokensSorted(t *testing.T) {
	tokens := SemanticTokens(mainURI, counterSource, nil)
	require.NotEmpty(t, tokens)
	for i := 1; i < len(tokens); i++ {
		prev, cur := tokens[i-1], tokens[i]
		assert.True(t, prev.Line < cur.Line || (prev.Line == cur.Line && prev.StartChar < cur.StartChar),
			"token %d at %d:%d out of order", i, cur.Line, cur.StartChar)
	}
}

func TestSemanticTokensRegions(t *testing.T) {
	src := "{attribute 'qualified_only'}\n" +
		"PROGRAM Main (* first\n" +
		"second *)\n" +
		"VAR\n" +
		"    msg : STRING := 'hi'; // greeting\n" +
		"END_VAR\n" +
		"END_PROGRAM\n"
	tokens := SemanticTokens(mainURI, src, nil)

	pragma := tokenAt(t, tokens, 0, 0)
	assert.Equal(t, TokenTypeMacro, pragma.TokenType)
	assert.Equal(t, uint32(28), pragma.Length)

	// A block comment spanning two lines yields one token per line.
	first := tokenAt(t, tokens, 1, 13)
	assert.Equal(t, TokenTypeComment, first.TokenType)
	assert.Equal(t, uint32(8), first.Length)
	second := tokenAt(t, tokens, 2, 0)
	assert.Equal(t, TokenTypeComment, second.TokenType)
	assert.Equal(t, uint32(9), second.Length)

	str := tokenAt(t, tokens, 4, 20)
	assert.Equal(t, TokenTypeString, str.TokenType)
	assert.Equal(t, uint32(4), str.Length)

	comment := tokenAt(t, tokens, 4, 26)
	assert.Equal(t, TokenTypeComment, comment.TokenType)
}

func TestSemanticTokensEnumerations(t *testing.T) {
	src := "TYPE E_State : (Idle, Running); END_TYPE\n" +
		"PROGRAM Main\n" +
		"VAR\n" +
		"    state : E_State;\n" +
		"END_VAR\n" +
		"state := Running;\n" +
		"END_PROGRAM\n"
	tokens := SemanticTokens(mainURI, src, nil)

	decl := tokenAt(t, tokens, 0, 5)
	assert.Equal(t, TokenTypeEnum, decl.TokenType)
	assert.Equal(t, TokenModifierDeclaration, decl.Modifiers)

	use := tokenAt(t, tokens, 3, 12)
	assert.Equal(t, TokenTypeEnum, use.TokenType)
	assert.Zero(t, use.Modifiers)

	value := tokenAt(t, tokens, 5, 9)
	assert.Equal(t, TokenTypeEnumMember, value.TokenType)
	assert.Equal(t, TokenModifierReadonly, value.Modifiers)
}

func TestSemanticTokensWorkspaceUnits(t *testing.T) {
	src := "PROGRAM Main\nVAR\n    m : FB_Motor;\nEND_VAR\nEND_PROGRAM\n"

	without := SemanticTokens(mainURI, src, nil)
	for _, tok := range without {
		assert.False(t, tok.Line == 2 && tok.StartChar == 8, "unknown type should not be classified")
	}

	with := SemanticTokens(mainURI, src, motorIndex(t))
	fb := tokenAt(t, with, 2, 8)
	assert.Equal(t, TokenTypeClass, fb.TokenType)
	assert.Equal(t, uint32(8), fb.Length)
}

func TestSemanticTokensUTF16Columns(t *testing.T) {
	src := "PROGRAM Main // \U0001F600 ok\nEND_PROGRAM\n"
	tokens := SemanticTokens(mainURI, src, nil)

	comment := tokenAt(t, tokens, 0, 13)
	// "// " + surrogate pair + " ok"
	assert.Equal(t, uint32(8), comment.Length)
}

func TestSemanticTokensInRange(t *testing.T) {
	tokens := SemanticTokens(mainURI, counterSource, nil)

	got := SemanticTokensInRange(tokens, rng(5, 0, 6, 0))
	require.NotEmpty(t, got)
	for _, tok := range got {
		assert.Equal(t, uint32(5), tok.Line)
	}

	assert.Empty(t, SemanticTokensInRange(tokens, rng(40, 0, 41, 0)))
}

func TestEncodeSemanticTokens(t *testing.T) {
	tokens := []SemanticToken{
		{Line: 0, StartChar: 0, Length: 7, TokenType: TokenTypeKeyword},
		{Line: 0, StartChar: 8, Length: 4, TokenType: TokenTypeNamespace, Modifiers: TokenModifierDeclaration},
		{Line: 2, StartChar: 4, Length: 7, TokenType: TokenTypeVariable},
	}
	assert.Equal(t, []protocol.UInteger{
		0, 0, 7, TokenTypeKeyword, 0,
		0, 8, 4, TokenTypeNamespace, TokenModifierDeclaration,
		2, 4, 7, TokenTypeVariable, 0,
	}, EncodeSemanticTokens(tokens))

	assert.Empty(t, EncodeSemanticTokens(nil))
}
