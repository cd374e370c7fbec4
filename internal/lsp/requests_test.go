package lsp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/features"
	"github.com/CWBudde/go-st-lsp/internal/server"
)

// setupWorkspace opens mainSource with the motor function block indexed
// from another file.
func setupWorkspace(t *testing.T) (*server.Server, *glsp.Context) {
	t.Helper()
	srv := newTestServer(t)
	srv.Index().UpdateFileIndex(motorURI, motorSource)
	ctx := (&recorder{}).context()
	openDoc(t, ctx, mainURI, mainSource)
	return srv, ctx
}

func TestDefinitionHandler(t *testing.T) {
	_, ctx := setupWorkspace(t)

	result, err := Definition(ctx, &protocol.DefinitionParams{TextDocumentPositionParams: position(mainURI, 2, 10)})
	require.NoError(t, err)

	locations, ok := result.([]protocol.Location)
	require.True(t, ok, "Definition returned %T", result)
	require.Len(t, locations, 1)
	assert.Equal(t, motorURI, locations[0].URI)
	assert.Equal(t, uint32(0), locations[0].Range.Start.Line)

	result, err = Definition(ctx, &protocol.DefinitionParams{TextDocumentPositionParams: position(mainURI, 7, 2)})
	require.NoError(t, err)
	assert.Nil(t, result, "keywords have no definition")
}

func TestHoverHandler(t *testing.T) {
	_, ctx := setupWorkspace(t)

	hover, err := Hover(ctx, &protocol.HoverParams{TextDocumentPositionParams: position(mainURI, 6, 15)})
	require.NoError(t, err)
	require.NotNil(t, hover)

	content, ok := hover.Contents.(protocol.MarkupContent)
	require.True(t, ok)
	assert.Equal(t, protocol.MarkupKindMarkdown, content.Kind)
	assert.Contains(t, content.Value, "running")
	assert.Contains(t, content.Value, "BOOL")
}

func TestHoverUnknownDocument(t *testing.T) {
	newTestServer(t)

	hover, err := Hover(&glsp.Context{}, &protocol.HoverParams{TextDocumentPositionParams: position("file:///missing.st", 0, 0)})
	assert.NoError(t, err)
	assert.Nil(t, hover)
}

func TestCompletionHandler(t *testing.T) {
	srv := newTestServer(t)
	srv.Index().UpdateFileIndex(motorURI, motorSource)
	ctx := &glsp.Context{}
	openDoc(t, ctx, mainURI, "PROGRAM Main\nVAR\n    m : FB_Motor;\nEND_VAR\nm.\nEND_PROGRAM\n")

	result, err := Completion(ctx, &protocol.CompletionParams{TextDocumentPositionParams: position(mainURI, 4, 2)})
	require.NoError(t, err)

	list, ok := result.(*protocol.CompletionList)
	require.True(t, ok, "Completion returned %T", result)
	labels := make([]string, 0, len(list.Items))
	for _, item := range list.Items {
		labels = append(labels, item.Label)
	}
	assert.Equal(t, []string{"enable", "running"}, labels)
}

func TestSignatureHelpHandler(t *testing.T) {
	_, ctx := setupWorkspace(t)

	help, err := SignatureHelp(ctx, &protocol.SignatureHelpParams{TextDocumentPositionParams: position(mainURI, 6, 6)})
	require.NoError(t, err)
	require.NotNil(t, help)
	require.Len(t, help.Signatures, 1)
	assert.Contains(t, help.Signatures[0].Label, "delay(IN : BOOL")
}

func TestReferencesHandler(t *testing.T) {
	_, ctx := setupWorkspace(t)

	params := &protocol.ReferenceParams{TextDocumentPositionParams: position(mainURI, 3, 6)}
	params.Context.IncludeDeclaration = true
	refs, err := References(ctx, params)
	require.NoError(t, err)
	assert.Len(t, refs, 2)

	params.Context.IncludeDeclaration = false
	refs, err = References(ctx, params)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, uint32(6), refs[0].Range.Start.Line)
}

func TestPrepareRenameHandler(t *testing.T) {
	_, ctx := setupWorkspace(t)

	result, err := PrepareRename(ctx, &protocol.PrepareRenameParams{TextDocumentPositionParams: position(mainURI, 3, 6)})
	require.NoError(t, err)
	placeholder, ok := result.(protocol.RangeWithPlaceholder)
	require.True(t, ok, "PrepareRename returned %T", result)
	assert.Equal(t, "delay", placeholder.Placeholder)
	assert.Equal(t, protocol.Position{Line: 3, Character: 4}, placeholder.Range.Start)

	_, err = PrepareRename(ctx, &protocol.PrepareRenameParams{TextDocumentPositionParams: position(mainURI, 7, 1)})
	assert.ErrorIs(t, err, features.ErrNotRenameable)
}

func TestRenameHandler(t *testing.T) {
	_, ctx := setupWorkspace(t)

	edit, err := Rename(ctx, &protocol.RenameParams{
		TextDocumentPositionParams: position(mainURI, 3, 6),
		NewName:                    "startDelay",
	})
	require.NoError(t, err)
	require.NotNil(t, edit)
	edits := edit.Changes[mainURI]
	require.Len(t, edits, 2)
	for _, e := range edits {
		assert.Equal(t, "startDelay", e.NewText)
	}

	_, err = Rename(ctx, &protocol.RenameParams{
		TextDocumentPositionParams: position(mainURI, 3, 6),
		NewName:                    "IF",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, features.ErrReservedName), err.Error())
}

func TestCodeActionHandler(t *testing.T) {
	srv := newTestServer(t)
	ctx := &glsp.Context{}
	text := "x := (1 + 2;"
	openDoc(t, ctx, mainURI, text)
	diagnostics := srv.Diagnostics(mainURI, text)
	require.Len(t, diagnostics, 1)

	params := &protocol.CodeActionParams{TextDocument: protocol.TextDocumentIdentifier{URI: mainURI}}
	params.Context.Diagnostics = diagnostics

	result, err := CodeAction(ctx, params)
	require.NoError(t, err)
	actions, ok := result.([]protocol.CodeAction)
	require.True(t, ok, "CodeAction returned %T", result)
	require.Len(t, actions, 1)
	assert.Equal(t, "Insert closing parenthesis", actions[0].Title)

	params.Context.Only = []protocol.CodeActionKind{protocol.CodeActionKindRefactor}
	result, err = CodeAction(ctx, params)
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestFormattingUsesClientOptions(t *testing.T) {
	newTestServer(t)
	ctx := &glsp.Context{}
	openDoc(t, ctx, mainURI, "IF a THEN\nb := 1;\nEND_IF;\n")

	edits, err := Formatting(ctx, &protocol.DocumentFormattingParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: mainURI},
		Options: protocol.FormattingOptions{
			protocol.FormattingOptionTabSize:      float64(2),
			protocol.FormattingOptionInsertSpaces: true,
		},
	})
	require.NoError(t, err)
	require.Len(t, edits, 1)
	assert.Equal(t, uint32(1), edits[0].Range.Start.Line)
	assert.Equal(t, "  b := 1;", edits[0].NewText)
}

func TestRangeFormattingOnlyTouchesRange(t *testing.T) {
	newTestServer(t)
	ctx := &glsp.Context{}
	openDoc(t, ctx, mainURI, "IF a THEN\nb := 1;\nc := 2;\nEND_IF;\n")

	edits, err := RangeFormatting(ctx, &protocol.DocumentRangeFormattingParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: mainURI},
		Range: protocol.Range{
			Start: protocol.Position{Line: 2, Character: 0},
			End:   protocol.Position{Line: 2, Character: 7},
		},
		Options: protocol.FormattingOptions{},
	})
	require.NoError(t, err)
	require.Len(t, edits, 1)
	assert.Equal(t, uint32(2), edits[0].Range.Start.Line)
	assert.Equal(t, "    c := 2;", edits[0].NewText)
}

func TestDocumentSymbolHandler(t *testing.T) {
	_, ctx := setupWorkspace(t)

	result, err := DocumentSymbol(ctx, &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: mainURI},
	})
	require.NoError(t, err)

	outline, ok := result.([]protocol.DocumentSymbol)
	require.True(t, ok, "DocumentSymbol returned %T", result)
	require.Len(t, outline, 1)
	assert.Equal(t, "Main", outline[0].Name)
	assert.Len(t, outline[0].Children, 2)
}

func TestWorkspaceSymbolHandler(t *testing.T) {
	_, ctx := setupWorkspace(t)

	found, err := WorkspaceSymbol(ctx, &protocol.WorkspaceSymbolParams{Query: "MOTOR"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "FB_Motor", found[0].Name)
	assert.Equal(t, motorURI, found[0].Location.URI)
}
