package lsp

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/config"
	"github.com/CWBudde/go-st-lsp/internal/workspace"
)

const undefinedSource = "PROGRAM Main\nVAR\n    x : INT;\nEND_VAR\nx := gLimit;\nEND_PROGRAM\n"

func TestDidOpen(t *testing.T) {
	srv := newTestServer(t)
	rec := &recorder{}

	openDoc(t, rec.context(), mainURI, undefinedSource)

	doc, exists := srv.Documents().Get(mainURI)
	require.True(t, exists, "document was not stored")
	assert.Equal(t, undefinedSource, doc.Text)
	assert.Equal(t, 1, doc.Version)
	assert.Equal(t, "iecst", doc.LanguageID)
	assert.NotNil(t, srv.Index().LookupUnit("main"), "opened documents are indexed right away")

	published := rec.last(mainURI)
	require.NotNil(t, published)
	require.Len(t, published.Diagnostics, 1)
	assert.Equal(t, "Undefined identifier 'gLimit'", published.Diagnostics[0].Message)
	require.NotNil(t, published.Version)
	assert.Equal(t, protocol.UInteger(1), *published.Version)
}

func TestDidChangeIncremental(t *testing.T) {
	srv := newTestServer(t)
	rec := &recorder{}
	openDoc(t, rec.context(), mainURI, undefinedSource)

	err := DidChange(rec.context(), &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: mainURI},
			Version:                2,
		},
		ContentChanges: []any{
			protocol.TextDocumentContentChangeEvent{
				Range: &protocol.Range{
					Start: protocol.Position{Line: 4, Character: 5},
					End:   protocol.Position{Line: 4, Character: 11},
				},
				Text: "x + 1",
			},
		},
	})
	require.NoError(t, err)

	doc, _ := srv.Documents().Get(mainURI)
	assert.Equal(t, "PROGRAM Main\nVAR\n    x : INT;\nEND_VAR\nx := x + 1;\nEND_PROGRAM\n", doc.Text)
	assert.Equal(t, 2, doc.Version)

	published := rec.last(mainURI)
	require.NotNil(t, published)
	assert.Empty(t, published.Diagnostics)
	require.NotNil(t, published.Version)
	assert.Equal(t, protocol.UInteger(2), *published.Version)
}

func TestDidChangeFullReplace(t *testing.T) {
	srv := newTestServer(t)
	rec := &recorder{}
	openDoc(t, rec.context(), mainURI, undefinedSource)

	require.NoError(t, DidChange(rec.context(), &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: mainURI},
			Version:                2,
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: "x := 1;\n"}},
	}))

	doc, _ := srv.Documents().Get(mainURI)
	assert.Equal(t, "x := 1;\n", doc.Text)
}

func TestDidChangeKeepsTextOnBadRange(t *testing.T) {
	srv := newTestServer(t)
	rec := &recorder{}
	openDoc(t, rec.context(), mainURI, undefinedSource)
	before := rec.count()

	require.NoError(t, DidChange(rec.context(), &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: mainURI},
			Version:                2,
		},
		ContentChanges: []any{
			protocol.TextDocumentContentChangeEvent{
				Range: &protocol.Range{
					Start: protocol.Position{Line: 40, Character: 0},
					End:   protocol.Position{Line: 41, Character: 0},
				},
				Text: "oops",
			},
		},
	}))

	doc, _ := srv.Documents().Get(mainURI)
	assert.Equal(t, undefinedSource, doc.Text)
	assert.Equal(t, 1, doc.Version)
	assert.Equal(t, before, rec.count(), "nothing is published for a rejected change")
}

func TestDidChangeDropsStaleVersion(t *testing.T) {
	srv := newTestServer(t)
	rec := &recorder{}
	openDoc(t, rec.context(), mainURI, undefinedSource)

	change := func(version protocol.Integer, text string) {
		require.NoError(t, DidChange(rec.context(), &protocol.DidChangeTextDocumentParams{
			TextDocument: protocol.VersionedTextDocumentIdentifier{
				TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: mainURI},
				Version:                version,
			},
			ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: text}},
		}))
	}
	change(5, "x := 5;\n")
	change(3, "x := 3;\n")

	doc, _ := srv.Documents().Get(mainURI)
	assert.Equal(t, "x := 5;\n", doc.Text)
	assert.Equal(t, 5, doc.Version)
}

func TestDidChangeReindexesAfterQuietPeriod(t *testing.T) {
	srv := newTestServer(t)
	require.NoError(t, srv.UpdateConfig(func(cfg *config.Config) error {
		cfg.DebounceMs = 10
		return nil
	}))
	rec := &recorder{}
	openDoc(t, rec.context(), mainURI, "FUNCTION First : INT\nFirst := 1;\nEND_FUNCTION\n")

	require.NoError(t, DidChange(rec.context(), &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: mainURI},
			Version:                2,
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: "FUNCTION Second : INT\nSecond := 1;\nEND_FUNCTION\n"}},
	}))

	assert.Eventually(t, func() bool {
		return srv.Index().LookupUnit("second") != nil && srv.Index().LookupUnit("first") == nil
	}, time.Second, 5*time.Millisecond)
}

func TestDidSaveIndexesImmediately(t *testing.T) {
	srv := newTestServer(t)
	require.NoError(t, srv.UpdateConfig(func(cfg *config.Config) error {
		cfg.DebounceMs = 60000
		return nil
	}))
	rec := &recorder{}
	openDoc(t, rec.context(), mainURI, "FUNCTION First : INT\nFirst := 1;\nEND_FUNCTION\n")

	require.NoError(t, DidChange(rec.context(), &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: mainURI},
			Version:                2,
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: "FUNCTION Second : INT\nSecond := 1;\nEND_FUNCTION\n"}},
	}))
	assert.Nil(t, srv.Index().LookupUnit("second"), "re-indexing waits for the quiet period")

	require.NoError(t, DidSave(rec.context(), &protocol.DidSaveTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: mainURI},
	}))
	assert.NotNil(t, srv.Index().LookupUnit("second"))
}

func TestDidCloseRemovesUnsavedDocument(t *testing.T) {
	srv := newTestServer(t)
	rec := &recorder{}
	openDoc(t, rec.context(), mainURI, undefinedSource)

	require.NoError(t, DidClose(rec.context(), &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: mainURI},
	}))

	_, exists := srv.Documents().Get(mainURI)
	assert.False(t, exists, "document should be removed after DidClose")
	assert.False(t, srv.Index().HasFile(mainURI))

	published := rec.last(mainURI)
	require.NotNil(t, published)
	assert.Empty(t, published.Diagnostics, "closing clears the document's markers")
}

func TestDidCloseReindexesFromDisk(t *testing.T) {
	srv := newTestServer(t)
	root := t.TempDir()
	path := filepath.Join(root, "lib.st")
	writeFile(t, path, "FUNCTION DiskOnly : INT\nDiskOnly := 1;\nEND_FUNCTION\n")
	srv.SetWorkspaceFolders([]string{root})
	uri := workspace.PathToURI(path)

	rec := &recorder{}
	openDoc(t, rec.context(), uri, "FUNCTION Unsaved : INT\nUnsaved := 1;\nEND_FUNCTION\n")
	require.NotNil(t, srv.Index().LookupUnit("unsaved"))

	require.NoError(t, DidClose(rec.context(), &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}))

	assert.True(t, srv.Index().HasFile(uri))
	assert.NotNil(t, srv.Index().LookupUnit("diskonly"))
	assert.Nil(t, srv.Index().LookupUnit("unsaved"))
}
