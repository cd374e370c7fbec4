//go:build integration

package integration

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/lsp"
	"github.com/CWBudde/go-st-lsp/internal/server"
	"github.com/CWBudde/go-st-lsp/internal/workspace"
)

// client drives the handlers the way an editor would and records the
// diagnostics the server publishes.
type client struct {
	t   *testing.T
	srv *server.Server
	ctx *glsp.Context

	mu          sync.Mutex
	diagnostics map[string][]protocol.Diagnostic
	versions    map[string]int
}

// startServer initializes a server on root and waits for the workspace
// index to be built.
func startServer(t *testing.T, root string) *client {
	t.Helper()
	srv := server.New()
	lsp.SetServer(srv)

	c := &client{
		t:           t,
		srv:         srv,
		diagnostics: map[string][]protocol.Diagnostic{},
		versions:    map[string]int{},
	}
	c.ctx = &glsp.Context{Notify: c.notify}

	rootURI := workspace.PathToURI(root)
	_, err := lsp.Initialize(c.ctx, &protocol.InitializeParams{
		RootURI:          &rootURI,
		WorkspaceFolders: []protocol.WorkspaceFolder{{URI: rootURI, Name: filepath.Base(root)}},
	})
	require.NoError(t, err)
	require.NoError(t, lsp.Initialized(c.ctx, &protocol.InitializedParams{}))

	t.Cleanup(func() {
		require.NoError(t, lsp.Shutdown(c.ctx))
		lsp.SetServer(nil)
	})
	return c
}

func (c *client) notify(method string, params any) {
	if method != protocol.ServerTextDocumentPublishDiagnostics {
		return
	}
	p := params.(*protocol.PublishDiagnosticsParams)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diagnostics[p.URI] = p.Diagnostics
}

func (c *client) published(uri string) []protocol.Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.diagnostics[uri]
}

// waitIndexed blocks until the index knows the unit name.
func (c *client) waitIndexed(name string) {
	c.t.Helper()
	require.Eventually(c.t, func() bool {
		return c.srv.Index().LookupUnit(name) != nil
	}, 5*time.Second, 10*time.Millisecond, "unit %s never indexed", name)
}

func (c *client) open(uri string, text string) {
	c.t.Helper()
	c.versions[uri] = 1
	require.NoError(c.t, lsp.DidOpen(c.ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, LanguageID: "iecst", Version: 1, Text: text},
	}))
}

func (c *client) edit(uri string, changes ...any) {
	c.t.Helper()
	c.versions[uri]++
	require.NoError(c.t, lsp.DidChange(c.ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                protocol.Integer(c.versions[uri]),
		},
		ContentChanges: changes,
	}))
}

func (c *client) text(uri string) string {
	c.t.Helper()
	doc, ok := c.srv.Documents().Get(uri)
	require.True(c.t, ok, "%s is not open", uri)
	return doc.Text
}

func at(uri string, line, char uint32) protocol.TextDocumentPositionParams {
	return protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Position:     protocol.Position{Line: line, Character: char},
	}
}

func insert(line, char uint32, text string) protocol.TextDocumentContentChangeEvent {
	p := protocol.Position{Line: line, Character: char}
	return protocol.TextDocumentContentChangeEvent{Range: &protocol.Range{Start: p, End: p}, Text: text}
}

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
