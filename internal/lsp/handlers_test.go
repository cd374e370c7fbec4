package lsp

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/server"
)

const (
	mainURI  = "file:///project/main.st"
	motorURI = "file:///project/motor.st"
)

const motorSource = `FUNCTION_BLOCK FB_Motor
VAR_INPUT
    enable : BOOL;
END_VAR
VAR_OUTPUT
    running : BOOL;
END_VAR
running := enable;
END_FUNCTION_BLOCK
`

const mainSource = `PROGRAM Main
VAR
    m : FB_Motor;
    delay : TON;
END_VAR
m(enable := TRUE);
delay(IN := m.running, PT := T#1s);
END_PROGRAM
`

// recorder collects the notifications a handler sends to the client.
type recorder struct {
	mu          sync.Mutex
	diagnostics []*protocol.PublishDiagnosticsParams
}

func (r *recorder) context() *glsp.Context {
	return &glsp.Context{
		Notify: func(method string, params any) {
			if method != protocol.ServerTextDocumentPublishDiagnostics {
				return
			}
			r.mu.Lock()
			defer r.mu.Unlock()
			r.diagnostics = append(r.diagnostics, params.(*protocol.PublishDiagnosticsParams))
		},
	}
}

// last returns the latest diagnostics published for uri.
func (r *recorder) last(uri string) *protocol.PublishDiagnosticsParams {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.diagnostics) - 1; i >= 0; i-- {
		if r.diagnostics[i].URI == uri {
			return r.diagnostics[i]
		}
	}
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.diagnostics)
}

func newTestServer(t *testing.T) *server.Server {
	t.Helper()
	srv := server.New()
	SetServer(srv)
	t.Cleanup(func() {
		srv.SetShuttingDown()
		SetServer(nil)
	})
	return srv
}

func openDoc(t *testing.T, ctx *glsp.Context, uri string, text string) {
	t.Helper()
	require.NoError(t, DidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        uri,
			LanguageID: "iecst",
			Version:    1,
			Text:       text,
		},
	}))
}

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func position(uri string, line, char uint32) protocol.TextDocumentPositionParams {
	return protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Position:     protocol.Position{Line: line, Character: char},
	}
}

func TestHandlersWithoutServer(t *testing.T) {
	SetServer(nil)
	ctx := &glsp.Context{}

	if err := DidOpen(ctx, &protocol.DidOpenTextDocumentParams{}); err != nil {
		t.Fatalf("DidOpen returned error: %v", err)
	}
	if result, err := Definition(ctx, &protocol.DefinitionParams{TextDocumentPositionParams: position(mainURI, 0, 0)}); result != nil || err != nil {
		t.Errorf("Definition = %v, %v; want nil, nil", result, err)
	}
	if hover, err := Hover(ctx, &protocol.HoverParams{TextDocumentPositionParams: position(mainURI, 0, 0)}); hover != nil || err != nil {
		t.Errorf("Hover = %v, %v; want nil, nil", hover, err)
	}
}

func TestNewHandlerWiresRequests(t *testing.T) {
	h := NewHandler()

	require.NotNil(t, h.Initialize)
	require.NotNil(t, h.TextDocumentDidChange)
	require.NotNil(t, h.TextDocumentFormatting)
	require.NotNil(t, h.TextDocumentSignatureHelp)
	require.NotNil(t, h.WorkspaceDidChangeWatchedFiles)
	require.NotNil(t, h.TextDocumentSemanticTokensFullDelta)
}
