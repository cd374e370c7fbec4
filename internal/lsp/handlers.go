// Package lsp implements LSP protocol handlers.
//
// Handlers are thin adapters: they look up the open document, call the
// matching provider of the features or format package and translate the
// result. Server state lives in the server package and is reached through
// the instance installed with SetServer.
package lsp

import (
	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/server"
)

var log = commonlog.GetLogger("st-lsp.lsp")

// serverInstance holds the global server instance. It is set by SetServer
// and read by every handler.
var serverInstance any

// SetServer sets the global server instance for handlers to access.
func SetServer(srv any) {
	serverInstance = srv
}

// NewHandler returns the protocol handler with every supported request and
// notification wired.
func NewHandler() *protocol.Handler {
	return &protocol.Handler{
		Initialize:  Initialize,
		Initialized: Initialized,
		Shutdown:    Shutdown,
		SetTrace:    SetTrace,

		WorkspaceDidChangeWorkspaceFolders: DidChangeWorkspaceFolders,
		WorkspaceDidChangeConfiguration:    DidChangeConfiguration,
		WorkspaceDidChangeWatchedFiles:     DidChangeWatchedFiles,
		WorkspaceSymbol:                    WorkspaceSymbol,

		TextDocumentDidOpen:   DidOpen,
		TextDocumentDidChange: DidChange,
		TextDocumentDidSave:   DidSave,
		TextDocumentDidClose:  DidClose,

		TextDocumentCompletion:      Completion,
		TextDocumentHover:           Hover,
		TextDocumentSignatureHelp:   SignatureHelp,
		TextDocumentDefinition:      Definition,
		TextDocumentReferences:      References,
		TextDocumentDocumentSymbol:  DocumentSymbol,
		TextDocumentCodeAction:      CodeAction,
		TextDocumentFormatting:      Formatting,
		TextDocumentRangeFormatting: RangeFormatting,
		TextDocumentRename:          Rename,
		TextDocumentPrepareRename:   PrepareRename,

		TextDocumentSemanticTokensFull:      SemanticTokensFull,
		TextDocumentSemanticTokensFullDelta: SemanticTokensFullDelta,
		TextDocumentSemanticTokensRange:     SemanticTokensRange,
	}
}

// getServer returns the installed server, logging a warning naming the
// handler when there is none.
func getServer(handler string) *server.Server {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Warningf("server instance not available in %s", handler)
		return nil
	}
	return srv
}

// openDocument returns the server and the open document for uri.
func openDocument(handler string, uri string) (*server.Server, *server.Document, bool) {
	srv := getServer(handler)
	if srv == nil {
		return nil, nil, false
	}
	doc, ok := srv.Documents().Get(uri)
	if !ok {
		log.Debugf("document not found for %s: %s", handler, uri)
		return nil, nil, false
	}
	return srv, doc, true
}
