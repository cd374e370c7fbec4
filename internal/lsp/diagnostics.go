package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/analysis"
	"github.com/CWBudde/go-st-lsp/internal/server"
)

// PublishDiagnostics sends diagnostic information to the client for a specific document.
// Diagnostics are sorted by position before sending.
func PublishDiagnostics(context *glsp.Context, uri string, diagnostics []protocol.Diagnostic) {
	if context == nil || context.Notify == nil {
		log.Debugf("cannot publish diagnostics for %s: no client connection", uri)
		return
	}
	if diagnostics == nil {
		diagnostics = []protocol.Diagnostic{}
	}
	analysis.SortDiagnostics(diagnostics)

	log.Debugf("publishing %d diagnostic(s) for %s", len(diagnostics), uri)
	context.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// publishDocument computes and publishes the diagnostics of an open document.
func publishDocument(context *glsp.Context, srv *server.Server, doc *server.Document) {
	diagnostics := srv.Diagnostics(doc.URI, doc.Text)
	params := &protocol.PublishDiagnosticsParams{URI: doc.URI, Diagnostics: diagnostics}
	if doc.Version > 0 {
		version := protocol.UInteger(doc.Version)
		params.Version = &version
	}
	if context == nil || context.Notify == nil {
		return
	}
	context.Notify(protocol.ServerTextDocumentPublishDiagnostics, params)
}

// publishOpenDocuments republishes the diagnostics of every open document,
// after the index or the configuration changed.
func publishOpenDocuments(context *glsp.Context, srv *server.Server) {
	for _, doc := range srv.Documents().Snapshot() {
		publishDocument(context, srv, doc)
	}
}
