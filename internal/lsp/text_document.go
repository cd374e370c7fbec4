package lsp

import (
	"os"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/document"
	"github.com/CWBudde/go-st-lsp/internal/server"
	"github.com/CWBudde/go-st-lsp/internal/workspace"
)

// DidOpen handles the textDocument/didOpen notification.
// The document is stored, indexed right away and its diagnostics published.
func DidOpen(context *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	srv := getServer("DidOpen")
	if srv == nil {
		return nil
	}

	doc := &server.Document{
		URI:        params.TextDocument.URI,
		Text:       params.TextDocument.Text,
		Version:    int(params.TextDocument.Version),
		LanguageID: params.TextDocument.LanguageID,
	}
	log.Infof("document opened: %s (version %d, language %s, %d bytes)",
		doc.URI, doc.Version, doc.LanguageID, len(doc.Text))

	srv.Documents().Open(doc)
	srv.Index().UpdateFileIndex(doc.URI, doc.Text)
	publishDocument(context, srv, doc)
	return nil
}

// DidChange handles the textDocument/didChange notification.
// Both incremental and full changes are accepted. Diagnostics are published
// for every change; re-indexing waits until the document has been quiet for
// the configured debounce interval.
func DidChange(context *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	srv := getServer("DidChange")
	if srv == nil {
		return nil
	}

	uri := params.TextDocument.URI
	old, exists := srv.Documents().Get(uri)
	if !exists {
		log.Warningf("document not found for didChange: %s", uri)
		return nil
	}
	version := int(params.TextDocument.Version)
	if version > 0 && version < old.Version {
		log.Warningf("dropping stale change to %s (version %d < %d)", uri, version, old.Version)
		return nil
	}

	text, err := document.ApplyChanges(old.Text, params.ContentChanges)
	if err != nil {
		// Keep the previous text rather than store a corrupted one.
		log.Errorf("applying changes to %s: %s", uri, err)
		return nil
	}

	doc, ok := srv.Documents().Update(uri, text, version)
	if !ok {
		// Closed or overtaken while the changes were applied.
		return nil
	}
	log.Debugf("document changed: %s (version %d, %d change(s))", uri, doc.Version, len(params.ContentChanges))

	scheduleReindex(srv, uri)
	publishDocument(context, srv, doc)
	return nil
}

// scheduleReindex re-indexes the latest text of uri once edits pause.
func scheduleReindex(srv *server.Server, uri string) {
	srv.Debouncer().Schedule(uri, func() {
		if doc, ok := srv.Documents().Get(uri); ok {
			srv.Index().UpdateFileIndex(uri, doc.Text)
		}
	})
}

// DidSave handles the textDocument/didSave notification by indexing the
// document without waiting for the debounce interval.
func DidSave(context *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	srv := getServer("DidSave")
	if srv == nil {
		return nil
	}

	uri := params.TextDocument.URI
	srv.Debouncer().Cancel(uri)
	if doc, ok := srv.Documents().Get(uri); ok {
		srv.Index().UpdateFileIndex(uri, doc.Text)
	}
	return nil
}

// DidClose handles the textDocument/didClose notification.
// A file that still exists inside the workspace is re-indexed from disk so
// cross-file definitions keep working; any other document leaves the index.
func DidClose(context *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	srv := getServer("DidClose")
	if srv == nil {
		return nil
	}

	uri := params.TextDocument.URI
	srv.Debouncer().Cancel(uri)
	srv.Documents().Close(uri)
	srv.SemanticTokens().InvalidateDocument(uri)

	path := workspace.URIToPath(uri)
	if content, err := os.ReadFile(path); err == nil && srv.InWorkspace(path) && workspace.IsSourceFile(path) {
		srv.Index().UpdateFileIndex(uri, string(content))
	} else {
		srv.Index().RemoveFileFromIndex(uri)
	}
	log.Infof("document closed: %s", uri)

	// Clear the editor's markers for the closed document.
	PublishDiagnostics(context, uri, []protocol.Diagnostic{})
	return nil
}
