package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/features"
)

// PrepareRename handles the textDocument/prepareRename request.
// A rejected position is returned as an error so the client can show why.
func PrepareRename(context *glsp.Context, params *protocol.PrepareRenameParams) (any, error) {
	uri := params.TextDocument.URI
	_, doc, ok := openDocument("PrepareRename", uri)
	if !ok {
		return nil, nil
	}

	rng, name, err := features.PrepareRename(uri, doc.Text, params.Position)
	if err != nil {
		log.Debugf("prepare rename rejected at %s %d:%d: %s",
			uri, params.Position.Line, params.Position.Character, err)
		return nil, err
	}
	return protocol.RangeWithPlaceholder{Range: rng, Placeholder: name}, nil
}

// Rename handles the textDocument/rename request.
// Every whole-token occurrence in the document is replaced; invalid new
// names are rejected before any edit is computed.
func Rename(context *glsp.Context, params *protocol.RenameParams) (*protocol.WorkspaceEdit, error) {
	uri := params.TextDocument.URI
	srv, doc, ok := openDocument("Rename", uri)
	if !ok {
		return nil, nil
	}

	edit, err := features.Rename(uri, doc.Text, params.Position, params.NewName, srv.Index())
	if err != nil {
		log.Infof("rename to %q rejected: %s", params.NewName, err)
		return nil, err
	}
	return edit, nil
}
