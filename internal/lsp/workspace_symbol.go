package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/features"
)

// WorkspaceSymbol handles the workspace/symbol request.
// The query matches symbol names case-insensitively as a substring.
func WorkspaceSymbol(context *glsp.Context, params *protocol.WorkspaceSymbolParams) ([]protocol.SymbolInformation, error) {
	srv := getServer("WorkspaceSymbol")
	if srv == nil {
		return nil, nil
	}

	results := features.WorkspaceSymbols(params.Query, srv.Index())
	log.Debugf("workspace symbol query %q: %d result(s)", params.Query, len(results))
	return results, nil
}
