package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/features"
)

// CodeAction handles the textDocument/codeAction request.
// Quick fixes are derived from the diagnostics the client sends back.
func CodeAction(context *glsp.Context, params *protocol.CodeActionParams) (any, error) {
	uri := params.TextDocument.URI
	_, doc, ok := openDocument("CodeAction", uri)
	if !ok {
		return nil, nil
	}

	if only := params.Context.Only; len(only) > 0 && !wantsQuickFix(only) {
		return []protocol.CodeAction{}, nil
	}

	actions := features.CodeActions(uri, doc.Text, params.Context.Diagnostics)
	log.Debugf("code actions for %s: %d from %d diagnostic(s)", uri, len(actions), len(params.Context.Diagnostics))
	return actions, nil
}

func wantsQuickFix(kinds []protocol.CodeActionKind) bool {
	for _, kind := range kinds {
		if kind == protocol.CodeActionKindQuickFix || kind == protocol.CodeActionKindEmpty {
			return true
		}
	}
	return false
}
