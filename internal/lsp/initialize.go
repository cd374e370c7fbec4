package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/config"
	"github.com/CWBudde/go-st-lsp/internal/features"
	"github.com/CWBudde/go-st-lsp/internal/server"
	"github.com/CWBudde/go-st-lsp/internal/workspace"
)

// Name and Version identify the server in the initialize result.
const Name = "go-st-lsp"

var Version = "0.1.0"

// Initialize handles the LSP initialize request.
// This is the first request sent by the client and establishes the server capabilities.
func Initialize(context *glsp.Context, params *protocol.InitializeParams) (any, error) {
	if srv := getServer("Initialize"); srv != nil {
		srv.SetClientCapabilities(&params.Capabilities)

		folders := workspaceRoots(params)
		srv.SetWorkspaceFolders(folders)
		log.Infof("workspace folders: %v", folders)

		if len(folders) > 0 {
			loadWorkspaceConfig(srv, folders[0])
		}
		if params.Trace != nil {
			trace := string(*params.Trace)
			if err := srv.UpdateConfig(func(cfg *config.Config) error {
				cfg.Trace = trace
				return nil
			}); err != nil {
				log.Warningf("ignoring trace %q: %s", trace, err)
			}
		}
	}

	return protocol.InitializeResult{
		Capabilities: capabilities(),
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    Name,
			Version: &Version,
		},
	}, nil
}

func capabilities() protocol.ServerCapabilities {
	changeKind := protocol.TextDocumentSyncKindIncremental
	trueVal := true
	falseVal := false

	return protocol.ServerCapabilities{
		TextDocumentSync: protocol.TextDocumentSyncOptions{
			OpenClose: &trueVal,
			Change:    &changeKind,
			Save: &protocol.SaveOptions{
				IncludeText: &falseVal,
			},
		},

		HoverProvider:           &trueVal,
		DefinitionProvider:      &trueVal,
		ReferencesProvider:      &trueVal,
		DocumentSymbolProvider:  &trueVal,
		WorkspaceSymbolProvider: &trueVal,

		// Member access triggers completion.
		CompletionProvider: &protocol.CompletionOptions{
			TriggerCharacters: []string{"."},
			ResolveProvider:   &falseVal,
		},

		SignatureHelpProvider: &protocol.SignatureHelpOptions{
			TriggerCharacters:   []string{"(", ","},
			RetriggerCharacters: []string{","},
		},

		RenameProvider: &protocol.RenameOptions{
			PrepareProvider: &trueVal,
		},

		CodeActionProvider: &protocol.CodeActionOptions{
			CodeActionKinds: []protocol.CodeActionKind{protocol.CodeActionKindQuickFix},
			ResolveProvider: &falseVal,
		},

		DocumentFormattingProvider:      &trueVal,
		DocumentRangeFormattingProvider: &trueVal,

		SemanticTokensProvider: &protocol.SemanticTokensOptions{
			Legend: features.SemanticTokensLegend(),
			Range:  true,
			Full:   protocol.SemanticDelta{Delta: &trueVal},
		},

		Workspace: &protocol.ServerCapabilitiesWorkspace{
			WorkspaceFolders: &protocol.WorkspaceFoldersServerCapabilities{
				Supported:           &trueVal,
				ChangeNotifications: &protocol.BoolOrString{Value: true},
			},
		},
	}
}

// workspaceRoots returns the folder paths of the workspace, preferring
// workspaceFolders over the deprecated rootUri and rootPath.
func workspaceRoots(params *protocol.InitializeParams) []string {
	var roots []string
	for _, f := range params.WorkspaceFolders {
		roots = append(roots, workspace.URIToPath(f.URI))
	}
	if len(roots) == 0 && params.RootURI != nil && *params.RootURI != "" {
		roots = append(roots, workspace.URIToPath(*params.RootURI))
	}
	if len(roots) == 0 && params.RootPath != nil && *params.RootPath != "" {
		roots = append(roots, *params.RootPath)
	}
	return roots
}

// loadWorkspaceConfig installs the configuration file of root, if any.
func loadWorkspaceConfig(srv *server.Server, root string) {
	loaded, err := config.LoadWorkspace(root)
	if err != nil {
		log.Warningf("configuration: %s", err)
		return
	}
	if err := srv.UpdateConfig(func(cfg *config.Config) error {
		*cfg = *loaded
		return nil
	}); err != nil {
		log.Warningf("configuration: %s", err)
	}
}

// Initialized handles the initialized notification from the client.
// Workspace indexing starts here, in the background.
func Initialized(context *glsp.Context, params *protocol.InitializedParams) error {
	srv := getServer("Initialized")
	if srv == nil {
		return nil
	}

	folders := srv.GetWorkspaceFolders()
	if len(folders) == 0 {
		log.Info("no workspace folder, indexing open documents only")
		return nil
	}
	go indexWorkspace(context, srv, folders)
	return nil
}

// indexWorkspace scans folders, then re-applies the open documents over the
// disk content and republishes their diagnostics.
func indexWorkspace(context *glsp.Context, srv *server.Server, folders []string) {
	opts := workspace.IndexOptions{Exclude: srv.Config().Exclude}
	for _, root := range folders {
		if err := srv.Index().InitializeWithOptions(srv.Context(), root, opts); err != nil {
			log.Errorf("indexing %s: %s", root, err)
		}
	}
	if srv.IsShuttingDown() {
		return
	}

	for _, doc := range srv.Documents().Snapshot() {
		srv.Index().UpdateFileIndex(doc.URI, doc.Text)
	}
	publishOpenDocuments(context, srv)
}

// Shutdown handles the shutdown request.
// Pending re-index work and background indexing are cancelled.
func Shutdown(context *glsp.Context) error {
	if srv := getServer("Shutdown"); srv != nil {
		srv.SetShuttingDown()
		log.Info("shutting down")
	}
	return nil
}

// SetTrace handles $/setTrace.
func SetTrace(context *glsp.Context, params *protocol.SetTraceParams) error {
	srv := getServer("SetTrace")
	if srv == nil {
		return nil
	}
	return srv.UpdateConfig(func(cfg *config.Config) error {
		cfg.Trace = string(params.Value)
		return nil
	})
}
