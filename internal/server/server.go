// Package server provides the core LSP server state and management.
package server

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/analysis"
	"github.com/CWBudde/go-st-lsp/internal/config"
	"github.com/CWBudde/go-st-lsp/internal/features"
	"github.com/CWBudde/go-st-lsp/internal/workspace"
)

var log = commonlog.GetLogger("st-lsp.server")

// Server holds the state of the LSP server.
type Server struct {
	// documents stores all open documents
	documents *DocumentStore

	// index holds the symbols of every Structured Text file in the workspace,
	// open or not
	index *workspace.Index

	// debouncer delays re-indexing while a document is being edited
	debouncer *workspace.Debouncer

	// semanticTokens remembers the last token set sent per document
	semanticTokens *SemanticTokensCache

	// workspaceFolders stores the workspace root paths from the client
	workspaceFolders []string

	// clientCapabilities stores the client's capabilities from the initialize request
	clientCapabilities *protocol.ClientCapabilities

	config *config.Config

	// ctx bounds background work such as workspace indexing; it is
	// cancelled on shutdown
	ctx    context.Context
	cancel context.CancelFunc

	mu sync.RWMutex

	shuttingDown bool
}

// New creates a new LSP server instance with the default configuration.
func New() *Server {
	return NewWithConfig(config.Default())
}

// NewWithConfig creates a server using cfg.
func NewWithConfig(cfg *config.Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		documents: NewDocumentStore(),
		index:     workspace.NewIndex(),
		debouncer: workspace.NewDebouncer(cfg.Debounce()),
		config:    cfg,
		ctx:       ctx,
		cancel:    cancel,

		semanticTokens: NewSemanticTokensCache(),
	}
}

// IsShuttingDown returns true if the server is shutting down.
func (s *Server) IsShuttingDown() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shuttingDown
}

// SetShuttingDown marks the server as shutting down, drops pending
// re-index work and cancels background indexing.
func (s *Server) SetShuttingDown() {
	s.mu.Lock()
	s.shuttingDown = true
	s.mu.Unlock()

	s.debouncer.Stop()
	s.cancel()
}

// Context returns the context of background work.
func (s *Server) Context() context.Context {
	return s.ctx
}

// Documents returns the document store.
func (s *Server) Documents() *DocumentStore {
	return s.documents
}

// Index returns the workspace symbol index.
func (s *Server) Index() *workspace.Index {
	return s.index
}

// Debouncer returns the re-index debouncer.
func (s *Server) Debouncer() *workspace.Debouncer {
	return s.debouncer
}

// SemanticTokens returns the semantic tokens cache.
func (s *Server) SemanticTokens() *SemanticTokensCache {
	return s.semanticTokens
}

// Config returns a copy of the server configuration.
func (s *Server) Config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.Clone()
}

// UpdateConfig applies update to a copy of the configuration and installs it
// if it validates. The previous configuration is kept on error.
func (s *Server) UpdateConfig(update func(*config.Config) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.config.Clone()
	if err := update(next); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	s.config = next
	s.debouncer.SetDelay(next.Debounce())
	return nil
}

// SetWorkspaceFolders sets the workspace root paths.
func (s *Server) SetWorkspaceFolders(folders []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workspaceFolders = folders
}

// GetWorkspaceFolders returns the workspace root paths.
func (s *Server) GetWorkspaceFolders() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.workspaceFolders...)
}

// InWorkspace reports whether path lies under one of the workspace folders.
func (s *Server) InWorkspace(path string) bool {
	for _, root := range s.GetWorkspaceFolders() {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// SetClientCapabilities sets the client's capabilities.
func (s *Server) SetClientCapabilities(capabilities *protocol.ClientCapabilities) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientCapabilities = capabilities
}

// GetClientCapabilities returns the client's capabilities.
func (s *Server) GetClientCapabilities() *protocol.ClientCapabilities {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clientCapabilities
}

// SupportsSnippets returns true if the client supports snippet completions.
func (s *Server) SupportsSnippets() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	caps := s.clientCapabilities
	if caps == nil || caps.TextDocument == nil || caps.TextDocument.Completion == nil {
		return false
	}
	item := caps.TextDocument.Completion.CompletionItem
	if item == nil || item.SnippetSupport == nil {
		return false
	}
	return *item.SnippetSupport
}

// CompletionOptions returns the completion options for the connected client.
func (s *Server) CompletionOptions() features.CompletionOptions {
	return features.CompletionOptions{SnippetSupport: s.SupportsSnippets()}
}

// Diagnostics computes the diagnostics of a document with the configured
// checks. Names declared in other workspace files count as known.
func (s *Server) Diagnostics(uri string, text string) []protocol.Diagnostic {
	opts := s.Config().AnalysisOptions()
	opts.IsKnown = s.index.HasName

	syms, _ := s.index.Extractor().Extract(uri, text)
	diagnostics := analysis.ComputeDiagnostics(text, syms, opts)
	log.Debugf("%d diagnostic(s) for %s", len(diagnostics), uri)
	return diagnostics
}
