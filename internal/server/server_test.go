package server

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/config"
)

func TestDocumentStore(t *testing.T) {
	ds := NewDocumentStore()
	ds.Open(&Document{URI: "file:///b.st", Text: "b", Version: 2, LanguageID: "iecst"})
	ds.Open(&Document{URI: "file:///a.st", Text: "a", Version: 1})

	doc, ok := ds.Get("file:///b.st")
	require.True(t, ok)
	assert.Equal(t, 2, doc.Version)
	assert.True(t, ds.IsOpen("file:///a.st"))

	snapshot := ds.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "file:///a.st", snapshot[0].URI)
	assert.Equal(t, "file:///b.st", snapshot[1].URI)

	ds.Close("file:///a.st")
	assert.False(t, ds.IsOpen("file:///a.st"))
	assert.Len(t, ds.Snapshot(), 1)
}

func TestDocumentStoreUpdate(t *testing.T) {
	ds := NewDocumentStore()
	ds.Open(&Document{URI: "file:///m.st", Text: "old", Version: 3, LanguageID: "iecst"})
	before, _ := ds.Get("file:///m.st")

	doc, ok := ds.Update("file:///m.st", "new", 4)
	require.True(t, ok)
	assert.Equal(t, "new", doc.Text)
	assert.Equal(t, "iecst", doc.LanguageID, "language survives changes")
	assert.Equal(t, "old", before.Text, "earlier snapshots are not mutated")

	_, ok = ds.Update("file:///m.st", "stale", 2)
	assert.False(t, ok)
	current, _ := ds.Get("file:///m.st")
	assert.Equal(t, "new", current.Text)

	_, ok = ds.Update("file:///missing.st", "x", 1)
	assert.False(t, ok)
}

func TestUpdateConfig(t *testing.T) {
	srv := New()

	err := srv.UpdateConfig(func(cfg *config.Config) error {
		cfg.MaxProblems = 1
		cfg.DebounceMs = 50
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, srv.Config().MaxProblems)
	assert.Equal(t, 50*time.Millisecond, srv.Debouncer().Delay())
}

func TestUpdateConfigKeepsPreviousOnError(t *testing.T) {
	srv := New()
	boom := errors.New("boom")

	assert.ErrorIs(t, srv.UpdateConfig(func(cfg *config.Config) error {
		cfg.MaxProblems = 1
		return boom
	}), boom)
	assert.ErrorIs(t, srv.UpdateConfig(func(cfg *config.Config) error {
		cfg.Format.KeywordCase = "camel"
		return nil
	}), config.ErrInvalidKeywordCase)

	assert.Equal(t, config.Default(), srv.Config())
}

func TestConfigReturnsCopy(t *testing.T) {
	srv := New()
	srv.Config().MaxProblems = 1

	assert.Equal(t, 100, srv.Config().MaxProblems)
}

func TestInWorkspace(t *testing.T) {
	root := filepath.Join(t.TempDir(), "project")
	srv := New()
	srv.SetWorkspaceFolders([]string{root})

	assert.True(t, srv.InWorkspace(filepath.Join(root, "src", "main.st")))
	assert.True(t, srv.InWorkspace(root))
	assert.False(t, srv.InWorkspace(filepath.Join(filepath.Dir(root), "other", "main.st")))
	assert.False(t, srv.InWorkspace(root+"-old"+string(filepath.Separator)+"main.st"))
}

func TestSupportsSnippets(t *testing.T) {
	srv := New()
	assert.False(t, srv.SupportsSnippets())

	var caps protocol.ClientCapabilities
	require.NoError(t, json.Unmarshal([]byte(`{"textDocument":{"completion":{"completionItem":{"snippetSupport":true}}}}`), &caps))
	srv.SetClientCapabilities(&caps)
	assert.True(t, srv.SupportsSnippets())
	assert.True(t, srv.CompletionOptions().SnippetSupport)
}

func TestDiagnosticsUseWorkspaceNames(t *testing.T) {
	srv := New()
	text := "PROGRAM Main\nVAR\n    x : INT;\nEND_VAR\nx := gLimit;\nEND_PROGRAM\n"

	diags := srv.Diagnostics("file:///main.st", text)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "gLimit")

	srv.Index().UpdateFileIndex("file:///globals.st", "VAR_GLOBAL\n    gLimit : INT;\nEND_VAR\n")
	assert.Empty(t, srv.Diagnostics("file:///main.st", text))
}

func TestShutdownCancelsBackgroundWork(t *testing.T) {
	srv := New()
	srv.SetShuttingDown()

	assert.True(t, srv.IsShuttingDown())
	assert.Error(t, srv.Context().Err())
}
