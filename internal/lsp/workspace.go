package lsp

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/config"
	"github.com/CWBudde/go-st-lsp/internal/server"
	"github.com/CWBudde/go-st-lsp/internal/workspace"
)

// DidChangeConfiguration handles workspace configuration changes from the client.
// Settings are read from the "st-lsp" section:
//
//	{
//	  "st-lsp": {
//	    "maxProblems": 100,
//	    "format": {"keywordCase": "lower"}
//	  }
//	}
//
// Invalid settings are logged and the previous configuration stays active.
func DidChangeConfiguration(context *glsp.Context, params *protocol.DidChangeConfigurationParams) error {
	srv := getServer("DidChangeConfiguration")
	if srv == nil {
		return nil
	}

	if err := srv.UpdateConfig(func(cfg *config.Config) error {
		return cfg.ApplySettings(params.Settings)
	}); err != nil {
		log.Warningf("ignoring client settings: %s", err)
		return nil
	}
	log.Info("configuration updated")

	publishOpenDocuments(context, srv)
	return nil
}

// DidChangeWorkspaceFolders handles changes to workspace folders.
// Added folders are indexed in the background; files of removed folders
// leave the index unless they are open.
func DidChangeWorkspaceFolders(context *glsp.Context, params *protocol.DidChangeWorkspaceFoldersParams) error {
	srv := getServer("DidChangeWorkspaceFolders")
	if srv == nil {
		return nil
	}

	folders := srv.GetWorkspaceFolders()

	for _, folder := range params.Event.Removed {
		path := workspace.URIToPath(folder.URI)
		log.Infof("workspace folder removed: %s (%s)", folder.Name, path)
		folders = slices.DeleteFunc(folders, func(f string) bool { return sameFolder(f, path) })
		dropFolder(srv, path)
	}

	var added []string
	for _, folder := range params.Event.Added {
		path := workspace.URIToPath(folder.URI)
		log.Infof("workspace folder added: %s (%s)", folder.Name, path)
		if !slices.ContainsFunc(folders, func(f string) bool { return sameFolder(f, path) }) {
			folders = append(folders, path)
			added = append(added, path)
		}
	}

	srv.SetWorkspaceFolders(folders)
	if len(added) > 0 {
		go indexWorkspace(context, srv, added)
	} else if len(params.Event.Removed) > 0 {
		publishOpenDocuments(context, srv)
	}
	return nil
}

// dropFolder removes the indexed files below root, keeping open documents.
func dropFolder(srv *server.Server, root string) {
	prefix := filepath.Clean(root) + string(filepath.Separator)
	removed := 0
	for _, uri := range srv.Index().Files() {
		if srv.Documents().IsOpen(uri) {
			continue
		}
		if strings.HasPrefix(filepath.Clean(workspace.URIToPath(uri)), prefix) {
			srv.Index().RemoveFileFromIndex(uri)
			removed++
		}
	}
	log.Debugf("dropped %d file(s) of %s from the index", removed, root)
}

func sameFolder(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}

// DidChangeWatchedFiles handles file system changes reported by the client.
// Open documents are owned by the editor and are skipped. A changed
// configuration file is reloaded.
func DidChangeWatchedFiles(context *glsp.Context, params *protocol.DidChangeWatchedFilesParams) error {
	srv := getServer("DidChangeWatchedFiles")
	if srv == nil {
		return nil
	}

	indexChanged := false
	for _, change := range params.Changes {
		path := workspace.URIToPath(change.URI)

		if filepath.Base(path) == config.FileName {
			reloadConfig(srv, filepath.Dir(path))
			indexChanged = true
			continue
		}
		if !workspace.IsSourceFile(path) {
			continue
		}
		if srv.Documents().IsOpen(change.URI) {
			continue
		}

		switch change.Type {
		case protocol.FileChangeTypeCreated, protocol.FileChangeTypeChanged:
			content, err := os.ReadFile(path)
			if err != nil {
				log.Warningf("could not read %s: %s", path, err)
				continue
			}
			srv.Index().UpdateFileIndex(change.URI, string(content))
		case protocol.FileChangeTypeDeleted:
			srv.Index().RemoveFileFromIndex(change.URI)
		}
		indexChanged = true
	}

	if indexChanged {
		publishOpenDocuments(context, srv)
	}
	return nil
}

// reloadConfig re-reads the configuration file of a workspace folder. Files
// outside the first folder are ignored; it is the one loaded at startup.
func reloadConfig(srv *server.Server, dir string) {
	folders := srv.GetWorkspaceFolders()
	if len(folders) == 0 || !sameFolder(folders[0], dir) {
		return
	}
	log.Infof("reloading %s", filepath.Join(dir, config.FileName))
	loadWorkspaceConfig(srv, dir)
}
