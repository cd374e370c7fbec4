package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"golang.org/x/sync/errgroup"

	"github.com/CWBudde/go-st-lsp/internal/symbols"
)

var (
	// ErrRootPathEmpty indicates the workspace root was not specified.
	ErrRootPathEmpty = errors.New("root path cannot be empty")

	// ErrRootPathNotExist indicates the workspace root does not exist.
	ErrRootPathNotExist = errors.New("root path does not exist")

	// ErrNotDirectory indicates the workspace root is not a directory.
	ErrNotDirectory = errors.New("root path is not a directory")

	// ErrInvalidPattern indicates an exclude pattern could not be compiled.
	ErrInvalidPattern = errors.New("invalid glob pattern")
)

// SourceExtensions lists the suffixes of Structured Text files.
var SourceExtensions = []string{".st", ".iecst"}

// defaultExcludedDirs are never descended into.
var defaultExcludedDirs = map[string]struct{}{
	".git":         {},
	".svn":         {},
	".hg":          {},
	"node_modules": {},
	"vendor":       {},
	"__pycache__":  {},
	"dist":         {},
	"build":        {},
	"out":          {},
	"bin":          {},
	"obj":          {},
	".idea":        {},
	".vscode":      {},
	"_Boot":        {},
}

// IndexOptions controls the initial workspace scan.
type IndexOptions struct {
	// Exclude holds glob patterns matched against slash-separated paths
	// relative to the root and against base names.
	Exclude []string

	// Workers bounds the number of files read in parallel. Zero means the
	// number of CPUs.
	Workers int
}

// IsSourceFile reports whether path has a Structured Text suffix.
func IsSourceFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SourceExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Initialize scans root recursively and indexes every Structured Text file.
// Unreadable files are logged and skipped.
func (idx *Index) Initialize(ctx context.Context, root string) error {
	return idx.InitializeWithOptions(ctx, root, IndexOptions{})
}

// InitializeWithOptions is Initialize with exclude patterns and a worker
// bound.
func (idx *Index) InitializeWithOptions(ctx context.Context, root string, opts IndexOptions) error {
	if root == "" {
		return ErrRootPathEmpty
	}
	info, err := os.Stat(root)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrRootPathNotExist, root)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}

	excludes, err := compileGlobs(opts.Exclude)
	if err != nil {
		return err
	}

	files, err := collectFiles(ctx, root, excludes)
	if err != nil {
		return err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	// Files are read and extracted in parallel but installed in path order,
	// so the index content does not depend on scheduling.
	sort.Strings(files)
	type extracted struct {
		syms  []*symbols.Symbol
		types []symbols.TypeDecl
		ok    bool
	}
	results := make([]extracted, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			content, err := os.ReadFile(path)
			if err != nil {
				log.Warningf("could not read %s: %s", path, err)
				return nil
			}
			syms, types := idx.extractor.Extract(PathToURI(path), string(content))
			results[i] = extracted{syms: syms, types: types, ok: true}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, path := range files {
		if results[i].ok {
			idx.install(PathToURI(path), results[i].syms, results[i].types)
		}
	}

	stats := idx.GetIndexStats()
	log.Infof("indexed %d files under %s: %d programs, %d functions, %d function blocks, %d globals",
		stats.Files, root, stats.Programs, stats.Functions, stats.FunctionBlocks, stats.GlobalVariables)
	return nil
}

// collectFiles walks root and returns the Structured Text files to index.
func collectFiles(ctx context.Context, root string, excludes []glob.Glob) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			return handleWalkError(path, err)
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := defaultExcludedDirs[d.Name()]; skip || isExcluded(rel, d.Name(), excludes) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || !IsSourceFile(path) || isExcluded(rel, d.Name(), excludes) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// handleWalkError skips entries that cannot be accessed.
func handleWalkError(path string, err error) error {
	if errors.Is(err, fs.ErrPermission) || errors.Is(err, fs.ErrNotExist) {
		log.Debugf("skipping %s: %s", path, err)
		return nil
	}
	return err
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	matchers := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, errors.Join(ErrInvalidPattern, fmt.Errorf("%q: %w", pattern, err))
		}
		matchers = append(matchers, g)
	}
	return matchers, nil
}

func isExcluded(rel, name string, excludes []glob.Glob) bool {
	for _, g := range excludes {
		if g.Match(rel) || g.Match(name) {
			return true
		}
	}
	return false
}

// URIToPath converts a file URI to a file system path. Percent-escapes are
// decoded; anything that is not a file URI is returned unchanged.
func URIToPath(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return uri
	}
	path := u.Path
	if u.RawPath != "" {
		if p, err := url.PathUnescape(u.RawPath); err == nil {
			path = p
		}
	}
	// file:///C:/path on Windows
	if len(path) > 2 && path[0] == '/' && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path)
}

// PathToURI converts a file system path to a file URI, escaping what the
// URI syntax requires.
func PathToURI(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	path = filepath.ToSlash(path)
	if len(path) > 1 && path[1] == ':' {
		path = "/" + path
	}
	return (&url.URL{Scheme: "file", Path: path}).String()
}
