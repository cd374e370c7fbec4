package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/spf13/cobra"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"golang.org/x/sync/errgroup"

	"github.com/CWBudde/go-st-lsp/internal/config"
	"github.com/CWBudde/go-st-lsp/internal/server"
	"github.com/CWBudde/go-st-lsp/internal/workspace"
)

type checkOptions struct {
	configPath string
	workers    int
}

func newCheckCmd() *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check <path>...",
		Short: "Report diagnostics for Structured Text files",
		Long: `Report the diagnostics of every Structured Text file under the given
paths, one per line as file:line:col: severity: message.

Names declared in any checked file are known to all of them, the way
they are inside an editor workspace. The exit status is 1 when an error
is found.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), cmd.OutOrStdout(), opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "configuration file (default: ./"+config.FileName+" when present)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "j", runtime.NumCPU(), "files checked in parallel")
	return cmd
}

// fileReport holds the findings of one checked file.
type fileReport struct {
	path        string
	diagnostics []protocol.Diagnostic
}

func runCheck(ctx context.Context, out io.Writer, opts *checkOptions, paths []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	srv := server.NewWithConfig(cfg)
	defer srv.SetShuttingDown()

	files, err := indexPaths(ctx, srv, cfg, paths)
	if err != nil {
		return err
	}

	reports := make([]fileReport, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.workers, 1))
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			reports[i] = fileReport{
				path:        path,
				diagnostics: srv.Diagnostics(workspace.PathToURI(path), string(content)),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	errorsFound := 0
	for _, report := range reports {
		for _, d := range report.diagnostics {
			severity := severityName(d.Severity)
			fmt.Fprintf(out, "%s:%d:%d: %s: %s\n",
				displayPath(report.path), d.Range.Start.Line+1, d.Range.Start.Character+1, severity, d.Message)
			if severity == "error" {
				errorsFound++
			}
		}
	}
	log.Infof("checked %d file(s), %d error(s)", len(files), errorsFound)

	if errorsFound > 0 {
		return errFindings
	}
	return nil
}

// indexPaths indexes every source file named by paths, walking directories
// with the configured exclude patterns, and returns the files sorted.
func indexPaths(ctx context.Context, srv *server.Server, cfg *config.Config, paths []string) ([]string, error) {
	index := srv.Index()
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			if err := index.InitializeWithOptions(ctx, path, workspace.IndexOptions{Exclude: cfg.Exclude}); err != nil {
				return nil, err
			}
			continue
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		index.UpdateFileIndex(workspace.PathToURI(path), string(content))
	}

	uris := index.Files()
	files := make([]string, 0, len(uris))
	for _, uri := range uris {
		files = append(files, workspace.URIToPath(uri))
	}
	sort.Strings(files)
	return files, nil
}

// loadConfig reads path, or the configuration of the current directory when
// path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	dir, err := os.Getwd()
	if err != nil {
		return config.Default(), nil
	}
	return config.LoadWorkspace(dir)
}

func severityName(severity *protocol.DiagnosticSeverity) string {
	if severity == nil {
		return "error"
	}
	switch *severity {
	case protocol.DiagnosticSeverityWarning:
		return "warning"
	case protocol.DiagnosticSeverityInformation:
		return "info"
	case protocol.DiagnosticSeverityHint:
		return "hint"
	default:
		return "error"
	}
}

// displayPath shortens path relative to the working directory when it is
// below it.
func displayPath(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	if rel, err := filepath.Rel(wd, path); err == nil && filepath.IsLocal(rel) {
		return rel
	}
	return path
}
