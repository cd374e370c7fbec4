package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/format"
)

type fmtOptions struct {
	write      bool
	configPath string
}

func newFmtCmd() *cobra.Command {
	opts := &fmtOptions{}

	cmd := &cobra.Command{
		Use:   "fmt <file>...",
		Short: "Format Structured Text files",
		Long: `Format Structured Text files with the configured keyword case,
indentation and spacing. The result is printed unless --write is given.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFmt(cmd.OutOrStdout(), opts, args)
		},
	}

	cmd.Flags().BoolVarP(&opts.write, "write", "w", false, "write the result back to the files")
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "configuration file (default: ./.st-lsp.yaml when present)")
	return cmd
}

func runFmt(out io.Writer, opts *fmtOptions, files []string) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	formatOpts := cfg.FormatOptions(protocol.FormattingOptions{})

	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		formatted := format.Format(string(content), formatOpts)

		if !opts.write {
			fmt.Fprint(out, formatted)
			continue
		}
		if formatted == string(content) {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(formatted), info.Mode().Perm()); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		log.Infof("formatted %s", path)
	}
	return nil
}
