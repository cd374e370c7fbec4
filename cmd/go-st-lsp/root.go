package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("st-lsp.cmd")

// errFindings makes the process exit with status 1 without printing an
// error message; the command already reported what it found.
var errFindings = errors.New("problems found")

// logLevels maps --log-level values to commonlog verbosity.
var logLevels = map[string]int{
	"error": -2,
	"warn":  -1,
	"info":  1,
	"debug": 2,
}

type rootOptions struct {
	logLevel string
	logFile  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "go-st-lsp",
		Short: "Structured Text language server",
		Long: `go-st-lsp provides editor intelligence for IEC 61131-3 Structured Text:
diagnostics, navigation, completion, rename, quick fixes and formatting.

Examples:
  go-st-lsp serve                  # Language server over stdio
  go-st-lsp serve --tcp --port 9257
  go-st-lsp check src/             # Report problems in every .st file
  go-st-lsp fmt -w main.st         # Format a file in place`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return configureLogging(opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "error", "log level: error, warn, info, debug")
	cmd.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "log file path (default: stderr)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newFmtCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// configureLogging sets up commonlog. Logs never go to stdout, which
// carries the protocol in stdio mode.
func configureLogging(opts *rootOptions) error {
	verbosity, ok := logLevels[strings.ToLower(opts.logLevel)]
	if !ok {
		return fmt.Errorf("invalid --log-level %q: want error, warn, info or debug", opts.logLevel)
	}
	if opts.logFile == "" {
		commonlog.Configure(verbosity, nil)
	} else {
		commonlog.Configure(verbosity, &opts.logFile)
	}
	return nil
}

// exitCode reports err on stderr unless it only signals findings.
func exitCode(err error) int {
	if !errors.Is(err, errFindings) {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
	return 1
}
