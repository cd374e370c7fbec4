package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CWBudde/go-st-lsp/internal/lsp"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", lsp.Name, lsp.Version)
		},
	}
}
