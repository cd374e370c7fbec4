package main

import (
	"fmt"

	"github.com/spf13/cobra"
	glspserver "github.com/tliron/glsp/server"

	"github.com/CWBudde/go-st-lsp/internal/lsp"
	"github.com/CWBudde/go-st-lsp/internal/server"
)

type serveOptions struct {
	tcp  bool
	host string
	port int
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the language server",
		Long: `Run the language server over stdio, or over TCP for debugging.

The workspace configuration is read from .st-lsp.yaml in the first
workspace folder once the client has connected.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.tcp, "tcp", false, "listen on TCP instead of stdio")
	cmd.Flags().StringVar(&opts.host, "host", "127.0.0.1", "TCP address to bind (used with --tcp)")
	cmd.Flags().IntVar(&opts.port, "port", 8765, "TCP port to listen on (used with --tcp)")
	return cmd
}

func runServe(opts *serveOptions) error {
	lsp.SetServer(server.New())
	glspServer := glspserver.NewServer(lsp.NewHandler(), lsp.Name, false)

	if opts.tcp {
		address := fmt.Sprintf("%s:%d", opts.host, opts.port)
		log.Noticef("%s %s listening on %s", lsp.Name, lsp.Version, address)
		return glspServer.RunTCP(address)
	}
	log.Noticef("%s %s on stdio", lsp.Name, lsp.Version)
	return glspServer.RunStdio()
}
