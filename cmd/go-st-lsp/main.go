// Command go-st-lsp is a language server and command line toolkit for
// IEC 61131-3 Structured Text.
package main

import (
	"os"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}
