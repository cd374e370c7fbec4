package features

import (
	"errors"
	"fmt"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/builtins"
	"github.com/CWBudde/go-st-lsp/internal/scanner"
	"github.com/CWBudde/go-st-lsp/internal/workspace"
)

// Rename failures. Returned errors wrap one of these with a reason that can
// be shown to the user as is.
var (
	ErrNotRenameable     = errors.New("no renameable symbol at position")
	ErrInsideComment     = errors.New("cannot rename inside a comment")
	ErrInsideString      = errors.New("cannot rename inside a string literal")
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrReservedName      = errors.New("invalid rename target")
)

// reservedCategory names the class of reserved word name belongs to, or "".
func reservedCategory(name string) string {
	switch {
	case builtins.IsKeyword(name):
		return "a reserved keyword"
	case builtins.IsDataType(name):
		return "a standard data type"
	case builtins.IsStandardFunctionBlock(name):
		return "a standard function block"
	case builtins.IsStandardFunction(name):
		return "a standard function"
	default:
		return ""
	}
}

// ValidateNewName checks that name can be used as the new name of a symbol.
func ValidateNewName(name string) error {
	if !scanner.IsValidIdentifier(name) {
		return fmt.Errorf("'%s' is not a valid identifier: %w", name, ErrInvalidIdentifier)
	}
	if category := reservedCategory(name); category != "" {
		return fmt.Errorf("'%s' is %s: %w", name, category, ErrReservedName)
	}
	return nil
}

// PrepareRename returns the range and current text of the identifier under
// pos, or an error explaining why nothing there can be renamed.
func PrepareRename(uri protocol.DocumentUri, text string, pos protocol.Position) (protocol.Range, string, error) {
	doc := load(uri, text, nil)
	w, err := doc.renameTarget(pos)
	if err != nil {
		return protocol.Range{}, "", err
	}
	return doc.rangeOf(w), w.text, nil
}

// Rename replaces every whole-token occurrence of the identifier under pos
// with newName, ignoring case and skipping comments and strings. Each edit
// spans exactly one identifier. Nothing is edited when validation fails.
func Rename(uri protocol.DocumentUri, text string, pos protocol.Position, newName string, index *workspace.Index) (*protocol.WorkspaceEdit, error) {
	doc := load(uri, text, index)
	w, err := doc.renameTarget(pos)
	if err != nil {
		return nil, err
	}
	if err := ValidateNewName(newName); err != nil {
		return nil, err
	}

	occurrences := doc.occurrences(w.text)
	edits := make([]protocol.TextEdit, 0, len(occurrences))
	for _, o := range occurrences {
		edits = append(edits, protocol.TextEdit{Range: doc.rangeOf(o), NewText: newName})
	}
	log.Infof("rename %s -> %s in %s: %d edit(s)", w.text, newName, uri, len(edits))

	return &protocol.WorkspaceEdit{
		Changes: map[protocol.DocumentUri][]protocol.TextEdit{uri: edits},
	}, nil
}

func (d *document) renameTarget(pos protocol.Position) (word, error) {
	w, err := d.wordAt(pos)
	if err != nil {
		return word{}, err
	}
	if category := reservedCategory(w.text); category != "" {
		return word{}, fmt.Errorf("'%s' is %s: %w", w.text, category, ErrNotRenameable)
	}
	return w, nil
}
