package symbols

import (
	"sort"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/scanner"
)

// TypeDecl is a user data type declared in a TYPE ... END_TYPE block.
type TypeDecl struct {
	Name     string
	Location protocol.Location

	// Values lists the enumerators of an enumeration type.
	Values []string
}

// DeclaredTypes returns the data types declared in TYPE blocks of text.
func DeclaredTypes(uri protocol.DocumentUri, text string) []TypeDecl {
	var decls []TypeDecl
	safePhase("types", func() {
		decls = newSource(uri, text).typeDecls()
	})
	return decls
}

func (src *source) typeNames() []string {
	var names []string
	for _, d := range src.typeDecls() {
		names = append(names, d.Name)
	}
	return names
}

// typeDecls finds `Name : ...` entries at the top level of TYPE blocks. A
// parenthesized list right after the colon declares enumerators.
func (src *source) typeDecls() []TypeDecl {
	var decls []TypeDecl
	inType := false
	structDepth := 0
	for i := 0; i < len(src.toks); i++ {
		t := &src.toks[i]
		switch t.upper() {
		case "TYPE":
			inType = true
			structDepth = 0
			continue
		case "END_TYPE":
			inType = false
			continue
		case "STRUCT", "UNION":
			structDepth++
			continue
		case "END_STRUCT", "END_UNION":
			structDepth--
			continue
		}
		if !inType || structDepth > 0 || t.Kind != scanner.TokIdent {
			continue
		}
		if i+1 >= len(src.toks) || src.toks[i+1].Text != ":" {
			continue
		}
		if i > 0 && src.toks[i-1].Text != ";" && src.toks[i-1].upper() != "TYPE" && !t.firstOnLn {
			continue
		}
		decl := TypeDecl{Name: t.Text, Location: src.location(t.line, t.Start, t.End)}
		j := i + 2
		if j < len(src.toks) && src.toks[j].Text == "(" {
			for j++; j < len(src.toks) && src.toks[j].Text != ")"; j++ {
				if src.toks[j].Kind == scanner.TokIdent && (src.toks[j-1].Text == "(" || src.toks[j-1].Text == ",") {
					decl.Values = append(decl.Values, src.toks[j].Text)
				}
			}
		}
		decls = append(decls, decl)
		i = j - 1
	}
	return decls
}

func sortByPosition(syms []*Symbol) {
	sort.SliceStable(syms, func(i, j int) bool {
		a, b := syms[i].Location.Range.Start, syms[j].Location.Range.Start
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Character < b.Character
	})
}
