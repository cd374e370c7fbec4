package symbols

// Units returns the PROGRAM, FUNCTION and FUNCTION_BLOCK symbols of a table.
func Units(syms []*Symbol) []*Symbol {
	var units []*Symbol
	for _, s := range syms {
		if s.Kind.IsUnit() {
			units = append(units, s)
		}
	}
	return units
}

// TopLevel returns units and the variables declared outside any unit.
func TopLevel(syms []*Symbol) []*Symbol {
	var out []*Symbol
	for _, s := range syms {
		if s.Kind.IsUnit() || s.ParentSymbol == "" {
			out = append(out, s)
		}
	}
	return out
}

// UnitAt returns the unit whose extent contains line, or nil.
func UnitAt(syms []*Symbol, line int) *Symbol {
	for _, s := range syms {
		if !s.Kind.IsUnit() {
			continue
		}
		if int(s.FullRange.Start.Line) <= line && line <= int(s.FullRange.End.Line) {
			return s
		}
	}
	return nil
}

// Resolve finds the symbol visible at line under name: a member of the
// enclosing unit first, then a top-level declaration of the same document.
func Resolve(syms []*Symbol, name string, line int) *Symbol {
	key := Normalize(name)
	if unit := UnitAt(syms, line); unit != nil {
		if m := unit.FindMember(name); m != nil {
			return m
		}
	}
	for _, s := range syms {
		if s.NormalizedName == key && (s.Kind.IsUnit() || s.ParentSymbol == "") {
			return s
		}
	}
	return nil
}

// Visible returns the symbols visible at line: the enclosing unit's members,
// the document's top-level variables and all units.
func Visible(syms []*Symbol, line int) []*Symbol {
	var out []*Symbol
	if unit := UnitAt(syms, line); unit != nil {
		out = append(out, unit.Members...)
	}
	return append(out, TopLevel(syms)...)
}

// FunctionBlocks maps the normalized names of user function blocks to their
// symbols, for member resolution.
func FunctionBlocks(syms []*Symbol) map[string]*Symbol {
	out := make(map[string]*Symbol)
	for _, s := range syms {
		if s.Kind == KindFunctionBlock {
			out[s.NormalizedName] = s
		}
	}
	return out
}
