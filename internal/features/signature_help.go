package features

import (
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/builtins"
	"github.com/CWBudde/go-st-lsp/internal/scanner"
	"github.com/CWBudde/go-st-lsp/internal/symbols"
	"github.com/CWBudde/go-st-lsp/internal/workspace"
)

// callContext is the call enclosing the cursor.
type callContext struct {
	name string

	// argIndex counts the commas between the opening parenthesis and the
	// cursor.
	argIndex int

	// argName is set when the current argument is written NAME := or NAME =>.
	argName string
}

// signatureParam is one formal parameter as shown in a signature.
type signatureParam struct {
	name  string
	label string
	doc   string
}

// SignatureHelp returns the signature of the function, function block
// instance or standard function whose argument list encloses pos.
func SignatureHelp(uri protocol.DocumentUri, text string, pos protocol.Position, index *workspace.Index) *protocol.SignatureHelp {
	d := load(uri, text, index)
	line := int(pos.Line)
	if line >= len(d.lines) {
		return nil
	}
	offset := d.starts[line] + scanner.ByteColumn(d.lines[line], int(pos.Character))
	if d.insideNonCode(offset) {
		return nil
	}

	call, ok := findCall(d.scan.Masked, offset)
	if !ok {
		return nil
	}

	label, doc, params, ok := d.signature(call.name, line)
	if !ok {
		log.Debugf("no signature for %s", call.name)
		return nil
	}

	info := protocol.SignatureInformation{Label: label}
	if doc != "" {
		info.Documentation = doc
	}
	for _, p := range params {
		pi := protocol.ParameterInformation{Label: p.label}
		if p.doc != "" {
			pi.Documentation = p.doc
		}
		info.Parameters = append(info.Parameters, pi)
	}

	active := activeParameter(call, params)
	return &protocol.SignatureHelp{
		Signatures:      []protocol.SignatureInformation{info},
		ActiveSignature: ptr(protocol.UInteger(0)),
		ActiveParameter: ptr(protocol.UInteger(active)),
	}
}

// findCall walks back from offset over masked text to the unclosed '(' of
// the enclosing call. A statement end or an unclosed '[' stops the search.
func findCall(masked string, offset int) (callContext, bool) {
	var call callContext
	parens, brackets := 0, 0
	argStart := offset

	i := min(offset, len(masked)) - 1
	for ; i >= 0; i-- {
		switch masked[i] {
		case ')':
			parens++
		case ']':
			brackets++
		case '[':
			if brackets == 0 {
				return call, false
			}
			brackets--
		case ',':
			if parens == 0 && brackets == 0 {
				if call.argIndex == 0 {
					argStart = i + 1
				}
				call.argIndex++
			}
		case ';':
			if parens == 0 {
				return call, false
			}
		case '(':
			if parens > 0 {
				parens--
				continue
			}
			if call.argIndex == 0 {
				argStart = i + 1
			}
			call.name = identBefore(masked, i)
			if call.name == "" || builtins.IsKeyword(call.name) {
				return call, false
			}
			call.argName = namedArgument(masked[argStart:offset])
			return call, true
		}
	}
	return call, false
}

// identBefore returns the identifier ending right before i, skipping
// blanks. A member call such as fb.Method( yields "".
func identBefore(s string, i int) string {
	end := i
	for end > 0 && (s[end-1] == ' ' || s[end-1] == '\t') {
		end--
	}
	start := end
	for start > 0 && scanner.IsIdentChar(s[start-1]) {
		start--
	}
	if start == end || !scanner.IsIdentStart(s[start]) {
		return ""
	}
	if start > 0 && s[start-1] == '.' {
		return ""
	}
	return s[start:end]
}

// namedArgument returns NAME from an argument written NAME := or NAME =>.
func namedArgument(arg string) string {
	arg = strings.TrimSpace(arg)
	end := 0
	for end < len(arg) && scanner.IsIdentChar(arg[end]) {
		end++
	}
	if end == 0 {
		return ""
	}
	rest := strings.TrimSpace(arg[end:])
	if strings.HasPrefix(rest, ":=") || strings.HasPrefix(rest, "=>") {
		return arg[:end]
	}
	return ""
}

func activeParameter(call callContext, params []signatureParam) int {
	if call.argName != "" {
		for i, p := range params {
			if strings.EqualFold(p.name, call.argName) {
				return i
			}
		}
	}
	if len(params) == 0 {
		return 0
	}
	return min(call.argIndex, len(params)-1)
}

// signature resolves name as seen from line. Function block instances show
// the parameters of their type.
func (d *document) signature(name string, line int) (string, string, []signatureParam, bool) {
	if s := d.resolve(name, line); s != nil {
		switch {
		case s.Kind == symbols.KindFunction || s.Kind == symbols.KindFunctionBlock:
			return unitSignature(s.Name, s), s.Description, unitParams(s), true
		case s.DataType != "":
			if label, doc, params, ok := d.instanceSignature(s.Name, s.DataType); ok {
				return label, doc, params, true
			}
		}
	}

	if fn, ok := builtins.GetBuiltinSignature(name); ok {
		params := make([]signatureParam, len(fn.Parameters))
		for i, p := range fn.Parameters {
			params[i] = signatureParam{name: p.Name, label: p.Name + " : " + p.Type}
		}
		return fn.Detail(), fn.Documentation, params, true
	}
	return "", "", nil, false
}

func (d *document) instanceSignature(instance, typeName string) (string, string, []signatureParam, bool) {
	if fb, ok := builtins.LookupFunctionBlock(typeName); ok {
		var params []signatureParam
		for _, m := range fb.Members {
			p := signatureParam{name: m.Name, doc: m.Description}
			if m.Direction == builtins.DirectionOutput {
				p.label = m.Name + " => " + m.DataType
			} else {
				p.label = m.Name + " : " + m.DataType
			}
			params = append(params, p)
		}
		return callLabel(instance, params, ""), fb.Documentation, params, true
	}
	if fb, ok := d.customTypes()[symbols.Normalize(typeName)]; ok {
		params := unitParams(fb)
		return callLabel(instance, params, ""), fb.Description, params, true
	}
	return "", "", nil, false
}

func unitParams(s *symbols.Symbol) []signatureParam {
	params := make([]signatureParam, 0, len(s.Parameters))
	for _, p := range s.Parameters {
		sp := signatureParam{name: p.Name}
		if p.Direction == symbols.DirectionOutput {
			sp.label = p.Name + " => " + p.DataType
		} else {
			sp.label = p.Name + " : " + p.DataType
		}
		params = append(params, sp)
	}
	return params
}

func unitSignature(name string, s *symbols.Symbol) string {
	return callLabel(name, unitParams(s), s.ReturnType)
}

func callLabel(name string, params []signatureParam, ret string) string {
	labels := make([]string, len(params))
	for i, p := range params {
		labels[i] = p.label
	}
	label := name + "(" + strings.Join(labels, ", ") + ")"
	if ret != "" {
		label += " : " + ret
	}
	return label
}
