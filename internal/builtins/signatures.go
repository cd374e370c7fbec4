package builtins

import (
	"regexp"
	"sort"
	"strings"
)

// Param is a formal parameter of a standard function.
type Param struct {
	Name string
	Type string
}

// Function is the signature of a standard function.
type Function struct {
	Name          string
	Parameters    []Param
	ReturnType    string
	Documentation string
}

// Detail renders the signature as `NAME(IN : ANY_NUM) : ANY_NUM`.
func (f Function) Detail() string {
	parts := make([]string, len(f.Parameters))
	for i, p := range f.Parameters {
		parts[i] = p.Name + " : " + p.Type
	}
	return f.Name + "(" + strings.Join(parts, ", ") + ") : " + f.ReturnType
}

// conversionPattern matches the *_TO_* and TO_* conversion families.
var conversionPattern = regexp.MustCompile(`^(?:[A-Z_]+_)?TO_[A-Z_]+$`)

// GetBuiltinSignature returns the signature for a standard function if it exists.
// Conversion functions get a synthesized signature.
func GetBuiltinSignature(functionName string) (Function, bool) {
	upper := strings.ToUpper(functionName)
	if sig, exists := builtinSignatures[upper]; exists {
		return sig, true
	}
	if conversionPattern.MatchString(upper) {
		from, to, found := strings.Cut(upper, "_TO_")
		if !found {
			from, to = "ANY", strings.TrimPrefix(upper, "TO_")
		}
		if !isConvertible(from) || !isConvertible(to) {
			return Function{}, false
		}
		return Function{
			Name:          upper,
			Parameters:    []Param{{Name: "IN", Type: from}},
			ReturnType:    to,
			Documentation: "Converts a " + from + " value to " + to,
		}, true
	}
	return Function{}, false
}

func isConvertible(name string) bool {
	return name == "ANY" || name == "BCD" || IsElementaryType(name)
}

// IsStandardFunction reports whether name is a standard function, including
// the type conversion family.
func IsStandardFunction(name string) bool {
	_, ok := GetBuiltinSignature(name)
	return ok
}

// StandardFunctions returns the tabulated standard functions sorted by name.
// Conversion functions are not enumerated.
func StandardFunctions() []Function {
	out := make([]Function, 0, len(builtinSignatures))
	for _, f := range builtinSignatures {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func unary(name, in, ret, doc string) Function {
	return Function{Name: name, Parameters: []Param{{Name: "IN", Type: in}}, ReturnType: ret, Documentation: doc}
}

func binary(name, in, ret, doc string) Function {
	return Function{
		Name:          name,
		Parameters:    []Param{{Name: "IN1", Type: in}, {Name: "IN2", Type: in}},
		ReturnType:    ret,
		Documentation: doc,
	}
}

// builtinSignatures contains the standard functions of IEC 61131-3
var builtinSignatures = map[string]Function{
	// Numeric
	"ABS":   unary("ABS", "ANY_NUM", "ANY_NUM", "Absolute value"),
	"SQRT":  unary("SQRT", "ANY_REAL", "ANY_REAL", "Square root"),
	"LN":    unary("LN", "ANY_REAL", "ANY_REAL", "Natural logarithm"),
	"LOG":   unary("LOG", "ANY_REAL", "ANY_REAL", "Logarithm base 10"),
	"EXP":   unary("EXP", "ANY_REAL", "ANY_REAL", "Natural exponential"),
	"SIN":   unary("SIN", "ANY_REAL", "ANY_REAL", "Sine of an angle in radians"),
	"COS":   unary("COS", "ANY_REAL", "ANY_REAL", "Cosine of an angle in radians"),
	"TAN":   unary("TAN", "ANY_REAL", "ANY_REAL", "Tangent of an angle in radians"),
	"ASIN":  unary("ASIN", "ANY_REAL", "ANY_REAL", "Arc sine"),
	"ACOS":  unary("ACOS", "ANY_REAL", "ANY_REAL", "Arc cosine"),
	"ATAN":  unary("ATAN", "ANY_REAL", "ANY_REAL", "Arc tangent"),
	"TRUNC": unary("TRUNC", "ANY_REAL", "ANY_INT", "Truncates toward zero"),
	"EXPT":  binary("EXPT", "ANY_REAL", "ANY_REAL", "IN1 raised to the power IN2"),

	// Arithmetic
	"ADD":  binary("ADD", "ANY_NUM", "ANY_NUM", "Addition"),
	"SUB":  binary("SUB", "ANY_NUM", "ANY_NUM", "Subtraction"),
	"MUL":  binary("MUL", "ANY_NUM", "ANY_NUM", "Multiplication"),
	"DIV":  binary("DIV", "ANY_NUM", "ANY_NUM", "Division"),
	"MOVE": unary("MOVE", "ANY", "ANY", "Assignment"),

	// Bit shift
	"SHL": {Name: "SHL", Parameters: []Param{{"IN", "ANY_BIT"}, {"N", "ANY_INT"}}, ReturnType: "ANY_BIT", Documentation: "Shift left by N bits"},
	"SHR": {Name: "SHR", Parameters: []Param{{"IN", "ANY_BIT"}, {"N", "ANY_INT"}}, ReturnType: "ANY_BIT", Documentation: "Shift right by N bits"},
	"ROL": {Name: "ROL", Parameters: []Param{{"IN", "ANY_BIT"}, {"N", "ANY_INT"}}, ReturnType: "ANY_BIT", Documentation: "Rotate left by N bits"},
	"ROR": {Name: "ROR", Parameters: []Param{{"IN", "ANY_BIT"}, {"N", "ANY_INT"}}, ReturnType: "ANY_BIT", Documentation: "Rotate right by N bits"},

	// Selection
	"SEL":   {Name: "SEL", Parameters: []Param{{"G", "BOOL"}, {"IN0", "ANY"}, {"IN1", "ANY"}}, ReturnType: "ANY", Documentation: "Binary selection: IN0 if G is FALSE, else IN1"},
	"MAX":   binary("MAX", "ANY_ELEMENTARY", "ANY_ELEMENTARY", "Maximum"),
	"MIN":   binary("MIN", "ANY_ELEMENTARY", "ANY_ELEMENTARY", "Minimum"),
	"LIMIT": {Name: "LIMIT", Parameters: []Param{{"MN", "ANY_ELEMENTARY"}, {"IN", "ANY_ELEMENTARY"}, {"MX", "ANY_ELEMENTARY"}}, ReturnType: "ANY_ELEMENTARY", Documentation: "Clamps IN to the range MN..MX"},
	"MUX":   {Name: "MUX", Parameters: []Param{{"K", "ANY_INT"}, {"IN0", "ANY"}, {"IN1", "ANY"}}, ReturnType: "ANY", Documentation: "Multiplexer: selects input K"},

	// Comparison
	"GT": binary("GT", "ANY_ELEMENTARY", "BOOL", "Greater than"),
	"GE": binary("GE", "ANY_ELEMENTARY", "BOOL", "Greater than or equal"),
	"EQ": binary("EQ", "ANY_ELEMENTARY", "BOOL", "Equal"),
	"LE": binary("LE", "ANY_ELEMENTARY", "BOOL", "Less than or equal"),
	"LT": binary("LT", "ANY_ELEMENTARY", "BOOL", "Less than"),
	"NE": binary("NE", "ANY_ELEMENTARY", "BOOL", "Not equal"),

	// Strings
	"LEN":     unary("LEN", "ANY_STRING", "INT", "Length of a string"),
	"LEFT":    {Name: "LEFT", Parameters: []Param{{"IN", "ANY_STRING"}, {"L", "ANY_INT"}}, ReturnType: "ANY_STRING", Documentation: "Leftmost L characters"},
	"RIGHT":   {Name: "RIGHT", Parameters: []Param{{"IN", "ANY_STRING"}, {"L", "ANY_INT"}}, ReturnType: "ANY_STRING", Documentation: "Rightmost L characters"},
	"MID":     {Name: "MID", Parameters: []Param{{"IN", "ANY_STRING"}, {"L", "ANY_INT"}, {"P", "ANY_INT"}}, ReturnType: "ANY_STRING", Documentation: "L characters starting at position P"},
	"CONCAT":  binary("CONCAT", "ANY_STRING", "ANY_STRING", "Concatenation"),
	"INSERT":  {Name: "INSERT", Parameters: []Param{{"IN1", "ANY_STRING"}, {"IN2", "ANY_STRING"}, {"P", "ANY_INT"}}, ReturnType: "ANY_STRING", Documentation: "Inserts IN2 into IN1 after position P"},
	"DELETE":  {Name: "DELETE", Parameters: []Param{{"IN", "ANY_STRING"}, {"L", "ANY_INT"}, {"P", "ANY_INT"}}, ReturnType: "ANY_STRING", Documentation: "Deletes L characters starting at position P"},
	"REPLACE": {Name: "REPLACE", Parameters: []Param{{"IN1", "ANY_STRING"}, {"IN2", "ANY_STRING"}, {"L", "ANY_INT"}, {"P", "ANY_INT"}}, ReturnType: "ANY_STRING", Documentation: "Replaces L characters of IN1 at position P with IN2"},
	"FIND":    binary("FIND", "ANY_STRING", "INT", "Position of the first occurrence of IN2 in IN1"),

	// Memory
	"ADR":    unary("ADR", "ANY", "POINTER", "Address of a variable"),
	"SIZEOF": unary("SIZEOF", "ANY", "UDINT", "Size of a variable in bytes"),
}
