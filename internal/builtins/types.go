package builtins

import (
	"sort"
	"strings"
)

// Family groups data types that are assignment compatible for the shallow
// checks performed by the diagnostics engine.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyBool
	FamilyInteger
	FamilyReal
	FamilyString
	FamilyDuration
	FamilyDate
	FamilyTimeOfDay
	FamilyDateTime
)

// String returns the name used in diagnostics for the family.
func (f Family) String() string {
	switch f {
	case FamilyBool:
		return "BOOL"
	case FamilyInteger:
		return "INT"
	case FamilyReal:
		return "REAL"
	case FamilyString:
		return "STRING"
	case FamilyDuration:
		return "TIME"
	case FamilyDate:
		return "DATE"
	case FamilyTimeOfDay:
		return "TIME_OF_DAY"
	case FamilyDateTime:
		return "DATE_AND_TIME"
	default:
		return "UNKNOWN"
	}
}

var elementaryTypes = map[string]Family{
	"BOOL": FamilyBool,

	"SINT": FamilyInteger, "INT": FamilyInteger, "DINT": FamilyInteger, "LINT": FamilyInteger,
	"USINT": FamilyInteger, "UINT": FamilyInteger, "UDINT": FamilyInteger, "ULINT": FamilyInteger,
	"BYTE": FamilyInteger, "WORD": FamilyInteger, "DWORD": FamilyInteger, "LWORD": FamilyInteger,

	"REAL": FamilyReal, "LREAL": FamilyReal,

	"STRING": FamilyString, "WSTRING": FamilyString, "CHAR": FamilyString, "WCHAR": FamilyString,

	"TIME": FamilyDuration, "LTIME": FamilyDuration,
	"DATE": FamilyDate, "LDATE": FamilyDate,
	"TIME_OF_DAY": FamilyTimeOfDay, "TOD": FamilyTimeOfDay, "LTOD": FamilyTimeOfDay,
	"DATE_AND_TIME": FamilyDateTime, "DT": FamilyDateTime, "LDT": FamilyDateTime,
}

var genericTypes = map[string]bool{
	"ANY": true, "ANY_DERIVED": true, "ANY_ELEMENTARY": true, "ANY_MAGNITUDE": true,
	"ANY_NUM": true, "ANY_REAL": true, "ANY_INT": true, "ANY_SIGNED": true, "ANY_UNSIGNED": true,
	"ANY_BIT": true, "ANY_STRING": true, "ANY_CHAR": true, "ANY_CHARS": true,
	"ANY_DATE": true, "ANY_DURATION": true,
}

// IsElementaryType reports whether name is an elementary IEC data type.
func IsElementaryType(name string) bool {
	_, ok := elementaryTypes[strings.ToUpper(name)]
	return ok
}

// IsGenericType reports whether name is one of the ANY type families.
func IsGenericType(name string) bool {
	return genericTypes[strings.ToUpper(name)]
}

// IsDataType reports whether name is an elementary or generic data type.
func IsDataType(name string) bool {
	return IsElementaryType(name) || IsGenericType(name)
}

// IsKnownType reports whether name is an elementary type, a generic type or a
// standard function block type.
func IsKnownType(name string) bool {
	return IsDataType(name) || IsStandardFunctionBlock(name)
}

// TypeFamily returns the compatibility family of a declared type. Bounded
// strings such as STRING[20] or STRING(20) belong to FamilyString.
func TypeFamily(typeName string) Family {
	upper := strings.ToUpper(strings.TrimSpace(typeName))
	if i := strings.IndexAny(upper, "[("); i > 0 {
		upper = strings.TrimSpace(upper[:i])
	}
	return elementaryTypes[upper]
}

// ElementaryTypes returns the elementary type names sorted alphabetically.
func ElementaryTypes() []string {
	out := make([]string, 0, len(elementaryTypes))
	for k := range elementaryTypes {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
