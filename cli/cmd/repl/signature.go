package repl

import (
	"maps"
	"reflect"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/linegen/lang"
)

// signature is a display signature and its parameter names.
type signature struct {
	text   string
	params []string
}

// exprLangBuiltins holds signatures for the expr-lang builtin functions most
// useful in templates.
var exprLangBuiltins = map[string]signature{
	"len":       {"len(v)", []string{"v"}},
	"all":       {"all(array, predicate)", []string{"array", "predicate"}},
	"any":       {"any(array, predicate)", []string{"array", "predicate"}},
	"none":      {"none(array, predicate)", []string{"array", "predicate"}},
	"map":       {"map(array, mapper)", []string{"array", "mapper"}},
	"filter":    {"filter(array, predicate)", []string{"array", "predicate"}},
	"find":      {"find(array, predicate)", []string{"array", "predicate"}},
	"count":     {"count(array, predicate)", []string{"array", "predicate"}},
	"sortBy":    {"sortBy(array, mapper)", []string{"array", "mapper"}},
	"groupBy":   {"groupBy(array, mapper)", []string{"array", "mapper"}},
	"sum":       {"sum(array)", []string{"array"}},
	"min":       {"min(array)", []string{"array"}},
	"max":       {"max(array)", []string{"array"}},
	"keys":      {"keys(map)", []string{"map"}},
	"values":    {"values(map)", []string{"map"}},
	"join":      {"join(array, separator)", []string{"array", "separator"}},
	"split":     {"split(string, separator)", []string{"string", "separator"}},
	"replace":   {"replace(string, old, new)", []string{"string", "old", "new"}},
	"repeat":    {"repeat(string, n)", []string{"string", "n"}},
	"indexOf":   {"indexOf(string, substring)", []string{"string", "substring"}},
	"hasPrefix": {"hasPrefix(string, prefix)", []string{"string", "prefix"}},
	"hasSuffix": {"hasSuffix(string, suffix)", []string{"string", "suffix"}},
	"trim":      {"trim(string)", []string{"string"}},
	"upper":     {"upper(string)", []string{"string"}},
	"lower":     {"lower(string)", []string{"string"}},
	"int":       {"int(v)", []string{"v"}},
	"float":     {"float(v)", []string{"v"}},
	"string":    {"string(v)", []string{"v"}},
	"toJSON":    {"toJSON(v)", []string{"v"}},
	"type":      {"type(v)", []string{"v"}},
}

// bindingSignatures are the environment functions added to every
// evaluation. They are not in [lang.Builtins] because they close over the
// live bindings.
var bindingSignatures = map[string]signature{
	"env":     {"env(name)", []string{"name"}},
	"set":     {"set(name, value)", []string{"name", "value"}},
	"defined": {"defined(name)", []string{"name"}},
	"lookup":  {"lookup(name, ...fallback)", []string{"name", "...fallback"}},
}

// ExprLangBuiltinNames returns the sorted names of the expr-lang builtin
// functions with known signatures.
func ExprLangBuiltinNames() []string {
	return slices.Sorted(maps.Keys(exprLangBuiltins))
}

var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
)

// functionCall represents a detected function call in the input.
type functionCall struct {
	name     string // fully qualified function name (e.g., "path.cat")
	argIndex int    // current argument index (0-based)
	inCall   bool   // true if cursor is inside parameter list
}

// detectFunctionCall reports whether the cursor is inside the parameter list
// of a function call and, if so, the function name and the index of the
// argument under the cursor.
func detectFunctionCall(input string, cursor int) functionCall {
	if cursor > len(input) {
		cursor = len(input)
	}

	open := -1
	depth := 0

	for i := cursor; i > 0 && open < 0; {
		r, size := utf8.DecodeLastRuneInString(input[:i])
		i -= size

		switch r {
		case ')':
			depth++
		case '(':
			if depth == 0 {
				open = i
			} else {
				depth--
			}
		}
	}

	if open < 0 {
		return functionCall{}
	}

	start := open

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if r != '.' && r != '_' && !isAlnum(r) {
			break
		}

		start -= size
	}

	name := strings.Trim(input[start:open], ".")
	if name == "" {
		return functionCall{}
	}

	arg, depth := 0, 0

	for _, r := range input[open+1 : cursor] {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				arg++
			}
		}
	}

	return functionCall{name: name, argIndex: arg, inCall: true}
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// getSignature returns the display signature of a callable name, or "" when
// the name is not a known function.
func getSignature(funcName string) (string, []string) {
	if sig, ok := bindingSignatures[funcName]; ok {
		return sig.text, sig.params
	}

	if sig, ok := exprLangBuiltins[funcName]; ok {
		return sig.text, sig.params
	}

	if sig, params, ok := getBuiltinSignature(funcName); ok {
		return sig, params
	}

	return "", nil
}

// getBuiltinSignature derives a signature from the type of a built-in
// function, naming each parameter by its kind.
func getBuiltinSignature(funcName string) (string, []string, bool) {
	var current any = lang.Builtins()

	for seg := range strings.SplitSeq(funcName, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return "", nil, false
		}

		if current, ok = m[seg]; !ok {
			return "", nil, false
		}
	}

	t := reflect.TypeOf(current)
	if t == nil || t.Kind() != reflect.Func {
		return "", nil, false
	}

	params := make([]string, 0, t.NumIn())

	for i := range t.NumIn() {
		if t.IsVariadic() && i == t.NumIn()-1 {
			params = append(params, "..."+formatTypeName(t.In(i).Elem()))

			continue
		}

		params = append(params, formatTypeName(t.In(i)))
	}

	return funcName + "(" + strings.Join(params, ", ") + ")", params, true
}

// formatTypeName converts a reflect.Type to a readable parameter name.
func formatTypeName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Func:
		return "func"
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "int"
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "uint"
	case reflect.Float32, reflect.Float64:
		return "float"
	case reflect.Bool:
		return "bool"
	case reflect.Slice:
		return "slice"
	case reflect.Map:
		return "map"
	case reflect.Pointer:
		return formatTypeName(t.Elem())
	default:
		if t.Name() != "" {
			return t.Name()
		}

		return "arg"
	}
}

// renderSignatureHint renders the function signature with the current
// parameter highlighted. A variadic parameter stays highlighted for every
// argument at or past its position.
func renderSignatureHint(sig string, params []string, currentArgIdx int) string {
	open := strings.Index(sig, "(")
	if sig == "" || open == -1 {
		return signatureStyle.Render(sig)
	}

	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(sig[:open]))
	b.WriteString(signatureStyle.Render("("))

	for i, param := range params {
		if i > 0 {
			b.WriteString(signatureStyle.Render(", "))
		}

		variadic := strings.HasPrefix(param, "...")
		if currentArgIdx == i || variadic && currentArgIdx >= i {
			b.WriteString(currentParamStyle.Render(param))
		} else {
			b.WriteString(signatureStyle.Render(param))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}
