package lang

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"testing"
)

// stubEvaluator understands integer literals, quoted strings, bare names,
// comma-separated lists, and any expression starting with "fail", which
// returns errBoom.
var stubEvaluator = EvaluatorFunc(func(env Env, source string) (Value, error) {
	source = strings.TrimSpace(source)

	switch {
	case strings.HasPrefix(source, "fail"):
		return Value{}, errBoom

	case strings.HasPrefix(source, `"`):
		s, err := strconv.Unquote(source)
		if err != nil {
			return Value{}, err
		}

		return StringValue(s), nil

	case strings.Contains(source, ","):
		var list []any

		for f := range strings.SplitSeq(source, ",") {
			f = strings.TrimSpace(f)
			if n, err := strconv.Atoi(f); err == nil {
				list = append(list, n)
			} else {
				list = append(list, f)
			}
		}

		return RefValue(list), nil
	}

	if n, err := strconv.ParseInt(source, 10, 64); err == nil {
		return IntValue(n), nil
	}

	if v, ok := env.Lookup(source); ok {
		return v, nil
	}

	return Value{}, fmt.Errorf("undefined: %s", source)
})

var errBoom = errors.New("boom")

// generate parses src and evaluates it against a new Scope built from opts,
// using the stub evaluator unless opts supply another.
func generate(t *testing.T, src string, opts ...Option) (*Scope, []string) {
	t.Helper()

	tmpl := ParseString(t.Context(), src)
	scope := NewScope(append([]Option{WithEvaluator(stubEvaluator)}, opts...)...)

	return scope, slices.Collect(tmpl.Lines(scope))
}

func lines(s ...string) string { return strings.Join(s, "\n") + "\n" }
