package lang

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/ardnew/linegen/log"
)

// Evaluator turns an expression plus a binding environment into a value.
//
// The engine may call Evaluate many times per line (once per match per rule).
// Implementations may read and write env but must tolerate repeated calls.
type Evaluator interface {
	Evaluate(env Env, source string) (Value, error)
}

// EvaluatorFunc adapts an ordinary function to the [Evaluator] interface.
type EvaluatorFunc func(env Env, source string) (Value, error)

// Evaluate calls f(env, source).
func (f EvaluatorFunc) Evaluate(env Env, source string) (Value, error) {
	return f(env, source)
}

// ExprEvaluator evaluates expressions with expr-lang.
//
// Programs are compiled once per distinct source and shared by every
// evaluation, so a single ExprEvaluator may serve many templates
// concurrently. Each evaluation runs against the static builtins, the
// process environment via env(), the binding functions set, defined and
// lookup, and finally every visible binding (bindings shadow builtins).
//
// A source that fails to compile but contains a top-level comma is retried
// as a list literal, so "1, 2, 3" evaluates to [1, 2, 3].
type ExprEvaluator struct {
	programs   sync.Map // string -> *vm.Program
	processEnv map[string]string
	logger     log.Logger
}

// EvaluatorOption configures an [ExprEvaluator].
type EvaluatorOption func(*ExprEvaluator)

// WithProcessEnv sets the "KEY=VALUE" pairs returned by the env() builtin.
// By default the process environment at construction time is used.
func WithProcessEnv(environ []string) EvaluatorOption {
	return func(e *ExprEvaluator) {
		e.processEnv = buildProcessEnvMap(environ)
	}
}

// WithEvaluatorLogger sets the logger used for compile diagnostics.
func WithEvaluatorLogger(logger log.Logger) EvaluatorOption {
	return func(e *ExprEvaluator) {
		e.logger = logger
	}
}

// NewExprEvaluator returns an [ExprEvaluator] configured by opts.
func NewExprEvaluator(opts ...EvaluatorOption) *ExprEvaluator {
	e := &ExprEvaluator{}

	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	if e.processEnv == nil {
		e.processEnv = buildProcessEnvMap(nil)
	}

	return e
}

// Evaluate compiles (or reuses) the program for source and runs it against
// env. Results are converted with [ValueOf].
func (e *ExprEvaluator) Evaluate(env Env, source string) (Value, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return Value{}, nil
	}

	program, err := e.compile(source)
	if err != nil {
		return Value{}, err
	}

	result, err := vm.Run(program, e.runtimeEnv(env))
	if err != nil {
		return Value{}, ErrExprEvaluate.Wrap(err).
			With(slog.String("source", source))
	}

	return ValueOf(result), nil
}

// compile returns the cached program for source, compiling it on first use.
func (e *ExprEvaluator) compile(source string) (*vm.Program, error) {
	if p, ok := e.programs.Load(source); ok {
		return p.(*vm.Program), nil
	}

	program, err := expr.Compile(source, expr.AllowUndefinedVariables())
	if err != nil && hasTopLevelComma(source) {
		var listErr error

		program, listErr = expr.Compile(
			"["+source+"]",
			expr.AllowUndefinedVariables(),
		)
		if listErr == nil {
			err = nil
		}
	}

	if err != nil {
		e.logger.Debug(
			"compile failed",
			slog.String("source", source),
			slog.String("error", err.Error()),
		)

		return nil, ErrExprCompile.Wrap(err).
			With(slog.String("source", source))
	}

	actual, _ := e.programs.LoadOrStore(source, program)

	return actual.(*vm.Program), nil
}

// runtimeEnv builds the map handed to the expr VM for one evaluation.
func (e *ExprEvaluator) runtimeEnv(env Env) map[string]any {
	m := Builtins()
	m["env"] = envFunc(e.processEnv)

	if env == nil {
		env = &Bindings{}
	}

	for k, fn := range bindingFuncs(env) {
		m[k] = fn
	}

	for k, v := range env.All() {
		m[k] = v.Any()
	}

	return m
}

// hasTopLevelComma reports whether source contains a comma outside any
// brackets, braces, parentheses, or string literal.
func hasTopLevelComma(source string) bool {
	var (
		depth int
		quote rune
		esc   bool
	)

	for _, r := range source {
		switch {
		case esc:
			esc = false
		case quote != 0:
			switch r {
			case '\\':
				esc = true
			case quote:
				quote = 0
			}
		case r == '"' || r == '\'' || r == '`':
			quote = r
		case r == '(' || r == '[' || r == '{':
			depth++
		case r == ')' || r == ']' || r == '}':
			depth--
		case r == ',' && depth == 0:
			return true
		}
	}

	return false
}
