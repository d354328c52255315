package lang

import (
	"log/slog"
	"slices"

	"github.com/ardnew/linegen/log"
)

// Scope is the mutable generation state of one source unit: its variable
// bindings, the ordered substitution groups registered so far, and the
// diagnostics accumulated while walking the tree.
//
// A Scope is owned by a single traversal and is not safe for concurrent use.
type Scope struct {
	bindings  Env
	groups    []Rule
	errors    []string
	evaluator Evaluator
	logger    log.Logger
}

// NewScope returns a Scope configured by opts. Without [WithBindings] the
// Scope starts with an empty environment. Without [WithEvaluator] it uses a
// new [ExprEvaluator].
func NewScope(opts ...Option) *Scope {
	o := applyOptions(opts...)

	s := &Scope{
		bindings:  o.bindings,
		evaluator: o.evaluator,
		logger:    o.logger,
	}

	if s.bindings == nil {
		s.bindings = &Bindings{}
	}

	if s.evaluator == nil {
		s.evaluator = NewExprEvaluator(WithEvaluatorLogger(o.logger))
	}

	return s
}

// Bindings returns the Scope's environment.
func (s *Scope) Bindings() Env { return s.bindings }

// Errors returns a copy of the diagnostics recorded so far, in order.
func (s *Scope) Errors() []string { return slices.Clone(s.errors) }

// AddError records a diagnostic.
func (s *Scope) AddError(msg string) {
	s.logger.Debug("scope error", slog.String("error", msg))
	s.errors = append(s.errors, msg)
}

// AddGroup registers a substitution group after every existing group.
func (s *Scope) AddGroup(g First) {
	s.logger.Trace("add group",
		slog.Int("rules", len(g)),
		slog.Int("groups", len(s.groups)+1),
	)

	s.groups = append(s.groups, g)
}

// Groups returns the number of registered substitution groups.
func (s *Scope) Groups() int { return len(s.groups) }

// Apply folds text through every registered group in registration order.
// With no groups registered it returns text unchanged.
func (s *Scope) Apply(text string) string {
	if len(s.groups) == 0 {
		return text
	}

	return All(s.groups).Apply(s, Result{Text: text}).Text
}

// Evaluate evaluates source against the Scope's bindings.
func (s *Scope) Evaluate(source string) (Value, error) {
	return s.EvaluateIn(s.bindings, source)
}

// EvaluateIn evaluates source against env, typically a layer over the
// Scope's bindings.
func (s *Scope) EvaluateIn(env Env, source string) (Value, error) {
	if s.evaluator == nil {
		return Value{}, ErrNoEvaluator
	}

	return s.evaluator.Evaluate(env, source)
}

// removeGroup drops the group at index i, keeping the order of the rest.
func (s *Scope) removeGroup(i int) {
	if i >= 0 && i < len(s.groups) {
		s.groups = slices.Delete(s.groups, i, i+1)
	}
}
