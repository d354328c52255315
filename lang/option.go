package lang

import "github.com/ardnew/linegen/log"

// options holds the settings shared by [Parse] and [NewScope].
type options struct {
	logger    log.Logger
	evaluator Evaluator
	bindings  Env
}

// Option configures parsing or a [Scope].
type Option func(*options)

// WithLogger sets the logger for diagnostic output.
// The zero [log.Logger] discards everything.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEvaluator sets the expression evaluator used by a [Scope].
func WithEvaluator(e Evaluator) Option {
	return func(o *options) {
		o.evaluator = e
	}
}

// WithBindings seeds a [Scope] with env. The Scope writes to env directly.
func WithBindings(env Env) Option {
	return func(o *options) {
		o.bindings = env
	}
}

// WithVars seeds a [Scope] with a fresh environment holding vars.
func WithVars(vars map[string]any) Option {
	return func(o *options) {
		o.bindings = BindingsOf(vars)
	}
}

func applyOptions(opts ...Option) options {
	var o options

	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	return o
}
