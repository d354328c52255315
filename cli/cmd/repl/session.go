package repl

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/ardnew/linegen/lang"
	"github.com/ardnew/linegen/log"
)

// Session accumulates template source one line at a time and reports the
// output each new line contributes.
//
// After every complete line the whole source is regenerated from the
// initial variables. Output lines already reported are skipped, so the
// caller sees only what the new line added. While a block is open,
// generation is deferred until the matching close arrives.
type Session struct {
	lines   []string
	vars    map[string]any
	eval    lang.Evaluator
	logger  log.Logger
	emitted int
	errored int
	env     lang.Env
}

// Result is the output of one [Session] step.
type Result struct {
	// Output holds the output lines not reported before.
	Output []string
	// Errors holds the diagnostics not reported before.
	Errors []string
	// Depth is the number of blocks still open. Output is deferred while it
	// is positive.
	Depth int
}

// NewSession returns an empty session. A nil eval selects a new
// [lang.ExprEvaluator].
func NewSession(vars map[string]any, eval lang.Evaluator, logger log.Logger) *Session {
	if eval == nil {
		eval = lang.NewExprEvaluator(lang.WithEvaluatorLogger(logger))
	}

	return &Session{
		vars:   maps.Clone(vars),
		eval:   eval,
		logger: logger,
		env:    lang.BindingsOf(vars),
	}
}

// Add appends line to the source and returns what it contributed.
func (s *Session) Add(ctx context.Context, line string) Result {
	s.lines = append(s.lines, line)

	return s.step(ctx)
}

// Undo removes the last source line. Nothing is reported for the change: the
// output of the shortened source becomes the new baseline. It reports
// whether a line was removed.
func (s *Session) Undo(ctx context.Context) bool {
	if len(s.lines) == 0 {
		return false
	}

	s.lines = s.lines[:len(s.lines)-1]
	s.rebase(ctx)

	return true
}

// Replace substitutes the entire source and returns the complete output of
// the new source.
func (s *Session) Replace(ctx context.Context, source string) Result {
	s.lines = slices.Collect(lang.SplitLines(source))
	s.emitted, s.errored = 0, 0

	return s.step(ctx)
}

// Reset discards the source and every binding made by it.
func (s *Session) Reset() {
	s.lines = nil
	s.emitted, s.errored = 0, 0
	s.env = lang.BindingsOf(s.vars)
}

// Len returns the number of source lines.
func (s *Session) Len() int { return len(s.lines) }

// Source returns the accumulated source text.
func (s *Session) Source() string {
	if len(s.lines) == 0 {
		return ""
	}

	return strings.Join(s.lines, "\n") + "\n"
}

// Lines returns a copy of the accumulated source lines.
func (s *Session) Lines() []string { return slices.Clone(s.lines) }

// Template parses the accumulated source.
func (s *Session) Template(ctx context.Context) *lang.Template {
	return lang.Parse(ctx, slices.Values(s.lines), lang.WithLogger(s.logger))
}

// Bindings returns the environment left by the most recent generation.
func (s *Session) Bindings() lang.Env { return s.env }

// Names returns the visible binding names, for completion.
func (s *Session) Names() []string { return lang.Names(s.env) }

// Depth returns the number of blocks left open by the source.
func (s *Session) Depth() int { return openBlocks(s.lines) }

// Format returns the source with canonical command spacing.
func (s *Session) Format(ctx context.Context) (string, error) {
	var buf bytes.Buffer
	if err := s.Template(ctx).Format(ctx, &buf); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// Tree returns an indented outline of the parsed source, one node per line.
func (s *Session) Tree(ctx context.Context) []string {
	var out []string

	s.Template(ctx).Walk(func(n lang.Node, depth int) bool {
		d := lang.DumpNode(n)

		desc := d.Kind
		switch {
		case d.Label != "":
			desc += " " + d.Label
		case d.Text != "":
			desc += " " + fmt.Sprintf("%q", d.Text)
		}

		if d.Command != "" {
			desc += "  /// " + d.Command
		}

		out = append(out, fmt.Sprintf("%s%d: %s", strings.Repeat("  ", depth), d.Line, desc))

		return true
	})

	return out
}

func (s *Session) step(ctx context.Context) Result {
	depth := openBlocks(s.lines)
	if depth > 0 {
		s.logger.TraceContext(ctx, "repl deferred", slog.Int("depth", depth))

		return Result{Depth: depth}
	}

	out, errs := s.generate(ctx)

	res := Result{
		Output: tail(out, s.emitted),
		Errors: tail(errs, s.errored),
	}

	s.emitted, s.errored = len(out), len(errs)

	return res
}

func (s *Session) rebase(ctx context.Context) {
	if openBlocks(s.lines) > 0 {
		return
	}

	out, errs := s.generate(ctx)
	s.emitted, s.errored = len(out), len(errs)
}

func (s *Session) generate(ctx context.Context) ([]string, []string) {
	env := lang.BindingsOf(s.vars)
	scope := lang.NewScope(
		lang.WithEvaluator(s.eval),
		lang.WithBindings(env),
		lang.WithLogger(s.logger),
	)

	out := slices.Collect(s.Template(ctx).Lines(scope))
	s.env = env

	return out, scope.Errors()
}

// tail returns the elements of s past the first n. A shorter s than before
// (the source no longer produces what was reported) is returned whole.
func tail(s []string, n int) []string {
	if n > len(s) {
		return s
	}

	return s[n:]
}

// openBlocks counts the block opens in lines without a matching close.
// Unbalanced closes are ignored, as the builder does.
func openBlocks(lines []string) int {
	depth := 0

	for _, line := range lines {
		switch lang.Classify(line).Kind {
		case lang.CommandBlockOpen:
			depth++
		case lang.CommandBlockClose:
			if depth > 0 {
				depth--
			}
		}
	}

	return depth
}
