package lang

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"

	"github.com/ardnew/linegen/log"
)

// Template is a parsed template: its root node list plus the output path
// override recorded by a filename directive.
type Template struct {
	root     *List
	output   string
	hasPath  bool
	count    int
	logger   log.Logger
	errCount int
}

// Root returns the root node list.
func (t *Template) Root() *List { return t.root }

// Output returns the path given by the last filename directive, if any.
// The path is relative to the parent of the caller's default output path.
func (t *Template) Output() (string, bool) { return t.output, t.hasPath }

// LineCount returns the number of source lines consumed.
func (t *Template) LineCount() int { return t.count }

// ErrorCount returns the number of error nodes placed in the tree.
func (t *Template) ErrorCount() int { return t.errCount }

// Lines evaluates the template against scope and yields its output lines.
func (t *Template) Lines(scope *Scope) iter.Seq[string] {
	return t.root.Lines(scope)
}

// Generate evaluates the template against scope and writes each output line
// followed by a newline. It stops early if ctx is canceled.
func (t *Template) Generate(ctx context.Context, w io.Writer, scope *Scope) error {
	n := 0

	for line := range t.Lines(scope) {
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return ErrWriteOutput.Wrap(err)
		}

		n++
	}

	t.logger.DebugContext(ctx, "generated",
		slog.Int("lines", n),
		slog.Int("errors", len(scope.Errors())),
	)

	return nil
}

// Walk calls fn for every node in depth-first order with its nesting depth
// (0 for children of the root). Returning false from fn skips the node's
// children.
func (t *Template) Walk(fn func(n Node, depth int) bool) {
	walk(t.root, 0, fn)
}

func walk(l *List, depth int, fn func(Node, int) bool) {
	for _, n := range l.Nodes {
		if !fn(n, depth) {
			continue
		}

		if b, ok := n.(*Block); ok {
			walk(b.Body, depth+1, fn)
		}
	}
}

// pendingMatch is a match command awaiting its replacement.
type pendingMatch struct {
	mode    Mode
	pattern string
	line    int
}

// builder accumulates the tree while consuming lines.
type builder struct {
	tmpl    *Template
	stack   []*List
	blocks  []*Block
	pending *pendingMatch
	logger  log.Logger
}

// Parse builds a template from lines in one pass. Parsing never fails:
// structural problems become [*ErrorNode]s at the offending position.
func Parse(ctx context.Context, lines iter.Seq[string], opts ...Option) *Template {
	o := applyOptions(opts...)

	t := &Template{root: &List{}, logger: o.logger}
	b := &builder{tmpl: t, stack: []*List{t.root}, logger: o.logger}

	for line := range lines {
		t.count++
		b.add(ctx, t.count, line)
	}

	b.finish(ctx)

	o.logger.DebugContext(ctx, "parsed template",
		slog.Int("lines", t.count),
		slog.Int("nodes", t.root.Len()),
		slog.Int("errors", t.errCount),
	)

	return t
}

// ParseString parses s, splitting it into lines. A trailing newline does
// not produce an extra empty line, and carriage returns preceding newlines
// are dropped.
func ParseString(ctx context.Context, s string, opts ...Option) *Template {
	return Parse(ctx, SplitLines(s), opts...)
}

// ParseReader reads r to completion and parses its content.
func ParseReader(ctx context.Context, r io.Reader, opts ...Option) (*Template, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, ErrReadInput.Wrap(err)
	}

	return ParseString(ctx, string(data), opts...), nil
}

// SplitLines yields the lines of s without their terminators.
func SplitLines(s string) iter.Seq[string] {
	return func(yield func(string) bool) {
		s = strings.TrimSuffix(s, "\n")
		if s == "" {
			return
		}

		for line := range strings.SplitSeq(s, "\n") {
			if !yield(strings.TrimSuffix(line, "\r")) {
				return
			}
		}
	}
}

func (b *builder) top() *List { return b.stack[len(b.stack)-1] }

func (b *builder) append(n Node) { b.top().Append(n) }

func (b *builder) fail(c Command, msg string) {
	b.tmpl.errCount++
	b.append(&ErrorNode{
		origin:  fromCommand(c),
		Message: fmt.Sprintf("line %d: %s", c.Line, msg),
	})
	b.logger.Debug("template error",
		slog.Int("line", c.Line),
		slog.String("error", msg),
	)
}

func (b *builder) add(ctx context.Context, lineNo int, line string) {
	c := Classify(line)
	c.Line = lineNo

	b.logger.TraceContext(ctx, "classified",
		slog.Int("line", lineNo),
		slog.String("kind", c.Kind.String()),
	)

	switch c.Kind {
	case CommandText:
		b.append(&Line{origin: origin{line: lineNo}, Text: line})

	case CommandBlank, CommandComment:
		b.append(&Operation{origin: fromCommand(c), Label: c.Kind.String()})

	case CommandMatchPlain, CommandMatchRegex:
		mode := ModePlain
		if c.Kind == CommandMatchRegex {
			mode = ModeRegex
		}

		if b.pending != nil {
			b.fail(c, msgMatchPending)
		} else {
			b.append(&Operation{origin: fromCommand(c), Label: "match"})
		}

		b.pending = &pendingMatch{mode: mode, pattern: c.Pattern, line: lineNo}

	case CommandReplacement:
		b.replace(c)

	case CommandBlockOpen:
		blk := newBlock(c)
		b.append(blk)
		b.stack = append(b.stack, blk.Body)
		b.blocks = append(b.blocks, blk)

	case CommandBlockClose:
		if len(b.stack) <= 1 {
			b.fail(c, msgUnbalancedClose)

			return
		}

		blk := b.blocks[len(b.blocks)-1]
		blk.Close = &c
		b.stack = b.stack[:len(b.stack)-1]
		b.blocks = b.blocks[:len(b.blocks)-1]

	case CommandEval:
		b.append(&Eval{origin: fromCommand(c), Expr: c.Expr})

	case CommandInsert:
		b.append(&Insert{origin: fromCommand(c), Indent: c.Indent, Expr: c.Expr})

	case CommandNormalize:
		var groups []First
		for _, opt := range c.Options {
			groups = append(groups, normalizeGroups(opt)...)
		}

		b.append(&Operation{
			origin: fromCommand(c),
			Label:  "normalize",
			Run: func(s *Scope) {
				for _, g := range groups {
					s.AddGroup(g)
				}
			},
		})

	case CommandFilename:
		b.tmpl.output, b.tmpl.hasPath = c.Path, true
		b.append(&Operation{origin: fromCommand(c), Label: "filename"})

	default:
		b.fail(c, msgUnknownCommand+": "+c.Body)
	}
}

func (b *builder) replace(c Command) {
	p := b.pending
	if p == nil {
		b.fail(c, msgReplaceWithoutMatch)

		return
	}

	b.pending = nil

	repl := ExprReplacement(c.Expr)
	if c.Template {
		repl = TemplateReplacement(c.Expr)
	}

	sub, err := NewSubstitution(p.mode, p.pattern, repl)
	if err != nil {
		b.fail(c, fmt.Sprintf("%s %q: %v", ErrInvalidPattern.msg, p.pattern, errors.Unwrap(err)))

		return
	}

	group := First{sub}

	b.append(&Operation{
		origin: fromCommand(c),
		Label:  "replace",
		Run:    func(s *Scope) { s.AddGroup(group) },
	})
}

func (b *builder) finish(ctx context.Context) {
	if p := b.pending; p != nil {
		b.logger.WarnContext(ctx, "discarding match without replacement",
			slog.Int("line", p.line),
			slog.String("mode", p.mode.String()),
			slog.String("pattern", p.pattern),
		)

		b.pending = nil
	}

	for i := len(b.blocks) - 1; i >= 0; i-- {
		blk := b.blocks[i]
		b.tmpl.errCount++
		b.tmpl.root.Append(&ErrorNode{
			origin:  origin{line: blk.line},
			Message: fmt.Sprintf("line %d: %s", blk.line, msgUnclosedBlock),
		})
	}

	b.stack = b.stack[:1]
	b.blocks = nil
}
