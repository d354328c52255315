package lang

import (
	"fmt"
	"iter"
	"slices"
	"strings"
)

// Node is an element of a parsed template tree. The set of variants is
// closed: [*List], [*Line], [*Block], [*Eval], [*Insert], [*Operation] and
// [*ErrorNode].
//
// Lines walks the node depth-first, left to right, mutating scope as
// [*Operation] and [*Eval] nodes are reached and yielding output lines as
// they are produced. Stopping the iteration stops the walk.
type Node interface {
	Lines(scope *Scope) iter.Seq[string]
	// Pos returns the 1-based source line, or 0 for synthesized nodes.
	Pos() int
	// Source returns the command that produced the node, if any.
	Source() (Command, bool)

	node()
}

// origin records where a node came from.
type origin struct {
	line int
	cmd  *Command
}

func (o origin) Pos() int { return o.line }

func (o origin) Source() (Command, bool) {
	if o.cmd == nil {
		return Command{}, false
	}

	return *o.cmd, true
}

func (origin) node() {}

func fromCommand(c Command) origin { return origin{line: c.Line, cmd: &c} }

// List is an ordered sequence of nodes.
type List struct {
	origin
	Nodes []Node
}

// Append adds nodes to the end of the list.
func (l *List) Append(nodes ...Node) { l.Nodes = append(l.Nodes, nodes...) }

// Len returns the number of direct children.
func (l *List) Len() int { return len(l.Nodes) }

// Lines yields the lines of each child in order.
func (l *List) Lines(scope *Scope) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, n := range l.Nodes {
			for line := range n.Lines(scope) {
				if !yield(line) {
					return
				}
			}
		}
	}
}

// Line is literal text emitted once after substitution.
type Line struct {
	origin
	Text string
}

// Lines yields the text filtered through the registered groups.
func (n *Line) Lines(scope *Scope) iter.Seq[string] {
	return func(yield func(string) bool) {
		yield(scope.Apply(n.Text))
	}
}

// Block evaluates its body once per element of its header expression.
// See [Value.Elements] for how results are iterated.
type Block struct {
	origin
	Ident    string
	Expr     string
	Collapse bool
	Body     *List

	// Close is the matching close command, or nil if the block was never
	// closed.
	Close *Command

	// ref expands "_<Ident>" to the loop variable's value within the body.
	ref First
}

func newBlock(c Command) *Block {
	b := &Block{
		origin:   fromCommand(c),
		Ident:    c.Ident,
		Expr:     c.Expr,
		Collapse: c.Collapse,
		Body:     &List{origin: origin{line: c.Line}},
	}

	if b.Ident != "" {
		b.ref = First{mustSubstitution(
			ModePlain, "_"+b.Ident, TemplateReplacement("{{ "+b.Ident+" }}"),
		)}
	}

	return b
}

// Lines yields the body once per element of Expr, or once when Expr is empty.
func (b *Block) Lines(scope *Scope) iter.Seq[string] {
	return func(yield func(string) bool) {
		if b.Expr == "" {
			b.pass(scope, nil, yield)

			return
		}

		v, err := scope.Evaluate(b.Expr)
		if err != nil {
			scope.AddError(fmt.Sprintf("line %d: block %s: %v", b.line, b.Expr, err))

			return
		}

		var prev []string

		for i, elem := range v.Elements() {
			if !b.Collapse {
				if !b.pass(scope, &elem, yield) {
					return
				}

				continue
			}

			var out []string

			b.pass(scope, &elem, func(s string) bool {
				out = append(out, s)

				return true
			})

			if i > 0 && slices.Equal(out, prev) {
				continue
			}

			prev = out

			for _, s := range out {
				if !yield(s) {
					return
				}
			}
		}
	}
}

// pass evaluates the body once with elem bound to the loop variable.
// Afterward the "_<Ident>" group is removed and the previous binding of the
// loop variable is restored. Groups registered by the body stay in effect.
// It reports whether the consumer wants more lines.
func (b *Block) pass(scope *Scope, elem *Value, yield func(string) bool) bool {
	if elem != nil && b.Ident != "" {
		env := scope.Bindings()

		old, had := env.Lookup(b.Ident)
		env.Set(b.Ident, *elem)

		defer func() {
			if had {
				env.Set(b.Ident, old)
			} else {
				env.Delete(b.Ident)
			}
		}()

		// Nested passes remove their own group before returning, so the
		// index stays valid.
		ref := scope.Groups()
		scope.AddGroup(b.ref)

		defer scope.removeGroup(ref)
	}

	for line := range b.Body.Lines(scope) {
		if !yield(line) {
			return false
		}
	}

	return true
}

// Eval evaluates an expression for its side effects.
type Eval struct {
	origin
	Expr string
}

// Lines evaluates Expr and yields nothing.
func (n *Eval) Lines(scope *Scope) iter.Seq[string] {
	return func(func(string) bool) {
		if _, err := scope.Evaluate(n.Expr); err != nil {
			scope.AddError(fmt.Sprintf("line %d: eval %s: %v", n.line, n.Expr, err))
		}
	}
}

// Insert emits the stringified value of an expression, one output line per
// line of the value, each prefixed with Indent.
type Insert struct {
	origin
	Indent string
	Expr   string
}

// Lines yields the value of Expr, one indented line per line of the value.
func (n *Insert) Lines(scope *Scope) iter.Seq[string] {
	return func(yield func(string) bool) {
		v, err := scope.Evaluate(n.Expr)
		if err != nil {
			scope.AddError(fmt.Sprintf("line %d: insert %s: %v", n.line, n.Expr, err))

			return
		}

		text := strings.TrimSuffix(v.String(), "\n")
		if text == "" {
			return
		}

		for line := range strings.SplitSeq(text, "\n") {
			if !yield(n.Indent + strings.TrimSuffix(line, "\r")) {
				return
			}
		}
	}
}

// Operation runs a callback against the Scope and emits nothing.
// Label names the purpose of the operation for tree dumps.
type Operation struct {
	origin
	Label string
	Run   func(*Scope)
}

// Lines calls Run with scope and yields nothing.
func (n *Operation) Lines(scope *Scope) iter.Seq[string] {
	return func(func(string) bool) {
		if n.Run != nil {
			n.Run(scope)
		}
	}
}

// ErrorNode records its message in the Scope when reached and emits nothing.
type ErrorNode struct {
	origin
	Message string
}

// Lines records Message as a scope error and yields nothing.
func (n *ErrorNode) Lines(scope *Scope) iter.Seq[string] {
	return func(func(string) bool) {
		scope.AddError(n.Message)
	}
}
