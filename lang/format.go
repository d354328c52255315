package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
)

// Format writes the template in native syntax with canonical command
// spacing. Re-parsing the output yields an equivalent tree.
func (t *Template) Format(_ context.Context, w io.Writer) error {
	return formatList(w, t.root)
}

func formatList(w io.Writer, l *List) error {
	for _, n := range l.Nodes {
		if err := formatNode(w, n); err != nil {
			return err
		}
	}

	return nil
}

func formatNode(w io.Writer, n Node) error {
	if line, ok := n.(*Line); ok {
		_, err := fmt.Fprintln(w, line.Text)

		return err
	}

	// Synthesized nodes (unclosed block errors) have no source line.
	c, ok := n.Source()
	if !ok {
		return nil
	}

	if _, err := fmt.Fprintln(w, c.Format()); err != nil {
		return err
	}

	b, ok := n.(*Block)
	if !ok {
		return nil
	}

	if err := formatList(w, b.Body); err != nil {
		return err
	}

	if b.Close == nil {
		return nil
	}

	_, err := fmt.Fprintln(w, b.Close.Format())

	return err
}

// FormatJSON writes the template tree as JSON.
func (t *Template) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	var (
		data []byte
		err  error
	)

	if indent > 0 {
		data, err = json.MarshalIndent(t.Dump(), "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(t.Dump())
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}

// FormatYAML writes the template tree as YAML.
func (t *Template) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalContext(ctx, t.Dump(), opts...)
	if err != nil {
		return err
	}

	_, err = w.Write(data)

	return err
}

// NodeDump is the serializable form of a node used by tree dumps.
type NodeDump struct {
	Kind     string     `json:"kind"               yaml:"kind"`
	Line     int        `json:"line,omitempty"     yaml:"line,omitempty"`
	Label    string     `json:"label,omitempty"    yaml:"label,omitempty"`
	Text     string     `json:"text,omitempty"     yaml:"text,omitempty"`
	Command  string     `json:"command,omitempty"  yaml:"command,omitempty"`
	Ident    string     `json:"ident,omitempty"    yaml:"ident,omitempty"`
	Expr     string     `json:"expr,omitempty"     yaml:"expr,omitempty"`
	Indent   string     `json:"indent,omitempty"   yaml:"indent,omitempty"`
	Collapse bool       `json:"collapse,omitempty" yaml:"collapse,omitempty"`
	Message  string     `json:"message,omitempty"  yaml:"message,omitempty"`
	Children []NodeDump `json:"children,omitempty" yaml:"children,omitempty"`
}

// TemplateDump is the serializable form of a template.
type TemplateDump struct {
	Output string     `json:"output,omitempty" yaml:"output,omitempty"`
	Nodes  []NodeDump `json:"nodes"            yaml:"nodes"`
}

// Dump returns the serializable form of t.
func (t *Template) Dump() TemplateDump {
	return TemplateDump{Output: t.output, Nodes: dumpList(t.root)}
}

func dumpList(l *List) []NodeDump {
	out := make([]NodeDump, 0, len(l.Nodes))
	for _, n := range l.Nodes {
		out = append(out, DumpNode(n))
	}

	return out
}

// DumpNode returns the serializable form of n and its descendants.
func DumpNode(n Node) NodeDump {
	d := NodeDump{Line: n.Pos()}

	if c, ok := n.Source(); ok {
		d.Command = c.String()
	}

	switch n := n.(type) {
	case *List:
		d.Kind = "list"
		d.Children = dumpList(n)
	case *Line:
		d.Kind = "line"
		d.Text = n.Text
	case *Block:
		d.Kind = "block"
		d.Ident = n.Ident
		d.Expr = n.Expr
		d.Collapse = n.Collapse
		d.Children = dumpList(n.Body)
	case *Eval:
		d.Kind = "eval"
		d.Expr = n.Expr
	case *Insert:
		d.Kind = "insert"
		d.Expr = n.Expr
		d.Indent = n.Indent
	case *Operation:
		d.Kind = "operation"
		d.Label = n.Label
	case *ErrorNode:
		d.Kind = "error"
		d.Message = n.Message
	}

	return d
}

// DumpFormat selects a template rendering.
type DumpFormat int

const (
	DumpNative DumpFormat = iota // native
	DumpJSON                     // json
	DumpYAML                     // yaml
)

func (f DumpFormat) String() string {
	switch f {
	case DumpJSON:
		return "json"
	case DumpYAML:
		return "yaml"
	default:
		return "native"
	}
}

// ParseDumpFormat parses "native", "json" or "yaml".
func ParseDumpFormat(s string) (DumpFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "native", "":
		return DumpNative, nil
	case "json":
		return DumpJSON, nil
	case "yaml", "yml":
		return DumpYAML, nil
	default:
		return 0, ErrInvalidFormat.Wrap(fmt.Errorf("%q", s))
	}
}

// Render writes t in the given format.
func (t *Template) Render(ctx context.Context, w io.Writer, f DumpFormat, indent int) error {
	switch f {
	case DumpJSON:
		return t.FormatJSON(ctx, w, indent)
	case DumpYAML:
		return t.FormatYAML(ctx, w, indent)
	default:
		return t.Format(ctx, w)
	}
}
