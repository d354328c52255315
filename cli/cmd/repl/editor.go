package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/ardnew/linegen/lang"
	"github.com/ardnew/linegen/log"
)

const defaultEditor = "vi"

// editSourceCommand implements [tea.ExecCommand] for editing the session
// source in an external editor. When the edited source has structural
// errors the user is offered another pass; declining keeps the source as
// written.
//
// [tea.ExecCommand]: https://pkg.go.dev/github.com/charmbracelet/bubbletea#ExecCommand
type editSourceCommand struct {
	source  string
	ctxFunc func() context.Context
	logger  log.Logger
	editor  string

	// edited is the accepted source; cancelled is set when the user saved an
	// empty file.
	edited    string
	cancelled bool

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// SetStdin sets the stdin reader for the command.
func (c *editSourceCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editSourceCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editSourceCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit loop.
func (c *editSourceCommand) Run() error {
	ctx := c.ctxFunc()

	f, err := os.CreateTemp("", "linegen-repl-*.lg")
	if err != nil {
		return ErrEditor.Wrap(err)
	}

	tmpPath := f.Name()

	defer os.Remove(tmpPath)

	f.Close()

	content := c.source
	prompt := bufio.NewScanner(c.stdin)

	for {
		if err := os.WriteFile(tmpPath, []byte(content), 0o600); err != nil {
			return ErrEditor.Wrap(err)
		}

		if err := c.runEditor(ctx, tmpPath); err != nil {
			return err
		}

		data, err := os.ReadFile(tmpPath)
		if err != nil {
			return ErrEditor.Wrap(err)
		}

		content = string(data)
		if strings.TrimSpace(content) == "" {
			c.cancelled = true

			return nil
		}

		problems := structuralErrors(ctx, content, c.logger)

		c.logger.TraceContext(ctx, "editor parse attempt",
			slog.Int("content_length", len(content)),
			slog.Int("errors", len(problems)),
		)

		if len(problems) == 0 {
			c.edited = content

			return nil
		}

		fmt.Fprintln(c.stderr)

		for _, p := range problems {
			fmt.Fprintln(c.stderr, p)
		}

		fmt.Fprint(c.stdout, "Re-edit? [Y/n] ")

		if !prompt.Scan() {
			c.edited = content

			return nil
		}

		switch strings.ToLower(strings.TrimSpace(prompt.Text())) {
		case "n", "no":
			c.edited = content

			return nil
		}
	}
}

func (c *editSourceCommand) runEditor(ctx context.Context, path string) error {
	editor := c.editor
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}

	if editor == "" {
		editor = defaultEditor
	}

	fields := strings.Fields(editor)

	cmd := exec.CommandContext(ctx, fields[0], append(fields[1:], path)...)
	cmd.Stdin = c.stdin
	cmd.Stdout = c.stdout
	cmd.Stderr = c.stderr

	if err := cmd.Run(); err != nil {
		return ErrEditor.Wrap(err).With(slog.String("editor", editor))
	}

	return nil
}

// structuralErrors returns the messages of the error nodes placed by the
// builder when parsing source.
func structuralErrors(ctx context.Context, source string, logger log.Logger) []string {
	var msgs []string

	lang.ParseString(ctx, source, lang.WithLogger(logger)).Walk(func(n lang.Node, _ int) bool {
		if e, ok := n.(*lang.ErrorNode); ok {
			msgs = append(msgs, e.Message)
		}

		return true
	})

	return msgs
}
