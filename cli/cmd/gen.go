package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding"

	"github.com/ardnew/linegen/lang"
	"github.com/ardnew/linegen/log"
)

const (
	defaultFileMode os.FileMode = 0o644
	defaultDirMode  os.FileMode = 0o755
)

// GenFlags are the flags shared by every command that generates output.
type GenFlags struct {
	Templates []string `arg:"" help:"Template files, directories searched for --suffix, or '-' for stdin." name:"template" optional:""`

	Var     []string `help:"Define a variable (values are coerced to bool, int, float or string)." placeholder:"KEY=VALUE" short:"D"`
	Vars    []string `help:"YAML file mapping variable names to values."                           placeholder:"FILE"      type:"existingfile"`
	Suffix  string   `default:".lg"                                                                 help:"Template file suffix removed to form the output path."`
	OutDir  string   `help:"Write outputs under this directory."                                   placeholder:"DIR"       type:"path"`
	Charset string   `default:"utf-8"                                                               help:"IANA character set of templates and outputs."`
	Jobs    int      `default:"${jobs}"                                                             help:"Maximum number of templates generated concurrently." short:"j"`
	Stdout  bool     `help:"Write generated output to stdout instead of files."`
	Check   bool     `help:"Generate without writing anything; exit status reports errors."`
}

// sources returns the template arguments, defaulting to the working
// directory.
func (f *GenFlags) sources() []string {
	if len(f.Templates) == 0 {
		return []string{"."}
	}

	return f.Templates
}

// Gen generates the outputs of each template.
type Gen struct {
	GenFlags `embed:""`
}

// Run executes the gen command.
func (g *Gen) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	gen, err := g.generator()
	if err != nil {
		return err
	}

	templates, err := collectTemplates(g.sources(), g.Suffix)
	if err != nil {
		return err
	}

	return gen.run(ctx, templates)
}

// generator holds the state shared by every unit of one generation run.
type generator struct {
	flags  GenFlags
	eval   *lang.ExprEvaluator
	enc    encoding.Encoding
	vars   map[string]any
	cwd    string
	logger log.Logger

	stdin  io.Reader
	stdout io.Writer
	mu     sync.Mutex // serializes writes to stdout
}

// generator validates the flags and prepares a generator.
func (f *GenFlags) generator() (*generator, error) {
	enc, err := lookupCharset(f.Charset)
	if err != nil {
		return nil, err
	}

	vars, err := buildVars(f.Vars, f.Var)
	if err != nil {
		return nil, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, ErrOutputPath.Wrap(err)
	}

	logger := log.Default()

	return &generator{
		flags:  *f,
		eval:   lang.NewExprEvaluator(lang.WithEvaluatorLogger(logger)),
		enc:    enc,
		vars:   vars,
		cwd:    cwd,
		logger: logger,
		stdin:  os.Stdin,
		stdout: os.Stdout,
	}, nil
}

// run generates every template, at most Jobs at a time. Every template is
// attempted; the failures are joined into the returned error.
func (g *generator) run(ctx context.Context, templates []string) error {
	var (
		group errgroup.Group
		mu    sync.Mutex
		errs  []error
	)

	if g.flags.Jobs > 0 {
		group.SetLimit(g.flags.Jobs)
	}

	for _, tmpl := range templates {
		group.Go(func() error {
			if err := g.unit(ctx, tmpl); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}

			return nil
		})
	}

	_ = group.Wait()

	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// unit parses and generates one template, then writes its output.
func (g *generator) unit(ctx context.Context, tmpl string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	logger := g.logger.With(slog.String("template", tmpl))

	def, err := g.defaultOutput(tmpl)
	if err != nil {
		return err
	}

	parsed, err := g.parse(ctx, tmpl, logger)
	if err != nil {
		return err
	}

	scope := lang.NewScope(
		lang.WithEvaluator(g.eval),
		lang.WithVars(g.vars),
		lang.WithLogger(logger),
	)

	var buf bytes.Buffer
	if err := parsed.Generate(ctx, &buf, scope); err != nil {
		return ErrGenerate.Wrap(err).With(slog.String("template", tmpl))
	}

	out := def
	if override, ok := parsed.Output(); ok {
		out = resolveOutput(def, override)
	}

	if !g.flags.Check {
		if err := g.write(ctx, out, buf.Bytes()); err != nil {
			return err
		}
	}

	unitErrs := scope.Errors()
	for _, msg := range unitErrs {
		logger.ErrorContext(ctx, "template error", slog.String("error", msg))
	}

	logger.DebugContext(ctx, "generated template",
		slog.String("output", out),
		slog.Int("lines", parsed.LineCount()),
		slog.Int("errors", len(unitErrs)),
	)

	if len(unitErrs) > 0 {
		return ErrGenerate.With(
			slog.String("template", tmpl),
			slog.Int("errors", len(unitErrs)),
		)
	}

	return nil
}

// defaultOutput returns the output path of tmpl before any filename
// directive. Stdin generates to stdout, and a filename directive in it is
// resolved against the working directory.
func (g *generator) defaultOutput(tmpl string) (string, error) {
	if tmpl == stdinSource {
		return filepath.Join(g.cwd, stdinSource), nil
	}

	return defaultOutput(tmpl, g.flags.Suffix, g.flags.OutDir, g.cwd)
}

func (g *generator) parse(
	ctx context.Context,
	tmpl string,
	logger log.Logger,
) (*lang.Template, error) {
	var r io.Reader

	if tmpl == stdinSource {
		r = g.stdin
	} else {
		file, err := os.Open(tmpl)
		if err != nil {
			return nil, lang.ErrReadInput.Wrap(err).With(slog.String("template", tmpl))
		}
		defer file.Close()

		r = file
	}

	parsed, err := lang.ParseReader(ctx, decodeReader(r, g.enc), lang.WithLogger(logger))
	if err != nil {
		return nil, lang.WrapError(err).With(slog.String("template", tmpl))
	}

	return parsed, nil
}

// write encodes data into the output path, or to stdout when requested or
// when the output is the stdin placeholder. A file whose content would not
// change is left untouched.
func (g *generator) write(ctx context.Context, path string, data []byte) error {
	if g.flags.Stdout || filepath.Base(path) == stdinSource {
		g.mu.Lock()
		defer g.mu.Unlock()

		return g.encode(g.stdout, path, data)
	}

	var encoded bytes.Buffer
	if err := g.encode(&encoded, path, data); err != nil {
		return err
	}

	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, encoded.Bytes()) {
		g.logger.DebugContext(ctx, "output unchanged", slog.String("output", path))

		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), defaultDirMode); err != nil {
		return lang.ErrWriteOutput.Wrap(err).With(slog.String("output", path))
	}

	if err := os.WriteFile(path, encoded.Bytes(), defaultFileMode); err != nil {
		return lang.ErrWriteOutput.Wrap(err).With(slog.String("output", path))
	}

	return nil
}

func (g *generator) encode(w io.Writer, path string, data []byte) error {
	ew := encodeWriter(w, g.enc)

	if _, err := ew.Write(data); err != nil {
		_ = ew.Close()

		return lang.ErrWriteOutput.Wrap(err).With(slog.String("output", path))
	}

	if err := ew.Close(); err != nil {
		return lang.ErrWriteOutput.Wrap(err).With(slog.String("output", path))
	}

	return nil
}
