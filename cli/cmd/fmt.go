package cmd

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/ardnew/linegen/lang"
	"github.com/ardnew/linegen/log"
)

// Fmt reformats a template or dumps its parsed tree.
type Fmt struct {
	Native Native `cmd:"" default:"withargs" help:"Rewrite command lines with canonical spacing (default)."`
	JSON   JSON   `cmd:""                    help:"Dump the parsed tree as JSON."`
	YAML   YAML   `cmd:""                    help:"Dump the parsed tree as YAML."`
}

// FmtSource is the template argument shared by the fmt subcommands.
type FmtSource struct {
	Charset string `default:"utf-8" help:"IANA character set of the template."`

	Source string `arg:"" default:"-" help:"Template file or '-' for stdin." name:"template"`
}

// Native writes the template with canonical command spacing.
type Native struct {
	FmtSource `embed:""`

	Write bool `help:"Rewrite the template file in place." short:"w"`
}

// Run executes the native format command.
func (f *Native) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	if !f.Write || f.Source == stdinSource {
		return f.render(ctx, os.Stdin, os.Stdout, lang.DumpNative, 0)
	}

	var buf bytes.Buffer
	if err := f.render(ctx, nil, &buf, lang.DumpNative, 0); err != nil {
		return err
	}

	existing, err := os.ReadFile(f.Source)
	if err == nil && bytes.Equal(existing, buf.Bytes()) {
		return nil
	}

	if err := os.WriteFile(f.Source, buf.Bytes(), defaultFileMode); err != nil {
		return lang.ErrWriteOutput.Wrap(err).With(slog.String("template", f.Source))
	}

	log.DebugContext(ctx, "formatted template", slog.String("template", f.Source))

	return nil
}

// JSON dumps the parsed tree as JSON.
type JSON struct {
	FmtSource `embed:""`

	Indent int `default:"2" help:"Indent width for JSON output." short:"i"`
}

// Run executes the json command.
func (j *JSON) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	return j.render(ctx, os.Stdin, os.Stdout, lang.DumpJSON, j.Indent)
}

// YAML dumps the parsed tree as YAML.
type YAML struct {
	FmtSource `embed:""`

	Indent int `default:"2" help:"Indent width for YAML output." short:"i"`
}

// Run executes the yaml command.
func (y *YAML) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	return y.render(ctx, os.Stdin, os.Stdout, lang.DumpYAML, y.Indent)
}

// render parses the source, reading stdin for "-", and renders it to w.
// The output is encoded in the source's character set.
func (s *FmtSource) render(
	ctx context.Context,
	stdin io.Reader,
	w io.Writer,
	format lang.DumpFormat,
	indent int,
) error {
	enc, err := lookupCharset(s.Charset)
	if err != nil {
		return err
	}

	r := stdin

	if s.Source != stdinSource {
		file, err := os.Open(s.Source)
		if err != nil {
			return lang.ErrReadInput.Wrap(err).With(slog.String("template", s.Source))
		}
		defer file.Close()

		r = file
	}

	tmpl, err := lang.ParseReader(ctx, decodeReader(r, enc), lang.WithLogger(log.Default()))
	if err != nil {
		return lang.WrapError(err).With(slog.String("format", format.String()))
	}

	ew := encodeWriter(w, enc)

	if err := tmpl.Render(ctx, ew, format, indent); err != nil {
		_ = ew.Close()

		return lang.WrapError(err).With(slog.String("format", format.String()))
	}

	return ew.Close()
}
