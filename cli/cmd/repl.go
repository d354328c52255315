package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ardnew/linegen/cli/cmd/repl"
	"github.com/ardnew/linegen/lang"
	"github.com/ardnew/linegen/log"
	"github.com/ardnew/linegen/pkg"
)

// baseReplLog is the file under the cache directory receiving REPL logs,
// which would otherwise interleave with the terminal UI.
const baseReplLog = "repl.log"

// Repl runs the interactive template session.
type Repl struct {
	Template string `arg:"" help:"Template file preloaded into the session." name:"template" optional:"" type:"existingfile"`

	Var  []string `help:"Define a variable (values are coerced to bool, int, float or string)." placeholder:"KEY=VALUE" short:"D"`
	Vars []string `help:"YAML file mapping variable names to values."                           placeholder:"FILE"      type:"existingfile"`

	NoHistory bool `help:"Do not read or write the history file."`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	vars, err := buildVars(r.Vars, r.Var)
	if err != nil {
		return err
	}

	cacheDir := kongVar(ctx, CacheIdentifier, pkg.CacheDir())

	logger, closeLog := replLogger(cacheDir)
	defer closeLog()

	var source io.Reader

	if r.Template != "" {
		f, err := os.Open(r.Template)
		if err != nil {
			return lang.ErrReadInput.Wrap(err).With(slog.String("path", r.Template))
		}
		defer f.Close()

		source = f
	}

	historyDir := cacheDir
	if r.NoHistory {
		historyDir = ""
	}

	return repl.Run(ctx, source, vars, historyDir, logger)
}

// replLogger returns the default logger redirected to the REPL log file in
// dir. When the file cannot be opened, logs are discarded.
func replLogger(dir string) (log.Logger, func()) {
	path := filepath.Join(dir, baseReplLog)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		log.Warn("repl logging disabled",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)

		return log.Default().Wrap(log.WithOutput(io.Discard)), func() {}
	}

	return log.Default().Wrap(log.WithOutput(f)), func() { _ = f.Close() }
}
