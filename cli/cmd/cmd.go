package cmd

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/linegen/log"
)

// contextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// kongVar returns the kong variable name, or fallback when ctx carries no
// kong.Context or the variable is undefined.
func kongVar(ctx context.Context, name, fallback string) string {
	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return fallback
	}

	if v, ok := ktx.Model.Vars()[name]; ok {
		return v
	}

	return fallback
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// collectTemplates expands args into the list of template sources.
//
// Regular files are taken as given. Directories are walked recursively for
// files whose name ends with suffix. Files reached more than once (through
// symlinks, or relative and absolute spellings) are kept only at their first
// position. Every occurrence of "-" collapses into a single stdin source
// placed last.
func collectTemplates(args []string, suffix string) ([]string, error) {
	var (
		out      []string
		seen     []os.FileInfo
		hasStdin bool
	)

	add := func(path string) {
		info, err := os.Stat(path)
		if err != nil {
			log.Warn("skipping template",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)

			return
		}

		if slices.ContainsFunc(seen, func(fi os.FileInfo) bool {
			return os.SameFile(fi, info)
		}) {
			return
		}

		seen = append(seen, info)
		out = append(out, path)
	}

	for _, arg := range args {
		if arg == stdinSource {
			hasStdin = true

			continue
		}

		info, err := os.Stat(arg)
		if err != nil {
			return nil, ErrNoTemplates.Wrap(err).With(slog.String("path", arg))
		}

		if !info.IsDir() {
			add(arg)

			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if !d.IsDir() && suffix != "" && strings.HasSuffix(d.Name(), suffix) {
				add(path)
			}

			return nil
		})
		if err != nil {
			return nil, ErrNoTemplates.Wrap(err).With(slog.String("path", arg))
		}
	}

	if hasStdin {
		out = append(out, stdinSource)
	}

	if len(out) == 0 {
		return nil, ErrNoTemplates
	}

	return out, nil
}
