package cmd

import (
	"log/slog"
	"path/filepath"
	"strings"
)

// defaultOutput returns the path a template generates into when it carries
// no filename directive: the template path with suffix removed. When outDir
// is set, the result is placed under outDir at the template's path relative
// to cwd (or at its base name if the template lies outside cwd).
func defaultOutput(tmpl, suffix, outDir, cwd string) (string, error) {
	if suffix == "" || !strings.HasSuffix(tmpl, suffix) ||
		len(filepath.Base(tmpl)) <= len(suffix) {
		return "", ErrOutputPath.With(
			slog.String("template", tmpl),
			slog.String("suffix", suffix),
		)
	}

	out := strings.TrimSuffix(tmpl, suffix)
	if outDir == "" {
		return out, nil
	}

	abs := out
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(cwd, abs)
	}

	rel, err := filepath.Rel(cwd, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = filepath.Base(abs)
	}

	return filepath.Join(outDir, rel), nil
}

// resolveOutput applies a filename directive to the default output path.
// A relative override is joined to the directory containing def; an
// absolute override is used as given.
func resolveOutput(def, override string) string {
	if override == "" {
		return def
	}

	if filepath.IsAbs(override) {
		return filepath.Clean(override)
	}

	return filepath.Join(filepath.Dir(def), override)
}
