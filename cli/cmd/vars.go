package cmd

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// buildVars merges the YAML variable files in order, then applies each
// "key=value" definition on top.
func buildVars(files, defs []string) (map[string]any, error) {
	vars := make(map[string]any)

	for _, file := range files {
		m, err := loadVarsFile(file)
		if err != nil {
			return nil, err
		}

		maps.Copy(vars, m)
	}

	for _, def := range defs {
		key, value, err := parseVar(def)
		if err != nil {
			return nil, err
		}

		vars[key] = value
	}

	return vars, nil
}

// loadVarsFile reads a YAML mapping of variable names to values.
// An empty file defines nothing.
func loadVarsFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ErrVarsFile.Wrap(err).With(slog.String("file", path))
	}

	var vars map[string]any
	if err := yaml.Unmarshal(data, &vars); err != nil {
		return nil, ErrVarsFile.Wrap(err).With(slog.String("file", path))
	}

	for k, v := range vars {
		vars[k] = normalizeYAML(v)
	}

	return vars, nil
}

// normalizeYAML converts decoded YAML into values the evaluator handles
// uniformly: mappings become map[string]any and integers become int.
func normalizeYAML(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, e := range x {
			x[k] = normalizeYAML(e)
		}

		return x
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, e := range x {
			m[fmt.Sprint(k)] = normalizeYAML(e)
		}

		return m
	case []any:
		for i, e := range x {
			x[i] = normalizeYAML(e)
		}

		return x
	case uint64:
		return int(x)
	case int64:
		return int(x)
	default:
		return v
	}
}

// parseVar splits a "key=value" definition and coerces the value.
func parseVar(def string) (string, any, error) {
	key, value, ok := strings.Cut(def, "=")

	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", nil, ErrVar.With(slog.String("definition", def))
	}

	return key, coerce(value), nil
}

// coerce interprets s as a boolean ("true" or "false" in any case), then an
// integer, then a floating point number, falling back to the string itself.
func coerce(s string) any {
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}

	if n, err := strconv.Atoi(s); err == nil {
		return n
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}

	return s
}
