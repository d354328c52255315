package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/linegen/cli/cmd"
	"github.com/ardnew/linegen/log"
)

// resolve returns a [kong.ConfigurationLoader] for YAML config files of the
// shape written by "linegen init":
//
//	config:
//	  log-level: debug
//	gen:
//	  suffix: .tmpl
//	  jobs: 4
//	fmt json:
//	  indent: 4
//
// Application flags are read from the section named root. Command flags are
// read from the section named by the command path (see [cmd.SectionName]),
// falling back to root. Keys may spell hyphens as underscores. Command-line
// flags override config file values.
//
// A file that is not valid YAML is logged and ignored.
func resolve(root string) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		var doc map[string]map[string]any

		if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			log.Warn("ignoring configuration file", slog.String("error", err.Error()))

			return config{}, nil
		}

		c := config{root: root, sections: make(map[string]map[string]any, len(doc))}

		for name, section := range doc {
			flat := make(map[string]any, len(section))

			for k, v := range section {
				flat[strings.ReplaceAll(k, "_", "-")] = flagValue(v)
			}

			c.sections[name] = flat
		}

		return c, nil
	}
}

// config implements [kong.Resolver] over YAML config sections.
type config struct {
	root     string
	sections map[string]map[string]any
}

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(_ *kong.Context, parent *kong.Path, flag *kong.Flag) (any, error) {
	if parent != nil && parent.Command != nil {
		if v, ok := c.sections[cmd.SectionName(parent.Command)][flag.Name]; ok {
			return v, nil
		}
	}

	if v, ok := c.sections[c.root][flag.Name]; ok {
		return v, nil
	}

	return nil, nil
}

// flagValue converts a decoded YAML value into a form kong's mappers accept:
// numbers become strings and sequences become comma-separated lists.
func flagValue(v any) any {
	switch v := v.(type) {
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		items := make([]string, len(v))
		for i, e := range v {
			items[i] = fmt.Sprint(flagValue(e))
		}

		return strings.Join(items, ",")
	default:
		return v
	}
}
