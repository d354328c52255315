package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/linegen/log"
)

// defaultConfigIndent is the number of spaces to use for indentation
// when generating the default configuration file.
const defaultConfigIndent = 2

// ignoredFlags are flag name prefixes never written to the configuration.
var ignoredFlags = []string{"help", "version", "pprof"}

// Init generates a default configuration file with current flag values.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ktx := kongContextFrom(ctx)
	if ktx == nil {
		panic("internal error: kong context undefined")
	}

	confPath, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok {
		panic("internal error: config path undefined")
	}

	_, err = os.Stat(confPath)
	if err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			With(slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	data, err := yaml.MarshalWithOptions(
		buildConfig(ktx),
		yaml.Indent(defaultConfigIndent),
		yaml.IndentSequence(true),
	)
	if err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}

	if err := os.WriteFile(confPath, data, 0o600); err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}

	log.DebugContext(
		ctx,
		"initialized configuration file",
		slog.String("path", confPath),
	)

	return nil
}

// buildConfig collects the current flag values into configuration sections:
// the application flags under [ConfigIdentifier], then one section per
// command named by its command path (e.g. "fmt json").
func buildConfig(ktx *kong.Context) yaml.MapSlice {
	var conf yaml.MapSlice

	if root := flagSection(ktx, ktx.Model.Flags); len(root) > 0 {
		conf = append(conf, yaml.MapItem{Key: ConfigIdentifier, Value: root})
	}

	var visit func(n *kong.Node)

	visit = func(n *kong.Node) {
		for _, child := range n.Children {
			if child.Type != kong.CommandNode || child.Hidden {
				continue
			}

			if section := flagSection(ktx, child.Flags); len(section) > 0 {
				conf = append(conf, yaml.MapItem{Key: SectionName(child), Value: section})
			}

			visit(child)
		}
	}

	visit(ktx.Model.Node)

	return conf
}

func flagSection(ktx *kong.Context, flags []*kong.Flag) yaml.MapSlice {
	var section yaml.MapSlice

	for _, flag := range flags {
		if flag.Hidden || slices.ContainsFunc(ignoredFlags, func(s string) bool {
			return strings.HasPrefix(flag.Name, s)
		}) {
			continue
		}

		if v := configValue(ktx.FlagValue(flag)); v != nil {
			section = append(section, yaml.MapItem{Key: flag.Name, Value: v})
		}
	}

	return section
}

// configValue converts a flag value into its configuration form, or nil for
// values that should be omitted.
func configValue(val any) any {
	switch v := val.(type) {
	case nil:
		return nil

	case bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return v

	case string:
		if v == "" {
			return nil
		}

		return v

	case []string:
		if len(v) == 0 {
			return nil
		}

		return v

	case fmt.Stringer:
		return v.String()

	default:
		s := fmt.Sprint(v)
		if s == "" {
			return nil
		}

		return s
	}
}

// SectionName returns the configuration section holding the flags of command
// node n: the names of n and its parent commands joined by spaces.
func SectionName(n *kong.Node) string {
	var names []string

	for ; n != nil && n.Type == kong.CommandNode; n = n.Parent {
		names = append(names, n.Name)
	}

	slices.Reverse(names)

	return strings.Join(names, " ")
}
