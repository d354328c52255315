package cli

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/linegen/log"
)

// logFormat configures the logger format as a side effect of parsing via
// encoding.TextUnmarshaler, so that parse errors are already logged in the
// requested format.
type logFormat string

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *logFormat) UnmarshalText(text []byte) error {
	*f = logFormat(text)
	log.Config(log.WithFormat(log.ParseFormat(string(*f))))

	return nil
}

// logLevel configures the logger level as a side effect of parsing.
type logLevel string

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *logLevel) UnmarshalText(text []byte) error {
	*l = logLevel(text)
	log.Config(log.WithLevel(log.ParseLevel(string(*l))))

	return nil
}

type logConfig struct {
	Level      logLevel  `default:"info"    enum:"${logLevelEnum}"  help:"Set log level."`
	Format     logFormat `default:"json"    enum:"${logFormatEnum}" help:"Set log format."`
	TimeLayout string    `default:"RFC3339"                         help:"Set timestamp format (Go layout, constant name, or 'none')."`
	Caller     bool      `default:"false"                           help:"Include caller information."       negatable:""`
	Pretty     bool      `default:"true"                            help:"Enable colorized pretty printing." negatable:""`
}

func (*logConfig) vars() kong.Vars {
	return kong.Vars{
		"logLevelEnum":  strings.Join(slices.Collect(log.Levels()), ","),
		"logFormatEnum": strings.Join(slices.Collect(log.Formats()), ","),
	}
}

func (*logConfig) group() kong.Group {
	var group kong.Group

	group.Key = "log"
	group.Title = "Logging options"

	return group
}

// start applies the parsed configuration to the default logger.
func (f *logConfig) start(ctx context.Context) {
	log.Config(
		log.WithLevel(log.ParseLevel(string(f.Level))),
		log.WithFormat(log.ParseFormat(string(f.Format))),
		log.WithTimeLayout(f.TimeLayout),
		log.WithCaller(f.Caller),
		log.WithPretty(f.Pretty),
	)

	log.DebugContext(ctx, "logger initialized",
		slog.String("level", string(f.Level)),
		slog.String("format", string(f.Format)),
		slog.String("time", f.TimeLayout),
		slog.Bool("caller", f.Caller),
		slog.Bool("pretty", f.Pretty),
	)
}

// logFlag describes how an early scan applies one logging flag.
type logFlag struct {
	// valued flags consume the next argument when no "=value" is given.
	valued bool
	apply  func(f *logConfig, value string, assigned bool)
}

// boolFlag returns a logFlag that sets a boolean field, inverted for the
// "--no-" spelling.
func boolFlag(field func(*logConfig) *bool, opt func(bool) log.Option, negate bool) logFlag {
	return logFlag{apply: func(f *logConfig, value string, assigned bool) {
		v := true

		if assigned {
			b, err := strconv.ParseBool(value)
			if err != nil {
				return
			}

			v = b
		}

		if negate {
			v = !v
		}

		*field(f) = v
		log.Config(opt(v))
	}}
}

var logFlags = map[string]logFlag{
	"--log-level": {valued: true, apply: func(f *logConfig, v string, _ bool) {
		_ = f.Level.UnmarshalText([]byte(v))
	}},
	"--log-format": {valued: true, apply: func(f *logConfig, v string, _ bool) {
		_ = f.Format.UnmarshalText([]byte(v))
	}},
	"--log-pretty":    boolFlag(func(f *logConfig) *bool { return &f.Pretty }, log.WithPretty, false),
	"--no-log-pretty": boolFlag(func(f *logConfig) *bool { return &f.Pretty }, log.WithPretty, true),
	"--log-caller":    boolFlag(func(f *logConfig) *bool { return &f.Caller }, log.WithCaller, false),
	"--no-log-caller": boolFlag(func(f *logConfig) *bool { return &f.Caller }, log.WithCaller, true),
}

// scan applies logging flags found in args before kong parses them, so the
// logger is configured regardless of flag position. logFormat and logLevel
// already configure the logger during parsing; boolean flags do not go
// through encoding.TextUnmarshaler and need this pass.
func (f *logConfig) scan(args []string) {
	for i := 0; i < len(args); i++ {
		if args[i] == "--" {
			return
		}

		name, value, assigned := strings.Cut(args[i], "=")

		flag, ok := logFlags[name]
		if !ok {
			continue
		}

		if flag.valued && !assigned && i+1 < len(args) &&
			args[i+1] != "" && args[i+1][0] != '-' {
			i++
			value = args[i]
		}

		flag.apply(f, value, assigned)
	}
}
