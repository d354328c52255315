package cli

import (
	"context"
	"runtime"
	"strconv"

	"github.com/alecthomas/kong"

	"github.com/ardnew/linegen/cli/cmd"
	"github.com/ardnew/linegen/pkg"
)

// CLI is the top-level command-line interface for linegen.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Version kong.VersionFlag `help:"Print version and exit."`

	Gen   cmd.Gen   `cmd:"" default:"withargs" help:"Generate the outputs of templates (default)."`
	Watch cmd.Watch `cmd:""                    help:"Regenerate outputs whenever templates change."`
	Fmt   cmd.Fmt   `cmd:""                    help:"Format templates or dump their parsed tree."`
	Repl  cmd.Repl  `cmd:""                    help:"Type template lines interactively and see their output."`
	Init  cmd.Init  `cmd:""                    help:"Write the current flag values to the configuration file."`
}

// Run executes the linegen CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	if err := mkdirAllRequired(); err != nil {
		return err
	}

	configFilePath := configPath(baseConfig + ".yaml")

	vars := kong.Vars{
		"version":            pkg.Version,
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  pkg.CacheDir(),
		cmd.JobsIdentifier:   strconv.Itoa(runtime.NumCPU()),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Apply logger flags before parsing so that parse errors are reported
	// with the requested configuration.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, configPath(baseConfig+".json")),
		kong.Configuration(resolve(baseConfig), configFilePath),
		vars,
	)
	if err != nil {
		return pkg.ErrNewParser.Wrap(err)
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return pkg.ErrParseArgs.Wrap(err)
	}

	// The singleton provider above reads ctx when a command first asks for
	// it, so commands see the kong.Context stored here.
	ctx = cmd.WithContext(ctx, ktx)

	cli.Log.start(ctx)

	// [pprofConfig.start] is a no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	return ktx.Run()
}
