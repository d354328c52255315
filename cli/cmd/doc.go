// Package cmd implements the linegen subcommands: gen, watch, fmt, repl and init.
//
// Commands receive their [kong.Context] through [context.Context] (see
// [WithContext]) and log through the package-level logger in
// [github.com/ardnew/linegen/log].
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the YAML configuration file written by init.
	ConfigIdentifier = "config"

	// JobsIdentifier is the kong variable identifier containing the default
	// number of templates generated concurrently.
	JobsIdentifier = "jobs"
)
