// Package cli contains the command line interface for linegen.
//
// # Commands
//
//	linegen [gen] [flags] <template>...   generate outputs (default command)
//	linegen watch [flags] <template>...   regenerate on change
//	linegen fmt [native|json|yaml] <file> format or dump a template
//	linegen repl [<template>]             interactive session
//	linegen init [--force]                write the configuration file
//
// # Configuration
//
// Flag defaults are read from the user configuration directory, in
// config.json (kong's JSON loader) and config.yaml (see [resolve]). The YAML
// file has an application section named "config" and one section per
// command; "linegen init" writes it from the current flag values.
//
// # Logging Options
//
//   - --log-level: minimum level (trace, debug, info, warn, error)
//   - --log-format: json or text
//   - --log-time-layout: timestamp layout, or "none"
//   - --[no-]log-caller: include caller information
//   - --[no-]log-pretty: colorized text output
//
// Logging flags are applied before the command line is parsed, so they take
// effect wherever they appear.
//
// # Profiling Options
//
// Available only when built with the pprof build tag (see package profile):
//
//   - --pprof-mode: profiling mode
//   - --pprof-dir: output directory (default: <cache>/linegen/pprof)
package cli
