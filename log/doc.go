// Package log provides a concurrency-safe simplified logging interface
// based on [log/slog].
//
// Output format, level, time layout, caller information and colorized
// pretty printing are applied at logger creation time using functional
// options:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatText),
//		log.WithTimeLayout("kitchen"))
//
//	logger.Info("generated", slog.String("file", "out.go"))
//
// A [Logger] is an immutable value; [Logger.Wrap] and [Logger.With] return
// new loggers. The zero Logger discards everything, so library types can
// embed one without requiring configuration.
//
// Package-level functions ([Info], [DebugContext], ...) log through a
// process-wide default logger that the command-line interface configures
// with [Config].
//
// # Supported Levels
//
// [LevelTrace], [LevelDebug], [LevelInfo], [LevelWarn] and [LevelError].
// Messages below the configured level are discarded.
//
// # Output Formats
//
// [FormatJSON] (default) and [FormatText]. Pretty printing only affects the
// text format, where keys are dimmed and values colorized by kind.
package log
