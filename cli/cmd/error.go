package cmd

import "github.com/ardnew/linegen/lang"

// Error is a command error with structured logging support. It shares its
// representation with [lang.Error], so sentinels from either package are
// refined with Wrap and With and matched with [errors.Is].
type Error = lang.Error

// NewError returns a command error with the given message.
func NewError(msg string) *Error { return lang.NewError(msg) }

var (
	ErrWriteConfig = NewError("write configuration file")
	ErrFileExists  = NewError("file exists (use --force to overwrite)")
	ErrNoTemplates = NewError("no templates")
	ErrCharset     = NewError("unsupported character set")
	ErrVar         = NewError("invalid variable definition")
	ErrVarsFile    = NewError("read variables file")
	ErrOutputPath  = NewError("resolve output path")
	ErrGenerate    = NewError("generation failed")
	ErrWatch       = NewError("watch templates")
)
