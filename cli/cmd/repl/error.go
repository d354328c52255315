package repl

import "github.com/ardnew/linegen/lang"

// Sentinel errors.
var (
	ErrOutOfBounds = lang.NewError("index out of range")
	ErrEditor      = lang.NewError("run editor")
)
