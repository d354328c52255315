// Package lang implements a line-oriented template engine for code
// generation.
//
// A template is read line by line. Ordinary lines are copied to the output,
// filtered through the substitution rules registered so far. Lines starting
// with the trigger "///" (after optional indentation) are commands that
// change the generation state instead of producing output.
//
// # Commands
//
//	///                      blank, no effect
//	/// -- text              comment, no effect
//	/// =pattern             match pattern literally
//	/// ~pattern             match pattern as a regular expression
//	/// -> text {{ expr }}   replace the pending match with a template
//	/// --> expr             replace the pending match with an expression
//	/// <<< [name:] [expr]   open a block, iterating expr
//	/// <<</ [name:] [expr]  open a block that collapses repeated iterations
//	/// >>>                  close the innermost block
//	/// ! expr               evaluate expr for its side effects
//	/// > expr               insert the lines of expr's value
//	/// normalize spaces     tidy whitespace on subsequent lines
//	/// filename path        redirect output to path
//
// A match and its replacement register one substitution group. Groups apply
// to every later line in registration order; within a group the first rule
// that matches wins. Replacements see the whole match as _0, numbered
// groups as _1.._n, and named groups by name.
//
// Inside a block with a named variable x, the text "_x" is replaced by the
// current value of x. Groups registered inside a block stay in effect for
// every later line, including those after the block.
//
// # Example
//
//	/// <<< name: ["alpha", "beta"]
//	/// =foo
//	/// --> inflect.camelize(name)
//	func fooHandler() {} // _name
//	/// >>>
//
// produces
//
//	func AlphaHandler() {} // alpha
//	func BetaHandler() {} // beta
//
// # Evaluation
//
// Parsing is a single eager pass; every input line yields one [Node]. The
// tree is evaluated lazily against a [Scope] with [Template.Lines]. The
// default [Evaluator] is [ExprEvaluator], backed by expr-lang, with builtins
// for paths, files, inflection and PATH-like list manipulation.
//
// Structural problems never abort parsing; they become [*ErrorNode]s that
// record a diagnostic in [Scope.Errors] when reached. A replacement that
// fails to evaluate replaces its line with a "[[ERROR]]" diagnostic.
package lang
