package lang

import (
	"regexp"
	"strconv"
	"strings"
)

// CommandKind classifies a template line.
type CommandKind int

const (
	CommandText        CommandKind = iota // text
	CommandBlank                          // blank
	CommandComment                        // comment
	CommandMatchPlain                     // match-plain
	CommandMatchRegex                     // match-regex
	CommandReplacement                    // replacement
	CommandEval                           // eval
	CommandInsert                         // insert
	CommandBlockOpen                      // block-open
	CommandBlockClose                     // block-close
	CommandFilename                       // filename
	CommandNormalize                      // normalize
	CommandUnknown                        // unknown
)

var commandKindNames = [...]string{
	CommandText:        "text",
	CommandBlank:       "blank",
	CommandComment:     "comment",
	CommandMatchPlain:  "match-plain",
	CommandMatchRegex:  "match-regex",
	CommandReplacement: "replacement",
	CommandEval:        "eval",
	CommandInsert:      "insert",
	CommandBlockOpen:   "block-open",
	CommandBlockClose:  "block-close",
	CommandFilename:    "filename",
	CommandNormalize:   "normalize",
	CommandUnknown:     "unknown",
}

// String returns the hyphenated name of the kind.
func (k CommandKind) String() string {
	if k >= 0 && int(k) < len(commandKindNames) {
		return commandKindNames[k]
	}

	return "CommandKind(" + strconv.Itoa(int(k)) + ")"
}

// Command is one classified template line.
type Command struct {
	Kind CommandKind
	// Line is the 1-based source line, set by the builder.
	Line int
	// Raw is the complete source line.
	Raw string
	// Indent is the whitespace preceding the trigger.
	Indent string
	// Body is the trimmed text following the trigger.
	Body string

	// Pattern is the match pattern of match-plain and match-regex.
	Pattern string
	// Expr is the expression of eval, insert, block-open, and expression
	// replacements, or the literal text of template replacements.
	Expr string
	// Template marks a "->" replacement; otherwise it is "-->".
	Template bool
	// Ident is the optional loop variable of block-open.
	Ident string
	// Collapse is the "/" flag of block-open.
	Collapse bool
	// Options are the option words of normalize.
	Options []string
	// Keyword is the directive word as written ("normalize" or "normalise").
	Keyword string
	// Path is the target of filename.
	Path string
}

// Trigger is the marker that introduces a command line.
const Trigger = "///"

var (
	triggerRe   = regexp.MustCompile(`^([ \t]*)///(.*)$`)
	blockOpenRe = regexp.MustCompile(
		`^<<<(/)?[ \t]*(?:([A-Za-z_][A-Za-z0-9_]*)[ \t]*:)?[ \t]*(.*)$`,
	)
)

// Classify classifies one source line. Lines without the trigger are
// [CommandText]; every other line gets exactly one command kind.
func Classify(line string) Command {
	m := triggerRe.FindStringSubmatch(line)
	if m == nil {
		return Command{Kind: CommandText, Raw: line}
	}

	c := Command{
		Raw:    line,
		Indent: m[1],
		Body:   strings.TrimSpace(m[2]),
	}

	c.Kind = c.classify()

	return c
}

func (c *Command) classify() CommandKind {
	body := c.Body

	switch {
	case body == "":
		return CommandBlank

	case strings.HasPrefix(body, "--") && !strings.HasPrefix(body, "-->"):
		return CommandComment

	case strings.HasPrefix(body, "-->"):
		c.Expr = strings.TrimSpace(body[len("-->"):])
		if c.Expr == "" {
			return CommandUnknown
		}

		return CommandReplacement

	case strings.HasPrefix(body, "->"):
		c.Expr = body[len("->"):]
		c.Template = true

		return CommandReplacement

	case strings.HasPrefix(body, "=") && len(body) > 1:
		c.Pattern = body[1:]

		return CommandMatchPlain

	case strings.HasPrefix(body, "~") && len(body) > 1:
		c.Pattern = body[1:]

		return CommandMatchRegex

	case strings.HasPrefix(body, "<<<"):
		m := blockOpenRe.FindStringSubmatch(body)
		if m == nil {
			return CommandUnknown
		}

		c.Collapse = m[1] != ""
		c.Ident = m[2]
		c.Expr = strings.TrimSpace(m[3])

		return CommandBlockOpen

	case body == ">>>":
		return CommandBlockClose

	case strings.HasPrefix(body, "!"):
		c.Expr = strings.TrimSpace(body[1:])
		if c.Expr == "" {
			return CommandUnknown
		}

		return CommandEval

	case strings.HasPrefix(body, ">"):
		c.Expr = strings.TrimSpace(body[1:])
		if c.Expr == "" {
			return CommandUnknown
		}

		return CommandInsert
	}

	return c.classifyDirective()
}

func (c *Command) classifyDirective() CommandKind {
	fields := strings.Fields(c.Body)

	switch fields[0] {
	case "normalize", "normalise":
		if len(fields) < 2 {
			return CommandUnknown
		}

		for _, opt := range fields[1:] {
			if _, ok := normalizeOptions[opt]; !ok {
				return CommandUnknown
			}
		}

		c.Keyword = fields[0]
		c.Options = fields[1:]

		return CommandNormalize

	case "filename":
		if len(fields) != 2 {
			return CommandUnknown
		}

		c.Path = fields[1]

		return CommandFilename
	}

	return CommandUnknown
}

// IsCommand reports whether c came from a trigger line.
func (c Command) IsCommand() bool { return c.Kind != CommandText }

// String returns the canonical spelling of the command body, which
// classifies back to an equivalent command. Text lines return Raw.
func (c Command) String() string {
	switch c.Kind {
	case CommandText:
		return c.Raw
	case CommandBlank:
		return ""
	case CommandReplacement:
		if c.Template {
			return "->" + c.Expr
		}

		return "--> " + c.Expr
	case CommandMatchPlain:
		return "=" + c.Pattern
	case CommandMatchRegex:
		return "~" + c.Pattern
	case CommandBlockOpen:
		var sb strings.Builder

		sb.WriteString("<<<")

		if c.Collapse {
			sb.WriteByte('/')
		}

		if c.Ident != "" {
			sb.WriteString(" " + c.Ident + ":")
		}

		if c.Expr != "" {
			sb.WriteString(" " + c.Expr)
		}

		return sb.String()
	case CommandBlockClose:
		return ">>>"
	case CommandEval:
		return "! " + c.Expr
	case CommandInsert:
		return "> " + c.Expr
	case CommandNormalize:
		return c.Keyword + " " + strings.Join(c.Options, " ")
	case CommandFilename:
		return "filename " + c.Path
	default:
		return c.Body
	}
}

// Format renders c as a complete source line in canonical spacing.
func (c Command) Format() string {
	if c.Kind == CommandText {
		return c.Raw
	}

	body := c.String()
	if body == "" {
		return c.Indent + Trigger
	}

	return c.Indent + Trigger + " " + body
}
