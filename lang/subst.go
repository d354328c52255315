package lang

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// Mode selects how a substitution pattern is interpreted.
type Mode int

const (
	ModePlain Mode = iota // plain
	ModeRegex             // regex
)

// String returns the lowercase name of the mode.
func (m Mode) String() string {
	switch m {
	case ModePlain:
		return "plain"
	case ModeRegex:
		return "regex"
	default:
		return "Mode(" + strconv.Itoa(int(m)) + ")"
	}
}

// Result is the state threaded through a chain of rules.
type Result struct {
	// Hit records whether any rule has fired so far along the chain.
	Hit bool
	// Text is the current candidate output.
	Text string
}

// Rule transforms a Result. Implementations are [*Substitution], [First]
// and [All].
type Rule interface {
	Apply(scope *Scope, in Result) Result
}

// First tries each rule against the incoming text until one reports a hit.
//
// The winning rule's text becomes the output. When no rule hits, the output
// is the incoming text, unless a rule failed to evaluate, in which case the
// first such rule's diagnostic is the output. The outgoing Hit is the
// incoming Hit or'ed with whether this group produced a hit.
type First []Rule

func (f First) Apply(scope *Scope, in Result) Result {
	out := in

	for _, r := range f {
		res := r.Apply(scope, Result{Text: in.Text})
		if res.Hit {
			return Result{Hit: true, Text: res.Text}
		}

		if res.Text != in.Text && out.Text == in.Text {
			out.Text = res.Text
		}
	}

	return out
}

// All applies every rule in sequence, each receiving the previous one's
// output regardless of hit or miss.
type All []Rule

func (a All) Apply(scope *Scope, in Result) Result {
	for _, r := range a {
		in = r.Apply(scope, in)
	}

	return in
}

// ReplacementKind distinguishes the two replacement syntaxes.
type ReplacementKind int

const (
	// ReplaceExpr ("-->") evaluates the replacement as one expression and
	// stringifies the result.
	ReplaceExpr ReplacementKind = iota
	// ReplaceTemplate ("->") treats the replacement as literal text in which
	// each "{{ expr }}" segment is evaluated and stringified.
	ReplaceTemplate
)

// String returns the lowercase name of the replacement kind.
func (k ReplacementKind) String() string {
	switch k {
	case ReplaceExpr:
		return "expr"
	case ReplaceTemplate:
		return "template"
	default:
		return "ReplacementKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Replacement is the right-hand side of a substitution.
type Replacement struct {
	Kind   ReplacementKind
	Source string
	parts  []part
}

// part is a literal text span or an embedded expression of a template.
type part struct {
	text   string
	isExpr bool
}

// ExprReplacement returns a replacement that evaluates source.
func ExprReplacement(source string) Replacement {
	return Replacement{Kind: ReplaceExpr, Source: source}
}

// TemplateReplacement returns a replacement that expands the "{{ expr }}"
// segments of source. An unterminated "{{" is literal text.
func TemplateReplacement(source string) Replacement {
	r := Replacement{Kind: ReplaceTemplate, Source: source}

	for rest := source; rest != ""; {
		open := strings.Index(rest, "{{")
		if open < 0 {
			r.parts = append(r.parts, part{text: rest})

			break
		}

		end := strings.Index(rest[open+2:], "}}")
		if end < 0 {
			r.parts = append(r.parts, part{text: rest})

			break
		}

		if open > 0 {
			r.parts = append(r.parts, part{text: rest[:open]})
		}

		r.parts = append(r.parts, part{
			text:   strings.TrimSpace(rest[open+2 : open+2+end]),
			isExpr: true,
		})

		rest = rest[open+2+end+2:]
	}

	return r
}

// Expand produces the replacement text for one match, with env holding the
// capture bindings.
func (r Replacement) Expand(scope *Scope, env Env) (string, error) {
	if r.Kind == ReplaceExpr {
		v, err := scope.EvaluateIn(env, r.Source)
		if err != nil {
			return "", err
		}

		return v.String(), nil
	}

	var sb strings.Builder

	for _, p := range r.parts {
		if !p.isExpr {
			sb.WriteString(p.text)

			continue
		}

		if p.text == "" {
			continue
		}

		// Bare names resolve without the evaluator.
		if isIdent(p.text) {
			if v, ok := env.Lookup(p.text); ok {
				sb.WriteString(v.String())

				continue
			}
		}

		v, err := scope.EvaluateIn(env, p.text)
		if err != nil {
			return "", err
		}

		sb.WriteString(v.String())
	}

	return sb.String(), nil
}

// Substitution is a single pattern/replacement rule.
type Substitution struct {
	Mode        Mode
	Pattern     string
	Replacement Replacement

	re *regexp.Regexp
}

// NewSubstitution compiles pattern according to mode. Plain patterns are
// matched literally.
func NewSubstitution(
	mode Mode,
	pattern string,
	replacement Replacement,
) (*Substitution, error) {
	src := pattern
	if mode == ModePlain {
		src = regexp.QuoteMeta(pattern)
	}

	re, err := regexp.Compile(src)
	if err != nil {
		return nil, ErrInvalidPattern.Wrap(err).With(
			slog.String("mode", mode.String()),
			slog.String("pattern", pattern),
		)
	}

	return &Substitution{
		Mode:        mode,
		Pattern:     pattern,
		Replacement: replacement,
		re:          re,
	}, nil
}

// mustSubstitution is [NewSubstitution] for built-in rules whose patterns
// are known to compile.
func mustSubstitution(mode Mode, pattern string, r Replacement) *Substitution {
	s, err := NewSubstitution(mode, pattern, r)
	if err != nil {
		panic(err)
	}

	return s
}

// Apply replaces every non-overlapping match in the incoming text, left to
// right. Each replacement is expanded with "_0" bound to the whole match,
// "_1".."_n" to the groups (unmatched groups bind to ""), and named groups
// bound by name, all layered over the Scope's bindings.
//
// A replacement that fails to evaluate aborts the rule and yields a miss
// whose text is the diagnostic "[[ERROR]] <replacement>: <error>".
func (s *Substitution) Apply(scope *Scope, in Result) Result {
	matches := s.re.FindAllStringSubmatchIndex(in.Text, -1)
	if len(matches) == 0 {
		return in
	}

	var (
		sb    strings.Builder
		last  int
		names = s.re.SubexpNames()
	)

	for _, m := range matches {
		sb.WriteString(in.Text[last:m[0]])

		env := scope.Bindings().Layer()

		for g := range len(m) / 2 {
			var capture string
			if m[2*g] >= 0 {
				capture = in.Text[m[2*g]:m[2*g+1]]
			}

			env.Set("_"+strconv.Itoa(g), StringValue(capture))

			if g < len(names) && names[g] != "" {
				env.Set(names[g], StringValue(capture))
			}
		}

		text, err := s.Replacement.Expand(scope, env)
		if err != nil {
			scope.logger.Trace(
				"replacement failed",
				slog.String("pattern", s.Pattern),
				slog.String("replacement", s.Replacement.Source),
				slog.String("error", err.Error()),
			)

			return Result{
				Hit:  in.Hit,
				Text: errorPrefix + s.Replacement.Source + ": " + err.Error(),
			}
		}

		sb.WriteString(text)

		last = m[1]
	}

	sb.WriteString(in.Text[last:])

	return Result{Hit: true, Text: sb.String()}
}

// normalizeGroups returns the built-in groups registered by a normalize
// directive for option, in registration order.
func normalizeGroups(option string) []First {
	switch option {
	case "spaces":
		return []First{
			// Collapse interior runs of two or more blanks.
			{mustSubstitution(ModeRegex, `([^ \t])[ \t]{2,}`,
				TemplateReplacement("{{_1}} "))},
			// Strip trailing blanks.
			{mustSubstitution(ModeRegex, `[ \t]+$`,
				TemplateReplacement(""))},
			// Tighten before a closing punctuator.
			// Leading indentation is never a match.
			{mustSubstitution(ModeRegex, `([^ \t])[ \t]+([,;)])`,
				TemplateReplacement("{{_1}}{{_2}}"))},
			// Tighten after an opening parenthesis.
			{mustSubstitution(ModeRegex, `\([ \t]+`,
				TemplateReplacement("("))},
		}
	default:
		return nil
	}
}

// normalizeOptions lists the recognised normalize option words.
var normalizeOptions = map[string]struct{}{
	"spaces": {},
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func isIdent(s string) bool { return identRe.MatchString(s) }
