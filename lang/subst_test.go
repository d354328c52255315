package lang

import (
	"errors"
	"testing"
)

func mustSub(t *testing.T, mode Mode, pattern string, r Replacement) *Substitution {
	t.Helper()

	s, err := NewSubstitution(mode, pattern, r)
	if err != nil {
		t.Fatalf("NewSubstitution(%q): %v", pattern, err)
	}

	return s
}

func TestScope_Apply_IdentityWithoutGroups(t *testing.T) {
	scope := NewScope(WithEvaluator(stubEvaluator))

	for _, text := range []string{"", "hello world", "  ///x", "\ttabs\t", "[[ERROR]]"} {
		if got := scope.Apply(text); got != text {
			t.Errorf("Apply(%q) = %q, want identity", text, got)
		}
	}
}

func TestSubstitution_Apply(t *testing.T) {
	tests := []struct {
		name    string
		mode    Mode
		pattern string
		repl    Replacement
		in      string
		want    Result
	}{
		{
			name:    "plain replaces every occurrence",
			mode:    ModePlain,
			pattern: "foo",
			repl:    TemplateReplacement("BAR"),
			in:      "foo and foo again",
			want:    Result{Hit: true, Text: "BAR and BAR again"},
		},
		{
			name:    "plain quotes metacharacters",
			mode:    ModePlain,
			pattern: "a.b",
			repl:    TemplateReplacement("X"),
			in:      "a.b axb",
			want:    Result{Hit: true, Text: "X axb"},
		},
		{
			name:    "miss leaves text unchanged",
			mode:    ModePlain,
			pattern: "zzz",
			repl:    TemplateReplacement("X"),
			in:      "abc",
			want:    Result{Text: "abc"},
		},
		{
			name:    "numbered captures",
			mode:    ModeRegex,
			pattern: `(\w+)=(\w+)`,
			repl:    TemplateReplacement("{{_2}}={{ _1 }}"),
			in:      "a=b, c=d",
			want:    Result{Hit: true, Text: "b=a, d=c"},
		},
		{
			name:    "unmatched group binds empty",
			mode:    ModeRegex,
			pattern: `x(y)?`,
			repl:    TemplateReplacement("[{{_1}}]"),
			in:      "x xy",
			want:    Result{Hit: true, Text: "[] [y]"},
		},
		{
			name:    "named captures",
			mode:    ModeRegex,
			pattern: `(?P<key>\w+):`,
			repl:    TemplateReplacement("{{key}} ->"),
			in:      "name: value",
			want:    Result{Hit: true, Text: "name -> value"},
		},
		{
			name:    "expression replacement",
			mode:    ModeRegex,
			pattern: `\d+`,
			repl:    ExprReplacement("_0"),
			in:      "v12",
			want:    Result{Hit: true, Text: "v12"},
		},
		{
			name:    "empty replacement deletes",
			mode:    ModePlain,
			pattern: "-",
			repl:    TemplateReplacement(""),
			in:      "a-b-c",
			want:    Result{Hit: true, Text: "abc"},
		},
		{
			name:    "unterminated template braces are literal",
			mode:    ModePlain,
			pattern: "x",
			repl:    TemplateReplacement("{{ y"),
			in:      "x",
			want:    Result{Hit: true, Text: "{{ y"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope := NewScope(WithEvaluator(stubEvaluator))
			sub := mustSub(t, tt.mode, tt.pattern, tt.repl)

			if got := sub.Apply(scope, Result{Text: tt.in}); got != tt.want {
				t.Errorf("Apply(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSubstitution_Apply_EvaluationError(t *testing.T) {
	scope := NewScope(WithEvaluator(stubEvaluator))
	sub := mustSub(t, ModePlain, "foo", ExprReplacement("fail now"))

	got := sub.Apply(scope, Result{Text: "foo bar foo"})
	want := Result{Text: "[[ERROR]] fail now: boom"}

	if got != want {
		t.Errorf("Apply = %+v, want %+v", got, want)
	}

	if errs := scope.Errors(); len(errs) != 0 {
		t.Errorf("evaluation failure must not record scope errors: %v", errs)
	}
}

func TestSubstitution_CapturesShadowBindings(t *testing.T) {
	scope := NewScope(
		WithEvaluator(stubEvaluator),
		WithVars(map[string]any{"_1": "outer", "name": "bound"}),
	)
	sub := mustSub(t, ModeRegex, `<(\w+)>`, TemplateReplacement("{{_1}}/{{name}}"))

	got := sub.Apply(scope, Result{Text: "<inner>"})
	if got.Text != "inner/bound" {
		t.Errorf("Apply = %q, want %q", got.Text, "inner/bound")
	}

	if v, _ := scope.Bindings().Lookup("_1"); v.String() != "outer" {
		t.Errorf("captures leaked into bindings: _1 = %q", v.String())
	}
}

func TestNewSubstitution_InvalidPattern(t *testing.T) {
	_, err := NewSubstitution(ModeRegex, "(", TemplateReplacement("x"))
	if !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("expected ErrInvalidPattern, got %v", err)
	}
}

func TestFirst_EarlierRuleWins(t *testing.T) {
	scope := NewScope(WithEvaluator(stubEvaluator))
	group := First{
		mustSub(t, ModePlain, "zzz", TemplateReplacement("never")),
		mustSub(t, ModePlain, "a", TemplateReplacement("first")),
		mustSub(t, ModePlain, "a", TemplateReplacement("second")),
		mustSub(t, ModePlain, "b", TemplateReplacement("third")),
	}

	got := group.Apply(scope, Result{Text: "a b"})
	if want := (Result{Hit: true, Text: "first b"}); got != want {
		t.Errorf("Apply = %+v, want %+v", got, want)
	}
}

func TestFirst_MissKeepsIncomingHit(t *testing.T) {
	scope := NewScope(WithEvaluator(stubEvaluator))
	group := First{mustSub(t, ModePlain, "zzz", TemplateReplacement("x"))}

	got := group.Apply(scope, Result{Hit: true, Text: "abc"})
	if want := (Result{Hit: true, Text: "abc"}); got != want {
		t.Errorf("Apply = %+v, want %+v", got, want)
	}

	got = group.Apply(scope, Result{Text: "abc"})
	if want := (Result{Text: "abc"}); got != want {
		t.Errorf("Apply = %+v, want %+v", got, want)
	}
}

func TestFirst_FailureIsOutputWhenNothingHits(t *testing.T) {
	scope := NewScope(WithEvaluator(stubEvaluator))
	group := First{
		mustSub(t, ModePlain, "a", ExprReplacement("fail")),
		mustSub(t, ModePlain, "zzz", TemplateReplacement("x")),
	}

	got := group.Apply(scope, Result{Text: "a"})
	if want := (Result{Text: "[[ERROR]] fail: boom"}); got != want {
		t.Errorf("Apply = %+v, want %+v", got, want)
	}

	// A later hit still wins over an earlier failure.
	group = append(group, mustSub(t, ModePlain, "a", TemplateReplacement("ok")))

	got = group.Apply(scope, Result{Text: "a"})
	if want := (Result{Hit: true, Text: "ok"}); got != want {
		t.Errorf("Apply = %+v, want %+v", got, want)
	}
}

func TestAll_FoldsEveryGroup(t *testing.T) {
	scope := NewScope(WithEvaluator(stubEvaluator))
	chain := All{
		First{mustSub(t, ModePlain, "a", TemplateReplacement("b"))},
		First{mustSub(t, ModePlain, "zzz", TemplateReplacement("never"))},
		First{mustSub(t, ModePlain, "b", TemplateReplacement("c"))},
	}

	got := chain.Apply(scope, Result{Text: "a"})
	if want := (Result{Hit: true, Text: "c"}); got != want {
		t.Errorf("Apply = %+v, want %+v", got, want)
	}
}

func TestScope_Apply_RegistrationOrder(t *testing.T) {
	scope := NewScope(WithEvaluator(stubEvaluator))
	scope.AddGroup(First{mustSub(t, ModePlain, "x", TemplateReplacement("y"))})
	scope.AddGroup(First{mustSub(t, ModePlain, "y", TemplateReplacement("z"))})

	if got := scope.Apply("x"); got != "z" {
		t.Errorf("Apply = %q, want z", got)
	}
}

func TestNormalizeSpaces(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"a  b   c", "a b c"},
		{"    indent  kept", "    indent kept"},
		{"trailing \t ", "trailing"},
		{"f( x , y )", "f(x, y)"},
		{"g(a\t\t,b ;c )", "g(a,b;c)"},
		{"   ", ""},
		{"    );", "    );"},
		{"\t\t  ,x", "\t\t  ,x"},
		{"  f(a , b )", "  f(a, b)"},
		{"already tidy", "already tidy"},
		{"", ""},
	}

	normalize := func(s string) string {
		scope := NewScope(WithEvaluator(stubEvaluator))
		for _, g := range normalizeGroups("spaces") {
			scope.AddGroup(g)
		}

		return scope.Apply(s)
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			once := normalize(tt.in)
			if once != tt.want {
				t.Errorf("normalize(%q) = %q, want %q", tt.in, once, tt.want)
			}

			if twice := normalize(once); twice != once {
				t.Errorf("normalize not idempotent: %q then %q", once, twice)
			}
		})
	}
}
