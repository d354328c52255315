package repl

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWordBounds(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		cursor    int
		wantWord  string
		wantStart int
		wantEnd   int
	}{
		{"simple", "foo", 3, "foo", 0, 3},
		{"dot_separated", "path.ca", 7, "ca", 5, 7},
		{"after_plus", "a + fo", 6, "fo", 4, 6},
		{"after_paren", "upper(fo", 8, "fo", 6, 8},
		{"after_comma", "join(a, fo", 10, "fo", 8, 10},
		{"in_ternary", "x ? fo", 6, "fo", 4, 6},
		{"empty_at_boundary", "a + ", 4, "", 4, 4},
		{"mid_word", "foobar", 3, "foobar", 0, 6},
		{"after_trigger", "///> cou", 8, "cou", 5, 8},
		{"after_block_label", "///<<< i: na", 12, "na", 10, 12},
		{"template_braces", "///->x{{na", 10, "na", 8, 10},
		{"empty_after_dot", "path.", 5, "", 5, 5},
		{"cursor_past_end", "foo", 9, "foo", 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, start, end := wordBounds(tt.input, tt.cursor)
			if word != tt.wantWord || start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("wordBounds(%q, %d) = (%q, %d, %d), want (%q, %d, %d)",
					tt.input, tt.cursor, word, start, end,
					tt.wantWord, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestParentPath(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wordStart int
		want      string
	}{
		{"top_level", "fo", 0, ""},
		{"simple_chain", "path.", 5, "path"},
		{"deep_chain", "a.b.c.", 6, "a.b.c"},
		{"after_operator", "x + file.", 9, "file"},
		{"after_paren", "(target.", 8, "target"},
		{"after_trigger", "///> inflect.", 13, "inflect"},
		{"no_chain", "a + ", 4, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parentPath(tt.input, tt.wordStart); got != tt.want {
				t.Errorf("parentPath(%q, %d) = %q, want %q",
					tt.input, tt.wordStart, got, tt.want)
			}
		})
	}
}

func TestCommandBody(t *testing.T) {
	tests := []struct {
		input  string
		want   int
		wantOK bool
	}{
		{"plain text", 0, false},
		{"///> x", 3, true},
		{"  ///=foo", 5, true},
		{"\t///", 4, true},
		{"x ///> y", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := commandBody(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("commandBody(%q) = (%d, %v), want (%d, %v)",
					tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestLineCandidates(t *testing.T) {
	s := NewSession(map[string]any{"greeting": "hi", "count": 2}, nil, testLogger())

	t.Run("plain_text", func(t *testing.T) {
		if got := lineCandidates(s, "hello gre", 6, ""); got != nil {
			t.Errorf("lineCandidates() = %v, want nil", got)
		}
	})

	t.Run("first_word_includes_directives", func(t *testing.T) {
		got := lineCandidates(s, "/// fil", 4, "")

		for _, want := range []string{"filename", "normalize", "greeting", "path", "len"} {
			if !slices.Contains(got, want) {
				t.Errorf("lineCandidates() missing %q", want)
			}
		}
	})

	t.Run("later_word_excludes_directives", func(t *testing.T) {
		got := lineCandidates(s, "///> x + gr", 9, "")

		if slices.Contains(got, "filename") {
			t.Errorf("lineCandidates() offers directive after first word")
		}

		if !slices.Contains(got, "greeting") || !slices.Contains(got, "count") {
			t.Errorf("lineCandidates() = %v, want session names", got)
		}
	})

	t.Run("sorted_unique", func(t *testing.T) {
		got := lineCandidates(s, "///> ", 5, "")

		if !slices.IsSorted(got) {
			t.Errorf("lineCandidates() not sorted")
		}

		if len(slices.Compact(slices.Clone(got))) != len(got) {
			t.Errorf("lineCandidates() has duplicates")
		}
	})

	t.Run("members", func(t *testing.T) {
		got := lineCandidates(s, "///> path.", 10, "path")
		want := []string{"abs", "base", "cat", "dir", "ext", "rel"}

		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("lineCandidates() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("before_trigger", func(t *testing.T) {
		if got := lineCandidates(s, "  ///> x", 1, ""); got != nil {
			t.Errorf("lineCandidates() = %v, want nil", got)
		}
	})
}

func TestIsFunction(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"len", true},
		{"upper", true},
		{"set", true},
		{"lookup", true},
		{"title", true},
		{"cwd", true},
		{"path", false},
		{"hostname", false},
		{"greeting", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isFunction(tt.name); got != tt.want {
				t.Errorf("isFunction(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}
