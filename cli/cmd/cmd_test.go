package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/google/go-cmp/cmp"
)

// writeFiles creates each named file under dir with its content.
func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}

		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestCollectTemplates(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.go.lg":        "",
		"sub/b.txt.lg":   "",
		"sub/c.txt":      "",
		"sub/deep/d.lg":  "",
		"explicit.other": "",
	})

	join := func(elem ...string) string { return filepath.Join(append([]string{dir}, elem...)...) }

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "directory walk",
			args: []string{dir},
			want: []string{join("a.go.lg"), join("sub", "b.txt.lg"), join("sub", "deep", "d.lg")},
		},
		{
			name: "explicit file without suffix",
			args: []string{join("explicit.other")},
			want: []string{join("explicit.other")},
		},
		{
			name: "duplicates keep first position",
			args: []string{join("sub", "b.txt.lg"), dir, join("sub", ".", "b.txt.lg")},
			want: []string{join("sub", "b.txt.lg"), join("a.go.lg"), join("sub", "deep", "d.lg")},
		},
		{
			name: "stdin collapses and goes last",
			args: []string{"-", join("a.go.lg"), "-"},
			want: []string{join("a.go.lg"), "-"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := collectTemplates(tt.args, ".lg")
			if err != nil {
				t.Fatalf("collectTemplates: %v", err)
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("collectTemplates (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCollectTemplates_Symlink(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.lg": ""})

	link := filepath.Join(dir, "link.lg")
	if err := os.Symlink(filepath.Join(dir, "a.lg"), link); err != nil {
		t.Skipf("symlink: %v", err)
	}

	got, err := collectTemplates([]string{dir}, ".lg")
	if err != nil {
		t.Fatal(err)
	}

	if len(got) != 1 {
		t.Errorf("collectTemplates = %q, want one template", got)
	}
}

func TestCollectTemplates_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := collectTemplates([]string{dir}, ".lg"); !errors.Is(err, ErrNoTemplates) {
		t.Errorf("empty directory: error = %v, want ErrNoTemplates", err)
	}

	if _, err := collectTemplates(nil, ".lg"); !errors.Is(err, ErrNoTemplates) {
		t.Errorf("no args: error = %v, want ErrNoTemplates", err)
	}

	missing := filepath.Join(dir, "missing.lg")
	if _, err := collectTemplates([]string{missing}, ".lg"); !errors.Is(err, ErrNoTemplates) {
		t.Errorf("missing file: error = %v, want ErrNoTemplates", err)
	}
}

func TestKongVar(t *testing.T) {
	var cli struct{}

	parser, err := kong.New(&cli, kong.Vars{"answer": "42"})
	if err != nil {
		t.Fatal(err)
	}

	ktx, err := parser.Parse(nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx := WithContext(t.Context(), ktx)

	if got := kongVar(ctx, "answer", "x"); got != "42" {
		t.Errorf("kongVar(answer) = %q", got)
	}

	if got := kongVar(ctx, "missing", "x"); got != "x" {
		t.Errorf("kongVar(missing) = %q", got)
	}

	if got := kongVar(context.Background(), "answer", "x"); got != "x" {
		t.Errorf("kongVar without kong context = %q", got)
	}
}
