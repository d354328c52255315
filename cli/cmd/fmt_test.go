package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/linegen/lang"
)

const fmtTemplate = "x\n///=foo\n  ///<<<  i:xs\n///>>>\n"

func TestFmtSource_Render(t *testing.T) {
	tests := []struct {
		name   string
		format lang.DumpFormat
		check  func(t *testing.T, out string)
	}{
		{
			name:   "native",
			format: lang.DumpNative,
			check: func(t *testing.T, out string) {
				want := "x\n/// =foo\n  /// <<< i: xs\n/// >>>\n"
				if diff := cmp.Diff(want, out); diff != "" {
					t.Errorf("native (-want +got):\n%s", diff)
				}
			},
		},
		{
			name:   "json",
			format: lang.DumpJSON,
			check: func(t *testing.T, out string) {
				var dump lang.TemplateDump
				if err := json.Unmarshal([]byte(out), &dump); err != nil {
					t.Fatalf("Unmarshal: %v\n%s", err, out)
				}

				if len(dump.Nodes) != 3 || dump.Nodes[2].Kind != "block" {
					t.Errorf("json nodes = %+v", dump.Nodes)
				}
			},
		},
		{
			name:   "yaml",
			format: lang.DumpYAML,
			check: func(t *testing.T, out string) {
				var dump lang.TemplateDump
				if err := yaml.Unmarshal([]byte(out), &dump); err != nil {
					t.Fatalf("Unmarshal: %v\n%s", err, out)
				}

				if len(dump.Nodes) != 3 || dump.Nodes[1].Label != "match" {
					t.Errorf("yaml nodes = %+v", dump.Nodes)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := FmtSource{Source: stdinSource}

			var buf bytes.Buffer
			if err := src.render(t.Context(), strings.NewReader(fmtTemplate), &buf, tt.format, 2); err != nil {
				t.Fatalf("render: %v", err)
			}

			tt.check(t, buf.String())
		})
	}
}

func TestNative_Write(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.lg")
	writeFiles(t, dir, map[string]string{"a.lg": fmtTemplate})

	native := &Native{FmtSource: FmtSource{Source: path}, Write: true}
	if err := native.Run(t.Context()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got, want := readFile(t, path), "x\n/// =foo\n  /// <<< i: xs\n/// >>>\n"; got != want {
		t.Errorf("rewritten = %q, want %q", got, want)
	}
}

func TestFmtSource_Errors(t *testing.T) {
	src := FmtSource{Source: filepath.Join(t.TempDir(), "missing.lg")}
	if err := src.render(t.Context(), nil, &bytes.Buffer{}, lang.DumpNative, 0); !errors.Is(err, lang.ErrReadInput) {
		t.Errorf("missing file: error = %v, want ErrReadInput", err)
	}

	src = FmtSource{Source: stdinSource, Charset: "bogus-charset"}
	if err := src.render(t.Context(), strings.NewReader(""), &bytes.Buffer{}, lang.DumpNative, 0); !errors.Is(err, ErrCharset) {
		t.Errorf("bad charset: error = %v, want ErrCharset", err)
	}
}
