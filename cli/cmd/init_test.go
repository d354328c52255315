package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
	"github.com/google/go-cmp/cmp"
)

type initTestCLI struct {
	Level  string `default:"info"`
	Empty  string
	Secret string `default:"x" hidden:""`
	Pprof  string `default:"cpu"`

	Gen struct {
		Suffix string   `default:".lg"`
		Jobs   int      `default:"4"`
		Var    []string `short:"D"`
	} `cmd:""`

	Fmt struct {
		JSON struct {
			Indent int `default:"2"`
		} `cmd:""`
	} `cmd:""`

	Init Init `cmd:""`
}

// parseInit parses "init" against initTestCLI with the config path var set.
func parseInit(t *testing.T, confPath string, args ...string) context.Context {
	t.Helper()

	var cli initTestCLI

	parser, err := kong.New(&cli, kong.Vars{ConfigIdentifier: confPath})
	if err != nil {
		t.Fatal(err)
	}

	ktx, err := parser.Parse(append([]string{"init"}, args...))
	if err != nil {
		t.Fatal(err)
	}

	return WithContext(t.Context(), ktx)
}

func TestBuildConfig(t *testing.T) {
	ctx := parseInit(t, filepath.Join(t.TempDir(), "config.yaml"))

	got := buildConfig(kongContextFrom(ctx))

	want := yaml.MapSlice{
		{Key: ConfigIdentifier, Value: yaml.MapSlice{{Key: "level", Value: "info"}}},
		{Key: "gen", Value: yaml.MapSlice{
			{Key: "suffix", Value: ".lg"},
			{Key: "jobs", Value: 4},
		}},
		{Key: "fmt json", Value: yaml.MapSlice{{Key: "indent", Value: 2}}},
		{Key: "init", Value: yaml.MapSlice{{Key: "force", Value: false}}},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("buildConfig (-want +got):\n%s", diff)
	}
}

func TestInitRun(t *testing.T) {
	tests := []struct {
		name    string
		force   bool
		exists  bool
		wantErr error
	}{
		{name: "create_new_config"},
		{name: "overwrite_existing_with_force", force: true, exists: true},
		{name: "fail_without_force", exists: true, wantErr: ErrFileExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			confPath := filepath.Join(t.TempDir(), "config.yaml")

			if tt.exists {
				if err := os.WriteFile(confPath, []byte("existing: true\n"), 0o600); err != nil {
					t.Fatal(err)
				}
			}

			ctx := parseInit(t, confPath)

			err := (&Init{Force: tt.force}).Run(ctx)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Run() error = %v, want %v", err, tt.wantErr)
				}

				if got := readFile(t, confPath); got != "existing: true\n" {
					t.Errorf("existing file modified: %q", got)
				}

				return
			}

			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			var conf map[string]map[string]any
			if err := yaml.Unmarshal([]byte(readFile(t, confPath)), &conf); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}

			if conf[ConfigIdentifier]["level"] != "info" {
				t.Errorf("config section = %v", conf[ConfigIdentifier])
			}

			if conf["gen"]["suffix"] != ".lg" {
				t.Errorf("gen section = %v", conf["gen"])
			}
		})
	}
}

func TestSectionName(t *testing.T) {
	ctx := parseInit(t, "unused")
	ktx := kongContextFrom(ctx)

	names := map[string]bool{}

	var visit func(n *kong.Node)

	visit = func(n *kong.Node) {
		for _, c := range n.Children {
			names[SectionName(c)] = true
			visit(c)
		}
	}

	visit(ktx.Model.Node)

	for _, want := range []string{"gen", "fmt", "fmt json", "init"} {
		if !names[want] {
			t.Errorf("missing section %q in %v", want, names)
		}
	}

	if got := SectionName(ktx.Model.Node); got != "" {
		t.Errorf("SectionName(app) = %q, want empty", got)
	}
}

func TestConfigValue(t *testing.T) {
	type level string

	tests := []struct {
		in   any
		want any
	}{
		{nil, nil},
		{"", nil},
		{[]string{}, nil},
		{true, true},
		{3, 3},
		{"s", "s"},
		{[]string{"a"}, []string{"a"}},
		{level("debug"), "debug"},
	}

	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, configValue(tt.in)); diff != "" {
			t.Errorf("configValue(%#v) (-want +got):\n%s", tt.in, diff)
		}
	}
}
