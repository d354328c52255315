package repl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHistory_AddPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)
	h := NewHistory(path)

	for _, e := range []HistoryEntry{
		{"  ///> x", modeLine},
		{"show", modeCtrl},
		{"plain", modeLine},
	} {
		if err := h.Add(e.Line, e.Mode); err != nil {
			t.Fatalf("Add(%q) error = %v", e.Line, err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if want := "L:  ///> x\nC:show\nL:plain\n"; string(data) != want {
		t.Errorf("history file = %q, want %q", data, want)
	}

	reloaded := NewHistory(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if diff := cmp.Diff(h.Entries(), reloaded.Entries(), cmp.AllowUnexported(HistoryEntry{})); diff != "" {
		t.Errorf("reloaded entries mismatch (-want +got):\n%s", diff)
	}
}

func TestHistory_DuplicateMovesToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)
	h := NewHistory(path)

	_ = h.Add("a", modeLine)
	_ = h.Add("b", modeLine)
	_ = h.Add("a", modeCtrl)
	_ = h.Add("a", modeLine)
	_ = h.Add("a", modeLine)

	want := []HistoryEntry{{"b", modeLine}, {"a", modeCtrl}, {"a", modeLine}}
	if diff := cmp.Diff(want, h.Entries(), cmp.AllowUnexported(HistoryEntry{})); diff != "" {
		t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if want := "L:b\nC:a\nL:a\n"; string(data) != want {
		t.Errorf("history file = %q, want %q", data, want)
	}
}

func TestHistory_SkipsBlank(t *testing.T) {
	h := NewHistory("")

	_ = h.Add("", modeLine)
	_ = h.Add("   ", modeLine)
	_ = h.Add("x\n", modeLine)

	if h.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", h.Len())
	}

	e, err := h.Entry(0)
	if err != nil || e.Line != "x" {
		t.Errorf("Entry(0) = %+v, %v; want x", e, err)
	}
}

func TestHistory_Entry(t *testing.T) {
	h := NewHistory("")
	_ = h.Add("only", modeCtrl)

	for _, i := range []int{-1, 1} {
		if _, err := h.Entry(i); err != ErrOutOfBounds {
			t.Errorf("Entry(%d) error = %v, want ErrOutOfBounds", i, err)
		}
	}
}

func TestHistory_LoadMissing(t *testing.T) {
	h := NewHistory(filepath.Join(t.TempDir(), "missing"))
	if err := h.Load(); err != nil {
		t.Errorf("Load() error = %v, want nil", err)
	}

	if h.Len() != 0 {
		t.Errorf("Len() = %d, want 0", h.Len())
	}
}

func TestParseHistoryLine(t *testing.T) {
	tests := []struct {
		line   string
		want   HistoryEntry
		wantOK bool
	}{
		{"L:hello", HistoryEntry{"hello", modeLine}, true},
		{"C:quit", HistoryEntry{"quit", modeCtrl}, true},
		{"legacy", HistoryEntry{"legacy", modeLine}, true},
		{"  ", HistoryEntry{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := parseHistoryLine(tt.line)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("parseHistoryLine(%q) = (%+v, %v), want (%+v, %v)",
					tt.line, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
