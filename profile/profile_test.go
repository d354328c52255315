package profile

import (
	"slices"
	"testing"
)

func TestProfiler_StartDisabled(t *testing.T) {
	for _, p := range []Profiler{
		{},
		{Path: t.TempDir()},
		{Mode: "bogus", Path: t.TempDir()},
	} {
		p.Start().Stop()
	}
}

func TestModes_Sorted(t *testing.T) {
	if m := Modes(); !slices.IsSorted(m) {
		t.Errorf("Modes() = %v, not sorted", m)
	}
}
