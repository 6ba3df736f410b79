package theme

import (
	"testing"

	"github.com/theirongolddev/kasboard/internal/model"
)

func TestNextCycles(t *testing.T) {
	name := KasGelap.Name
	seen := map[string]bool{}
	for range All {
		seen[name] = true
		name = Next(name)
	}
	if name != KasGelap.Name {
		t.Fatalf("cycle did not wrap, ended on %q", name)
	}
	if len(seen) != len(All) {
		t.Fatalf("visited %d themes, want %d", len(seen), len(All))
	}
	if Next("missing") != All[0].Name {
		t.Fatal("unknown theme should restart the cycle")
	}
}

func TestSourceColorsDistinct(t *testing.T) {
	for _, th := range All {
		if th.Name == Terminal.Name {
			continue
		}
		seen := map[string]model.Source{}
		for _, src := range model.Sources {
			c := string(th.SourceColor(src))
			if prev, ok := seen[c]; ok {
				t.Errorf("%s: %s and %s share color %s", th.Name, prev, src, c)
			}
			seen[c] = src
		}
	}
}

func TestByNameFallsBack(t *testing.T) {
	if ByName("nope").Name != KasGelap.Name {
		t.Fatal("expected default theme")
	}
	SetActive("nord")
	defer SetActive(KasGelap.Name)
	if Active.Name != "nord" {
		t.Fatalf("active = %q", Active.Name)
	}
}
