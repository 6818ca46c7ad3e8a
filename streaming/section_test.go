package streaming

import (
	"testing"
	"time"
)

func TestSectionBuilder(t *testing.T) {
	section := NewSection("hero").
		DependsOn("pricing").
		DependsOnAll("inventory", "reviews").
		WithFallback("<div>unavailable</div>").
		WithTimeout(2 * time.Second).
		Build()

	if section.Name != "hero" {
		t.Fatalf("Name = %q, want hero", section.Name)
	}
	wantDeps := []string{"pricing", "inventory", "reviews"}
	if len(section.Dependencies) != len(wantDeps) {
		t.Fatalf("Dependencies = %v, want %v", section.Dependencies, wantDeps)
	}
	for i, dep := range wantDeps {
		if section.Dependencies[i] != dep {
			t.Errorf("Dependencies[%d] = %q, want %q", i, section.Dependencies[i], dep)
		}
	}
	if section.Fallback != "<div>unavailable</div>" {
		t.Errorf("Fallback = %q", section.Fallback)
	}
	if section.Timeout != 2*time.Second {
		t.Errorf("Timeout = %v, want 2s", section.Timeout)
	}
}

func TestSectionBuilder_NoDependencies(t *testing.T) {
	section := NewSection("static").Build()
	if len(section.Dependencies) != 0 {
		t.Errorf("Dependencies = %v, want empty", section.Dependencies)
	}
}
