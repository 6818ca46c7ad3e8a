package scheduler

import (
	"testing"

	"github.com/edgerender/corestream/streaming"
)

func sectionNamed(name string, deps ...string) streaming.Section {
	return streaming.NewSection(name).DependsOnAll(deps...).Build()
}

func TestScheduler_ReadySections_InsertionOrder(t *testing.T) {
	s := NewScheduler()
	s.AddSection(sectionNamed("c"))
	s.AddSection(sectionNamed("a"))
	s.AddSection(sectionNamed("b"))

	ready := s.ReadySections()
	want := []string{"c", "a", "b"}
	if len(ready) != len(want) {
		t.Fatalf("ReadySections() = %v, want %v", ready, want)
	}
	for i, name := range want {
		if ready[i].Name != name {
			t.Errorf("ReadySections()[%d] = %q, want %q", i, ready[i].Name, name)
		}
	}
}

func TestScheduler_ReadySections_WaitsOnDependencies(t *testing.T) {
	s := NewScheduler()
	s.AddSection(sectionNamed("hero"))
	s.AddSection(sectionNamed("pricing", "inventory"))

	ready := s.ReadySections()
	if len(ready) != 1 || ready[0].Name != "hero" {
		t.Fatalf("ReadySections() = %v, want only hero", ready)
	}

	s.CompleteDependency("inventory")
	ready = s.ReadySections()
	names := map[string]bool{}
	for _, r := range ready {
		names[r.Name] = true
	}
	if !names["pricing"] {
		t.Error("pricing should be ready once its dependency completes")
	}
}

func TestScheduler_ReadySections_ExcludesNonPending(t *testing.T) {
	s := NewScheduler()
	s.AddSection(sectionNamed("hero"))
	s.StartSection("hero")

	if ready := s.ReadySections(); len(ready) != 0 {
		t.Errorf("ReadySections() = %v, want empty once in progress", ready)
	}
}

func TestScheduler_LifecycleTransitions(t *testing.T) {
	s := NewScheduler()
	s.AddSection(sectionNamed("hero"))

	status, ok := s.Status("hero")
	if !ok || status != StatusPending {
		t.Fatalf("initial status = %v, ok=%v, want Pending", status, ok)
	}

	s.StartSection("hero")
	if status, _ := s.Status("hero"); status != StatusInProgress {
		t.Errorf("status after StartSection = %v, want InProgress", status)
	}

	s.CompleteSection("hero")
	if status, _ := s.Status("hero"); status != StatusCompleted {
		t.Errorf("status after CompleteSection = %v, want Completed", status)
	}
}

func TestScheduler_FailSection(t *testing.T) {
	s := NewScheduler()
	s.AddSection(sectionNamed("hero"))
	s.FailSection("hero", "upstream timeout")

	status, _ := s.Status("hero")
	if status != StatusFailed {
		t.Fatalf("status = %v, want Failed", status)
	}
	sec := s.sections["hero"]
	if sec.Error != "upstream timeout" {
		t.Errorf("Error = %q, want %q", sec.Error, "upstream timeout")
	}
}

func TestScheduler_SkipSection(t *testing.T) {
	s := NewScheduler()
	s.AddSection(sectionNamed("ads"))
	s.SkipSection("ads")

	status, _ := s.Status("ads")
	if status != StatusSkipped {
		t.Errorf("status = %v, want Skipped", status)
	}
}

func TestScheduler_PendingSections(t *testing.T) {
	s := NewScheduler()
	s.AddSection(sectionNamed("a"))
	s.AddSection(sectionNamed("b"))
	s.CompleteSection("a")

	pending := s.PendingSections()
	if len(pending) != 1 || pending[0].Name != "b" {
		t.Errorf("PendingSections() = %v, want only b", pending)
	}
}

func TestScheduler_IsComplete(t *testing.T) {
	s := NewScheduler()
	s.AddSection(sectionNamed("a"))
	s.AddSection(sectionNamed("b"))

	if s.IsComplete() {
		t.Fatal("IsComplete() = true before any section finished")
	}

	s.CompleteSection("a")
	s.FailSection("b", "boom")

	if !s.IsComplete() {
		t.Error("IsComplete() = false, want true once all sections are terminal")
	}
}

func TestScheduler_StatusUnknownSection(t *testing.T) {
	s := NewScheduler()
	if _, ok := s.Status("missing"); ok {
		t.Error("Status() for unknown section should report ok=false")
	}
}

func TestScheduler_AddSection_DuplicateIgnored(t *testing.T) {
	s := NewScheduler()
	s.AddSection(sectionNamed("hero"))
	s.StartSection("hero")
	s.AddSection(sectionNamed("hero")) // should not reset status

	status, _ := s.Status("hero")
	if status != StatusInProgress {
		t.Errorf("re-adding an existing section changed status to %v", status)
	}
	if len(s.order) != 1 {
		t.Errorf("order = %v, want single entry for duplicate add", s.order)
	}
}
