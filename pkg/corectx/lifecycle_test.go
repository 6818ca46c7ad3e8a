package corectx

import (
	"testing"
	"time"
)

func TestTimingContext_TimeToShellAndFirstSection(t *testing.T) {
	tc := NewTimingContext()

	if _, ok := tc.TimeToShell(); ok {
		t.Fatalf("expected TimeToShell to report absent before a mark is recorded")
	}

	time.Sleep(2 * time.Millisecond)
	tc.Mark("shell_sent")

	shellElapsed, ok := tc.TimeToShell()
	if !ok {
		t.Fatalf("expected TimeToShell to report present after the mark")
	}
	if shellElapsed <= 0 {
		t.Fatalf("expected a positive TimeToShell, got %v", shellElapsed)
	}

	tc.MarkSectionStart("hero")
	time.Sleep(2 * time.Millisecond)
	tc.MarkSectionSent("hero")

	tc.MarkSectionStart("reviews")
	time.Sleep(1 * time.Millisecond)
	tc.MarkSectionSent("reviews")

	first, ok := tc.TimeToFirstSection()
	if !ok {
		t.Fatalf("expected TimeToFirstSection to report present")
	}
	if first <= 0 {
		t.Fatalf("expected a positive TimeToFirstSection, got %v", first)
	}
}

func TestTimingContext_SectionTiming(t *testing.T) {
	tc := NewTimingContext()

	if _, ok := tc.SectionTiming("hero"); ok {
		t.Fatalf("expected SectionTiming to report absent before any marks")
	}

	tc.MarkSectionStart("hero")
	time.Sleep(time.Millisecond)
	tc.MarkSectionSent("hero")

	timing, ok := tc.SectionTiming("hero")
	if !ok {
		t.Fatalf("expected SectionTiming to report present")
	}
	if timing.Name != "hero" {
		t.Fatalf("Name = %q, want hero", timing.Name)
	}
	if timing.Duration != timing.Sent-timing.Start {
		t.Fatalf("Duration should equal Sent - Start")
	}
	if timing.Duration < 0 {
		t.Fatalf("expected a non-negative duration, got %v", timing.Duration)
	}
}

func TestTimingContext_TimeToComplete(t *testing.T) {
	tc := NewTimingContext()
	if _, ok := tc.TimeToComplete(); ok {
		t.Fatalf("expected TimeToComplete to report absent before completion")
	}
	tc.Mark("complete")
	if _, ok := tc.TimeToComplete(); !ok {
		t.Fatalf("expected TimeToComplete to report present after the complete mark")
	}
}

func TestLifecyclePhaseKind_String(t *testing.T) {
	tests := []struct {
		kind LifecyclePhaseKind
		want string
	}{
		{PhaseStart, "Start"},
		{PhaseShellSent, "ShellSent"},
		{PhaseSectionSent, "SectionSent"},
		{PhaseCompletion, "Completion"},
		{PhaseError, "Error"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("%v.String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestLifecyclePhase_String(t *testing.T) {
	section := LifecyclePhase{Kind: PhaseSectionSent, Section: "hero"}
	if got, want := section.String(), "SectionSent(hero)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	errPhase := LifecyclePhase{Kind: PhaseError, Err: "boom"}
	if got, want := errPhase.String(), "Error(boom)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

type recordingObserver struct {
	phases []LifecyclePhase
}

func (r *recordingObserver) OnPhase(phase LifecyclePhase, elapsed time.Duration) {
	r.phases = append(r.phases, phase)
}

func TestLifecycleObserver_ReceivesPhasesInOrder(t *testing.T) {
	obs := &recordingObserver{}
	var observers []LifecycleObserver
	observers = append(observers, obs)

	sequence := []LifecyclePhase{
		{Kind: PhaseStart},
		{Kind: PhaseShellSent},
		{Kind: PhaseSectionSent, Section: "hero"},
		{Kind: PhaseCompletion},
	}
	for _, phase := range sequence {
		for _, o := range observers {
			o.OnPhase(phase, 0)
		}
	}

	if len(obs.phases) != len(sequence) {
		t.Fatalf("expected %d phases recorded, got %d", len(sequence), len(obs.phases))
	}
	for i, phase := range sequence {
		if obs.phases[i] != phase {
			t.Errorf("phase %d = %+v, want %+v", i, obs.phases[i], phase)
		}
	}
}
