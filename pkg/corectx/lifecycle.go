package corectx

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// LifecyclePhase is a point-in-time event in a request's progression
// through the pipeline, delivered to any registered LifecycleObserver.
type LifecyclePhase struct {
	Kind    LifecyclePhaseKind
	Section string // set only for SectionSent
	Err     string // set only for Error
}

// LifecyclePhaseKind discriminates the phase kinds.
type LifecyclePhaseKind int

const (
	PhaseStart LifecyclePhaseKind = iota
	PhaseShellSent
	PhaseSectionSent
	PhaseCompletion
	PhaseError
)

func (k LifecyclePhaseKind) String() string {
	switch k {
	case PhaseStart:
		return "Start"
	case PhaseShellSent:
		return "ShellSent"
	case PhaseSectionSent:
		return "SectionSent"
	case PhaseCompletion:
		return "Completion"
	case PhaseError:
		return "Error"
	default:
		return "Unknown"
	}
}

func (p LifecyclePhase) String() string {
	switch p.Kind {
	case PhaseSectionSent:
		return fmt.Sprintf("SectionSent(%s)", p.Section)
	case PhaseError:
		return fmt.Sprintf("Error(%s)", p.Err)
	default:
		return p.Kind.String()
	}
}

// LifecycleObserver receives lifecycle phase transitions with the
// elapsed time since the request started.
type LifecycleObserver interface {
	OnPhase(phase LifecyclePhase, elapsed time.Duration)
}

// TimingContext records a monotonic start instant plus named marks.
// Marks used by the core: shell_start, shell_sent,
// section_<name>_start, section_<name>_sent, complete.
type TimingContext struct {
	mu    sync.RWMutex
	start time.Time
	marks map[string]time.Time
}

// NewTimingContext starts the clock now.
func NewTimingContext() *TimingContext {
	return &TimingContext{
		start: time.Now(),
		marks: make(map[string]time.Time),
	}
}

// Mark records a named instant.
func (t *TimingContext) Mark(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.marks[name] = time.Now()
}

// MarkSectionStart records that a section began rendering.
func (t *TimingContext) MarkSectionStart(section string) {
	t.Mark("section_" + section + "_start")
}

// MarkSectionSent records that a section's bytes were written.
func (t *TimingContext) MarkSectionSent(section string) {
	t.Mark("section_" + section + "_sent")
}

// Elapsed returns the time since the context was created.
func (t *TimingContext) Elapsed() time.Duration {
	return time.Since(t.start)
}

func (t *TimingContext) markSince(name string) (time.Duration, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m, ok := t.marks[name]
	if !ok {
		return 0, false
	}
	return m.Sub(t.start), true
}

// TimeToShell returns the duration from start to the shell being sent.
func (t *TimingContext) TimeToShell() (time.Duration, bool) {
	return t.markSince("shell_sent")
}

// TimeToFirstSection returns the minimum duration from start to any
// section's sent mark.
func (t *TimingContext) TimeToFirstSection() (time.Duration, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var min time.Duration
	found := false
	for name, at := range t.marks {
		if !strings.HasPrefix(name, "section_") || !strings.HasSuffix(name, "_sent") {
			continue
		}
		d := at.Sub(t.start)
		if !found || d < min {
			min = d
			found = true
		}
	}
	return min, found
}

// TotalTime returns the elapsed time since the context started.
func (t *TimingContext) TotalTime() time.Duration {
	return t.Elapsed()
}

// TimeToComplete returns the duration from start to the "complete"
// mark, recorded once the pipeline finishes streaming the response.
func (t *TimingContext) TimeToComplete() (time.Duration, bool) {
	return t.markSince("complete")
}

// SectionTiming is the start/sent/duration triple for one section.
type SectionTiming struct {
	Name     string
	Start    time.Duration
	Sent     time.Duration
	Duration time.Duration
}

// SectionTiming returns timing for a named section, if both its start
// and sent marks were recorded.
func (t *TimingContext) SectionTiming(section string) (SectionTiming, bool) {
	start, ok := t.markSince("section_" + section + "_start")
	if !ok {
		return SectionTiming{}, false
	}
	sent, ok := t.markSince("section_" + section + "_sent")
	if !ok {
		return SectionTiming{}, false
	}
	return SectionTiming{
		Name:     section,
		Start:    start,
		Sent:     sent,
		Duration: sent - start,
	}, true
}
