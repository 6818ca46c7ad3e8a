package streaming

import (
	"bytes"
	"errors"
	"testing"

	"github.com/edgerender/corestream/pkg/corectx"
)

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestSink_ShellFirstEnforcement(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(&buf, corectx.NewTimingContext())

	if err := sink.SendSection("hero", "<div>hero</div>"); err == nil {
		t.Fatal("SendSection before shell: want error, got nil")
	} else if serr, ok := err.(*Error); !ok || serr.Kind != ErrShellNotSent {
		t.Fatalf("SendSection before shell: want ErrShellNotSent, got %v", err)
	}

	if err := sink.SendShell("<html><body>"); err != nil {
		t.Fatalf("SendShell: %v", err)
	}

	if err := sink.SendShell("<html><body>"); err == nil {
		t.Fatal("second SendShell: want error, got nil")
	} else if serr, ok := err.(*Error); !ok || serr.Kind != ErrShellAlreadySent {
		t.Fatalf("second SendShell: want ErrShellAlreadySent, got %v", err)
	}

	if err := sink.SendSection("hero", "<div>hero</div>"); err != nil {
		t.Fatalf("SendSection after shell: %v", err)
	}

	if err := sink.Complete(); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if err := sink.SendSection("late", "<div>late</div>"); err == nil {
		t.Fatal("SendSection after complete: want error, got nil")
	} else if serr, ok := err.(*Error); !ok || serr.Kind != ErrSinkCompleted {
		t.Fatalf("SendSection after complete: want ErrSinkCompleted, got %v", err)
	}

	want := "<html><body><div>hero</div>"
	if buf.String() != want {
		t.Errorf("buffer = %q, want %q", buf.String(), want)
	}
}

func TestSink_SectionsSentOrder(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(&buf, corectx.NewTimingContext())
	_ = sink.SendShell("<shell>")
	_ = sink.SendSection("a", "A")
	_ = sink.SendSection("b", "B")

	got := sink.SectionsSent()
	want := []string{"a", "b"}
	if len(got) != len(want) {
		t.Fatalf("SectionsSent = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SectionsSent[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSink_SectionsSent_ReturnsCopy(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(&buf, corectx.NewTimingContext())
	_ = sink.SendShell("<shell>")
	_ = sink.SendSection("a", "A")

	got := sink.SectionsSent()
	got[0] = "mutated"

	if sink.SectionsSent()[0] != "a" {
		t.Error("SectionsSent leaked internal slice to caller mutation")
	}
}

func TestSink_WriteErrorWrapped(t *testing.T) {
	sink := NewSink(failingWriter{}, corectx.NewTimingContext())
	err := sink.SendShell("<shell>")
	if err == nil {
		t.Fatal("want error from failing writer")
	}
	serr, ok := err.(*Error)
	if !ok || serr.Kind != ErrWrite {
		t.Fatalf("want ErrWrite, got %v", err)
	}
}

func TestSink_Phase(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(&buf, corectx.NewTimingContext())

	if sink.Phase().Kind != corectx.PhaseStart {
		t.Errorf("initial phase = %v, want PhaseStart", sink.Phase().Kind)
	}

	_ = sink.SendShell("<shell>")
	if sink.Phase().Kind != corectx.PhaseShellSent {
		t.Errorf("phase after shell = %v, want PhaseShellSent", sink.Phase().Kind)
	}

	_ = sink.SendSection("hero", "<div>")
	phase := sink.Phase()
	if phase.Kind != corectx.PhaseSectionSent || phase.Section != "hero" {
		t.Errorf("phase after section = %+v, want PhaseSectionSent/hero", phase)
	}

	_ = sink.Complete()
	if sink.Phase().Kind != corectx.PhaseCompletion {
		t.Errorf("phase after complete = %v, want PhaseCompletion", sink.Phase().Kind)
	}
}
