package streaming

import (
	"strings"
	"testing"
)

func TestOrderingStrategy_AllowsOutOfOrder(t *testing.T) {
	cases := []struct {
		strategy OrderingStrategy
		want     bool
	}{
		{OrderingStrict, false},
		{OrderingOutOfOrder, true},
		{OrderingIndependent, true},
	}
	for _, tc := range cases {
		if got := tc.strategy.AllowsOutOfOrder(); got != tc.want {
			t.Errorf("AllowsOutOfOrder(%v) = %v, want %v", tc.strategy, got, tc.want)
		}
	}
}

func TestOrderingStrategy_NeedsReorderScript(t *testing.T) {
	cases := []struct {
		strategy OrderingStrategy
		want     bool
	}{
		{OrderingStrict, false},
		{OrderingOutOfOrder, true},
		{OrderingIndependent, false},
	}
	for _, tc := range cases {
		if got := tc.strategy.NeedsReorderScript(); got != tc.want {
			t.Errorf("NeedsReorderScript(%v) = %v, want %v", tc.strategy, got, tc.want)
		}
	}
}

func TestOrderingStrategy_DefaultIsStrict(t *testing.T) {
	var zero OrderingStrategy
	if zero != OrderingStrict {
		t.Errorf("zero value = %v, want OrderingStrict", zero)
	}
}

func TestGenerateReorderScript(t *testing.T) {
	script := GenerateReorderScript([]string{"hero", "pricing"})

	for _, want := range []string{
		`"hero", "pricing"`,
		"data-section",
		"DOMContentLoaded",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("GenerateReorderScript() missing %q", want)
		}
	}
}

func TestWrapSectionForReorder(t *testing.T) {
	got := WrapSectionForReorder("hero", "<div>content</div>")
	want := `<div data-section="hero"><div>content</div></div>`
	if got != want {
		t.Errorf("WrapSectionForReorder() = %q, want %q", got, want)
	}
}
