package dependency

import (
	"testing"
	"time"
)

func TestWellKnownTagDefaults(t *testing.T) {
	tests := []struct {
		tag        Tag
		timeout    time.Duration
		maxRetries int
		concurrent int
		critical   bool
	}{
		{Search, 500 * time.Millisecond, 1, 2, true},
		{Pricing, 200 * time.Millisecond, 2, 3, true},
		{Inventory, 150 * time.Millisecond, 2, 3, true},
		{Profile, 300 * time.Millisecond, 1, 3, false},
		{Cms, 1000 * time.Millisecond, 1, 3, false},
		{Recommendations, 400 * time.Millisecond, 1, 3, false},
		{Reviews, 500 * time.Millisecond, 1, 3, false},
		{Ads, 200 * time.Millisecond, 0, 3, false},
		{Analytics, 100 * time.Millisecond, 0, 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.tag.Name(), func(t *testing.T) {
			if got := tt.tag.DefaultTimeout(); got != tt.timeout {
				t.Errorf("DefaultTimeout() = %v, want %v", got, tt.timeout)
			}
			if got := tt.tag.DefaultMaxRetries(); got != tt.maxRetries {
				t.Errorf("DefaultMaxRetries() = %d, want %d", got, tt.maxRetries)
			}
			if got := tt.tag.DefaultConcurrency(); got != tt.concurrent {
				t.Errorf("DefaultConcurrency() = %d, want %d", got, tt.concurrent)
			}
			if got := tt.tag.IsCritical(); got != tt.critical {
				t.Errorf("IsCritical() = %v, want %v", got, tt.critical)
			}
		})
	}
}

func TestCustomTagUsesCustomDefaultRow(t *testing.T) {
	custom := Custom("warehouse-events")
	if custom.Name() != "warehouse-events" {
		t.Fatalf("expected Name() to round-trip, got %q", custom.Name())
	}

	want := Metadata{DefaultTimeout: 500 * time.Millisecond, DefaultMaxRetries: 1, DefaultConcurrency: 3, IsCritical: false}
	if got := custom.Metadata(); got != want {
		t.Fatalf("Custom(_).Metadata() = %+v, want %+v", got, want)
	}
}

func TestUnknownNameFallsBackToCustomDefault(t *testing.T) {
	// A tag constructed directly (rather than via Custom) with an
	// unrecognized name must still fall back to the same row, since
	// Tag carries no flag distinguishing "well-known" from "custom" —
	// only its name decides the lookup.
	unknown := Tag{}
	if got, want := unknown.Metadata(), customDefault; got != want {
		t.Fatalf("zero-value Tag.Metadata() = %+v, want %+v", got, want)
	}
}

func TestAllTagsIsWellKnownSetInTableOrder(t *testing.T) {
	want := []Tag{Search, Pricing, Inventory, Profile, Cms, Recommendations, Reviews, Ads, Analytics}
	got := AllTags()
	if len(got) != len(want) {
		t.Fatalf("expected %d tags, got %d", len(want), len(got))
	}
	for i, tag := range want {
		if got[i] != tag {
			t.Errorf("AllTags()[%d] = %v, want %v", i, got[i], tag)
		}
	}
}
