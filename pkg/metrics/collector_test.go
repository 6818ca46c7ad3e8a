package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsCollector_RecordDependency(t *testing.T) {
	c := NewMetricsCollector()
	c.RecordDependency("pricing", "https://api.example.com/price", 50*time.Millisecond, 200, 1024, 1, true, "")
	c.RecordDependency("inventory", "https://api.example.com/stock", 10*time.Millisecond, 503, 0, 3, false, "http")

	deps := c.Dependencies()
	if len(deps) != 2 {
		t.Fatalf("expected 2 dependency metrics, got %d", len(deps))
	}

	first := deps[0]
	if first.Tag != "pricing" || first.Status != 200 || first.Bytes != 1024 || !first.Success {
		t.Errorf("unexpected first metric: %+v", first)
	}
	if first.Retried || first.RetryCount != 0 {
		t.Errorf("expected a single-attempt success to report no retries, got %+v", first)
	}

	second := deps[1]
	if !second.Retried || second.RetryCount != 2 {
		t.Errorf("expected 3 attempts to report RetryCount=2, got %+v", second)
	}
	if second.Success {
		t.Errorf("expected second metric to record failure")
	}
}

func TestMetricsCollector_RecordSection(t *testing.T) {
	c := NewMetricsCollector()
	c.RecordSection("hero", 1000, 1500, 256, false)
	c.RecordSection("reviews", 1500, 1500, 0, true)

	sections := c.Sections()
	if len(sections) != 2 {
		t.Fatalf("expected 2 section metrics, got %d", len(sections))
	}
	if sections[0].DurationUs != 500 {
		t.Errorf("expected DurationUs=500, got %d", sections[0].DurationUs)
	}
	if !sections[1].UsedFallback {
		t.Errorf("expected the second section to report UsedFallback=true")
	}
}

func TestMetricsCollector_Finalize(t *testing.T) {
	c := NewMetricsCollector()
	c.SetTimeToShell(10 * time.Millisecond)
	c.SetTimeToFirstSection(20 * time.Millisecond)
	c.RecordDependency("cms", "https://cms.example.com", 5*time.Millisecond, 200, 100, 1, true, "")

	result := c.Finalize(100*time.Millisecond, 200)

	if result.TimeToShellUs != 10000 {
		t.Errorf("TimeToShellUs = %d, want 10000", result.TimeToShellUs)
	}
	if result.TimeToFirstSectionUs != 20000 {
		t.Errorf("TimeToFirstSectionUs = %d, want 20000", result.TimeToFirstSectionUs)
	}
	if result.StatusCode != 200 {
		t.Errorf("StatusCode = %d, want 200", result.StatusCode)
	}
	if len(result.Dependencies) != 1 {
		t.Errorf("expected 1 dependency in the finalized snapshot, got %d", len(result.Dependencies))
	}
}

func TestMetricsCollector_ConcurrentRecordDependency(t *testing.T) {
	c := NewMetricsCollector()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RecordDependency("analytics", "https://a.example.com", time.Millisecond, 200, 1, 1, true, "")
		}()
	}
	wg.Wait()

	if got := len(c.Dependencies()); got != 20 {
		t.Fatalf("expected 20 concurrently recorded dependencies, got %d", got)
	}
}
