package metrics

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func TestRegistry_ObserveRequest(t *testing.T) {
	reg := NewRegistry()
	reg.ObserveRequest("success")
	reg.ObserveRequest("success")
	reg.ObserveRequest("error")

	families, err := reg.Gatherer().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	found := false
	for _, fam := range families {
		if fam.GetName() != "corestream_requests_total" {
			continue
		}
		found = true
		var total float64
		for _, m := range fam.Metric {
			total += m.GetCounter().GetValue()
		}
		if total != 3 {
			t.Errorf("total requests = %v, want 3", total)
		}
	}
	if !found {
		t.Fatal("corestream_requests_total metric not registered")
	}
}

func TestRegistry_ObserveDependencyFetch(t *testing.T) {
	reg := NewRegistry()
	reg.ObserveDependencyFetch("pricing", "success", 12*time.Millisecond)

	families, err := reg.Gatherer().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	var sawCounter, sawHistogram bool
	for _, fam := range families {
		switch fam.GetName() {
		case "corestream_dependency_fetches_total":
			sawCounter = len(fam.Metric) > 0
		case "corestream_dependency_latency_seconds":
			sawHistogram = len(fam.Metric) > 0
		}
	}
	if !sawCounter {
		t.Error("dependency fetch counter not recorded")
	}
	if !sawHistogram {
		t.Error("dependency latency histogram not recorded")
	}
}

func TestRegistry_ObserveCacheLookup(t *testing.T) {
	reg := NewRegistry()
	reg.ObserveCacheLookup("HIT")
	reg.ObserveCacheLookup("MISS")

	families, _ := reg.Gatherer().Gather()
	var fam *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "corestream_fragment_cache_total" {
			fam = f
		}
	}
	if fam == nil {
		t.Fatal("corestream_fragment_cache_total not registered")
	}
	if len(fam.Metric) != 2 {
		t.Errorf("distinct label combos = %d, want 2", len(fam.Metric))
	}
}

func TestRegistry_ShellAndSectionLatency(t *testing.T) {
	reg := NewRegistry()
	reg.ObserveShellLatency(5 * time.Millisecond)
	reg.ObserveSectionLatency("hero", 8*time.Millisecond)

	families, _ := reg.Gatherer().Gather()
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	if !names["corestream_shell_latency_seconds"] {
		t.Error("shell latency histogram not registered")
	}
	if !names["corestream_section_latency_seconds"] {
		t.Error("section latency histogram not registered")
	}
}
