package replay

import "fmt"

// DiffType classifies one section-level difference between an
// expected and an actual replay.
type DiffType int

const (
	DiffMissing DiffType = iota
	DiffAdded
	DiffContentMismatch
)

func (d DiffType) String() string {
	switch d {
	case DiffMissing:
		return "Missing"
	case DiffAdded:
		return "Added"
	case DiffContentMismatch:
		return "ContentMismatch"
	default:
		return "Unknown"
	}
}

// SectionDiff is one section-level difference found by CompareSections.
type SectionDiff struct {
	Section  string
	Type     DiffType
	Expected string
	Actual   string
}

// MetricDiff is one metric-level difference between two recordings.
type MetricDiff struct {
	Metric      string
	Expected    string
	Actual      string
	PercentDiff *float64
}

// Diff is the result of comparing two recordings: one recorded as the
// baseline ("expected") and one captured from a fresh replay
// ("actual").
type Diff struct {
	Matches      bool
	SectionDiffs []SectionDiff
	MetricDiffs  []MetricDiff
}

// CompareSections diffs expected against actual in three passes:
// sections present in expected but missing from actual, sections
// present in actual but absent from expected, and sections present in
// both with differing content.
func CompareSections(expected, actual []RecordedSection) []SectionDiff {
	expectedByName := make(map[string]RecordedSection, len(expected))
	for _, s := range expected {
		expectedByName[s.Name] = s
	}
	actualByName := make(map[string]RecordedSection, len(actual))
	for _, s := range actual {
		actualByName[s.Name] = s
	}

	var diffs []SectionDiff

	for _, s := range expected {
		if _, ok := actualByName[s.Name]; !ok {
			diffs = append(diffs, SectionDiff{
				Section:  s.Name,
				Type:     DiffMissing,
				Expected: s.Content,
			})
		}
	}

	for _, s := range actual {
		if _, ok := expectedByName[s.Name]; !ok {
			diffs = append(diffs, SectionDiff{
				Section: s.Name,
				Type:    DiffAdded,
				Actual:  s.Content,
			})
		}
	}

	for _, exp := range expected {
		act, ok := actualByName[exp.Name]
		if !ok {
			continue
		}
		if act.Content != exp.Content {
			diffs = append(diffs, SectionDiff{
				Section:  exp.Name,
				Type:     DiffContentMismatch,
				Expected: exp.Content,
				Actual:   act.Content,
			})
		}
	}

	return diffs
}

// Compare diffs an expected recording against an actual one, covering
// both sections and the headline request metrics.
func Compare(expected, actual Recording) Diff {
	sectionDiffs := CompareSections(expected.Sections, actual.Sections)
	metricDiffs := compareMetrics(expected, actual)

	return Diff{
		Matches:      len(sectionDiffs) == 0 && len(metricDiffs) == 0,
		SectionDiffs: sectionDiffs,
		MetricDiffs:  metricDiffs,
	}
}

func compareMetrics(expected, actual Recording) []MetricDiff {
	var diffs []MetricDiff

	if expected.ResponseStatus != actual.ResponseStatus {
		diffs = append(diffs, MetricDiff{
			Metric:   "response_status",
			Expected: fmt.Sprintf("%d", expected.ResponseStatus),
			Actual:   fmt.Sprintf("%d", actual.ResponseStatus),
		})
	}

	if expected.Metrics == nil || actual.Metrics == nil {
		return diffs
	}

	diffs = append(diffs, percentMetricDiff("requests_total",
		float64(expected.Metrics.RequestsTotal), float64(actual.Metrics.RequestsTotal))...)
	diffs = append(diffs, percentMetricDiff("sections_rendered",
		float64(expected.Metrics.SectionsRendered), float64(actual.Metrics.SectionsRendered))...)
	diffs = append(diffs, percentMetricDiff("dependency_fetches",
		float64(expected.Metrics.DependencyFetches), float64(actual.Metrics.DependencyFetches))...)

	return diffs
}

func percentMetricDiff(name string, expected, actual float64) []MetricDiff {
	if expected == actual {
		return nil
	}

	diff := MetricDiff{
		Metric:   name,
		Expected: fmt.Sprintf("%v", expected),
		Actual:   fmt.Sprintf("%v", actual),
	}
	if expected != 0 {
		pct := ((actual - expected) / expected) * 100
		diff.PercentDiff = &pct
	}
	return []MetricDiff{diff}
}
