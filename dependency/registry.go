// Package dependency is the Dependency Tag Registry: pure data mapping
// a semantic fetch category to its default timeout, retry, and
// concurrency policy.
//
// Grounded on original_source/crates/edge-data/src/dependency.rs,
// cross-checked against spec.md §4.2's table line-by-line. Follows the
// same constants-table-plus-metadata-lookup shape as the teacher's
// pkg/pubsub/topics.go (AllTopics/TopicMetadata/GetTopicMetadata).
package dependency

import "time"

// Tag is a semantic category for an outbound fetch.
type Tag struct {
	name string
}

var (
	Search          = Tag{"search"}
	Pricing         = Tag{"pricing"}
	Inventory       = Tag{"inventory"}
	Profile         = Tag{"profile"}
	Cms             = Tag{"cms"}
	Recommendations = Tag{"recommendations"}
	Reviews         = Tag{"reviews"}
	Ads             = Tag{"ads"}
	Analytics       = Tag{"analytics"}
)

// Custom returns a tag outside the well-known set. Its defaults match
// the table's Custom(_) row.
func Custom(name string) Tag { return Tag{name} }

// Name returns the tag's lowercase string identifier.
func (t Tag) Name() string { return t.name }

// Metadata bundles a tag's default policy values.
type Metadata struct {
	DefaultTimeout     time.Duration
	DefaultMaxRetries  int
	DefaultConcurrency int
	IsCritical         bool
}

var wellKnown = map[string]Metadata{
	"search":          {500 * time.Millisecond, 1, 2, true},
	"pricing":         {200 * time.Millisecond, 2, 3, true},
	"inventory":       {150 * time.Millisecond, 2, 3, true},
	"profile":         {300 * time.Millisecond, 1, 3, false},
	"cms":             {1000 * time.Millisecond, 1, 3, false},
	"recommendations": {400 * time.Millisecond, 1, 3, false},
	"reviews":         {500 * time.Millisecond, 1, 3, false},
	"ads":             {200 * time.Millisecond, 0, 3, false},
	"analytics":       {100 * time.Millisecond, 0, 5, false},
}

var customDefault = Metadata{500 * time.Millisecond, 1, 3, false}

// Metadata returns the tag's default policy values. Unknown/custom
// tags receive the Custom(_) row's defaults.
func (t Tag) Metadata() Metadata {
	if m, ok := wellKnown[t.name]; ok {
		return m
	}
	return customDefault
}

func (t Tag) DefaultTimeout() time.Duration { return t.Metadata().DefaultTimeout }
func (t Tag) DefaultMaxRetries() int        { return t.Metadata().DefaultMaxRetries }
func (t Tag) DefaultConcurrency() int       { return t.Metadata().DefaultConcurrency }
func (t Tag) IsCritical() bool              { return t.Metadata().IsCritical }

// AllTags returns every well-known tag, in table order.
func AllTags() []Tag {
	return []Tag{Search, Pricing, Inventory, Profile, Cms, Recommendations, Reviews, Ads, Analytics}
}
