package streaming

import "time"

// Section is a single unit of shell-first streamed content: a name,
// the dependency tags it requires before it can render, and a
// fallback to show if rendering it fails or times out.
//
// Grounded on original_source/crates/edge-streaming/src/section.rs
// (read in full).
type Section struct {
	Name         string
	Dependencies []string
	Fallback     string
	Timeout      time.Duration
}

// SectionBuilder assembles a Section fluently.
type SectionBuilder struct {
	section Section
}

// NewSection starts a builder for a section with the given name.
func NewSection(name string) *SectionBuilder {
	return &SectionBuilder{section: Section{Name: name}}
}

func (b *SectionBuilder) DependsOn(dep string) *SectionBuilder {
	b.section.Dependencies = append(b.section.Dependencies, dep)
	return b
}

func (b *SectionBuilder) DependsOnAll(deps ...string) *SectionBuilder {
	b.section.Dependencies = append(b.section.Dependencies, deps...)
	return b
}

func (b *SectionBuilder) WithFallback(fallback string) *SectionBuilder {
	b.section.Fallback = fallback
	return b
}

func (b *SectionBuilder) WithTimeout(d time.Duration) *SectionBuilder {
	b.section.Timeout = d
	return b
}

func (b *SectionBuilder) Build() Section {
	return b.section
}
