package streaming

import (
	"strings"
	"time"

	"github.com/edgerender/corestream/cachekey"
	"github.com/edgerender/corestream/fragment"
)

// FallbackStrategy is what to do when a section's dependencies fail.
//
// Grounded on original_source/crates/edge-executor/src/fallback.rs
// (read in full).
type FallbackStrategy struct {
	kind fallbackKind
	html string
}

type fallbackKind int

const (
	fallbackSkip fallbackKind = iota
	fallbackRenderHTML
	fallbackShowError
	fallbackUseCached
	fallbackRetryDegraded
)

// SkipFallback skips the section entirely. This is the zero value,
// matching the reference's Default impl.
func SkipFallback() FallbackStrategy {
	return FallbackStrategy{kind: fallbackSkip}
}

// HTMLFallback renders the given HTML in place of the failed section.
func HTMLFallback(html string) FallbackStrategy {
	return FallbackStrategy{kind: fallbackRenderHTML, html: html}
}

// ErrorMessageFallback renders html-escaped message inside a
// section-error wrapper.
func ErrorMessageFallback(message string) FallbackStrategy {
	return FallbackStrategy{kind: fallbackRenderHTML, html: `<div class="section-error">` + htmlEscape(message) + `</div>`}
}

// ShowErrorFallback renders a generic, escaped failure message.
func ShowErrorFallback() FallbackStrategy {
	return FallbackStrategy{kind: fallbackShowError}
}

// UseCachedFallback serves the last cached render of the section, if
// any is still held by the fragment cache.
func UseCachedFallback() FallbackStrategy {
	return FallbackStrategy{kind: fallbackUseCached}
}

// RetryDegradedFallback retries the section against a reduced data
// set. Not yet implemented, matching the reference's own TODO.
func RetryDegradedFallback() FallbackStrategy {
	return FallbackStrategy{kind: fallbackRetryDegraded}
}

// FallbackConfig configures a section's fallback behavior.
type FallbackConfig struct {
	Strategy          FallbackStrategy
	LogFailure        bool
	FallbackTimeout   time.Duration
}

// NewFallbackConfig creates a config with logging enabled and no
// override timeout, matching the reference's FallbackConfig::new.
func NewFallbackConfig(strategy FallbackStrategy) FallbackConfig {
	return FallbackConfig{Strategy: strategy, LogFailure: true}
}

func (c FallbackConfig) WithLogging(log bool) FallbackConfig {
	c.LogFailure = log
	return c
}

func (c FallbackConfig) WithTimeout(d time.Duration) FallbackConfig {
	c.FallbackTimeout = d
	return c
}

// DefaultFallbackConfig mirrors the reference's Default impl for
// FallbackConfig: Skip strategy, logging on.
func DefaultFallbackConfig() FallbackConfig {
	return NewFallbackConfig(SkipFallback())
}

// FallbackResultKind discriminates FallbackResult outcomes.
type FallbackResultKind int

const (
	FallbackRendered FallbackResultKind = iota
	FallbackSkipped
	FallbackFailed
)

// FallbackResult is the outcome of applying a FallbackConfig.
type FallbackResult struct {
	Kind    FallbackResultKind
	HTML    string
	Reason  string
}

// ApplyFallback resolves config against a failed section's cache key
// (used only by the UseCached strategy) and the error that caused the
// failure.
func ApplyFallback(config FallbackConfig, cache *fragment.Cache, key cachekey.FragmentKey, sectionErr string) FallbackResult {
	switch config.Strategy.kind {
	case fallbackRenderHTML:
		return FallbackResult{Kind: FallbackRendered, HTML: config.Strategy.html}

	case fallbackSkip:
		return FallbackResult{Kind: FallbackSkipped}

	case fallbackShowError:
		html := `<div class="section-error">Failed to load section: ` + htmlEscape(sectionErr) + `</div>`
		return FallbackResult{Kind: FallbackRendered, HTML: html}

	case fallbackUseCached:
		if cache == nil {
			return FallbackResult{Kind: FallbackFailed, Reason: "cache not available"}
		}
		result := cache.Get(key, cachekey.SectionCachePolicy{Enabled: true})
		if result.Status != fragment.StatusHit && result.Status != fragment.StatusStale {
			return FallbackResult{Kind: FallbackFailed, Reason: "no cached fragment available"}
		}
		return FallbackResult{Kind: FallbackRendered, HTML: result.Fragment.Content}

	case fallbackRetryDegraded:
		return FallbackResult{Kind: FallbackFailed, Reason: "degraded retry not implemented"}

	default:
		return FallbackResult{Kind: FallbackSkipped}
	}
}

func htmlEscape(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
	return r.Replace(s)
}
