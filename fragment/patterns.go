package fragment

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// PatternMatcher matches a glob-like pattern against a set of tag
// names: exact match, prefix* / *suffix / *contains*, or a regex
// fallback for anything with regex metacharacters, with compiled
// regexes cached to avoid recompiling on every InvalidateByPattern
// call.
//
// Adapted from the teacher's invalidation/patterns.go (moved into this
// package and narrowed from "cache key" to "tag name" vocabulary,
// since spec.md's invalidate_tag is an exact match — the only place a
// glob belongs is the admin/debug bulk-invalidate convenience this
// type now backs, not the core single-tag path).
type PatternMatcher struct {
	regexCache sync.Map // map[string]*regexp.Regexp
}

func NewPatternMatcher() *PatternMatcher {
	return &PatternMatcher{}
}

// Match returns every tag in tags that the pattern selects.
func (pm *PatternMatcher) Match(pattern string, tags []string) []string {
	if pattern == "" {
		return nil
	}

	if !isWildcard(pattern) && !isRegexLike(pattern) {
		for _, tag := range tags {
			if tag == pattern {
				return []string{tag}
			}
		}
		return nil
	}

	if isWildcard(pattern) {
		return pm.matchWildcard(pattern, tags)
	}
	return pm.matchRegex(pattern, tags)
}

func isWildcard(pattern string) bool {
	return strings.Contains(pattern, "*")
}

func isRegexLike(pattern string) bool {
	for _, ch := range []string{"[", "]", "(", ")", "^", "$", "+", "?", "{", "}", "|"} {
		if strings.Contains(pattern, ch) {
			return true
		}
	}
	return false
}

func (pm *PatternMatcher) matchWildcard(pattern string, tags []string) []string {
	if pattern == "*" {
		return tags
	}

	var matches []string
	switch {
	case strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*"):
		substr := strings.Trim(pattern, "*")
		for _, tag := range tags {
			if strings.Contains(tag, substr) {
				matches = append(matches, tag)
			}
		}
	case strings.HasPrefix(pattern, "*"):
		suffix := strings.TrimPrefix(pattern, "*")
		for _, tag := range tags {
			if strings.HasSuffix(tag, suffix) {
				matches = append(matches, tag)
			}
		}
	case strings.HasSuffix(pattern, "*"):
		prefix := strings.TrimSuffix(pattern, "*")
		for _, tag := range tags {
			if strings.HasPrefix(tag, prefix) {
				matches = append(matches, tag)
			}
		}
	default:
		return pm.matchRegex(wildcardToRegex(pattern), tags)
	}
	return matches
}

func (pm *PatternMatcher) matchRegex(pattern string, tags []string) []string {
	var re *regexp.Regexp
	if cached, ok := pm.regexCache.Load(pattern); ok {
		re = cached.(*regexp.Regexp)
	} else {
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			return nil
		}
		re = compiled
		pm.regexCache.Store(pattern, re)
	}

	var matches []string
	for _, tag := range tags {
		if re.MatchString(tag) {
			matches = append(matches, tag)
		}
	}
	return matches
}

func wildcardToRegex(pattern string) string {
	escaped := regexp.QuoteMeta(pattern)
	escaped = strings.ReplaceAll(escaped, "\\*", ".*")
	return "^" + escaped + "$"
}

// ValidatePattern rejects patterns that could be expensive or
// malicious before they're ever matched.
func (pm *PatternMatcher) ValidatePattern(pattern string) error {
	if pattern == "" {
		return nil
	}
	if len(pattern) > 1000 {
		return fmt.Errorf("pattern too long: potential DoS")
	}
	if isRegexLike(pattern) {
		if _, err := regexp.Compile(pattern); err != nil {
			return err
		}
	}
	return nil
}

// TagLister is implemented by a Backend that can enumerate its known
// tags, letting Cache.InvalidateByPattern work without widening the
// core Backend interface every storage implementation must satisfy.
type TagLister interface {
	KnownTags() []string
}

// InvalidateByPattern is an administrative convenience beyond spec.md's
// exact-match invalidate_tag: it resolves pattern against every tag the
// backend currently knows about, then invalidates each match. Returns
// 0 with no error if the backend doesn't implement TagLister.
func (c *Cache) InvalidateByPattern(pattern string, matcher *PatternMatcher) (int, error) {
	lister, ok := c.backend.(TagLister)
	if !ok {
		return 0, nil
	}

	matched := matcher.Match(pattern, lister.KnownTags())
	total := 0
	for _, tag := range matched {
		n, err := c.InvalidateTag(tag)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
