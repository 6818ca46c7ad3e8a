// Package cachekey implements the Policy & Key Engine: route and
// section cache policies, vary rules, and the deterministic cache-key
// construction derived from them.
//
// Grounded on original_source/crates/edge-cache/src/{policy,key}.rs.
package cachekey

import (
	"fmt"
	"strings"
	"time"
)

// CacheScope controls who is permitted to cache a response.
type CacheScope int

const (
	ScopeNone CacheScope = iota
	ScopePublic
	ScopePrivate
	ScopeSharedPrivate
)

// CacheControlDirective returns the Cache-Control directive token for
// this scope ("public", "private", or "no-store" for None).
func (s CacheScope) CacheControlDirective() string {
	switch s {
	case ScopePublic:
		return "public"
	case ScopePrivate, ScopeSharedPrivate:
		return "private"
	default:
		return "no-store"
	}
}

// AllowsCaching reports whether this scope permits caching at all.
func (s CacheScope) AllowsCaching() bool { return s != ScopeNone }

// AllowsCDNCaching reports whether a shared CDN may cache the response.
func (s CacheScope) AllowsCDNCaching() bool { return s == ScopePublic }

// GeoGranularity selects how finely a Geo vary rule distinguishes
// requests.
type GeoGranularity int

const (
	GeoCountry GeoGranularity = iota
	GeoRegion
	GeoCity
)

// VaryRuleKind discriminates the VaryRule variants.
type VaryRuleKind int

const (
	VaryHeader VaryRuleKind = iota
	VaryCookie
	VaryQueryParam
	VaryGeo
	VaryDeviceType
	VaryUserID
	VaryCustom
)

// VaryRule declares that some component of the request participates
// in the cache key (and, for a subset of kinds, in the HTTP Vary
// header).
type VaryRule struct {
	Kind  VaryRuleKind
	Name  string         // Header/Cookie/QueryParam/Custom name
	Geo   GeoGranularity // meaningful only when Kind == VaryGeo
}

func VaryOnHeader(name string) VaryRule     { return VaryRule{Kind: VaryHeader, Name: name} }
func VaryOnCookie(name string) VaryRule     { return VaryRule{Kind: VaryCookie, Name: name} }
func VaryOnQueryParam(name string) VaryRule { return VaryRule{Kind: VaryQueryParam, Name: name} }
func VaryOnGeo(g GeoGranularity) VaryRule   { return VaryRule{Kind: VaryGeo, Geo: g} }
func VaryOnDeviceType() VaryRule            { return VaryRule{Kind: VaryDeviceType} }
func VaryOnUserID() VaryRule                { return VaryRule{Kind: VaryUserID} }
func VaryOnCustom(name string) VaryRule     { return VaryRule{Kind: VaryCustom, Name: name} }

// RouteCachePolicy is the cache policy attached to a route.
type RouteCachePolicy struct {
	Enabled               bool
	Scope                 CacheScope
	TTL                   time.Duration
	StaleWhileRevalidate  *time.Duration
	StaleIfError          *time.Duration
	Vary                  []VaryRule
	Tags                  []string
	PersonalizationOptIn  bool
}

// NoRouteCache returns a disabled policy (Cache-Control: no-store).
func NoRouteCache() RouteCachePolicy {
	return RouteCachePolicy{PersonalizationOptIn: true}
}

// PublicRouteCache returns an enabled, publicly-cacheable policy.
func PublicRouteCache(ttl time.Duration) RouteCachePolicy {
	return RouteCachePolicy{Enabled: true, Scope: ScopePublic, TTL: ttl, PersonalizationOptIn: true}
}

// PrivateRouteCache returns an enabled, browser-only-cacheable policy.
func PrivateRouteCache(ttl time.Duration) RouteCachePolicy {
	return RouteCachePolicy{Enabled: true, Scope: ScopePrivate, TTL: ttl, PersonalizationOptIn: true}
}

func (p RouteCachePolicy) WithStaleWhileRevalidate(d time.Duration) RouteCachePolicy {
	p.StaleWhileRevalidate = &d
	return p
}

func (p RouteCachePolicy) WithStaleIfError(d time.Duration) RouteCachePolicy {
	p.StaleIfError = &d
	return p
}

func (p RouteCachePolicy) VaryOnAll(rules ...VaryRule) RouteCachePolicy {
	p.Vary = append(p.Vary, rules...)
	return p
}

func (p RouteCachePolicy) WithTag(tag string) RouteCachePolicy {
	p.Tags = append(p.Tags, tag)
	return p
}

// CacheControlHeader derives the Cache-Control header value. If the
// policy is disabled or scoped to None, the result is always
// "no-store" regardless of TTL.
func (p RouteCachePolicy) CacheControlHeader() string {
	if !p.Enabled || p.Scope == ScopeNone {
		return "no-store"
	}
	parts := []string{p.Scope.CacheControlDirective(), fmt.Sprintf("max-age=%d", int64(p.TTL.Seconds()))}
	if p.StaleWhileRevalidate != nil {
		parts = append(parts, fmt.Sprintf("stale-while-revalidate=%d", int64(p.StaleWhileRevalidate.Seconds())))
	}
	if p.StaleIfError != nil {
		parts = append(parts, fmt.Sprintf("stale-if-error=%d", int64(p.StaleIfError.Seconds())))
	}
	return strings.Join(parts, ", ")
}

// VaryHeader derives the HTTP Vary header value, or ("", false) if no
// rule maps to a Vary-relevant header. QueryParam/Geo/UserId/Custom
// rules influence the key but are never exposed in Vary, since they
// are not raw request headers a downstream cache could itself vary on.
func (p RouteCachePolicy) VaryHeader() (string, bool) {
	seen := map[string]bool{}
	var headers []string
	add := func(h string) {
		if !seen[h] {
			seen[h] = true
			headers = append(headers, h)
		}
	}
	for _, r := range p.Vary {
		switch r.Kind {
		case VaryHeader:
			add(r.Name)
		case VaryCookie:
			add("Cookie")
		case VaryDeviceType:
			add("User-Agent")
		}
	}
	if len(headers) == 0 {
		return "", false
	}
	return strings.Join(headers, ", "), true
}

// SectionCachePolicy is the cache policy attached to a single section.
// It inherits nothing from the route policy; the two are independent.
type SectionCachePolicy struct {
	Enabled      bool
	TTL          time.Duration
	StaleOnError bool
	Vary         []VaryRule
	Tags         []string
}

// NoSectionCache returns a disabled section policy.
func NoSectionCache() SectionCachePolicy {
	return SectionCachePolicy{}
}

// NewSectionCache returns an enabled section policy with the given TTL.
func NewSectionCache(ttl time.Duration) SectionCachePolicy {
	return SectionCachePolicy{Enabled: true, TTL: ttl}
}

func (p SectionCachePolicy) WithStaleOnError() SectionCachePolicy {
	p.StaleOnError = true
	return p
}

func (p SectionCachePolicy) VaryOnAll(rules ...VaryRule) SectionCachePolicy {
	p.Vary = append(p.Vary, rules...)
	return p
}

func (p SectionCachePolicy) WithTag(tag string) SectionCachePolicy {
	p.Tags = append(p.Tags, tag)
	return p
}
