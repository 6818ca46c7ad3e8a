package cachekey

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/cases"
)

// DeviceType classifies the client device from its User-Agent.
type DeviceType int

const (
	DeviceDesktop DeviceType = iota
	DeviceMobile
	DeviceTablet
	DeviceBot
	DeviceUnknown
)

func (d DeviceType) String() string {
	switch d {
	case DeviceDesktop:
		return "desktop"
	case DeviceMobile:
		return "mobile"
	case DeviceTablet:
		return "tablet"
	case DeviceBot:
		return "bot"
	default:
		return "unknown"
	}
}

var foldCaser = cases.Fold()

// DeviceTypeFromUserAgent classifies a User-Agent header using the
// same substring heuristic as the reference implementation: bot
// signatures first, then mobile/tablet, then default to desktop.
func DeviceTypeFromUserAgent(ua string) DeviceType {
	lower := foldCaser.String(ua)
	switch {
	case strings.Contains(lower, "bot") || strings.Contains(lower, "crawler") || strings.Contains(lower, "spider"):
		return DeviceBot
	case strings.Contains(lower, "mobile") || strings.Contains(lower, "android"):
		if strings.Contains(lower, "tablet") || strings.Contains(lower, "ipad") {
			return DeviceTablet
		}
		return DeviceMobile
	case strings.Contains(lower, "tablet") || strings.Contains(lower, "ipad"):
		return DeviceTablet
	default:
		return DeviceDesktop
	}
}

// GeoContext is the geographic information available for Geo vary rules.
type GeoContext struct {
	Country string
	Region  string
	City    string
}

// CacheKeyContext is every piece of request state a VaryRule might
// select from. Fields are pointers/empty-string-means-absent so the
// builder can omit genuinely-missing values rather than encode an
// empty-but-present component.
type CacheKeyContext struct {
	Path        string
	QueryParams map[string]string
	Headers     map[string]string
	Cookies     map[string]string
	UserID      string
	Geo         *GeoContext
	DeviceType  *DeviceType
}

// CacheKey is the canonical, hashed identity of a cached artifact plus
// an optional debug trace of the components that produced it. Identity
// is the hash alone; the trace never affects equality.
type CacheKey struct {
	Key        string
	Components []string
}

func (k CacheKey) String() string { return k.Key }

type keyComponentKind int

const (
	compRoute keyComponentKind = iota
	compHeader
	compCookie
	compQueryParam
	compAllQueryParams
	compUserID
	compCountry
	compRegion
	compCity
	compDeviceType
	compCustom
)

type keyComponent struct {
	kind keyComponentKind
	name string
}

// CacheKeyBuilder composes an ordered list of key components and
// produces a CacheKey from a CacheKeyContext.
type CacheKeyBuilder struct {
	components []keyComponent
	prefix     string
	suffix     string
}

// NewCacheKeyBuilder starts an empty builder. Route() is normally the
// first component added; FromVaryRules does this automatically.
func NewCacheKeyBuilder() *CacheKeyBuilder {
	return &CacheKeyBuilder{}
}

// FromVaryRules builds a CacheKeyBuilder from an ordered VaryRule
// sequence, always starting with the route path.
func FromVaryRules(rules []VaryRule) *CacheKeyBuilder {
	b := NewCacheKeyBuilder().Route()
	for _, r := range rules {
		switch r.Kind {
		case VaryHeader:
			b.Header(r.Name)
		case VaryCookie:
			b.Cookie(r.Name)
		case VaryQueryParam:
			b.QueryParams(r.Name)
		case VaryGeo:
			switch r.Geo {
			case GeoCountry:
				b.Country()
			case GeoRegion:
				b.Region()
			case GeoCity:
				b.City()
			}
		case VaryDeviceType:
			b.DeviceTypeComponent()
		case VaryUserID:
			b.UserID()
		case VaryCustom:
			b.Custom(r.Name)
		}
	}
	return b
}

func (b *CacheKeyBuilder) Route() *CacheKeyBuilder {
	b.components = append(b.components, keyComponent{kind: compRoute})
	return b
}

func (b *CacheKeyBuilder) Header(name string) *CacheKeyBuilder {
	b.components = append(b.components, keyComponent{kind: compHeader, name: name})
	return b
}

func (b *CacheKeyBuilder) Cookie(name string) *CacheKeyBuilder {
	b.components = append(b.components, keyComponent{kind: compCookie, name: name})
	return b
}

func (b *CacheKeyBuilder) QueryParams(name string) *CacheKeyBuilder {
	b.components = append(b.components, keyComponent{kind: compQueryParam, name: name})
	return b
}

func (b *CacheKeyBuilder) AllQueryParams() *CacheKeyBuilder {
	b.components = append(b.components, keyComponent{kind: compAllQueryParams})
	return b
}

func (b *CacheKeyBuilder) UserID() *CacheKeyBuilder {
	b.components = append(b.components, keyComponent{kind: compUserID})
	return b
}

func (b *CacheKeyBuilder) Country() *CacheKeyBuilder {
	b.components = append(b.components, keyComponent{kind: compCountry})
	return b
}

func (b *CacheKeyBuilder) Region() *CacheKeyBuilder {
	b.components = append(b.components, keyComponent{kind: compRegion})
	return b
}

func (b *CacheKeyBuilder) City() *CacheKeyBuilder {
	b.components = append(b.components, keyComponent{kind: compCity})
	return b
}

func (b *CacheKeyBuilder) DeviceTypeComponent() *CacheKeyBuilder {
	b.components = append(b.components, keyComponent{kind: compDeviceType})
	return b
}

func (b *CacheKeyBuilder) Custom(name string) *CacheKeyBuilder {
	b.components = append(b.components, keyComponent{kind: compCustom, name: name})
	return b
}

func (b *CacheKeyBuilder) WithPrefix(p string) *CacheKeyBuilder {
	b.prefix = p
	return b
}

func (b *CacheKeyBuilder) WithSuffix(s string) *CacheKeyBuilder {
	b.suffix = s
	return b
}

// Build derives the CacheKey for the given context. Optional values
// absent from the context are skipped entirely — never encoded as an
// empty-but-present component — so their absence is indistinguishable
// from a rule that was never configured, matching the determinism and
// insensitivity invariants (spec §4.1).
func (b *CacheKeyBuilder) Build(ctx CacheKeyContext) CacheKey {
	var parts []string
	if b.prefix != "" {
		parts = append(parts, b.prefix)
	}

	for _, c := range b.components {
		switch c.kind {
		case compRoute:
			parts = append(parts, "route:"+ctx.Path)
		case compHeader:
			if v, ok := lookupFold(ctx.Headers, c.name); ok {
				parts = append(parts, "h:"+foldCaser.String(c.name)+"="+v)
			}
		case compCookie:
			if v, ok := lookupFold(ctx.Cookies, c.name); ok {
				parts = append(parts, "c:"+foldCaser.String(c.name)+"="+v)
			}
		case compQueryParam:
			if v, ok := ctx.QueryParams[c.name]; ok {
				parts = append(parts, "q:"+c.name+"="+v)
			}
		case compAllQueryParams:
			if len(ctx.QueryParams) > 0 {
				names := make([]string, 0, len(ctx.QueryParams))
				for k := range ctx.QueryParams {
					names = append(names, k)
				}
				sort.Strings(names)
				var kv []string
				for _, n := range names {
					kv = append(kv, n+"="+ctx.QueryParams[n])
				}
				parts = append(parts, "qall:"+strings.Join(kv, "&"))
			}
		case compUserID:
			if ctx.UserID != "" {
				parts = append(parts, "u:"+ctx.UserID)
			}
		case compCountry:
			if ctx.Geo != nil && ctx.Geo.Country != "" {
				parts = append(parts, "geo-country:"+ctx.Geo.Country)
			}
		case compRegion:
			if ctx.Geo != nil && ctx.Geo.Region != "" {
				parts = append(parts, "geo-region:"+ctx.Geo.Region)
			}
		case compCity:
			if ctx.Geo != nil && ctx.Geo.City != "" {
				parts = append(parts, "geo-city:"+ctx.Geo.City)
			}
		case compDeviceType:
			if ctx.DeviceType != nil {
				parts = append(parts, "device:"+ctx.DeviceType.String())
			}
		case compCustom:
			parts = append(parts, "custom:"+c.name)
		}
	}

	if b.suffix != "" {
		parts = append(parts, b.suffix)
	}

	joined := strings.Join(parts, "|")
	return CacheKey{Key: hashComponents(joined), Components: parts}
}

// hashComponents hashes the joined component string to a fixed-width
// hex token via blake2b-256. Unlike the Rust reference's
// std::collections::hash_map::DefaultHasher (a per-process-seeded
// SipHash, not a cross-process guarantee), blake2b is stable across
// processes, machines, and time, which the determinism invariant
// (spec §4.1, P2) actually requires.
func hashComponents(s string) string {
	sum := blake2b.Sum256([]byte(s))
	return hex.EncodeToString(sum[:16]) // 32 hex chars, bounded-length token
}

func lookupFold(m map[string]string, name string) (string, bool) {
	target := foldCaser.String(name)
	for k, v := range m {
		if foldCaser.String(k) == target {
			return v, true
		}
	}
	return "", false
}

// FragmentKey uniquely identifies a cached section artifact by
// (section name, variance-derived key).
type FragmentKey struct {
	Section  string
	CacheKey CacheKey
}

func NewFragmentKey(section string, key CacheKey) FragmentKey {
	return FragmentKey{Section: section, CacheKey: key}
}

// AsString renders the FragmentKey as "section:cachekey", the
// canonical backend storage key.
func (f FragmentKey) AsString() string {
	return fmt.Sprintf("%s:%s", f.Section, f.CacheKey.Key)
}
