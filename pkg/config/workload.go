// Package config loads the declarative workload manifest a host uses
// to wire routes to this module: which routes exist, the methods each
// accepts, and the default fragment cache policy for each route.
//
// Grounded on original_source/crates/edge-core/src/{workload,config}.rs
// and the teacher's own plain-struct-plus-JSON Config shape (no config
// library in the teacher's go.mod, so none is introduced here either).
package config

import (
	"encoding/json"
	"fmt"

	"github.com/edgerender/corestream/cachekey"
)

// RouteConfig describes one route a workload handles: the path
// pattern, the HTTP methods it accepts, and the default fragment
// cache policy sections on this route fall back to when they don't
// specify their own.
type RouteConfig struct {
	Pattern     string                      `json:"pattern"`
	Handler     string                      `json:"handler"`
	Methods     []string                    `json:"methods,omitempty"`
	CachePolicy cachekey.SectionCachePolicy `json:"cache_policy,omitempty"`
}

// defaultMethods mirrors the reference's default_methods: a route with
// no methods specified accepts GET only.
var defaultMethods = []string{"GET"}

// NewRouteConfig creates a route configuration defaulting to GET.
func NewRouteConfig(pattern, handler string) RouteConfig {
	return RouteConfig{
		Pattern: pattern,
		Handler: handler,
		Methods: append([]string(nil), defaultMethods...),
	}
}

// WithMethods returns a copy of the route restricted to the given
// HTTP methods.
func (r RouteConfig) WithMethods(methods ...string) RouteConfig {
	r.Methods = append([]string(nil), methods...)
	return r
}

// WithCachePolicy returns a copy of the route with its default
// fragment cache policy set.
func (r RouteConfig) WithCachePolicy(policy cachekey.SectionCachePolicy) RouteConfig {
	r.CachePolicy = policy
	return r
}

// EffectiveMethods returns the route's configured methods, or the
// default (GET) if none were set — covering manifests loaded from
// JSON that omitted the field entirely.
func (r RouteConfig) EffectiveMethods() []string {
	if len(r.Methods) == 0 {
		return defaultMethods
	}
	return r.Methods
}

// AcceptsMethod reports whether method is allowed on this route.
func (r RouteConfig) AcceptsMethod(method string) bool {
	for _, m := range r.EffectiveMethods() {
		if m == method {
			return true
		}
	}
	return false
}

// WorkloadManifest is the explicit, versioned configuration for one
// deployable unit: its name and the routes it handles.
type WorkloadManifest struct {
	Name    string        `json:"name"`
	Version string        `json:"version"`
	Routes  []RouteConfig `json:"routes"`
}

// NewWorkloadManifest creates an empty manifest for name/version.
func NewWorkloadManifest(name, version string) WorkloadManifest {
	return WorkloadManifest{Name: name, Version: version}
}

// WithRoute returns a copy of the manifest with route appended.
func (m WorkloadManifest) WithRoute(route RouteConfig) WorkloadManifest {
	m.Routes = append(append([]RouteConfig(nil), m.Routes...), route)
	return m
}

// RouteFor returns the first route whose pattern matches path exactly,
// and whether one was found. Pattern matching here is literal; a host
// that needs templated routes (e.g. "/products/:id") is expected to
// resolve that itself and pass the matched RouteConfig's pattern.
func (m WorkloadManifest) RouteFor(pattern string) (RouteConfig, bool) {
	for _, r := range m.Routes {
		if r.Pattern == pattern {
			return r, true
		}
	}
	return RouteConfig{}, false
}

// ToJSON renders the manifest as indented JSON.
func (m WorkloadManifest) ToJSON() (string, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal workload manifest: %w", err)
	}
	return string(data), nil
}

// ManifestFromJSON parses a workload manifest previously produced by
// ToJSON (or hand-authored by an operator).
func ManifestFromJSON(data []byte) (WorkloadManifest, error) {
	var m WorkloadManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return WorkloadManifest{}, fmt.Errorf("unmarshal workload manifest: %w", err)
	}
	return m, nil
}
