package config

import (
	"strings"
	"testing"
	"time"

	"github.com/edgerender/corestream/cachekey"
)

func TestRouteConfig_DefaultsToGET(t *testing.T) {
	route := NewRouteConfig("/products/:id", "handleProduct")
	if !route.AcceptsMethod("GET") {
		t.Error("default route should accept GET")
	}
	if route.AcceptsMethod("POST") {
		t.Error("default route should not accept POST")
	}
}

func TestRouteConfig_WithMethods(t *testing.T) {
	route := NewRouteConfig("/checkout", "handleCheckout").WithMethods("POST", "PUT")
	if route.AcceptsMethod("GET") {
		t.Error("route restricted to POST/PUT should not accept GET")
	}
	if !route.AcceptsMethod("POST") || !route.AcceptsMethod("PUT") {
		t.Error("route should accept both POST and PUT")
	}
}

func TestRouteConfig_EffectiveMethods_EmptyFallsBackToDefault(t *testing.T) {
	route := RouteConfig{Pattern: "/home", Handler: "handleHome"}
	methods := route.EffectiveMethods()
	if len(methods) != 1 || methods[0] != "GET" {
		t.Errorf("EffectiveMethods() = %v, want [GET]", methods)
	}
}

func TestRouteConfig_WithCachePolicy(t *testing.T) {
	policy := cachekey.NewSectionCache(time.Minute)
	route := NewRouteConfig("/home", "handleHome").WithCachePolicy(policy)
	if !route.CachePolicy.Enabled {
		t.Error("CachePolicy should be enabled")
	}
	if route.CachePolicy.TTL != time.Minute {
		t.Errorf("CachePolicy.TTL = %v, want 1m", route.CachePolicy.TTL)
	}
}

func TestWorkloadManifest_WithRoute(t *testing.T) {
	manifest := NewWorkloadManifest("storefront", "1.0.0").
		WithRoute(NewRouteConfig("/home", "handleHome")).
		WithRoute(NewRouteConfig("/checkout", "handleCheckout").WithMethods("POST"))

	if len(manifest.Routes) != 2 {
		t.Fatalf("len(Routes) = %d, want 2", len(manifest.Routes))
	}
	if manifest.Name != "storefront" || manifest.Version != "1.0.0" {
		t.Errorf("manifest = %+v, want name/version set", manifest)
	}
}

func TestWorkloadManifest_WithRoute_DoesNotMutateOriginal(t *testing.T) {
	base := NewWorkloadManifest("storefront", "1.0.0").WithRoute(NewRouteConfig("/home", "handleHome"))
	extended := base.WithRoute(NewRouteConfig("/checkout", "handleCheckout"))

	if len(base.Routes) != 1 {
		t.Errorf("base.Routes mutated: len = %d, want 1", len(base.Routes))
	}
	if len(extended.Routes) != 2 {
		t.Errorf("len(extended.Routes) = %d, want 2", len(extended.Routes))
	}
}

func TestWorkloadManifest_RouteFor(t *testing.T) {
	manifest := NewWorkloadManifest("storefront", "1.0.0").
		WithRoute(NewRouteConfig("/home", "handleHome"))

	route, ok := manifest.RouteFor("/home")
	if !ok {
		t.Fatal("expected to find route for /home")
	}
	if route.Handler != "handleHome" {
		t.Errorf("Handler = %q, want handleHome", route.Handler)
	}

	if _, ok := manifest.RouteFor("/missing"); ok {
		t.Error("expected no route for /missing")
	}
}

func TestWorkloadManifest_ToJSON_FromJSON_RoundTrip(t *testing.T) {
	manifest := NewWorkloadManifest("storefront", "1.0.0").
		WithRoute(NewRouteConfig("/home", "handleHome").WithCachePolicy(cachekey.NewSectionCache(30 * time.Second)))

	data, err := manifest.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if !strings.Contains(data, "storefront") {
		t.Errorf("ToJSON output missing name: %s", data)
	}

	restored, err := ManifestFromJSON([]byte(data))
	if err != nil {
		t.Fatalf("ManifestFromJSON: %v", err)
	}
	if restored.Name != "storefront" {
		t.Errorf("restored.Name = %q, want storefront", restored.Name)
	}
	if len(restored.Routes) != 1 || !restored.Routes[0].CachePolicy.Enabled {
		t.Errorf("restored.Routes = %+v, want one route with an enabled cache policy", restored.Routes)
	}
}

func TestManifestFromJSON_Invalid(t *testing.T) {
	if _, err := ManifestFromJSON([]byte("not json")); err == nil {
		t.Error("ManifestFromJSON with invalid JSON should error")
	}
}
