package vendors

import (
	"errors"
	"testing"
)

func TestNewRegistry_BuiltInsPresent(t *testing.T) {
	r := NewRegistry(nil)

	for _, name := range []string{"getfpv", "racedayquads", "pyrodrone"} {
		cfg, err := r.Get(name)
		if err != nil {
			t.Fatalf("built-in vendor %s missing: %v", name, err)
		}
		if cfg.BaseURL == "" || len(cfg.SeedURLs) == 0 || cfg.Selectors.Name == "" {
			t.Fatalf("built-in vendor %s is incomplete: %+v", name, cfg)
		}
		if cfg.MaxPages <= 0 || cfg.MaxDepth <= 0 {
			t.Fatalf("built-in vendor %s has no crawl bounds", name)
		}
	}
}

func TestRegistry_UnknownVendor(t *testing.T) {
	_, err := NewRegistry(nil).Get("hobbyking")
	if !errors.Is(err, ErrVendorUnknown) {
		t.Fatalf("expected ErrVendorUnknown, got %v", err)
	}
}

func TestRegistry_OverrideReplacesBuiltIn(t *testing.T) {
	override := Config{
		Name:     "getfpv",
		BaseURL:  "http://mirror.test",
		SeedURLs: []string{"http://mirror.test/catalog"},
		MaxPages: 3,
	}
	r := NewRegistry(map[string]Config{"getfpv": override})

	cfg, err := r.Get("getfpv")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if cfg.BaseURL != "http://mirror.test" || cfg.MaxPages != 3 {
		t.Fatalf("override not applied: %+v", cfg)
	}

	if names := r.Names(); len(names) != 3 {
		t.Fatalf("override must not add a vendor: %v", names)
	}
}

func TestRegistry_OverrideAddsNewVendorInOrder(t *testing.T) {
	r := NewRegistry(map[string]Config{
		"newshop": {BaseURL: "http://newshop.test"},
	})

	cfg, err := r.Get("newshop")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if cfg.Name != "newshop" {
		t.Fatalf("name should default to the map key, got %q", cfg.Name)
	}

	names := r.Names()
	if len(names) != 4 || names[len(names)-1] != "newshop" {
		t.Fatalf("new vendor should append to registration order: %v", names)
	}

	if got := len(r.All()); got != 4 {
		t.Fatalf("All returned %d configs, want 4", got)
	}
}
