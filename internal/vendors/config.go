package vendors

import (
	"fmt"
	"time"
)

// FieldSelectors maps product fields to CSS selectors on a product page.
// Attribute extraction uses the "selector@attr" form, e.g. "img.main@src".
type FieldSelectors struct {
	Name           string `mapstructure:"name"`
	Price          string `mapstructure:"price"`
	Brand          string `mapstructure:"brand"`
	SKU            string `mapstructure:"sku"`
	Description    string `mapstructure:"description"`
	Image          string `mapstructure:"image"`
	InStock        string `mapstructure:"in_stock"`
	OutOfStockText string `mapstructure:"out_of_stock_text"`
	SpecRows       string `mapstructure:"spec_rows"`
	SpecKey        string `mapstructure:"spec_key"`
	SpecValue      string `mapstructure:"spec_value"`
}

// Config is the immutable per-vendor crawl configuration, loaded once at
// crawl start and passed explicitly into the crawler.
type Config struct {
	Name                  string            `mapstructure:"name"`
	BaseURL               string            `mapstructure:"base_url"`
	SeedURLs              []string          `mapstructure:"seed_urls"`
	LinkSelector          string            `mapstructure:"link_selector"`
	ProductPageIndicators []string          `mapstructure:"product_page_indicators"`
	ExcludePatterns       []string          `mapstructure:"exclude_patterns"`
	MaxPages              int               `mapstructure:"max_pages"`
	MaxDepth              int               `mapstructure:"max_depth"`
	RequestDelay          time.Duration     `mapstructure:"request_delay"`
	Selectors             FieldSelectors    `mapstructure:"selectors"`
	CategoryPaths         map[string]string `mapstructure:"category_paths"` // URL path fragment -> taxonomy category
	Currency              string            `mapstructure:"currency"`
}

// Registry resolves vendor names to their crawl configuration.
type Registry struct {
	configs map[string]Config
	order   []string
}

var ErrVendorUnknown = fmt.Errorf("unknown vendor")

// NewRegistry builds a registry from the built-in vendor set. Overrides
// replace the default entry for a vendor wholesale, keyed by vendor name.
func NewRegistry(overrides map[string]Config) *Registry {
	r := &Registry{configs: make(map[string]Config)}
	for _, cfg := range defaultVendors() {
		r.configs[cfg.Name] = cfg
		r.order = append(r.order, cfg.Name)
	}
	for name, cfg := range overrides {
		if cfg.Name == "" {
			cfg.Name = name
		}
		if _, known := r.configs[name]; !known {
			r.order = append(r.order, name)
		}
		r.configs[name] = cfg
	}
	return r
}

// Get returns the configuration for one vendor.
func (r *Registry) Get(name string) (Config, error) {
	cfg, ok := r.configs[name]
	if !ok {
		return Config{}, fmt.Errorf("%w: %s", ErrVendorUnknown, name)
	}
	return cfg, nil
}

// All returns every configured vendor in registration order.
func (r *Registry) All() []Config {
	out := make([]Config, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.configs[name])
	}
	return out
}

// Names returns the configured vendor names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}
