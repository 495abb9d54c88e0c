package crawler

import (
	"net/url"
	"strings"

	"dronepartpicker/scraper/internal/vendors"
)

// IsProductPage decides whether a URL points at a product page (as
// opposed to a listing/category page) using the vendor's path rules.
// Exclusion patterns always win.
func IsProductPage(rawURL string, cfg vendors.Config) bool {
	for _, pattern := range cfg.ExcludePatterns {
		if strings.Contains(rawURL, pattern) {
			return false
		}
	}
	for _, indicator := range cfg.ProductPageIndicators {
		if strings.Contains(rawURL, indicator) {
			return true
		}
	}
	return false
}

// CategoryForURL maps a URL to a taxonomy category via the vendor's
// category path table. Returns "" when no path fragment matches.
func CategoryForURL(rawURL string, cfg vendors.Config) string {
	for fragment, category := range cfg.CategoryPaths {
		if strings.Contains(rawURL, fragment) {
			return category
		}
	}
	return ""
}

// NormalizeURL resolves a possibly-relative href against the vendor base
// and strips fragments and trailing slashes so the visited set dedupes
// equivalent forms.
func NormalizeURL(href string, cfg vendors.Config) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
		return "", false
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	// Stay on the vendor's site.
	if resolved.Host != base.Host {
		return "", false
	}

	resolved.Fragment = ""
	normalized := strings.TrimSuffix(resolved.String(), "/")
	return normalized, true
}
