package crawler

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"

	"dronepartpicker/scraper/internal/client"
	"dronepartpicker/scraper/internal/domain"
	"dronepartpicker/scraper/internal/vendors"
)

type Crawler struct {
	fetcher client.Fetcher
}

func New(fetcher client.Fetcher) *Crawler {
	return &Crawler{fetcher: fetcher}
}

type frontierEntry struct {
	url   string
	depth int
}

// CrawlVendor walks the vendor site breadth-first from its seed URLs and
// lazily emits extracted products on the returned channel. The channel
// is closed when the frontier is exhausted, MaxPages is reached or ctx
// is cancelled. A fetch or parse error on one URL skips that URL only.
func (c *Crawler) CrawlVendor(ctx context.Context, cfg vendors.Config, categoryFilter string) <-chan domain.ScrapedProduct {
	out := make(chan domain.ScrapedProduct)

	go func() {
		defer close(out)

		frontier := make([]frontierEntry, 0, len(cfg.SeedURLs))
		visited := make(map[string]bool)

		for _, seed := range cfg.SeedURLs {
			normalized, ok := NormalizeURL(seed, cfg)
			if !ok {
				log.Warnf("Skipping invalid seed URL %q for vendor %s", seed, cfg.Name)
				continue
			}
			if categoryFilter != "" && categoryFilter != domain.JobScopeAll {
				if CategoryForURL(normalized, cfg) != categoryFilter {
					continue
				}
			}
			frontier = append(frontier, frontierEntry{url: normalized, depth: 0})
		}

		pagesFetched := 0
		for len(frontier) > 0 {
			if ctx.Err() != nil {
				log.Infof("🛑 Crawl of %s cancelled after %d pages", cfg.Name, pagesFetched)
				return
			}
			if cfg.MaxPages > 0 && pagesFetched >= cfg.MaxPages {
				log.Infof("Crawl of %s reached max pages (%d)", cfg.Name, cfg.MaxPages)
				return
			}

			entry := frontier[0]
			frontier = frontier[1:]

			if visited[entry.url] {
				continue
			}
			visited[entry.url] = true

			doc, err := c.fetcher.Fetch(ctx, cfg.Name, entry.url, cfg.RequestDelay)
			pagesFetched++
			if err != nil {
				log.Warnf("⚠️ Skipping %s: %v", entry.url, err)
				continue
			}

			if IsProductPage(entry.url, cfg) {
				product := ExtractProduct(doc, entry.url, cfg)
				if product == nil {
					log.Debugf("No product name on %s, dropping", entry.url)
				} else if categoryMatches(product.Category, categoryFilter) {
					select {
					case out <- *product:
					case <-ctx.Done():
						return
					}
				}
				// Product pages can still link further into the catalog.
			}

			if entry.depth < cfg.MaxDepth {
				frontier = append(frontier, c.discoverLinks(doc, cfg, visited, entry.depth+1, categoryFilter)...)
			}
		}

		log.Infof("✅ Crawl of %s finished: %d pages visited", cfg.Name, pagesFetched)
	}()

	return out
}

// ScrapeProductFromURL fetches one known product URL and extracts it.
// Returns nil when the page is not extractable.
func (c *Crawler) ScrapeProductFromURL(ctx context.Context, url string, cfg vendors.Config) (*domain.ScrapedProduct, error) {
	doc, err := c.fetcher.Fetch(ctx, cfg.Name, url, cfg.RequestDelay)
	if err != nil {
		return nil, err
	}
	return ExtractProduct(doc, url, cfg), nil
}

func (c *Crawler) discoverLinks(doc *goquery.Document, cfg vendors.Config, visited map[string]bool, depth int, categoryFilter string) []frontierEntry {
	var discovered []frontierEntry

	doc.Find(cfg.LinkSelector).Each(func(i int, link *goquery.Selection) {
		href, exists := link.Attr("href")
		if !exists {
			return
		}
		normalized, ok := NormalizeURL(href, cfg)
		if !ok || visited[normalized] {
			return
		}
		for _, pattern := range cfg.ExcludePatterns {
			if pattern != "" && strings.Contains(normalized, pattern) {
				return
			}
		}
		if categoryFilter != "" && categoryFilter != domain.JobScopeAll {
			// Stay inside the filtered category subtree when the URL is
			// category-mapped; unmapped URLs (pagination etc.) pass through.
			if mapped := CategoryForURL(normalized, cfg); mapped != "" && mapped != categoryFilter {
				return
			}
		}
		discovered = append(discovered, frontierEntry{url: normalized, depth: depth})
	})

	return discovered
}

func categoryMatches(category, filter string) bool {
	if filter == "" || filter == domain.JobScopeAll {
		return true
	}
	return category == filter
}
