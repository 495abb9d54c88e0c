package ingest

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"dronepartpicker/scraper/internal/classifier"
	"dronepartpicker/scraper/internal/domain"
	"dronepartpicker/scraper/internal/repository"
)

// Pipeline reconciles a stream of scraped products against the catalog.
// Item failures are counted and skipped; they never abort the run.
type Pipeline struct {
	repo repository.CatalogRepository
}

func NewPipeline(repo repository.CatalogRepository) *Pipeline {
	return &Pipeline{repo: repo}
}

// Run consumes the product stream for one job and returns the per-item
// counters. Found always equals created + updated + errors.
func (p *Pipeline) Run(ctx context.Context, products <-chan domain.ScrapedProduct, currency string) domain.JobCounters {
	var counters domain.JobCounters
	vendorIDs := make(map[string]int64)

	for product := range products {
		counters.Found++
		created, err := p.ingestOne(ctx, &product, currency, vendorIDs)
		if err != nil {
			counters.Errors++
			log.Errorf("❌ Failed to ingest %q from %s: %v", product.Name, product.Vendor, err)
			continue
		}
		if created {
			counters.Created++
		} else {
			counters.Updated++
		}
	}

	return counters
}

// ingestOne upserts one scraped product. Returns true when a new catalog
// product was created, false when an existing one was updated.
func (p *Pipeline) ingestOne(ctx context.Context, scraped *domain.ScrapedProduct, currency string, vendorIDs map[string]int64) (bool, error) {
	vendorID, ok := vendorIDs[scraped.Vendor]
	if !ok {
		var err error
		vendorID, err = p.repo.UpsertVendor(ctx, scraped.Vendor)
		if err != nil {
			return false, err
		}
		vendorIDs[scraped.Vendor] = vendorID
	}

	category := resolveCategory(scraped)

	existing, err := p.repo.FindProductByNameOrSKU(ctx, scraped.Name, scraped.SKU)
	if err != nil {
		return false, err
	}

	var productID int64
	createdNew := false
	if existing == nil {
		productID, err = p.repo.CreateProduct(ctx, domain.ProductDraft{
			Name:           scraped.Name,
			Category:       category,
			Brand:          scraped.Brand,
			SKU:            scraped.SKU,
			Description:    scraped.Description,
			ImageURL:       scraped.ImageURL,
			Specifications: scraped.Specifications,
		})
		if err != nil {
			return false, err
		}
		createdNew = true
		log.Debugf("Created product %q (%s)", scraped.Name, category)
	} else {
		merged := mergeProduct(existing, scraped, category)
		if err := p.repo.UpdateProduct(ctx, merged); err != nil {
			return false, err
		}
		productID = existing.ID
		log.Debugf("Updated product %q (id %d)", scraped.Name, existing.ID)
	}

	if scraped.HasPrice {
		err = p.repo.UpsertVendorPrice(ctx, domain.VendorPrice{
			ProductID:   productID,
			VendorID:    vendorID,
			Price:       scraped.Price,
			Currency:    currency,
			URL:         scraped.URL,
			InStock:     scraped.InStock,
			LastUpdated: time.Now().UTC(),
		})
		if err != nil {
			return createdNew, err
		}

		// History always appends, even when the price is unchanged.
		if err := p.repo.AppendPriceHistory(ctx, productID, vendorID, scraped.Price); err != nil {
			return createdNew, err
		}
	}

	return createdNew, nil
}

// resolveCategory trusts a valid taxonomy value from the crawl and
// classifies everything else from the listing text.
func resolveCategory(scraped *domain.ScrapedProduct) domain.Category {
	if category := domain.Category(scraped.Category); category.IsValid() {
		return category
	}
	return classifier.Classify(scraped.Name, scraped.Description, scraped.URL)
}

// mergeProduct applies incoming descriptive fields over the existing
// product, letting unset incoming fields fall back to existing values.
func mergeProduct(existing *domain.Product, scraped *domain.ScrapedProduct, category domain.Category) *domain.Product {
	merged := *existing
	merged.Category = category
	if scraped.Brand != "" {
		merged.Brand = scraped.Brand
	}
	if scraped.SKU != "" {
		merged.SKU = scraped.SKU
	}
	if scraped.Description != "" {
		merged.Description = scraped.Description
	}
	if scraped.ImageURL != "" {
		merged.ImageURL = scraped.ImageURL
	}
	if len(scraped.Specifications) > 0 {
		specs := make(map[string]string, len(existing.Specifications)+len(scraped.Specifications))
		for k, v := range existing.Specifications {
			specs[k] = v
		}
		for k, v := range scraped.Specifications {
			specs[k] = v
		}
		merged.Specifications = specs
	}
	return &merged
}
