package variants

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"dronepartpicker/scraper/internal/domain"
	"dronepartpicker/scraper/internal/repository"
)

// ErrNoVariants is returned when a product has nothing to split.
var ErrNoVariants = errors.New("no variants detected")

// ErrProductNotFound is returned when the product id does not exist.
var ErrProductNotFound = errors.New("product not found")

// BuildDrafts decomposes a product into per-variant drafts. A product
// with no detected variants yields exactly one draft equal to itself.
func BuildDrafts(product *domain.Product) []domain.ProductDraft {
	base := domain.ProductDraft{
		Name:           product.Name,
		Category:       product.Category,
		Brand:          product.Brand,
		SKU:            product.SKU,
		Description:    product.Description,
		ImageURL:       product.ImageURL,
		Specifications: copySpecs(product.Specifications),
	}

	spec := DetectVariants(product.Name, product.Category)
	if spec == nil {
		return []domain.ProductDraft{base}
	}

	drafts := make([]domain.ProductDraft, 0, len(spec.Values))
	for _, value := range spec.Values {
		draft := base
		draft.Name = strings.Replace(product.Name, spec.Token, value, 1)
		draft.Specifications = copySpecs(product.Specifications)
		if draft.Specifications == nil {
			draft.Specifications = make(map[string]string)
		}
		draft.Specifications[spec.Dimension] = value
		drafts = append(drafts, draft)
	}

	return drafts
}

// Splitter performs the destructive persisted split: one new product per
// draft, every existing vendor price row copied to each, then the
// original product deleted. Not reversible.
type Splitter struct {
	repo repository.CatalogRepository
}

func NewSplitter(repo repository.CatalogRepository) *Splitter {
	return &Splitter{repo: repo}
}

func (s *Splitter) Split(ctx context.Context, productID int64) (*domain.SplitResult, error) {
	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: %d", ErrProductNotFound, productID)
	}

	drafts := BuildDrafts(product)
	if len(drafts) <= 1 {
		return nil, fmt.Errorf("%w: %s", ErrNoVariants, product.Name)
	}

	prices, err := s.repo.ListVendorPrices(ctx, productID)
	if err != nil {
		return nil, err
	}

	result := &domain.SplitResult{OriginalName: product.Name}
	for _, draft := range drafts {
		newID, err := s.repo.CreateProduct(ctx, draft)
		if err != nil {
			return nil, fmt.Errorf("failed to create variant %s: %w", draft.Name, err)
		}

		// Pricing is unknown per variant at split time; copy every row.
		for _, price := range prices {
			copied := price
			copied.ProductID = newID
			if err := s.repo.UpsertVendorPrice(ctx, copied); err != nil {
				return nil, fmt.Errorf("failed to copy vendor price to %s: %w", draft.Name, err)
			}
		}

		result.CreatedProducts = append(result.CreatedProducts, draft.Name)
		result.CreatedIDs = append(result.CreatedIDs, newID)
	}

	if err := s.repo.DeleteProduct(ctx, productID); err != nil {
		return nil, fmt.Errorf("failed to delete original product %d: %w", productID, err)
	}

	log.Infof("✅ Split %q into %d variants", result.OriginalName, len(result.CreatedProducts))
	return result, nil
}

// SplitOutcome reports one product's result within a batch split.
type SplitOutcome struct {
	Result *domain.SplitResult `json:"result,omitempty"`
	Error  string              `json:"error,omitempty"`
}

// SplitMany splits each product independently; one failure does not
// abort the batch.
func (s *Splitter) SplitMany(ctx context.Context, productIDs []int64) map[int64]SplitOutcome {
	outcomes := make(map[int64]SplitOutcome, len(productIDs))
	for _, id := range productIDs {
		result, err := s.Split(ctx, id)
		if err != nil {
			log.Warnf("⚠️ Split of product %d failed: %v", id, err)
			outcomes[id] = SplitOutcome{Error: err.Error()}
			continue
		}
		outcomes[id] = SplitOutcome{Result: result}
	}
	return outcomes
}

func copySpecs(specs map[string]string) map[string]string {
	if specs == nil {
		return nil
	}
	out := make(map[string]string, len(specs))
	for k, v := range specs {
		out[k] = v
	}
	return out
}
