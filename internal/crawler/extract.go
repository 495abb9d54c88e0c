package crawler

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"dronepartpicker/scraper/internal/domain"
	"dronepartpicker/scraper/internal/vendors"
)

var priceNumberRegex = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ParsePrice turns vendor price text into a decimal by stripping currency
// symbols and thousands separators. ok=false when no number is present.
func ParsePrice(text string) (decimal.Decimal, bool) {
	cleaned := strings.NewReplacer("$", "", "€", "", "£", "", "¥", "", ",", "", " ", " ").Replace(text)
	match := priceNumberRegex.FindString(cleaned)
	if match == "" {
		return decimal.Zero, false
	}
	price, err := decimal.NewFromString(match)
	if err != nil {
		return decimal.Zero, false
	}
	return price, true
}

// selectText extracts trimmed text for a selector; the "selector@attr"
// form extracts an attribute instead.
func selectText(doc *goquery.Document, selector string) string {
	if selector == "" {
		return ""
	}
	if sel, attr, found := strings.Cut(selector, "@"); found {
		val, _ := doc.Find(sel).First().Attr(attr)
		return strings.TrimSpace(val)
	}
	return strings.TrimSpace(doc.Find(selector).First().Text())
}

// ExtractProduct pulls a ScrapedProduct out of a product page using the
// vendor's field selectors. A page with no parsable name yields nil; all
// other fields degrade to partial extraction.
func ExtractProduct(doc *goquery.Document, pageURL string, cfg vendors.Config) *domain.ScrapedProduct {
	name := selectText(doc, cfg.Selectors.Name)
	if name == "" {
		return nil
	}

	product := &domain.ScrapedProduct{
		Vendor:   cfg.Name,
		Category: CategoryForURL(pageURL, cfg),
		Name:     name,
		Brand:    selectText(doc, cfg.Selectors.Brand),
		SKU:      selectText(doc, cfg.Selectors.SKU),
		URL:      pageURL,
		InStock:  true,
	}

	if desc := selectText(doc, cfg.Selectors.Description); desc != "" {
		product.Description = desc
	}

	if img := selectText(doc, cfg.Selectors.Image); img != "" {
		if strings.HasPrefix(img, "//") {
			img = "https:" + img
		} else if strings.HasPrefix(img, "/") {
			img = cfg.BaseURL + img
		}
		product.ImageURL = img
	}

	// A page whose price cannot be parsed is kept without a price.
	if priceText := selectText(doc, cfg.Selectors.Price); priceText != "" {
		if price, ok := ParsePrice(priceText); ok {
			product.Price = price
			product.HasPrice = true
		}
	}

	if cfg.Selectors.InStock != "" {
		stockText := strings.ToLower(selectText(doc, cfg.Selectors.InStock))
		if cfg.Selectors.OutOfStockText != "" && strings.Contains(stockText, cfg.Selectors.OutOfStockText) {
			product.InStock = false
		}
	}

	product.Specifications = extractSpecifications(doc, cfg)

	return product
}

func extractSpecifications(doc *goquery.Document, cfg vendors.Config) map[string]string {
	if cfg.Selectors.SpecRows == "" {
		return nil
	}

	specs := make(map[string]string)
	doc.Find(cfg.Selectors.SpecRows).Each(func(i int, row *goquery.Selection) {
		key := strings.TrimSpace(row.Find(cfg.Selectors.SpecKey).First().Text())
		value := strings.TrimSpace(row.Find(cfg.Selectors.SpecValue).First().Text())
		if key != "" && value != "" {
			specs[normalizeSpecKey(key)] = value
		}
	})

	if len(specs) == 0 {
		return nil
	}
	return specs
}

// normalizeSpecKey lowercases and snake_cases vendor spec labels so the
// catalog carries a stable key set across vendors.
func normalizeSpecKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(key), ":")))
	key = strings.Join(strings.Fields(key), "_")
	return key
}
