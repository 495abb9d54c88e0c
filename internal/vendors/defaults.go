package vendors

import "time"

// defaultVendors returns the built-in vendor set. Selectors track each
// site's storefront markup as of the last manual verification.
func defaultVendors() []Config {
	return []Config{
		{
			Name:    "getfpv",
			BaseURL: "https://www.getfpv.com",
			SeedURLs: []string{
				"https://www.getfpv.com/motors.html",
				"https://www.getfpv.com/frames.html",
				"https://www.getfpv.com/electronics/flight-controllers.html",
				"https://www.getfpv.com/fpv/cameras.html",
				"https://www.getfpv.com/propellers.html",
				"https://www.getfpv.com/batteries.html",
			},
			LinkSelector:          "a.product-item-link, .pages a, a.product-item-photo",
			ProductPageIndicators: []string{".html"},
			// Listing pages share the .html suffix with product pages;
			// exclude them by filename so only product detail pages extract.
			ExcludePatterns: []string{
				"/checkout", "/customer", "/wishlist", "/review", "?cat=", "/catalogsearch",
				"motors.html", "frames.html", "flight-controllers.html",
				"cameras.html", "propellers.html", "batteries.html",
			},
			MaxPages:              200,
			MaxDepth:              3,
			RequestDelay:          1500 * time.Millisecond,
			Selectors: FieldSelectors{
				Name:           "h1.page-title span",
				Price:          ".product-info-price .price",
				Brand:          ".product-info-brand a",
				SKU:            ".product.attribute.sku .value",
				Description:    ".product.attribute.description .value",
				Image:          ".gallery-placeholder img@src",
				InStock:        ".stock.available",
				OutOfStockText: "out of stock",
				SpecRows:       "#product-attribute-specs-table tbody tr",
				SpecKey:        "th",
				SpecValue:      "td",
			},
			CategoryPaths: map[string]string{
				"/motors":             "motor",
				"/frames":             "frame",
				"/flight-controllers": "stack",
				"/cameras":            "camera",
				"/propellers":         "prop",
				"/batteries":          "battery",
			},
			Currency: "USD",
		},
		{
			Name:    "racedayquads",
			BaseURL: "https://www.racedayquads.com",
			SeedURLs: []string{
				"https://www.racedayquads.com/collections/motors",
				"https://www.racedayquads.com/collections/frames",
				"https://www.racedayquads.com/collections/flight-controllers",
				"https://www.racedayquads.com/collections/fpv-cameras",
				"https://www.racedayquads.com/collections/props",
				"https://www.racedayquads.com/collections/batteries",
			},
			LinkSelector:          "a.product-item__title, a.pagination__next, a.product-item__image-wrapper",
			ProductPageIndicators: []string{"/products/"},
			ExcludePatterns:       []string{"/cart", "/account", "/policies", "/blogs", "/pages"},
			MaxPages:              200,
			MaxDepth:              3,
			RequestDelay:          1200 * time.Millisecond,
			Selectors: FieldSelectors{
				Name:           "h1.product-meta__title",
				Price:          ".price--highlight, .product-meta .price",
				Brand:          ".product-meta__vendor a",
				SKU:            ".product-meta__sku-number",
				Description:    ".product-block-list__item--description .rte",
				Image:          ".product-gallery__carousel-item img@src",
				InStock:        ".product-form__inventory",
				OutOfStockText: "sold out",
				SpecRows:       ".product-block-list__item--description table tr",
				SpecKey:        "td:first-child",
				SpecValue:      "td:last-child",
			},
			CategoryPaths: map[string]string{
				"/collections/motors":             "motor",
				"/collections/frames":             "frame",
				"/collections/flight-controllers": "stack",
				"/collections/fpv-cameras":        "camera",
				"/collections/props":              "prop",
				"/collections/batteries":          "battery",
			},
			Currency: "USD",
		},
		{
			Name:    "pyrodrone",
			BaseURL: "https://pyrodrone.com",
			SeedURLs: []string{
				"https://pyrodrone.com/collections/motors",
				"https://pyrodrone.com/collections/frames",
				"https://pyrodrone.com/collections/flight-controllers",
				"https://pyrodrone.com/collections/cameras",
				"https://pyrodrone.com/collections/propellers",
				"https://pyrodrone.com/collections/batteries",
			},
			LinkSelector:          "a.grid-product__link, .pagination a",
			ProductPageIndicators: []string{"/products/"},
			ExcludePatterns:       []string{"/cart", "/account", "/policies", "/pages", "/blogs"},
			MaxPages:              150,
			MaxDepth:              3,
			RequestDelay:          1500 * time.Millisecond,
			Selectors: FieldSelectors{
				Name:           "h1.product-single__title",
				Price:          ".product__price",
				Brand:          ".product-single__vendor a",
				SKU:            ".product-single__sku",
				Description:    ".product-single__description",
				Image:          ".product__main-photos img@src",
				InStock:        ".product__inventory",
				OutOfStockText: "sold out",
				SpecRows:       ".product-single__description table tr",
				SpecKey:        "td:first-child",
				SpecValue:      "td:last-child",
			},
			CategoryPaths: map[string]string{
				"/collections/motors":             "motor",
				"/collections/frames":             "frame",
				"/collections/flight-controllers": "stack",
				"/collections/cameras":            "camera",
				"/collections/propellers":         "prop",
				"/collections/batteries":          "battery",
			},
			Currency: "USD",
		},
	}
}
