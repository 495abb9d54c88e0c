package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScrapedProduct is the transient extraction result for one vendor page.
// It carries no identity; dedup against the catalog is by name or SKU.
type ScrapedProduct struct {
	Vendor         string            `json:"vendor"`
	Category       string            `json:"category"` // taxonomy value or raw vendor category
	Name           string            `json:"name"`
	Brand          string            `json:"brand,omitempty"`
	SKU            string            `json:"sku,omitempty"`
	Description    string            `json:"description,omitempty"`
	ImageURL       string            `json:"image_url,omitempty"`
	Price          decimal.Decimal   `json:"price"`
	HasPrice       bool              `json:"has_price"`
	InStock        bool              `json:"in_stock"`
	URL            string            `json:"url"`
	Specifications map[string]string `json:"specifications,omitempty"`
}

type Product struct {
	ID             int64             `json:"id"`
	Name           string            `json:"name"`
	Category       Category          `json:"category"`
	Brand          string            `json:"brand,omitempty"`
	SKU            string            `json:"sku,omitempty"`
	Description    string            `json:"description,omitempty"`
	ImageURL       string            `json:"image_url,omitempty"`
	Specifications map[string]string `json:"specifications,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

type Vendor struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// VendorPrice is the one-row-per-(product, vendor) price snapshot.
// Upserted on every ingest, never duplicated.
type VendorPrice struct {
	ProductID   int64           `json:"product_id"`
	VendorID    int64           `json:"vendor_id"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	URL         string          `json:"url"`
	InStock     bool            `json:"in_stock"`
	LastUpdated time.Time       `json:"last_updated"`
}

// PriceHistory is an append-only time series point. Never updated or deleted.
type PriceHistory struct {
	ProductID  int64           `json:"product_id"`
	VendorID   int64           `json:"vendor_id"`
	Price      decimal.Decimal `json:"price"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// PriceStats summarizes PriceHistory over a trailing window.
type PriceStats struct {
	ProductID int64           `json:"product_id"`
	Min       decimal.Decimal `json:"min"`
	Max       decimal.Decimal `json:"max"`
	Avg       decimal.Decimal `json:"avg"`
	Samples   int             `json:"samples"`
}
