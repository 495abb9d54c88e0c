package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"dronepartpicker/scraper/internal/domain"
)

// ProductURL is the minimal row set the price-only refresh needs.
type ProductURL struct {
	ProductID int64
	VendorID  int64
	URL       string
	Name      string
}

type CatalogRepository interface {
	UpsertVendor(ctx context.Context, name string) (int64, error)
	FindProductByNameOrSKU(ctx context.Context, name, sku string) (*domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	CreateProduct(ctx context.Context, draft domain.ProductDraft) (int64, error)
	UpdateProduct(ctx context.Context, product *domain.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	UpsertVendorPrice(ctx context.Context, price domain.VendorPrice) error
	ListVendorPrices(ctx context.Context, productID int64) ([]domain.VendorPrice, error)
	ListProductURLs(ctx context.Context, vendorID int64) ([]ProductURL, error)
	AppendPriceHistory(ctx context.Context, productID, vendorID int64, price decimal.Decimal) error
	PriceStats(ctx context.Context, productID int64, window time.Duration) (*domain.PriceStats, error)
}

type catalogRepository struct {
	db *pgxpool.Pool
}

func NewCatalogRepository(db *pgxpool.Pool) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) UpsertVendor(ctx context.Context, name string) (int64, error) {
	query := `
	INSERT INTO vendors (name)
	VALUES ($1)
	ON CONFLICT (name)
	DO UPDATE SET name = EXCLUDED.name
	RETURNING id`

	var id int64
	if err := r.db.QueryRow(ctx, query, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to upsert vendor %s: %w", name, err)
	}
	return id, nil
}

func (r *catalogRepository) FindProductByNameOrSKU(ctx context.Context, name, sku string) (*domain.Product, error) {
	query := `
	SELECT id, name, category, brand, sku, description, image_url, specifications, created_at, updated_at
	FROM products
	WHERE name = $1 OR (sku <> '' AND sku = $2)
	ORDER BY (name = $1) DESC
	LIMIT 1`

	product, err := r.scanProduct(r.db.QueryRow(ctx, query, name, sku))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product by name or sku: %w", err)
	}
	return product, nil
}

func (r *catalogRepository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
	SELECT id, name, category, brand, sku, description, image_url, specifications, created_at, updated_at
	FROM products
	WHERE id = $1`

	product, err := r.scanProduct(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	return product, nil
}

func (r *catalogRepository) CreateProduct(ctx context.Context, draft domain.ProductDraft) (int64, error) {
	specs, err := marshalSpecs(draft.Specifications)
	if err != nil {
		return 0, err
	}

	query := `
	INSERT INTO products (name, category, brand, sku, description, image_url, specifications, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
	RETURNING id`

	var id int64
	err = r.db.QueryRow(ctx, query,
		draft.Name, draft.Category.String(), draft.Brand, draft.SKU,
		draft.Description, draft.ImageURL, specs,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create product %s: %w", draft.Name, err)
	}
	return id, nil
}

func (r *catalogRepository) UpdateProduct(ctx context.Context, product *domain.Product) error {
	specs, err := marshalSpecs(product.Specifications)
	if err != nil {
		return err
	}

	query := `
	UPDATE products
	SET name = $2, category = $3, brand = $4, sku = $5, description = $6,
	    image_url = $7, specifications = $8, updated_at = now()
	WHERE id = $1`

	_, err = r.db.Exec(ctx, query,
		product.ID, product.Name, product.Category.String(), product.Brand,
		product.SKU, product.Description, product.ImageURL, specs,
	)
	if err != nil {
		return fmt.Errorf("failed to update product %d: %w", product.ID, err)
	}
	return nil
}

func (r *catalogRepository) DeleteProduct(ctx context.Context, id int64) error {
	// vendor_prices and price_history cascade at the schema level.
	if _, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	return nil
}

func (r *catalogRepository) UpsertVendorPrice(ctx context.Context, price domain.VendorPrice) error {
	query := `
	INSERT INTO vendor_prices (product_id, vendor_id, price, currency, url, in_stock, last_updated)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (product_id, vendor_id)
	DO UPDATE SET price = $3, currency = $4, url = $5, in_stock = $6, last_updated = $7`

	_, err := r.db.Exec(ctx, query,
		price.ProductID, price.VendorID, price.Price, price.Currency,
		price.URL, price.InStock, price.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert vendor price (%d, %d): %w", price.ProductID, price.VendorID, err)
	}
	return nil
}

func (r *catalogRepository) ListVendorPrices(ctx context.Context, productID int64) ([]domain.VendorPrice, error) {
	query := `
	SELECT product_id, vendor_id, price, currency, url, in_stock, last_updated
	FROM vendor_prices
	WHERE product_id = $1`

	rows, err := r.db.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vendor prices for product %d: %w", productID, err)
	}
	defer rows.Close()

	var prices []domain.VendorPrice
	for rows.Next() {
		var price domain.VendorPrice
		if err := rows.Scan(&price.ProductID, &price.VendorID, &price.Price,
			&price.Currency, &price.URL, &price.InStock, &price.LastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan vendor price: %w", err)
		}
		prices = append(prices, price)
	}
	return prices, rows.Err()
}

func (r *catalogRepository) ListProductURLs(ctx context.Context, vendorID int64) ([]ProductURL, error) {
	query := `
	SELECT vp.product_id, vp.vendor_id, vp.url, p.name
	FROM vendor_prices vp
	JOIN products p ON p.id = vp.product_id
	WHERE vp.vendor_id = $1 AND vp.url <> ''`

	rows, err := r.db.Query(ctx, query, vendorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list product urls for vendor %d: %w", vendorID, err)
	}
	defer rows.Close()

	var urls []ProductURL
	for rows.Next() {
		var u ProductURL
		if err := rows.Scan(&u.ProductID, &u.VendorID, &u.URL, &u.Name); err != nil {
			return nil, fmt.Errorf("failed to scan product url: %w", err)
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

func (r *catalogRepository) AppendPriceHistory(ctx context.Context, productID, vendorID int64, price decimal.Decimal) error {
	query := `
	INSERT INTO price_history (product_id, vendor_id, price, recorded_at)
	VALUES ($1, $2, $3, now())`

	if _, err := r.db.Exec(ctx, query, productID, vendorID, price); err != nil {
		return fmt.Errorf("failed to append price history (%d, %d): %w", productID, vendorID, err)
	}
	return nil
}

func (r *catalogRepository) PriceStats(ctx context.Context, productID int64, window time.Duration) (*domain.PriceStats, error) {
	query := `
	SELECT COALESCE(MIN(price), 0), COALESCE(MAX(price), 0), COALESCE(AVG(price), 0), COUNT(*)
	FROM price_history
	WHERE product_id = $1 AND recorded_at >= now() - $2::interval`

	stats := &domain.PriceStats{ProductID: productID}
	interval := fmt.Sprintf("%d seconds", int(window.Seconds()))
	err := r.db.QueryRow(ctx, query, productID, interval).
		Scan(&stats.Min, &stats.Max, &stats.Avg, &stats.Samples)
	if err != nil {
		return nil, fmt.Errorf("failed to compute price stats for product %d: %w", productID, err)
	}
	return stats, nil
}

func (r *catalogRepository) scanProduct(row pgx.Row) (*domain.Product, error) {
	var product domain.Product
	var specs []byte
	err := row.Scan(&product.ID, &product.Name, &product.Category, &product.Brand,
		&product.SKU, &product.Description, &product.ImageURL, &specs,
		&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(specs) > 0 {
		if err := json.Unmarshal(specs, &product.Specifications); err != nil {
			return nil, fmt.Errorf("failed to decode specifications: %w", err)
		}
	}
	return &product, nil
}

func marshalSpecs(specs map[string]string) ([]byte, error) {
	if specs == nil {
		specs = map[string]string{}
	}
	data, err := json.Marshal(specs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode specifications: %w", err)
	}
	return data, nil
}
