package domain

// VariantSpec describes one detected varying dimension inside a listing
// name, e.g. dimension "kv" with values ["1750KV", "2000KV", "2300KV"].
type VariantSpec struct {
	Dimension string   `json:"dimension"` // specification key the values belong to
	Token     string   `json:"token"`     // raw compound token found in the name
	Values    []string `json:"values"`
}

// ProductDraft is one post-split product candidate. Drafts are not
// persisted by the detector; the splitter turns them into Products.
type ProductDraft struct {
	Name           string            `json:"name"`
	Category       Category          `json:"category"`
	Brand          string            `json:"brand,omitempty"`
	SKU            string            `json:"sku,omitempty"`
	Description    string            `json:"description,omitempty"`
	ImageURL       string            `json:"image_url,omitempty"`
	Specifications map[string]string `json:"specifications,omitempty"`
}

// SplitResult reports the outcome of splitting one persisted product.
type SplitResult struct {
	OriginalName    string   `json:"original_name"`
	CreatedProducts []string `json:"created_products"`
	CreatedIDs      []int64  `json:"created_ids"`
}
