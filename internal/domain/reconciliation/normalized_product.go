package reconciliation

import (
	"fmt"

	"github.com/sellerhub/backend/internal/domain/marketplace"
	"github.com/sellerhub/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ListingStatus represents the status of a listing on its marketplace
type ListingStatus string

const (
	ListingStatusActive   ListingStatus = "active"
	ListingStatusPending  ListingStatus = "pending"
	ListingStatusInactive ListingStatus = "inactive"
)

// IsValid returns true if the status is valid
func (s ListingStatus) IsValid() bool {
	switch s {
	case ListingStatusActive, ListingStatusPending, ListingStatusInactive:
		return true
	default:
		return false
	}
}

// ImageRef is one product image with a fixed shape. Every marketplace's image
// representation is resolved into this at the normalization boundary.
type ImageRef struct {
	URL    string `json:"url"`
	Order  int    `json:"order"`
	IsMain bool   `json:"is_main"`
}

// NormalizedProduct is the canonical view of one listing from one marketplace.
// It is created fresh on every reconciliation run, never mutated, and never
// persisted directly.
type NormalizedProduct struct {
	// Marketplace is the source marketplace
	Marketplace marketplace.Code `json:"marketplace"`
	// ExternalID is the marketplace's native product id
	ExternalID string `json:"external_id"`
	// SKU is the seller-defined stock keeping unit code
	SKU string `json:"sku"`
	// Barcode is the manufacturer-assigned code (EAN/UPC)
	Barcode string `json:"barcode"`
	// Name is the listing title
	Name string `json:"name"`
	// Brand is the brand name
	Brand string `json:"brand"`
	// Price is the listing price, pre-converted to the system currency
	Price decimal.Decimal `json:"price"`
	// Stock is the available quantity
	Stock int64 `json:"stock"`
	// Description is the listing description
	Description string `json:"description"`
	// Images are the listing images in display order
	Images []ImageRef `json:"images,omitempty"`
	// Category is the marketplace category name
	Category string `json:"category,omitempty"`
	// Status is the listing status
	Status ListingStatus `json:"status"`
	// Original is the raw record this product was normalized from, kept for traceability
	Original marketplace.RawProduct `json:"-"`
}

// ProductIdentity identifies one listing within one fetch batch
type ProductIdentity struct {
	Marketplace marketplace.Code
	Key         string
}

// Identity returns the claim key for this product: the marketplace plus its
// native id, falling back to the SKU and then the barcode when the preceding
// fields are absent. Any product passing HasIdentity yields a non-empty key.
func (p *NormalizedProduct) Identity() ProductIdentity {
	key := p.ExternalID
	if key == "" {
		key = p.SKU
	}
	if key == "" {
		key = p.Barcode
	}
	return ProductIdentity{Marketplace: p.Marketplace, Key: key}
}

// HasIdentity returns true if the record carries the minimum identity fields:
// a name plus at least one of SKU, barcode, or the marketplace's native id.
func (p *NormalizedProduct) HasIdentity() bool {
	if p.Name == "" {
		return false
	}
	return p.SKU != "" || p.Barcode != "" || p.ExternalID != ""
}

// Validate checks the post-normalization contract. A violation here is a
// programming error in a mapper, not bad marketplace data, so it is fatal for
// the current run.
func (p *NormalizedProduct) Validate() error {
	if !p.Marketplace.IsValid() {
		return shared.NewDomainError("INVALID_MARKETPLACE", fmt.Sprintf("Unknown marketplace %q", p.Marketplace))
	}
	if p.Price.IsNegative() {
		return shared.NewDomainError("NEGATIVE_PRICE", fmt.Sprintf("Product %s has negative price %s after normalization", p.Identity().Key, p.Price))
	}
	if p.Stock < 0 {
		return shared.NewDomainError("NEGATIVE_STOCK", fmt.Sprintf("Product %s has negative stock %d after normalization", p.Identity().Key, p.Stock))
	}
	if !p.Status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Product %s has invalid status %q", p.Identity().Key, p.Status))
	}
	return nil
}
