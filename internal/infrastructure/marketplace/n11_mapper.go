package marketplace

import (
	"strings"

	"github.com/sellerhub/backend/internal/domain/marketplace"
	"github.com/sellerhub/backend/internal/domain/reconciliation"
)

// N11Mapper maps N11 product-API records.
// N11 nests images one level deeper ({"images": {"image": [...]}}), wraps the
// category in an object and calls the SKU "productSellerCode".
type N11Mapper struct{}

// NewN11Mapper creates a new N11Mapper
func NewN11Mapper() *N11Mapper {
	return &N11Mapper{}
}

// Marketplace returns the marketplace this mapper handles
func (m *N11Mapper) Marketplace() marketplace.Code {
	return marketplace.CodeN11
}

// ToCanonical maps a raw N11 record to the canonical product
func (m *N11Mapper) ToCanonical(raw marketplace.RawProduct) (*reconciliation.NormalizedProduct, error) {
	var images []any
	if wrapper := raw.Map("images"); wrapper != nil {
		images = wrapper.Slice("image")
	}

	category := ""
	if c := raw.Map("category"); c != nil {
		category = c.String("name")
	}

	return finish(&reconciliation.NormalizedProduct{
		Marketplace: marketplace.CodeN11,
		ExternalID:  raw.String("id"),
		SKU:         raw.String("productSellerCode"),
		Barcode:     raw.String("gtin"),
		Name:        raw.String("title"),
		Brand:       raw.String("brand"),
		Price:       raw.Decimal("displayPrice"),
		Stock:       raw.Int("quantity"),
		Description: raw.String("description"),
		Images:      imageRefs(images),
		Category:    category,
		Status:      n11Status(raw.String("saleStatus")),
		Original:    raw,
	})
}

// FromCanonical maps a canonical product back into N11's record shape
func (m *N11Mapper) FromCanonical(p *reconciliation.NormalizedProduct) marketplace.RawProduct {
	images := make([]any, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, map[string]any{"url": img.URL, "order": img.Order})
	}
	return marketplace.RawProduct{
		"productSellerCode": p.SKU,
		"gtin":              p.Barcode,
		"title":             p.Name,
		"brand":             p.Brand,
		"displayPrice":      p.Price.String(),
		"quantity":          p.Stock,
		"description":       p.Description,
		"images":            map[string]any{"image": images},
	}
}

func n11Status(status string) reconciliation.ListingStatus {
	switch strings.ToUpper(status) {
	case "ACTIVE", "ON_SALE":
		return reconciliation.ListingStatusActive
	case "SUSPENDED", "PROHIBITED", "UNLISTED":
		return reconciliation.ListingStatusInactive
	default:
		return reconciliation.ListingStatusPending
	}
}

// Ensure N11Mapper implements ProductMapper
var _ reconciliation.ProductMapper = (*N11Mapper)(nil)
