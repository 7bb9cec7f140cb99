package marketplace

import (
	"strings"

	"github.com/sellerhub/backend/internal/domain/marketplace"
	"github.com/sellerhub/backend/internal/domain/reconciliation"
)

// AmazonMapper maps Amazon SP-API listing records.
// Amazon identifies the product by ASIN, nests the price in a
// {"amount", "currencyCode"} object and splits images into "mainImage" plus
// "otherImages".
type AmazonMapper struct{}

// NewAmazonMapper creates a new AmazonMapper
func NewAmazonMapper() *AmazonMapper {
	return &AmazonMapper{}
}

// Marketplace returns the marketplace this mapper handles
func (m *AmazonMapper) Marketplace() marketplace.Code {
	return marketplace.CodeAmazon
}

// ToCanonical maps a raw Amazon record to the canonical product
func (m *AmazonMapper) ToCanonical(raw marketplace.RawProduct) (*reconciliation.NormalizedProduct, error) {
	price := raw.Decimal("price")
	if p := raw.Map("price"); p != nil {
		price = p.Decimal("amount")
	}

	barcode := raw.String("ean")
	if barcode == "" {
		barcode = raw.String("upc")
	}

	images := make([]any, 0)
	if main := raw.Map("mainImage"); main != nil {
		images = append(images, map[string]any(main))
	}
	images = append(images, raw.Slice("otherImages")...)

	return finish(&reconciliation.NormalizedProduct{
		Marketplace: marketplace.CodeAmazon,
		ExternalID:  raw.String("asin"),
		SKU:         raw.String("sellerSku"),
		Barcode:     barcode,
		Name:        raw.String("itemName"),
		Brand:       raw.String("brandName"),
		Price:       price,
		Stock:       raw.Int("quantity"),
		Description: raw.String("productDescription"),
		Images:      imageRefs(images),
		Category:    raw.String("productType"),
		Status:      amazonStatus(raw.String("status")),
		Original:    raw,
	})
}

// FromCanonical maps a canonical product back into Amazon's record shape
func (m *AmazonMapper) FromCanonical(p *reconciliation.NormalizedProduct) marketplace.RawProduct {
	raw := marketplace.RawProduct{
		"sellerSku":          p.SKU,
		"ean":                p.Barcode,
		"itemName":           p.Name,
		"brandName":          p.Brand,
		"price":              map[string]any{"amount": p.Price.String(), "currencyCode": "TRY"},
		"quantity":           p.Stock,
		"productDescription": p.Description,
	}
	if len(p.Images) > 0 {
		raw["mainImage"] = map[string]any{"link": p.Images[0].URL}
		others := make([]any, 0, len(p.Images)-1)
		for _, img := range p.Images[1:] {
			others = append(others, map[string]any{"link": img.URL})
		}
		raw["otherImages"] = others
	}
	return raw
}

func amazonStatus(status string) reconciliation.ListingStatus {
	switch strings.ToUpper(status) {
	case "ACTIVE", "BUYABLE", "DISCOVERABLE":
		return reconciliation.ListingStatusActive
	case "INACTIVE", "DELETED":
		return reconciliation.ListingStatusInactive
	default:
		return reconciliation.ListingStatusPending
	}
}

// Ensure AmazonMapper implements ProductMapper
var _ reconciliation.ProductMapper = (*AmazonMapper)(nil)
