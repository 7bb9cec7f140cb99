package marketplace

import (
	"github.com/sellerhub/backend/internal/domain/marketplace"
	"github.com/sellerhub/backend/internal/domain/reconciliation"
)

// TrendyolMapper maps Trendyol supplier-API product records.
// Trendyol carries the SKU as "stockCode", the price as "salePrice" and
// images as a list of {"url": ...} objects.
type TrendyolMapper struct{}

// NewTrendyolMapper creates a new TrendyolMapper
func NewTrendyolMapper() *TrendyolMapper {
	return &TrendyolMapper{}
}

// Marketplace returns the marketplace this mapper handles
func (m *TrendyolMapper) Marketplace() marketplace.Code {
	return marketplace.CodeTrendyol
}

// ToCanonical maps a raw Trendyol record to the canonical product
func (m *TrendyolMapper) ToCanonical(raw marketplace.RawProduct) (*reconciliation.NormalizedProduct, error) {
	price := raw.Decimal("salePrice")
	if price.IsZero() {
		price = raw.Decimal("listPrice")
	}

	return finish(&reconciliation.NormalizedProduct{
		Marketplace: marketplace.CodeTrendyol,
		ExternalID:  raw.String("id"),
		SKU:         raw.String("stockCode"),
		Barcode:     raw.String("barcode"),
		Name:        raw.String("title"),
		Brand:       raw.String("brand"),
		Price:       price,
		Stock:       raw.Int("quantity"),
		Description: raw.String("description"),
		Images:      imageRefs(raw.Slice("images")),
		Category:    raw.String("categoryName"),
		Status:      trendyolStatus(raw),
		Original:    raw,
	})
}

// FromCanonical maps a canonical product back into Trendyol's record shape
func (m *TrendyolMapper) FromCanonical(p *reconciliation.NormalizedProduct) marketplace.RawProduct {
	images := make([]any, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, map[string]any{"url": img.URL})
	}
	return marketplace.RawProduct{
		"barcode":     p.Barcode,
		"title":       p.Name,
		"brand":       p.Brand,
		"stockCode":   p.SKU,
		"salePrice":   p.Price.String(),
		"quantity":    p.Stock,
		"description": p.Description,
		"images":      images,
	}
}

func trendyolStatus(raw marketplace.RawProduct) reconciliation.ListingStatus {
	if archived, ok := raw["archived"].(bool); ok && archived {
		return reconciliation.ListingStatusInactive
	}
	if approved, ok := raw["approved"].(bool); ok && approved {
		return reconciliation.ListingStatusActive
	}
	return reconciliation.ListingStatusPending
}

// Ensure TrendyolMapper implements ProductMapper
var _ reconciliation.ProductMapper = (*TrendyolMapper)(nil)
