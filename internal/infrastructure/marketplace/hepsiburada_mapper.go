package marketplace

import (
	"strings"

	"github.com/sellerhub/backend/internal/domain/marketplace"
	"github.com/sellerhub/backend/internal/domain/reconciliation"
)

// HepsiburadaMapper maps Hepsiburada listing-API product records.
// Hepsiburada keys the record by "merchantSku", names the product
// "productName" and sends images as a plain list of URL strings.
type HepsiburadaMapper struct{}

// NewHepsiburadaMapper creates a new HepsiburadaMapper
func NewHepsiburadaMapper() *HepsiburadaMapper {
	return &HepsiburadaMapper{}
}

// Marketplace returns the marketplace this mapper handles
func (m *HepsiburadaMapper) Marketplace() marketplace.Code {
	return marketplace.CodeHepsiburada
}

// ToCanonical maps a raw Hepsiburada record to the canonical product
func (m *HepsiburadaMapper) ToCanonical(raw marketplace.RawProduct) (*reconciliation.NormalizedProduct, error) {
	return finish(&reconciliation.NormalizedProduct{
		Marketplace: marketplace.CodeHepsiburada,
		ExternalID:  raw.String("hepsiburadaSku"),
		SKU:         raw.String("merchantSku"),
		Barcode:     raw.String("barcode"),
		Name:        raw.String("productName"),
		Brand:       raw.String("brand"),
		Price:       raw.Decimal("price"),
		Stock:       raw.Int("availableStock"),
		Description: raw.String("description"),
		Images:      imageRefs(raw.Slice("images")),
		Category:    raw.String("categoryName"),
		Status:      hepsiburadaStatus(raw.String("status")),
		Original:    raw,
	})
}

// FromCanonical maps a canonical product back into Hepsiburada's record shape
func (m *HepsiburadaMapper) FromCanonical(p *reconciliation.NormalizedProduct) marketplace.RawProduct {
	images := make([]any, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, img.URL)
	}
	return marketplace.RawProduct{
		"merchantSku":    p.SKU,
		"barcode":        p.Barcode,
		"productName":    p.Name,
		"brand":          p.Brand,
		"price":          p.Price.String(),
		"availableStock": p.Stock,
		"description":    p.Description,
		"images":         images,
	}
}

func hepsiburadaStatus(status string) reconciliation.ListingStatus {
	switch strings.ToUpper(status) {
	case "ACTIVE", "ONSALE":
		return reconciliation.ListingStatusActive
	case "PASSIVE", "SUSPENDED", "BLOCKED":
		return reconciliation.ListingStatusInactive
	default:
		return reconciliation.ListingStatusPending
	}
}

// Ensure HepsiburadaMapper implements ProductMapper
var _ reconciliation.ProductMapper = (*HepsiburadaMapper)(nil)
