package reconciliation

import (
	"github.com/sellerhub/backend/internal/domain/marketplace"
)

// ProductMapper is the per-marketplace field-mapping strategy. Adding a
// marketplace means registering one more mapper; the matching and grouping
// code never branches on marketplace names.
//
// The interface lives in the domain layer; concrete mappers (Trendyol,
// Hepsiburada, N11, Amazon) live in the infrastructure layer.
type ProductMapper interface {
	// Marketplace returns the marketplace this mapper handles
	Marketplace() marketplace.Code

	// ToCanonical maps a raw marketplace record to the canonical product.
	// Numeric coercion falls back to zero, missing optional fields stay empty,
	// and image references resolve to ImageRef regardless of source shape.
	// It returns marketplace.ErrUnmappableRecord when the record is missing
	// the required identity fields (name plus one of sku/barcode/external id).
	ToCanonical(raw marketplace.RawProduct) (*NormalizedProduct, error)

	// FromCanonical maps a canonical product back into the marketplace's own
	// record shape, for pushing updates out.
	FromCanonical(p *NormalizedProduct) marketplace.RawProduct
}

// MapperRegistry resolves the mapping strategy for a marketplace
type MapperRegistry interface {
	// Mapper returns the mapper for the given marketplace, or
	// marketplace.ErrMapperNotRegistered
	Mapper(code marketplace.Code) (ProductMapper, error)
}
