package reconciliation

import (
	"time"

	"github.com/google/uuid"
	"github.com/sellerhub/backend/internal/domain/marketplace"
	"github.com/sellerhub/backend/internal/domain/shared"
	"github.com/sellerhub/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ReconciledProduct is the canonical product record owning one listing per
// marketplace it appears on. It is the aggregate root for reconciliation
// persistence and is only ever created or updated by the reconciliation
// writer.
type ReconciledProduct struct {
	shared.SellerAggregateRoot
	Name        string               `gorm:"type:varchar(200);not null;index:idx_reconciled_seller_name,priority:2"`
	Brand       string               `gorm:"type:varchar(100)"`
	Description string               `gorm:"type:text"`
	Barcode     string               `gorm:"type:varchar(50);index"`
	TotalStock  int64                `gorm:"not null;default:0"`
	Price       decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"` // master member's price
	Listings    []MarketplaceListing `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (ReconciledProduct) TableName() string {
	return "reconciled_products"
}

// MarketplaceListing records how a canonical product appears on one
// marketplace: the marketplace-native id, SKU, price, and stock.
type MarketplaceListing struct {
	shared.BaseEntity
	ProductID        uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_listing_product_marketplace,priority:1"`
	Marketplace      marketplace.Code `gorm:"type:varchar(20);not null;uniqueIndex:idx_listing_product_marketplace,priority:2"`
	ExternalID       string           `gorm:"type:varchar(100);not null"`
	SKU              string           `gorm:"type:varchar(100);index"`
	Price            decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	Stock            int64            `gorm:"not null;default:0"`
	Status           ListingStatus    `gorm:"type:varchar(20);not null;default:'active'"`
	LastReconciledAt time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MarketplaceListing) TableName() string {
	return "marketplace_listings"
}

// NewReconciledProduct creates a canonical product seeded from the master
// member of a group (or of a single).
func NewReconciledProduct(sellerID uuid.UUID, master *NormalizedProduct) (*ReconciledProduct, error) {
	if master == nil || !master.HasIdentity() {
		return nil, shared.NewDomainError("INVALID_MASTER", "Canonical product requires a master listing with identity")
	}
	if err := master.Validate(); err != nil {
		return nil, err
	}

	return &ReconciledProduct{
		SellerAggregateRoot: shared.NewSellerAggregateRoot(sellerID),
		Name:                master.Name,
		Brand:               master.Brand,
		Description:         master.Description,
		Barcode:             master.Barcode,
		Price:               master.Price,
	}, nil
}

// ApplyMaster overwrites the canonical descriptive fields from a (new) master
// member. Used when OverwriteExisting is set on an existing canonical record.
func (p *ReconciledProduct) ApplyMaster(master *NormalizedProduct) {
	p.Name = master.Name
	if master.Brand != "" {
		p.Brand = master.Brand
	}
	if master.Description != "" {
		p.Description = master.Description
	}
	if master.Barcode != "" {
		p.Barcode = master.Barcode
	}
	p.Price = master.Price
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// UpsertListing writes one member's marketplace listing onto the canonical
// product, keyed by (product, marketplace). An existing listing is updated
// only when overwrite is true. Returns true when a new listing row was added.
func (p *ReconciledProduct) UpsertListing(member *NormalizedProduct, overwrite bool, now time.Time) bool {
	for i := range p.Listings {
		if p.Listings[i].Marketplace != member.Marketplace {
			continue
		}
		if overwrite {
			p.Listings[i].ExternalID = member.ExternalID
			p.Listings[i].SKU = member.SKU
			p.Listings[i].Price = member.Price
			p.Listings[i].Stock = member.Stock
			p.Listings[i].Status = member.Status
			p.Listings[i].LastReconciledAt = now
			p.Listings[i].UpdatedAt = now
			p.UpdatedAt = now
			p.IncrementVersion()
		}
		return false
	}

	p.Listings = append(p.Listings, MarketplaceListing{
		BaseEntity:       shared.NewBaseEntity(),
		ProductID:        p.ID,
		Marketplace:      member.Marketplace,
		ExternalID:       member.ExternalID,
		SKU:              member.SKU,
		Price:            member.Price,
		Stock:            member.Stock,
		Status:           member.Status,
		LastReconciledAt: now,
	})
	p.UpdatedAt = now
	p.IncrementVersion()
	return true
}

// RecalculateTotalStock sets the canonical stock to the sum of all listing
// stocks.
func (p *ReconciledProduct) RecalculateTotalStock() {
	var total int64
	for i := range p.Listings {
		total += p.Listings[i].Stock
	}
	p.TotalStock = total
}

// HasListingOn returns true if the product already has a listing on the
// marketplace.
func (p *ReconciledProduct) HasListingOn(code marketplace.Code) bool {
	for i := range p.Listings {
		if p.Listings[i].Marketplace == code {
			return true
		}
	}
	return false
}

// GetPriceMoney returns the canonical price as a Money value object
func (p *ReconciledProduct) GetPriceMoney() valueobject.Money {
	return valueobject.NewMoneyTRY(p.Price)
}
