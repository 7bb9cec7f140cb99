package marketplace

import (
	"testing"

	"github.com/sellerhub/backend/internal/domain/marketplace"
	"github.com/sellerhub/backend/internal/domain/reconciliation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapperRegistry(t *testing.T) {
	registry := NewMapperRegistry()

	for _, code := range marketplace.AllCodes() {
		m, err := registry.Mapper(code)
		require.NoError(t, err, code)
		assert.Equal(t, code, m.Marketplace())
	}

	_, err := registry.Mapper(marketplace.Code("EBAY"))
	assert.ErrorIs(t, err, marketplace.ErrMapperNotRegistered)
}

func TestTrendyolMapper_ToCanonical(t *testing.T) {
	raw := marketplace.RawProduct{
		"id":           123456789,
		"stockCode":    "SKU-1001",
		"barcode":      "8690000000017",
		"title":        "Stainless Steel Kettle 1.7L",
		"brand":        "Arzum",
		"salePrice":    "249.90",
		"listPrice":    "299.90",
		"quantity":     12,
		"description":  "1.7 litre kettle",
		"categoryName": "Small Appliances",
		"approved":     true,
		"images": []any{
			map[string]any{"url": "https://cdn.ty.com/1.jpg"},
			map[string]any{"url": "https://cdn.ty.com/2.jpg"},
		},
	}

	p, err := NewTrendyolMapper().ToCanonical(raw)
	require.NoError(t, err)

	assert.Equal(t, marketplace.CodeTrendyol, p.Marketplace)
	assert.Equal(t, "123456789", p.ExternalID)
	assert.Equal(t, "SKU-1001", p.SKU)
	assert.Equal(t, "8690000000017", p.Barcode)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("249.90")), "sale price wins over list price")
	assert.Equal(t, int64(12), p.Stock)
	assert.Equal(t, reconciliation.ListingStatusActive, p.Status)
	require.Len(t, p.Images, 2)
	assert.Equal(t, "https://cdn.ty.com/1.jpg", p.Images[0].URL)
	assert.True(t, p.Images[0].IsMain)
	assert.False(t, p.Images[1].IsMain)
}

func TestTrendyolMapper_StatusAndFallbacks(t *testing.T) {
	t.Run("archived wins over approved", func(t *testing.T) {
		p, err := NewTrendyolMapper().ToCanonical(marketplace.RawProduct{
			"id": "1", "title": "X", "archived": true, "approved": true,
		})
		require.NoError(t, err)
		assert.Equal(t, reconciliation.ListingStatusInactive, p.Status)
	})

	t.Run("unapproved is pending", func(t *testing.T) {
		p, err := NewTrendyolMapper().ToCanonical(marketplace.RawProduct{
			"id": "1", "title": "X",
		})
		require.NoError(t, err)
		assert.Equal(t, reconciliation.ListingStatusPending, p.Status)
	})

	t.Run("list price fallback", func(t *testing.T) {
		p, err := NewTrendyolMapper().ToCanonical(marketplace.RawProduct{
			"id": "1", "title": "X", "listPrice": "100",
		})
		require.NoError(t, err)
		assert.True(t, p.Price.Equal(decimal.NewFromInt(100)))
	})

	t.Run("unparseable price coerces to zero", func(t *testing.T) {
		p, err := NewTrendyolMapper().ToCanonical(marketplace.RawProduct{
			"id": "1", "title": "X", "salePrice": "n/a",
		})
		require.NoError(t, err)
		assert.True(t, p.Price.IsZero())
	})
}

func TestHepsiburadaMapper_ToCanonical(t *testing.T) {
	raw := marketplace.RawProduct{
		"hepsiburadaSku": "HBV00000ABC12",
		"merchantSku":    "SKU-1001",
		"barcode":        "8690000000017",
		"productName":    "Stainless Steel Kettle 1.7L",
		"brand":          "Arzum",
		"price":          249.9,
		"availableStock": "12",
		"status":         "ACTIVE",
		"images": []any{
			"https://images.hb.com/1.jpg",
			"https://images.hb.com/2.jpg",
		},
	}

	p, err := NewHepsiburadaMapper().ToCanonical(raw)
	require.NoError(t, err)

	assert.Equal(t, "HBV00000ABC12", p.ExternalID)
	assert.Equal(t, "SKU-1001", p.SKU)
	assert.Equal(t, int64(12), p.Stock, "string stock is coerced")
	assert.Equal(t, reconciliation.ListingStatusActive, p.Status)
	require.Len(t, p.Images, 2, "plain string image lists resolve to refs")
	assert.Equal(t, "https://images.hb.com/1.jpg", p.Images[0].URL)
}

func TestN11Mapper_ToCanonical(t *testing.T) {
	raw := marketplace.RawProduct{
		"id":                "998877",
		"productSellerCode": "SKU-1001",
		"gtin":              "8690000000017",
		"title":             "Stainless Steel Kettle 1.7L",
		"brand":             "Arzum",
		"displayPrice":      "249.90",
		"quantity":          12,
		"saleStatus":        "ACTIVE",
		"category":          map[string]any{"id": 1000, "name": "Small Appliances"},
		"images": map[string]any{
			"image": []any{
				map[string]any{"url": "https://n11img.com/1.jpg", "order": 1},
			},
		},
	}

	p, err := NewN11Mapper().ToCanonical(raw)
	require.NoError(t, err)

	assert.Equal(t, "998877", p.ExternalID)
	assert.Equal(t, "SKU-1001", p.SKU)
	assert.Equal(t, "8690000000017", p.Barcode)
	assert.Equal(t, "Small Appliances", p.Category)
	require.Len(t, p.Images, 1, "nested image wrapper resolves")
	assert.Equal(t, "https://n11img.com/1.jpg", p.Images[0].URL)
}

func TestAmazonMapper_ToCanonical(t *testing.T) {
	raw := marketplace.RawProduct{
		"asin":        "B0ABCDEF12",
		"sellerSku":   "SKU-1001",
		"ean":         "8690000000017",
		"itemName":    "Stainless Steel Kettle 1.7L",
		"brandName":   "Arzum",
		"price":       map[string]any{"amount": 249.9, "currencyCode": "TRY"},
		"quantity":    12,
		"status":      "BUYABLE",
		"productType": "KETTLE",
		"mainImage":   map[string]any{"link": "https://m.media-amazon.com/1.jpg"},
		"otherImages": []any{
			map[string]any{"link": "https://m.media-amazon.com/2.jpg"},
		},
	}

	p, err := NewAmazonMapper().ToCanonical(raw)
	require.NoError(t, err)

	assert.Equal(t, "B0ABCDEF12", p.ExternalID)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("249.9")), "nested price object resolves")
	assert.Equal(t, reconciliation.ListingStatusActive, p.Status)
	require.Len(t, p.Images, 2)
	assert.Equal(t, "https://m.media-amazon.com/1.jpg", p.Images[0].URL)
	assert.True(t, p.Images[0].IsMain)
}

func TestMappers_UnmappableRecord(t *testing.T) {
	registry := NewMapperRegistry()

	for _, code := range marketplace.AllCodes() {
		t.Run(code.String(), func(t *testing.T) {
			m, err := registry.Mapper(code)
			require.NoError(t, err)

			// a record with no name and no identity keys is dropped
			_, err = m.ToCanonical(marketplace.RawProduct{"quantity": 5})
			assert.ErrorIs(t, err, marketplace.ErrUnmappableRecord)
		})
	}
}

func TestMappers_RoundTripKeepsIdentity(t *testing.T) {
	registry := NewMapperRegistry()
	canonical := &reconciliation.NormalizedProduct{
		SKU:     "SKU-1001",
		Barcode: "8690000000017",
		Name:    "Stainless Steel Kettle 1.7L",
		Brand:   "Arzum",
		Price:   decimal.RequireFromString("249.90"),
		Stock:   12,
		Images: []reconciliation.ImageRef{
			{URL: "https://cdn.example.com/1.jpg", Order: 0, IsMain: true},
		},
	}

	for _, code := range marketplace.AllCodes() {
		t.Run(code.String(), func(t *testing.T) {
			m, err := registry.Mapper(code)
			require.NoError(t, err)

			canonical.Marketplace = code
			raw := m.FromCanonical(canonical)
			back, err := m.ToCanonical(raw)
			require.NoError(t, err)

			assert.Equal(t, canonical.SKU, back.SKU)
			assert.Equal(t, canonical.Name, back.Name)
			assert.True(t, back.Price.Equal(canonical.Price))
			assert.Equal(t, canonical.Stock, back.Stock)
		})
	}
}
