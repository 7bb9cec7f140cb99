package reconciliation

import (
	"testing"

	"github.com/sellerhub/backend/internal/domain/marketplace"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProduct(code marketplace.Code, mutate func(*NormalizedProduct)) *NormalizedProduct {
	p := &NormalizedProduct{
		Marketplace: code,
		ExternalID:  "ext-1",
		SKU:         "SKU-1000",
		Barcode:     "8690000000017",
		Name:        "Stainless Steel Kettle 1.7L",
		Brand:       "Arzum",
		Price:       decimal.NewFromInt(100),
		Stock:       10,
		Status:      ListingStatusActive,
	}
	if mutate != nil {
		mutate(p)
	}
	return p
}

func TestMatchingOptions_Validate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, DefaultMatchingOptions().Validate())
	})

	t.Run("rejects zero threshold", func(t *testing.T) {
		opts := MatchingOptions{SimilarityThreshold: 0}
		require.Error(t, opts.Validate())
	})

	t.Run("rejects threshold above one", func(t *testing.T) {
		opts := MatchingOptions{SimilarityThreshold: 1.01}
		require.Error(t, opts.Validate())
	})
}

func TestMatch_ExactSKU(t *testing.T) {
	opts := DefaultMatchingOptions()

	t.Run("reflexive on a distinct copy with identical sku", func(t *testing.T) {
		a := testProduct(marketplace.CodeTrendyol, nil)
		b := testProduct(marketplace.CodeHepsiburada, nil)
		m := Match(a, b, opts)
		assert.Equal(t, CriterionExactSKU, m.Criterion)
		assert.Equal(t, 1.0, m.Confidence)
	})

	t.Run("normalizes sku before comparing", func(t *testing.T) {
		a := testProduct(marketplace.CodeTrendyol, func(p *NormalizedProduct) {
			p.SKU = "ABC123"
			p.Barcode = ""
		})
		b := testProduct(marketplace.CodeHepsiburada, func(p *NormalizedProduct) {
			p.SKU = "abc-123"
			p.Barcode = ""
		})
		m := Match(a, b, opts)
		assert.Equal(t, CriterionExactSKU, m.Criterion)
		assert.Equal(t, 1.0, m.Confidence)
	})

	t.Run("short skus do not match even when equal", func(t *testing.T) {
		a := testProduct(marketplace.CodeTrendyol, func(p *NormalizedProduct) {
			p.SKU = "A-1"
			p.Barcode = ""
			p.Name = "completely different kettle"
			p.Brand = ""
		})
		b := testProduct(marketplace.CodeHepsiburada, func(p *NormalizedProduct) {
			p.SKU = "A1"
			p.Barcode = ""
			p.Name = "unrelated washing machine"
			p.Brand = ""
		})
		m := Match(a, b, opts)
		assert.Equal(t, CriterionNone, m.Criterion)
		assert.Equal(t, 0.0, m.Confidence)
	})
}

func TestMatch_Barcode(t *testing.T) {
	opts := DefaultMatchingOptions()

	t.Run("raw equality at length 8 or more", func(t *testing.T) {
		a := testProduct(marketplace.CodeTrendyol, func(p *NormalizedProduct) {
			p.SKU = "X-1"
			p.Barcode = "1234567890"
		})
		b := testProduct(marketplace.CodeHepsiburada, func(p *NormalizedProduct) {
			p.SKU = "Y-2"
			p.Barcode = "1234567890"
		})
		m := Match(a, b, opts)
		assert.Equal(t, CriterionBarcode, m.Criterion)
		assert.Equal(t, 0.95, m.Confidence)
	})

	t.Run("short placeholder barcodes are ignored", func(t *testing.T) {
		a := testProduct(marketplace.CodeTrendyol, func(p *NormalizedProduct) {
			p.SKU = "X-1"
			p.Barcode = "0000001"
			p.Name = "kettle one"
			p.Brand = ""
		})
		b := testProduct(marketplace.CodeHepsiburada, func(p *NormalizedProduct) {
			p.SKU = "Y-2"
			p.Barcode = "0000001"
			p.Name = "unrelated drill machine"
			p.Brand = ""
		})
		m := Match(a, b, opts)
		assert.Equal(t, CriterionNone, m.Criterion)
	})

	t.Run("sku wins over barcode", func(t *testing.T) {
		a := testProduct(marketplace.CodeTrendyol, func(p *NormalizedProduct) { p.Barcode = "1111111111" })
		b := testProduct(marketplace.CodeHepsiburada, func(p *NormalizedProduct) { p.Barcode = "2222222222" })
		m := Match(a, b, opts)
		assert.Equal(t, CriterionExactSKU, m.Criterion)
	})
}

func TestMatch_BrandName(t *testing.T) {
	opts := DefaultMatchingOptions()

	newPair := func() (*NormalizedProduct, *NormalizedProduct) {
		a := testProduct(marketplace.CodeTrendyol, func(p *NormalizedProduct) {
			p.SKU = "T-1"
			p.Barcode = ""
		})
		b := testProduct(marketplace.CodeHepsiburada, func(p *NormalizedProduct) {
			p.SKU = "H-2"
			p.Barcode = ""
		})
		return a, b
	}

	t.Run("matches on normalized brand and name", func(t *testing.T) {
		a, b := newPair()
		b.Brand = "ARZUM"
		b.Name = "Stainless Steel Kettle, 1.7L"
		m := Match(a, b, opts)
		assert.Equal(t, CriterionBrandName, m.Criterion)
		assert.Equal(t, 0.90, m.Confidence)
	})

	t.Run("skipped when a brand is missing", func(t *testing.T) {
		a, b := newPair()
		b.Brand = ""
		m := Match(a, b, opts)
		// falls through to fuzzy name, which still matches here
		assert.Equal(t, CriterionNameSimilarity, m.Criterion)
	})

	t.Run("skipped under IgnoreBrand", func(t *testing.T) {
		a, b := newPair()
		ignore := opts
		ignore.IgnoreBrand = true
		m := Match(a, b, ignore)
		assert.Equal(t, CriterionNameSimilarity, m.Criterion)
	})
}

func TestMatch_NameSimilarity(t *testing.T) {
	opts := DefaultMatchingOptions()

	newPair := func(nameA, nameB string) (*NormalizedProduct, *NormalizedProduct) {
		a := testProduct(marketplace.CodeTrendyol, func(p *NormalizedProduct) {
			p.SKU = "T-1"
			p.Barcode = ""
			p.Brand = ""
			p.Name = nameA
		})
		b := testProduct(marketplace.CodeHepsiburada, func(p *NormalizedProduct) {
			p.SKU = "H-2"
			p.Barcode = ""
			p.Brand = ""
			p.Name = nameB
		})
		return a, b
	}

	t.Run("confidence equals similarity when brands are absent", func(t *testing.T) {
		a, b := newPair("samsung galaxy s24 ultra 256gb", "samsung galaxy s24 ultra 512gb")
		m := Match(a, b, opts)
		require.Equal(t, CriterionNameSimilarity, m.Criterion)
		sim := NameSimilarity(NormalizeName(a.Name), NormalizeName(b.Name))
		assert.Equal(t, sim, m.Confidence)
		assert.GreaterOrEqual(t, m.Confidence, opts.SimilarityThreshold)
	})

	t.Run("brand disagreement discounts the similarity", func(t *testing.T) {
		a, b := newPair("samsung galaxy s24 ultra 256gb", "samsung galaxy s24 ultra 512gb")
		a.Brand, b.Brand = "Samsung", "Vestel"
		m := Match(a, b, opts)
		require.Equal(t, CriterionNameSimilarity, m.Criterion)
		sim := NameSimilarity(NormalizeName(a.Name), NormalizeName(b.Name))
		assert.InDelta(t, sim*0.8, m.Confidence, 1e-9)
	})

	t.Run("below threshold is no match", func(t *testing.T) {
		a, b := newPair("red cotton t-shirt", "industrial angle grinder")
		m := Match(a, b, opts)
		assert.Equal(t, CriterionNone, m.Criterion)
		assert.Equal(t, 0.0, m.Confidence)
	})

	t.Run("skipped under StrictMatching", func(t *testing.T) {
		a, b := newPair("samsung galaxy s24 ultra 256gb", "samsung galaxy s24 ultra 512gb")
		strict := opts
		strict.StrictMatching = true
		m := Match(a, b, strict)
		assert.Equal(t, CriterionNone, m.Criterion)
	})
}

func TestMatch_Commutativity(t *testing.T) {
	opts := DefaultMatchingOptions()

	variants := []*NormalizedProduct{
		testProduct(marketplace.CodeTrendyol, nil),
		testProduct(marketplace.CodeHepsiburada, func(p *NormalizedProduct) { p.SKU = "abc-123" }),
		testProduct(marketplace.CodeN11, func(p *NormalizedProduct) {
			p.SKU = "Z-9"
			p.Barcode = "1234567890"
		}),
		testProduct(marketplace.CodeAmazon, func(p *NormalizedProduct) {
			p.SKU = "Q-7"
			p.Barcode = ""
			p.Brand = "Vestel"
			p.Name = "Stainless Steel Kettle 1.8L"
		}),
		testProduct(marketplace.CodeTrendyol, func(p *NormalizedProduct) {
			p.SKU = ""
			p.Barcode = ""
			p.Brand = ""
			p.Name = "Something Else Entirely"
		}),
	}

	for i, a := range variants {
		for j, b := range variants {
			assert.Equal(t, Match(a, b, opts), Match(b, a, opts), "variant %d vs %d", i, j)
		}
	}
}
