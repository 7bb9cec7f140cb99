package reconciliation

import (
	"errors"
	"fmt"

	"github.com/sellerhub/backend/internal/domain/marketplace"
	"go.uber.org/zap"
)

// Warning describes one raw record dropped during normalization
type Warning struct {
	Marketplace marketplace.Code `json:"marketplace"`
	RecordID    string           `json:"record_id,omitempty"`
	Message     string           `json:"message"`
}

// Normalizer turns raw marketplace records into canonical products using the
// registered per-marketplace mapping strategies.
type Normalizer struct {
	mappers MapperRegistry
	logger  *zap.Logger
}

// NewNormalizer creates a Normalizer
func NewNormalizer(mappers MapperRegistry, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{mappers: mappers, logger: logger}
}

// NormalizeBatch normalizes one marketplace's fetch batch. Unmappable records
// are dropped with a logged warning and never abort the rest of the batch; a
// post-normalization contract violation (mapper bug) is returned as an error
// and is fatal for the run.
func (n *Normalizer) NormalizeBatch(code marketplace.Code, raws []marketplace.RawProduct) ([]*NormalizedProduct, []Warning, error) {
	mapper, err := n.mappers.Mapper(code)
	if err != nil {
		return nil, nil, err
	}

	products := make([]*NormalizedProduct, 0, len(raws))
	var warnings []Warning
	seen := make(map[ProductIdentity]bool, len(raws))

	for _, raw := range raws {
		p, err := mapper.ToCanonical(raw)
		if err != nil {
			if errors.Is(err, marketplace.ErrUnmappableRecord) {
				w := Warning{
					Marketplace: code,
					RecordID:    rawRecordID(raw),
					Message:     "record dropped: missing required identity fields",
				}
				warnings = append(warnings, w)
				n.logger.Warn("dropping unnormalizable record",
					zap.String("marketplace", code.String()),
					zap.String("record_id", w.RecordID),
				)
				continue
			}
			return nil, nil, fmt.Errorf("normalize %s record: %w", code, err)
		}

		if err := p.Validate(); err != nil {
			return nil, nil, err
		}

		// (marketplace, externalId) must be unique per fetch batch; later
		// occurrences are marketplace-side duplicates, not engine input.
		id := p.Identity()
		if seen[id] {
			w := Warning{
				Marketplace: code,
				RecordID:    id.Key,
				Message:     "record dropped: duplicate identity in fetch batch",
			}
			warnings = append(warnings, w)
			n.logger.Warn("dropping duplicate record in batch",
				zap.String("marketplace", code.String()),
				zap.String("record_id", id.Key),
			)
			continue
		}
		seen[id] = true
		products = append(products, p)
	}

	return products, warnings, nil
}

// rawRecordID makes a best-effort identifier for log lines about records that
// failed to normalize.
func rawRecordID(raw marketplace.RawProduct) string {
	for _, key := range []string{"id", "productId", "product_id", "sku", "stockCode", "merchantSku", "barcode"} {
		if v := raw.String(key); v != "" {
			return v
		}
	}
	return ""
}
