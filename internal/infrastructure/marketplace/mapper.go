package marketplace

import (
	"github.com/sellerhub/backend/internal/domain/marketplace"
	"github.com/sellerhub/backend/internal/domain/reconciliation"
)

// imageRefs resolves a marketplace image list into ordered ImageRefs. The
// first image is the main one unless the source says otherwise.
func imageRefs(items []any) []reconciliation.ImageRef {
	var refs []reconciliation.ImageRef
	for _, item := range items {
		url := marketplace.ImageURL(item)
		if url == "" {
			continue
		}
		refs = append(refs, reconciliation.ImageRef{
			URL:    url,
			Order:  len(refs),
			IsMain: len(refs) == 0,
		})
	}
	return refs
}

// finish applies the shared identity gate every mapper ends with
func finish(p *reconciliation.NormalizedProduct) (*reconciliation.NormalizedProduct, error) {
	if !p.HasIdentity() {
		return nil, marketplace.ErrUnmappableRecord
	}
	return p, nil
}
