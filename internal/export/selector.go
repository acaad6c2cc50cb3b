package export

import (
	"github.com/camroll/camroll/internal/domain"
)

// SelectResource picks the single best downloadable resource for an
// asset: a full-size photo or video if one exists, otherwise any plain
// photo or video, otherwise nothing. A missing resource is a skip,
// not an error: deleted-but-referenced items have nothing to fetch.
// Ties within a tier go to the first resource in catalog order.
func SelectResource(resources []domain.AssetResource) (domain.AssetResource, bool) {
	for _, r := range resources {
		if r.Kind.IsFullSize() {
			return r, true
		}
	}
	for _, r := range resources {
		if r.Kind.IsMedia() {
			return r, true
		}
	}
	return domain.AssetResource{}, false
}
