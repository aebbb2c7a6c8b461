package usecases

import (
	"sort"

	"github.com/medgrid/resqroute/internal/core/domain"
	"github.com/medgrid/resqroute/internal/pkg/geospatial"
)

// FacilityService selects destination facilities from a read-only,
// configuration-supplied catalog. Pure and synchronous.
type FacilityService struct {
	catalog []domain.Facility
}

// NewFacilityService creates a new FacilityService over the given catalog.
// The catalog is not copied; it must not be mutated after construction.
func NewFacilityService(catalog []domain.Facility) *FacilityService {
	return &FacilityService{catalog: catalog}
}

// List returns the full catalog.
func (s *FacilityService) List() []domain.Facility {
	return s.catalog
}

// Nearest returns the facility minimizing great-circle distance to the
// incident. Ties resolve to the earliest catalog entry.
func (s *FacilityService) Nearest(incident domain.GeoPoint) (*domain.Facility, error) {
	if !incident.InRange() {
		return nil, domain.ErrInvalidGeoPoint
	}
	if len(s.catalog) == 0 {
		return nil, domain.ErrNoFacilitiesAvailable
	}

	best := 0
	bestKm := geospatial.Distance(incident, s.catalog[0].Location)
	for i := 1; i < len(s.catalog); i++ {
		if km := geospatial.Distance(incident, s.catalog[i].Location); km < bestKm {
			best, bestKm = i, km
		}
	}

	f := s.catalog[best]
	f.DistanceKm = &bestKm
	return &f, nil
}

// NearestK returns up to k facilities ordered by distance to the incident.
// The sort is stable, so equidistant entries keep catalog order.
func (s *FacilityService) NearestK(incident domain.GeoPoint, k int) ([]domain.Facility, error) {
	if !incident.InRange() {
		return nil, domain.ErrInvalidGeoPoint
	}
	if len(s.catalog) == 0 {
		return nil, domain.ErrNoFacilitiesAvailable
	}
	if k <= 0 || k > len(s.catalog) {
		k = len(s.catalog)
	}

	ranked := make([]domain.Facility, len(s.catalog))
	copy(ranked, s.catalog)
	for i := range ranked {
		km := geospatial.Distance(incident, ranked[i].Location)
		ranked[i].DistanceKm = &km
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].DistanceKm < *ranked[j].DistanceKm
	})

	return ranked[:k], nil
}
