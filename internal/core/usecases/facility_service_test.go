package usecases_test

import (
	"errors"
	"testing"

	"github.com/medgrid/resqroute/internal/core/domain"
	"github.com/medgrid/resqroute/internal/core/usecases"
)

func testCatalog() []domain.Facility {
	return []domain.Facility{
		{ID: "H001", Name: "Manipal Whitefield", Location: domain.GeoPoint{Lat: 12.9698, Lon: 77.7500}},
		{ID: "H002", Name: "Apollo Bannerghatta", Location: domain.GeoPoint{Lat: 12.9056, Lon: 77.5936}},
		{ID: "H003", Name: "Fortis Cunningham Road", Location: domain.GeoPoint{Lat: 12.9926, Lon: 77.5985}},
	}
}

func TestFacilityService_Nearest(t *testing.T) {
	svc := usecases.NewFacilityService(testCatalog())

	// UB City is much closer to Cunningham Road than to the others.
	f, err := svc.Nearest(domain.GeoPoint{Lat: 12.9716, Lon: 77.5946})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.ID != "H003" {
		t.Errorf("nearest facility %s, want H003", f.ID)
	}
	if f.DistanceKm == nil || *f.DistanceKm <= 0 {
		t.Error("nearest facility missing computed distance")
	}
}

func TestFacilityService_Nearest_TieKeepsCatalogOrder(t *testing.T) {
	p := domain.GeoPoint{Lat: 12.9716, Lon: 77.5946}
	same := domain.GeoPoint{Lat: 12.9800, Lon: 77.6000}
	svc := usecases.NewFacilityService([]domain.Facility{
		{ID: "A", Location: same},
		{ID: "B", Location: same},
	})

	f, err := svc.Nearest(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.ID != "A" {
		t.Errorf("tie resolved to %s, want first entry A", f.ID)
	}
}

func TestFacilityService_Nearest_EmptyCatalog(t *testing.T) {
	svc := usecases.NewFacilityService(nil)
	_, err := svc.Nearest(domain.GeoPoint{Lat: 12.97, Lon: 77.59})
	if !errors.Is(err, domain.ErrNoFacilitiesAvailable) {
		t.Errorf("got %v, want ErrNoFacilitiesAvailable", err)
	}
}

func TestFacilityService_Nearest_InvalidPoint(t *testing.T) {
	svc := usecases.NewFacilityService(testCatalog())
	_, err := svc.Nearest(domain.GeoPoint{Lat: -91, Lon: 0})
	if !errors.Is(err, domain.ErrInvalidGeoPoint) {
		t.Errorf("got %v, want ErrInvalidGeoPoint", err)
	}
}

func TestFacilityService_NearestK(t *testing.T) {
	svc := usecases.NewFacilityService(testCatalog())

	ranked, err := svc.NearestK(domain.GeoPoint{Lat: 12.9716, Lon: 77.5946}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("expected 2 facilities, got %d", len(ranked))
	}
	if ranked[0].ID != "H003" {
		t.Errorf("first ranked %s, want H003", ranked[0].ID)
	}
	if *ranked[0].DistanceKm > *ranked[1].DistanceKm {
		t.Error("ranking not ordered by distance")
	}
}

func TestFacilityService_NearestK_ClampsK(t *testing.T) {
	svc := usecases.NewFacilityService(testCatalog())

	ranked, err := svc.NearestK(domain.GeoPoint{Lat: 12.9716, Lon: 77.5946}, 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranked) != 3 {
		t.Errorf("expected full catalog of 3, got %d", len(ranked))
	}
}
