package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/medgrid/resqroute/internal/core/domain"
	"github.com/medgrid/resqroute/internal/core/usecases"
)

type mockPositionRepo struct {
	inserted []domain.AmbulancePosition
	latestFn func(ctx context.Context, id string) (*domain.AmbulancePosition, error)
}

func (m *mockPositionRepo) Insert(ctx context.Context, pos *domain.AmbulancePosition) error {
	m.inserted = append(m.inserted, *pos)
	return nil
}

func (m *mockPositionRepo) Latest(ctx context.Context, id string) (*domain.AmbulancePosition, error) {
	if m.latestFn != nil {
		return m.latestFn(ctx, id)
	}
	return nil, nil
}

func TestTrackingService_UpdatePosition(t *testing.T) {
	repo := &mockPositionRepo{}
	pub := &mockPublisher{}
	svc := usecases.NewTrackingService(repo, pub)

	err := svc.UpdatePosition(context.Background(), &domain.AmbulancePosition{
		AmbulanceID: "AMB-7",
		Location:    domain.GeoPoint{Lat: 12.9716, Lon: 77.5946},
		Status:      "en_route",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.inserted) != 1 {
		t.Fatalf("expected 1 inserted position, got %d", len(repo.inserted))
	}
	if repo.inserted[0].Time.IsZero() {
		t.Error("position timestamp not stamped")
	}
	if len(pub.positions) != 1 {
		t.Errorf("expected 1 published position, got %d", len(pub.positions))
	}
}

func TestTrackingService_UpdatePosition_Validation(t *testing.T) {
	svc := usecases.NewTrackingService(&mockPositionRepo{}, &mockPublisher{})

	err := svc.UpdatePosition(context.Background(), &domain.AmbulancePosition{
		Location: domain.GeoPoint{Lat: 12.97, Lon: 77.59},
	})
	if err == nil {
		t.Error("expected error for missing ambulance id")
	}

	err = svc.UpdatePosition(context.Background(), &domain.AmbulancePosition{
		AmbulanceID: "AMB-7",
		Location:    domain.GeoPoint{Lat: 12.97, Lon: 200},
	})
	if !errors.Is(err, domain.ErrInvalidGeoPoint) {
		t.Errorf("got %v, want ErrInvalidGeoPoint", err)
	}
}
