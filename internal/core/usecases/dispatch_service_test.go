package usecases_test

import (
	"context"
	"testing"
	"time"

	"github.com/medgrid/resqroute/internal/core/domain"
	"github.com/medgrid/resqroute/internal/core/usecases"
)

// --- Mock DispatchRepository ---

type mockDispatchRepo struct {
	inserted []domain.DispatchRecord
	listFn   func(ctx context.Context, limit, offset int) ([]domain.DispatchRecord, int, error)
	reportFn func(ctx context.Context, periodDays int) (*domain.DispatchReport, error)
}

func (m *mockDispatchRepo) Insert(ctx context.Context, rec *domain.DispatchRecord) error {
	m.inserted = append(m.inserted, *rec)
	return nil
}

func (m *mockDispatchRepo) List(ctx context.Context, limit, offset int) ([]domain.DispatchRecord, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit, offset)
	}
	return nil, 0, nil
}

func (m *mockDispatchRepo) Report(ctx context.Context, periodDays int) (*domain.DispatchReport, error) {
	if m.reportFn != nil {
		return m.reportFn(ctx, periodDays)
	}
	return &domain.DispatchReport{PeriodDays: periodDays}, nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	dispatches []domain.DispatchRecommendation
	positions  []domain.AmbulancePosition
	samples    []domain.TrafficSample
}

func (m *mockPublisher) PublishTrafficSample(ctx context.Context, s *domain.TrafficSample) error {
	m.samples = append(m.samples, *s)
	return nil
}

func (m *mockPublisher) PublishDispatch(ctx context.Context, rec *domain.DispatchRecommendation) error {
	m.dispatches = append(m.dispatches, *rec)
	return nil
}

func (m *mockPublisher) PublishAmbulancePosition(ctx context.Context, pos *domain.AmbulancePosition) error {
	m.positions = append(m.positions, *pos)
	return nil
}

func (m *mockPublisher) PublishBroadcast(ctx context.Context, data []byte) error { return nil }

// --- Tests ---

func fullCatalog() []domain.Facility {
	return []domain.Facility{
		{ID: "H001", Name: "Manipal Whitefield", Location: domain.GeoPoint{Lat: 12.9698, Lon: 77.7500}, WaitMinutes: 20},
		{ID: "H002", Name: "Apollo Bannerghatta", Location: domain.GeoPoint{Lat: 12.9056, Lon: 77.5936}, WaitMinutes: 15},
		{ID: "H003", Name: "Fortis Cunningham Road", Location: domain.GeoPoint{Lat: 12.9926, Lon: 77.5985}, WaitMinutes: 30},
	}
}

func newDispatcher(repo *mockDispatchRepo, pub *mockPublisher, latency time.Duration) *usecases.DispatchService {
	facilities := usecases.NewFacilityService(fullCatalog())
	routes := usecases.NewRouteService(usecases.DirectRouteBuilder{}, fixedRand{0.5}, 40, latency)
	traffic := usecases.NewTrafficService(fixedRand{0.5}, 0)
	return usecases.NewDispatchService(facilities, routes, traffic, repo, pub, 3)
}

func TestDispatchService_HandleEmergency(t *testing.T) {
	repo := &mockDispatchRepo{}
	pub := &mockPublisher{}
	svc := newDispatcher(repo, pub, 0)

	rec, err := svc.HandleEmergency(context.Background(), domain.EmergencyRequest{
		CallID:        "EMG-001",
		Origin:        domain.GeoPoint{Lat: 12.9600, Lon: 77.5800},
		Incident:      domain.GeoPoint{Lat: 12.9716, Lon: 77.5946},
		TrafficFactor: 1.4,
		Category:      "cardiac",
		Priority:      "critical",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.Fallback {
		t.Fatal("did not expect fallback")
	}
	if rec.DispatchID == "" {
		t.Error("missing dispatch id")
	}
	if rec.Recommended.Route == nil {
		t.Fatal("recommended option missing route")
	}
	if rec.Recommended.Rank != 1 {
		t.Errorf("recommended rank %d, want 1", rec.Recommended.Rank)
	}
	if len(rec.Alternates) != 2 {
		t.Fatalf("expected 2 alternates, got %d", len(rec.Alternates))
	}

	// Ranked by travel ETA plus facility wait, ascending.
	prev := rec.Recommended.TotalMinutes
	for _, alt := range rec.Alternates {
		if alt.TotalMinutes < prev {
			t.Error("alternates not ordered by total minutes")
		}
		prev = alt.TotalMinutes
	}

	if len(repo.inserted) != 1 {
		t.Fatalf("expected 1 persisted record, got %d", len(repo.inserted))
	}
	if repo.inserted[0].FacilityID != rec.Recommended.Facility.ID {
		t.Error("persisted record does not match recommendation")
	}
	if repo.inserted[0].Category != "cardiac" || repo.inserted[0].Priority != "critical" {
		t.Error("persisted record lost call metadata")
	}
	if len(pub.dispatches) != 1 {
		t.Errorf("expected 1 published dispatch, got %d", len(pub.dispatches))
	}
}

func TestDispatchService_HandleEmergency_SamplesTrafficWhenUnset(t *testing.T) {
	repo := &mockDispatchRepo{}
	svc := newDispatcher(repo, &mockPublisher{}, 0)

	rec, err := svc.HandleEmergency(context.Background(), domain.EmergencyRequest{
		Origin:   domain.GeoPoint{Lat: 12.9600, Lon: 77.5800},
		Incident: domain.GeoPoint{Lat: 12.9716, Lon: 77.5946},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// fixedRand{0.5} yields a 1.60 factor; it must flow into the route.
	if rec.Recommended.Route.Segments[0].TrafficFactor != 1.60 {
		t.Errorf("sampled factor %.2f, want 1.60", rec.Recommended.Route.Segments[0].TrafficFactor)
	}
}

func TestDispatchService_HandleEmergency_FallbackOnFailure(t *testing.T) {
	repo := &mockDispatchRepo{}
	svc := newDispatcher(repo, &mockPublisher{}, 50*time.Millisecond)

	// Cancelled context makes every candidate optimization fail.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec, err := svc.HandleEmergency(ctx, domain.EmergencyRequest{
		Origin:        domain.GeoPoint{Lat: 12.9600, Lon: 77.5800},
		Incident:      domain.GeoPoint{Lat: 12.9716, Lon: 77.5946},
		TrafficFactor: 1.2,
	})
	if err != nil {
		t.Fatalf("fallback must not error, got: %v", err)
	}
	if !rec.Fallback {
		t.Fatal("expected fallback recommendation")
	}
	if rec.Recommended.Route != nil {
		t.Error("fallback must not carry an optimized route")
	}
	if rec.Recommended.Facility.ID != "H003" {
		t.Errorf("fallback facility %s, want nearest H003", rec.Recommended.Facility.ID)
	}
	if len(repo.inserted) != 1 || !repo.inserted[0].Fallback {
		t.Error("fallback not recorded in audit trail")
	}
}

func TestDispatchService_HandleEmergency_Validation(t *testing.T) {
	svc := newDispatcher(&mockDispatchRepo{}, &mockPublisher{}, 0)

	_, err := svc.HandleEmergency(context.Background(), domain.EmergencyRequest{
		Origin:        domain.GeoPoint{Lat: 12.96, Lon: 77.58},
		Incident:      domain.GeoPoint{Lat: 120, Lon: 77.59},
		TrafficFactor: 1.0,
	})
	if err == nil {
		t.Error("expected error for out-of-range incident")
	}

	_, err = svc.HandleEmergency(context.Background(), domain.EmergencyRequest{
		Origin:        domain.GeoPoint{Lat: 12.96, Lon: 77.58},
		Incident:      domain.GeoPoint{Lat: 12.97, Lon: 77.59},
		TrafficFactor: -1,
	})
	if err == nil {
		t.Error("expected error for negative traffic factor")
	}
}

func TestDispatchService_Report_ClampsPeriod(t *testing.T) {
	repo := &mockDispatchRepo{
		reportFn: func(ctx context.Context, periodDays int) (*domain.DispatchReport, error) {
			if periodDays != 30 {
				t.Errorf("period %d, want default 30", periodDays)
			}
			return &domain.DispatchReport{PeriodDays: periodDays}, nil
		},
	}
	svc := newDispatcher(repo, &mockPublisher{}, 0)

	if _, err := svc.Report(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Report(context.Background(), 9999); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
