package usecases_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/medgrid/resqroute/internal/core/domain"
	"github.com/medgrid/resqroute/internal/core/usecases"
	"github.com/medgrid/resqroute/internal/pkg/geospatial"
)

// fixedRand always returns the same value, making randomized outputs exact.
type fixedRand struct{ v float64 }

func (f fixedRand) Float64() float64 { return f.v }

func testRequest(trafficFactor float64) domain.EmergencyRequest {
	return domain.EmergencyRequest{
		Origin:        domain.GeoPoint{Lat: 12.9716, Lon: 77.5946},
		Incident:      domain.GeoPoint{Lat: 12.9750, Lon: 77.6100},
		Destination:   domain.GeoPoint{Lat: 12.9750, Lon: 77.6050},
		TrafficFactor: trafficFactor,
	}
}

func newEngine(r float64) *usecases.RouteService {
	return usecases.NewRouteService(usecases.DirectRouteBuilder{}, fixedRand{r}, 40, 0)
}

func TestRouteService_Optimize_Shape(t *testing.T) {
	svc := newEngine(0.5)
	req := testRequest(1.0)

	res, err := svc.Optimize(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Waypoints) != 3 {
		t.Fatalf("expected 3 waypoints, got %d", len(res.Waypoints))
	}
	if len(res.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(res.Segments))
	}
	for i, seg := range res.Segments {
		if seg.Start != res.Waypoints[i] || seg.End != res.Waypoints[i+1] {
			t.Errorf("segment %d endpoints do not match consecutive waypoints", i)
		}
	}
	if res.Waypoints[0] != req.Origin || res.Waypoints[1] != req.Incident || res.Waypoints[2] != req.Destination {
		t.Error("waypoints are not origin, incident, destination")
	}
}

func TestRouteService_Optimize_DistanceSum(t *testing.T) {
	svc := newEngine(0.5)
	req := testRequest(1.3)

	res, err := svc.Optimize(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := geospatial.Distance(req.Origin, req.Incident) +
		geospatial.Distance(req.Incident, req.Destination)
	if math.Abs(res.TotalDistanceKm-want) > 1e-9 {
		t.Errorf("total distance %.12f, want %.12f", res.TotalDistanceKm, want)
	}
}

func TestRouteService_Optimize_ETAFormula(t *testing.T) {
	for _, factor := range []float64{1.0, 1.5, 2.2} {
		svc := newEngine(0.5)
		req := testRequest(factor)

		res, err := svc.Optimize(context.Background(), req)
		if err != nil {
			t.Fatalf("factor %.1f: unexpected error: %v", factor, err)
		}

		want := res.TotalDistanceKm / (40 / factor) * 60
		if math.Abs(res.ETAMinutes-want) > 1e-6 {
			t.Errorf("factor %.1f: eta %.9f, want %.9f", factor, res.ETAMinutes, want)
		}
	}
}

func TestRouteService_Optimize_ImprovementRange(t *testing.T) {
	cases := []struct {
		rand float64
		want float64
	}{
		{0, 15},
		{0.5, 20},
		{0.999999, 24.99999},
	}
	for _, tc := range cases {
		svc := newEngine(tc.rand)
		res, err := svc.Optimize(context.Background(), testRequest(1.0))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(res.ImprovementPercent-tc.want) > 1e-4 {
			t.Errorf("rand %.6f: improvement %.5f, want %.5f", tc.rand, res.ImprovementPercent, tc.want)
		}
		if res.ImprovementPercent < 15 || res.ImprovementPercent >= 25 {
			t.Errorf("improvement %.5f outside [15, 25)", res.ImprovementPercent)
		}
	}
}

func TestRouteService_Optimize_SegmentDiscount(t *testing.T) {
	cases := []struct {
		factor     float64
		wantSecond float64
	}{
		{1.0, 1.0},  // max(1.0, 0.9)
		{1.05, 1.0}, // max(1.0, 0.95)
		{1.8, 1.7},
	}
	for _, tc := range cases {
		svc := newEngine(0.5)
		res, err := svc.Optimize(context.Background(), testRequest(tc.factor))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Segments[0].TrafficFactor != tc.factor {
			t.Errorf("factor %.2f: first segment carries %.2f", tc.factor, res.Segments[0].TrafficFactor)
		}
		if math.Abs(res.Segments[1].TrafficFactor-tc.wantSecond) > 1e-12 {
			t.Errorf("factor %.2f: second segment %.2f, want %.2f",
				tc.factor, res.Segments[1].TrafficFactor, tc.wantSecond)
		}
	}
}

func TestRouteService_Optimize_BengaluruExample(t *testing.T) {
	svc := newEngine(0.5)
	req := testRequest(1.0)

	res, err := svc.Optimize(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	leg1 := geospatial.Distance(req.Origin, req.Incident)
	leg2 := geospatial.Distance(req.Incident, req.Destination)
	if math.Abs(leg1-1.711) > 0.005 {
		t.Errorf("leg 1 %.3f km, expected about 1.711", leg1)
	}
	if math.Abs(leg2-0.542) > 0.005 {
		t.Errorf("leg 2 %.3f km, expected about 0.542", leg2)
	}
	wantETA := (leg1 + leg2) / 40 * 60
	if math.Abs(res.ETAMinutes-wantETA) > 1e-6 {
		t.Errorf("eta %.6f, want %.6f", res.ETAMinutes, wantETA)
	}
	// With a free-flow factor both segments stay at 1.0.
	if res.Segments[0].TrafficFactor != 1.0 || res.Segments[1].TrafficFactor != 1.0 {
		t.Errorf("segments carry %.2f/%.2f, want 1.0/1.0",
			res.Segments[0].TrafficFactor, res.Segments[1].TrafficFactor)
	}
}

func TestRouteService_Optimize_Validation(t *testing.T) {
	svc := newEngine(0.5)

	for _, factor := range []float64{0, -1.5} {
		_, err := svc.Optimize(context.Background(), testRequest(factor))
		if !errors.Is(err, domain.ErrInvalidTrafficFactor) {
			t.Errorf("factor %.1f: got %v, want ErrInvalidTrafficFactor", factor, err)
		}
	}

	req := testRequest(1.0)
	req.Incident.Lat = 91
	if _, err := svc.Optimize(context.Background(), req); !errors.Is(err, domain.ErrInvalidGeoPoint) {
		t.Errorf("got %v, want ErrInvalidGeoPoint", err)
	}
	req = testRequest(1.0)
	req.Destination.Lon = -181
	if _, err := svc.Optimize(context.Background(), req); !errors.Is(err, domain.ErrInvalidGeoPoint) {
		t.Errorf("got %v, want ErrInvalidGeoPoint", err)
	}
}

func TestRouteService_Optimize_Cancelled(t *testing.T) {
	svc := usecases.NewRouteService(usecases.DirectRouteBuilder{}, fixedRand{0.5}, 40, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Optimize(ctx, testRequest(1.0))
	if !errors.Is(err, domain.ErrComputationFailed) {
		t.Errorf("got %v, want ErrComputationFailed", err)
	}
}

func TestRouteService_TokenMonotonic(t *testing.T) {
	svc := newEngine(0.5)

	first, err := svc.Optimize(context.Background(), testRequest(1.0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Optimize(context.Background(), testRequest(1.0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if second.Token <= first.Token {
		t.Errorf("tokens not increasing: %d then %d", first.Token, second.Token)
	}
	if svc.LatestToken() != second.Token {
		t.Errorf("latest token %d, want %d", svc.LatestToken(), second.Token)
	}
}

// fourPointBuilder proves the waypoint strategy is pluggable.
type fourPointBuilder struct{}

func (fourPointBuilder) Waypoints(req domain.EmergencyRequest) []domain.GeoPoint {
	mid := domain.GeoPoint{
		Lat: (req.Incident.Lat + req.Destination.Lat) / 2,
		Lon: (req.Incident.Lon + req.Destination.Lon) / 2,
	}
	return []domain.GeoPoint{req.Origin, req.Incident, mid, req.Destination}
}

func TestRouteService_Optimize_CustomBuilder(t *testing.T) {
	svc := usecases.NewRouteService(fourPointBuilder{}, fixedRand{0.5}, 40, 0)

	res, err := svc.Optimize(context.Background(), testRequest(1.8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Waypoints) != 4 || len(res.Segments) != 3 {
		t.Fatalf("got %d waypoints / %d segments, want 4/3", len(res.Waypoints), len(res.Segments))
	}
	if res.Segments[0].TrafficFactor != 1.8 {
		t.Errorf("first segment %.2f, want 1.8", res.Segments[0].TrafficFactor)
	}
	for i := 1; i < 3; i++ {
		if math.Abs(res.Segments[i].TrafficFactor-1.7) > 1e-12 {
			t.Errorf("segment %d carries %.2f, want 1.7", i, res.Segments[i].TrafficFactor)
		}
	}
}
