package usecases

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/medgrid/resqroute/internal/core/domain"
	"github.com/medgrid/resqroute/internal/core/ports"
	"github.com/medgrid/resqroute/internal/pkg/geospatial"
)

// Improvement policy: synthetic gain over the naive baseline route, uniform
// in [15, 25). Placeholder until a real before/after comparison exists.
const (
	improvementFloor = 15.0
	improvementSpan  = 10.0

	// Legs closer to the facility carry a fixed congestion discount.
	segmentDiscount = 0.1
)

// RouteService is the route optimization engine. It is stateless apart from
// the request-token counter; concurrent calls do not interfere.
type RouteService struct {
	builder      ports.RouteBuilder
	rand         ports.RandSource
	baseSpeedKmh float64
	latency      time.Duration

	token atomic.Uint64
}

// NewRouteService creates a new RouteService. baseSpeedKmh is the free-flow
// cruising speed; latency simulates the remote routing backend and is waited
// out cancellably on each call.
func NewRouteService(builder ports.RouteBuilder, rand ports.RandSource, baseSpeedKmh float64, latency time.Duration) *RouteService {
	return &RouteService{
		builder:      builder,
		rand:         rand,
		baseSpeedKmh: baseSpeedKmh,
		latency:      latency,
	}
}

// LatestToken returns the most recently issued request token. Callers racing
// concurrent Optimize calls should drop any result whose token is older.
func (s *RouteService) LatestToken() uint64 {
	return s.token.Load()
}

// Optimize computes a route, its distance, a traffic-adjusted ETA, and a
// synthetic improvement percentage for the request. Validation happens before
// any computation; a cancelled context fails with ErrComputationFailed.
func (s *RouteService) Optimize(ctx context.Context, req domain.EmergencyRequest) (*domain.RouteResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	token := s.token.Add(1)

	if err := s.simulateLatency(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrComputationFailed, err)
	}

	waypoints := s.builder.Waypoints(req)
	if len(waypoints) < 2 {
		return nil, fmt.Errorf("%w: builder produced %d waypoints", domain.ErrComputationFailed, len(waypoints))
	}

	var totalKm float64
	segments := make([]domain.RouteSegment, 0, len(waypoints)-1)
	for i := 0; i < len(waypoints)-1; i++ {
		totalKm += geospatial.Distance(waypoints[i], waypoints[i+1])

		factor := req.TrafficFactor
		if i > 0 {
			factor = math.Max(1.0, req.TrafficFactor-segmentDiscount)
		}
		segments = append(segments, domain.RouteSegment{
			Start:         waypoints[i],
			End:           waypoints[i+1],
			TrafficFactor: factor,
		})
	}

	effectiveSpeed := s.baseSpeedKmh / req.TrafficFactor
	etaMinutes := totalKm / effectiveSpeed * 60

	return &domain.RouteResult{
		Token:              token,
		CallID:             req.CallID,
		Waypoints:          waypoints,
		TotalDistanceKm:    totalKm,
		ETAMinutes:         etaMinutes,
		ImprovementPercent: improvementFloor + s.rand.Float64()*improvementSpan,
		Segments:           segments,
		ComputedAt:         time.Now(),
	}, nil
}

// simulateLatency waits out the configured artificial delay, honoring
// context cancellation.
func (s *RouteService) simulateLatency(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.latency)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DirectRouteBuilder is the stand-in route topology: a fixed three-point
// path through the incident. A road-network router replaces this without
// touching the rest of the engine.
type DirectRouteBuilder struct{}

func (DirectRouteBuilder) Waypoints(req domain.EmergencyRequest) []domain.GeoPoint {
	return []domain.GeoPoint{req.Origin, req.Incident, req.Destination}
}
