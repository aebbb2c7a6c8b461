package usecases

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/medgrid/resqroute/internal/core/domain"
	"github.com/medgrid/resqroute/internal/core/ports"
)

// Traffic factors are drawn uniformly from [1.00, 2.20] and rounded to two
// decimals. 1.0 means free-flow.
const (
	trafficFloor = 1.0
	trafficSpan  = 1.2
)

// TrafficService produces point-in-time congestion factors. The location
// argument is unused today but kept in the contract so a real traffic feed
// can slot in behind the same signature.
type TrafficService struct {
	rand    ports.RandSource
	latency time.Duration
}

// NewTrafficService creates a new TrafficService.
func NewTrafficService(rand ports.RandSource, latency time.Duration) *TrafficService {
	return &TrafficService{rand: rand, latency: latency}
}

// Sample returns a fresh traffic factor for the given point.
func (s *TrafficService) Sample(ctx context.Context, point domain.GeoPoint) (*domain.TrafficSample, error) {
	if !point.InRange() {
		return nil, domain.ErrInvalidGeoPoint
	}

	if s.latency > 0 {
		t := time.NewTimer(s.latency)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", domain.ErrComputationFailed, ctx.Err())
		}
	} else if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrComputationFailed, err)
	}

	factor := trafficFloor + s.rand.Float64()*trafficSpan
	factor = math.Round(factor*100) / 100

	return &domain.TrafficSample{
		Location:      point,
		TrafficFactor: factor,
		SampledAt:     time.Now(),
	}, nil
}
