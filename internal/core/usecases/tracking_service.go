package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/medgrid/resqroute/internal/core/domain"
	"github.com/medgrid/resqroute/internal/core/ports"
)

// TrackingService processes real-time ambulance position updates.
type TrackingService struct {
	positions ports.AmbulancePositionRepository
	publisher ports.EventPublisher
}

// NewTrackingService creates a new TrackingService.
func NewTrackingService(positions ports.AmbulancePositionRepository, publisher ports.EventPublisher) *TrackingService {
	return &TrackingService{positions: positions, publisher: publisher}
}

// UpdatePosition stores a position and relays it to live subscribers.
func (s *TrackingService) UpdatePosition(ctx context.Context, pos *domain.AmbulancePosition) error {
	if pos.AmbulanceID == "" {
		return fmt.Errorf("ambulance id is required")
	}
	if !pos.Location.InRange() {
		return domain.ErrInvalidGeoPoint
	}
	pos.Time = time.Now()

	if err := s.positions.Insert(ctx, pos); err != nil {
		return fmt.Errorf("insert ambulance position: %w", err)
	}

	// Broadcast to WebSocket clients. Serialization is left to the
	// publisher implementation.
	if s.publisher != nil {
		_ = s.publisher.PublishAmbulancePosition(ctx, pos)
	}

	return nil
}

// LastKnown returns the most recent stored position for an ambulance.
func (s *TrackingService) LastKnown(ctx context.Context, ambulanceID string) (*domain.AmbulancePosition, error) {
	if ambulanceID == "" {
		return nil, fmt.Errorf("ambulance id is required")
	}
	return s.positions.Latest(ctx, ambulanceID)
}
