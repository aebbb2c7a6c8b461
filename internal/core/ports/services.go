package ports

import (
	"context"

	"github.com/medgrid/resqroute/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishTrafficSample(ctx context.Context, sample *domain.TrafficSample) error
	PublishDispatch(ctx context.Context, rec *domain.DispatchRecommendation) error
	PublishAmbulancePosition(ctx context.Context, pos *domain.AmbulancePosition) error
	PublishBroadcast(ctx context.Context, data []byte) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// RouteBuilder produces the waypoint sequence for a request. The default
// implementation emits origin -> incident -> destination; a road-network
// router can be substituted without touching ETA or segment logic.
type RouteBuilder interface {
	Waypoints(req domain.EmergencyRequest) []domain.GeoPoint
}

// RandSource abstracts randomness so tests can supply fixed values.
// Float64 must return a value in [0, 1).
type RandSource interface {
	Float64() float64
}
