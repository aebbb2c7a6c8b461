package http

import (
	"github.com/nats-io/nats.go"

	"github.com/medgrid/resqroute/internal/adapters/postgres"
	"github.com/medgrid/resqroute/internal/adapters/valkey"
	"github.com/medgrid/resqroute/internal/core/ports"
	"github.com/medgrid/resqroute/internal/core/usecases"
	"github.com/medgrid/resqroute/internal/pkg/config"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Routes     *usecases.RouteService
	Traffic    *usecases.TrafficService
	Facilities *usecases.FacilityService
	Dispatch   *usecases.DispatchService
	Tracking   *usecases.TrackingService
	Publisher  ports.EventPublisher
	Zones      []config.TrafficZone
	NATS       *nats.Conn
	DB         *postgres.DB
	Cache      *valkey.Cache
}
