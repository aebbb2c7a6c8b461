package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"time"

	natsadapter "github.com/medgrid/resqroute/internal/adapters/nats"
	"github.com/medgrid/resqroute/internal/adapters/postgres"
	"github.com/medgrid/resqroute/internal/core/domain"
	"github.com/medgrid/resqroute/internal/core/ports"
	"github.com/medgrid/resqroute/internal/core/usecases"
	"github.com/medgrid/resqroute/internal/pkg/config"
	"github.com/medgrid/resqroute/internal/pkg/logging"
)

var categories = []string{"cardiac", "trauma", "stroke", "respiratory", "general"}
var priorities = []string{"critical", "high", "medium"}

// simulate drives the dispatch pipeline with synthetic emergencies scattered
// across the configured city bounds. Useful for demos and for seeding the
// dispatch history before the analytics endpoints have real data.
func main() {
	count := flag.Int("n", 10, "number of synthetic emergencies")
	delay := flag.Duration("delay", 500*time.Millisecond, "pause between calls")
	flag.Parse()

	cfg, err := config.Load("resqroute-simulate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup("info", "text")
	logger := logging.Component("simulate")

	ctx := context.Background()

	// Best-effort infrastructure: the simulation runs without either.
	var repo ports.DispatchRepository
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Warn("database unavailable, dispatches will not be persisted", "error", err)
	} else {
		defer db.Close()
		repo = postgres.NewDispatchRepo(db)
	}

	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		logger.Warn("nats unavailable, dispatches will not be published", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	routes := usecases.NewRouteService(
		usecases.DirectRouteBuilder{},
		usecases.SystemRand{},
		cfg.Engine.BaseSpeedKmh,
		time.Duration(cfg.Engine.ComputeLatencyMs)*time.Millisecond,
	)
	traffic := usecases.NewTrafficService(usecases.SystemRand{}, 0)
	facilities := usecases.NewFacilityService(cfg.Facilities)
	dispatch := usecases.NewDispatchService(facilities, routes, traffic, repo, publisher, cfg.Engine.Candidates)

	bounds := cfg.City.Bounds
	logger.Info("simulation starting", "city", cfg.City.Name, "calls", *count)

	fallbacks := 0
	for i := 0; i < *count; i++ {
		req := domain.EmergencyRequest{
			CallID:       fmt.Sprintf("sim-%03d", i+1),
			Origin:       randomPoint(bounds),
			Incident:     randomPoint(bounds),
			Category:     categories[rand.IntN(len(categories))],
			Priority:     priorities[rand.IntN(len(priorities))],
			PatientCount: 1 + rand.IntN(3),
			CrewSize:     2 + rand.IntN(2),
			VehicleClass: "als",
		}

		rec, err := dispatch.HandleEmergency(ctx, req)
		if err != nil {
			logger.Error("dispatch failed", "call_id", req.CallID, "error", err)
			continue
		}
		if rec.Fallback {
			fallbacks++
		}

		eta := 0.0
		if rec.Recommended.Route != nil {
			eta = rec.Recommended.Route.ETAMinutes
		}
		logger.Info("dispatched",
			"call_id", req.CallID,
			"category", req.Category,
			"priority", req.Priority,
			"facility", rec.Recommended.Facility.Name,
			"eta_min", fmt.Sprintf("%.1f", eta),
			"fallback", rec.Fallback,
		)

		time.Sleep(*delay)
	}

	logger.Info("simulation complete", "calls", *count, "fallbacks", fallbacks)
	os.Exit(0)
}

// randomPoint picks a uniform location inside the city bounding box.
func randomPoint(b domain.Bounds) domain.GeoPoint {
	return domain.GeoPoint{
		Lat: b.South + rand.Float64()*(b.North-b.South),
		Lon: b.West + rand.Float64()*(b.East-b.West),
	}
}
