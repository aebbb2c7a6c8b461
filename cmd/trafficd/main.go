package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	natsadapter "github.com/medgrid/resqroute/internal/adapters/nats"
	"github.com/medgrid/resqroute/internal/adapters/valkey"
	"github.com/medgrid/resqroute/internal/core/domain"
	"github.com/medgrid/resqroute/internal/core/usecases"
	"github.com/medgrid/resqroute/internal/pkg/config"
	"github.com/medgrid/resqroute/internal/pkg/logging"
	"github.com/medgrid/resqroute/internal/pkg/metrics"
)

// trafficd periodically samples a congestion factor for every configured
// zone, publishes each sample to NATS, and caches the latest one per zone
// for the API's GET /v1/traffic endpoint.
func main() {
	cfg, err := config.Load("resqroute-trafficd")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")
	logger := logging.Component("trafficd")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// NATS
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer pub.Close()

	// Cache
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		logger.Warn("valkey unavailable, samples will not be cached", "error", err)
	} else {
		defer cache.Close()
	}

	// Drop zones configured outside the city bounding box
	zones := make([]config.TrafficZone, 0, len(cfg.Sampler.Zones))
	for _, z := range cfg.Sampler.Zones {
		if !cfg.City.Bounds.Contains(domain.GeoPoint{Lat: z.Lat, Lon: z.Lon}) {
			logger.Warn("zone outside city bounds, skipping", "zone", z.Name)
			continue
		}
		zones = append(zones, z)
	}

	sampler := usecases.NewTrafficService(usecases.SystemRand{}, 0)
	interval := time.Duration(cfg.Sampler.IntervalSec) * time.Second
	// Cached samples outlive one interval so a slow tick does not blank the API
	ttlSeconds := cfg.Sampler.IntervalSec * 2

	logger.Info("traffic sampler starting",
		"zones", len(zones), "interval", interval.String())

	sampleAll := func() {
		for _, zone := range zones {
			sample, err := sampler.Sample(ctx, domain.GeoPoint{Lat: zone.Lat, Lon: zone.Lon})
			if err != nil {
				logger.Error("sample zone", "zone", zone.Name, "error", err)
				continue
			}
			sample.Zone = zone.Name
			metrics.TrafficSamplesTotal.WithLabelValues(zone.Name).Inc()

			if err := pub.PublishTrafficSample(ctx, sample); err != nil {
				logger.Error("publish sample", "zone", zone.Name, "error", err)
			}

			if cache != nil {
				data, err := json.Marshal(sample)
				if err == nil {
					if err := cache.Set(ctx, valkey.TrafficKey(zone.Name), data, ttlSeconds); err != nil {
						logger.Error("cache sample", "zone", zone.Name, "error", err)
					}
				}
			}

			logger.Debug("zone sampled", "zone", zone.Name, "factor", sample.TrafficFactor)
		}
	}

	// First round immediately, then on the ticker
	sampleAll()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			sampleAll()
		case sig := <-quit:
			logger.Info("shutting down", "signal", sig.String())
			return
		}
	}
}
