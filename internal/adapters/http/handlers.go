package http

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/medgrid/resqroute/internal/adapters/valkey"
	"github.com/medgrid/resqroute/internal/core/domain"
	"github.com/medgrid/resqroute/internal/pkg/metrics"
)

// DispatchHandler answers an emergency call with a ranked facility
// recommendation. The request's destination field is ignored; candidate
// facilities supply their own.
func DispatchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req domain.EmergencyRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		rec, err := deps.Dispatch.HandleEmergency(c.UserContext(), req)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrInvalidGeoPoint):
				return errBadRequest(c, "origin and incident must be valid coordinates")
			case errors.Is(err, domain.ErrInvalidTrafficFactor):
				return errBadRequest(c, "traffic_factor must be positive")
			case errors.Is(err, domain.ErrNoFacilitiesAvailable):
				return errServiceUnavailable(c, "no facilities in catalog")
			default:
				return errInternal(c, err.Error())
			}
		}

		priority := req.Priority
		if priority == "" {
			priority = "unspecified"
		}
		metrics.DispatchesTotal.WithLabelValues(priority).Inc()
		if rec.Fallback {
			metrics.DispatchFallbacks.Inc()
		}

		LoggerFromCtx(c.UserContext()).Info("dispatch recommended",
			"dispatch_id", rec.DispatchID,
			"facility", rec.Recommended.Facility.ID,
			"fallback", rec.Fallback)

		return c.Status(fiber.StatusCreated).JSON(rec)
	}
}

// OptimizeRouteHandler runs a single route optimization for an explicit
// origin/incident/destination triple. The response carries the request
// token; a client holding an older token should discard its result.
func OptimizeRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req domain.EmergencyRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		start := time.Now()
		result, err := deps.Routes.Optimize(c.UserContext(), req)
		metrics.OptimizationDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrInvalidGeoPoint):
				metrics.OptimizationsTotal.WithLabelValues("invalid").Inc()
				return errBadRequest(c, "all three coordinates must be in range")
			case errors.Is(err, domain.ErrInvalidTrafficFactor):
				metrics.OptimizationsTotal.WithLabelValues("invalid").Inc()
				return errBadRequest(c, "traffic_factor must be positive")
			case errors.Is(err, domain.ErrComputationFailed):
				metrics.OptimizationsTotal.WithLabelValues("failed").Inc()
				return errInternal(c, "route computation failed")
			default:
				metrics.OptimizationsTotal.WithLabelValues("failed").Inc()
				return errInternal(c, err.Error())
			}
		}
		metrics.OptimizationsTotal.WithLabelValues("ok").Inc()

		stale := result.Token < deps.Routes.LatestToken()
		return c.JSON(fiber.Map{
			"route": result,
			"stale": stale,
		})
	}
}

// TrafficHandler returns the latest cached sample for every configured zone.
// Zones with no cached sample yet are omitted.
func TrafficHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		samples := make([]domain.TrafficSample, 0, len(deps.Zones))
		for _, z := range deps.Zones {
			if deps.Cache == nil {
				break
			}
			data, err := deps.Cache.Get(c.UserContext(), valkey.TrafficKey(z.Name))
			if err != nil {
				continue
			}
			var s domain.TrafficSample
			if err := json.Unmarshal(data, &s); err != nil {
				continue
			}
			samples = append(samples, s)
		}

		c.Set("Cache-Control", "public, max-age=15")
		return c.JSON(fiber.Map{
			"zones": samples,
			"count": len(samples),
		})
	}
}

// SampleTrafficHandler produces a fresh traffic factor reading on demand.
// Body: {"lat": .., "lon": .., "zone": "cbd"} — zone is optional.
func SampleTrafficHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Lat  float64 `json:"lat"`
			Lon  float64 `json:"lon"`
			Zone string  `json:"zone"`
		}
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		sample, err := deps.Traffic.Sample(c.UserContext(), domain.GeoPoint{Lat: body.Lat, Lon: body.Lon})
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrInvalidGeoPoint):
				return errBadRequest(c, "lat/lon out of range")
			case errors.Is(err, domain.ErrComputationFailed):
				return errInternal(c, "traffic sampling failed")
			default:
				return errInternal(c, err.Error())
			}
		}
		sample.Zone = body.Zone

		zone := sample.Zone
		if zone == "" {
			zone = "adhoc"
		}
		metrics.TrafficSamplesTotal.WithLabelValues(zone).Inc()

		if deps.Publisher != nil {
			_ = deps.Publisher.PublishTrafficSample(c.UserContext(), sample)
		}
		if deps.Cache != nil && sample.Zone != "" {
			if data, err := json.Marshal(sample); err == nil {
				_ = deps.Cache.Set(c.UserContext(), valkey.TrafficKey(sample.Zone), data, 60)
			}
		}

		return c.Status(fiber.StatusCreated).JSON(sample)
	}
}

// ListFacilitiesHandler returns the full facility catalog.
func ListFacilitiesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		facilities := deps.Facilities.List()
		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(fiber.Map{
			"facilities": facilities,
			"count":      len(facilities),
		})
	}
}

// NearestFacilityHandler returns the closest facility to a point, with
// its straight-line distance filled in.
func NearestFacilityHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat := c.QueryFloat("lat", 0)
		lon := c.QueryFloat("lon", 0)
		if lat == 0 && lon == 0 {
			return errBadRequest(c, "lat and lon are required")
		}

		facility, err := deps.Facilities.Nearest(domain.GeoPoint{Lat: lat, Lon: lon})
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrInvalidGeoPoint):
				return errBadRequest(c, "lat/lon out of range")
			case errors.Is(err, domain.ErrNoFacilitiesAvailable):
				return errNotFound(c, "no facilities in catalog")
			default:
				return errInternal(c, err.Error())
			}
		}

		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(facility)
	}
}

// UpdatePositionHandler ingests an ambulance position report.
func UpdatePositionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "ambulance id is required")
		}

		var body struct {
			Lat    float64 `json:"lat"`
			Lon    float64 `json:"lon"`
			Status string  `json:"status"`
		}
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		pos := &domain.AmbulancePosition{
			AmbulanceID: id,
			Location:    domain.GeoPoint{Lat: body.Lat, Lon: body.Lon},
			Status:      body.Status,
		}
		if err := deps.Tracking.UpdatePosition(c.UserContext(), pos); err != nil {
			if errors.Is(err, domain.ErrInvalidGeoPoint) {
				return errBadRequest(c, "lat/lon out of range")
			}
			return errInternal(c, err.Error())
		}
		metrics.AmbulancePositionsTotal.Inc()

		if deps.Cache != nil {
			if data, err := json.Marshal(pos); err == nil {
				_ = deps.Cache.Set(c.UserContext(), valkey.PositionKey(id), data, 120)
			}
		}

		return c.Status(fiber.StatusAccepted).JSON(pos)
	}
}

// GetPositionHandler returns the last known position of an ambulance.
func GetPositionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "ambulance id is required")
		}

		// Cache first, then the position store
		if deps.Cache != nil {
			if data, err := deps.Cache.Get(c.UserContext(), valkey.PositionKey(id)); err == nil {
				var pos domain.AmbulancePosition
				if err := json.Unmarshal(data, &pos); err == nil {
					return c.JSON(pos)
				}
			}
		}

		pos, err := deps.Tracking.LastKnown(c.UserContext(), id)
		if err != nil {
			return errNotFound(c, "no position recorded for "+id)
		}
		return c.JSON(pos)
	}
}

// ListDispatchesHandler returns the dispatch audit trail, newest first.
func ListDispatchesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 50)
		if offset < 0 {
			offset = 0
		}

		records, total, err := deps.Dispatch.ListDispatches(c.UserContext(), limit, offset)
		if err != nil {
			return errInternal(c, err.Error())
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: records, Pagination: pg})
	}
}

// DispatchReportHandler returns aggregate dispatch statistics for a period.
func DispatchReportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		periodDays := c.QueryInt("period_days", 30)

		report, err := deps.Dispatch.Report(c.UserContext(), periodDays)
		if err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(report)
	}
}
