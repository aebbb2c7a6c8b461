package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/medgrid/resqroute/internal/core/domain"
	"github.com/medgrid/resqroute/internal/core/ports"
)

// DispatchService coordinates a full emergency call: rank candidate
// facilities, optimize a route to each, score by door-to-door time, persist
// an audit record, and publish the outcome.
type DispatchService struct {
	facilities *FacilityService
	routes     *RouteService
	traffic    *TrafficService
	dispatches ports.DispatchRepository
	publisher  ports.EventPublisher
	candidates int
}

// NewDispatchService creates a new DispatchService. candidates is how many
// nearest facilities are optimized against per call.
func NewDispatchService(
	facilities *FacilityService,
	routes *RouteService,
	traffic *TrafficService,
	dispatches ports.DispatchRepository,
	publisher ports.EventPublisher,
	candidates int,
) *DispatchService {
	return &DispatchService{
		facilities: facilities,
		routes:     routes,
		traffic:    traffic,
		dispatches: dispatches,
		publisher:  publisher,
		candidates: candidates,
	}
}

// HandleEmergency answers an emergency call. The request's Destination is
// ignored; each candidate facility supplies its own. A zero TrafficFactor
// means "sample one now". If every optimization fails the caller still gets
// an answer: the nearest facility with Fallback set, never a dropped call.
func (s *DispatchService) HandleEmergency(ctx context.Context, req domain.EmergencyRequest) (*domain.DispatchRecommendation, error) {
	if !req.Origin.InRange() || !req.Incident.InRange() {
		return nil, domain.ErrInvalidGeoPoint
	}
	if req.TrafficFactor < 0 {
		return nil, domain.ErrInvalidTrafficFactor
	}
	if req.TrafficFactor == 0 {
		sample, err := s.traffic.Sample(ctx, req.Incident)
		if err != nil {
			return nil, fmt.Errorf("sample traffic: %w", err)
		}
		req.TrafficFactor = sample.TrafficFactor
	}

	candidates, err := s.facilities.NearestK(req.Incident, s.candidates)
	if err != nil {
		return nil, err
	}

	options := make([]domain.FacilityOption, 0, len(candidates))
	for _, f := range candidates {
		candidateReq := req
		candidateReq.Destination = f.Location

		route, err := s.routes.Optimize(ctx, candidateReq)
		if err != nil {
			slog.Warn("candidate optimization failed",
				"call_id", req.CallID, "facility", f.ID, "error", err)
			continue
		}

		options = append(options, domain.FacilityOption{
			Facility:     f,
			Route:        route,
			TotalMinutes: route.ETAMinutes + f.WaitMinutes,
		})
	}

	rec := &domain.DispatchRecommendation{
		DispatchID: uuid.NewString(),
		CallID:     req.CallID,
		Incident:   req.Incident,
		CreatedAt:  time.Now(),
	}

	if len(options) == 0 {
		// Fallback policy: nearest facility by straight distance, no route.
		rec.Fallback = true
		rec.Recommended = domain.FacilityOption{Facility: candidates[0], Rank: 1}
	} else {
		sort.SliceStable(options, func(i, j int) bool {
			return options[i].TotalMinutes < options[j].TotalMinutes
		})
		for i := range options {
			options[i].Rank = i + 1
		}
		rec.Recommended = options[0]
		if len(options) > 1 {
			rec.Alternates = options[1:]
		}
	}

	record := recordFromRecommendation(rec, req)
	if s.dispatches != nil {
		if err := s.dispatches.Insert(ctx, record); err != nil {
			// Audit trail is best-effort; the recommendation still stands.
			slog.Error("persist dispatch record", "dispatch_id", rec.DispatchID, "error", err)
		}
	}

	if s.publisher != nil {
		_ = s.publisher.PublishDispatch(ctx, rec)
	}

	return rec, nil
}

// ListDispatches returns persisted dispatch records plus the total count.
func (s *DispatchService) ListDispatches(ctx context.Context, limit, offset int) ([]domain.DispatchRecord, int, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.dispatches.List(ctx, limit, offset)
}

// Report aggregates dispatch history over the trailing period.
func (s *DispatchService) Report(ctx context.Context, periodDays int) (*domain.DispatchReport, error) {
	if periodDays <= 0 || periodDays > 365 {
		periodDays = 30
	}
	return s.dispatches.Report(ctx, periodDays)
}

func recordFromRecommendation(rec *domain.DispatchRecommendation, req domain.EmergencyRequest) *domain.DispatchRecord {
	record := &domain.DispatchRecord{
		ID:           rec.DispatchID,
		CallID:       rec.CallID,
		Incident:     rec.Incident,
		FacilityID:   rec.Recommended.Facility.ID,
		FacilityName: rec.Recommended.Facility.Name,
		Category:     req.Category,
		Priority:     req.Priority,
		Fallback:     rec.Fallback,
		CreatedAt:    rec.CreatedAt,
	}
	if rec.Recommended.Route != nil {
		record.TotalDistanceKm = rec.Recommended.Route.TotalDistanceKm
		record.ETAMinutes = rec.Recommended.Route.ETAMinutes
	}
	return record
}
