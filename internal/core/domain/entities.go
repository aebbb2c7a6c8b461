package domain

import (
	"time"
)

// EmergencyRequest is the input for a single route optimization. It is built
// by the caller per request and never retained by the engine.
type EmergencyRequest struct {
	CallID        string   `json:"call_id,omitempty"`
	Origin        GeoPoint `json:"origin"`      // ambulance position
	Incident      GeoPoint `json:"incident"`    // emergency location
	Destination   GeoPoint `json:"destination"` // target facility
	TrafficFactor float64  `json:"traffic_factor"`

	// Descriptive metadata, echoed and logged but never used numerically.
	Category     string `json:"category,omitempty"` // cardiac, trauma, stroke, ...
	Priority     string `json:"priority,omitempty"` // critical, high, medium
	PatientCount int    `json:"patient_count,omitempty"`
	CrewSize     int    `json:"crew_size,omitempty"`
	VehicleClass string `json:"vehicle_class,omitempty"`
}

// Validate checks the request against the engine input contract.
func (r EmergencyRequest) Validate() error {
	for _, p := range []GeoPoint{r.Origin, r.Incident, r.Destination} {
		if !p.InRange() {
			return ErrInvalidGeoPoint
		}
	}
	if r.TrafficFactor <= 0 {
		return ErrInvalidTrafficFactor
	}
	return nil
}

// RouteSegment is one leg of a computed route.
type RouteSegment struct {
	Start         GeoPoint `json:"start"`
	End           GeoPoint `json:"end"`
	TrafficFactor float64  `json:"traffic_factor"`
}

// RouteResult is the immutable output of one optimization call. A fresh
// instance is produced per call; later results replace earlier ones outright.
type RouteResult struct {
	Token              uint64         `json:"token"` // request generation, for staleness checks
	CallID             string         `json:"call_id,omitempty"`
	Waypoints          []GeoPoint     `json:"waypoints"` // length >= 2
	TotalDistanceKm    float64        `json:"total_distance_km"`
	ETAMinutes         float64        `json:"eta_minutes"`
	ImprovementPercent float64        `json:"improvement_percent"`
	Segments           []RouteSegment `json:"segments"` // length = waypoints-1
	ComputedAt         time.Time      `json:"computed_at"`
}

// TrafficSample is a point-in-time congestion reading.
type TrafficSample struct {
	Zone          string    `json:"zone,omitempty"`
	Location      GeoPoint  `json:"location"`
	TrafficFactor float64   `json:"traffic_factor"` // 1.0 = free-flow
	SampledAt     time.Time `json:"sampled_at"`
}

// Facility is a candidate destination (hospital) from the read-only catalog.
type Facility struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Location          GeoPoint `json:"location"`
	Capacity          int      `json:"capacity"`
	Specialties       []string `json:"specialties,omitempty"`
	EmergencyServices bool     `json:"emergency_services"`
	TraumaCenter      bool     `json:"trauma_center"`
	WaitMinutes       float64  `json:"wait_minutes"` // current average emergency queue
	DistanceKm        *float64 `json:"distance_km,omitempty"` // computed field
}

// AmbulancePosition is a real-time vehicle location reading.
type AmbulancePosition struct {
	AmbulanceID string    `json:"ambulance_id"`
	Location    GeoPoint  `json:"location"`
	Status      string    `json:"status,omitempty"` // en_route, on_scene, available
	Time        time.Time `json:"time"`
}

// FacilityOption is one ranked candidate in a dispatch recommendation.
type FacilityOption struct {
	Facility     Facility     `json:"facility"`
	Route        *RouteResult `json:"route,omitempty"`
	TotalMinutes float64      `json:"total_minutes"` // travel ETA + facility wait
	Rank         int          `json:"rank"`
}

// DispatchRecommendation is the full answer to an emergency call: the best
// facility with its optimized route, plus ranked alternatives.
type DispatchRecommendation struct {
	DispatchID  string           `json:"dispatch_id"`
	CallID      string           `json:"call_id,omitempty"`
	Incident    GeoPoint         `json:"incident"`
	Recommended FacilityOption   `json:"recommended"`
	Alternates  []FacilityOption `json:"alternates,omitempty"`
	Fallback    bool             `json:"fallback"` // true when optimization failed and nearest-facility fallback was used
	CreatedAt   time.Time        `json:"created_at"`
}

// DispatchRecord is the persisted audit entry for one handled emergency.
type DispatchRecord struct {
	ID              string    `json:"id"`
	CallID          string    `json:"call_id,omitempty"`
	Incident        GeoPoint  `json:"incident"`
	FacilityID      string    `json:"facility_id"`
	FacilityName    string    `json:"facility_name"`
	Category        string    `json:"category,omitempty"`
	Priority        string    `json:"priority,omitempty"`
	TotalDistanceKm float64   `json:"total_distance_km"`
	ETAMinutes      float64   `json:"eta_minutes"`
	Fallback        bool      `json:"fallback"`
	CreatedAt       time.Time `json:"created_at"`
}

// DispatchReport aggregates dispatch history over a period.
type DispatchReport struct {
	PeriodDays        int            `json:"period_days"`
	TotalDispatches   int            `json:"total_dispatches"`
	AvgETAMinutes     float64        `json:"avg_eta_minutes"`
	FallbackCount     int            `json:"fallback_count"`
	CategoryBreakdown map[string]int `json:"category_breakdown"`
	PriorityBreakdown map[string]int `json:"priority_breakdown"`
}
